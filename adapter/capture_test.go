package adapter

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPcap(t *testing.T, packets [][]byte) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	w := pcapgo.NewWriter(buf)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	for _, p := range packets {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(0, 0),
			CaptureLength: len(p),
			Length:        len(p),
		}
		require.NoError(t, w.WritePacket(ci, p))
	}
	return buf
}

func TestOfflineSourceReadsPacketAndEtherType(t *testing.T) {
	frame := make([]byte, 20)
	frame[12] = 0x08
	frame[13] = 0x00 // IPv4 ethertype

	buf := writeTestPcap(t, [][]byte{frame})
	reader, err := pcapgo.NewReader(buf)
	require.NoError(t, err)

	closed := false
	src := NewOfflineSource(reader, func() error { closed = true; return nil })

	win, hints, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, frame, win.Bytes())
	assert.Equal(t, uint16(0x0800), hints.EtherType)
	assert.Equal(t, layers.LinkTypeEthernet, hints.LinkType)

	_, _, err = src.Next()
	assert.Error(t, err)

	require.NoError(t, src.Close())
	assert.True(t, closed)
}

func TestOfflineSourceCloseWithoutCloser(t *testing.T) {
	buf := writeTestPcap(t, nil)
	reader, err := pcapgo.NewReader(buf)
	require.NoError(t, err)

	src := NewOfflineSource(reader, nil)
	assert.NoError(t, src.Close())
}
