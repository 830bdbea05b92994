package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSamplePcap(t *testing.T, packets [][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	for _, p := range packets {
		ci := gopacket.CaptureInfo{Timestamp: time.Unix(0, 0), CaptureLength: len(p), Length: len(p)}
		require.NoError(t, w.WritePacket(ci, p))
	}
	return path
}

func arpFrame() []byte {
	frame := make([]byte, 42)
	frame[12], frame[13] = 0x08, 0x06 // ARP ethertype
	return frame
}

func TestRegistryListCommandRuns(t *testing.T) {
	buf := &bytes.Buffer{}
	registryListCmd.SetOut(buf)
	require.NoError(t, registryListCmd.RunE(registryListCmd, nil))
	assert.Contains(t, buf.String(), "arp")
	assert.Contains(t, buf.String(), "dns")
}

func TestRunCommandReadsPcap(t *testing.T) {
	path := writeSamplePcap(t, [][]byte{arpFrame()})
	buf := &bytes.Buffer{}
	runCmd.SetOut(buf)
	require.NoError(t, runCmd.RunE(runCmd, []string{path}))
	assert.Contains(t, buf.String(), "packets read")
}

func TestClassifyCommandReadsPcap(t *testing.T) {
	path := writeSamplePcap(t, [][]byte{[]byte("GET / HTTP/1.1\r\n")})
	buf := &bytes.Buffer{}
	classifyCmd.SetOut(buf)
	require.NoError(t, classifyCmd.RunE(classifyCmd, []string{path}))
	assert.Contains(t, buf.String(), "packets classified")
}
