// Package ssh decodes the SSH-2 transport layer (RFC 4253): the banner
// exchange and binary packet framing, enough to recognise KEXINIT,
// NEWKEYS, SERVICE_REQUEST/ACCEPT, USERAUTH_SUCCESS, and DISCONNECT and
// drive a connection's lifecycle. Key exchange and encryption are out of
// scope; everything past NEWKEYS is opaque ciphertext to a real
// implementation and is only modelled here far enough to track message
// types that are sometimes still visible in capture (e.g. over a
// deliberately unencrypted test transport).
package ssh

import (
	"github.com/tevino/abool"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
	"firestige.xyz/dissect/internal/wire"
)

// MetaKey is where Parse deposits the decoded *Session.
const MetaKey = "ssh_session"

// Lifecycle is an SSH connection's position in the RFC 4253 handshake.
type Lifecycle uint8

const (
	VersionExchange Lifecycle = iota
	KeyExchange
	Authentication
	Connection
	Disconnected
)

func (l Lifecycle) String() string {
	switch l {
	case VersionExchange:
		return "VersionExchange"
	case KeyExchange:
		return "KeyExchange"
	case Authentication:
		return "Authentication"
	case Connection:
		return "Connection"
	case Disconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// MessageType is the SSH binary packet's payload type byte (RFC 4253 §12).
type MessageType uint8

const (
	MsgDisconnect     MessageType = 1
	MsgServiceRequest MessageType = 5
	MsgServiceAccept  MessageType = 6
	MsgKexInit        MessageType = 20
	MsgNewKeys        MessageType = 21
	MsgUserAuthSuccess MessageType = 52
)

const (
	minPacketLength = 1
	maxPacketLength = 35000
	minPaddingLength = 4
)

// Banner is one side's SSH-protoversion-softwareversion[ comments] line.
type Banner struct {
	ProtoVersion    string
	SoftwareVersion string
	Comments        string
	Raw             string
}

// KexInit is the decoded KEXINIT payload: a 16-byte anti-spoofing cookie
// followed by ten algorithm-preference name-lists (RFC 4253 §7.1).
type KexInit struct {
	Cookie                  [16]byte
	KexAlgorithms           []string
	ServerHostKeyAlgorithms []string
	EncryptionClientToServer []string
	EncryptionServerToClient []string
	MACClientToServer       []string
	MACServerToClient       []string
	CompressionClientToServer []string
	CompressionServerToClient []string
	LanguagesClientToServer []string
	LanguagesServerToClient []string
	FirstKexPacketFollows  bool
}

// Message is one decoded binary packet once the version exchange is done.
type Message struct {
	Type    MessageType
	Payload []byte // raw payload for types this package doesn't structurally decode
	KexInit *KexInit
}

// Session accumulates everything decoded about one SSH connection across
// repeated Parse calls that share the same *Session (the dissector is
// stateful across packets, unlike the single-shot protocols).
type Session struct {
	ClientBanner *Banner
	ServerBanner *Banner
	Lifecycle    Lifecycle
	Messages     []Message
}

// Dissector implements dissect.Dissector for the SSH-2 transport layer. It
// is stateful: construct one per connection and feed it successive
// messages (banner lines, then binary packets) via Parse.
type Dissector struct {
	progress       float64
	session        Session
	disconnectSent *abool.AtomicBool
}

func New() *Dissector {
	return &Dissector{session: Session{Lifecycle: VersionExchange}, disconnectSent: abool.New()}
}

// DisconnectSent reports whether a DISCONNECT message has already been
// observed on this connection.
func (d *Dissector) DisconnectSent() bool {
	return d.disconnectSent.IsSet()
}

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "ssh", ID: 22, MinHeaderLen: 4, MinMsgLen: 4}
}

// Probe recognises the SSH-2 banner prefix; once past VersionExchange, a
// binary packet has no fixed recognisable prefix, so Probe only ever fires
// on the first message of a connection.
func (d *Dissector) Probe(window bytesview.Window) bool {
	if window.Len() < 4 {
		return false
	}
	return string(window.Bytes()[:4]) == "SSH-"
}

func (d *Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window

	var res dissect.Result
	if d.session.Lifecycle == VersionExchange {
		res = d.parseBanner(ctx, w)
	} else {
		res = d.parseBinaryPacket(ctx, w)
	}
	if res != dissect.Success {
		if res != dissect.NeedMoreData {
			ctx.Fail()
		}
		return res
	}

	ctx.Put(MetaKey, &d.session)
	ctx.Finish()
	d.progress = 1
	return dissect.Success
}

func (d *Dissector) parseBanner(ctx *dissect.Context, w bytesview.Window) dissect.Result {
	nl := indexByte(w, '\n')
	if nl < 0 {
		return dissect.NeedMoreData
	}
	line := w.Bytes()[:nl]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	banner, ok := parseBannerLine(string(line))
	if !ok {
		return dissect.InvalidFormat
	}

	if d.session.ClientBanner == nil {
		d.session.ClientBanner = &banner
	} else {
		d.session.ServerBanner = &banner
		d.session.Lifecycle = KeyExchange
	}
	ctx.Advance(nl + 1)
	return dissect.Success
}

func (d *Dissector) parseBinaryPacket(ctx *dissect.Context, w bytesview.Window) dissect.Result {
	if w.Len() < 5 {
		return dissect.BufferTooSmall
	}
	packetLen, err := w.ReadU32(0)
	if err != nil {
		return dissect.BufferTooSmall
	}
	if int(packetLen) < minPacketLength || int(packetLen) > maxPacketLength {
		return dissect.InvalidFormat
	}
	if w.Len() < 4+int(packetLen) {
		return dissect.NeedMoreData
	}
	padLen, err := w.ReadU8(4)
	if err != nil {
		return dissect.NeedMoreData
	}
	if int(padLen) < minPaddingLength || int(padLen) >= int(packetLen) {
		return dissect.InvalidFormat
	}

	payloadLen := int(packetLen) - 1 - int(padLen)
	if payloadLen < 1 {
		return dissect.InvalidFormat
	}
	payloadWindow, err := w.Sub(5, payloadLen)
	if err != nil {
		return dissect.NeedMoreData
	}
	payload := payloadWindow.Bytes()

	msgType := MessageType(payload[0])
	msg := Message{Type: msgType}

	switch msgType {
	case MsgKexInit:
		kex, ok := decodeKexInit(payloadWindow)
		if !ok {
			return dissect.InvalidFormat
		}
		msg.KexInit = kex
	case MsgNewKeys:
		d.session.Lifecycle = Authentication
	case MsgUserAuthSuccess:
		d.session.Lifecycle = Connection
	case MsgDisconnect:
		d.session.Lifecycle = Disconnected
		d.disconnectSent.Set()
	default:
		msg.Payload = payload[1:]
	}

	if d.session.Lifecycle == KeyExchange && msgType != MsgKexInit {
		d.session.Lifecycle = Authentication
	}

	d.session.Messages = append(d.session.Messages, msg)
	ctx.Advance(4 + int(packetLen))
	return dissect.Success
}

func (d *Dissector) Reset() {
	d.progress = 0
	d.session = Session{Lifecycle: VersionExchange}
	d.disconnectSent.UnSet()
}

func (d *Dissector) Progress() float64 { return d.progress }

func indexByte(w bytesview.Window, b byte) int {
	for i, c := range w.Bytes() {
		if c == b {
			return i
		}
	}
	return -1
}

// SessionFrom retrieves the decoded SSH session deposited by Parse.
func SessionFrom(ctx *dissect.Context) (*Session, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

func decodeKexInit(w bytesview.Window) (*KexInit, bool) {
	if w.Len() < 1+16+4 {
		return nil, false
	}
	var cookie [16]byte
	copy(cookie[:], w.Bytes()[1:17])

	cursor := 17
	lists := make([][]string, 10)
	for i := range lists {
		names, n, err := wire.ReadSSHNameList(w, cursor)
		if err != nil {
			return nil, false
		}
		lists[i] = names
		cursor += n
	}

	if w.Len() < cursor+1 {
		return nil, false
	}
	firstKexFollows, err := w.ReadU8(cursor)
	if err != nil {
		return nil, false
	}

	return &KexInit{
		Cookie:                    cookie,
		KexAlgorithms:             lists[0],
		ServerHostKeyAlgorithms:   lists[1],
		EncryptionClientToServer:  lists[2],
		EncryptionServerToClient:  lists[3],
		MACClientToServer:         lists[4],
		MACServerToClient:         lists[5],
		CompressionClientToServer: lists[6],
		CompressionServerToClient: lists[7],
		LanguagesClientToServer:   lists[8],
		LanguagesServerToClient:   lists[9],
		FirstKexPacketFollows:     firstKexFollows != 0,
	}, true
}
