package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers are assigned per message type and never reused once shipped,
// matching the "explicit field numbers" requirement in spec section 6.

// ---- enums ----

type FrameFormat int32

const (
	FrameFormatUnspecified FrameFormat = 0
	FrameFormatRGB         FrameFormat = 1
	FrameFormatRGBA        FrameFormat = 2
)

// Stride returns the bytes-per-pixel for the format, used by the encoder to
// compute the pixel stride when diffing buffers.
func (f FrameFormat) Stride() int {
	switch f {
	case FrameFormatRGB:
		return 3
	case FrameFormatRGBA:
		return 4
	default:
		return 0
	}
}

type CompressionCodec int32

const (
	CompressionNone CompressionCodec = 0
	CompressionZstd CompressionCodec = 1
)

type WindowMode int32

const (
	WindowModeUnspecified      WindowMode = 0
	WindowModeFullscreen       WindowMode = 1
	WindowModeBorderless       WindowMode = 2
	WindowModeWindowed         WindowMode = 3
	WindowModeWindowedMaximize WindowMode = 4
)

type FrameAnchor int32

const (
	FrameAnchorUnspecified FrameAnchor = 0
	FrameAnchorTopLeft     FrameAnchor = 1
	FrameAnchorCenter      FrameAnchor = 2
)

type AuthKind int32

const (
	AuthNone      AuthKind = 0
	AuthPassword  AuthKind = 1
	AuthSignature AuthKind = 2
)

type AuthStatus int32

const (
	AuthStatusUnspecified AuthStatus = 0
	AuthStatusSuccess     AuthStatus = 1
	AuthStatusFailure     AuthStatus = 2
)

type UserInputKind int32

const (
	UserInputUnspecified UserInputKind = 0
	UserInputKey         UserInputKind = 1
	UserInputMouse       UserInputKind = 2
	UserInputWindow      UserInputKind = 3
)

type KeyAction int32

const (
	KeyActionUnspecified KeyAction = 0
	KeyActionPress       KeyAction = 1
	KeyActionRelease     KeyAction = 2
)

type MouseAction int32

const (
	MouseActionUnspecified MouseAction = 0
	MouseActionMove        MouseAction = 1
	MouseActionPress       MouseAction = 2
	MouseActionRelease     MouseAction = 3
	MouseActionScroll      MouseAction = 4
)

type WindowAction int32

const (
	WindowActionUnspecified  WindowAction = 0
	WindowActionResize       WindowAction = 1
	WindowActionMove         WindowAction = 2
	WindowActionClose        WindowAction = 3
	WindowActionMinimize     WindowAction = 4
	WindowActionMaximize     WindowAction = 5
	WindowActionFullscreen   WindowAction = 6
	WindowActionUnfullscreen WindowAction = 7
	WindowActionFocus        WindowAction = 8
	WindowActionUnfocus      WindowAction = 9
)

type StatusLevel int32

const (
	StatusLevelUnspecified StatusLevel = 0
	StatusLevelInfo        StatusLevel = 1
	StatusLevelWarning     StatusLevel = 2
	StatusLevelError       StatusLevel = 3
	StatusLevelExit        StatusLevel = 4
)

// ---- envelope kinds ----

// Kind tags which concrete message type a codec body decodes to.
type Kind int32

const (
	KindClientHello Kind = iota + 1
	KindServerHelloAck
	KindClientAuth
	KindServerAuthAck
	KindFrame
	KindUserInput
	KindStatusUpdate
)

// Message is implemented by every wire message type.
type Message interface {
	Kind() Kind
	marshalAppend(b []byte) []byte
}

// ---- Monitor ----

type Monitor struct {
	ID        uint32
	X         int32
	Y         int32
	Width     uint32
	Height    uint32
	RefreshHz uint32
}

const (
	fMonitorID = protowire.Number(1)
	fMonitorX  = protowire.Number(2)
	fMonitorY  = protowire.Number(3)
	fMonitorW  = protowire.Number(4)
	fMonitorH  = protowire.Number(5)
	fMonitorHz = protowire.Number(6)
)

func (m Monitor) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fMonitorID, uint64(m.ID))
	w.sint32(fMonitorX, m.X)
	w.sint32(fMonitorY, m.Y)
	w.varint(fMonitorW, uint64(m.Width))
	w.varint(fMonitorH, uint64(m.Height))
	w.varint(fMonitorHz, uint64(m.RefreshHz))
	return w.b
}

func unmarshalMonitor(body []byte) (Monitor, error) {
	var m Monitor
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fMonitorID:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.ID = uint32(v)
				return n, nil
			}
		case fMonitorX:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.X = unzigzag32(uint32(v))
				return n, nil
			}
		case fMonitorY:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Y = unzigzag32(uint32(v))
				return n, nil
			}
		case fMonitorW:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Width = uint32(v)
				return n, nil
			}
		case fMonitorH:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Height = uint32(v)
				return n, nil
			}
		case fMonitorHz:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.RefreshHz = uint32(v)
				return n, nil
			}
		}
		return -1, nil
	})
	return m, err
}

// ---- Window ----

type Window struct {
	WindowID     uint32
	Width        uint32
	Height       uint32
	Title        string
	Mode         WindowMode
	Anchor       FrameAnchor
	Resizable    bool
	ResizeFrame  bool
	AlwaysOnTop  bool
	HasMonitor   bool
	MonitorID    uint32
}

const (
	fWindowID          = protowire.Number(1)
	fWindowWidth       = protowire.Number(2)
	fWindowHeight      = protowire.Number(3)
	fWindowTitle       = protowire.Number(4)
	fWindowMode        = protowire.Number(5)
	fWindowAnchor      = protowire.Number(6)
	fWindowResizable   = protowire.Number(7)
	fWindowResizeFrame = protowire.Number(8)
	fWindowAlwaysTop   = protowire.Number(9)
	fWindowHasMonitor  = protowire.Number(10)
	fWindowMonitorID   = protowire.Number(11)
)

func (win Window) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fWindowID, uint64(win.WindowID))
	w.varint(fWindowWidth, uint64(win.Width))
	w.varint(fWindowHeight, uint64(win.Height))
	w.str(fWindowTitle, win.Title)
	w.varint(fWindowMode, uint64(win.Mode))
	w.varint(fWindowAnchor, uint64(win.Anchor))
	w.boolean(fWindowResizable, win.Resizable)
	w.boolean(fWindowResizeFrame, win.ResizeFrame)
	w.boolean(fWindowAlwaysTop, win.AlwaysOnTop)
	w.boolean(fWindowHasMonitor, win.HasMonitor)
	w.varint(fWindowMonitorID, uint64(win.MonitorID))
	return w.b
}

func unmarshalWindow(body []byte) (Window, error) {
	var win Window
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fWindowID:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.WindowID = uint32(v)
				return n, nil
			}
		case fWindowWidth:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.Width = uint32(v)
				return n, nil
			}
		case fWindowHeight:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.Height = uint32(v)
				return n, nil
			}
		case fWindowTitle:
			if v, n, ok := consumeBytes(typ, b); ok {
				win.Title = string(v)
				return n, nil
			}
		case fWindowMode:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.Mode = WindowMode(v)
				return n, nil
			}
		case fWindowAnchor:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.Anchor = FrameAnchor(v)
				return n, nil
			}
		case fWindowResizable:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.Resizable = v != 0
				return n, nil
			}
		case fWindowResizeFrame:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.ResizeFrame = v != 0
				return n, nil
			}
		case fWindowAlwaysTop:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.AlwaysOnTop = v != 0
				return n, nil
			}
		case fWindowHasMonitor:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.HasMonitor = v != 0
				return n, nil
			}
		case fWindowMonitorID:
			if v, n, ok := consumeVarint(typ, b); ok {
				win.MonitorID = uint32(v)
				return n, nil
			}
		}
		return -1, nil
	})
	return win, err
}

// ---- Compression ----

type Compression struct {
	Codec CompressionCodec
	Level int32
}

const (
	fCompCodec = protowire.Number(1)
	fCompLevel = protowire.Number(2)
)

func (c Compression) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fCompCodec, uint64(c.Codec))
	w.sint32(fCompLevel, c.Level)
	return w.b
}

func unmarshalCompression(body []byte) (Compression, error) {
	var c Compression
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fCompCodec:
			if v, n, ok := consumeVarint(typ, b); ok {
				c.Codec = CompressionCodec(v)
				return n, nil
			}
		case fCompLevel:
			if v, n, ok := consumeVarint(typ, b); ok {
				c.Level = unzigzag32(uint32(v))
				return n, nil
			}
		}
		return -1, nil
	})
	return c, err
}

// ---- AuthMethod (ServerHelloAck's challenge union) ----

type AuthMethod struct {
	Kind         AuthKind
	SignMessage  []byte // only set when Kind == AuthSignature
}

const (
	fAuthMethodKind    = protowire.Number(1)
	fAuthMethodChallng = protowire.Number(2)
)

func (a AuthMethod) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fAuthMethodKind, uint64(a.Kind))
	w.bytes(fAuthMethodChallng, a.SignMessage)
	return w.b
}

func unmarshalAuthMethod(body []byte) (AuthMethod, error) {
	var a AuthMethod
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fAuthMethodKind:
			if v, n, ok := consumeVarint(typ, b); ok {
				a.Kind = AuthKind(v)
				return n, nil
			}
		case fAuthMethodChallng:
			if v, n, ok := consumeBytes(typ, b); ok {
				a.SignMessage = v
				return n, nil
			}
		}
		return -1, nil
	})
	return a, err
}

// ---- ClientHello ----

type ClientHello struct {
	ProtocolVersion uint32
	OS              string
	OSVersion       string
	Monitors        []Monitor
}

func (ClientHello) Kind() Kind { return KindClientHello }

const (
	fChProtoVer  = protowire.Number(1)
	fChOS        = protowire.Number(2)
	fChOSVersion = protowire.Number(3)
	fChMonitor   = protowire.Number(4) // repeated
)

func (m ClientHello) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fChProtoVer, uint64(m.ProtocolVersion))
	w.str(fChOS, m.OS)
	w.str(fChOSVersion, m.OSVersion)
	for _, mon := range m.Monitors {
		w.message(fChMonitor, mon.marshalAppend(nil))
	}
	return w.b
}

func unmarshalClientHello(body []byte) (*ClientHello, error) {
	m := &ClientHello{}
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fChProtoVer:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.ProtocolVersion = uint32(v)
				return n, nil
			}
		case fChOS:
			if v, n, ok := consumeBytes(typ, b); ok {
				m.OS = string(v)
				return n, nil
			}
		case fChOSVersion:
			if v, n, ok := consumeBytes(typ, b); ok {
				m.OSVersion = string(v)
				return n, nil
			}
		case fChMonitor:
			if v, n, ok := consumeBytes(typ, b); ok {
				mon, err := unmarshalMonitor(v)
				if err != nil {
					return 0, err
				}
				m.Monitors = append(m.Monitors, mon)
				return n, nil
			}
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ---- ServerHelloAck ----

type ServerHelloAck struct {
	Format      FrameFormat
	Compression *Compression
	Windows     []Window
	AuthMethod  *AuthMethod
}

func (ServerHelloAck) Kind() Kind { return KindServerHelloAck }

const (
	fShaFormat = protowire.Number(1)
	fShaComp   = protowire.Number(2)
	fShaWindow = protowire.Number(3) // repeated
	fShaAuth   = protowire.Number(4)
)

func (m ServerHelloAck) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fShaFormat, uint64(m.Format))
	if m.Compression != nil {
		w.message(fShaComp, m.Compression.marshalAppend(nil))
	}
	for _, win := range m.Windows {
		w.message(fShaWindow, win.marshalAppend(nil))
	}
	if m.AuthMethod != nil {
		w.message(fShaAuth, m.AuthMethod.marshalAppend(nil))
	}
	return w.b
}

func unmarshalServerHelloAck(body []byte) (*ServerHelloAck, error) {
	m := &ServerHelloAck{}
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fShaFormat:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Format = FrameFormat(v)
				return n, nil
			}
		case fShaComp:
			if v, n, ok := consumeBytes(typ, b); ok {
				c, err := unmarshalCompression(v)
				if err != nil {
					return 0, err
				}
				m.Compression = &c
				return n, nil
			}
		case fShaWindow:
			if v, n, ok := consumeBytes(typ, b); ok {
				win, err := unmarshalWindow(v)
				if err != nil {
					return 0, err
				}
				m.Windows = append(m.Windows, win)
				return n, nil
			}
		case fShaAuth:
			if v, n, ok := consumeBytes(typ, b); ok {
				a, err := unmarshalAuthMethod(v)
				if err != nil {
					return 0, err
				}
				m.AuthMethod = &a
				return n, nil
			}
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ---- ClientAuth ----

type ClientAuth struct {
	Method    AuthKind
	Password  string
	Signature []byte
	PublicKey []byte // DER-encoded
}

func (ClientAuth) Kind() Kind { return KindClientAuth }

const (
	fCaKind = protowire.Number(1)
	fCaPass = protowire.Number(2)
	fCaSig  = protowire.Number(3)
	fCaPK   = protowire.Number(4)
)

func (m ClientAuth) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fCaKind, uint64(m.Method))
	w.str(fCaPass, m.Password)
	w.bytes(fCaSig, m.Signature)
	w.bytes(fCaPK, m.PublicKey)
	return w.b
}

func unmarshalClientAuth(body []byte) (*ClientAuth, error) {
	m := &ClientAuth{}
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fCaKind:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Method = AuthKind(v)
				return n, nil
			}
		case fCaPass:
			if v, n, ok := consumeBytes(typ, b); ok {
				m.Password = string(v)
				return n, nil
			}
		case fCaSig:
			if v, n, ok := consumeBytes(typ, b); ok {
				m.Signature = v
				return n, nil
			}
		case fCaPK:
			if v, n, ok := consumeBytes(typ, b); ok {
				m.PublicKey = v
				return n, nil
			}
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ---- ServerAuthAck ----

type ServerAuthAck struct {
	Status  AuthStatus
	Message string
}

func (ServerAuthAck) Kind() Kind { return KindServerAuthAck }

const (
	fSaaStatus = protowire.Number(1)
	fSaaMsg    = protowire.Number(2)
)

func (m ServerAuthAck) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fSaaStatus, uint64(m.Status))
	w.str(fSaaMsg, m.Message)
	return w.b
}

func unmarshalServerAuthAck(body []byte) (*ServerAuthAck, error) {
	m := &ServerAuthAck{}
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fSaaStatus:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Status = AuthStatus(v)
				return n, nil
			}
		case fSaaMsg:
			if v, n, ok := consumeBytes(typ, b); ok {
				m.Message = string(v)
				return n, nil
			}
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ---- Segment / Frame ----

type Segment struct {
	X, Y, W, H uint32
	Data       []byte
}

const (
	fSegX    = protowire.Number(1)
	fSegY    = protowire.Number(2)
	fSegW    = protowire.Number(3)
	fSegH    = protowire.Number(4)
	fSegData = protowire.Number(5)
)

func (s Segment) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fSegX, uint64(s.X))
	w.varint(fSegY, uint64(s.Y))
	w.varint(fSegW, uint64(s.W))
	w.varint(fSegH, uint64(s.H))
	w.bytesOrEmpty(fSegData, s.Data)
	return w.b
}

func unmarshalSegment(body []byte) (Segment, error) {
	var s Segment
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fSegX:
			if v, n, ok := consumeVarint(typ, b); ok {
				s.X = uint32(v)
				return n, nil
			}
		case fSegY:
			if v, n, ok := consumeVarint(typ, b); ok {
				s.Y = uint32(v)
				return n, nil
			}
		case fSegW:
			if v, n, ok := consumeVarint(typ, b); ok {
				s.W = uint32(v)
				return n, nil
			}
		case fSegH:
			if v, n, ok := consumeVarint(typ, b); ok {
				s.H = uint32(v)
				return n, nil
			}
		case fSegData:
			if v, n, ok := consumeBytes(typ, b); ok {
				s.Data = append([]byte(nil), v...)
				return n, nil
			}
		}
		return -1, nil
	})
	return s, err
}

type Frame struct {
	WindowID uint32
	Width    uint32
	Height   uint32
	Segments []Segment
}

func (Frame) Kind() Kind { return KindFrame }

const (
	fFrWindowID = protowire.Number(1)
	fFrWidth    = protowire.Number(2)
	fFrHeight   = protowire.Number(3)
	fFrSegment  = protowire.Number(4) // repeated
)

func (m Frame) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fFrWindowID, uint64(m.WindowID))
	w.varint(fFrWidth, uint64(m.Width))
	w.varint(fFrHeight, uint64(m.Height))
	for _, seg := range m.Segments {
		w.message(fFrSegment, seg.marshalAppend(nil))
	}
	return w.b
}

func unmarshalFrame(body []byte) (*Frame, error) {
	m := &Frame{}
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fFrWindowID:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.WindowID = uint32(v)
				return n, nil
			}
		case fFrWidth:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Width = uint32(v)
				return n, nil
			}
		case fFrHeight:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Height = uint32(v)
				return n, nil
			}
		case fFrSegment:
			if v, n, ok := consumeBytes(typ, b); ok {
				seg, err := unmarshalSegment(v)
				if err != nil {
					return 0, err
				}
				m.Segments = append(m.Segments, seg)
				return n, nil
			}
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ---- UserInput ----

type KeyEvent struct {
	Action    KeyAction
	KeyCode   uint32
	Modifiers uint32
}

const (
	fKeyAction = protowire.Number(1)
	fKeyCode   = protowire.Number(2)
	fKeyMods   = protowire.Number(3)
)

func (k KeyEvent) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fKeyAction, uint64(k.Action))
	w.varint(fKeyCode, uint64(k.KeyCode))
	w.varint(fKeyMods, uint64(k.Modifiers))
	return w.b
}

func unmarshalKeyEvent(body []byte) (KeyEvent, error) {
	var k KeyEvent
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fKeyAction:
			if v, n, ok := consumeVarint(typ, b); ok {
				k.Action = KeyAction(v)
				return n, nil
			}
		case fKeyCode:
			if v, n, ok := consumeVarint(typ, b); ok {
				k.KeyCode = uint32(v)
				return n, nil
			}
		case fKeyMods:
			if v, n, ok := consumeVarint(typ, b); ok {
				k.Modifiers = uint32(v)
				return n, nil
			}
		}
		return -1, nil
	})
	return k, err
}

type MouseEvent struct {
	Action             MouseAction
	Button             uint32
	X, Y               int32
	DeltaX, DeltaY     int32
}

const (
	fMouseAction = protowire.Number(1)
	fMouseButton = protowire.Number(2)
	fMouseX      = protowire.Number(3)
	fMouseY      = protowire.Number(4)
	fMouseDX     = protowire.Number(5)
	fMouseDY     = protowire.Number(6)
)

func (m MouseEvent) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fMouseAction, uint64(m.Action))
	w.varint(fMouseButton, uint64(m.Button))
	w.sint32(fMouseX, m.X)
	w.sint32(fMouseY, m.Y)
	w.sint32(fMouseDX, m.DeltaX)
	w.sint32(fMouseDY, m.DeltaY)
	return w.b
}

func unmarshalMouseEvent(body []byte) (MouseEvent, error) {
	var m MouseEvent
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fMouseAction:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Action = MouseAction(v)
				return n, nil
			}
		case fMouseButton:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Button = uint32(v)
				return n, nil
			}
		case fMouseX:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.X = unzigzag32(uint32(v))
				return n, nil
			}
		case fMouseY:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Y = unzigzag32(uint32(v))
				return n, nil
			}
		case fMouseDX:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.DeltaX = unzigzag32(uint32(v))
				return n, nil
			}
		case fMouseDY:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.DeltaY = unzigzag32(uint32(v))
				return n, nil
			}
		}
		return -1, nil
	})
	return m, err
}

type WindowEvent struct {
	Action WindowAction
	// Present is a bitmask: bit0=X bit1=Y bit2=W bit3=H, since resize/move
	// events carry a subset of these and zero is a valid coordinate.
	Present uint32
	X, Y    int32
	W, H    uint32
}

const (
	presentX = 1 << 0
	presentY = 1 << 1
	presentW = 1 << 2
	presentH = 1 << 3
)

const (
	fWinEvAction  = protowire.Number(1)
	fWinEvPresent = protowire.Number(2)
	fWinEvX       = protowire.Number(3)
	fWinEvY       = protowire.Number(4)
	fWinEvW       = protowire.Number(5)
	fWinEvH       = protowire.Number(6)
)

func (m WindowEvent) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fWinEvAction, uint64(m.Action))
	w.varint(fWinEvPresent, uint64(m.Present))
	w.sint32(fWinEvX, m.X)
	w.sint32(fWinEvY, m.Y)
	w.varint(fWinEvW, uint64(m.W))
	w.varint(fWinEvH, uint64(m.H))
	return w.b
}

func unmarshalWindowEvent(body []byte) (WindowEvent, error) {
	var m WindowEvent
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fWinEvAction:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Action = WindowAction(v)
				return n, nil
			}
		case fWinEvPresent:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Present = uint32(v)
				return n, nil
			}
		case fWinEvX:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.X = unzigzag32(uint32(v))
				return n, nil
			}
		case fWinEvY:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Y = unzigzag32(uint32(v))
				return n, nil
			}
		case fWinEvW:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.W = uint32(v)
				return n, nil
			}
		case fWinEvH:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.H = uint32(v)
				return n, nil
			}
		}
		return -1, nil
	})
	return m, err
}

type UserInput struct {
	Variant  UserInputKind
	WindowID uint32
	Key      *KeyEvent
	Mouse    *MouseEvent
	Window   *WindowEvent
}

func (UserInput) Kind() Kind { return KindUserInput }

const (
	fUiKind     = protowire.Number(1)
	fUiWindowID = protowire.Number(2)
	fUiKey      = protowire.Number(3)
	fUiMouse    = protowire.Number(4)
	fUiWindow   = protowire.Number(5)
)

func (m UserInput) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fUiKind, uint64(m.Variant))
	w.varint(fUiWindowID, uint64(m.WindowID))
	if m.Key != nil {
		w.message(fUiKey, m.Key.marshalAppend(nil))
	}
	if m.Mouse != nil {
		w.message(fUiMouse, m.Mouse.marshalAppend(nil))
	}
	if m.Window != nil {
		w.message(fUiWindow, m.Window.marshalAppend(nil))
	}
	return w.b
}

func unmarshalUserInput(body []byte) (*UserInput, error) {
	m := &UserInput{}
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fUiKind:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Variant = UserInputKind(v)
				return n, nil
			}
		case fUiWindowID:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.WindowID = uint32(v)
				return n, nil
			}
		case fUiKey:
			if v, n, ok := consumeBytes(typ, b); ok {
				k, err := unmarshalKeyEvent(v)
				if err != nil {
					return 0, err
				}
				m.Key = &k
				return n, nil
			}
		case fUiMouse:
			if v, n, ok := consumeBytes(typ, b); ok {
				e, err := unmarshalMouseEvent(v)
				if err != nil {
					return 0, err
				}
				m.Mouse = &e
				return n, nil
			}
		case fUiWindow:
			if v, n, ok := consumeBytes(typ, b); ok {
				e, err := unmarshalWindowEvent(v)
				if err != nil {
					return 0, err
				}
				m.Window = &e
				return n, nil
			}
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ---- StatusUpdate ----

type StatusUpdate struct {
	Level   StatusLevel
	Code    int32
	Message string
}

func (StatusUpdate) Kind() Kind { return KindStatusUpdate }

const (
	fSuLevel = protowire.Number(1)
	fSuCode  = protowire.Number(2)
	fSuMsg   = protowire.Number(3)
)

func (m StatusUpdate) marshalAppend(b []byte) []byte {
	w := &fieldWriter{b: b}
	w.varint(fSuLevel, uint64(m.Level))
	w.sint32(fSuCode, m.Code)
	w.str(fSuMsg, m.Message)
	return w.b
}

func unmarshalStatusUpdate(body []byte) (*StatusUpdate, error) {
	m := &StatusUpdate{}
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fSuLevel:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Level = StatusLevel(v)
				return n, nil
			}
		case fSuCode:
			if v, n, ok := consumeVarint(typ, b); ok {
				m.Code = unzigzag32(uint32(v))
				return n, nil
			}
		case fSuMsg:
			if v, n, ok := consumeBytes(typ, b); ok {
				m.Message = string(v)
				return n, nil
			}
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// unmarshalByKind is the dispatch table used by the codec (component C).
func unmarshalByKind(kind Kind, body []byte) (Message, error) {
	switch kind {
	case KindClientHello:
		return unmarshalClientHello(body)
	case KindServerHelloAck:
		return unmarshalServerHelloAck(body)
	case KindClientAuth:
		return unmarshalClientAuth(body)
	case KindServerAuthAck:
		return unmarshalServerAuthAck(body)
	case KindFrame:
		return unmarshalFrame(body)
	case KindUserInput:
		return unmarshalUserInput(body)
	case KindStatusUpdate:
		return unmarshalStatusUpdate(body)
	default:
		return nil, fmt.Errorf("protocol: unknown message kind %d", kind)
	}
}
