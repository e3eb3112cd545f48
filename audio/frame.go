package audio

import "encoding/hex"

const (
	frameStart   = 0x7E
	frameVersion = 0xFF
	frameLength  = 0x06
	frameEnd     = 0x7E

	// FrameSize is the length of every command frame.
	FrameSize = 7
	// MaxResponse bounds the bytes read back after a command.
	MaxResponse = 10

	opStatus    byte   = 0x00
	paramAlways uint16 = 0x0001
)

// Track identifies a message stored on the module.
type Track uint8

// Frame is one command frame:
// START VERSION LENGTH OPCODE PARAM_HI PARAM_LO END.
type Frame [FrameSize]byte

// NewFrame encodes an opcode and its 16-bit parameter.
func NewFrame(op byte, param uint16) Frame {
	return Frame{frameStart, frameVersion, frameLength, op, byte(param >> 8), byte(param), frameEnd}
}

// StatusFrame is the readiness query.
func StatusFrame() Frame { return NewFrame(opStatus, paramAlways) }

// PlayFrame carries the track in the opcode byte.
func PlayFrame(t Track) Frame { return NewFrame(byte(t), paramAlways) }

func (f Frame) Bytes() []byte  { return f[:] }
func (f Frame) String() string { return hex.EncodeToString(f[:]) }

// Response holds the raw bytes the module sent back. It is never decoded,
// only checked for presence.
type Response []byte

func (r Response) String() string { return hex.EncodeToString(r) }
