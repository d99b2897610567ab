package ciphertext

import "fmt"

// Width is the declared bit width of an encrypted unsigned scalar.
type Width uint8

const (
	Uint8  Width = 8
	Uint16 Width = 16
	Uint32 Width = 32
	Uint64 Width = 64
)

// ParseWidth validates a bit count.
func ParseWidth(bits int) (Width, error) {
	switch Width(bits) {
	case Uint8, Uint16, Uint32, Uint64:
		return Width(bits), nil
	default:
		return 0, fmt.Errorf("unsupported scalar width %d", bits)
	}
}

// Bytes is the width in bytes.
func (w Width) Bytes() int { return int(w) / 8 }

// Max is the largest value representable in w.
func (w Width) Max() uint64 {
	if w >= Uint64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(w)) - 1
}

// Fits reports whether v is representable in w.
func (w Width) Fits(v uint64) bool { return v <= w.Max() }

func (w Width) String() string { return fmt.Sprintf("uint%d", uint8(w)) }
