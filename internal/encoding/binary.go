package encoding

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

const byteBits = 8

var binaryDirect = regexp.MustCompile(`^[01]{8}(\s+[01]{8})*$`)

// Binary encodes every byte of the UTF-8 text as 8 bits, most significant first.
type Binary struct{}

func NewBinary() *Binary { return &Binary{} }

func (b *Binary) ID() string          { return BinaryID }
func (b *Binary) Name() string        { return "Binary ASCII" }
func (b *Binary) Description() string { return "8-bit groups per byte" }

// Alphabet lists printable ASCII; Encode accepts any byte.
func (b *Binary) Alphabet() []rune {
	out := make([]rune, 0, 95)
	for r := rune(32); r < 127; r++ {
		out = append(out, r)
	}
	return out
}

func (b *Binary) IsDirect(text string) bool {
	return binaryDirect.MatchString(strings.TrimSpace(text))
}

func (b *Binary) Encode(text string) []int {
	if b.IsDirect(text) {
		return seal(joinGroups(bitGroups(text)), b.Checksum)
	}
	groups := make([][]int, 0, len(text))
	for _, c := range []byte(text) {
		bits := make([]int, byteBits)
		for i := 0; i < byteBits; i++ {
			bits[i] = int(c>>(byteBits-1-i)) & 1
		}
		groups = append(groups, bits)
	}
	return seal(joinGroups(groups), b.Checksum)
}

func (b *Binary) Decode(pulses []int) string {
	var (
		out []byte
		buf []int
	)
	flush := func() {
		if len(buf) == byteBits {
			var v int
			for _, bit := range buf {
				v = v<<1 | bit
			}
			out = append(out, byte(v))
		}
		buf = buf[:0]
	}
	for _, p := range domain.StripTrailer(pulses) {
		if p == domain.SeparatorPulse {
			flush()
		} else if p >= 0 {
			buf = append(buf, p)
		}
	}
	flush()
	return string(out)
}

func (b *Binary) Validate(pulses []int) bool { return validFixedWidth(pulses) }

// Checksum XORs every complete 8-bit group of 0/1 pulses.
func (b *Binary) Checksum(pulses []int) int {
	var sum, cur, n int
	for _, p := range pulses {
		if p != 0 && p != 1 {
			continue
		}
		cur = cur<<1 | p
		n++
		if n == byteBits {
			sum ^= cur
			cur, n = 0, 0
		}
	}
	return sum
}

// Represent renders text as space separated 8-bit groups, e.g. "HI" as "01001000 01001001".
func (b *Binary) Represent(text string) string {
	if b.IsDirect(text) {
		return text
	}
	parts := make([]string, 0, len(text))
	for _, c := range []byte(text) {
		parts = append(parts, fmt.Sprintf("%08b", c))
	}
	return strings.Join(parts, " ")
}

var _ ports.Encoder = (*Binary)(nil)
