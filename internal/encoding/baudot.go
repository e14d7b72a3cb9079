package encoding

import (
	"regexp"
	"strings"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

const baudotBits = 5

// ITA2 letters shift.
var baudotTable = map[rune][baudotBits]int{
	'A': {1, 1, 0, 0, 0}, 'B': {1, 0, 0, 1, 1}, 'C': {0, 1, 1, 1, 0},
	'D': {1, 0, 0, 1, 0}, 'E': {1, 0, 0, 0, 0}, 'F': {1, 0, 1, 1, 0},
	'G': {0, 1, 0, 1, 1}, 'H': {0, 0, 1, 0, 1}, 'I': {0, 1, 1, 0, 0},
	'J': {1, 1, 0, 1, 0}, 'K': {1, 1, 1, 1, 0}, 'L': {0, 1, 0, 0, 1},
	'M': {0, 0, 1, 1, 1}, 'N': {0, 0, 1, 1, 0}, 'O': {0, 0, 0, 1, 1},
	'P': {0, 1, 1, 0, 1}, 'Q': {1, 1, 1, 0, 1}, 'R': {0, 1, 0, 1, 0},
	'S': {1, 0, 1, 0, 0}, 'T': {0, 0, 0, 0, 1}, 'U': {1, 1, 1, 0, 0},
	'V': {0, 1, 1, 1, 1}, 'W': {1, 1, 0, 0, 1}, 'X': {1, 0, 1, 1, 1},
	'Y': {1, 0, 1, 0, 1}, 'Z': {1, 0, 0, 0, 1},
	' ': {0, 0, 1, 0, 0},
}

var baudotDirect = regexp.MustCompile(`^[01]{5}(\s+[01]{5})*$`)

// Baudot encodes letters and spaces as 5-bit teleprinter groups.
type Baudot struct {
	reverse map[string]rune
}

func NewBaudot() *Baudot {
	reverse := make(map[string]rune, len(baudotTable))
	for r, code := range baudotTable {
		reverse[bitsString(code[:])] = r
	}
	return &Baudot{reverse: reverse}
}

func (b *Baudot) ID() string          { return BaudotID }
func (b *Baudot) Name() string        { return "Baudot (ITA2)" }
func (b *Baudot) Description() string { return "5-bit teleprinter code" }
func (b *Baudot) Alphabet() []rune    { return sortedKeys(baudotTable) }

// IsDirect reports whether text is a list of 5-bit groups.
func (b *Baudot) IsDirect(text string) bool {
	return baudotDirect.MatchString(strings.TrimSpace(text))
}

func (b *Baudot) Encode(text string) []int {
	if b.IsDirect(text) {
		return seal(joinGroups(bitGroups(text)), b.Checksum)
	}
	var groups [][]int
	for _, r := range strings.ToUpper(text) {
		if code, ok := baudotTable[r]; ok {
			groups = append(groups, code[:])
		}
	}
	return seal(joinGroups(groups), b.Checksum)
}

// Decode reads complete 5-bit groups; partial groups are discarded.
func (b *Baudot) Decode(pulses []int) string {
	var (
		out strings.Builder
		buf []int
	)
	flush := func() {
		if len(buf) == baudotBits {
			if r, ok := b.reverse[bitsString(buf)]; ok {
				out.WriteRune(r)
			} else {
				out.WriteByte('?')
			}
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
	return out.String()
}

func (b *Baudot) Validate(pulses []int) bool { return validFixedWidth(pulses) }

// Checksum is the sum of non-negative pulses modulo 256.
func (b *Baudot) Checksum(pulses []int) int {
	sum := 0
	for _, p := range pulses {
		if p >= 0 {
			sum += p
		}
	}
	return sum % 256
}

func (b *Baudot) Represent(text string) string {
	if b.IsDirect(text) {
		return text
	}
	var parts []string
	for _, r := range strings.ToUpper(text) {
		if code, ok := baudotTable[r]; ok {
			parts = append(parts, bitsString(code[:]))
		}
	}
	return strings.Join(parts, " ")
}

var _ ports.Encoder = (*Baudot)(nil)
