package encoding

import (
	"regexp"
	"strings"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

const (
	morseDot  = 1
	morseDash = 3

	morseLetterGap = 3
	morseWordGap   = 7
)

var morseTable = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	'.': ".-.-.-", ',': "--..--", '?': "..--..", '!': "-.-.--",
	' ': "/",
}

var morseDirect = regexp.MustCompile(`^[.\-\s/]+$`)

// Morse encodes text as dots (1) and dashes (3) separated by runs of 0.
type Morse struct {
	reverse map[string]rune
}

func NewMorse() *Morse {
	reverse := make(map[string]rune, len(morseTable))
	for r, code := range morseTable {
		if r != ' ' {
			reverse[code] = r
		}
	}
	return &Morse{reverse: reverse}
}

func (m *Morse) ID() string   { return MorseID }
func (m *Morse) Name() string { return "Morse code" }
func (m *Morse) Description() string {
	return "Dots and dashes separated by timed silences"
}
func (m *Morse) Alphabet() []rune { return sortedKeys(morseTable) }

// IsDirect reports whether text is already written in dots and dashes.
func (m *Morse) IsDirect(text string) bool {
	return morseDirect.MatchString(text) && strings.ContainsAny(text, ".-")
}

func (m *Morse) Encode(text string) []int {
	if m.IsDirect(text) {
		return seal(m.directPulses(text), m.Checksum)
	}

	var known []rune
	for _, r := range strings.ToUpper(text) {
		if _, ok := morseTable[r]; ok {
			known = append(known, r)
		}
	}

	var pulses []int
	for i, r := range known {
		if r == ' ' {
			pulses = appendZeros(pulses, morseWordGap)
			continue
		}
		pulses = appendSymbol(pulses, morseTable[r])
		if i < len(known)-1 && known[i+1] != ' ' {
			pulses = appendZeros(pulses, morseLetterGap)
		}
	}
	return seal(pulses, m.Checksum)
}

func (m *Morse) directPulses(code string) []int {
	var pulses []int
	words := strings.Split(code, "/")
	for w, word := range words {
		letters := strings.Fields(word)
		for i, letter := range letters {
			pulses = appendSymbol(pulses, letter)
			if i < len(letters)-1 {
				pulses = appendZeros(pulses, morseLetterGap)
			}
		}
		if w < len(words)-1 {
			pulses = appendZeros(pulses, morseWordGap)
		}
	}
	return pulses
}

func (m *Morse) Decode(pulses []int) string {
	var (
		code  strings.Builder
		zeros int
	)
	for _, p := range domain.StripTrailer(pulses) {
		switch {
		case p == 0:
			zeros++
		case p > 0:
			if zeros >= morseWordGap {
				code.WriteString(" / ")
			} else if zeros >= morseLetterGap {
				code.WriteByte(' ')
			}
			zeros = 0
			if p == morseDot {
				code.WriteByte('.')
			} else {
				code.WriteByte('-')
			}
		}
	}

	words := strings.Split(code.String(), " / ")
	out := make([]string, len(words))
	for i, word := range words {
		var b strings.Builder
		for _, letter := range strings.Fields(word) {
			if r, ok := m.reverse[letter]; ok {
				b.WriteRune(r)
			} else {
				b.WriteByte('?')
			}
		}
		out[i] = b.String()
	}
	return strings.Join(out, " ")
}

// Validate accepts pulses in [-99, 3]; the slot after -99 may hold any checksum byte.
func (m *Morse) Validate(pulses []int) bool {
	for i := 0; i < len(pulses); i++ {
		p := pulses[i]
		if p == domain.ChecksumMarker {
			if i+1 < len(pulses) {
				if c := pulses[i+1]; c < 0 || c > 255 {
					return false
				}
				i++
			}
			continue
		}
		if p < domain.ChecksumMarker || p > morseDash {
			return false
		}
	}
	return true
}

// Checksum is the sum of positive pulses modulo 256.
func (m *Morse) Checksum(pulses []int) int {
	sum := 0
	for _, p := range pulses {
		if p > 0 {
			sum += p
		}
	}
	return sum % 256
}

// Represent renders text as space separated dot/dash groups, e.g. "SOS" as "... --- ...".
func (m *Morse) Represent(text string) string {
	if m.IsDirect(text) {
		return text
	}
	var parts []string
	for _, r := range strings.ToUpper(text) {
		if code, ok := morseTable[r]; ok {
			parts = append(parts, code)
		}
	}
	return strings.Join(parts, " ")
}

func appendSymbol(pulses []int, code string) []int {
	first := true
	for _, c := range code {
		var p int
		switch c {
		case '.':
			p = morseDot
		case '-':
			p = morseDash
		default:
			continue
		}
		if !first {
			pulses = append(pulses, 0)
		}
		pulses = append(pulses, p)
		first = false
	}
	return pulses
}

func appendZeros(pulses []int, n int) []int {
	for i := 0; i < n; i++ {
		pulses = append(pulses, 0)
	}
	return pulses
}

var _ ports.Encoder = (*Morse)(nil)
