package encoding

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

func TestMorseEncodeSOS(t *testing.T) {
	m := NewMorse()
	pulses := m.Encode("SOS")

	want := []int{
		1, 0, 1, 0, 1, 0, 0, 0,
		3, 0, 3, 0, 3, 0, 0, 0,
		1, 0, 1, 0, 1,
		domain.ChecksumMarker, 15,
	}
	assert.Equal(t, want, pulses)
	assert.Equal(t, "... --- ...", m.Represent("SOS"))
	assert.Equal(t, "SOS", m.Decode(pulses))
}

func TestMorseWordGap(t *testing.T) {
	m := NewMorse()
	pulses := m.Encode("e t")
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0, 0, 0, 3, domain.ChecksumMarker, 4}, pulses)
	assert.Equal(t, "E T", m.Decode(pulses))
}

func TestMorseDirectInput(t *testing.T) {
	m := NewMorse()
	assert.True(t, m.IsDirect("... --- ..."))
	assert.False(t, m.IsDirect("/ /"))
	assert.False(t, m.IsDirect("SOS"))

	direct := m.Encode(".- -... / -.-.")
	assert.Equal(t, m.Encode("AB C"), direct)
	assert.Equal(t, "AB C", m.Decode(direct))
	assert.Equal(t, ".- -...", m.Represent(".- -..."))
}

func TestMorseUnknownCharactersDropped(t *testing.T) {
	m := NewMorse()
	assert.Equal(t, m.Encode("AB"), m.Encode("A#B"))
	assert.Equal(t, "?", m.Decode([]int{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 3}))
}

func TestMorseValidate(t *testing.T) {
	m := NewMorse()
	assert.True(t, m.Validate(m.Encode("HELLO WORLD")))
	assert.True(t, m.Validate([]int{1, domain.ChecksumMarker, 200}))
	assert.False(t, m.Validate([]int{1, 4}))
	assert.False(t, m.Validate([]int{1, -100}))
	assert.False(t, m.Validate([]int{1, domain.ChecksumMarker, 300}))
}

func TestBaudotEncodeDecode(t *testing.T) {
	b := NewBaudot()
	pulses := b.Encode("Ae")

	assert.Equal(t, []int{1, 1, 0, 0, 0, -1, 1, 0, 0, 0, 0, domain.ChecksumMarker, 3}, pulses)
	assert.Equal(t, "AE", b.Decode(pulses))
	assert.Equal(t, "11000 10000", b.Represent("AE"))
	assert.Equal(t, pulses, b.Encode("11000 10000"))
}

func TestBaudotDecodeIgnoresPartialGroups(t *testing.T) {
	b := NewBaudot()
	assert.Equal(t, "A", b.Decode([]int{1, 1, 0, -1, 1, 1, 0, 0, 0}))
	assert.Equal(t, "?", b.Decode([]int{1, 1, 1, 1, 1}))
}

func TestBinaryHI(t *testing.T) {
	b := NewBinary()
	assert.Equal(t, "01001000 01001001", b.Represent("HI"))

	pulses := b.Encode("HI")
	payload := domain.StripTrailer(pulses)
	assert.Equal(t, []int{0, 1, 0, 0, 1, 0, 0, 0, -1, 0, 1, 0, 0, 1, 0, 0, 1}, payload)

	sum, ok := domain.TrailerChecksum(pulses)
	require.True(t, ok)
	assert.Equal(t, 0x48^0x49, sum)
	assert.Equal(t, "HI", b.Decode(payload))
	assert.Equal(t, pulses, b.Encode("01001000 01001001"))
}

func TestBinaryChecksumIsXOR(t *testing.T) {
	b := NewBinary()
	// 0xFF twice: XOR gives 0 where a sum would not.
	pulses := []int{1, 1, 1, 1, 1, 1, 1, 1, -1, 1, 1, 1, 1, 1, 1, 1, 1}
	assert.Equal(t, 0, b.Checksum(pulses))
	assert.NotEqual(t, NewBaudot().Checksum(pulses), b.Checksum(pulses))
}

func TestFixedWidthValidate(t *testing.T) {
	for _, enc := range []ports.Encoder{NewBaudot(), NewBinary()} {
		assert.True(t, enc.Validate(enc.Encode("HELLO")), enc.ID())
		assert.True(t, enc.Validate([]int{0, 1, -1, domain.ChecksumMarker, 255}), enc.ID())
		assert.False(t, enc.Validate([]int{0, -2}), enc.ID())
		assert.False(t, enc.Validate([]int{256}), enc.ID())
	}
}

func TestRoundTrip(t *testing.T) {
	cases := map[string]string{
		MorseID:  "the quick brown fox 1234567890 ?!,.",
		BaudotID: "the quick brown fox jumps",
		BinaryID: "Hello, World! ~{}",
	}
	for id, text := range cases {
		enc, err := Lookup(id)
		require.NoError(t, err)

		want := text
		if id != BinaryID {
			want = strings.ToUpper(text)
		}
		pulses := enc.Encode(text)
		assert.Equal(t, want, enc.Decode(domain.StripTrailer(pulses)), id)
		assert.Equal(t, want, enc.Decode(pulses), id)

		sum, ok := domain.TrailerChecksum(pulses)
		require.True(t, ok)
		assert.Equal(t, enc.Checksum(domain.StripTrailer(pulses)), sum, id)
		assert.Equal(t, pulses, enc.Encode(text), id)
	}
}

func TestLookup(t *testing.T) {
	enc, err := Lookup(" ASCII ")
	require.NoError(t, err)
	assert.Equal(t, BinaryID, enc.ID())

	enc, err = Lookup("ita2")
	require.NoError(t, err)
	assert.Equal(t, BaudotID, enc.ID())

	_, err = Lookup("semaphore")
	assert.True(t, errors.Is(err, ErrUnknownEncoder))
}

func TestAlphabets(t *testing.T) {
	assert.Len(t, NewMorse().Alphabet(), 41)
	assert.Len(t, NewBaudot().Alphabet(), 27)
	assert.Len(t, NewBinary().Alphabet(), 95)
}
