package ports

// Encoder converts text to a pulse train and back.
// Encode always appends the [-99, checksum] trailer; Decode and Checksum
// operate on trailer-free pulses unless stated otherwise.
type Encoder interface {
	ID() string
	Name() string
	Description() string
	// Alphabet lists the characters Encode understands.
	Alphabet() []rune

	Encode(text string) []int
	Decode(pulses []int) string
	Validate(pulses []int) bool
	Checksum(pulses []int) int
	Represent(text string) string
}
