// Package encoding implements the pulse encoders used by emitters and receivers.
//
// Every encoder appends a [-99, checksum] trailer to the pulses it produces
// and ignores everything from the first -99 onwards when decoding.
package encoding

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// ErrUnknownEncoder is returned by Lookup for ids no encoder answers to.
var ErrUnknownEncoder = errors.New("encoding: unknown encoder")

const (
	MorseID  = "morse"
	BaudotID = "baudot"
	BinaryID = "binary"
)

var aliases = map[string]string{
	"ascii": BinaryID,
	"ita2":  BaudotID,
}

// Lookup returns a fresh encoder for id. Matching is case insensitive.
func Lookup(id string) (ports.Encoder, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	switch key {
	case MorseID:
		return NewMorse(), nil
	case BaudotID:
		return NewBaudot(), nil
	case BinaryID:
		return NewBinary(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoder, id)
	}
}

// IDs lists the canonical encoder ids.
func IDs() []string {
	return []string{MorseID, BaudotID, BinaryID}
}

func seal(pulses []int, checksum func([]int) int) []int {
	return append(pulses, domain.ChecksumMarker, checksum(pulses))
}

func sortedKeys[V any](m map[rune]V) []rune {
	out := make([]rune, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// validFixedWidth accepts bits, separators, the checksum marker and
// anything a checksum slot may hold.
func validFixedWidth(pulses []int) bool {
	for _, p := range pulses {
		if p == domain.SeparatorPulse || p == domain.ChecksumMarker {
			continue
		}
		if p < 0 || p > 255 {
			return false
		}
	}
	return true
}

func bitGroups(text string) [][]int {
	fields := strings.Fields(text)
	out := make([][]int, len(fields))
	for i, f := range fields {
		bits := make([]int, len(f))
		for j, c := range f {
			bits[j] = int(c - '0')
		}
		out[i] = bits
	}
	return out
}

func joinGroups(groups [][]int) []int {
	var pulses []int
	for i, g := range groups {
		if i > 0 {
			pulses = append(pulses, domain.SeparatorPulse)
		}
		pulses = append(pulses, g...)
	}
	return pulses
}

func bitsString(bits []int) string {
	var b strings.Builder
	for _, v := range bits {
		b.WriteByte(byte('0' + v))
	}
	return b.String()
}
