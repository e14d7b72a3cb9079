// Package random provides the randomness sources used for noise and fault
// injection.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// New returns a generator for seed. A zero seed draws a fresh one.
// The generator is not safe for concurrent use.
func New(seed int64) *rand.Rand {
	if seed == 0 {
		s, err := NewSeed()
		if err != nil {
			s = time.Now().UnixNano()
		}
		seed = s
	}
	return rand.New(rand.NewSource(seed))
}

// Sequence replays a fixed list of draws, cycling when exhausted.
// It lets simulations be scripted step by step.
type Sequence struct {
	values []float64
	next   int
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
