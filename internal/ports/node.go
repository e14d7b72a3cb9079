package ports

import "github.com/ghalamif/telegraph/internal/domain"

// Node is one step of a transmission chain.
type Node interface {
	Identity() domain.Identity
	Process(sig domain.Signal) domain.Outcome
}

// Rand is the source of uniform draws in [0, 1) used for noise and fault injection.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}
