// Package chain walks a signal through an ordered, immutable sequence of nodes.
package chain

import (
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Chain is built once and never mutated; Then returns a new chain.
type Chain struct {
	nodes []ports.Node
}

// Hop records what a single node returned during a walk.
type Hop struct {
	Node    domain.Identity
	Outcome domain.Outcome
}

// New builds a chain over nodes in order. Nil nodes are skipped.
func New(nodes ...ports.Node) *Chain {
	c := &Chain{nodes: make([]ports.Node, 0, len(nodes))}
	for _, n := range nodes {
		if n != nil {
			c.nodes = append(c.nodes, n)
		}
	}
	return c
}

// Then returns a chain made of c followed by nodes.
func (c *Chain) Then(nodes ...ports.Node) *Chain {
	all := make([]ports.Node, 0, c.Len()+len(nodes))
	if c != nil {
		all = append(all, c.nodes...)
	}
	return New(append(all, nodes...)...)
}

func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.nodes)
}

// Nodes returns a copy of the node list.
func (c *Chain) Nodes() []ports.Node {
	if c == nil {
		return nil
	}
	return append([]ports.Node(nil), c.nodes...)
}

func (c *Chain) Identities() []domain.Identity {
	ids := make([]domain.Identity, 0, c.Len())
	for _, n := range c.Nodes() {
		ids = append(ids, n.Identity())
	}
	return ids
}

// Propagate walks sig through the chain and returns the final outcome.
func (c *Chain) Propagate(sig domain.Signal) domain.Outcome {
	out, _ := c.Trace(sig)
	return out
}

// Trace is Propagate that also returns the outcome of every node visited.
//
// A node that fails while still carrying a signal does not stop the walk:
// its signal is forwarded and its error is merged into the final outcome.
// A node that fails without a signal ends the walk. A node that succeeds
// without a signal forwards its input unchanged.
func (c *Chain) Trace(sig domain.Signal) (domain.Outcome, []Hop) {
	if c.Len() == 0 {
		return domain.Success(sig), nil
	}

	var (
		hops     = make([]Hop, 0, len(c.nodes))
		degraded []domain.Outcome
		current  = sig
		final    domain.Outcome
	)
	for i, n := range c.nodes {
		res := n.Process(current)
		hops = append(hops, Hop{Node: n.Identity(), Outcome: res})

		if i == len(c.nodes)-1 || (!res.Succeeded && res.Signal == nil) {
			final = res
			break
		}
		if !res.Succeeded {
			degraded = append(degraded, res)
		}
		if res.Signal != nil {
			current = *res.Signal
		}
	}

	for i := len(degraded) - 1; i >= 0; i-- {
		final = Merge(degraded[i], final)
	}
	return final, hops
}

// Merge combines an upstream outcome with the outcome of everything after it.
// When local failed, the result fails and reports the local error message and
// code, falling back to the downstream ones where local left them empty.
// Signal and latency always come from downstream.
func Merge(local, downstream domain.Outcome) domain.Outcome {
	if local.Succeeded {
		return downstream
	}
	out := downstream
	out.Succeeded = false
	if local.ErrorMessage != "" {
		out.ErrorMessage = local.ErrorMessage
	}
	if local.ErrorCode != "" {
		out.ErrorCode = local.ErrorCode
	}
	return out
}

// TotalLatency sums the latency every hop reported.
func TotalLatency(hops []Hop) float64 {
	var total float64
	for _, h := range hops {
		total += h.Outcome.Latency()
	}
	return total
}
