package line

import (
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/receiver"
)

var fanoutID = domain.Identity{ID: "receivers", Name: "Receivers", Kind: domain.KindReceiver}

// fanout is the last hop of a walk: it hands the signal to every receiver
// and reports the first receiver failure, if any.
type fanout struct {
	receivers []*receiver.Receiver

	received int
	decoded  string
	failed   string
}

func (f *fanout) Identity() domain.Identity { return fanoutID }

func (f *fanout) Process(sig domain.Signal) domain.Outcome {
	var first *domain.Outcome
	for _, r := range f.receivers {
		out := r.Process(sig.Clone())
		if out.Succeeded {
			if f.received == 0 {
				if m := r.Last(); m != nil {
					f.decoded = m.Content
				}
			}
			f.received++
			continue
		}
		if first == nil {
			o := out
			first = &o
			f.failed = r.Identity().Name
		}
	}
	if first != nil {
		return *first
	}
	return domain.Success(sig)
}

var _ ports.Node = (*fanout)(nil)
