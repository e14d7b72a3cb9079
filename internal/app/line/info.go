package line

import (
	"time"

	"github.com/ghalamif/telegraph/internal/channel"
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/relay"
)

type EmitterInfo struct {
	domain.Identity
	Powered bool `json:"powered"`
}

type IntermediateInfo struct {
	domain.Identity
	Channel *channel.Status      `json:"channel,omitempty"`
	Battery *relay.BatteryStatus `json:"battery,omitempty"`
	Active  *bool                `json:"active,omitempty"`
}

type ReceiverInfo struct {
	domain.Identity
	Active   bool `json:"active"`
	Received int  `json:"received"`
}

type AutomaticInfo struct {
	Index      int           `json:"index"`
	Generating bool          `json:"generating"`
	Generated  int           `json:"generated"`
	Pending    int           `json:"pending"`
	Interval   time.Duration `json:"interval"`
}

// Info is a point in time snapshot of the line.
type Info struct {
	Encoder       string             `json:"encoder"`
	Emitters      []EmitterInfo      `json:"emitters"`
	Intermediates []IntermediateInfo `json:"intermediates"`
	Receivers     []ReceiverInfo     `json:"receivers"`
	Automatic     *AutomaticInfo     `json:"automatic,omitempty"`
	Stats         Stats              `json:"stats"`
}

type statuser interface {
	Status() channel.Status
}

type activator interface {
	Active() bool
}

func (l *Line) Info() Info {
	stats := l.Stats()

	l.mu.Lock()
	defer l.mu.Unlock()

	info := Info{Encoder: l.encoder.ID(), Stats: stats}
	for _, e := range l.emitters {
		info.Emitters = append(info.Emitters, EmitterInfo{Identity: e.Identity(), Powered: e.Powered()})
	}
	for _, n := range l.intermediates.Nodes() {
		ii := IntermediateInfo{Identity: n.Identity()}
		if s, ok := n.(statuser); ok {
			st := s.Status()
			ii.Channel = &st
		}
		if b, ok := n.(*relay.Battery); ok {
			st := b.BatteryStatus()
			ii.Battery = &st
		}
		if a, ok := n.(activator); ok {
			active := a.Active()
			ii.Active = &active
		}
		info.Intermediates = append(info.Intermediates, ii)
	}
	for _, r := range l.receivers {
		info.Receivers = append(info.Receivers, ReceiverInfo{Identity: r.Identity(), Active: r.Active(), Received: r.Received()})
	}
	if a, idx := l.Automatic(); a != nil {
		info.Automatic = &AutomaticInfo{
			Index:      idx,
			Generating: a.Generating(),
			Generated:  a.Generated(),
			Pending:    a.Pending(),
			Interval:   a.Interval(),
		}
	}
	return info
}
