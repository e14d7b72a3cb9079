package ports

import (
	"context"

	"github.com/ghalamif/telegraph/internal/domain"
)

// Reporter receives a report for every transmission the line attempts.
type Reporter interface {
	Report(ctx context.Context, r *domain.SendReport) error
	Name() string
}
