package rootcause

import (
	"context"

	"github.com/silpredict/silpredict/internal/equipment"
)

// Evidence is the deterministic analysis output handed to an advisor for a
// human-readable narrative.
type Evidence struct {
	Equipment *equipment.Info
	Patterns  []FailurePattern
	Causes    []Cause
}

// Advisor produces an optional narrative for an analysis. Implementations
// may call external services; a failed call only costs the narrative, never
// the deterministic result.
type Advisor interface {
	Summarize(ctx context.Context, evidence Evidence) (string, error)
}
