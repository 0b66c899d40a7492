package repository

import (
	"errors"
	"time"

	"github.com/jask/flowdesk/internal/mutation"
)

// ErrNoSnapshot means no catalog has ever been stored.
var ErrNoSnapshot = errors.New("repository: no catalog snapshot")

// Snapshot sources.
const (
	SourceIntrospection = "introspection"
	SourceFixture       = "fixture"
)

// CatalogSnapshot is the stored copy of the mutation catalog. It is
// replaced wholesale on every refresh.
type CatalogSnapshot struct {
	Source      string
	FetchedAt   time.Time
	Definitions []mutation.Definition
}

// Audit log statuses.
const (
	LogPending   = "pending"
	LogSucceeded = "succeeded"
	LogFailed    = "failed"
	LogAbandoned = "abandoned"
)

// LogEntry is one submission attempt in the audit log. It records what was
// invoked on which node, never the argument values.
type LogEntry struct {
	ID         string
	Mutation   string
	NodeID     string
	NodeKind   string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}
