package sink

import (
	"context"
	"fmt"

	"github.com/adamind/xleads/internal/leads"
)

// Sink is an append-only destination for normalized leads. The batch is not
// transactional: a failure partway through may leave some rows written, and
// no sink reads back or rewrites existing rows.
type Sink interface {
	// Append writes each lead as one new row at the end of the target,
	// preserving input order, and reports how many rows were written.
	Append(ctx context.Context, rows []leads.Lead) (int, error)
	Close() error
}

// CredentialError reports that a sink could not authenticate: a missing or
// unreadable service credential, or a rejected login.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string { return fmt.Sprintf("sink credential: %v", e.Err) }
func (e *CredentialError) Unwrap() error { return e.Err }

// WriteError reports a rejected append: target not found, quota exceeded,
// permission denied, or any other write-side failure.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("sink write: %v", e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }
