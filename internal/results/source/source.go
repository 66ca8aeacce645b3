// Package source defines the capability contract every result source
// implements, plus the tagged outcome type the resolution engine consumes.
// "Not found" is a first-class outcome here, never an error: control flow
// through the fallback chain stays explicit and total.
package source

import (
	"context"
	"fmt"

	"resultgate/internal/results/models"
)

// ErrorKind is the normalized failure taxonomy for source lookups. All kinds
// are non-fatal to the overall search; the engine records them and moves on
// to the next source.
type ErrorKind string

const (
	// ErrorUnreachable indicates a network or connection failure.
	ErrorUnreachable ErrorKind = "unreachable"
	// ErrorTimeout indicates the source took too long to respond.
	ErrorTimeout ErrorKind = "timeout"
	// ErrorMalformed indicates the source returned data we could not decode.
	ErrorMalformed ErrorKind = "malformed_response"
)

// LookupError wraps a source failure with its normalized kind.
type LookupError struct {
	Kind       ErrorKind
	SourceID   string
	Detail     string
	Underlying error
}

func (e *LookupError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.SourceID, e.Kind, e.Detail, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.SourceID, e.Kind, e.Detail)
}

func (e *LookupError) Unwrap() error {
	return e.Underlying
}

// Status tags an Outcome.
type Status int

const (
	StatusFound Status = iota
	StatusNotFound
	StatusError
)

// Outcome is the result of one source query: Found carries a record, Error
// carries a LookupError, NotFound carries neither.
type Outcome struct {
	Status Status
	Record *models.ResultRecord
	Err    *LookupError
}

// Found builds a hit outcome.
func Found(record *models.ResultRecord) Outcome {
	return Outcome{Status: StatusFound, Record: record}
}

// NotFound builds a clean miss outcome.
func NotFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

// Errored builds a failure outcome.
func Errored(kind ErrorKind, sourceID, detail string, underlying error) Outcome {
	return Outcome{Status: StatusError, Err: &LookupError{
		Kind:       kind,
		SourceID:   sourceID,
		Detail:     detail,
		Underlying: underlying,
	}}
}

// Adapter is the uniform interface every data source implements. The roll
// number in the query is already normalized by the caller. Adapters must be
// safe for concurrent invocation across requests.
type Adapter interface {
	// ID returns the unique identifier of this source instance.
	ID() string

	// Query looks up a result by roll number.
	Query(ctx context.Context, q models.RollQuery) Outcome
}

// Pinger is implemented by adapters that support connectivity checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
