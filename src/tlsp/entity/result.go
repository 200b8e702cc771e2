package entity

import (
	"context"

	"go.lsp.dev/protocol"
)

// Outcome classifies the result of a user facing interaction.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeCancelled
	OutcomeFailed
)

// Result carries either a value, a cancellation by the user, or a failure.
// Cancellation is not an error: callers abort silently.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Reason  error
}

// Ok returns a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Outcome: OutcomeOK}
}

// Cancelled returns a Result for a dismissed interaction.
func Cancelled[T any]() Result[T] {
	return Result[T]{Outcome: OutcomeCancelled}
}

// Failed returns a Result for an interaction that could not be completed.
func Failed[T any](reason error) Result[T] {
	return Result[T]{Outcome: OutcomeFailed, Reason: reason}
}

func (r Result[T]) IsOK() bool        { return r.Outcome == OutcomeOK }
func (r Result[T]) IsCancelled() bool { return r.Outcome == OutcomeCancelled }
func (r Result[T]) IsFailed() bool    { return r.Outcome == OutcomeFailed }

// Prompter shows messages to the user and collects their choice.
type Prompter interface {
	// Prompt shows message with the given actions. The chosen action title is returned.
	Prompt(ctx context.Context, kind protocol.MessageType, message string, actions ...string) Result[string]
	// OpenExternal asks the editor to open target in an external application.
	OpenExternal(ctx context.Context, target string) error
}
