// Package models contains domain types for clausewise-engine.
package models

import (
	"context"

	"github.com/google/uuid"
)

// ActorSource represents how an operation reached the engine.
type ActorSource string

const (
	SourceAPI    ActorSource = "api"    // direct API call
	SourceSystem ActorSource = "system" // event-driven or internal operation
)

// IsValid returns true if the source is a known actor source.
func (s ActorSource) IsValid() bool {
	switch s {
	case SourceAPI, SourceSystem:
		return true
	default:
		return false
	}
}

// ActorContext carries who performed an operation and how it arrived.
type ActorContext struct {
	Source ActorSource
	UserID uuid.UUID
}

type actorKey struct{}

// WithActor returns a new context with actor information attached.
func WithActor(ctx context.Context, a ActorContext) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// GetActor retrieves actor information from the context.
// Returns the actor context and true if present, otherwise a zero value and false.
func GetActor(ctx context.Context) (ActorContext, bool) {
	a, ok := ctx.Value(actorKey{}).(ActorContext)
	return a, ok
}

// WithAPIActor returns a context with API actor information set.
// Use this in HTTP handlers once the caller is identified.
func WithAPIActor(ctx context.Context, userID uuid.UUID) context.Context {
	return WithActor(ctx, ActorContext{Source: SourceAPI, UserID: userID})
}

// WithSystemActor returns a context with system actor information set.
// Use this in the event consumer and background workers; the userID is the
// user who originally requested the work.
func WithSystemActor(ctx context.Context, userID uuid.UUID) context.Context {
	return WithActor(ctx, ActorContext{Source: SourceSystem, UserID: userID})
}
