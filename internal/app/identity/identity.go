// internal/app/identity/identity.go

// Package identity defines the contract with the hosted identity
// provider and the implementations the session store consumes: an HTTP
// client for the real backend and an in-process provider for local
// development and tests.
//
// The session store only ever talks to the Service interface; it never
// assumes a transport. Provider failures are returned as
// *models.SessionError values so the store can record them without
// re-classifying.
package identity

import (
	"context"

	"github.com/gymovoo/gymovoo/internal/domain/models"
)

// Account is the identity-level payload the provider returns from
// sign-in, sign-up, and session lookups. Profile, preferences, and stats
// are separate resources fetched by user id.
type Account struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// ProfileUpdate carries the fields of a profile mutation. Nil fields are
// left untouched on the remote record.
type ProfileUpdate struct {
	DisplayName     *string `json:"display_name,omitempty"`
	AvatarURL       *string `json:"avatar_url,omitempty"`
	Goal            *string `json:"goal,omitempty"`
	ExperienceLevel *string `json:"experience_level,omitempty"`
}

// Auth-state change events pushed by the provider out of band.
type AuthEventType string

const (
	EventSignedIn  AuthEventType = "SIGNED_IN"
	EventSignedOut AuthEventType = "SIGNED_OUT"
)

// AuthEvent is delivered on the Events channel when the provider
// invalidates or establishes a session outside the normal call flow
// (e.g. a password reset revoking all sessions).
type AuthEvent struct {
	Type   AuthEventType
	UserID string
}

// Service is the consumed identity-provider contract. One Service
// instance is bound to one app instance's credentials; implementations
// track the signed-in state (access token) internally.
//
// All calls honor ctx cancellation and apply their own caller-side
// timeout on top of it.
type Service interface {
	SignIn(ctx context.Context, email, password string) (*Account, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Account, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*Account, error)

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.Profile, error)
	GetPreferences(ctx context.Context, userID string) (*models.Preferences, error)
	GetStats(ctx context.Context, userID string) (*models.Stats, error)

	// Events returns the auth-state change stream. The channel is closed
	// by Close.
	Events() <-chan AuthEvent

	// Close releases the event stream and any background resources.
	Close() error
}
