// internal/app/identity/local.go
package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gymovoo/gymovoo/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the provider's hashing cost; fine for a dev
// backend, would be raised for anything internet-facing.
const bcryptCost = 10

// LocalService is an in-process identity provider used when the gateway
// runs without a hosted backend (identity_local=true) and throughout the
// tests. It implements the same contract as the real provider, including
// bcrypt-verified credentials and the auth event stream.
type LocalService struct {
	log *zap.Logger

	mu       sync.Mutex
	accounts map[string]*localAccount // keyed by lowercase email
	current  string                   // signed-in user id, "" when signed out

	events    chan AuthEvent
	closeOnce sync.Once
}

type localAccount struct {
	account      Account
	passwordHash []byte
	profile      models.Profile
	preferences  models.Preferences
	stats        models.Stats
}

// NewLocalService creates an empty local provider. Use Seed to add dev
// accounts.
func NewLocalService(logger *zap.Logger) *LocalService {
	return &LocalService{
		log:      logger,
		accounts: make(map[string]*localAccount),
		events:   make(chan AuthEvent, 8),
	}
}

// Seed registers an account without going through SignUp validation.
// Intended for dev bootstrap and tests.
func (s *LocalService) Seed(email, password, displayName string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &localAccount{
		account: Account{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: displayName,
			Role:        models.RoleUser,
		},
		passwordHash: hash,
		profile:      models.Profile{DisplayName: displayName, CreatedAt: now, UpdatedAt: now},
		preferences:  models.Preferences{Theme: "system", Units: "metric", Notifications: true, CreatedAt: now, UpdatedAt: now},
		stats:        models.Stats{CreatedAt: now, UpdatedAt: now},
	}
	return nil
}

func (s *LocalService) SignIn(ctx context.Context, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[email]
	if !ok {
		return nil, models.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return nil, models.NewInvalidCredentialsError()
	}

	s.current = acct.account.ID
	out := acct.account
	return &out, nil
}

func (s *LocalService) SignUp(ctx context.Context, email, password, displayName string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, models.NewRemoteValidationError("a valid email address is required")
	}
	if len(password) < 8 {
		return nil, models.NewRemoteValidationError("the password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, models.NewNetworkError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[email]; exists {
		return nil, models.NewRemoteValidationError("an account with this email already exists")
	}

	now := time.Now().UTC()
	acct := &localAccount{
		account: Account{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: displayName,
			Role:        models.RoleUser,
		},
		passwordHash: hash,
		profile:      models.Profile{DisplayName: displayName, CreatedAt: now, UpdatedAt: now},
		preferences:  models.Preferences{Theme: "system", Units: "metric", Notifications: true, CreatedAt: now, UpdatedAt: now},
		stats:        models.Stats{CreatedAt: now, UpdatedAt: now},
	}
	s.accounts[email] = acct
	s.current = acct.account.ID

	out := acct.account
	return &out, nil
}

func (s *LocalService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	return nil
}

func (s *LocalService) GetSession(ctx context.Context) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return nil, nil
	}
	if acct := s.byIDLocked(s.current); acct != nil {
		out := acct.account
		return &out, nil
	}
	return nil, nil
}

func (s *LocalService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.byIDLocked(userID)
	if acct == nil {
		return nil, models.NewNotFoundError("profile")
	}
	out := acct.profile
	return &out, nil
}

func (s *LocalService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.byIDLocked(userID)
	if acct == nil {
		return nil, models.NewNotFoundError("profile")
	}

	if upd.DisplayName != nil {
		acct.profile.DisplayName = *upd.DisplayName
		acct.account.DisplayName = *upd.DisplayName
	}
	if upd.AvatarURL != nil {
		acct.profile.AvatarURL = *upd.AvatarURL
	}
	if upd.Goal != nil {
		acct.profile.Goal = *upd.Goal
	}
	if upd.ExperienceLevel != nil {
		acct.profile.ExperienceLevel = *upd.ExperienceLevel
	}
	acct.profile.UpdatedAt = time.Now().UTC()

	out := acct.profile
	return &out, nil
}

func (s *LocalService) GetPreferences(ctx context.Context, userID string) (*models.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.byIDLocked(userID)
	if acct == nil {
		return nil, models.NewNotFoundError("preferences")
	}
	out := acct.preferences
	return &out, nil
}

func (s *LocalService) GetStats(ctx context.Context, userID string) (*models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.byIDLocked(userID)
	if acct == nil {
		return nil, models.NewNotFoundError("stats")
	}
	out := acct.stats
	return &out, nil
}

func (s *LocalService) Events() <-chan AuthEvent {
	return s.events
}

func (s *LocalService) Close() error {
	s.closeOnce.Do(func() { close(s.events) })
	return nil
}

// ForceSignOut revokes the current session and pushes a SIGNED_OUT event,
// simulating the provider invalidating a session out of band.
func (s *LocalService) ForceSignOut() {
	s.mu.Lock()
	userID := s.current
	s.current = ""
	s.mu.Unlock()

	s.events <- AuthEvent{Type: EventSignedOut, UserID: userID}
}

func (s *LocalService) byIDLocked(id string) *localAccount {
	for _, acct := range s.accounts {
		if acct.account.ID == id {
			return acct
		}
	}
	return nil
}
