// internal/app/session/store.go

// Package session implements the identity/session state machine for one
// app instance.
//
// A Store owns the single Session for its device: it is the only
// mutator, every change flows through one of the transition operations,
// and subscribers observe committed states. Three identity modes carry a
// user (registered, demo, guest); registered is the only one backed by
// the identity provider, so demo and guest transitions never touch the
// network.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gymovoo/gymovoo/internal/app/identity"
	"github.com/gymovoo/gymovoo/internal/app/system/normalize"
	"github.com/gymovoo/gymovoo/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultGuestRetention is how long a persisted guest or demo session
// survives before a restart degrades it to signed-out.
const DefaultGuestRetention = 30 * 24 * time.Hour

// PersistenceAdapter is the durable cache for one device's session
// snapshot. Load returns (nil, nil) when nothing usable is stored; a
// corrupt snapshot is "nothing usable", never a fatal error.
type PersistenceAdapter interface {
	Save(ctx context.Context, snap models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
	Clear(ctx context.Context) error
}

// Recorder receives transition outcomes for metrics. Implementations
// must be safe for concurrent use.
type Recorder interface {
	Transition(op, outcome string)
}

// Transition names and outcomes, as reported to the Recorder.
const (
	OpLogin         = "login"
	OpSignUp        = "signup"
	OpGuest         = "guest"
	OpDemo          = "demo"
	OpUpdateProfile = "update_profile"
	OpRefresh       = "refresh"
	OpSignOut       = "signout"
	OpAdopt         = "adopt_remote"

	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
	OutcomeNoop  = "noop"
)

// Config assembles a Store's collaborators.
type Config struct {
	Identity       identity.Service
	Persist        PersistenceAdapter
	Recorder       Recorder      // optional
	GuestRetention time.Duration // zero means DefaultGuestRetention
	Logger         *zap.Logger
}

// Store is the session state machine. Create with NewStore, then call
// Init once before use and Close on teardown.
type Store struct {
	identity  identity.Service
	persist   PersistenceAdapter
	rec       Recorder
	retention time.Duration
	log       *zap.Logger

	// flight collapses duplicate concurrent invocations of the same
	// operation (double-taps) into one remote call.
	flight singleflight.Group

	mu      sync.Mutex
	sess    models.Session
	seq     uint64 // bumped on every committed state change
	active  int    // transitions currently in flight
	subs    map[int]func(models.Session)
	nextSub int

	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewStore builds a Store in the unauthenticated state.
func NewStore(cfg Config) *Store {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.GuestRetention <= 0 {
		cfg.GuestRetention = DefaultGuestRetention
	}
	return &Store{
		identity:  cfg.Identity,
		persist:   cfg.Persist,
		rec:       cfg.Recorder,
		retention: cfg.GuestRetention,
		log:       cfg.Logger,
		sess:      models.Session{Mode: models.ModeUnauthenticated},
		subs:      make(map[int]func(models.Session)),
	}
}

// Init restores any persisted snapshot and starts the auth-event watcher.
// A missing, corrupt, or expired snapshot leaves the store signed out;
// boot never fails because of the cache.
func (s *Store) Init(ctx context.Context) {
	snap, err := s.persist.Load(ctx)
	switch {
	case err != nil:
		s.log.Warn("session snapshot load failed; starting signed out", zap.Error(err))
	case snap == nil:
		// first run, nothing cached
	case !snap.Valid():
		s.log.Warn("discarding invalid session snapshot",
			zap.Int("schema_version", snap.SchemaVersion),
			zap.String("identity_mode", string(snap.Mode)))
		_ = s.persist.Clear(ctx)
	case s.expired(snap):
		s.log.Info("discarding expired guest/demo snapshot",
			zap.String("identity_mode", string(snap.Mode)),
			zap.Time("updated_at", snap.UpdatedAt))
		_ = s.persist.Clear(ctx)
	default:
		s.mu.Lock()
		// A transition that committed while the snapshot was loading
		// wins over the restore; the restore must never overwrite it.
		if s.seq == 0 {
			s.sess.Mode = snap.Mode
			s.sess.User = snap.User
		}
		s.mu.Unlock()
	}

	evCtx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.wg.Add(1)
	go s.watchEvents(evCtx)
}

// Close stops the auth-event watcher. It does not close the identity
// service; the owner of the Store does that.
func (s *Store) Close() {
	if s.stop != nil {
		s.stop()
	}
	s.wg.Wait()
}

// expired reports whether a guest/demo snapshot is past the retention
// window. Registered snapshots never expire locally; the provider owns
// that lifetime.
func (s *Store) expired(snap *models.Snapshot) bool {
	if snap.Mode != models.ModeGuest && snap.Mode != models.ModeDemo {
		return false
	}
	return time.Since(snap.UpdatedAt) > s.retention
}

/*─────────────────────────────────────────────────────────────────────────────*
| Read side                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// State returns a copy of the current session. The User pointer is
// shared but treated as immutable: transitions replace it, never mutate
// it in place.
func (s *Store) State() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// Subscribe registers fn to be called with every committed session
// state. Subscribers run synchronously on the transition's goroutine and
// must return quickly. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(models.Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	out := s.sess
	fns := make([]func(models.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(out)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Transitions                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// LoginWithCredentials signs in against the identity provider and, on
// success, assembles the registered user from the account plus its
// profile/preferences/stats resources. On failure the session stays in
// its prior state with LastError set; the call itself never fails.
func (s *Store) LoginWithCredentials(ctx context.Context, email, password string) models.Session {
	email = normalize.Email(email)
	v, _, _ := s.flight.Do(OpLogin+"\x00"+email, func() (any, error) {
		return s.doLogin(ctx, email, password), nil
	})
	return v.(models.Session)
}

func (s *Store) doLogin(ctx context.Context, email, password string) models.Session {
	start := s.begin()

	acct, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return s.fail(OpLogin, start, err)
	}
	user, err := s.assembleUser(ctx, acct)
	if err != nil {
		return s.fail(OpLogin, start, err)
	}

	return s.commit(ctx, OpLogin, start, func(sess *models.Session) {
		sess.Mode = models.ModeRegistered
		sess.User = user
	})
}

// SignUp creates a new account and signs it in.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) models.Session {
	email = normalize.Email(email)
	displayName = normalize.Name(displayName)
	v, _, _ := s.flight.Do(OpSignUp+"\x00"+email, func() (any, error) {
		return s.doSignUp(ctx, email, password, displayName), nil
	})
	return v.(models.Session)
}

func (s *Store) doSignUp(ctx context.Context, email, password, displayName string) models.Session {
	start := s.begin()

	acct, err := s.identity.SignUp(ctx, email, password, displayName)
	if err != nil {
		return s.fail(OpSignUp, start, err)
	}
	user, err := s.assembleUser(ctx, acct)
	if err != nil {
		return s.fail(OpSignUp, start, err)
	}

	return s.commit(ctx, OpSignUp, start, func(sess *models.Session) {
		sess.Mode = models.ModeRegistered
		sess.User = user
	})
}

// BecomeGuest synthesizes an ephemeral local identity. The id embeds the
// creation timestamp so guest ids are never reused across sessions.
func (s *Store) BecomeGuest(ctx context.Context) models.Session {
	start := s.begin()
	user := newGuestUser()
	return s.commit(ctx, OpGuest, start, func(sess *models.Session) {
		sess.Mode = models.ModeGuest
		sess.User = user
	})
}

// LoginAsDemo activates a canned demo identity for the given level
// (beginner, intermediate, advanced). The resulting user is fully
// deterministic: same id, same stats, every time.
func (s *Store) LoginAsDemo(ctx context.Context, level string) models.Session {
	level = normalize.Level(level)
	start := s.begin()

	user, ok := DemoUser(level)
	if !ok {
		return s.fail(OpDemo, start, models.NewNotFoundError(fmt.Sprintf("demo level %q", level)))
	}

	return s.commit(ctx, OpDemo, start, func(sess *models.Session) {
		sess.Mode = models.ModeDemo
		sess.User = user
	})
}

// UpdateProfile pushes a profile mutation to the provider and merges the
// response. For demo and guest sessions there is no remote counterpart,
// so the call is a silent no-op rather than an error; surfacing one
// would be a false failure signal to the UI.
func (s *Store) UpdateProfile(ctx context.Context, upd identity.ProfileUpdate) models.Session {
	s.mu.Lock()
	registered := s.sess.Mode == models.ModeRegistered
	var userID string
	if registered {
		userID = s.sess.User.ID
	}
	s.mu.Unlock()

	if !registered {
		s.record(OpUpdateProfile, OutcomeNoop)
		return s.State()
	}

	v, _, _ := s.flight.Do(OpUpdateProfile, func() (any, error) {
		return s.doUpdateProfile(ctx, userID, upd), nil
	})
	return v.(models.Session)
}

func (s *Store) doUpdateProfile(ctx context.Context, userID string, upd identity.ProfileUpdate) models.Session {
	start := s.begin()

	prof, err := s.identity.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return s.fail(OpUpdateProfile, start, err)
	}

	return s.commit(ctx, OpUpdateProfile, start, func(sess *models.Session) {
		u := *sess.User
		u.Profile = prof
		if prof.DisplayName != "" {
			u.DisplayName = prof.DisplayName
		}
		u.UpdatedAt = time.Now().UTC()
		sess.User = &u
	})
}

// Refresh re-fetches profile, preferences, and stats for the registered
// user. Silent no-op for demo/guest sessions.
func (s *Store) Refresh(ctx context.Context) models.Session {
	s.mu.Lock()
	registered := s.sess.Mode == models.ModeRegistered
	var userID string
	if registered {
		userID = s.sess.User.ID
	}
	s.mu.Unlock()

	if !registered {
		s.record(OpRefresh, OutcomeNoop)
		return s.State()
	}

	v, _, _ := s.flight.Do(OpRefresh, func() (any, error) {
		return s.doRefresh(ctx, userID), nil
	})
	return v.(models.Session)
}

func (s *Store) doRefresh(ctx context.Context, userID string) models.Session {
	start := s.begin()

	prof, prefs, stats, err := s.fetchResources(ctx, userID)
	if err != nil {
		return s.fail(OpRefresh, start, err)
	}

	return s.commit(ctx, OpRefresh, start, func(sess *models.Session) {
		u := *sess.User
		u.Profile = prof
		u.Preferences = prefs
		u.Stats = stats
		if prof != nil && prof.DisplayName != "" {
			u.DisplayName = prof.DisplayName
		}
		u.UpdatedAt = time.Now().UTC()
		sess.User = &u
	})
}

// SignOut clears the local session unconditionally and then revokes the
// remote session best-effort: guaranteed local logout is the priority,
// so a failed remote call only logs. Idempotent when already signed out.
//
// The local clear commits immediately (before any network I/O), which is
// what guarantees that a slow in-flight refresh or login can never
// resurrect the session afterwards.
func (s *Store) SignOut(ctx context.Context) models.Session {
	v, _, _ := s.flight.Do(OpSignOut, func() (any, error) {
		return s.doSignOut(ctx), nil
	})
	return v.(models.Session)
}

func (s *Store) doSignOut(ctx context.Context) models.Session {
	s.mu.Lock()
	wasRegistered := s.sess.Mode == models.ModeRegistered
	s.sess.Mode = models.ModeUnauthenticated
	s.sess.User = nil
	s.sess.LastError = nil
	s.seq++
	out := s.sess
	s.mu.Unlock()
	s.notify()

	if err := s.persist.Clear(ctx); err != nil {
		s.log.Warn("clear persisted session", zap.Error(err))
	}
	if wasRegistered {
		if err := s.identity.SignOut(ctx); err != nil {
			s.log.Warn("remote sign-out failed; local session already cleared", zap.Error(err))
		}
	}

	s.record(OpSignOut, OutcomeOK)
	return out
}

// ClearError drops LastError and nothing else.
func (s *Store) ClearError() models.Session {
	s.mu.Lock()
	s.sess.LastError = nil
	out := s.sess
	s.mu.Unlock()
	s.notify()
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| Auth-event reconciliation                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Store) watchEvents(ctx context.Context) {
	defer s.wg.Done()

	ch := s.identity.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.handleAuthEvent(ctx, ev)
		}
	}
}

// handleAuthEvent reconciles out-of-band provider events with local
// state. Demo and guest sessions have no remote counterpart and ignore
// these events entirely.
func (s *Store) handleAuthEvent(ctx context.Context, ev identity.AuthEvent) {
	st := s.State()

	switch ev.Type {
	case identity.EventSignedOut:
		if st.Mode == models.ModeRegistered {
			s.log.Info("provider revoked session; signing out locally",
				zap.String("user_id", ev.UserID))
			s.SignOut(ctx)
		}
	case identity.EventSignedIn:
		if st.User == nil {
			s.adoptRemoteSession(ctx)
		}
	}
}

// adoptRemoteSession picks up a provider session that was established
// out of band (e.g. a magic link confirmed in a browser).
func (s *Store) adoptRemoteSession(ctx context.Context) models.Session {
	start := s.begin()

	acct, err := s.identity.GetSession(ctx)
	if err != nil {
		return s.fail(OpAdopt, start, err)
	}
	if acct == nil {
		return s.noop(OpAdopt)
	}
	user, err := s.assembleUser(ctx, acct)
	if err != nil {
		return s.fail(OpAdopt, start, err)
	}

	return s.commit(ctx, OpAdopt, start, func(sess *models.Session) {
		sess.Mode = models.ModeRegistered
		sess.User = user
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Transition plumbing                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// begin marks a transition in flight and captures the sequence number it
// must still see at commit time.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	start := s.seq
	s.active++
	s.sess.IsLoading = true
	s.mu.Unlock()
	s.notify()
	return start
}

// commit applies the state change if no other transition committed since
// begin; otherwise the result is stale and discarded (a slow refresh
// must not overwrite a newer sign-out). A committed state is persisted
// and subscribers are notified either way.
func (s *Store) commit(ctx context.Context, op string, start uint64, apply func(*models.Session)) models.Session {
	s.mu.Lock()
	s.active--
	if s.seq != start {
		s.sess.IsLoading = s.active > 0
		out := s.sess
		s.mu.Unlock()
		s.log.Info("discarding stale transition result", zap.String("op", op))
		s.record(op, OutcomeStale)
		s.notify()
		return out
	}

	apply(&s.sess)
	s.sess.LastError = nil
	s.seq++
	s.sess.IsLoading = s.active > 0
	snap := s.sess.Snapshot()
	s.mu.Unlock()

	s.record(op, OutcomeOK)

	if err := s.persist.Save(ctx, snap); err != nil {
		s.log.Error("persist session snapshot", zap.String("op", op), zap.Error(err))
		s.mu.Lock()
		s.sess.LastError = models.NewPersistenceError("the session could not be saved on this device").WithOp(op)
		s.mu.Unlock()
	}

	s.notify()
	return s.State()
}

// fail records the error descriptor and leaves the state machine in its
// prior state; a failed transition is aborted, never partially applied.
func (s *Store) fail(op string, start uint64, err error) models.Session {
	se := asSessionError(err).WithOp(op)

	s.mu.Lock()
	s.active--
	stale := s.seq != start
	if !stale {
		s.sess.LastError = se
	}
	s.sess.IsLoading = s.active > 0
	out := s.sess
	s.mu.Unlock()

	if stale {
		s.record(op, OutcomeStale)
	} else {
		s.log.Info("transition failed",
			zap.String("op", op),
			zap.String("kind", string(se.Kind)))
		s.record(op, OutcomeError)
	}
	s.notify()
	return out
}

// noop ends a transition that decided to change nothing.
func (s *Store) noop(op string) models.Session {
	s.mu.Lock()
	s.active--
	s.sess.IsLoading = s.active > 0
	out := s.sess
	s.mu.Unlock()
	s.record(op, OutcomeNoop)
	s.notify()
	return out
}

func (s *Store) record(op, outcome string) {
	if s.rec != nil {
		s.rec.Transition(op, outcome)
	}
}

// assembleUser builds the registered user from the account plus its
// three sub-resources. A missing sub-record is tolerated (the records
// are independently nullable); any other fetch failure aborts the
// transition.
func (s *Store) assembleUser(ctx context.Context, acct *identity.Account) (*models.User, error) {
	now := time.Now().UTC()
	u := &models.User{
		ID:          acct.ID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		Role:        roleOrDefault(acct.Role),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	prof, err := s.identity.GetProfile(ctx, acct.ID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	u.Profile = prof
	if prof != nil && prof.DisplayName != "" {
		u.DisplayName = prof.DisplayName
	}

	prefs, err := s.identity.GetPreferences(ctx, acct.ID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	u.Preferences = prefs

	stats, err := s.identity.GetStats(ctx, acct.ID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	u.Stats = stats

	return u, nil
}

func (s *Store) fetchResources(ctx context.Context, userID string) (*models.Profile, *models.Preferences, *models.Stats, error) {
	prof, err := s.identity.GetProfile(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, nil, nil, err
	}
	prefs, err := s.identity.GetPreferences(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, nil, nil, err
	}
	stats, err := s.identity.GetStats(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, nil, nil, err
	}
	return prof, prefs, stats, nil
}

func newGuestUser() *models.User {
	now := time.Now().UTC()
	id := fmt.Sprintf("guest-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
	return &models.User{
		ID:          id,
		Email:       id + "@guest.gymovoo.app",
		DisplayName: "Guest",
		Role:        models.RoleUser,
		IsGuest:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func roleOrDefault(role string) string {
	switch role {
	case models.RoleAdmin, models.RoleTrainer, models.RoleUser:
		return role
	}
	return models.RoleUser
}

func asSessionError(err error) *models.SessionError {
	if se, ok := err.(*models.SessionError); ok {
		return se
	}
	return models.NewNetworkError(err.Error())
}

func isNotFound(err error) bool {
	se, ok := err.(*models.SessionError)
	return ok && se.Kind == models.ErrNotFound
}
