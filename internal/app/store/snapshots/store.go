// internal/app/store/snapshots/store.go

// Package snapshots persists per-device session snapshots in MongoDB.
// One document per device key; guest and demo snapshots carry an
// expires_at honored by a TTL index so abandoned anonymous sessions age
// out server-side.
package snapshots

import (
	"context"
	"time"

	"github.com/gymovoo/gymovoo/internal/app/system/timeouts"
	"github.com/gymovoo/gymovoo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const collectionName = "session_snapshots"

// Store wraps the session_snapshots collection.
type Store struct {
	coll      *mongo.Collection
	retention time.Duration
	log       *zap.Logger
}

type record struct {
	DeviceKey     string              `bson:"device_key"`
	SchemaVersion int                 `bson:"schema_version"`
	Mode          models.IdentityMode `bson:"identity_mode"`
	User          *models.User        `bson:"user,omitempty"`
	UpdatedAt     time.Time           `bson:"updated_at"`
	ExpiresAt     *time.Time          `bson:"expires_at,omitempty"`
}

// New creates a snapshot store. retention bounds how long guest/demo
// snapshots live; registered snapshots never expire server-side.
func New(db *mongo.Database, retention time.Duration, logger *zap.Logger) *Store {
	return &Store{
		coll:      db.Collection(collectionName),
		retention: retention,
		log:       logger,
	}
}

// EnsureIndexes creates the unique device index and the TTL index that
// reaps expired guest/demo snapshots.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(collectionName)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "device_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Documents without expires_at (registered sessions) are
			// untouched by the TTL monitor.
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	return err
}

// Save upserts the snapshot for a device.
func (s *Store) Save(ctx context.Context, deviceKey string, snap models.Snapshot) error {
	rec := record{
		DeviceKey:     deviceKey,
		SchemaVersion: snap.SchemaVersion,
		Mode:          snap.Mode,
		User:          snap.User,
		UpdatedAt:     snap.UpdatedAt,
	}
	if snap.Mode == models.ModeGuest || snap.Mode == models.ModeDemo {
		exp := snap.UpdatedAt.Add(s.retention)
		rec.ExpiresAt = &exp
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"device_key": deviceKey},
		rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return models.NewPersistenceError(err.Error())
	}
	return nil
}

// Load fetches the snapshot for a device. A missing or undecodable
// document returns (nil, nil): a corrupt cache entry degrades to a fresh
// signed-out session instead of blocking startup.
func (s *Store) Load(ctx context.Context, deviceKey string) (*models.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var rec record
	err := s.coll.FindOne(ctx, bson.M{"device_key": deviceKey}).Decode(&rec)
	switch {
	case err == mongo.ErrNoDocuments:
		return nil, nil
	case err != nil:
		if _, ok := err.(*mongo.CommandError); ok {
			return nil, models.NewPersistenceError(err.Error())
		}
		// Decode failure: the stored document is unusable, drop it.
		s.log.Warn("undecodable session snapshot; discarding",
			zap.String("device_key", deviceKey), zap.Error(err))
		_, _ = s.coll.DeleteOne(ctx, bson.M{"device_key": deviceKey})
		return nil, nil
	}

	return &models.Snapshot{
		SchemaVersion: rec.SchemaVersion,
		Mode:          rec.Mode,
		User:          rec.User,
		UpdatedAt:     rec.UpdatedAt,
	}, nil
}

// Clear removes the snapshot for a device. Clearing an absent snapshot
// is not an error.
func (s *Store) Clear(ctx context.Context, deviceKey string) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"device_key": deviceKey}); err != nil {
		return models.NewPersistenceError(err.Error())
	}
	return nil
}

// ForDevice binds the store to one device key, yielding the adapter
// shape the session store consumes.
func (s *Store) ForDevice(deviceKey string) *DeviceAdapter {
	return &DeviceAdapter{store: s, deviceKey: deviceKey}
}

// DeviceAdapter scopes a Store to a single device.
type DeviceAdapter struct {
	store     *Store
	deviceKey string
}

func (a *DeviceAdapter) Save(ctx context.Context, snap models.Snapshot) error {
	return a.store.Save(ctx, a.deviceKey, snap)
}

func (a *DeviceAdapter) Load(ctx context.Context) (*models.Snapshot, error) {
	return a.store.Load(ctx, a.deviceKey)
}

func (a *DeviceAdapter) Clear(ctx context.Context) error {
	return a.store.Clear(ctx, a.deviceKey)
}
