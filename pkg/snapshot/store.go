package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/whoknowsbruh3425/BDA/pkg/record"
)

// ErrStale is returned by LoadFresh when no usable snapshot exists
var ErrStale = errors.New("snapshot missing or stale")

// Snapshot is a point-in-time copy of the loaded player records
type Snapshot struct {
	SavedAt time.Time       `bson:"saved_at"`
	Source  string          `bson:"source"`
	Records []record.Player `bson:"records"`
}

// Fresh reports whether the snapshot is younger than ttl at now.
// A non-positive ttl never expires.
func (s Snapshot) Fresh(ttl time.Duration, now time.Time) bool {
	if s.SavedAt.IsZero() {
		return false
	}
	if ttl <= 0 {
		return true
	}
	return now.Sub(s.SavedAt) < ttl
}

// Store defines the interface for persisting and loading record snapshots
type Store interface {
	// Save persists the snapshot, replacing any previous one
	Save(ctx context.Context, s Snapshot) error

	// Load retrieves the last saved snapshot. ok is false if none exists.
	Load(ctx context.Context) (s Snapshot, ok bool, err error)
}

// LoadFresh loads from store and returns ErrStale unless the snapshot is fresh
func LoadFresh(ctx context.Context, store Store, ttl time.Duration, now time.Time) (Snapshot, error) {
	s, ok, err := store.Load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if !ok || !s.Fresh(ttl, now) {
		return Snapshot{}, ErrStale
	}
	return s, nil
}

func encode(s Snapshot) ([]byte, error) {
	data, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := bson.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// FileStore implements Store using a local BSON file
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Save(ctx context.Context, s Snapshot) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	// write then rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) Load(ctx context.Context) (Snapshot, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	s, err := decode(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}

// RedisStore implements Store using Redis. Entries expire after ttl.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (r *RedisStore) Save(ctx context.Context, s Snapshot) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, r.ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context) (Snapshot, bool, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	s, err := decode(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}
