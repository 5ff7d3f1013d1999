package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoknowsbruh3425/BDA/pkg/record"
)

func players(ages []float64, genre string) []record.Player {
	out := make([]record.Player, len(ages))
	for i, age := range ages {
		out[i] = record.Player{record.Age: age, record.GameGenre: genre}
	}
	return out
}

func sameRecords(a, b []record.Player) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i][record.Age] != b[i][record.Age] || a[i][record.GameGenre] != b[i][record.GameGenre] {
			return false
		}
	}
	return true
}

func TestSnapshotStoreProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	dir := t.TempDir()
	savedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	properties.Property("FileStore round-trips records", prop.ForAll(
		func(ages []float64, genre string) bool {
			s := NewFileStore(filepath.Join(dir, "snapshot.bson"))
			in := Snapshot{SavedAt: savedAt, Source: "file", Records: players(ages, genre)}
			if err := s.Save(context.Background(), in); err != nil {
				return false
			}
			out, ok, err := s.Load(context.Background())
			return err == nil && ok && out.SavedAt.Equal(savedAt) && sameRecords(in.Records, out.Records)
		},
		gen.SliceOf(gen.Float64Range(0, 100)),
		gen.AlphaString(),
	))

	properties.Property("RedisStore round-trips records", prop.ForAll(
		func(ages []float64, key string) bool {
			s := NewRedisStore(client, key, time.Minute)
			in := Snapshot{SavedAt: savedAt, Source: "mongodb", Records: players(ages, "RPG")}
			if err := s.Save(context.Background(), in); err != nil {
				return false
			}
			out, ok, err := s.Load(context.Background())
			return err == nil && ok && out.Source == "mongodb" && sameRecords(in.Records, out.Records)
		},
		gen.SliceOf(gen.Float64Range(0, 100)),
		gen.Identifier(),
	))

	properties.Property("freshness is monotonic in age", prop.ForAll(
		func(ageSec, ttlSec int64) bool {
			s := Snapshot{SavedAt: savedAt}
			now := savedAt.Add(time.Duration(ageSec) * time.Second)
			return s.Fresh(time.Duration(ttlSec)*time.Second, now) == (ageSec < ttlSec)
		},
		gen.Int64Range(0, 3600),
		gen.Int64Range(1, 3600),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLoadMissing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	for name, s := range map[string]Store{
		"file":  NewFileStore(filepath.Join(t.TempDir(), "none.bson")),
		"redis": NewRedisStore(client, "absent", time.Minute),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = LoadFresh(context.Background(), s, time.Minute, time.Now())
			assert.ErrorIs(t, err, ErrStale)
		})
	}
}

func TestRedisEntriesExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "analytics:snapshot", time.Minute)

	now := time.Now()
	require.NoError(t, s.Save(context.Background(), Snapshot{SavedAt: now, Records: players([]float64{20}, "FPS")}))

	got, err := LoadFresh(context.Background(), s, time.Minute, now.Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, got.Records, 1)

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaleSnapshot(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "snapshot.bson"))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, s.Save(context.Background(), Snapshot{SavedAt: old}))

	_, err := LoadFresh(context.Background(), s, time.Minute, time.Now())
	assert.ErrorIs(t, err, ErrStale)

	_, err = LoadFresh(context.Background(), s, 0, time.Now())
	assert.NoError(t, err, "zero ttl never expires")
}
