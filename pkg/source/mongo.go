package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/whoknowsbruh3425/BDA/pkg/config"
	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/retry"
)

// MongoSource reads player documents from a MongoDB collection.
// The client is created lazily on the first Load and reused afterwards.
type MongoSource struct {
	cfg    config.MongoConfig
	logger *logger.Logger
	retry  retry.RetryOptions

	mu     sync.Mutex
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSource creates a source that connects with cfg on first use
func NewMongoSource(cfg config.MongoConfig, l *logger.Logger) *MongoSource {
	opts := retry.DefaultOptions()
	opts.OnRetry = func(attempt int, err error, wait time.Duration) {
		l.Warn("mongodb load failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	return &MongoSource{cfg: cfg, logger: l, retry: opts}
}

// NewCollectionSource wraps an already connected collection
func NewCollectionSource(coll *mongo.Collection, limit int64, l *logger.Logger) *MongoSource {
	s := NewMongoSource(config.MongoConfig{
		Database:   coll.Database().Name(),
		Collection: coll.Name(),
		FetchLimit: limit,
	}, l)
	s.coll = coll
	return s
}

func (s *MongoSource) Name() string {
	return fmt.Sprintf("mongodb:%s.%s", s.cfg.Database, s.cfg.Collection)
}

// WithRetry overrides the retry policy
func (s *MongoSource) WithRetry(opts retry.RetryOptions) *MongoSource {
	s.retry = opts
	return s
}

// Collection returns the connected collection, connecting if needed
func (s *MongoSource) Collection(ctx context.Context) (*mongo.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coll != nil {
		return s.coll, nil
	}

	timeout := s.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	connCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connCtx, options.Client().
		ApplyURI(s.cfg.URI).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s.logger.Info("connected to mongodb",
		zap.String("database", s.cfg.Database),
		zap.String("collection", s.cfg.Collection),
	)
	s.client = client
	s.coll = client.Database(s.cfg.Database).Collection(s.cfg.Collection)
	return s.coll, nil
}

// Load fetches all documents up to the configured limit
func (s *MongoSource) Load(ctx context.Context) ([]record.Player, error) {
	var players []record.Player

	err := retry.Do(ctx, func(ctx context.Context) error {
		coll, err := s.Collection(ctx)
		if err != nil {
			return err
		}
		players, err = s.fetch(ctx, coll)
		return err
	}, s.retry)
	if err != nil {
		return nil, err
	}

	if len(players) == 0 {
		return nil, ErrNoRecords
	}
	s.logger.Debug("loaded player documents", zap.Int("count", len(players)))
	return players, nil
}

func (s *MongoSource) fetch(ctx context.Context, coll *mongo.Collection) ([]record.Player, error) {
	opts := options.Find()
	if s.cfg.FetchLimit > 0 {
		opts.SetLimit(s.cfg.FetchLimit)
	}

	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find players: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}

	players := make([]record.Player, len(docs))
	for i, doc := range docs {
		players[i] = record.Player(doc)
	}
	return players, nil
}

// Insert writes records in unordered batches and returns how many were
// stored. Duplicate keys are skipped, any other write error stops the import.
func (s *MongoSource) Insert(ctx context.Context, records []record.Player, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	coll, err := s.Collection(ctx)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		docs := make([]any, 0, end-start)
		for _, rec := range records[start:end] {
			docs = append(docs, bson.M(rec))
		}

		res, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if res != nil {
			inserted += len(res.InsertedIDs)
		}
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			inserted -= len(bwe.WriteErrors)
		}
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return inserted, fmt.Errorf("insert players %d-%d: %w", start, end, err)
		}
		s.logger.Debug("inserted batch", zap.Int("from", start), zap.Int("to", end))
	}
	return inserted, nil
}

// Close disconnects the client if this source created one
func (s *MongoSource) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	s.coll = nil
	return err
}
