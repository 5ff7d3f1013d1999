package changestream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Change is a single write observed on the player collection
type Change struct {
	ID          string    `json:"id"`
	Operation   string    `json:"operation"`
	Namespace   Namespace `json:"namespace"`
	DocumentID  string    `json:"document_id,omitempty"`
	ClusterTime time.Time `json:"cluster_time"`
}

type Namespace struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

// Watcher reports writes that invalidate the loaded dataset
type Watcher interface {
	// Watch starts monitoring from the current point in time.
	// Returns a channel of changes and an error channel.
	Watch(ctx context.Context) (<-chan Change, <-chan error)

	// Close gracefully shuts down the watcher
	Close() error
}

// eventStream is the part of a change stream the watch loop reads
type eventStream interface {
	Next(ctx context.Context) bool
	Current() bson.Raw
	Err() error
	Close(ctx context.Context) error
}

type mongoStream struct{ *mongo.ChangeStream }

func (s mongoStream) Current() bson.Raw { return s.ChangeStream.Current }

// MongoWatcher implements Watcher over a MongoDB change stream. The stream
// is owned by the Watch goroutine; Close only cancels it.
type MongoWatcher struct {
	open func(ctx context.Context) (eventStream, error)

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// NewMongoWatcher creates a new MongoWatcher instance
func NewMongoWatcher(coll *mongo.Collection) *MongoWatcher {
	return &MongoWatcher{
		open: func(ctx context.Context) (eventStream, error) {
			stream, err := coll.Watch(ctx, writePipeline, options.ChangeStream())
			if err != nil {
				return nil, err
			}
			return mongoStream{stream}, nil
		},
	}
}

// only writes that change the record set matter
var writePipeline = mongo.Pipeline{
	{{Key: "$match", Value: bson.D{
		{Key: "operationType", Value: bson.D{
			{Key: "$in", Value: bson.A{"insert", "update", "replace", "delete"}},
		}},
	}}},
	{{Key: "$project", Value: bson.D{
		{Key: "fullDocument", Value: 0},
		{Key: "updateDescription", Value: 0},
	}}},
}

// Watch starts monitoring the change stream
func (w *MongoWatcher) Watch(ctx context.Context) (<-chan Change, <-chan error) {
	changeChan := make(chan Change)
	errChan := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	if w.closed {
		cancel()
	} else {
		w.cancel = cancel
	}
	w.mu.Unlock()

	go func() {
		defer cancel()
		defer close(changeChan)
		defer close(errChan)

		stream, err := w.open(ctx)
		if err != nil {
			if ctx.Err() == nil {
				errChan <- fmt.Errorf("failed to open change stream: %w", err)
			}
			return
		}
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			change, err := parseEvent(stream.Current())
			if err != nil {
				// a malformed event still means the collection changed
				change = Change{Operation: "unknown"}
			}

			select {
			case changeChan <- change:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			errChan <- fmt.Errorf("change stream error: %w", err)
		}
	}()

	return changeChan, errChan
}

func parseEvent(raw bson.Raw) (Change, error) {
	var event struct {
		ID            bson.RawValue       `bson:"_id"`
		OperationType string              `bson:"operationType"`
		DocumentKey   bson.M              `bson:"documentKey"`
		ClusterTime   primitive.Timestamp `bson:"clusterTime"`
		Namespace     struct {
			DB   string `bson:"db"`
			Coll string `bson:"coll"`
		} `bson:"ns"`
	}

	if err := bson.Unmarshal(raw, &event); err != nil {
		return Change{}, err
	}

	change := Change{
		Operation: event.OperationType,
		Namespace: Namespace{
			Database:   event.Namespace.DB,
			Collection: event.Namespace.Coll,
		},
	}
	if event.ClusterTime.T != 0 {
		change.ClusterTime = time.Unix(int64(event.ClusterTime.T), 0).UTC()
	}

	// resume token _id is {_data: "<hex>"}
	if doc, ok := event.ID.DocumentOK(); ok {
		change.ID, _ = doc.Lookup("_data").StringValueOK()
	}

	switch v := event.DocumentKey["_id"].(type) {
	case nil:
	case primitive.ObjectID:
		change.DocumentID = v.Hex()
	default:
		change.DocumentID = fmt.Sprint(v)
	}

	return change, nil
}

// Close stops a running Watch; its channels close once the stream is released
func (w *MongoWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	return nil
}

// Debounce forwards the last change of every burst once in has been quiet
// for the given duration. The returned channel closes when in closes or ctx
// is done; a pending change is flushed when in closes.
func Debounce(ctx context.Context, in <-chan Change, quiet time.Duration) <-chan Change {
	out := make(chan Change)

	go func() {
		defer close(out)

		var (
			pending *Change
			timer   *time.Timer
			fire    <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		emit := func() bool {
			if pending == nil {
				return true
			}
			select {
			case out <- *pending:
				pending = nil
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-in:
				if !ok {
					emit()
					return
				}
				pending = &c
				if timer == nil {
					timer = time.NewTimer(quiet)
				} else {
					timer.Reset(quiet)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if !emit() {
					return
				}
			}
		}
	}()

	return out
}
