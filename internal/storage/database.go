package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// mongoBatchSize is the buffer size that triggers an InsertMany from Append.
const mongoBatchSize = 100

// articleDocument is the stored form of a record.
type articleDocument struct {
	types.ArticleRecord `bson:",inline"`
	SessionID           string    `bson:"session_id"`
	ScrapedAt           time.Time `bson:"scraped_at"`
}

// MongoSink writes records to a MongoDB collection.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	sessionID  string
	overwrite  bool
	cleared    bool
	pending    []any
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoSink connects to MongoDB. In overwrite mode the collection is
// emptied before the first insert of the session.
func NewMongoSink(ctx context.Context, cfg config.MongoConfig, mode, sessionID string, logger *slog.Logger) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		sessionID:  sessionID,
		overwrite:  mode != ModeAppend,
		logger:     logger.With("component", "mongo_sink", "collection", cfg.Collection),
	}, nil
}

func (s *MongoSink) Name() string { return "mongodb" }

func (s *MongoSink) Append(records []types.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, rec := range records {
		s.pending = append(s.pending, articleDocument{
			ArticleRecord: rec,
			SessionID:     s.sessionID,
			ScrapedAt:     now,
		})
	}

	if len(s.pending) < mongoBatchSize {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.flushLocked(ctx)
}

func (s *MongoSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *MongoSink) flushLocked(ctx context.Context) error {
	if s.overwrite && !s.cleared {
		res, err := s.collection.DeleteMany(ctx, bson.D{})
		if err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("mongodb clear: %w", err)}
		}
		s.cleared = true
		s.logger.Info("collection cleared", "deleted", res.DeletedCount)
	}

	if len(s.pending) == 0 {
		return nil
	}

	if _, err := s.collection.InsertMany(ctx, s.pending); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("mongodb insert: %w", err)}
	}

	s.count += len(s.pending)
	s.logger.Debug("records stored in mongodb", "count", len(s.pending), "total", s.count)
	s.pending = s.pending[:0]
	return nil
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.mu.Lock()
	err := s.flushLocked(ctx)
	s.mu.Unlock()

	s.logger.Info("mongodb sink closing", "total_records", s.count)
	if derr := s.client.Disconnect(ctx); derr != nil && err == nil {
		err = derr
	}
	return err
}
