package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/pkg/logger"
)

const statsCollection = "user_stats"

// MongoStore persists records in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

func openMongo(ctx context.Context, s *settings) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(s.dsn).
		SetServerSelectionTimeout(s.timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: connect mongo: %w", ErrUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping mongo: %w", ErrUnavailable, err)
	}

	coll := client.Database(s.database).Collection(statsCollection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "time_period.period_type", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create indexes: %w", mapMongoError(err))
	}
	s.logger.Info(ctx, "user_stats collection is ready", logger.String("database", s.database))
	return &MongoStore{client: client, coll: coll, now: s.now}, nil
}

// Insert adds one document.
func (s *MongoStore) Insert(ctx context.Context, stats *model.UserStats) error {
	doc := clone(*stats)
	doc.ID = uuid.NewString()
	// BSON datetimes keep millisecond precision.
	doc.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert user stats: %w", mapMongoError(err))
	}
	stats.ID, stats.CreatedAt = doc.ID, doc.CreatedAt
	return nil
}

// Latest returns the newest document of userID.
func (s *MongoStore) Latest(ctx context.Context, userID string) (model.UserStats, error) {
	var out model.UserStats
	err := s.coll.FindOne(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.UserStats{}, ErrNotFound
	}
	if err != nil {
		return model.UserStats{}, fmt.Errorf("latest user stats: %w", mapMongoError(err))
	}
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}

// ListByPeriod returns documents with periodType, oldest first.
func (s *MongoStore) ListByPeriod(ctx context.Context, periodType string) ([]model.UserStats, error) {
	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "time_period.period_type", Value: periodType}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list user stats: %w", mapMongoError(err))
	}
	out := []model.UserStats{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode user stats: %w", mapMongoError(err))
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// mapMongoError marks network failures and timeouts as retryable.
func mapMongoError(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
