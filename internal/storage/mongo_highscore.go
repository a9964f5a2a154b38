package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the MongoDB high score store.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. ufo_survivor
	Collection string // e.g. high_scores
}

// MongoHighScoreRepo implements HighScoreRepo on MongoDB backend.
type MongoHighScoreRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

// NewMongoHighScoreRepo establishes connection and returns repository.
func NewMongoHighScoreRepo(cfg MongoConfig) (*MongoHighScoreRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "ufo_survivor"
	}
	if cfg.Collection == "" {
		cfg.Collection = "high_scores"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoHighScoreRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}, nil
}

// Load implements HighScoreRepo.
func (m *MongoHighScoreRepo) Load(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var doc struct {
		Score int `bson:"score"`
	}
	err := m.collection.FindOne(ctx, bson.M{"_id": HighScoreKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("mongo load high score: %w", err)
	}
	return doc.Score, nil
}

// Submit implements HighScoreRepo. $max only touches the document when the
// new score is greater.
func (m *MongoHighScoreRepo) Submit(ctx context.Context, score int) (bool, error) {
	if score <= 0 {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	update := bson.M{
		"$max": bson.M{"score": score},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": HighScoreKey, "score": bson.M{"$lt": score}}, update)
	if err != nil {
		return false, fmt.Errorf("mongo submit high score: %w", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	// Документа ещё нет: вставляем первый рекорд
	_, err = m.collection.InsertOne(ctx, bson.M{"_id": HighScoreKey, "score": score, "updated_at": time.Now().UTC()})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongo insert high score: %w", err)
	}
	return true, nil
}

// Close disconnects the client.
func (m *MongoHighScoreRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
