package foodstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"nutrition-calculator/internal/core/nutrition"
)

const nameField = "food_name"

// MongoConfig locates the reference collection.
type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// MongoStore reads the reference from a MongoDB collection of Food documents.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects and pings the server before returning.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout).SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	store := &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return store, nil
}

// EnsureIndexes creates the name index used by exact lookups and upserts.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: nameField, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create food name index: %w", err)
	}
	return nil
}

func (s *MongoStore) FindExact(ctx context.Context, name string) (*nutrition.FoodRecord, error) {
	return s.findOne(ctx, exactFilter(name))
}

func (s *MongoStore) FindContaining(ctx context.Context, fragment string) (*nutrition.FoodRecord, error) {
	return s.findOne(ctx, containsFilter(fragment))
}

func (s *MongoStore) FindContainedIn(ctx context.Context, text string) (*nutrition.FoodRecord, error) {
	cursor, err := s.coll.Aggregate(ctx, containedInPipeline(text))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate foods: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, fmt.Errorf("failed to read foods: %w", err)
		}
		return nil, nutrition.ErrFoodNotFound
	}

	var doc Food
	if err := cursor.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode food: %w", err)
	}
	rec := doc.Record()
	return &rec, nil
}

func (s *MongoStore) FoodNames(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, nameField, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list food names: %w", err)
	}

	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *MongoStore) Upsert(ctx context.Context, rec nutrition.FoodRecord) error {
	doc := FoodFromRecord(rec)
	_, err := s.coll.UpdateOne(ctx,
		bson.M{nameField: rec.Name},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert food %q: %w", rec.Name, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*nutrition.FoodRecord, error) {
	var doc Food
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nutrition.ErrFoodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find food: %w", err)
	}
	rec := doc.Record()
	return &rec, nil
}

func exactFilter(name string) bson.M {
	return regexFilter("^" + regexp.QuoteMeta(name) + "$")
}

func containsFilter(fragment string) bson.M {
	return regexFilter(regexp.QuoteMeta(fragment))
}

// regexFilter matches food_name case-insensitively; callers escape their
// input with regexp.QuoteMeta.
func regexFilter(pattern string) bson.M {
	return bson.M{nameField: bson.M{"$regex": pattern, "$options": "i"}}
}

// containedInPipeline finds the longest food name occurring inside text.
func containedInPipeline(text string) mongo.Pipeline {
	lowerName := bson.M{"$toLower": "$" + nameField}
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{nameField: bson.M{"$type": "string", "$ne": ""}}}},
		{{Key: "$match", Value: bson.M{"$expr": bson.M{
			"$gte": bson.A{bson.M{"$indexOfCP": bson.A{strings.ToLower(text), lowerName}}, 0},
		}}}},
		{{Key: "$addFields", Value: bson.M{"name_length": bson.M{"$strLenCP": "$" + nameField}}}},
		{{Key: "$sort", Value: bson.D{{Key: "name_length", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: 1}},
	}
}
