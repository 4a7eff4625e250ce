package mongo

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDefaultsRepository keeps every defaults kind in one collection keyed
// by the unique (kind, language) pair. The blob is stored as raw JSON bytes.
type mongoDefaultsRepository struct {
	collection *mongo.Collection
}

// NewMongoDefaultsRepository creates a new defaults repository.
func NewMongoDefaultsRepository(db *mongo.Database) repository.DefaultsRepository {
	return &mongoDefaultsRepository{
		collection: db.Collection(defaultsCollectionName),
	}
}

// Get retrieves the blob for (kind, language).
func (r *mongoDefaultsRepository) Get(ctx context.Context, kind domain.DefaultsKind, language string) (*domain.Defaults, error) {
	var defaults domain.Defaults
	filter := bson.M{"kind": kind, "language": language}
	if err := r.collection.FindOne(ctx, filter).Decode(&defaults); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &defaults, nil
}

// Upsert overwrites the blob. Two first-time writers for the same pair can
// both take the insert path; the loser's duplicate key error is retried as a
// plain update.
func (r *mongoDefaultsRepository) Upsert(ctx context.Context, defaults *domain.Defaults) error {
	now := time.Now().UTC()
	filter := bson.M{"kind": defaults.Kind, "language": defaults.Language}
	update := bson.M{
		"$set":         bson.M{"data": []byte(defaults.Data), "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		_, err = r.collection.UpdateOne(ctx, filter, update)
	}
	if err != nil {
		return err
	}
	defaults.UpdatedAt = now
	return nil
}

func ensureDefaultsIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "language", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
