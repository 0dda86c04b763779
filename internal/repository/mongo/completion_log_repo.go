// internal/repository/mongo/completion_log_repo.go
package mongo

import (
	"context"
	"easyfitness/plan-service/internal/domain"
	"easyfitness/plan-service/internal/repository"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const completionLogCollectionName = "completion_logs"

// mongoCompletionLogRepository implements repository.CompletionLogRepository
type mongoCompletionLogRepository struct {
	collection *mongo.Collection
}

// NewMongoCompletionLogRepository creates a new completion log repository.
func NewMongoCompletionLogRepository(db *mongo.Database) repository.CompletionLogRepository {
	return &mongoCompletionLogRepository{
		collection: db.Collection(completionLogCollectionName),
	}
}

// Append inserts one audit entry. Entries are never updated or deleted.
func (r *mongoCompletionLogRepository) Append(ctx context.Context, entry *domain.CompletionLog) (primitive.ObjectID, error) {
	if entry.PlanID == primitive.NilObjectID || entry.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("completion log requires planId and userId")
	}
	entry.ID = primitive.NewObjectID()
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted log ID")
	}
	return insertedID, nil
}

// GetByPlanID retrieves all audit entries for a plan, oldest first.
func (r *mongoCompletionLogRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.CompletionLog, error) {
	var logs []domain.CompletionLog
	filter := bson.M{"planId": planID}
	findOptions := options.Find().SetSort(bson.D{{Key: "loggedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// EnsureCompletionLogIndexes creates necessary indexes. Call during startup.
func EnsureCompletionLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "loggedAt", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
