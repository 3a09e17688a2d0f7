package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const goalCollectionName = "goals"

// mongoGoalRepository implements repository.GoalRepository. Goal weeks
// are embedded in the goal document, so creation and cascade deletion
// are single-document operations.
type mongoGoalRepository struct {
	collection *mongo.Collection
}

func NewMongoGoalRepository(db *mongo.Database) repository.GoalRepository {
	return &mongoGoalRepository{
		collection: db.Collection(goalCollectionName),
	}
}

func (r *mongoGoalRepository) Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	if goal.AccountID == primitive.NilObjectID {
		return primitive.NilObjectID, repository.ErrNoAccount
	}
	if goal.Name == "" {
		return primitive.NilObjectID, errors.New("goal name is required")
	}

	goal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	if goal.Weeks == nil {
		goal.Weeks = []domain.GoalWeek{}
	}

	result, err := r.collection.InsertOne(ctx, goal)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func (r *mongoGoalRepository) GetByID(ctx context.Context, accountID string, id primitive.ObjectID) (*domain.Goal, error) {
	oid, err := accountOID(accountID)
	if err != nil {
		return nil, err
	}

	var goal domain.Goal
	err = r.collection.FindOne(ctx, bson.M{"_id": id, "accountId": oid}).Decode(&goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

// GetActive returns the most recently created active goal. The account
// invariant keeps at most one, but sorting by createdAt makes the result
// deterministic even if the invariant was violated by older data.
func (r *mongoGoalRepository) GetActive(ctx context.Context, accountID string) (*domain.Goal, error) {
	oid, err := accountOID(accountID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"accountId": oid, "status": domain.GoalStatusActive}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var goal domain.Goal
	err = r.collection.FindOne(ctx, filter, opts).Decode(&goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

func (r *mongoGoalRepository) List(ctx context.Context, accountID string) ([]domain.Goal, error) {
	oid, err := accountOID(accountID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"accountId": oid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	goals := []domain.Goal{}
	if err = cursor.All(ctx, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *mongoGoalRepository) Update(ctx context.Context, accountID string, goal *domain.Goal) error {
	oid, err := accountOID(accountID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"name":        goal.Name,
			"domain":      goal.Domain,
			"metric":      goal.Metric,
			"targetValue": goal.TargetValue,
			"startDate":   goal.StartDate,
			"planWeeks":   goal.PlanWeeks,
			"freqPerWeek": goal.FreqPerWeek,
			"intensity":   goal.Intensity,
			"status":      goal.Status,
			"weeks":       goal.Weeks,
			"updatedAt":   time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": goal.ID, "accountId": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateProgress merge-writes only the auto-progress fields; everything
// else on the document is preserved.
func (r *mongoGoalRepository) UpdateProgress(ctx context.Context, accountID string, id primitive.ObjectID, progress float64, eta string) error {
	oid, err := accountOID(accountID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"progress":  progress,
			"eta":       eta,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "accountId": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetActive promotes the goal and demotes every other active goal of the
// account in one ordered bulk write, the store's batched-write
// primitive, so observers never see zero or two active goals across
// independent writes.
func (r *mongoGoalRepository) SetActive(ctx context.Context, accountID string, id primitive.ObjectID) error {
	// Existence check up front: the bulk result's MatchedCount mixes the
	// demote and promote updates, so it cannot tell a missing goal apart
	// from a successful demote.
	if _, err := r.GetByID(ctx, accountID, id); err != nil {
		return err
	}

	oid, err := accountOID(accountID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	models := []mongo.WriteModel{
		mongo.NewUpdateManyModel().
			SetFilter(bson.M{"accountId": oid, "status": domain.GoalStatusActive, "_id": bson.M{"$ne": id}}).
			SetUpdate(bson.M{"$set": bson.M{"status": domain.GoalStatusPaused, "updatedAt": now}}),
		mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "accountId": oid}).
			SetUpdate(bson.M{"$set": bson.M{"status": domain.GoalStatusActive, "updatedAt": now}}),
	}

	_, err = r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return err
}

// Delete removes the goal; embedded weeks go with the document.
func (r *mongoGoalRepository) Delete(ctx context.Context, accountID string, id primitive.ObjectID) error {
	oid, err := accountOID(accountID)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "accountId": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureGoalIndexes creates the indexes for the goals collection.
// Call this once during application startup.
func EnsureGoalIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "accountId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "accountId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
