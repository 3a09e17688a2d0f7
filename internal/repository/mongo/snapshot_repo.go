package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const snapshotCollectionName = "plan_snapshots"

// snapshotDoc is the stored shape of the per-account plan document.
// UpdatedAt is written with $currentDate so the value comes from the
// store's clock, never the client's.
type snapshotDoc struct {
	AccountID primitive.ObjectID `bson:"_id"`
	State     domain.PlanState   `bson:"state"`
	Version   int                `bson:"version"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// mongoSnapshotRepository implements repository.SnapshotRepository.
type mongoSnapshotRepository struct {
	collection *mongo.Collection
}

func NewMongoSnapshotRepository(db *mongo.Database) repository.SnapshotRepository {
	return &mongoSnapshotRepository{
		collection: db.Collection(snapshotCollectionName),
	}
}

// Load retrieves the account's snapshot and its store-assigned update
// time. Missing optional fields inside the stored state decode to their
// zero values; a malformed document shape is the only decode error that
// propagates.
func (r *mongoSnapshotRepository) Load(ctx context.Context, accountID string) (*domain.PlanState, time.Time, error) {
	oid, err := accountOID(accountID)
	if err != nil {
		return nil, time.Time{}, err
	}

	var doc snapshotDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, time.Time{}, repository.ErrNotFound
		}
		return nil, time.Time{}, err
	}
	return &doc.State, doc.UpdatedAt, nil
}

// Save merge-writes the snapshot (upsert). The state is sanitized so
// unset optional fields are dropped rather than written as nulls, and
// updatedAt is assigned by the server clock.
func (r *mongoSnapshotRepository) Save(ctx context.Context, accountID string, state domain.PlanState) error {
	oid, err := accountOID(accountID)
	if err != nil {
		return err
	}

	doc, err := stateDocument(state)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set":         bson.M{"state": doc, "version": 1},
		"$currentDate": bson.M{"updatedAt": true},
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update, options.Update().SetUpsert(true))
	return err
}

// Delete removes the snapshot document ("reset everywhere").
func (r *mongoSnapshotRepository) Delete(ctx context.Context, accountID string) error {
	oid, err := accountOID(accountID)
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// stateDocument converts a PlanState into a sanitized generic document
// for the merge-write.
func stateDocument(state domain.PlanState) (map[string]any, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return Sanitize(doc).(map[string]any), nil
}

// accountOID validates the account scoping of a remote call. An empty or
// malformed id means the caller skipped the identity gate.
func accountOID(accountID string) (primitive.ObjectID, error) {
	if accountID == "" {
		return primitive.NilObjectID, repository.ErrNoAccount
	}
	oid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return primitive.NilObjectID, repository.ErrNoAccount
	}
	return oid, nil
}
