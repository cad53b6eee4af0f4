package appstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StateRepository interface {
	Upsert(ctx context.Context, in SaveStateInput, expiresAt time.Time) (*models.ApplicationState, error)
	FindBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error)
	FindByIdentifier(ctx context.Context, identifier, channel string) (*models.ApplicationState, error)
	FindActiveByPhone(ctx context.Context, digits, excludeSessionID string) (*models.ApplicationState, error)
	MergeMetadata(ctx context.Context, sessionID string, metadata map[string]any) error
	Delete(ctx context.Context, sessionID string) error
	CreateAccountOpening(ctx context.Context, st *models.ApplicationState) error
	ArchiveExpired(ctx context.Context, now time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type StateRepositoryImpl struct {
	Collection *mongo.Collection
	Openings   *mongo.Collection
}

func NewStateRepository(mongodb *database.MongodbDB) StateRepository {
	return &StateRepositoryImpl{
		Collection: mongodb.DB.Collection("application_states"),
		Openings:   mongodb.DB.Collection("account_openings"),
	}
}

// Upsert is the per-session critical section: one server-side
// FindOneAndUpdate applies the dotted-path merge of form_data/metadata
// and the current_step overwrite atomically, so racing saves for the
// same session cannot lose each other's keys.
func (r *StateRepositoryImpl) Upsert(ctx context.Context, in SaveStateInput, expiresAt time.Time) (*models.ApplicationState, error) {
	now := time.Now()

	set := bson.M{
		"channel":         in.Channel,
		"user_identifier": in.UserIdentifier,
		"current_step":    in.CurrentStep,
		"updated_at":      now,
	}
	flattenForUpdate("form_data.", in.FormData, set)
	flattenForUpdate("metadata.", in.Metadata, set)

	filter := bson.M{
		"session_id":  in.SessionID,
		"is_archived": bson.M{"$ne": true},
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"created_at":  now,
			"expires_at":  expiresAt,
			"is_archived": false,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var st models.ApplicationState
	if err := r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&st); err != nil {
		return nil, fmt.Errorf("persist state: %w", err)
	}
	return &st, nil
}

func (r *StateRepositoryImpl) FindBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error) {
	var st models.ApplicationState
	err := r.Collection.FindOne(ctx, bson.M{
		"session_id":  sessionID,
		"is_archived": bson.M{"$ne": true},
	}).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (r *StateRepositoryImpl) FindByIdentifier(ctx context.Context, identifier, channel string) (*models.ApplicationState, error) {
	filter := bson.M{
		"user_identifier": identifier,
		"is_archived":     bson.M{"$ne": true},
		"expires_at":      bson.M{"$gt": time.Now()},
	}
	if channel != "" {
		filter["channel"] = channel
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	var st models.ApplicationState
	err := r.Collection.FindOne(ctx, filter, opts).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// FindActiveByPhone is the heuristic substring match behind duplicate
// detection. digits must already be normalized.
func (r *StateRepositoryImpl) FindActiveByPhone(ctx context.Context, digits, excludeSessionID string) (*models.ApplicationState, error) {
	pattern := primitive.Regex{Pattern: digits}

	or := []bson.M{{"user_identifier": bson.M{"$regex": pattern}}}
	for _, field := range phoneFields {
		or = append(or, bson.M{"form_data." + field: bson.M{"$regex": pattern}})
	}

	filter := bson.M{
		"is_archived":  bson.M{"$ne": true},
		"current_step": bson.M{"$nin": models.TerminalSteps},
		"$or":          or,
	}
	if excludeSessionID != "" {
		filter["session_id"] = bson.M{"$ne": excludeSessionID}
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	var st models.ApplicationState
	err := r.Collection.FindOne(ctx, filter, opts).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (r *StateRepositoryImpl) MergeMetadata(ctx context.Context, sessionID string, metadata map[string]any) error {
	set := bson.M{"updated_at": time.Now()}
	flattenForUpdate("metadata.", metadata, set)

	res, err := r.Collection.UpdateOne(ctx, bson.M{
		"session_id":  sessionID,
		"is_archived": bson.M{"$ne": true},
	}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete is the hard, irreversible removal used by discardSession. The
// embedded transition trail goes with the document.
func (r *StateRepositoryImpl) Delete(ctx context.Context, sessionID string) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StateRepositoryImpl) CreateAccountOpening(ctx context.Context, st *models.ApplicationState) error {
	_, err := r.Openings.InsertOne(ctx, AccountOpening{
		SessionID:      st.SessionID,
		UserIdentifier: st.UserIdentifier,
		Channel:        st.Channel,
		FormData:       st.FormData,
		CreatedAt:      time.Now(),
	})
	return err
}

// ArchiveExpired soft-excludes sessions past their horizon that never
// reached a terminal step. Archived records drop out of every active
// query but are kept for audit.
func (r *StateRepositoryImpl) ArchiveExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.Collection.UpdateMany(ctx, bson.M{
		"is_archived":  bson.M{"$ne": true},
		"expires_at":   bson.M{"$lt": now},
		"current_step": bson.M{"$nin": models.TerminalSteps},
	}, bson.M{"$set": bson.M{"is_archived": true, "updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *StateRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"is_archived": bson.M{"$eq": false}},
			),
		},
		{
			// Backs the issuance uniqueness invariant: a second state
			// claiming an active code fails with a duplicate key error
			// and the issuer retries with a fresh candidate.
			Keys: bson.D{{Key: "reference_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"reference_code": bson.M{"$type": "string"}},
			),
		},
		{Keys: bson.D{{Key: "user_identifier", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	})
	return err
}
