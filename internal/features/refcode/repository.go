package refcode

import (
	"context"
	"errors"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// errCodeCollision is internal: the unique partial index on
// reference_code rejected the candidate, the service retries.
var errCodeCollision = errors.New("reference code collision")

type CodeRepository interface {
	FindBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error)
	// FindByCode matches active codes only: non-archived owner, code
	// expiry in the future.
	FindByCode(ctx context.Context, code string, now time.Time) (*models.ApplicationState, error)
	// SetCode stamps code + horizon onto the session in one update, so
	// a code never exists without an owner.
	SetCode(ctx context.Context, sessionID, code string, expiresAt time.Time) error
	// SetCodeExpiry sets (never increments) the expiry. When onlyIfBelow
	// is non-nil the update applies only while the stored expiry is
	// below it, which makes concurrent renew-on-touch idempotent.
	SetCodeExpiry(ctx context.Context, code string, newExpiry time.Time, onlyIfBelow *time.Time) error
	// ClearExpiredCodes frees the code space for reuse.
	ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

type CodeRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewCodeRepository(mongodb *database.MongodbDB) CodeRepository {
	return &CodeRepositoryImpl{
		Collection: mongodb.DB.Collection("application_states"),
	}
}

func (r *CodeRepositoryImpl) FindBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error) {
	var st models.ApplicationState
	err := r.Collection.FindOne(ctx, bson.M{
		"session_id":  sessionID,
		"is_archived": bson.M{"$ne": true},
	}).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (r *CodeRepositoryImpl) FindByCode(ctx context.Context, code string, now time.Time) (*models.ApplicationState, error) {
	var st models.ApplicationState
	err := r.Collection.FindOne(ctx, bson.M{
		"reference_code":            code,
		"is_archived":               bson.M{"$ne": true},
		"reference_code_expires_at": bson.M{"$gt": now},
	}).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	return &st, nil
}

func (r *CodeRepositoryImpl) SetCode(ctx context.Context, sessionID, code string, expiresAt time.Time) error {
	res, err := r.Collection.UpdateOne(ctx, bson.M{
		"session_id":  sessionID,
		"is_archived": bson.M{"$ne": true},
	}, bson.M{"$set": bson.M{
		"reference_code":            code,
		"reference_code_expires_at": expiresAt,
		"updated_at":                time.Now(),
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errCodeCollision
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *CodeRepositoryImpl) SetCodeExpiry(ctx context.Context, code string, newExpiry time.Time, onlyIfBelow *time.Time) error {
	filter := bson.M{
		"reference_code": code,
		"is_archived":    bson.M{"$ne": true},
	}
	if onlyIfBelow != nil {
		filter["reference_code_expires_at"] = bson.M{"$lt": *onlyIfBelow}
	}

	// Zero matches with a conditional filter means another caller
	// already applied the extension; that is success, not failure.
	_, err := r.Collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"reference_code_expires_at": newExpiry,
		"updated_at":                time.Now(),
	}})
	return err
}

func (r *CodeRepositoryImpl) ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.Collection.UpdateMany(ctx, bson.M{
		"reference_code":            bson.M{"$type": "string"},
		"reference_code_expires_at": bson.M{"$lt": now},
	}, bson.M{"$unset": bson.M{
		"reference_code":            "",
		"reference_code_expires_at": "",
	}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
