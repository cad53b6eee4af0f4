package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrStaleTransition means the caller's view of the state is
	// outdated: the precondition step no longer matches. Distinct from
	// the saveState merge guard, which protects raw form data.
	ErrStaleTransition = errors.New("stale transition: current step does not match expected step")
	// ErrSessionNotFound covers a transition against a session that does
	// not exist or is archived.
	ErrSessionNotFound = errors.New("session not found")
)

// Cache lets the engine refresh the state cache after a transition so a
// resume lookup does not see a stale step. Satisfied by the appstate
// cache, wired in main.
type Cache interface {
	Set(ctx context.Context, st *models.ApplicationState) error
}

// Engine is the generic state-machine driver shared by the SSB and ZB
// decisioning services. It validates a requested transition against the
// current step, applies it, appends the audit transition entry, and
// emits a status-changed event. Notification dispatch belongs to the
// calling decisioning service, which knows the business meaning.
type Engine interface {
	Transition(ctx context.Context, sessionID, fromExpected, to string, data map[string]any) (*models.ApplicationState, error)
	History(ctx context.Context, sessionID string) ([]models.StateTransition, error)
}

type EngineImpl struct {
	Collection *mongo.Collection
	Hub        *Hub
	Cache      Cache
	Logger     *zap.Logger
}

func NewEngine(mongodb *database.MongodbDB, hub *Hub, cache Cache, logger *zap.Logger) Engine {
	return &EngineImpl{
		Collection: mongodb.DB.Collection("application_states"),
		Hub:        hub,
		Cache:      cache,
		Logger:     logger,
	}
}

// Transition applies fromExpected -> to for the session. The step
// overwrite and the audit entry append ride on one conditional document
// update: the current_step filter is what turns "apply in order" into an
// enforceable invariant under concurrent callers, and a no-match against
// an existing session is a stale view, never an out-of-order apply.
func (e *EngineImpl) Transition(ctx context.Context, sessionID, fromExpected, to string, data map[string]any) (*models.ApplicationState, error) {
	if sessionID == "" || fromExpected == "" || to == "" {
		return nil, fmt.Errorf("session_id, expected step and target step are all required")
	}

	now := time.Now()

	// Advisory pre-read for the channel stamped onto the audit entry.
	// The real precondition check is the conditional update below.
	var current models.ApplicationState
	err := e.Collection.FindOne(ctx, bson.M{
		"session_id":  sessionID,
		"is_archived": bson.M{"$ne": true},
	}).Decode(&current)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	entry := models.StateTransition{
		FromStep:       fromExpected,
		ToStep:         to,
		Channel:        current.Channel,
		TransitionData: data,
		CreatedAt:      now,
	}

	filter := bson.M{
		"session_id":   sessionID,
		"current_step": fromExpected,
		"is_archived":  bson.M{"$ne": true},
	}
	update := bson.M{
		"$set":  bson.M{"current_step": to, "updated_at": now},
		"$push": bson.M{"transitions": entry},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.ApplicationState
	if err := e.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: session %s expected %q", ErrStaleTransition, sessionID, fromExpected)
		}
		return nil, err
	}

	e.Hub.Publish(StatusEvent{
		SessionID: sessionID,
		FromStep:  fromExpected,
		ToStep:    to,
		Channel:   updated.Channel,
		At:        now,
	})

	if cacheErr := e.Cache.Set(ctx, &updated); cacheErr != nil {
		e.Logger.Warn("cache refresh after transition failed", zap.String("session_id", sessionID), zap.Error(cacheErr))
	}

	return &updated, nil
}

func (e *EngineImpl) History(ctx context.Context, sessionID string) ([]models.StateTransition, error) {
	var st models.ApplicationState
	err := e.Collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return st.Transitions, nil
}
