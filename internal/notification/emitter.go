// internal/notification/emitter.go
// Emitter adapts the fan-out engine to the small per-event interfaces
// the event sources depend on. Fan-out failures are logged, never
// allowed to fail the originating operation: the follow or message
// already happened.

package notification

import (
	"context"

	"go.uber.org/zap"
)

// Emitter is the event-source facing side of the fan-out engine.
type Emitter struct {
	svc Service
	log *zap.SugaredLogger
}

// NewEmitter creates an Emitter over the service
func NewEmitter(svc Service, log *zap.Logger) *Emitter {
	return &Emitter{
		svc: svc,
		log: log.Sugar().Named("notification"),
	}
}

// NotifyFollow records a follow event for the followed user
func (e *Emitter) NotifyFollow(ctx context.Context, recipientID, actorID int64) {
	e.emit(ctx, TypeFollow, actorID, recipientID, Ref{})
}

// NotifyMessage records a message event for the other chat participant
func (e *Emitter) NotifyMessage(ctx context.Context, recipientID, actorID int64, sessionID string) {
	e.emit(ctx, TypeMessage, actorID, recipientID, SessionRef(sessionID))
}

// NotifyLike records a like event for the post author
func (e *Emitter) NotifyLike(ctx context.Context, recipientID, actorID, postID int64) {
	e.emit(ctx, TypeLike, actorID, recipientID, PostRef(postID))
}

// NotifyComment records a comment event for the post author
func (e *Emitter) NotifyComment(ctx context.Context, recipientID, actorID, postID int64) {
	e.emit(ctx, TypeComment, actorID, recipientID, PostRef(postID))
}

// NotifyMention records a mention event for the mentioned user
func (e *Emitter) NotifyMention(ctx context.Context, recipientID, actorID, postID int64) {
	e.emit(ctx, TypeMention, actorID, recipientID, PostRef(postID))
}

func (e *Emitter) emit(ctx context.Context, typ Type, actorID, recipientID int64, ref Ref) {
	if err := e.svc.Emit(ctx, typ, actorID, recipientID, ref); err != nil {
		e.log.Errorw("fan-out failed",
			"type", typ, "actor_id", actorID, "recipient_id", recipientID, "error", err)
	}
}
