package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	skafka "github.com/veilstar/wager-platform/internal/shared/kafka"
	"github.com/veilstar/wager-platform/pkg/contracts/events"
)

// KafkaPublisher emits arena lifecycle events keyed by session id so every
// match's stream stays ordered on one partition.
type KafkaPublisher struct {
	Writer *skafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *skafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) publish(ctx context.Context, sessionID int64, v any) error {
	b, _ := json.Marshal(v)
	return skafka.WriteJSON(ctx, p.Writer, "arena:"+strconv.FormatInt(sessionID, 10), b)
}

func (p *KafkaPublisher) PublishMatchStarted(ctx context.Context, e events.MatchStarted) error {
	e.Type = events.TypeMatchStarted
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, e.SessionID, e)
}

func (p *KafkaPublisher) PublishMoveSubmitted(ctx context.Context, e events.MoveSubmitted) error {
	e.Type = events.TypeMoveSubmitted
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, e.SessionID, e)
}

func (p *KafkaPublisher) PublishRoundCommitted(ctx context.Context, e events.RoundCommitted) error {
	e.Type = events.TypeRoundCommitted
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, e.SessionID, e)
}

func (p *KafkaPublisher) PublishRoundVerified(ctx context.Context, e events.RoundVerified) error {
	e.Type = events.TypeRoundVerified
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, e.SessionID, e)
}

func (p *KafkaPublisher) PublishOutcomeBound(ctx context.Context, e events.OutcomeBound) error {
	e.Type = events.TypeOutcomeBound
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, e.SessionID, e)
}

func (p *KafkaPublisher) PublishMatchEnded(ctx context.Context, e events.MatchEnded) error {
	e.Type = events.TypeMatchEnded
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, e.SessionID, e)
}
