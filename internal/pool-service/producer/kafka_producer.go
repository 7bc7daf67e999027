package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	skafka "github.com/veilstar/wager-platform/internal/shared/kafka"
	"github.com/veilstar/wager-platform/pkg/contracts/events"
)

// KafkaPublisher emits pool lifecycle events keyed by pool id so every pool's
// stream stays ordered on one partition.
type KafkaPublisher struct {
	Writer *skafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *skafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) publish(ctx context.Context, key string, v any) error {
	b, _ := json.Marshal(v)
	return skafka.WriteJSON(ctx, p.Writer, key, b)
}

func poolKey(id int64) string {
	return "pool:" + strconv.FormatInt(id, 10)
}

func (p *KafkaPublisher) PublishPoolCreated(ctx context.Context, e events.PoolCreated) error {
	e.Type = events.TypePoolCreated
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, poolKey(e.PoolID), e)
}

func (p *KafkaPublisher) PublishBetCommitted(ctx context.Context, e events.BetCommitted) error {
	e.Type = events.TypeBetCommitted
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, poolKey(e.PoolID), e)
}

func (p *KafkaPublisher) PublishPoolLocked(ctx context.Context, e events.PoolLocked) error {
	e.Type = events.TypePoolLocked
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, poolKey(e.PoolID), e)
}

func (p *KafkaPublisher) PublishBetRevealed(ctx context.Context, e events.BetRevealed) error {
	e.Type = events.TypeBetRevealed
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, poolKey(e.PoolID), e)
}

func (p *KafkaPublisher) PublishPoolSettled(ctx context.Context, e events.PoolSettled) error {
	e.Type = events.TypePoolSettled
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, poolKey(e.PoolID), e)
}

func (p *KafkaPublisher) PublishPayoutClaimed(ctx context.Context, e events.PayoutClaimed) error {
	e.Type = events.TypePayoutClaimed
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, poolKey(e.PoolID), e)
}

func (p *KafkaPublisher) PublishPoolRefunded(ctx context.Context, e events.PoolRefunded) error {
	e.Type = events.TypePoolRefunded
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, poolKey(e.PoolID), e)
}

func (p *KafkaPublisher) PublishTreasurySwept(ctx context.Context, e events.TreasurySwept) error {
	e.Type = events.TypeTreasurySwept
	e.TsUnixMs = time.Now().UnixMilli()
	return p.publish(ctx, "treasury", e)
}
