// Package events carries rating changes from the ledger to in-process
// listeners once they are committed.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"rallyrank/internal/logging"
	"rallyrank/internal/util"
)

// TopicGames receives one GameEvent per rating operation.
const TopicGames = "rallyrank.games"

type Kind string

const (
	KindApplied   Kind = "applied"
	KindReapplied Kind = "reapplied"
	KindReversed  Kind = "reversed"
)

// GameEvent describes the rating change a game operation made. For
// KindReversed the changes are the amounts subtracted, for KindReapplied
// they are the new deltas.
type GameEvent struct {
	Kind          Kind            `json:"kind"`
	GameID        util.UUIDAsBlob `json:"game_id"`
	Player1ID     util.UUIDAsBlob `json:"player1_id"`
	Player2ID     util.UUIDAsBlob `json:"player2_id"`
	Player1Change int             `json:"player1_change"`
	Player2Change int             `json:"player2_change"`
	At            time.Time       `json:"at"`
}

// Bus is an in-memory pub/sub, publishing never blocks on slow listeners.
type Bus struct {
	pubsub *gochannel.GoChannel
}

func NewBus(logger watermill.LoggerAdapter) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger),
	}
}

func (b *Bus) Publish(evs ...GameEvent) error {
	msgs := make([]*message.Message, 0, len(evs))
	for _, v := range evs {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("unable to encode %s event: %w", v.Kind, err)
		}

		msgs = append(msgs, message.NewMessage(watermill.NewUUID(), payload))
	}

	return b.pubsub.Publish(TopicGames, msgs...)
}

// Subscribe returns a channel of decoded events that is closed when ctx is
// done or the bus is closed. Messages are acked once decoded.
func (b *Bus) Subscribe(ctx context.Context) (<-chan GameEvent, error) {
	msgs, err := b.pubsub.Subscribe(ctx, TopicGames)
	if err != nil {
		return nil, err
	}

	out := make(chan GameEvent)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev GameEvent
			err := json.Unmarshal(msg.Payload, &ev)
			msg.Ack()
			if err != nil {
				logging.Warn().Err(err).Str("message", msg.UUID).Msg("dropping undecodable game event")
				continue
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}
