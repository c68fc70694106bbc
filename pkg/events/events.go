package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/meower-media/replybot/pkg/metrics"
	"github.com/meower-media/replybot/pkg/platform"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrEmptyPacket        = errors.New("empty packet")
	ErrUnknownOp          = errors.New("unknown op code")
	ErrIgnoredOp          = errors.New("op code not handled")
	ErrSubscriptionClosed = errors.New("redis subscription closed")
)

// Decode parses one packet from the events channel.
func Decode(packet []byte) (platform.Event, error) {
	if len(packet) == 0 {
		return platform.Event{}, ErrEmptyPacket
	}
	op, body := packet[0], packet[1:]

	switch op {
	case OpCreatePost:
		var evData CreatePost
		if err := msgpack.Unmarshal(body, &evData); err != nil {
			return platform.Event{}, fmt.Errorf("create post: %w", err)
		}
		return platform.Event{Posted: evData.MessagePosted()}, nil

	case OpPostReactionAdd:
		var evData PostReactionAdd
		if err := msgpack.Unmarshal(body, &evData); err != nil {
			return platform.Event{}, fmt.Errorf("post reaction add: %w", err)
		}
		return platform.Event{Reaction: evData.ReactionAdded()}, nil
	}

	if op > opMax {
		return platform.Event{}, ErrUnknownOp
	}
	return platform.Event{}, ErrIgnoredOp
}

// Encode builds a packet the way the platform publishes them.
func Encode(op uint8, v interface{}) ([]byte, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte{op}, body...), nil
}

// Subscriber reads platform events off a Redis pub/sub channel.
type Subscriber struct {
	client  *redis.Client
	channel string
}

func NewSubscriber(client *redis.Client, channel string) *Subscriber {
	return &Subscriber{client: client, channel: channel}
}

func (s *Subscriber) Run(ctx context.Context, out chan<- platform.Event) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	log.Info().Str("channel", s.channel).Msg("subscribed to events")

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrSubscriptionClosed
			}

			ev, err := Decode([]byte(msg.Payload))
			if errors.Is(err, ErrIgnoredOp) {
				continue
			}
			if err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("failed decoding event")
				continue
			}
			metrics.EventsReceived.WithLabelValues("redis", ev.Kind()).Inc()

			select {
			case out <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
