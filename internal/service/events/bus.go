package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Bus publishes and subscribes session events on watermill.
type Bus struct {
	pub     message.Publisher
	sub     message.Subscriber
	closers []func() error
}

// NewInMemory returns a bus backed by watermill's Go channel pub/sub.
func NewInMemory(buffer int64, logger watermill.LoggerAdapter) *Bus {
	if buffer < 0 {
		buffer = 0
	}
	// Blocking until ack keeps per-topic publish order; Subscribe acks before
	// forwarding, so a slow reader never stalls the publisher on an ack.
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            buffer,
		BlockPublishUntilSubscriberAck: true,
	}, logger)
	return &Bus{pub: pubSub, sub: pubSub, closers: []func() error{pubSub.Close}}
}

// NewRedis returns a bus backed by Redis Streams so several instances of the
// service can share session events.
func NewRedis(ctx context.Context, addr string, logger watermill.LoggerAdapter) (*Bus, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}

	marshaler := rstream.DefaultMarshallerUnmarshaller{}
	pub, err := rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: marshaler,
	}, logger)
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "create redis stream publisher")
	}

	// No consumer group: every subscriber sees every event.
	sub, err := rstream.NewSubscriber(rstream.SubscriberConfig{
		Client:       client,
		Unmarshaller: marshaler,
	}, logger)
	if err != nil {
		_ = pub.Close()
		_ = client.Close()
		return nil, errors.Wrap(err, "create redis stream subscriber")
	}

	return &Bus{pub: pub, sub: sub, closers: []func() error{sub.Close, pub.Close, client.Close}}, nil
}

// Publish implements Publisher.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", string(ev.Type))

	if err := b.pub.Publish(Topic(ev.SessionID), msg); err != nil {
		return errors.Wrapf(err, "publish %s", ev.Type)
	}
	return nil
}

// Subscribe implements Subscriber. The returned channel closes when ctx is
// done or the bus shuts down.
func (b *Bus) Subscribe(ctx context.Context, sessionID string) (<-chan Event, error) {
	messages, err := b.sub.Subscribe(ctx, Topic(sessionID))
	if err != nil {
		return nil, errors.Wrapf(err, "subscribe to session %s", sessionID)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				log.Warn().Err(err).Str("component", "events").Str("session", sessionID).Msg("dropping malformed event")
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close releases the underlying pub/sub resources.
func (b *Bus) Close() error {
	var firstErr error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
