// Package eventbus connects watermill publishers and subscribers to NATS JetStream.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventBus is the watermill Publisher and Subscriber backed by JetStream.
type EventBus interface {
	message.Publisher
	message.Subscriber
	// EnsureStream creates or updates a stream covering the given subjects.
	EnsureStream(ctx context.Context, name string, subjects ...string) error
}

// Stream names and subject filters owned by this service.
const (
	CompetitionStream = "competition"
	ActivityStream    = "activity"
)

type natsEventBus struct {
	publisher  *wmnats.Publisher
	subscriber *wmnats.Subscriber
	conn       *nc.Conn
	js         jetstream.JetStream
	logger     *slog.Logger

	mu      sync.Mutex
	streams map[string]bool
}

// NewEventBus connects to NATS and returns an EventBus whose durable consumers
// are namespaced by appName.
func NewEventBus(ctx context.Context, natsURL string, logger *slog.Logger, appName string) (EventBus, error) {
	options := []nc.Option{
		nc.Name(appName),
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
		nc.ErrorHandler(func(_ *nc.Conn, s *nc.Subscription, err error) {
			if s != nil {
				logger.Error("Error in subscription",
					attr.String("subject", s.Subject),
					attr.String("queue", s.Queue),
					attr.Error(err),
				)
				return
			}
			logger.Error("Error in connection", attr.Error(err))
		}),
	}

	conn, err := nc.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &wmnats.NATSMarshaler{}

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:         natsURL,
			NatsOptions: options,
			Marshaler:   marshaler,
			JetStream: wmnats.JetStreamConfig{
				AutoProvision: false,
				TrackMsgId:    true,
			},
		},
		wmLogger,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create Watermill NATS publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(
		wmnats.SubscriberConfig{
			URL:              natsURL,
			QueueGroupPrefix: appName,
			SubscribersCount: 1,
			CloseTimeout:     30 * time.Second,
			AckWaitTimeout:   30 * time.Second,
			NatsOptions:      options,
			Unmarshaler:      marshaler,
			JetStream: wmnats.JetStreamConfig{
				AutoProvision: false,
				DurablePrefix: appName,
				SubscribeOptions: []nc.SubOpt{
					nc.DeliverAll(),
					nc.AckExplicit(),
				},
			},
		},
		wmLogger,
	)
	if err != nil {
		_ = publisher.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create Watermill NATS subscriber: %w", err)
	}

	bus := &natsEventBus{
		publisher:  publisher,
		subscriber: subscriber,
		conn:       conn,
		js:         js,
		logger:     logger,
		streams:    make(map[string]bool),
	}

	if err := bus.EnsureStream(ctx, CompetitionStream, "competition.>"); err != nil {
		_ = bus.Close()
		return nil, err
	}
	if err := bus.EnsureStream(ctx, ActivityStream, "activity.>"); err != nil {
		_ = bus.Close()
		return nil, err
	}

	return bus, nil
}

func (b *natsEventBus) EnsureStream(ctx context.Context, name string, subjects ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streams[name] {
		return nil
	}

	_, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     name,
		Subjects: subjects,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", name, err)
	}

	b.streams[name] = true
	b.logger.InfoContext(ctx, "Stream ready",
		attr.String("stream_name", name),
		attr.Any("subjects", subjects),
	)
	return nil
}

func (b *natsEventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
	}
	return b.publisher.Publish(topic, messages...)
}

func (b *natsEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *natsEventBus) Close() error {
	var errs []error
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	b.conn.Close()
	return errors.Join(errs...)
}
