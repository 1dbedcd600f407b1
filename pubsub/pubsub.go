// Package pubsub exposes a cirrus queue as a Watermill publisher/subscriber
// pair, so services already built on Watermill can use the queue service as a
// message backend without touching the HTTP client directly.
package pubsub

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	runtimeerrors "github.com/drblury/cirrus/internal/runtime/errors"
	"github.com/drblury/cirrus/internal/runtime/logging"
	"github.com/drblury/cirrus/queue"
)

const (
	// DefaultPollInterval is how long the subscriber sleeps between listings.
	DefaultPollInterval = time.Second
	// DefaultMessageTTL is applied to published messages, in seconds.
	DefaultMessageTTL = 300
	// DefaultListLimit caps each poll's page size.
	DefaultListLimit = 10
)

// Metadata keys set on delivered Watermill messages.
const (
	MetadataKeyAge = "cirrus_age"
	MetadataKeyTTL = "cirrus_ttl"
)

// Config tunes the binding. Zero values fall back to the defaults above.
type Config struct {
	PollInterval time.Duration
	MessageTTL   int
	ListLimit    int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MessageTTL <= 0 {
		c.MessageTTL = DefaultMessageTTL
	}
	if c.ListLimit <= 0 {
		c.ListLimit = DefaultListLimit
	}
	return c
}

// PubSub implements message.Publisher and message.Subscriber on top of a
// queue client. Topics map to queue names. Acked messages are deleted from
// the queue; nacked messages are left to expire or be re-listed.
type PubSub struct {
	client *queue.Client
	logger logging.ServiceLogger
	cfg    Config

	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPubSub wires the binding onto an existing queue client.
func NewPubSub(client *queue.Client, logger logging.ServiceLogger, cfg Config) (*PubSub, error) {
	if client == nil {
		return nil, runtimeerrors.ErrConfigRequired
	}
	if logger == nil {
		return nil, runtimeerrors.ErrLoggerRequired
	}
	return &PubSub{
		client:  client,
		logger:  logger.With(logging.LogFields{"component": "pubsub"}),
		cfg:     cfg.withDefaults(),
		closing: make(chan struct{}),
	}, nil
}

// Publish posts the messages' payloads to the topic's queue.
func (ps *PubSub) Publish(topic string, messages ...*message.Message) error {
	posts := make([]queue.PostMessage, 0, len(messages))
	for _, msg := range messages {
		posts = append(posts, queue.PostMessage{
			TTL:  ps.cfg.MessageTTL,
			Body: string(msg.Payload),
		})
	}

	_, err := ps.client.PostMessages(context.Background(), topic, posts...)
	return err
}

// Subscribe polls the topic's queue and delivers messages until ctx is done
// or the binding is closed.
func (ps *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if topic == "" {
		return nil, runtimeerrors.ErrQueueNameRequired
	}

	out := make(chan *message.Message)
	ps.wg.Add(1)
	go func() {
		defer ps.wg.Done()
		defer close(out)
		ps.pollLoop(ctx, topic, out)
	}()
	return out, nil
}

func (ps *PubSub) pollLoop(ctx context.Context, topic string, out chan<- *message.Message) {
	ticker := time.NewTicker(ps.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if !ps.pollOnce(ctx, topic, out) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ps.closing:
			return
		case <-ticker.C:
		}
	}
}

// pollOnce walks all pages of one listing. It returns false when the
// subscriber should stop.
func (ps *PubSub) pollOnce(ctx context.Context, topic string, out chan<- *message.Message) bool {
	stream, err := ps.client.ListMessages(ctx, topic, queue.ListOptions{Limit: ps.cfg.ListLimit, Echo: true})
	if err != nil {
		ps.logger.Error("listing failed", err, logging.LogFields{"queue": topic})
		return ctx.Err() == nil
	}

	for {
		if !ps.deliverAll(ctx, topic, stream, out) {
			return false
		}

		next, ok, err := ps.client.FollowPage(ctx, stream)
		if err != nil {
			ps.logger.Error("pagination failed", err, logging.LogFields{"queue": topic})
			return ctx.Err() == nil
		}
		if !ok || next.Empty() {
			return true
		}
		stream = next
	}
}

func (ps *PubSub) deliverAll(ctx context.Context, topic string, stream queue.MessageStream, out chan<- *message.Message) bool {
	for _, m := range stream.Messages() {
		if !ps.deliver(ctx, topic, m, out) {
			return false
		}
	}
	return true
}

// deliver hands one message to the consumer and settles it: ack deletes the
// message, nack leaves it for redelivery.
func (ps *PubSub) deliver(ctx context.Context, topic string, m queue.Message, out chan<- *message.Message) bool {
	msg := message.NewMessage(m.ID, []byte(m.Body))
	msg.Metadata.Set(MetadataKeyAge, strconv.Itoa(m.Age))
	msg.Metadata.Set(MetadataKeyTTL, strconv.Itoa(m.TTL))
	msg.SetContext(ctx)

	select {
	case out <- msg:
	case <-ctx.Done():
		return false
	case <-ps.closing:
		return false
	}

	select {
	case <-msg.Acked():
		if err := ps.client.DeleteMessage(ctx, topic, m.ID); err != nil {
			ps.logger.Error("ack delete failed", err, logging.LogFields{"queue": topic, "message": m.ID})
		}
	case <-msg.Nacked():
		ps.logger.Debug("message nacked", logging.LogFields{"queue": topic, "message": m.ID})
	case <-ctx.Done():
		return false
	case <-ps.closing:
		return false
	}
	return true
}

// Close stops all subscribers. Safe to call multiple times.
func (ps *PubSub) Close() error {
	ps.closeOnce.Do(func() { close(ps.closing) })
	ps.wg.Wait()
	return nil
}
