package queue

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	runtimeerrors "github.com/drblury/cirrus/internal/runtime/errors"
	"github.com/drblury/cirrus/internal/runtime/jsoncodec"
	"github.com/drblury/cirrus/internal/runtime/logging"
	"github.com/drblury/cirrus/internal/runtime/transport"
)

// Client exposes the queue operations of the service.
type Client struct {
	pipeline *transport.Pipeline
	parser   Parser
	logger   logging.ServiceLogger
}

// NewClient wires a queue client onto an existing pipeline.
func NewClient(pipeline *transport.Pipeline, logger logging.ServiceLogger) (*Client, error) {
	if pipeline == nil {
		return nil, runtimeerrors.ErrConfigRequired
	}
	if logger == nil {
		return nil, runtimeerrors.ErrLoggerRequired
	}
	return &Client{
		pipeline: pipeline,
		parser:   NewParser(nil),
		logger:   logger.With(logging.LogFields{"component": "queue"}),
	}, nil
}

// PostMessage is the caller-facing shape for posting a message.
type PostMessage struct {
	TTL  int    `json:"ttl"`
	Body string `json:"body"`
}

// ListOptions tunes a message listing.
type ListOptions struct {
	// Limit caps the number of messages returned; zero uses the server default.
	Limit int
	// Marker resumes a listing from a server-issued position.
	Marker string
	// Echo includes the caller's own messages in the listing.
	Echo bool
}

// CreateQueue creates a queue. Creating an existing queue is a no-op on the
// server and not an error here.
func (c *Client) CreateQueue(ctx context.Context, name string) error {
	if name == "" {
		return runtimeerrors.ErrQueueNameRequired
	}

	req, err := c.pipeline.NewRequest(ctx, http.MethodPut, "queues/"+name, nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.pipeline.Do("queue.create", req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return transport.NewAPIError(resp)
	}

	c.logger.Debug("queue created", logging.LogFields{"queue": name})
	return nil
}

// DeleteQueue removes a queue and everything in it.
func (c *Client) DeleteQueue(ctx context.Context, name string) error {
	if name == "" {
		return runtimeerrors.ErrQueueNameRequired
	}

	req, err := c.pipeline.NewRequest(ctx, http.MethodDelete, "queues/"+name, nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.pipeline.Do("queue.delete", req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return transport.NewAPIError(resp)
	}
	return nil
}

// PostMessages enqueues messages and returns their bare IDs in post order.
func (c *Client) PostMessages(ctx context.Context, queueName string, messages ...PostMessage) ([]string, error) {
	if queueName == "" {
		return nil, runtimeerrors.ErrQueueNameRequired
	}
	if len(messages) == 0 {
		return nil, runtimeerrors.ErrMessageBodyRequired
	}

	body, err := jsoncodec.Marshal(messages)
	if err != nil {
		return nil, err
	}

	req, err := c.pipeline.NewRequest(ctx, http.MethodPost, "queues/"+queueName+"/messages", nil, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.pipeline.Do("queue.post_messages", req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, transport.NewAPIError(resp)
	}

	ids, partial, err := c.parser.parsePosted(resp)
	if err != nil {
		return nil, err
	}
	if partial {
		c.logger.Info("post accepted partially", logging.LogFields{
			"queue": queueName, "accepted": len(ids), "sent": len(messages),
		})
	}
	return ids, nil
}

// ListMessages fetches one page of messages.
func (c *Client) ListMessages(ctx context.Context, queueName string, opts ListOptions) (MessageStream, error) {
	if queueName == "" {
		return MessageStream{}, runtimeerrors.ErrQueueNameRequired
	}

	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Marker != "" {
		query.Set("marker", opts.Marker)
	}
	if opts.Echo {
		query.Set("echo", "true")
	}

	req, err := c.pipeline.NewRequest(ctx, http.MethodGet, "queues/"+queueName+"/messages", query, nil)
	if err != nil {
		return MessageStream{}, err
	}
	resp, err := c.pipeline.Do("queue.list_messages", req)
	if err != nil {
		return MessageStream{}, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return MessageStream{}, transport.NewAPIError(resp)
	}

	return c.parser.ParseMessages(resp)
}

// FollowPage fetches the page behind a stream's "next" link. The second
// return value is false when the stream has no next page.
func (c *Client) FollowPage(ctx context.Context, stream MessageStream) (MessageStream, bool, error) {
	next, ok := stream.NextPage()
	if !ok {
		return MessageStream{}, false, nil
	}

	req, err := c.pipeline.NewRequestFromHref(ctx, http.MethodGet, next.Href)
	if err != nil {
		return MessageStream{}, false, err
	}
	resp, err := c.pipeline.Do("queue.list_messages", req)
	if err != nil {
		return MessageStream{}, false, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return MessageStream{}, false, transport.NewAPIError(resp)
	}

	parsed, err := c.parser.ParseMessages(resp)
	if err != nil {
		return MessageStream{}, false, err
	}
	return parsed, true, nil
}

// DeleteMessage removes a single message by its bare ID.
func (c *Client) DeleteMessage(ctx context.Context, queueName, messageID string) error {
	if queueName == "" {
		return runtimeerrors.ErrQueueNameRequired
	}
	if messageID == "" {
		return runtimeerrors.ErrMessageIDRequired
	}

	req, err := c.pipeline.NewRequest(ctx, http.MethodDelete, "queues/"+queueName+"/messages/"+messageID, nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.pipeline.Do("queue.delete_message", req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return transport.NewAPIError(resp)
	}
	return nil
}
