// Package queue provides the message-queue half of the cirrus client: queue
// lifecycle, posting and listing messages, and the response parsing that turns
// the service's paginated JSON into domain objects.
package queue

import (
	"net/http"
	"strings"

	runtimeerrors "github.com/drblury/cirrus/internal/runtime/errors"
	"github.com/drblury/cirrus/internal/runtime/jsoncodec"
	"github.com/drblury/cirrus/internal/runtime/transport"
)

// Message is one queue message. The ID is the bare server-assigned
// identifier; the href the service actually returns is canonicalized during
// parsing. Messages are immutable once parsed.
type Message struct {
	ID   string `json:"id"`
	TTL  int    `json:"ttl"`
	Body string `json:"body"`
	Age  int    `json:"age"`
}

// Link is one pagination link, passed through from the service unchanged.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// MessageStream is an ordered collection of messages plus the pagination
// links of the listing it came from. The zero value is an empty stream.
type MessageStream struct {
	messages []Message
	links    []Link
}

// Messages returns the messages in listing order.
func (s MessageStream) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Links returns the stream's pagination links.
func (s MessageStream) Links() []Link {
	out := make([]Link, len(s.links))
	copy(out, s.links)
	return out
}

// Empty reports whether the stream holds no messages.
func (s MessageStream) Empty() bool { return len(s.messages) == 0 }

// NextPage returns the "next" pagination link, if the service supplied one.
func (s MessageStream) NextPage() (Link, bool) {
	for _, l := range s.links {
		if l.Rel == "next" {
			return l, true
		}
	}
	return Link{}, false
}

// Wire shapes. Field names are fixed by the service's documented API.
type rawMessage struct {
	Href string `json:"href"`
	TTL  int    `json:"ttl"`
	Body string `json:"body"`
	Age  int    `json:"age"`
}

type rawStream struct {
	Messages []rawMessage `json:"messages"`
	Links    []Link       `json:"links"`
}

type rawPosted struct {
	Resources []string `json:"resources"`
	Partial   bool     `json:"partial"`
}

// Parser turns queue-service responses into message streams. The decoder is
// injected so tests can substitute the codec.
type Parser struct {
	decoder jsoncodec.Decoder
}

// NewParser builds a parser; a nil decoder selects the default JSON codec.
func NewParser(decoder jsoncodec.Decoder) Parser {
	if decoder == nil {
		decoder = jsoncodec.Default()
	}
	return Parser{decoder: decoder}
}

// ParseMessages decodes a message-listing response. An empty listing arrives
// as 204 with no body, so that case short-circuits before any decoding. For
// everything else the body is decoded and each message's href is stripped
// down to its trailing path segment. Decode failures surface as a
// MalformedResponseError; no recovery is attempted here.
func (p Parser) ParseMessages(resp *transport.Response) (MessageStream, error) {
	if resp == nil {
		return MessageStream{}, runtimeerrors.ErrResponseRequired
	}
	if resp.StatusCode == http.StatusNoContent {
		return MessageStream{}, nil
	}

	var raw rawStream
	if err := p.decoder.Decode(resp.Body, &raw); err != nil {
		return MessageStream{}, runtimeerrors.MalformedResponseError{Err: err}
	}

	messages := make([]Message, 0, len(raw.Messages))
	for _, m := range raw.Messages {
		messages = append(messages, Message{
			ID:   trailingSegment(m.Href),
			TTL:  m.TTL,
			Body: m.Body,
			Age:  m.Age,
		})
	}

	return MessageStream{messages: messages, links: raw.Links}, nil
}

// parsePosted decodes a post-messages response into bare message IDs.
func (p Parser) parsePosted(resp *transport.Response) ([]string, bool, error) {
	var raw rawPosted
	if err := p.decoder.Decode(resp.Body, &raw); err != nil {
		return nil, false, runtimeerrors.MalformedResponseError{Err: err}
	}

	ids := make([]string, 0, len(raw.Resources))
	for _, href := range raw.Resources {
		ids = append(ids, trailingSegment(href))
	}
	return ids, raw.Partial, nil
}

// trailingSegment strips an href-style identifier down to the part after the
// last slash. With no slash present, LastIndexByte yields -1 and the whole
// string comes back unchanged, which is the intended fallback.
func trailingSegment(href string) string {
	return href[strings.LastIndexByte(href, '/')+1:]
}
