package queue

import (
	"errors"
	"net/http"
	"testing"

	runtimeerrors "github.com/drblury/cirrus/internal/runtime/errors"
	"github.com/drblury/cirrus/internal/runtime/jsoncodec"
	"github.com/drblury/cirrus/internal/runtime/transport"
)

const listingBody = `{
	"messages": [
		{"href": "/v1/queues/q1/messages/abc123", "ttl": 300, "body": "first", "age": 12},
		{"href": "/v1/queues/q1/messages/def456", "ttl": 60, "body": "second", "age": 3}
	],
	"links": [
		{"rel": "next", "href": "/v1/queues/q1/messages?marker=def456"}
	]
}`

func TestParseMessagesCanonicalizesIDs(t *testing.T) {
	stream, err := NewParser(nil).ParseMessages(&transport.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(listingBody),
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	messages := stream.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected two messages, got %d", len(messages))
	}

	first := messages[0]
	if first.ID != "abc123" {
		t.Fatalf("expected href to strip down to abc123, got %q", first.ID)
	}
	if first.TTL != 300 || first.Body != "first" || first.Age != 12 {
		t.Fatalf("expected ttl/body/age to pass through, got %#v", first)
	}
	if messages[1].ID != "def456" {
		t.Fatalf("expected second id def456, got %q", messages[1].ID)
	}

	links := stream.Links()
	if len(links) != 1 || links[0].Rel != "next" {
		t.Fatalf("expected pagination links to pass through, got %#v", links)
	}
}

func TestParseMessagesNoContentShortCircuits(t *testing.T) {
	// A 204 carries no body; whatever is in the buffer must be ignored.
	stream, err := NewParser(nil).ParseMessages(&transport.Response{
		StatusCode: http.StatusNoContent,
		Body:       []byte("not json at all"),
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !stream.Empty() {
		t.Fatal("expected empty stream")
	}
	if len(stream.Links()) != 0 {
		t.Fatal("expected no links")
	}
	if _, ok := stream.NextPage(); ok {
		t.Fatal("expected no next page")
	}
}

func TestParseMessagesIDWithoutSeparator(t *testing.T) {
	stream, err := NewParser(nil).ParseMessages(&transport.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"messages":[{"href":"abc123","ttl":1,"body":"b","age":0}]}`),
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := stream.Messages()[0].ID; got != "abc123" {
		t.Fatalf("expected separator-free id to pass through unchanged, got %q", got)
	}
}

func TestParseMessagesMalformedBody(t *testing.T) {
	_, err := NewParser(nil).ParseMessages(&transport.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"messages": [`),
	})

	var malformed runtimeerrors.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestParseMessagesNilResponse(t *testing.T) {
	_, err := NewParser(nil).ParseMessages(nil)
	if !errors.Is(err, runtimeerrors.ErrResponseRequired) {
		t.Fatalf("expected ErrResponseRequired, got %v", err)
	}
}

func TestParseMessagesInjectedDecoder(t *testing.T) {
	called := false
	decoder := jsoncodec.DecoderFunc(func(data []byte, v any) error {
		called = true
		return jsoncodec.Unmarshal(data, v)
	})

	_, err := NewParser(decoder).ParseMessages(&transport.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"messages":[]}`),
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !called {
		t.Fatal("expected injected decoder to be used")
	}
}

func TestMessageStreamAccessorsCopy(t *testing.T) {
	stream, err := NewParser(nil).ParseMessages(&transport.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(listingBody),
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	stream.Messages()[0].ID = "mutated"
	if stream.Messages()[0].ID != "abc123" {
		t.Fatal("expected stream contents to be immutable through accessors")
	}

	stream.Links()[0].Rel = "mutated"
	if stream.Links()[0].Rel != "next" {
		t.Fatal("expected link set to be immutable through accessors")
	}
}

func TestTrailingSegment(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/v1/queues/q1/messages/abc123", "abc123"},
		{"abc123", "abc123"},
		{"", ""},
		{"/trailing/", ""},
	}
	for _, tt := range tests {
		if got := trailingSegment(tt.href); got != tt.want {
			t.Errorf("trailingSegment(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}
