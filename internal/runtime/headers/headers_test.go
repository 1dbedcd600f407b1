package headers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	runtimeerrors "github.com/drblury/cirrus/internal/runtime/errors"
	"github.com/drblury/cirrus/internal/runtime/metadata"
)

func newTemplateRequest(t *testing.T) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "http://storage.example/v1/acct", nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func TestBindLowerCasesAndPrefixes(t *testing.T) {
	req := newTemplateRequest(t)

	bound, err := ObjectMetadata().BindToRequest(req, metadata.Metadata{"My-Key": "v1"})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	// Bound keys are deliberately lower-case on the wire, so index the map
	// directly instead of going through the canonicalizing Get.
	got := bound.Header["x-object-meta-my-key"]
	if len(got) != 1 || got[0] != "v1" {
		t.Fatalf("expected x-object-meta-my-key to map to v1, got %#v", bound.Header)
	}
}

func TestBindKeepsAlreadyPrefixedKeys(t *testing.T) {
	req := newTemplateRequest(t)

	bound, err := ContainerMetadata().BindToRequest(req, metadata.Metadata{
		"X-Container-Meta-Color": "blue",
	})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	if got := bound.Header["x-container-meta-color"]; len(got) != 1 || got[0] != "blue" {
		t.Fatalf("expected prefix not to double up, got %#v", bound.Header)
	}
}

func TestBindReplacesHeadersAndIsIdempotent(t *testing.T) {
	req := newTemplateRequest(t)
	md := metadata.Metadata{"owner": "ops", "tier": "gold"}

	first, err := AccountMetadata().BindToRequest(req, md)
	if err != nil {
		t.Fatalf("first bind failed: %v", err)
	}
	second, err := AccountMetadata().BindToRequest(first, md)
	if err != nil {
		t.Fatalf("second bind failed: %v", err)
	}

	if len(second.Header) != len(md) {
		t.Fatalf("expected replacement not accumulation, got %d headers", len(second.Header))
	}
	for name, values := range second.Header {
		if len(values) != 1 {
			t.Fatalf("expected one value per header, got %#v for %s", values, name)
		}
		if first.Header[name][0] != values[0] {
			t.Fatalf("expected rebinding to be stable for %s", name)
		}
	}

	// The template's own headers never leak into the bound set.
	if _, ok := second.Header["Accept"]; ok {
		t.Fatal("expected template headers to be replaced")
	}
}

func TestBindDoesNotMutateInputs(t *testing.T) {
	req := newTemplateRequest(t)
	md := metadata.Metadata{"color": "red"}

	if _, err := ObjectMetadata().BindToRequest(req, md); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	if req.Header.Get("Accept") != "application/json" {
		t.Fatal("expected template request to stay untouched")
	}
	if len(req.Header) != 1 {
		t.Fatalf("expected template header set to keep one entry, got %d", len(req.Header))
	}
	if md["color"] != "red" || len(md) != 1 {
		t.Fatal("expected metadata map to stay untouched")
	}
}

func TestRemovalModeSynthesizesRemoveKeys(t *testing.T) {
	req := newTemplateRequest(t)

	bound, err := RemoveAccountMetadata().BindToRequest(req, metadata.Metadata{"My-Key": "whatever"})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	got := bound.Header["x-remove-account-meta-my-key"]
	if len(got) != 1 || got[0] != "ignored" {
		t.Fatalf("expected x-remove-account-meta-my-key to map to ignored, got %#v", bound.Header)
	}
}

func TestRemovalModeAllVariants(t *testing.T) {
	tests := []struct {
		name   string
		binder Binder
		want   string
	}{
		{"account", RemoveAccountMetadata(), "x-remove-account-meta-stale"},
		{"container", RemoveContainerMetadata(), "x-remove-container-meta-stale"},
		{"object", RemoveObjectMetadata(), "x-remove-object-meta-stale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bound, err := tt.binder.BindToRequest(newTemplateRequest(t), metadata.Metadata{"stale": "x"})
			if err != nil {
				t.Fatalf("bind failed: %v", err)
			}
			if got := bound.Header[tt.want]; len(got) != 1 || got[0] != "ignored" {
				t.Fatalf("expected %s to map to ignored, got %#v", tt.want, bound.Header)
			}
		})
	}
}

func TestBindRejectsInvalidInput(t *testing.T) {
	req := newTemplateRequest(t)

	if _, err := ObjectMetadata().BindToRequest(nil, metadata.Metadata{}); !errors.Is(err, runtimeerrors.ErrRequestRequired) {
		t.Fatalf("expected ErrRequestRequired, got %v", err)
	}
	if _, err := ObjectMetadata().BindToRequest(req, nil); !errors.Is(err, runtimeerrors.ErrMetadataRequired) {
		t.Fatalf("expected ErrMetadataRequired, got %v", err)
	}
	if _, err := ObjectMetadata().BindToRequest(req, map[string]int{"n": 1}); !errors.Is(err, runtimeerrors.ErrMetadataNotStringMap) {
		t.Fatalf("expected ErrMetadataNotStringMap, got %v", err)
	}
	if _, err := ObjectMetadata().BindToRequest(req, "nope"); !errors.Is(err, runtimeerrors.ErrMetadataNotStringMap) {
		t.Fatalf("expected ErrMetadataNotStringMap for non-map input, got %v", err)
	}
}

func TestPlainStringMapInput(t *testing.T) {
	req := newTemplateRequest(t)

	bound, err := ContainerMetadata().BindToRequest(req, map[string]string{"Shape": "round"})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if got := bound.Header["x-container-meta-shape"]; len(got) != 1 || got[0] != "round" {
		t.Fatalf("expected plain map input to bind, got %#v", bound.Header)
	}
}

func TestBinderAccessors(t *testing.T) {
	b := NewBinder("X-Custom-Meta-", ModeRemove)
	if b.Prefix() != "x-custom-meta-" {
		t.Fatalf("expected prefix to normalize to lower case, got %q", b.Prefix())
	}
	if b.Mode() != ModeRemove {
		t.Fatal("expected removal mode to be preserved")
	}
}
