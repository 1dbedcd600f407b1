// Package headers binds caller-supplied metadata onto HTTP request headers
// following the service's prefix conventions.
//
// The service returns header keys in arbitrary case on the way back, so every
// bound key is normalized to lower case to keep round-trips predictable. This
// is a protocol-compatibility workaround, not cosmetics.
package headers

import (
	"net/http"
	"strings"

	runtimeerrors "github.com/drblury/cirrus/internal/runtime/errors"
	"github.com/drblury/cirrus/internal/runtime/metadata"
)

// Metadata prefixes for the three storage scopes.
const (
	AccountMetadataPrefix   = "x-account-meta-"
	ContainerMetadataPrefix = "x-container-meta-"
	ObjectMetadataPrefix    = "x-object-meta-"
)

// removedValue is what a removal header carries. The server only looks at the
// synthesized x-remove-* key; the value is irrelevant.
const removedValue = "ignored"

// Mode selects what a Binder does with each metadata entry.
type Mode int

const (
	// ModeSet stores the entry's value under its prefixed, lower-cased key.
	ModeSet Mode = iota
	// ModeRemove rewrites the key to the x-remove-* form, instructing the
	// server to delete the metadata header during an update.
	ModeRemove
)

// Binder maps a metadata map onto request headers for one prefix family and
// mode. The zero value is not useful; use the constructors.
type Binder struct {
	prefix string
	mode   Mode
}

// NewBinder creates a binder for an arbitrary prefix and mode. The fixed
// service families are available through the named constructors below.
func NewBinder(prefix string, mode Mode) Binder {
	return Binder{prefix: strings.ToLower(prefix), mode: mode}
}

func AccountMetadata() Binder         { return NewBinder(AccountMetadataPrefix, ModeSet) }
func RemoveAccountMetadata() Binder   { return NewBinder(AccountMetadataPrefix, ModeRemove) }
func ContainerMetadata() Binder       { return NewBinder(ContainerMetadataPrefix, ModeSet) }
func RemoveContainerMetadata() Binder { return NewBinder(ContainerMetadataPrefix, ModeRemove) }
func ObjectMetadata() Binder          { return NewBinder(ObjectMetadataPrefix, ModeSet) }
func RemoveObjectMetadata() Binder    { return NewBinder(ObjectMetadataPrefix, ModeRemove) }

// Prefix returns the binder's metadata prefix.
func (b Binder) Prefix() string { return b.prefix }

// Mode returns the binder's mode.
func (b Binder) Mode() Mode { return b.mode }

// BindToRequest returns a copy of req whose header set is replaced by the
// headers built from input. The input request is only a template; neither it
// nor the metadata map is mutated. Replacing rather than merging keeps the
// operation idempotent when requests are rebuilt through the pipeline.
//
// input must be a string-to-string map (metadata.Metadata or a plain
// map[string]string); anything else fails before any header is built.
func (b Binder) BindToRequest(req *http.Request, input any) (*http.Request, error) {
	if req == nil {
		return nil, runtimeerrors.ErrRequestRequired
	}
	if input == nil {
		return nil, runtimeerrors.ErrMetadataRequired
	}
	md, ok := metadata.FromAny(input)
	if !ok {
		return nil, runtimeerrors.ErrMetadataNotStringMap
	}

	built := make(http.Header, len(md))
	for key, value := range md {
		name, val := b.bindEntry(key, value)
		built[name] = append(built[name], val)
	}

	bound := req.Clone(req.Context())
	bound.Header = built
	return bound, nil
}

// bindEntry maps a single metadata entry to its header name and value.
func (b Binder) bindEntry(key, value string) (string, string) {
	name := strings.ToLower(key)
	if !strings.HasPrefix(name, b.prefix) {
		name = b.prefix + name
	}

	if b.mode == ModeRemove {
		// x-container-meta-color becomes x-remove-container-meta-color.
		return "x-remove" + name[1:], removedValue
	}
	return name, value
}
