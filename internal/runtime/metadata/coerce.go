package metadata

import (
	"net/http"
	"strings"
)

// FromAny coerces a caller-supplied value into Metadata. It accepts Metadata
// itself and plain string-to-string maps. The boolean reports whether the
// value was coercible; callers decide how to surface the failure.
func FromAny(input any) (Metadata, bool) {
	switch v := input.(type) {
	case Metadata:
		return v, true
	case map[string]string:
		return Metadata(v), true
	default:
		return nil, false
	}
}

// FromHeaders extracts the metadata entries carried under prefix from a
// response header set. The service is known to return header keys in
// inconsistent case, so keys are lower-cased before the prefix is stripped.
func FromHeaders(h http.Header, prefix string) Metadata {
	md := Metadata{}
	for key, values := range h {
		lower := strings.ToLower(key)
		if !strings.HasPrefix(lower, prefix) || len(values) == 0 {
			continue
		}
		md[strings.TrimPrefix(lower, prefix)] = values[0]
	}
	return md
}

// ToHeaders converts metadata into a fresh header set without applying any
// prefix convention. Binding with prefixes lives in the headers package.
func ToHeaders(md Metadata) http.Header {
	h := make(http.Header, len(md))
	for k, v := range md {
		h[strings.ToLower(k)] = []string{v}
	}
	return h
}
