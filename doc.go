// Package cirrus is a client library for a cloud service that pairs
// Swift-style object storage with a Marconi-style message queue. It wires the
// HTTP plumbing both halves share (request pipeline, retries with exponential
// backoff, OpenTelemetry tracing, Prometheus metrics, structured logging) and
// exposes the two service-specific data shapes on top of it:
//
//   - storage metadata travels as prefixed request headers
//     (x-account-meta-*, x-container-meta-*, x-object-meta-*), with a
//     removal convention (x-remove-*) for deleting entries during updates;
//   - queue listings arrive as paginated JSON whose per-message identifiers
//     are href-style paths, canonicalized to bare IDs during parsing.
//
// A minimal setup fills Config, calls NewClient, and uses the Storage and
// Queue sub-clients:
//
//	client, err := cirrus.NewClient(&cirrus.Config{
//		Endpoint:  "https://storage.example.com/v1/AUTH_acct",
//		AuthToken: token,
//	}, cirrus.NewSlogServiceLogger(slog.Default()))
//
// Services already built on Watermill can mount a queue as a regular
// publisher/subscriber pair via the pubsub package.
package cirrus
