// Package transport implements the HTTP request pipeline shared by the
// storage and queue clients: request construction, standard headers, retry
// with exponential backoff, tracing, metrics, and structured logging.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/drblury/cirrus/internal/runtime/config"
	runtimeerrors "github.com/drblury/cirrus/internal/runtime/errors"
	"github.com/drblury/cirrus/internal/runtime/ids"
	"github.com/drblury/cirrus/internal/runtime/logging"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxRetries      = 3
	defaultInitialInterval = 250 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
	defaultUserAgent       = "cirrus-client/1"

	tracerName = "github.com/drblury/cirrus"
)

// Response is the decoded-agnostic result of one exchange: status code, the
// response headers, and the raw body. Parsers consume this shape.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	TransID    string
}

// APIError reports a non-success status code from the service.
type APIError struct {
	StatusCode int
	Body       string
	TransID    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cirrus: service returned %d (trans-id %s): %s", e.StatusCode, e.TransID, e.Body)
}

// NewAPIError builds an APIError from a pipeline response.
func NewAPIError(resp *Response) *APIError {
	body := string(resp.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return &APIError{StatusCode: resp.StatusCode, Body: body, TransID: resp.TransID}
}

// Pipeline issues requests against the configured endpoint. It is safe for
// concurrent use.
type Pipeline struct {
	httpClient *http.Client
	endpoint   *url.URL
	cfg        *configpkg.Config
	logger     logging.ServiceLogger
	metrics    *Metrics
	tracer     trace.Tracer
}

// NewPipeline validates cfg and builds the pipeline. metrics may be nil to
// disable instrumentation regardless of cfg.MetricsEnabled.
func NewPipeline(cfg *configpkg.Config, logger logging.ServiceLogger, metrics *Metrics) (*Pipeline, error) {
	if cfg == nil {
		return nil, runtimeerrors.ErrConfigRequired
	}
	if logger == nil {
		return nil, runtimeerrors.ErrLoggerRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, runtimeerrors.NewConfigValidationError(err)
	}

	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, runtimeerrors.NewConfigValidationError(err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	if cfg.MetricsEnabled && metrics != nil {
		if err := metrics.Register(); err != nil {
			return nil, err
		}
	} else {
		metrics = nil
	}

	return &Pipeline{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// Endpoint returns the normalized base URL.
func (p *Pipeline) Endpoint() *url.URL { return p.endpoint }

// NewRequest builds a request for path relative to the endpoint. body may be
// nil. Standard headers (auth, transaction ID, user agent) are applied per
// attempt in Do so metadata binders can replace the header set in between.
func (p *Pipeline) NewRequest(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Request, error) {
	target := *p.endpoint
	if path != "" {
		target.Path = strings.TrimRight(target.Path, "/") + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// NewRequestFromHref builds a request for a server-issued href, e.g. a
// pagination link. The href is resolved against the endpoint, so both
// absolute and path-only references work.
func (p *Pipeline) NewRequestFromHref(ctx context.Context, method, href string) (*http.Request, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	target := p.endpoint.ResolveReference(ref)
	return http.NewRequestWithContext(ctx, method, target.String(), nil)
}

// Do executes the request with retries. op names the client operation for
// metrics labels and span names, e.g. "queue.list_messages". The returned
// Response is complete (body fully read) even for non-2xx status codes;
// mapping those to errors is the caller's decision.
func (p *Pipeline) Do(op string, req *http.Request) (*Response, error) {
	transID := ids.NewTransactionID()

	ctx, span := p.tracer.Start(req.Context(), op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
			attribute.String("cirrus.trans_id", transID),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	var resp *Response
	attempt := 0

	operation := func() error {
		attempt++
		r, err := p.attempt(req, transID)
		if err != nil {
			p.observe(op, 0, err)
			p.logger.Debug("request attempt failed", logging.LogFields{
				"op": op, "attempt": attempt, "error": err.Error(),
			})
			// Connection-level failures are worth retrying.
			return err
		}

		p.observe(op, r.StatusCode, nil)
		if retryableStatus(r.StatusCode) {
			p.logger.Debug("retrying on server error", logging.LogFields{
				"op": op, "attempt": attempt, "status": r.StatusCode,
			})
			resp = r
			return fmt.Errorf("cirrus: server returned %d", r.StatusCode)
		}

		resp = r
		return nil
	}

	err := backoff.Retry(operation, p.newBackOff(ctx))
	if err != nil && resp == nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	p.logger.Debug("request completed", logging.LogFields{
		"op": op, "status": resp.StatusCode, "attempts": attempt, "trans_id": transID,
	})
	return resp, nil
}

// attempt sends one clone of the request and drains the body.
func (p *Pipeline) attempt(req *http.Request, transID string) (*Response, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}

	clone.Header.Set("Accept", "application/json")
	clone.Header.Set("X-Trans-Id", transID)
	if p.cfg.AuthToken != "" {
		clone.Header.Set("X-Auth-Token", p.cfg.AuthToken)
	}
	ua := p.cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	clone.Header.Set("User-Agent", ua)

	start := time.Now()
	httpResp, err := p.httpClient.Do(clone)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.ObserveDuration(req.Method, time.Since(start))
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		TransID:    transID,
	}, nil
}

func (p *Pipeline) observe(op string, status int, err error) {
	if p.metrics == nil {
		return
	}
	p.metrics.ObserveRequest(op, status, err)
}

func (p *Pipeline) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultInitialInterval
	if p.cfg.RetryInitialInterval > 0 {
		b.InitialInterval = p.cfg.RetryInitialInterval
	}
	b.MaxInterval = defaultMaxInterval
	if p.cfg.RetryMaxInterval > 0 {
		b.MaxInterval = p.cfg.RetryMaxInterval
	}

	retries := defaultMaxRetries
	if p.cfg.RetryMaxRetries > 0 {
		retries = p.cfg.RetryMaxRetries
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// retryableStatus reports whether a status code indicates a transient server
// condition. 501 is excluded: repeating an unimplemented call cannot help.
func retryableStatus(status int) bool {
	return status >= http.StatusInternalServerError && status != http.StatusNotImplemented
}
