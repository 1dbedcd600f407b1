package cirrus

import (
	configpkg "github.com/drblury/cirrus/internal/runtime/config"
	errspkg "github.com/drblury/cirrus/internal/runtime/errors"
	headerspkg "github.com/drblury/cirrus/internal/runtime/headers"
	idspkg "github.com/drblury/cirrus/internal/runtime/ids"
	jsoncodec "github.com/drblury/cirrus/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/cirrus/internal/runtime/logging"
	metadatapkg "github.com/drblury/cirrus/internal/runtime/metadata"
	transportpkg "github.com/drblury/cirrus/internal/runtime/transport"
	"github.com/drblury/cirrus/queue"
	"github.com/drblury/cirrus/storage"
)

type (
	Config = configpkg.Config

	Metadata = metadatapkg.Metadata

	// Header binding
	Binder     = headerspkg.Binder
	BinderMode = headerspkg.Mode

	// Request pipeline
	Pipeline = transportpkg.Pipeline
	Response = transportpkg.Response
	Metrics  = transportpkg.Metrics
	APIError = transportpkg.APIError

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	ConfigValidationError  = errspkg.ConfigValidationError
	MalformedResponseError = errspkg.MalformedResponseError

	// Queue domain types
	Message       = queue.Message
	MessageStream = queue.MessageStream
	Link          = queue.Link
	PostMessage   = queue.PostMessage
	ListOptions   = queue.ListOptions
)

var (
	ValidateConfig = configpkg.ValidateConfig

	NewPipeline = transportpkg.NewPipeline
	NewMetrics  = transportpkg.NewMetrics

	// Binder constructors - one per prefix family and mode.
	NewBinder               = headerspkg.NewBinder
	AccountMetadataBinder   = headerspkg.AccountMetadata
	RemoveAccountMetadata   = headerspkg.RemoveAccountMetadata
	ContainerMetadataBinder = headerspkg.ContainerMetadata
	RemoveContainerMetadata = headerspkg.RemoveContainerMetadata
	ObjectMetadataBinder    = headerspkg.ObjectMetadata
	RemoveObjectMetadata    = headerspkg.RemoveObjectMetadata

	NewParser = queue.NewParser

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NewWatermillAdapter       = loggingpkg.NewWatermillAdapter
	NopLogger                 = loggingpkg.NopLogger

	NewMetadata         = metadatapkg.New
	MetadataFromHeaders = metadatapkg.FromHeaders

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	// NewTransactionID generates the ULID attached to requests as X-Trans-Id.
	NewTransactionID = idspkg.NewTransactionID

	ErrRequestRequired       = errspkg.ErrRequestRequired
	ErrResponseRequired      = errspkg.ErrResponseRequired
	ErrMetadataRequired      = errspkg.ErrMetadataRequired
	ErrMetadataNotStringMap  = errspkg.ErrMetadataNotStringMap
	ErrEndpointRequired      = errspkg.ErrEndpointRequired
	ErrQueueNameRequired     = errspkg.ErrQueueNameRequired
	ErrContainerNameRequired = errspkg.ErrContainerNameRequired
	ErrObjectNameRequired    = errspkg.ErrObjectNameRequired
	ErrConfigRequired        = errspkg.ErrConfigRequired
	ErrLoggerRequired        = errspkg.ErrLoggerRequired
	ErrMessageBodyRequired   = errspkg.ErrMessageBodyRequired
	ErrMessageIDRequired     = errspkg.ErrMessageIDRequired
)

// Metadata header prefixes for the three storage scopes.
const (
	AccountMetadataPrefix   = headerspkg.AccountMetadataPrefix
	ContainerMetadataPrefix = headerspkg.ContainerMetadataPrefix
	ObjectMetadataPrefix    = headerspkg.ObjectMetadataPrefix
)

// Binder modes.
const (
	ModeSet    = headerspkg.ModeSet
	ModeRemove = headerspkg.ModeRemove
)

// Client bundles the two halves of the SDK over one shared pipeline.
type Client struct {
	Storage *storage.Client
	Queue   *queue.Client

	pipeline *transportpkg.Pipeline
}

// NewClient validates cfg and wires the storage and queue sub-clients.
// Metrics collectors are registered on the default Prometheus registerer when
// cfg.MetricsEnabled is set.
func NewClient(cfg *Config, logger ServiceLogger) (*Client, error) {
	pipeline, err := transportpkg.NewPipeline(cfg, logger, transportpkg.NewMetrics(nil))
	if err != nil {
		return nil, err
	}

	storageClient, err := storage.NewClient(pipeline, logger)
	if err != nil {
		return nil, err
	}
	queueClient, err := queue.NewClient(pipeline, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		Storage:  storageClient,
		Queue:    queueClient,
		pipeline: pipeline,
	}, nil
}

// Pipeline exposes the underlying request pipeline for callers that need to
// issue raw requests alongside the typed operations.
func (c *Client) Pipeline() *Pipeline { return c.pipeline }
