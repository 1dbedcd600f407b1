// Package storage provides the object-storage half of the cirrus client:
// reading and updating the custom metadata carried on accounts, containers,
// and objects. Metadata travels as prefixed request headers; each operation
// picks the binder variant for its scope.
package storage

import (
	"context"
	"net/http"

	runtimeerrors "github.com/drblury/cirrus/internal/runtime/errors"
	"github.com/drblury/cirrus/internal/runtime/headers"
	"github.com/drblury/cirrus/internal/runtime/logging"
	"github.com/drblury/cirrus/internal/runtime/metadata"
	"github.com/drblury/cirrus/internal/runtime/transport"
)

// Client exposes the storage metadata operations of the service. The
// configured endpoint is expected to address one account, e.g.
// "https://storage.example.com/v1/AUTH_acct".
type Client struct {
	pipeline *transport.Pipeline
	logger   logging.ServiceLogger
}

// NewClient wires a storage client onto an existing pipeline.
func NewClient(pipeline *transport.Pipeline, logger logging.ServiceLogger) (*Client, error) {
	if pipeline == nil {
		return nil, runtimeerrors.ErrConfigRequired
	}
	if logger == nil {
		return nil, runtimeerrors.ErrLoggerRequired
	}
	return &Client{
		pipeline: pipeline,
		logger:   logger.With(logging.LogFields{"component": "storage"}),
	}, nil
}

// UpdateAccountMetadata sets account-scoped metadata.
func (c *Client) UpdateAccountMetadata(ctx context.Context, md metadata.Metadata) error {
	return c.post(ctx, "storage.update_account_metadata", "", headers.AccountMetadata(), md)
}

// DeleteAccountMetadata removes the account metadata named by md's keys. The
// map values are irrelevant; only key presence matters.
func (c *Client) DeleteAccountMetadata(ctx context.Context, md metadata.Metadata) error {
	return c.post(ctx, "storage.delete_account_metadata", "", headers.RemoveAccountMetadata(), md)
}

// UpdateContainerMetadata sets container-scoped metadata.
func (c *Client) UpdateContainerMetadata(ctx context.Context, container string, md metadata.Metadata) error {
	if container == "" {
		return runtimeerrors.ErrContainerNameRequired
	}
	return c.post(ctx, "storage.update_container_metadata", container, headers.ContainerMetadata(), md)
}

// DeleteContainerMetadata removes the container metadata named by md's keys.
func (c *Client) DeleteContainerMetadata(ctx context.Context, container string, md metadata.Metadata) error {
	if container == "" {
		return runtimeerrors.ErrContainerNameRequired
	}
	return c.post(ctx, "storage.delete_container_metadata", container, headers.RemoveContainerMetadata(), md)
}

// UpdateObjectMetadata sets object-scoped metadata.
func (c *Client) UpdateObjectMetadata(ctx context.Context, container, object string, md metadata.Metadata) error {
	if err := objectPathValid(container, object); err != nil {
		return err
	}
	return c.post(ctx, "storage.update_object_metadata", container+"/"+object, headers.ObjectMetadata(), md)
}

// DeleteObjectMetadata removes the object metadata named by md's keys.
func (c *Client) DeleteObjectMetadata(ctx context.Context, container, object string, md metadata.Metadata) error {
	if err := objectPathValid(container, object); err != nil {
		return err
	}
	return c.post(ctx, "storage.delete_object_metadata", container+"/"+object, headers.RemoveObjectMetadata(), md)
}

// AccountMetadata reads back the account's metadata.
func (c *Client) AccountMetadata(ctx context.Context) (metadata.Metadata, error) {
	return c.head(ctx, "storage.account_metadata", "", headers.AccountMetadataPrefix)
}

// ContainerMetadata reads back a container's metadata.
func (c *Client) ContainerMetadata(ctx context.Context, container string) (metadata.Metadata, error) {
	if container == "" {
		return nil, runtimeerrors.ErrContainerNameRequired
	}
	return c.head(ctx, "storage.container_metadata", container, headers.ContainerMetadataPrefix)
}

// ObjectMetadata reads back an object's metadata.
func (c *Client) ObjectMetadata(ctx context.Context, container, object string) (metadata.Metadata, error) {
	if err := objectPathValid(container, object); err != nil {
		return nil, err
	}
	return c.head(ctx, "storage.object_metadata", container+"/"+object, headers.ObjectMetadataPrefix)
}

// post issues a metadata update through the binder. The binder replaces the
// request's header set; the pipeline re-applies auth and standard headers at
// send time without disturbing the bound metadata keys.
func (c *Client) post(ctx context.Context, op, path string, binder headers.Binder, md metadata.Metadata) error {
	if md == nil {
		return runtimeerrors.ErrMetadataRequired
	}

	req, err := c.pipeline.NewRequest(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return err
	}

	bound, err := binder.BindToRequest(req, md)
	if err != nil {
		return err
	}

	resp, err := c.pipeline.Do(op, bound)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return transport.NewAPIError(resp)
	}

	c.logger.Debug("metadata updated", logging.LogFields{
		"op": op, "entries": len(md), "mode": int(binder.Mode()),
	})
	return nil
}

// head fetches the current metadata for one scope, undoing the binder's
// prefix convention on the way back in.
func (c *Client) head(ctx context.Context, op, path, prefix string) (metadata.Metadata, error) {
	req, err := c.pipeline.NewRequest(ctx, http.MethodHead, path, nil, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.pipeline.Do(op, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, transport.NewAPIError(resp)
	}

	return metadata.FromHeaders(resp.Header, prefix), nil
}

func objectPathValid(container, object string) error {
	if container == "" {
		return runtimeerrors.ErrContainerNameRequired
	}
	if object == "" {
		return runtimeerrors.ErrObjectNameRequired
	}
	return nil
}
