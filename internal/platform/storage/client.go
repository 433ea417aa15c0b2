package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
)

const (
	defaultPublicHost   = "https://storage.googleapis.com"
	defaultUploadExpiry = 30 * time.Second
)

var (
	errNoClient           = errors.New("storage: client is required")
	errInvalidBucket      = errors.New("storage: bucket name is required")
	errInvalidObject      = errors.New("storage: object name is required")
	errContentTypeMissing = errors.New("storage: content type is required for uploads")
	errContentTypeDenied  = errors.New("storage: content type not allowed")
	errForeignURL         = errors.New("storage: url does not reference the configured bucket")
)

// Client wraps Cloud Storage object writes and deletes for a single bucket.
type Client struct {
	client *gcs.Client
	bucket string

	publicHost   string
	allowedTypes []string
	writeTimeout time.Duration
}

// ClientOption customises client behaviour.
type ClientOption func(*Client)

// WithPublicHost overrides the host used when composing public object URLs.
func WithPublicHost(host string) ClientOption {
	return func(c *Client) {
		host = strings.TrimRight(strings.TrimSpace(host), "/")
		if host != "" {
			c.publicHost = host
		}
	}
}

// WithAllowedContentTypes restricts the content types accepted for upload.
// Entries may be exact types or prefixes such as "image/*".
func WithAllowedContentTypes(types ...string) ClientOption {
	return func(c *Client) {
		c.allowedTypes = append([]string(nil), types...)
	}
}

// WithWriteTimeout bounds individual object writes.
func WithWriteTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// NewClient constructs a storage client bound to the given bucket.
func NewClient(client *gcs.Client, bucket string, opts ...ClientOption) (*Client, error) {
	if client == nil {
		return nil, errNoClient
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}

	c := &Client{
		client:       client,
		bucket:       bucket,
		publicHost:   defaultPublicHost,
		writeTimeout: defaultUploadExpiry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Upload writes the object under the given path and returns its public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	if c == nil || c.client == nil {
		return "", errNoClient
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return "", errInvalidObject
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return "", errContentTypeMissing
	}
	if len(c.allowedTypes) > 0 && !contentTypeAllowed(contentType, c.allowedTypes) {
		return "", errContentTypeDenied
	}

	writeCtx := ctx
	var cancel context.CancelFunc
	if c.writeTimeout > 0 {
		writeCtx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}

	w := c.client.Bucket(c.bucket).Object(object).NewWriter(writeCtx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: finalise object %s: %w", object, err)
	}

	return c.PublicURL(object), nil
}

// Delete removes the object at the given path. Deleting a missing object is not an error.
func (c *Client) Delete(ctx context.Context, object string) error {
	if c == nil || c.client == nil {
		return errNoClient
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return errInvalidObject
	}

	err := c.client.Bucket(c.bucket).Object(object).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: delete object %s: %w", object, err)
	}
	return nil
}

// DeleteByURL resolves a previously returned public URL back to its object path and deletes it.
func (c *Client) DeleteByURL(ctx context.Context, publicURL string) error {
	object, err := c.ObjectPath(publicURL)
	if err != nil {
		return err
	}
	return c.Delete(ctx, object)
}

// PublicURL composes the public URL for an object in the configured bucket.
func (c *Client) PublicURL(object string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicHost, c.bucket, object)
}

// ObjectPath extracts the object path from a public URL for this bucket.
func (c *Client) ObjectPath(publicURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(publicURL))
	if err != nil {
		return "", fmt.Errorf("storage: parse url: %w", err)
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	prefix := c.bucket + "/"
	if !strings.HasPrefix(path, prefix) {
		return "", errForeignURL
	}
	object := strings.TrimPrefix(path, prefix)
	if object == "" {
		return "", errInvalidObject
	}
	return object, nil
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			return true
		}
		if strings.HasSuffix(candidate, "/*") {
			prefix := strings.TrimSuffix(candidate, "*")
			if strings.HasPrefix(normalized, strings.TrimSuffix(prefix, "/")) {
				return true
			}
			continue
		}
		if normalized == candidate {
			return true
		}
	}
	return false
}
