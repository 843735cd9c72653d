// Package blobstore is a minimal HTTP client for the object-store endpoints
// used by this module, implementing the storage.Store contract.
package blobstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shpitdev/schema-testgen/pkg/storage"
)

// Client talks to an object-store gateway exposing
// GET/PUT/HEAD/DELETE {container}/{folder}/{name}.
type Client struct {
	baseURL   *url.URL
	container string
	folder    string
	token     string
	http      *http.Client
}

var _ storage.Store = (*Client)(nil)

// NewClient constructs a client for the given object-store base URL and
// container. folder is an optional prefix inside the container. defaultCAPath
// is optional and, when provided, is used as the trust store for TLS.
func NewClient(baseURL, container, folder, token, defaultCAPath string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	container = strings.TrimSpace(container)
	if container == "" {
		return nil, fmt.Errorf("object store container is required")
	}

	hc, err := newHTTPClient(defaultCAPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   base,
		container: container,
		folder:    strings.Trim(strings.TrimSpace(folder), "/"),
		token:     strings.TrimSpace(token),
		http:      hc,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("object store base URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse object store base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("object store base URL must include a host (got %q)", raw)
	}
	// Ensure the base path ends with a slash so ResolveReference treats it as a directory.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func newHTTPClient(defaultCAPath string) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if strings.TrimSpace(defaultCAPath) != "" {
		b, err := os.ReadFile(strings.TrimSpace(defaultCAPath))
		if err != nil {
			return nil, fmt.Errorf("read CA bundle file: %w", err)
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(b); !ok {
			return nil, fmt.Errorf("parse CA bundle PEM: no certs found")
		}
		tr.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

func (c *Client) objectURL(name string) (*url.URL, error) {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return nil, fmt.Errorf("object name is required")
	}
	segments := []string{c.container}
	if c.folder != "" {
		segments = append(segments, strings.Split(c.folder, "/")...)
	}
	segments = append(segments, strings.Split(name, "/")...)
	for i, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return nil, fmt.Errorf("invalid object name %q", name)
		}
		segments[i] = url.PathEscape(seg)
	}
	rel := &url.URL{Path: strings.Join(segments, "/")}
	return c.baseURL.ResolveReference(rel), nil
}

func (c *Client) do(ctx context.Context, op, method, name string, body []byte, contentType string) (int, []byte, error) {
	u, err := c.objectURL(name)
	if err != nil {
		return 0, nil, err
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return 0, nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if resp.StatusCode/100 != 2 {
		if resp.StatusCode == http.StatusNotFound {
			return resp.StatusCode, nil, fmt.Errorf("%s %s: %w", op, name, storage.ErrNotFound)
		}
		return resp.StatusCode, nil, newHTTPError(op, resp, rb)
	}
	return resp.StatusCode, rb, nil
}

// GetBytes downloads one object.
func (c *Client) GetBytes(ctx context.Context, name string) ([]byte, error) {
	_, b, err := c.do(ctx, "getBlob", http.MethodGet, name, nil, "")
	return b, err
}

// PutBytes uploads one object, replacing any existing content.
func (c *Client) PutBytes(ctx context.Context, name string, b []byte) error {
	_, _, err := c.do(ctx, "putBlob", http.MethodPut, name, b, "application/octet-stream")
	return err
}

// Exists reports whether the object is present.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	_, _, err := c.do(ctx, "headBlob", http.MethodHead, name, nil, "")
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Rename moves an object via copy-then-delete; the gateway has no native
// rename.
func (c *Client) Rename(ctx context.Context, oldName, newName string) error {
	b, err := c.GetBytes(ctx, oldName)
	if err != nil {
		return err
	}
	if err := c.PutBytes(ctx, newName, b); err != nil {
		return err
	}
	_, _, err = c.do(ctx, "deleteBlob", http.MethodDelete, oldName, nil, "")
	return err
}

// Description labels this destination for run summaries.
func (c *Client) Description() string {
	loc := c.container
	if c.folder != "" {
		loc += "/" + c.folder
	}
	return "object store " + strings.TrimRight(c.baseURL.String(), "/") + "/" + loc
}
