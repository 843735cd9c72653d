// Package azure implements the Completer contract against an Azure
// OpenAI-compatible chat-completions gateway, authenticating with an OAuth2
// client-credentials token.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shpitdev/schema-testgen/internal/util"
	"github.com/shpitdev/schema-testgen/pkg/generate"
)

type Config struct {
	AuthURL      string
	Scope        string
	ClientID     string
	ClientSecret string

	// Endpoint is the gateway base URL, e.g.
	// "https://gateway.example.com/api/ai-gateway/1.0".
	Endpoint       string
	DeploymentName string
	APIVersion     string

	// ProjectID is sent as a header when set; some gateways require it for
	// quota attribution.
	ProjectID string
}

const defaultAPIVersion = "2025-01-01-preview"

type Completer struct {
	endpoint   *url.URL
	deployment string
	apiVersion string
	projectID  string
	token      string
	http       *http.Client
}

var _ generate.Completer = (*Completer)(nil)

// New validates the configuration and acquires the access token. A token
// acquisition failure here is a client-initialization failure and aborts the
// run.
func New(ctx context.Context, cfg Config) (*Completer, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("client id and client secret are required")
	}
	if strings.TrimSpace(cfg.AuthURL) == "" {
		return nil, fmt.Errorf("auth url is required")
	}
	if strings.TrimSpace(cfg.DeploymentName) == "" {
		return nil, fmt.Errorf("deployment name is required")
	}
	endpoint, err := parseBaseURL(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	hc := &http.Client{Timeout: 60 * time.Second}
	token, err := fetchAccessToken(ctx, hc, cfg)
	if err != nil {
		return nil, fmt.Errorf("acquire access token: %w", err)
	}

	return &Completer{
		endpoint:   endpoint,
		deployment: strings.TrimSpace(cfg.DeploymentName),
		apiVersion: apiVersion,
		projectID:  strings.TrimSpace(cfg.ProjectID),
		token:      token,
		http:       hc,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("gateway endpoint is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse gateway endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway endpoint must include a host (got %q)", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func fetchAccessToken(ctx context.Context, hc *http.Client, cfg Config) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if strings.TrimSpace(cfg.Scope) != "" {
		form.Set("scope", strings.TrimSpace(cfg.Scope))
	}
	form.Set("client_id", strings.TrimSpace(cfg.ClientID))
	form.Set("client_secret", strings.TrimSpace(cfg.ClientSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSpace(cfg.AuthURL), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("authentication failed: status=%s body=%s", resp.Status, sanitize(b))
	}

	var out tokenResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return strings.TrimSpace(out.AccessToken), nil
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Completer) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.deployment,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	u := c.resolve(fmt.Sprintf(
		"openai/deployments/%s/chat/completions",
		url.PathEscape(c.deployment),
	))
	q := url.Values{}
	q.Set("api-version", c.apiVersion)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.projectID != "" {
		req.Header.Set("projectId", c.projectID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", classifyNetErr(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		err := fmt.Errorf("chat completion failed: status=%s body=%s", resp.Status, sanitize(rb))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5 {
			return "", &generate.TransientError{Err: err}
		}
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return "", fmt.Errorf("parse chat completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Completer) resolve(relPath string) *url.URL {
	relPath = strings.TrimPrefix(relPath, "/")
	rel := &url.URL{Path: relPath}
	return c.endpoint.ResolveReference(rel)
}

func classifyNetErr(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &generate.TransientError{Err: err}
	}
	return err
}

func sanitize(body []byte) string {
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := util.RedactSecrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	if len(body) > max {
		s += "..."
	}
	return strings.TrimSpace(s)
}
