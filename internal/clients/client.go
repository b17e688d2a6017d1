package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/example/bookshop-client/internal/logging"
	"github.com/example/bookshop-client/internal/persist"
)

// Credentials is the bearer token pair issued by the accounts API.
type Credentials struct {
	Access  string
	Refresh string
}

// Client is the single point of outbound HTTP access. It injects the current
// access token on every request and transparently refreshes it once per
// logical call on a 401 before giving up.
type Client struct {
	baseURL       string
	httpc         *http.Client
	store         persist.Adapter
	refreshLimit  *rate.Limiter
	onAuthFailure func()
	tracer        trace.Tracer

	mu    sync.Mutex
	creds Credentials
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP transport.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithAuthFailureHandler installs the hook invoked on terminal
// authentication failure, after both tokens have been cleared. The
// application uses it to route to the login entry point.
func WithAuthFailureHandler(fn func()) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

// New builds a Client, restoring any persisted credential pair.
func New(baseURL string, store persist.Adapter, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		httpc:        &http.Client{Timeout: 30 * time.Second},
		store:        store,
		refreshLimit: rate.NewLimiter(rate.Every(time.Second), 5),
		tracer:       otel.Tracer("bookshop/clients"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if access, ok, _ := store.Load(persist.KeyAccessToken); ok {
		c.creds.Access = string(access)
	}
	if refresh, ok, _ := store.Load(persist.KeyRefreshToken); ok {
		c.creds.Refresh = string(refresh)
	}
	return c
}

// Credentials returns the current token pair.
func (c *Client) Credentials() Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

// SetCredentials replaces and persists the token pair.
func (c *Client) SetCredentials(access, refresh string) {
	c.mu.Lock()
	c.creds = Credentials{Access: access, Refresh: refresh}
	c.mu.Unlock()
	if err := c.store.Save(persist.KeyAccessToken, []byte(access)); err != nil {
		logging.Error("clients", "persist_access_token", err, nil)
	}
	if err := c.store.Save(persist.KeyRefreshToken, []byte(refresh)); err != nil {
		logging.Error("clients", "persist_refresh_token", err, nil)
	}
}

// ClearCredentials deletes the token pair from memory and storage.
func (c *Client) ClearCredentials() {
	c.mu.Lock()
	c.creds = Credentials{}
	c.mu.Unlock()
	if err := c.store.Delete(persist.KeyAccessToken); err != nil {
		logging.Error("clients", "clear_access_token", err, nil)
	}
	if err := c.store.Delete(persist.KeyRefreshToken); err != nil {
		logging.Error("clients", "clear_refresh_token", err, nil)
	}
}

// Do performs one logical API call. On a 401 it attempts a single credential
// refresh and replays the request with the new access token; a failed or
// impossible refresh wipes both tokens and returns ErrAuthFailed. A locally
// throttled refresh attempt fails the call but leaves the pair intact, since
// nothing has established that the tokens are bad. Any other response is
// handed back to the caller unexamined.
func (c *Client) Do(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	ctx, span := c.tracer.Start(ctx, "api.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	))
	defer span.End()

	resp, err := c.send(ctx, method, path, contentType, body, c.Credentials().Access)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()
	span.AddEvent("credential refresh")

	access, err := c.refreshAccess(ctx)
	if errors.Is(err, errRefreshThrottled) {
		logging.Warn("clients", "refresh_throttled", map[string]any{"path": path})
		span.RecordError(err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err != nil {
		c.ClearCredentials()
		if c.onAuthFailure != nil {
			c.onAuthFailure()
		}
		logging.Warn("clients", "auth_failure", map[string]any{"path": path, "cause": err.Error()})
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	resp, err = c.send(ctx, method, path, contentType, body, access)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s %s (retry): %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte, access string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	return c.httpc.Do(req)
}

// refreshAccess exchanges the stored refresh token for a new access token,
// persisting it before the caller replays the original request.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	refresh := c.Credentials().Refresh
	if refresh == "" {
		return "", errNoRefreshToken
	}
	if !c.refreshLimit.Allow() {
		return "", errRefreshThrottled
	}

	payload, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token/refresh/", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", newStatusError(resp)
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.creds.Access = out.Access
	c.mu.Unlock()
	if err := c.store.Save(persist.KeyAccessToken, []byte(out.Access)); err != nil {
		logging.Error("clients", "persist_access_token", err, nil)
	}
	return out.Access, nil
}
