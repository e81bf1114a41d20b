package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
	"github.com/noah-isme/vacation-admin-console/pkg/middleware/requestid"
)

const maxErrorBody = 64 << 10

// UpstreamObserver records vacation API call timings.
type UpstreamObserver interface {
	ObserveUpstreamCall(endpoint string, status int, duration time.Duration)
}

// APIClientOptions configures an APIClient.
type APIClientOptions struct {
	BaseURL     string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Credentials CredentialProvider
	Invalidator SessionInvalidator
	Observer    UpstreamObserver
	Logger      *zap.Logger
}

// APIClient talks JSON to the vacation management REST API.
type APIClient struct {
	baseURL     string
	http        *http.Client
	credentials CredentialProvider
	invalidator SessionInvalidator
	observer    UpstreamObserver
	logger      *zap.Logger
}

// NewAPIClient constructs an APIClient.
func NewAPIClient(opts APIClientOptions) *APIClient {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIClient{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		http:        client,
		credentials: opts.Credentials,
		invalidator: opts.Invalidator,
		observer:    opts.Observer,
		logger:      logger.Named("vacation_api"),
	}
}

type serverMessage struct {
	Mensaje string `json:"mensaje"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (m serverMessage) text() string {
	switch {
	case m.Mensaje != "":
		return m.Mensaje
	case m.Message != "":
		return m.Message
	default:
		return m.Error
	}
}

// do performs a request. endpoint is the metrics label; path is appended to
// the base URL.
func (c *APIClient) do(ctx context.Context, method, endpoint, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.HeaderKey, reqID)
	}
	if c.credentials != nil {
		token, err := c.credentials.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		c.logger.Warn("vacation api transport failure", zap.String("endpoint", endpoint), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(ctx, endpoint, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "respuesta inválida del servidor")
	}
	return nil
}

func (c *APIClient) statusError(ctx context.Context, endpoint string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var msg serverMessage
	_ = json.Unmarshal(raw, &msg)
	text := msg.text()
	cause := fmt.Errorf("%s returned %d", endpoint, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if sid := SessionIDFromContext(ctx); sid != "" && c.invalidator != nil {
			c.invalidator.Invalidate(sid, "upstream_unauthorized")
		}
		return appErrors.Wrap(cause, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, appErrors.ErrUnauthorized.Message)
	case resp.StatusCode == http.StatusForbidden:
		return appErrors.Wrap(cause, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, firstNonEmpty(text, appErrors.ErrForbidden.Message))
	case resp.StatusCode == http.StatusNotFound:
		return appErrors.Wrap(cause, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, firstNonEmpty(text, appErrors.ErrNotFound.Message))
	case resp.StatusCode < http.StatusInternalServerError:
		return appErrors.Wrap(cause, appErrors.ErrUpstreamRejected.Code, appErrors.ErrUpstreamRejected.Status, firstNonEmpty(text, appErrors.ErrUpstreamRejected.Message))
	default:
		c.logger.Error("vacation api server error", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode), zap.String("message", text))
		return appErrors.Wrap(cause, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}
}

func (c *APIClient) observe(endpoint string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstreamCall(endpoint, status, d)
	}
}

// listEnvelope is the shared shape of every list endpoint; the items array
// key differs per endpoint.
type listEnvelope struct {
	Total         int                `json:"total"`
	CompleteTotal *int               `json:"totalCompleto"`
	Page          int                `json:"pagina"`
	PageSize      int                `json:"tamanoPagina"`
	Stats         map[string]float64 `json:"estadisticas"`
}

var errMissingItems = errors.New("list response without items array")

func fetchList[T any](ctx context.Context, c *APIClient, endpoint, path, itemsKey string, query models.ListQuery) (*models.ListResult[T], error) {
	var body json.RawMessage
	if err := c.do(ctx, http.MethodGet, endpoint, path, query.Values(), nil, &body); err != nil {
		return nil, err
	}

	var env listEnvelope
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "respuesta inválida del servidor")
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "respuesta inválida del servidor")
	}

	itemsRaw, ok := raw[itemsKey]
	if !ok {
		return nil, appErrors.Wrap(errMissingItems, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "respuesta inválida del servidor")
	}
	items := []T{}
	if len(itemsRaw) > 0 && string(itemsRaw) != "null" {
		if err := json.Unmarshal(itemsRaw, &items); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "respuesta inválida del servidor")
		}
	}

	page := env.Page
	if page < 1 {
		page = query.PageNumber
	}
	size := env.PageSize
	if size < 1 {
		size = query.PageSize
	}
	return &models.ListResult[T]{
		Items:            items,
		TotalCount:       env.Total,
		CompleteTotal:    env.CompleteTotal,
		CurrentPageTotal: len(items),
		Page:             page,
		PageSize:         size,
		AggregateStats:   env.Stats,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
