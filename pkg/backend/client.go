package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
	"github.com/noah-isme/fleet-backoffice-api/pkg/config"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
)

// collections maps entity types to backend collection paths.
var collections = map[string]string{
	"driver":    "drivers",
	"employee":  "employees",
	"truck":     "trucks",
	"equipment": "equipment",
	"incident":  "incidents",
	"violation": "violations",
	"wcb_claim": "wcb-claims",
}

// Collection returns the backend collection for an entity type.
func Collection(entityType string) (string, bool) {
	c, ok := collections[entityType]
	return c, ok
}

// EntityTypes lists the entity types the backend serves.
func EntityTypes() []string {
	types := make([]string, 0, len(collections))
	for t := range collections {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Observer receives timing for every backend call.
type Observer interface {
	ObserveBackendCall(operation string, status int, duration time.Duration)
}

// Client talks to the record backend over its REST API.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithObserver records call metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient builds a backend client from configuration.
func NewClient(cfg config.BackendConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListEntities fetches every record of an entity type. Both bare arrays and
// paginated {"results": [...]} bodies are accepted; pagination is followed up
// to limit records (limit <= 0 means no cap). Next links must stay on the
// backend's scheme and host, and a repeated link ends the walk.
func (c *Client) ListEntities(ctx context.Context, entityType string, limit int) ([]checklist.Entity, error) {
	collection, err := c.collection(entityType)
	if err != nil {
		return nil, err
	}

	next := c.url(collection) + "/"
	seen := make(map[string]struct{})
	entities := make([]checklist.Entity, 0)
	for next != "" {
		if _, dup := seen[next]; dup {
			c.logger.Warn("backend pagination repeated a page, stopping",
				zap.String("entity_type", entityType),
				zap.String("url", next),
			)
			break
		}
		seen[next] = struct{}{}
		body, err := c.do(ctx, "list", http.MethodGet, next, nil, "")
		if err != nil {
			return nil, err
		}
		page, nextURL, err := decodeList(body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "decode backend list")
		}
		for i := range page {
			page[i].Type = entityType
			entities = append(entities, page[i])
			if limit > 0 && len(entities) >= limit {
				return entities, nil
			}
		}
		if nextURL == "" {
			break
		}
		next, err = c.followLink(next, nextURL)
		if err != nil {
			return nil, err
		}
	}
	return entities, nil
}

// followLink resolves a pagination link against the current page and rejects
// links that leave the backend's origin.
func (c *Client) followLink(current, link string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "parse backend base url")
	}
	from, err := url.Parse(current)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "parse backend page url")
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "parse backend next link")
	}
	resolved := from.ResolveReference(ref)
	if !strings.EqualFold(resolved.Scheme, base.Scheme) || !strings.EqualFold(resolved.Host, base.Host) {
		c.logger.Warn("backend pagination link points to another host",
			zap.String("link", resolved.Redacted()),
			zap.String("backend", base.Host),
		)
		return "", appErrors.Clone(appErrors.ErrBadGateway, "record backend returned a next link outside its origin")
	}
	return resolved.String(), nil
}

// GetEntity fetches a single record.
func (c *Client) GetEntity(ctx context.Context, entityType, id string) (*checklist.Entity, error) {
	collection, err := c.collection(entityType)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, "get", http.MethodGet, c.url(collection, id)+"/", nil, "")
	if err != nil {
		return nil, err
	}
	var entity checklist.Entity
	if err := json.Unmarshal(body, &entity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "decode backend entity")
	}
	entity.Type = entityType
	if entity.ID == "" {
		entity.ID = id
	}
	return &entity, nil
}

// UpdateStatus patches the status of a record.
func (c *Client) UpdateStatus(ctx context.Context, entityType, id, status string) error {
	collection, err := c.collection(entityType)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, "update_status", http.MethodPatch, c.url(collection, id)+"/", bytes.NewReader(payload), "application/json")
	return err
}

// File is one uploaded file forwarded to the backend.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadRequest describes a document upload forwarded to the backend.
type UploadRequest struct {
	APIEndpoint        string
	EntityType         string
	EntityID           string
	EndpointIdentifier string
	Values             map[string]string
	Files              []File
}

// Upload posts a multipart document form to
// {APIEndpoint}{collection}/{EndpointIdentifier}/ and returns the backend's JSON body.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (json.RawMessage, error) {
	collection, err := c.collection(req.EntityType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.EndpointIdentifier) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endpoint identifier is required")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField(req.EntityType, req.EntityID); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(req.Values))
	for k := range req.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, req.Values[k]); err != nil {
			return nil, err
		}
	}
	for _, f := range req.Files {
		if err := writeFile(writer, f); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("read upload %q", f.Filename))
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := "/" + strings.Trim(req.APIEndpoint, "/") + "/"
	target := c.baseURL + endpoint + collection + "/" + url.PathEscape(req.EndpointIdentifier) + "/"
	raw, err := c.do(ctx, "upload", http.MethodPost, target, body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, appErrors.Clone(appErrors.ErrBadGateway, "backend returned a non-JSON upload response")
	}
	return json.RawMessage(raw), nil
}

func writeFile(w *multipart.Writer, f File) error {
	if f.Open == nil {
		return fmt.Errorf("file %q has no content", f.Filename)
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}

func (c *Client) collection(entityType string) (string, error) {
	collection, ok := Collection(entityType)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrUnsupportedEntity, fmt.Sprintf("unsupported entity type %q", entityType))
	}
	return collection, nil
}

func (c *Client) url(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, operation, method, target string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(operation, 0, duration)
		c.logger.Warn("backend request failed", zap.String("operation", operation), zap.String("method", method), zap.String("url", target), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, appErrors.ErrBadGateway.Message)
	}
	defer resp.Body.Close()
	c.observe(operation, resp.StatusCode, duration)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "read backend response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found in backend")
	case resp.StatusCode == http.StatusBadRequest:
		e := appErrors.Clone(appErrors.ErrValidation, "backend rejected the request")
		e.Details = backendDetails(payload)
		return nil, e
	default:
		c.logger.Warn("backend returned an error",
			zap.String("operation", operation),
			zap.String("method", method),
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
		)
		return nil, appErrors.Clone(appErrors.ErrBadGateway, fmt.Sprintf("record backend returned %d", resp.StatusCode))
	}
}

func (c *Client) observe(operation string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(operation, status, d)
	}
}

func decodeList(body []byte) ([]checklist.Entity, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []checklist.Entity
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, "", err
		}
		return items, "", nil
	}
	var page struct {
		Next    *string            `json:"next"`
		Results []checklist.Entity `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, "", err
	}
	next := ""
	if page.Next != nil {
		next = *page.Next
	}
	return page.Results, next, nil
}

// backendDetails flattens a {"field": ["msg", ...]} validation body.
func backendDetails(payload []byte) map[string]string {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}
	details := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			details[k] = t
		case []interface{}:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprintf("%v", p))
			}
			details[k] = strings.Join(parts, "; ")
		default:
			details[k] = fmt.Sprintf("%v", t)
		}
	}
	return details
}
