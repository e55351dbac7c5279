package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"career-counselor-be/internal/dto"
)

// APIError carries the envelope code and message of a failed request.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client is a typed HTTP client for the chat backend. It caches query
// responses and supports optimistic message sending.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	cache      *QueryCache

	mu           sync.Mutex
	inflight     map[uint]context.CancelFunc
	nextClientID int64
}

func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		cache:        NewQueryCache(),
		inflight:     make(map[uint]context.CancelFunc),
		nextClientID: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// SetToken replaces the bearer token, e.g. after Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body interface{}, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return &APIError{Code: env.Code, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *Client) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	var out dto.RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

// ListSessions serves from cache when it can and refreshes the entry on
// every successful fetch.
func (c *Client) ListSessions(ctx context.Context, page, pageSize int, search string) (*dto.ListSessionsResponse, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(pageSize))
	}
	if search != "" {
		params.Set("search", search)
	}

	key := c.cache.Key("/api/chat/v1/sessions", params)
	if cached, ok := c.cache.Get(key); ok {
		if res, ok := cached.(*dto.ListSessionsResponse); ok {
			return res, nil
		}
	}

	var out dto.ListSessionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/chat/v1/sessions", params, nil, &out); err != nil {
		return nil, err
	}
	c.cache.Set(key, &out)
	return &out, nil
}

func (c *Client) CreateSession(ctx context.Context, title *string) (*dto.SessionResponse, error) {
	var out dto.SessionResponse
	req := &dto.CreateSessionRequest{Title: title}
	if err := c.do(ctx, http.MethodPost, "/api/chat/v1/sessions", nil, req, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate("/api/chat/v1/sessions")
	return &out, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID uint) (*dto.SessionResponse, error) {
	var out dto.SessionResponse
	path := fmt.Sprintf("/api/chat/v1/sessions/%d", sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameSession(ctx context.Context, sessionID uint, title string) (*dto.SessionResponse, error) {
	var out dto.SessionResponse
	path := fmt.Sprintf("/api/chat/v1/sessions/%d", sessionID)
	req := &dto.RenameSessionRequest{Title: title}
	if err := c.do(ctx, http.MethodPut, path, nil, req, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate("/api/chat/v1/sessions")
	return &out, nil
}

func (c *Client) ListMessages(ctx context.Context, sessionID uint, limit int, cursor *uint, direction string) (*dto.ListMessagesResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != nil {
		params.Set("cursor", strconv.FormatUint(uint64(*cursor), 10))
	}
	if direction != "" {
		params.Set("direction", direction)
	}

	path := fmt.Sprintf("/api/chat/v1/sessions/%d/messages", sessionID)
	key := c.cache.Key(path, params)
	if cached, ok := c.cache.Get(key); ok {
		if res, ok := cached.(*dto.ListMessagesResponse); ok {
			return res, nil
		}
	}

	var out dto.ListMessagesResponse
	if err := c.do(ctx, http.MethodGet, path, params, nil, &out); err != nil {
		return nil, err
	}
	c.cache.Set(key, &out)
	return &out, nil
}

func (c *Client) AddMessage(ctx context.Context, sessionID uint, req *dto.AddMessageRequest) (*dto.MessageResponse, error) {
	var out dto.MessageResponse
	path := fmt.Sprintf("/api/chat/v1/sessions/%d/messages", sessionID)
	if err := c.do(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	c.invalidateSession(sessionID)
	return &out, nil
}

func (c *Client) Generate(ctx context.Context, sessionID uint) (*dto.GenerateAIResponse, error) {
	var out dto.GenerateAIResponse
	path := fmt.Sprintf("/api/chat/v1/sessions/%d/generate", sessionID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	c.invalidateSession(sessionID)
	return &out, nil
}

func (c *Client) GenerateStub(ctx context.Context, sessionID uint) (*dto.GenerateAIResponse, error) {
	var out dto.GenerateAIResponse
	path := fmt.Sprintf("/api/chat/v1/sessions/%d/generate-stub", sessionID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	c.invalidateSession(sessionID)
	return &out, nil
}

func (c *Client) invalidateSession(sessionID uint) {
	c.cache.Invalidate(fmt.Sprintf("/api/chat/v1/sessions/%d/messages", sessionID))
	c.cache.Invalidate("/api/chat/v1/sessions")
}
