package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://shortcuty.app/api/v1"

// EnvBaseURL overrides the API endpoint, mainly for testing against a local server.
const EnvBaseURL = "SHORTCUTY_API_URL"

// requestTimeout bounds every API call; exceeding it is a transport failure,
// never a hang.
const requestTimeout = 30 * time.Second

// Client talks to the shortcut API. Requests are synchronous and
// single-attempt: no retry, no backoff. The credential is fixed at
// construction and used for every request of the invocation.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	fs         afero.Fs
}

// NewClient creates an API client. An empty apiKey is valid; only the
// categories endpoint will succeed without one.
func NewClient(baseURL, apiKey string) *Client {
	return NewClientWithFilesystem(baseURL, apiKey, afero.NewOsFs())
}

// NewClientWithFilesystem creates an API client with a custom filesystem (for testing)
func NewClientWithFilesystem(baseURL, apiKey string, fs afero.Fs) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	slog.Debug("creating API client", "base_url", baseURL, "authenticated", apiKey != "")
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		fs:         fs,
	}
}

// SetHTTPClient replaces the underlying HTTP client (for testing)
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Categories lists all available categories. This is the only public endpoint
// and must succeed without a credential.
func (c *Client) Categories() ([]string, error) {
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := c.doJSON(http.MethodGet, "/categories", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Categories == nil {
		resp.Categories = []string{}
	}
	return resp.Categories, nil
}

// Create creates a new shortcut. With AutoSubmit set it chains a submit call
// against the returned UUID; if the create succeeds and the submit fails, the
// error is a *PartialSubmitError carrying the created shortcut.
func (c *Client) Create(req CreateRequest) (*Shortcut, error) {
	var resp struct {
		Shortcut Shortcut `json:"shortcut"`
	}
	if err := c.doJSON(http.MethodPost, "/shortcuts", req.payload(), &resp); err != nil {
		return nil, err
	}

	slog.Info("shortcut created", "uuid", resp.Shortcut.UUID)

	if req.AutoSubmit {
		if _, err := c.Submit(resp.Shortcut.UUID); err != nil {
			slog.Warn("auto-submit failed after successful create", "uuid", resp.Shortcut.UUID, "error", err)
			return nil, &PartialSubmitError{Shortcut: resp.Shortcut, Err: err}
		}
		slog.Info("shortcut auto-submitted", "uuid", resp.Shortcut.UUID)
	}

	return &resp.Shortcut, nil
}

// List fetches one page of the caller's shortcuts. Pagination parameters pass
// through verbatim; out-of-range pages are the server's concern.
func (c *Client) List(page, perPage int) (*ShortcutPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var resp ShortcutPage
	if err := c.doJSON(http.MethodGet, "/shortcuts/my?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Shortcuts == nil {
		resp.Shortcuts = []Shortcut{}
	}
	return &resp, nil
}

// Get fetches shortcut details by UUID. The UUID passes through opaquely;
// validation is the server's responsibility.
func (c *Client) Get(uuid string) (*ShortcutDetails, error) {
	var resp ShortcutDetails
	if err := c.doJSON(http.MethodGet, "/shortcuts/"+url.PathEscape(uuid), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Comments == nil {
		resp.Comments = []string{}
	}
	if resp.Screenshots == nil {
		resp.Screenshots = []Screenshot{}
	}
	return &resp, nil
}

// History fetches the version history of a shortcut.
func (c *Client) History(uuid string) (*History, error) {
	var resp History
	if err := c.doJSON(http.MethodGet, "/shortcuts/"+url.PathEscape(uuid)+"/history", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Changelog == nil {
		resp.Changelog = []HistoryEntry{}
	}
	return &resp, nil
}

// Submit submits a shortcut for review.
func (c *Client) Submit(uuid string) (*Message, error) {
	var resp Message
	if err := c.doJSON(http.MethodPost, "/shortcuts/"+url.PathEscape(uuid)+"/submit", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update applies a partial update: the outgoing payload contains exactly the
// fields supplied in fields, so omitted fields are never overwritten
// server-side.
func (c *Client) Update(uuid string, fields UpdateFields) (*Message, error) {
	var resp Message
	if err := c.doJSON(http.MethodPost, "/shortcuts/"+url.PathEscape(uuid)+"/update", fields.payload(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadScreenshot uploads a local image as a screenshot of the shortcut.
// The file must exist and sniff as PNG or JPEG; both checks happen before any
// network call.
func (c *Client) UploadScreenshot(uuid, path string) (*ScreenshotResponse, error) {
	if exists, err := afero.Exists(c.fs, path); err != nil || !exists {
		slog.Debug("screenshot file missing, skipping upload", "path", path)
		return nil, &FileNotFoundError{Path: path}
	}

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, &FileNotFoundError{Path: path}
	}

	mtype := mimetype.Detect(data)
	if !mtype.Is("image/png") && !mtype.Is("image/jpeg") {
		slog.Warn("screenshot rejected before upload", "path", path, "detected", mtype.String())
		return nil, &InvalidFileError{Path: path, Detected: mtype.String()}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.WriteField("shortcut_id", uuid); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/upload/screenshot", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp ScreenshotResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteScreenshot removes a screenshot from a shortcut. Both identifiers pass
// through opaquely.
func (c *Client) DeleteScreenshot(uuid, screenshotID string) (*Message, error) {
	path := "/shortcuts/" + url.PathEscape(uuid) + "/screenshots/" + url.PathEscape(screenshotID)
	var resp Message
	if err := c.doJSON(http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doJSON sends a request with an optional JSON body and decodes the JSON response.
func (c *Client) doJSON(method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

// do executes one request, attaching the credential and normalizing transport
// and API failures.
func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	slog.Debug("API request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("API request transport failure", "method", req.Method, "url", req.URL.String(), "error", err)
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Error("API response body not decodable", "status", resp.StatusCode, "error", err)
		return &TransportError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	slog.Debug("API request succeeded", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)
	return nil
}

// errorFromResponse extracts the server-provided error message, falling back
// to the raw status text when the body is not parseable.
func (c *Client) errorFromResponse(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}

	body, err := io.ReadAll(resp.Body)
	if err == nil {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil {
			if payload.Message != "" {
				apiErr.Message = payload.Message
			} else if payload.Error != "" {
				apiErr.Message = payload.Error
			}
		}
	}

	slog.Warn("API request rejected", "status", apiErr.Status, "message", apiErr.Message)
	return apiErr
}
