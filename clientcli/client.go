package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/closureme/closureme"
)

// apiPrefix is where the API routes live under the endpoint origin.
const apiPrefix = "/api"

// Client performs operations against the character API.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout bounds each request, including reading the response body.
// Without it requests are not time limited.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the origin the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Register creates an account. The server answers 201 on success.
func (c *Client) Register(ctx context.Context, username, email, password string) (closureme.User, error) {
	payload := map[string]string{"username": username, "email": email, "password": password}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "/register", nil, payload)
	if err != nil {
		return closureme.User{}, err
	}

	res, err := c.do(req, http.StatusCreated)
	if err != nil {
		return closureme.User{}, err
	}
	if err := res.Err(); err != nil {
		return closureme.User{}, err
	}

	var out registerResponse
	if err := res.Decode(&out); err != nil {
		return closureme.User{}, err
	}
	return out.User, nil
}

// Login exchanges an identifier (username or email) and password for a Session.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	payload := map[string]string{"identifier": identifier, "password": password}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "/login", nil, payload)
	if err != nil {
		return nil, err
	}

	res, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	var out loginResponse
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login: %w: response carries no token", closureme.ErrInvalidInput)
	}

	return &Session{Token: out.Token, User: out.User}, nil
}

// UploadCharacter sends an image and its text artifacts as a multipart form.
// A missing local image returns ErrImageNotFound before any request is made.
func (c *Client) UploadCharacter(ctx context.Context, s *Session, in UploadRequest) (*UploadResult, error) {
	if !s.Valid() {
		return nil, closureme.ErrNotLoggedIn
	}
	if in.ImagePath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if in.FileName == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyName)
	}

	file, err := os.Open(in.ImagePath) //#nosec G304 -- path is user-provided input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("upload %s: %w", in.ImagePath, ErrImageNotFound)
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = file.Close() }()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(in.ImagePath)))
	header.Set("Content-Type", detectContentType(in.ImagePath))

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	fields := []struct{ name, value string }{
		{"appearance", in.Appearance},
		{"memory", in.Memory},
		{"filename", in.FileName},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", f.name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.apiURL("/upload-character", nil), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = int64(body.Len())
	if err := s.authorize(req); err != nil {
		return nil, err
	}

	res, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	var out UploadResult
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookupCharacter fetches the record stored under exactly fileName.
// HTTP failures come back as *APIError, network failures as *TransportError.
func (c *Client) LookupCharacter(ctx context.Context, s *Session, fileName string) (closureme.CharacterRecord, error) {
	query := url.Values{}
	query.Set("fileName", fileName)

	req, err := c.newRequest(ctx, http.MethodGet, c.apiURL("/download-character", query), http.NoBody)
	if err != nil {
		return closureme.CharacterRecord{}, err
	}
	if err := s.authorize(req); err != nil {
		return closureme.CharacterRecord{}, err
	}

	res, err := c.do(req, http.StatusOK)
	if err != nil {
		return closureme.CharacterRecord{}, err
	}
	if err := res.Err(); err != nil {
		return closureme.CharacterRecord{}, err
	}

	var out lookupResponse
	if err := res.Decode(&out); err != nil {
		return closureme.CharacterRecord{}, err
	}
	if out.Data == nil {
		return closureme.CharacterRecord{}, fmt.Errorf("lookup %s: parse response: missing data", fileName)
	}

	rec := *out.Data
	if rec.FileName == "" {
		rec.FileName = fileName
	}
	return rec, nil
}

// DeleteCharacter removes a character and its artifacts from the server.
func (c *Client) DeleteCharacter(ctx context.Context, s *Session, fileName string) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("delete: %w", ErrEmptyName)
	}

	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/delete-character", s, map[string]string{"fileName": fileName})
	if err != nil {
		return "", err
	}

	res, err := c.do(req, http.StatusOK)
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}
	return res.Message, nil
}

// RenameCharacter changes the stored name of a character.
func (c *Client) RenameCharacter(ctx context.Context, s *Session, fileName, newName string) (string, error) {
	if fileName == "" || newName == "" {
		return "", fmt.Errorf("rename: %w", ErrEmptyName)
	}

	payload := map[string]string{"fileName": fileName, "newName": newName}
	req, err := c.newJSONRequest(ctx, http.MethodPatch, "/rename-character", s, payload)
	if err != nil {
		return "", err
	}

	res, err := c.do(req, http.StatusOK)
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}
	return res.Message, nil
}

// ListFiles returns the characters owned by the session user. Both a bare
// array and an object with a data array are accepted.
func (c *Client) ListFiles(ctx context.Context, s *Session) ([]closureme.FileEntry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.apiURL("/files", nil), http.NoBody)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(req); err != nil {
		return nil, err
	}

	res, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(res.Body)
	if len(body) > 0 && body[0] == '{' {
		var env filesEnvelope
		if err := res.Decode(&env); err != nil {
			return nil, err
		}
		return env.Data, nil
	}

	var files []closureme.FileEntry
	if err := res.Decode(&files); err != nil {
		return nil, err
	}
	return files, nil
}

// PendingImages returns the images queued for mirroring. The route is public.
func (c *Client) PendingImages(ctx context.Context) ([]closureme.PendingImage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.apiURL("/get-pending-images", nil), http.NoBody)
	if err != nil {
		return nil, err
	}

	res, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	var images []closureme.PendingImage
	if err := res.Decode(&images); err != nil {
		return nil, err
	}
	return images, nil
}

func (c *Client) apiURL(p string, query url.Values) string {
	u := c.endpoint + apiPrefix + p
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// artifactURL joins a record path to the endpoint origin. Absolute URLs are
// used as they are.
func (c *Client) artifactURL(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return c.endpoint + p
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

// newJSONRequest builds an API request with a JSON body. Register and login
// are the only routes sent without a bearer token.
func (c *Client) newJSONRequest(ctx context.Context, method, p string, s *Session, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := c.newRequest(ctx, method, c.apiURL(p, nil), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if requiresSession(p) {
		if err := s.authorize(req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func requiresSession(p string) bool {
	return p != "/register" && p != "/login"
}

// do executes req and interprets the response against the accepted statuses.
func (c *Client) do(req *http.Request, accepted ...int) (Result, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, &TransportError{Op: req.Method, URL: redactURL(req.URL), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	res, err := interpret(resp, accepted...)
	if err != nil {
		return Result{}, err
	}

	c.logger.DebugContext(req.Context(), "api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", res.StatusCode,
		"duration", time.Since(start),
	)

	return res, nil
}

// fetch opens a GET stream for an artifact. The caller closes the body.
func (c *Client) fetch(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: req.Method, URL: redactURL(req.URL), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		res, readErr := interpret(resp, http.StatusOK)
		if readErr != nil {
			return nil, readErr
		}
		return nil, res.Err()
	}

	return resp.Body, nil
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Redacted()
}

// detectContentType returns MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}
