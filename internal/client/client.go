// Package client is a typed Go client for the job board API. Every call
// carries the Session token, and any 401 response clears the Session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jobboard/jobboard-go/internal/model"
)

// ErrNotLoggedIn is returned by authenticated calls made without a session.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// New creates a client for the API at baseURL. httpClient may be nil.
func New(baseURL string, session *Session, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		session: session,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

// Register creates an account and starts a session for it.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.UserResponse, error) {
	var resp model.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", false, req, &resp); err != nil {
		return model.UserResponse{}, err
	}
	return resp.User, c.session.Set(resp.Token)
}

// Login starts a session.
func (c *Client) Login(ctx context.Context, email, password string) (model.UserResponse, error) {
	var resp model.AuthResponse
	req := model.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", false, req, &resp); err != nil {
		return model.UserResponse{}, err
	}
	return resp.User, c.session.Set(resp.Token)
}

// Logout ends the session. Tokens are stateless, so nothing is sent.
func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) Me(ctx context.Context) (model.UserResponse, error) {
	var u model.UserResponse
	return u, c.doJSON(ctx, http.MethodGet, "/api/auth/me", true, nil, &u)
}

// JobQuery filters ListJobs. Empty fields are not sent.
type JobQuery struct {
	Query    string
	Location string
	Type     model.JobType
}

func (q JobQuery) encode() string {
	v := url.Values{}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) ListJobs(ctx context.Context, q JobQuery) ([]model.Job, error) {
	var jobs []model.Job
	return jobs, c.doJSON(ctx, http.MethodGet, "/api/jobs"+q.encode(), false, nil, &jobs)
}

func (c *Client) FeaturedJobs(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	return jobs, c.doJSON(ctx, http.MethodGet, "/api/jobs/featured", false, nil, &jobs)
}

func (c *Client) GetJob(ctx context.Context, id int64) (model.Job, error) {
	var job model.Job
	return job, c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/jobs/%d", id), false, nil, &job)
}

func (c *Client) CreateJob(ctx context.Context, req model.JobRequest) (model.Job, error) {
	var job model.Job
	return job, c.doJSON(ctx, http.MethodPost, "/api/jobs", true, req, &job)
}

func (c *Client) UpdateJob(ctx context.Context, id int64, req model.JobRequest) (model.Job, error) {
	var job model.Job
	return job, c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/jobs/%d", id), true, req, &job)
}

func (c *Client) DeleteJob(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/jobs/%d", id), true, nil, nil)
}

func (c *Client) MyJobs(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	return jobs, c.doJSON(ctx, http.MethodGet, "/api/jobs/employer/me", true, nil, &jobs)
}

// Resume is a file to attach to an application.
type Resume struct {
	Filename string
	Content  io.Reader
}

// Apply submits an application as multipart form data. resume may be nil.
func (c *Client) Apply(ctx context.Context, jobID int64, coverLetter string, resume *Resume) (model.ApplicationResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if coverLetter != "" {
		if err := mw.WriteField("coverLetter", coverLetter); err != nil {
			return model.ApplicationResponse{}, err
		}
	}
	if resume != nil {
		fw, err := mw.CreateFormFile("resume", resume.Filename)
		if err != nil {
			return model.ApplicationResponse{}, err
		}
		if _, err := io.Copy(fw, resume.Content); err != nil {
			return model.ApplicationResponse{}, fmt.Errorf("reading resume: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return model.ApplicationResponse{}, err
	}

	var app model.ApplicationResponse
	path := fmt.Sprintf("/api/applications/%d/apply", jobID)
	return app, c.do(ctx, http.MethodPost, path, true, &buf, mw.FormDataContentType(), &app)
}

func (c *Client) MyApplications(ctx context.Context) ([]model.ApplicationResponse, error) {
	var apps []model.ApplicationResponse
	return apps, c.doJSON(ctx, http.MethodGet, "/api/applications/me", true, nil, &apps)
}

func (c *Client) ReceivedApplications(ctx context.Context) ([]model.ApplicationResponse, error) {
	var apps []model.ApplicationResponse
	return apps, c.doJSON(ctx, http.MethodGet, "/api/applications/employer/me", true, nil, &apps)
}

func (c *Client) UpdateApplicationStatus(ctx context.Context, id int64, status model.ApplicationStatus) (model.ApplicationResponse, error) {
	var app model.ApplicationResponse
	path := fmt.Sprintf("/api/applications/%d/status", id)
	return app, c.doJSON(ctx, http.MethodPatch, path, true, model.StatusUpdateRequest{Status: status}, &app)
}

func (c *Client) doJSON(ctx context.Context, method, path string, auth bool, in, out any) error {
	if in == nil {
		return c.do(ctx, method, path, auth, nil, "", out)
	}
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, method, path, auth, bytes.NewReader(b), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if auth {
		token := c.session.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && auth {
		if err := c.session.Clear(); err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
