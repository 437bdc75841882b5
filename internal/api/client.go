package api

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

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"tasklync-cli/internal/debuglog"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/statusutil"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 10 * time.Second

// Client implements Backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  oauth2.TokenSource
	timeout time.Duration
	log     *debuglog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *debuglog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for baseURL. tokens supplies the bearer token for
// authenticated routes; it is consulted on every call so logout takes effect
// immediately.
func New(baseURL string, tokens oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{},
		tokens:  tokens,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ Backend = (*Client)(nil)

// --- users ---------------------------------------------------------------

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out struct {
		AuthResult
		UserID string `json:"userId"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "login", http.MethodPost, "/user/login", false, body, &out); err != nil {
		return AuthResult{}, err
	}
	// Older backends return the id at the top level.
	if out.User.ID == "" {
		out.User.ID = out.UserID
	}
	return out.AuthResult, nil
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, "signup", http.MethodPost, "/user/signup", false, body, &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}

func (c *Client) SetPassword(ctx context.Context, userID, password string) error {
	body := map[string]string{"password": password}
	return c.do(ctx, "set password", http.MethodPut, "/user/"+url.PathEscape(userID), false, body, nil)
}

func (c *Client) UserDetails(ctx context.Context, userID string) (model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, "user details", http.MethodGet, "/user/details/"+url.PathEscape(userID), false, nil, &out); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out struct {
		Users []model.User `json:"users"`
	}
	if err := c.do(ctx, "list users", http.MethodGet, "/user/read", true, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// --- projects ------------------------------------------------------------

type projectEnvelope struct {
	Project *model.Project `json:"project"`
	Code    string         `json:"code"`
}

func (e projectEnvelope) value() model.Project {
	if e.Project == nil {
		return model.Project{Code: e.Code}
	}
	p := *e.Project
	if p.Code == "" {
		p.Code = e.Code
	}
	return p
}

func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (model.Project, error) {
	var out projectEnvelope
	if err := c.do(ctx, "create project", http.MethodPost, "/project/create", true, in, &out); err != nil {
		return model.Project{}, err
	}
	return out.value(), nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (model.Project, error) {
	var out projectEnvelope
	if err := c.do(ctx, "update project", http.MethodPut, "/project/"+url.PathEscape(id), true, in, &out); err != nil {
		return model.Project{}, err
	}
	p := out.value()
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out struct {
		Projects []model.Project `json:"projects"`
	}
	if err := c.do(ctx, "list projects", http.MethodGet, "/project/get", true, nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (c *Client) ProjectDetails(ctx context.Context, id string) (model.Project, error) {
	var out projectEnvelope
	if err := c.do(ctx, "project details", http.MethodGet, "/project/details/"+url.PathEscape(id), true, nil, &out); err != nil {
		return model.Project{}, err
	}
	return out.value(), nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, "delete project", http.MethodDelete, "/project/"+url.PathEscape(id), true, nil, nil)
}

func (c *Client) JoinProject(ctx context.Context, code string) (model.Project, error) {
	var out projectEnvelope
	body := map[string]string{"code": code}
	if err := c.do(ctx, "join project", http.MethodPost, "/project/join", true, body, &out); err != nil {
		return model.Project{}, err
	}
	return out.value(), nil
}

// --- tasks ---------------------------------------------------------------

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.do(ctx, "list tasks", http.MethodGet, "/task", true, nil, &out); err != nil {
		return nil, err
	}
	return NormalizeTasks(out.Tasks), nil
}

func (c *Client) ProjectTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.do(ctx, "project tasks", http.MethodGet, "/task/project/"+url.PathEscape(projectID), true, nil, &out); err != nil {
		return nil, err
	}
	return NormalizeTasks(out.Tasks), nil
}

func (c *Client) CreateTask(ctx context.Context, in TaskInput) (CreatedTask, error) {
	var out CreatedTask
	if err := c.do(ctx, "create task", http.MethodPost, "/task", true, in, &out); err != nil {
		return CreatedTask{}, err
	}
	out.Task = NormalizeTask(out.Task)
	return out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	return c.do(ctx, "update task", http.MethodPut, "/task/"+url.PathEscape(id), true, patch, nil)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, "delete task", http.MethodDelete, "/task/"+url.PathEscape(id), true, nil, nil)
}

// --- invites -------------------------------------------------------------

func (c *Client) VerifyInvite(ctx context.Context, token string) (Invite, error) {
	var out Invite
	if err := c.do(ctx, "verify invite", http.MethodGet, "/invite/verify/"+url.PathEscape(token), false, nil, &out); err != nil {
		return Invite{}, err
	}
	return out, nil
}

func (c *Client) AcceptInvite(ctx context.Context, token string) (InviteAcceptance, error) {
	var out InviteAcceptance
	if err := c.do(ctx, "accept invite", http.MethodPost, "/invite/accept/"+url.PathEscape(token), false, nil, &out); err != nil {
		return InviteAcceptance{}, err
	}
	return out, nil
}

// NormalizeTask fills server omissions: status defaults to todo, priority to Medium.
func NormalizeTask(t model.Task) model.Task {
	t.Status = statusutil.StatusOrDefault(t.Status)
	t.Priority = statusutil.PriorityOrDefault(t.Priority)
	if t.DueDate != nil && *t.DueDate == "" {
		t.DueDate = nil
	}
	return t
}

func NormalizeTasks(in []model.Task) []model.Task {
	out := make([]model.Task, 0, len(in))
	for _, t := range in {
		out = append(out, NormalizeTask(t))
	}
	return out
}

// --- transport -----------------------------------------------------------

func (c *Client) httpClient(ctx context.Context, auth bool) (*http.Client, error) {
	if !auth {
		return c.http, nil
	}
	if c.tokens == nil {
		return nil, ErrUnauthenticated
	}
	tok, err := c.tokens.Token()
	if err != nil || tok == nil || strings.TrimSpace(tok.AccessToken) == "" {
		return nil, ErrUnauthenticated
	}
	// oauth2.NewClient wraps the context's base client with a bearer transport.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, auth bool, in, out any) error {
	hc, err := c.httpClient(ctx, auth)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Printf("api %s %s id=%s err=%v", method, path, reqID, err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.log.Printf("api %s %s id=%s status=%d dur=%s", method, path, reqID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts the server's message from an error body. The backend
// has used several keys over time.
func errorMessage(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, k := range []string{"message", "error_msg", "error"} {
		if s, ok := body[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// IsNetwork reports whether err means no response arrived.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
