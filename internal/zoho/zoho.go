// Zoho Projects API client
//
// Request/response shapes based on https://www.zoho.com/projects/help/rest-api/
package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/schedsync/schedsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://projectsapi.zoho.com/restapi"

// Project is a read-only view of a remote project.
type Project struct {
	IDString string `json:"id_string"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// TasklistRef is the tasklist embedded in a task response.
type TasklistRef struct {
	IDString string `json:"id_string"`
	Name     string `json:"name"`
}

// Task is a read-only view of a remote task.
type Task struct {
	IDString        string      `json:"id_string"`
	Name            string      `json:"name"`
	PercentComplete string      `json:"percent_complete"`
	Tasklist        TasklistRef `json:"tasklist"`
}

// Tasklist is a read-only view of a remote tasklist from the tasklist listing.
type Tasklist struct {
	IDString string `json:"id_string"`
	Name     string `json:"name"`
}

// TaskParams carries the writable fields of a create or update call.
//
// Name and TasklistID are only sent on create. A nil PercentComplete and an
// empty CustomFields map are omitted from the form payload entirely.
type TaskParams struct {
	Name            string
	TasklistID      string
	PercentComplete *int
	CustomFields    map[string]string
}

// form encodes the params as the API's x-www-form-urlencoded body.
// Custom fields travel as a JSON object string under a single form key.
func (p TaskParams) form() (url.Values, error) {
	values := url.Values{}
	if p.Name != "" {
		values.Set("name", p.Name)
	}
	if p.TasklistID != "" {
		values.Set("tasklist_id", p.TasklistID)
	}
	if p.PercentComplete != nil {
		values.Set("percent_complete", fmt.Sprintf("%d", *p.PercentComplete))
	}
	if len(p.CustomFields) > 0 {
		encoded, err := json.Marshal(p.CustomFields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode custom fields: %w", err)
		}
		values.Set("custom_fields", string(encoded))
	}
	return values, nil
}

// Client implements the Zoho Projects portal API used by the sync engine.
// Authentication uses the OAuth2 refresh-token grant; the resulting access
// token is sent as a Zoho-oauthtoken bearer on every call.
type Client struct {
	config     shared.ZohoConfig
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
}

// NewClient creates a Zoho Projects client for the configured portal.
func NewClient(config shared.ZohoConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	limit := rate.Limit(config.RateLimit)
	if config.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &Client{
		config:     config,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Authenticate exchanges the configured refresh token for an access token.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.config.ClientID == "" || c.config.ClientSecret == "" || c.config.RefreshToken == "" {
		return fmt.Errorf("%w: zoho client_id, client_secret and refresh_token are required", shared.ErrMissingCredentials)
	}

	conf := &oauth2.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		RedirectURL:  c.config.RedirectURI,
		Endpoint:     oauth2.Endpoint{TokenURL: c.config.TokenURL},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.config.RefreshToken}).Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	c.token = token.AccessToken
	return nil
}

// SetToken installs a pre-fetched access token, bypassing Authenticate.
func (c *Client) SetToken(token string) {
	c.token = token
}

// portalURL builds a portal-scoped endpoint URL.
func (c *Client) portalURL(segments ...string) string {
	parts := append([]string{c.baseURL, "portal", c.config.Portal}, segments...)
	return strings.Join(parts, "/") + "/"
}

// do performs an authenticated, rate-limited request and decodes the JSON
// response into result when non-nil.
func (c *Client) do(ctx context.Context, method, rawURL string, body url.Values, result any) error {
	if c.token == "" {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(body.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ListProjects retrieves active portal projects, most recently modified first.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	endpoint, err := url.Parse(c.portalURL("projects"))
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	query := endpoint.Query()
	query.Set("status", "active")
	query.Set("sort_column", "last_modified_time")
	query.Set("sort_order", "descending")
	query.Set("index", "1")
	query.Set("range", "100")
	endpoint.RawQuery = query.Encode()

	var response struct {
		Projects []Project `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint.String(), nil, &response); err != nil {
		return nil, err
	}

	return response.Projects, nil
}

// ListTasks retrieves all tasks of a project, with their embedded tasklists.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]Task, error) {
	var response struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, c.portalURL("projects", projectID, "tasks"), nil, &response); err != nil {
		return nil, err
	}
	return response.Tasks, nil
}

// ListTasklists retrieves the authoritative tasklist listing of a project.
func (c *Client) ListTasklists(ctx context.Context, projectID string) ([]Tasklist, error) {
	var response struct {
		Tasklists []Tasklist `json:"tasklists"`
	}
	if err := c.do(ctx, http.MethodGet, c.portalURL("projects", projectID, "tasklists"), nil, &response); err != nil {
		return nil, err
	}
	return response.Tasklists, nil
}

// CreateTask creates a task under the tasklist named in params and returns
// the created task.
func (c *Client) CreateTask(ctx context.Context, projectID string, params TaskParams) (*Task, error) {
	body, err := params.form()
	if err != nil {
		return nil, err
	}

	var response struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodPost, c.portalURL("projects", projectID, "tasks"), body, &response); err != nil {
		return nil, err
	}
	if len(response.Tasks) == 0 {
		return nil, fmt.Errorf("%w: create returned no task", shared.ErrAPIRequest)
	}

	return &response.Tasks[0], nil
}

// UpdateTask updates an existing task and returns the raw response document.
func (c *Client) UpdateTask(ctx context.Context, projectID, taskID string, params TaskParams) (any, error) {
	body, err := params.form()
	if err != nil {
		return nil, err
	}

	var response any
	if err := c.do(ctx, http.MethodPost, c.portalURL("projects", projectID, "tasks", taskID), body, &response); err != nil {
		return nil, err
	}

	return response, nil
}
