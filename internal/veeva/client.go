package veeva

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"trialdeck/internal/metrics"
)

// DefaultStudyObjects is the ordered candidate list of study object names
// probed against a vault. Order is fixed; the first success wins.
var DefaultStudyObjects = []string{
	"study__v",
	"study__c",
	"clinical_study__v",
	"clinical_study__c",
	"studies",
}

// Field name candidates for the session token in an auth response.
var tokenFields = []string{"sessionId", "session_id", "token"}

// Client talks to one Veeva-style CTMS vault. All calls are single
// request/response with no retries; failures surface to the caller.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a Client with the given per-request timeout. The
// transport is traced so upstream latency shows up in spans.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Authenticate exchanges credentials for a session token at <base>/auth.
// A non-success status or a response without a recognizable token field
// yields an *AuthError carrying the upstream detail.
func (c *Client) Authenticate(ctx context.Context, baseURL, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinPath(baseURL, "auth"), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("veeva auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read veeva auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AuthError{Status: resp.StatusCode, Message: upstreamMessage(body)}
	}

	var payload Record
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &AuthError{Status: resp.StatusCode, Message: "response is not valid JSON"}
	}

	token := payload.String(tokenFields...)
	if token == "" {
		return "", &AuthError{Status: resp.StatusCode, Message: "response contains no session token"}
	}
	return token, nil
}

// Resolution is the outcome of a successful study object probe.
type Resolution struct {
	Object  string
	Records []Record
}

// ResolveStudyObject probes the candidate object paths in order and returns
// the first that answers with a success status, along with its parsed rows.
// When every candidate fails, the generic objects listing is fetched purely
// for diagnostic detail in the returned error.
func (c *Client) ResolveStudyObject(ctx context.Context, baseURL, token string, candidates []string) (Resolution, error) {
	if len(candidates) == 0 {
		candidates = DefaultStudyObjects
	}

	for _, name := range candidates {
		records, status, _, err := c.fetchObject(ctx, baseURL, token, name, "")
		if err != nil {
			metrics.EndpointProbes.WithLabelValues(name, "error").Inc()
			log.Debug().Err(err).Str("object", name).Msg("study object probe failed")
			continue
		}
		if status < 200 || status > 299 {
			metrics.EndpointProbes.WithLabelValues(name, "miss").Inc()
			log.Debug().Int("status", status).Str("object", name).Msg("study object probe rejected")
			continue
		}
		metrics.EndpointProbes.WithLabelValues(name, "hit").Inc()
		return Resolution{Object: name, Records: records}, nil
	}

	return Resolution{}, &EndpointNotFoundError{
		Tried:     candidates,
		Available: c.listObjects(ctx, baseURL, token),
	}
}

// FetchMilestones lists milestone rows of the given object filtered to one
// study via `where=<studyField>='<studyExternalID>'`.
func (c *Client) FetchMilestones(ctx context.Context, baseURL, token, object, studyField, studyExternalID string) ([]Record, error) {
	where := fmt.Sprintf("%s='%s'", studyField, studyExternalID)
	records, status, body, err := c.fetchObject(ctx, baseURL, token, object, where)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		if body == "" {
			body = fmt.Sprintf("object %s listing failed", object)
		}
		return nil, &UpstreamError{Status: status, Body: body}
	}
	return records, nil
}

// listObjects fetches the generic objects index for diagnostics only.
func (c *Client) listObjects(ctx context.Context, baseURL, token string) []string {
	req, err := c.objectRequest(ctx, joinPath(baseURL, "objects"), token)
	if err != nil {
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("diagnostic objects listing failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug().Int("status", resp.StatusCode).Msg("diagnostic objects listing rejected")
		return nil
	}

	records, err := decodeRecords(resp.Body)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		if name := r.String("name", "name__v", "object"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// fetchObject returns the parsed rows on success; on a non-2xx status it
// returns the raw response body so callers can surface it verbatim.
func (c *Client) fetchObject(ctx context.Context, baseURL, token, object, where string) ([]Record, int, string, error) {
	endpoint := joinPath(baseURL, "objects", object)
	if where != "" {
		endpoint += "?where=" + url.QueryEscape(where)
	}

	req, err := c.objectRequest(ctx, endpoint, token)
	if err != nil {
		return nil, 0, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, resp.StatusCode, strings.TrimSpace(string(body)), nil
	}

	records, err := decodeRecords(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, "", err
	}
	return records, resp.StatusCode, "", nil
}

// objectRequest carries the session token verbatim in Authorization, no
// Bearer prefix; that is what the vault API expects.
func (c *Client) objectRequest(ctx context.Context, endpoint, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func joinPath(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + strings.Trim(p, "/")
	}
	return out
}

func upstreamMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}
