package crewz

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crewzcontrol/quotesync/pkg/authkey"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/crewzcontrol/quotesync/pkg/logger"
	"github.com/crewzcontrol/quotesync/pkg/metrics"
	"github.com/crewzcontrol/quotesync/pkg/xmltree"
	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

const responseBodyReadLimit int64 = 4 << 20

// Location is a geolocation reading sent with each call.
type Location struct {
	Latitude  float64
	Longitude float64
}

// AuthContext carries the identity material every call must include.
type AuthContext struct {
	DeviceID string
	// AuthorizationCode is empty for the anonymous pre-sign-in call.
	AuthorizationCode string
	// Location is nil when no reading is available; the call proceeds without coordinates.
	Location *Location
}

// Envelope is a successful ResultInfo response.
type Envelope struct {
	Result     string
	Message    string
	Selections any
}

// Caller issues one legacy call.
type Caller interface {
	Call(ctx context.Context, endpoint string, params *Params, auth AuthContext) (*Envelope, error)
}

// Client talks to the legacy query-string/XML service.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	clientVersion string
	timeout       time.Duration
	now           func() time.Time
	logg          *logger.Logger
	metrics       *metrics.RemoteCallMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClientVersion sets the CrewzControlVersion parameter.
func WithClientVersion(version string) Option {
	return func(c *Client) {
		c.clientVersion = strings.TrimSpace(version)
	}
}

// WithTimeout bounds each call. Zero disables the per-call deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithClock overrides the clock used for the Date parameter and key.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// WithMetrics attaches a call recorder.
func WithMetrics(m *metrics.RemoteCallMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "remote base url is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		now:        time.Now,
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Call issues a single GET against endpoint and unwraps the ResultInfo envelope.
// Network, HTTP and XML failures are TRANSPORT_ERROR; a parsed envelope whose
// Result is not "Success" is SERVICE_ERROR carrying the server message.
// Calls are never retried.
func (c *Client) Call(ctx context.Context, endpoint string, params *Params, auth AuthContext) (*Envelope, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "remote client not configured")
	}
	query, err := c.buildQuery(params, auth)
	if err != nil {
		return nil, err
	}

	ctx = c.logg.WithFields(ctx, map[string]any{
		"request_id": uuid.NewString(),
		"endpoint":   endpoint,
	})
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	env, err := c.do(ctx, c.buildURL(endpoint, query), endpoint)
	elapsed := time.Since(started)

	switch {
	case err == nil:
		c.metrics.ObserveCall(endpoint, metrics.OutcomeSuccess, elapsed)
		c.logg.Debug(c.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds()), "remote call succeeded")
	case pkgerrors.Is(err, pkgerrors.CodeService):
		c.metrics.ObserveCall(endpoint, metrics.OutcomeService, elapsed)
		c.logg.Warn(c.logg.WithField(ctx, "message", pkgerrors.As(err).Message()), "remote call rejected")
	default:
		c.metrics.ObserveCall(endpoint, metrics.OutcomeTransport, elapsed)
		c.logg.Error(ctx, "remote call failed", err)
	}
	return env, err
}

func (c *Client) do(ctx context.Context, url, endpoint string) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("build %s request", endpoint))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("execute %s request", endpoint))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pkgerrors.New(pkgerrors.CodeTransport, fmt.Sprintf("%s request failed with status %d", endpoint, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("read %s response", endpoint))
	}
	return ParseEnvelope(body)
}

// ParseEnvelope decodes a response body into an Envelope.
func ParseEnvelope(body []byte) (*Envelope, error) {
	root, err := xmltree.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "parse response")
	}

	info, ok := root["ResultInfo"].(xmltree.Node)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeService, pkgerrors.FallbackServiceMessage).
			WithDetails(map[string]any{"reason": "missing ResultInfo envelope"})
	}

	env := &Envelope{
		Result:     strings.TrimSpace(xmltree.Text(info["Result"])),
		Message:    strings.TrimSpace(xmltree.Text(info["Message"])),
		Selections: info["Selections"],
	}
	if env.Result != ResultSuccess {
		message := env.Message
		if message == "" {
			message = pkgerrors.FallbackServiceMessage
		}
		return nil, pkgerrors.New(pkgerrors.CodeService, message).
			WithDetails(map[string]any{"result": env.Result})
	}
	return env, nil
}

func (c *Client) buildQuery(params *Params, auth AuthContext) (*Params, error) {
	key, err := authkey.Derive(auth.DeviceID, auth.AuthorizationCode, c.now())
	if err != nil {
		return nil, err
	}

	longitude, latitude := "", ""
	if auth.Location != nil {
		longitude = strconv.FormatFloat(auth.Location.Longitude, 'f', -1, 64)
		latitude = strconv.FormatFloat(auth.Location.Latitude, 'f', -1, 64)
	}

	common := NewParams().
		Set("DeviceID", auth.DeviceID).
		Set("Date", key.Timestamp).
		Set("Key", key.Hash).
		Set("AC", auth.AuthorizationCode).
		Set("CrewzControlVersion", c.clientVersion).
		Set("Longitude", longitude).
		Set("Latitude", latitude)
	return common.merge(params), nil
}

func (c *Client) buildURL(endpoint string, query *Params) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	endpoint = strings.TrimLeft(endpoint, "/")
	return fmt.Sprintf("%s/%s?%s", trimmed, endpoint, query.Encode())
}
