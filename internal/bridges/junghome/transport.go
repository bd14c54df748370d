package junghome

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// maxResponseBytes bounds gateway response bodies. The device list of a
// fully loaded gateway is well under this.
const maxResponseBytes = 4 << 20

// TransportConfig holds configuration for the gateway HTTP client.
type TransportConfig struct {
	// Host is the gateway hostname or IP, without scheme.
	Host string

	// Token is the bearer credential sent in the "token" header.
	Token string

	// TLSInsecure skips certificate verification. The gateway ships with
	// a self-signed certificate, so this is normally true.
	TLSInsecure bool

	// RequestTimeout bounds each request end to end.
	// Default: 5 seconds.
	RequestTimeout time.Duration
}

// Transport is the authenticated HTTP client for the vendor gateway.
//
// Every request carries the token header and is bounded by the configured
// timeout. Failures map onto the package's typed errors: ErrAuth for
// 401/403, ErrTransport for network errors and 5xx responses, and
// ErrProtocol for undecodable bodies.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Transport struct {
	host   string
	token  string
	client *http.Client
	logger Logger
}

// NewTransport creates a gateway transport.
func NewTransport(cfg TransportConfig) *Transport {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}
	if cfg.TLSInsecure {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402 -- gateway uses a self-signed certificate on the local network
			},
		}
	}

	return &Transport{
		host:   cfg.Host,
		token:  cfg.Token,
		client: httpClient,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the transport.
func (t *Transport) SetLogger(logger Logger) {
	t.logger = logger
}

// FetchConfig retrieves the gateway's own configuration.
// Used as a startup connectivity and credential check.
func (t *Transport) FetchConfig(ctx context.Context) (*GatewayInfo, error) {
	body, err := t.get(ctx, "/api/junghome/config/")
	if err != nil {
		return nil, err
	}

	var info GatewayInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %w", ErrProtocol, err)
	}
	return &info, nil
}

// FetchFunctions retrieves the full device enumeration.
func (t *Transport) FetchFunctions(ctx context.Context) ([]FunctionDescriptor, error) {
	body, err := t.get(ctx, "/api/junghome/functions/")
	if err != nil {
		return nil, err
	}

	var descriptors []FunctionDescriptor
	if err := json.Unmarshal(body, &descriptors); err != nil {
		return nil, fmt.Errorf("%w: decoding functions: %w", ErrProtocol, err)
	}
	return descriptors, nil
}

// FetchDatapoint retrieves the current values of a single datapoint.
func (t *Transport) FetchDatapoint(ctx context.Context, deviceID, datapointID string) ([]DatapointValue, error) {
	path := fmt.Sprintf("/api/junghome/functions/%s/datapoints/%s", deviceID, datapointID)
	body, err := t.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Values []DatapointValue `json:"values"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding datapoint: %w", ErrProtocol, err)
	}
	return resp.Values, nil
}

// PatchDatapoint writes a single key/value pair to a datapoint.
// All values cross the wire as strings, matching the gateway's API.
func (t *Transport) PatchDatapoint(ctx context.Context, deviceID, datapointID, key, value string) error {
	path := fmt.Sprintf("/api/junghome/functions/%s/datapoints/%s", deviceID, datapointID)
	payload := datapointPatch{
		Data: []DatapointValue{{Key: key, Value: value}},
	}
	return t.patch(ctx, path, payload)
}

// get performs an authenticated GET and returns the response body.
func (t *Transport) get(ctx context.Context, path string) ([]byte, error) {
	url := "https://" + t.host + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("token", t.token)

	return t.do(req)
}

// patch performs an authenticated PATCH with a JSON body.
func (t *Transport) patch(ctx context.Context, path string, body any) error {
	url := "https://" + t.host + path

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("token", t.token)

	_, err = t.do(req)
	return err
}

// do executes a request and maps the outcome onto typed errors.
func (t *Transport) do(req *http.Request) ([]byte, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Nothing to do with a close error here

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrAuth, req.Method, req.URL.Path, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrTransport, req.Method, req.URL.Path, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrProtocol, req.Method, req.URL.Path, resp.StatusCode)
	}

	t.logger.Debug("gateway request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)
	return body, nil
}
