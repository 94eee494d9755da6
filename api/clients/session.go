package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ruteri/tinycert-go/api"
	"github.com/ruteri/tinycert-go/cryptoutils"
	"github.com/ruteri/tinycert-go/interfaces"
)

// DefaultBaseURL is the TinyCert v1 API root.
const DefaultBaseURL = "https://www.tinycert.org/api/v1"

const formContentType = "application/x-www-form-urlencoded"

// Config holds the parameters of a Session.
type Config struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey is the account secret used to sign every request.
	APIKey string

	// Token is an optional session token from an earlier Connect.
	// A session created with a token starts authenticated.
	Token string

	// HTTPClient performs the requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Log receives debug output. Secrets are never logged.
	Log *slog.Logger
}

// Session holds a TinyCert session token and signs every call with the API key.
// A Session is owned by a single caller and is not safe for concurrent use.
type Session struct {
	baseURL    string
	apiKey     []byte
	token      string
	state      interfaces.SessionState
	httpClient *http.Client
	log        *slog.Logger
}

// NewSession creates a session. It is authenticated only if cfg.Token is set.
func NewSession(cfg *Config) *Session {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Session{
		baseURL:    baseURL,
		apiKey:     []byte(cfg.APIKey),
		httpClient: httpClient,
		log:        log,
	}
	if cfg.Token != "" {
		s.token = cfg.Token
		s.state = interfaces.Authenticated
	}
	return s
}

// State returns the current authentication state.
func (s *Session) State() interfaces.SessionState {
	return s.state
}

// Token returns the session token, or "" when unauthenticated.
func (s *Session) Token() string {
	return s.token
}

// Connect authenticates the account and stores the returned session token.
// The connect call never carries an existing token.
func (s *Session) Connect(ctx context.Context, account, passphrase string) error {
	raw, err := s.post(ctx, "connect", interfaces.Params{
		"email":      interfaces.String(account),
		"passphrase": interfaces.String(passphrase),
	})
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}

	var resp api.ConnectResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("could not parse connect response: %w", err)
	}
	if resp.Token == "" {
		return errors.New("connect response did not contain a token")
	}

	s.token = resp.Token
	s.state = interfaces.Authenticated
	s.log.Debug("Session connected")
	return nil
}

// Disconnect retires the session token. The token is cleared only if the call
// succeeds. Disconnecting an unauthenticated session returns ErrNoSession
// without contacting the service.
func (s *Session) Disconnect(ctx context.Context) error {
	if s.state != interfaces.Authenticated {
		return interfaces.ErrNoSession
	}

	if _, err := s.Request(ctx, "disconnect", nil); err != nil {
		return fmt.Errorf("disconnect failed: %w", err)
	}

	s.token = ""
	s.state = interfaces.Unauthenticated
	s.log.Debug("Session disconnected")
	return nil
}

// Request signs params and posts them to path with the session token added.
// It fails with ErrNoSession without contacting the service while the
// session is unauthenticated, so resource clients kept past Disconnect stop
// working. The caller's params are not modified. Non-2xx responses are
// returned as *interfaces.HTTPError; the response body is returned as received.
func (s *Session) Request(ctx context.Context, path string, params interfaces.Params) (json.RawMessage, error) {
	if s.state != interfaces.Authenticated {
		return nil, interfaces.ErrNoSession
	}
	params = params.Clone()
	params["token"] = interfaces.String(s.token)
	return s.post(ctx, path, params)
}

// CA returns the certificate authority API. It fails with ErrNoSession
// until Connect succeeds.
func (s *Session) CA() (*CAClient, error) {
	if s.state != interfaces.Authenticated {
		return nil, interfaces.ErrNoSession
	}
	return NewCAClient(s), nil
}

// Cert returns the certificate API. It fails with ErrNoSession until
// Connect succeeds.
func (s *Session) Cert() (*CertClient, error) {
	if s.state != interfaces.Authenticated {
		return nil, interfaces.ErrNoSession
	}
	return NewCertClient(s), nil
}

func (s *Session) post(ctx context.Context, path string, params interfaces.Params) (json.RawMessage, error) {
	payload, err := cryptoutils.SignPayload(s.apiKey, params)
	if err != nil {
		return nil, fmt.Errorf("could not sign %s request: %w", path, err)
	}

	url := fmt.Sprintf("%s/%s", s.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("Content-Type", formContentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read %s response: %w", path, err)
	}

	s.log.Debug("TinyCert request completed", "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &interfaces.HTTPError{Path: path, StatusCode: resp.StatusCode, Body: body}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("could not parse %s response: %w", path, interfaces.ErrInvalidResponse)
	}
	return json.RawMessage(body), nil
}
