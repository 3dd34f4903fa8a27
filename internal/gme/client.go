package gme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kkaya/gmedash/internal/normalize"
	"github.com/kkaya/gmedash/pkg/config"
	"github.com/kkaya/gmedash/pkg/httputil"
	"github.com/kkaya/gmedash/pkg/logger"
)

// Client handles communication with the GME public market results API
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.GMEConfig

	// Token management. The token is shared read-only across
	// concurrent day fetches; refresh is single-flight.
	token       string
	tokenExpiry time.Time
	tokenMu     sync.RWMutex
}

// tokenLifetime is assumed because the auth response carries no expiry.
const tokenLifetime = 50 * time.Minute

// NewClient creates a new GME API client
func NewClient(cfg config.GMEConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

type authResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login authenticates against /Auth and caches the bearer token.
func (c *Client) Login(ctx context.Context) error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	payload := map[string]string{
		"login":    c.cfg.Username,
		"password": c.cfg.Password,
	}

	resp, err := c.httpClient.PostJSON(ctx, c.cfg.BaseURL+"/Auth", payload)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthenticationError{Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth failed with status %d: %s", resp.StatusCode, string(body))
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	if !auth.Success || auth.Token == "" {
		return &AuthenticationError{Reason: auth.Message}
	}

	c.token = auth.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)

	c.logger.Info("GME access token refreshed")
	return nil
}

// getToken returns a valid token, refreshing single-flight when the
// cached one expired.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.RLock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.tokenMu.RUnlock()
		return token, nil
	}
	c.tokenMu.RUnlock()

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Double-check after acquiring write lock
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	if err := c.loginLocked(ctx); err != nil {
		return "", err
	}
	return c.token, nil
}

// invalidateToken drops a token the upstream rejected so the next call
// refreshes.
func (c *Client) invalidateToken(stale string) {
	c.tokenMu.Lock()
	if c.token == stale {
		c.token = ""
	}
	c.tokenMu.Unlock()
}

// requestEnvelope is the RequestData POST body. IntervalStart and
// IntervalEnd are the same day: one request per calendar day keeps
// per-day failure isolation simple.
type requestEnvelope struct {
	Platform      string `json:"Platform"`
	Segment       string `json:"Segment"`
	DataName      string `json:"DataName"`
	IntervalStart string `json:"IntervalStart"`
	IntervalEnd   string `json:"IntervalEnd"`
}

type dataResponse struct {
	ContentResponse string `json:"contentResponse"`
}

// RequestData fetches and decodes one (segment, dataName, day) payload.
func (c *Client) RequestData(ctx context.Context, segment, dataName string, day time.Time) ([]normalize.RawRecord, error) {
	dateStr := day.Format("20060102")

	envelope := requestEnvelope{
		Platform:      "PublicMarketResults",
		Segment:       segment,
		DataName:      dataName,
		IntervalStart: dateStr,
		IntervalEnd:   dateStr,
	}

	body, err := c.authorizedPost(ctx, "/RequestData", envelope)
	if err != nil {
		return nil, err
	}

	var data dataResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &DecodeError{Stage: "json", Err: err}
	}

	if data.ContentResponse == "" {
		// Upstream reported zero rows for the day.
		return nil, nil
	}

	records, err := Decode([]byte(data.ContentResponse))
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"segment":   segment,
		"data_name": dataName,
		"date":      dateStr,
		"records":   len(records),
	}).Debug("GME data decoded")

	return records, nil
}

// authorizedPost sends an authenticated POST, refreshing the token
// once on a 401 before giving up.
func (c *Client) authorizedPost(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.getToken(ctx)
		if err != nil {
			return nil, err
		}

		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &RequestError{Err: err}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			if attempt == 0 {
				c.invalidateToken(token)
				continue
			}
			return nil, &AuthenticationError{Reason: "token rejected after refresh"}
		}

		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, &RequestError{Status: resp.StatusCode}
		}

		return io.ReadAll(resp.Body)
	}

	return nil, &AuthenticationError{Reason: "re-authentication rejected"}
}

// QuotaStatus reports the remaining request allowance for the account.
type QuotaStatus map[string]interface{}

// Quotas fetches the account's remaining upstream request quotas.
func (c *Client) Quotas(ctx context.Context) (QuotaStatus, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/MyQuotas", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{Status: resp.StatusCode}
	}

	var quotas QuotaStatus
	if err := json.NewDecoder(resp.Body).Decode(&quotas); err != nil {
		return nil, fmt.Errorf("decode quotas: %w", err)
	}

	return quotas, nil
}
