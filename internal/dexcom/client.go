// Package dexcom implements the narrow Dexcom Share client contract used
// by the refresh engine: authenticate an account and read the latest
// glucose value.
package dexcom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"glucobar/internal/core/model"

	"go.uber.org/zap"
)

// Share API application id published for third-party clients.
const applicationID = "d89443d2-327c-4a6f-89e5-496bbb0317db"

const (
	authenticatePath  = "/General/AuthenticatePublisherAccount"
	loginPath         = "/General/LoginPublisherAccountById"
	latestReadingPath = "/Publisher/ReadPublisherLatestGlucoseValues"
)

var regionBaseURLs = map[model.Region]string{
	model.RegionUS:  "https://share2.dexcom.com/ShareWebServices/Services",
	model.RegionOUS: "https://shareous1.dexcom.com/ShareWebServices/Services",
	model.RegionJP:  "https://share.dexcom.jp/ShareWebServices/Services",
}

// ErrUnauthorized indicates the account credentials were rejected.
var ErrUnauthorized = errors.New("dexcom: credentials rejected")

// ErrSessionExpired indicates the session id is no longer valid.
var ErrSessionExpired = errors.New("dexcom: session expired")

// Session is the opaque proof of authentication returned by Authenticate.
// It is bound to the server cluster that issued it.
type Session struct {
	ID      string
	BaseURL string
}

// Client talks to the Dexcom Share service.
type Client struct {
	httpClient *http.Client
	log        *zap.Logger

	// baseURL overrides the per-region URL when non-empty (tests).
	baseURL string
}

// NewClient creates a Share client with the given timeout applied to
// every request.
func NewClient(timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Authenticate performs the two-step Share login: resolve the account id,
// then open a publisher session for it.
func (client *Client) Authenticate(ctx context.Context, credentials model.Credentials) (Session, error) {
	baseURL, err := client.resolveBaseURL(credentials.Region)
	if err != nil {
		return Session{}, err
	}

	accountID, err := client.postForString(ctx, baseURL+authenticatePath, map[string]string{
		"accountName":   credentials.Username,
		"password":      credentials.Password,
		"applicationId": applicationID,
	})
	if err != nil {
		return Session{}, fmt.Errorf("authenticate account: %w", err)
	}

	sessionID, err := client.postForString(ctx, baseURL+loginPath, map[string]string{
		"accountId":     accountID,
		"password":      credentials.Password,
		"applicationId": applicationID,
	})
	if err != nil {
		return Session{}, fmt.Errorf("login account: %w", err)
	}

	client.log.Debug("session opened", zap.String("region", string(credentials.Region)))
	return Session{ID: sessionID, BaseURL: baseURL}, nil
}

// CurrentReading returns the latest glucose value for the session, or
// (nil, nil) when the provider reports no current reading.
func (client *Client) CurrentReading(ctx context.Context, session Session) (*model.Reading, error) {
	url := fmt.Sprintf("%s%s?sessionId=%s&minutes=1440&maxCount=1", session.BaseURL, latestReadingPath, session.ID)
	body, err := client.post(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var values []shareGlucoseValue
	if err := json.Unmarshal(body, &values); err != nil {
		return nil, fmt.Errorf("decode glucose values: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	value := values[0]
	reading := &model.Reading{
		Value:      value.Value,
		Trend:      trendFromShare(value.Trend),
		ObservedAt: parseShareTime(value.WT),
	}
	return reading, nil
}

type shareGlucoseValue struct {
	WT    string `json:"WT"`
	Value int    `json:"Value"`
	Trend string `json:"Trend"`
}

type shareError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

func (client *Client) resolveBaseURL(region model.Region) (string, error) {
	if client.baseURL != "" {
		return client.baseURL, nil
	}
	baseURL, ok := regionBaseURLs[region]
	if !ok {
		return "", fmt.Errorf("unsupported region %q", region)
	}
	return baseURL, nil
}

// postForString handles Share endpoints that return a bare quoted string.
func (client *Client) postForString(ctx context.Context, url string, payload map[string]string) (string, error) {
	body, err := client.post(ctx, url, payload)
	if err != nil {
		return "", err
	}

	var value string
	if err := json.Unmarshal(body, &value); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if value == "" {
		return "", errors.New("empty response value")
	}
	return value, nil
}

func (client *Client) post(ctx context.Context, url string, payload map[string]string) ([]byte, error) {
	var requestBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		requestBody = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, requestBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("share request: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, classifyShareError(response.StatusCode, body)
	}
	return body, nil
}

// classifyShareError maps the provider's {Code, Message} failure payload
// onto the client's sentinel errors.
func classifyShareError(status int, body []byte) error {
	var payload shareError
	if err := json.Unmarshal(body, &payload); err != nil || payload.Code == "" {
		return fmt.Errorf("share request failed: status %d", status)
	}

	switch {
	case payload.Code == "SessionIdNotFound" || payload.Code == "SessionNotValid":
		return fmt.Errorf("%w: %s", ErrSessionExpired, payload.Code)
	case payload.Code == "AccountPasswordInvalid" || strings.HasPrefix(payload.Code, "SSO_"):
		return fmt.Errorf("%w: %s", ErrUnauthorized, payload.Code)
	}
	return fmt.Errorf("share request failed: %s: %s", payload.Code, payload.Message)
}

// parseShareTime decodes the "Date(1699999999000)" wire format. A zero
// time is returned for malformed values; the reading itself stays usable.
func parseShareTime(value string) time.Time {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(value, "Date("), ")")
	if trimmed == "" {
		return time.Time{}
	}
	// Some clusters append a timezone offset after the millisecond epoch.
	if idx := strings.IndexAny(trimmed[1:], "+-"); idx >= 0 {
		trimmed = trimmed[:idx+1]
	}
	millis, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}

func trendFromShare(trend string) model.Trend {
	switch trend {
	case "Flat":
		return model.TrendSteady
	case "FortyFiveUp", "SingleUp", "DoubleUp":
		return model.TrendRising
	case "FortyFiveDown", "SingleDown", "DoubleDown":
		return model.TrendFalling
	}
	return model.TrendUnknown
}
