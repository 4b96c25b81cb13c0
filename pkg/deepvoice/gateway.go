package deepvoice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BackendGateway is the network boundary of the session. Each method is
// a single request/response exchange; failures surface once, uncombined
// with any retry policy, so the state machine stays the only place that
// decides what happens next.
type BackendGateway struct {
	baseURL    string
	authToken  *string
	httpClient *http.Client
	logger     *VoiceLogger
	debug      bool
}

func NewBackendGateway(config *ClientConfig) *BackendGateway {
	if config == nil {
		config = NewClientConfig()
	}
	return &BackendGateway{
		baseURL:   strings.TrimRight(config.BackendURL, "/"),
		authToken: config.AuthToken,
		debug:     config.DebugHTTP,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeout * float64(time.Second)),
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		logger: GetGlobalLogger().WithComponent("BackendGateway"),
	}
}

// InitSession issues the init call and returns the backend-assigned
// session identity plus the greeting clip reference.
func (g *BackendGateway) InitSession(ctx context.Context) (*SessionInfo, *VoiceError) {
	body, vErr := g.exchange(ctx, http.MethodGet, "/api/init", "", nil)
	if vErr != nil {
		return nil, vErr
	}

	var info SessionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, NewTransportError("malformed init response").AddDetail("cause", err.Error())
	}
	if info.UserID == "" {
		return nil, NewTransportError("init response missing user_id")
	}

	return &info, nil
}

// SubmitTurn uploads one captured clip for the given session and mode.
// A transport failure and a server-reported rejection come back with
// distinguishable codes (see IsTransportFailure).
func (g *BackendGateway) SubmitTurn(ctx context.Context, userID string, clip CapturedClip, mode TurnMode) (*TurnResult, *VoiceError) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("user_id", userID); err != nil {
		return nil, WrapError(err, ErrCodeUnknown)
	}
	if err := writer.WriteField("mode", string(mode)); err != nil {
		return nil, WrapError(err, ErrCodeUnknown)
	}

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="audio"; filename="input.wav"`},
		"Content-Type":        {clip.MimeType},
	})
	if err != nil {
		return nil, WrapError(err, ErrCodeUnknown)
	}
	if _, err := part.Write(clip.Data); err != nil {
		return nil, WrapError(err, ErrCodeUnknown)
	}
	if err := writer.Close(); err != nil {
		return nil, WrapError(err, ErrCodeUnknown)
	}

	body, vErr := g.exchange(ctx, http.MethodPost, "/api/voice", writer.FormDataContentType(), &buf)
	if vErr != nil {
		return nil, vErr
	}

	var result struct {
		TurnResult
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, NewTransportError("malformed turn response").AddDetail("cause", err.Error())
	}
	if result.Error != "" {
		return nil, NewBackendError(result.Error)
	}

	return &result.TurnResult, nil
}

// EndSession issues the end-of-session call. Tolerant of sessions that
// never completed a turn.
func (g *BackendGateway) EndSession(ctx context.Context, userID string) (*SessionEnd, *VoiceError) {
	payload, err := json.Marshal(map[string]string{"user_id": userID})
	if err != nil {
		return nil, WrapError(err, ErrCodeUnknown)
	}

	body, vErr := g.exchange(ctx, http.MethodPost, "/api/stop", "application/json", bytes.NewReader(payload))
	if vErr != nil {
		return nil, vErr
	}

	var result struct {
		SessionEnd
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, NewTransportError("malformed stop response").AddDetail("cause", err.Error())
	}
	if result.Error != "" {
		return nil, NewBackendError(result.Error)
	}

	return &result.SessionEnd, nil
}

// ResolveAudioURL resolves a clip reference from a backend response
// against the backend origin. Absolute references pass through.
func (g *BackendGateway) ResolveAudioURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return g.baseURL + ref
}

// exchange performs one HTTP round trip and translates the outcome into
// the session's error vocabulary: transport failures and timeouts keep
// their own codes, non-2xx responses surface the server's message
// verbatim as backend errors.
func (g *BackendGateway) exchange(ctx context.Context, method, endpoint, contentType string, reqBody io.Reader) ([]byte, *VoiceError) {
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, WrapError(err, ErrCodeUnknown)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", "DeepVoice-Go/1.0")
	req.Header.Set("X-Request-ID", requestID)
	if g.authToken != nil {
		req.Header.Set("Authorization", "Bearer "+*g.authToken)
	}

	if g.debug {
		g.logger.WithFields(map[string]interface{}{
			"method":     method,
			"endpoint":   endpoint,
			"request_id": requestID,
		}).Debug("Backend request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, NewTimeoutError("backend did not respond in time").AddDetail("request_id", requestID)
		}
		return nil, WrapError(err, ErrCodeTransport).AddDetail("request_id", requestID)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(err, ErrCodeTransport).AddDetail("request_id", requestID)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := extractErrorMessage(respBody)
		if message == "" {
			message = fmt.Sprintf("backend returned %s", http.StatusText(resp.StatusCode))
		}
		return nil, NewBackendError(message).
			AddDetail("status_code", resp.StatusCode).
			AddDetail("request_id", requestID)
	}

	return respBody, nil
}

// extractErrorMessage pulls the structured error field out of a non-2xx
// body so the user sees the server's own words.
func extractErrorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
