package hris

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
)

type submitResponse struct {
	Status  string   `json:"status"`
	Reasons []string `json:"reasons"`
}

type logEntryPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

type todayLogsResponse struct {
	Logs        []logEntryPayload `json:"logs"`
	PunchInTime *string           `json:"punchInTime"`
	LastPunch   *string           `json:"lastPunch"`
}

type serverTimeResponse struct {
	ISOTime string `json:"isoTime"`
}

// Submit sends one multipart punch and classifies the response. Failures are
// folded into the Outcome; this method never panics an attempt mid-flight.
func (c *Client) Submit(ctx context.Context, sub punch.Submission) punch.Outcome {
	body, contentType, err := buildMultipart(sub)
	if err != nil {
		return punch.Outcome{Kind: punch.OutcomeFailure, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/attendance/log", body)
	if err != nil {
		return punch.Outcome{Kind: punch.OutcomeFailure, Err: fmt.Errorf("%w: %v", punch.ErrUnknown, err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.upload.Do(req)
	if err != nil {
		return punch.Outcome{Kind: punch.OutcomeFailure, Err: classifyTransportError(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return punch.Outcome{Kind: punch.OutcomeFailure, Err: fmt.Errorf("%w: %v", punch.ErrUnknown, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return punch.Outcome{
			Kind: punch.OutcomeFailure,
			Err: &punch.ServerError{
				StatusCode: resp.StatusCode,
				Message:    serverMessage(raw),
			},
		}
	}

	var parsed submitResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return punch.Outcome{Kind: punch.OutcomeFailure, Err: fmt.Errorf("%w: unreadable response: %v", punch.ErrUnknown, err)}
	}

	switch parsed.Status {
	case "success":
		return punch.Outcome{Kind: punch.OutcomeSuccess, Status: parsed.Status}
	case "anomaly":
		return punch.Outcome{Kind: punch.OutcomeAnomaly, Status: parsed.Status, Reasons: parsed.Reasons}
	default:
		return punch.Outcome{Kind: punch.OutcomeOther, Status: parsed.Status}
	}
}

// TodayLogs fetches today's attendance events and derives State from them.
// The derivation runs on every fetch; nothing is cached across days.
func (c *Client) TodayLogs(ctx context.Context, organizationID, userID string) (punch.State, error) {
	endpoint, err := url.Parse(c.baseURL + "/attendance/today-logs")
	if err != nil {
		return punch.State{}, fmt.Errorf("invalid base URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("organizationId", organizationID)
	q.Set("userId", userID)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return punch.State{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return punch.State{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return punch.State{}, &punch.ServerError{StatusCode: resp.StatusCode, Message: serverMessage(raw)}
	}

	var payload todayLogsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return punch.State{}, fmt.Errorf("failed to decode today-logs response: %w", err)
	}

	logs := make([]punch.LogEntry, 0, len(payload.Logs))
	for _, entry := range payload.Logs {
		ts, ok := parseISO(entry.Timestamp)
		if !ok {
			continue
		}
		logs = append(logs, punch.LogEntry{
			ID:        entry.ID,
			Type:      punch.Mode(entry.Type),
			Timestamp: ts,
		})
	}

	return punch.Derive(logs, parseISOPtr(payload.PunchInTime), parseISOPtr(payload.LastPunch), time.Now()), nil
}

// ServerTime fetches the backend's current time for the display clock.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/common/time/now", nil)
	if err != nil {
		return time.Time{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return time.Time{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("time endpoint returned status %d", resp.StatusCode)
	}

	var payload serverTimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode server time: %w", err)
	}

	ts, ok := parseISO(payload.ISOTime)
	if !ok {
		return time.Time{}, fmt.Errorf("server returned unparseable time %q", payload.ISOTime)
	}
	return ts, nil
}

func buildMultipart(sub punch.Submission) (io.Reader, string, error) {
	photo, err := os.Open(sub.PhotoPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: cannot read captured image: %v", punch.ErrCaptureFailed, err)
	}
	defer photo.Close()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	fields := map[string]string{
		"organizationId":       sub.OrganizationID,
		"userId":               sub.UserID,
		"source":               string(sub.Source),
		"timestamp":            sub.Timestamp.Format(time.RFC3339),
		"latitude":             strconv.FormatFloat(sub.Latitude, 'f', 6, 64),
		"longitude":            strconv.FormatFloat(sub.Longitude, 'f', 6, 64),
		"locationAddress":      sub.LocationAddress,
		"wifiSsid":             sub.WifiSSID,
		"wifiBssid":            sub.WifiBSSID,
		"deviceInfo":           sub.DeviceInfo,
		"enableFaceValidation": strconv.FormatBool(sub.EnableFaceValidation),
		"enableWifiValidation": strconv.FormatBool(sub.EnableWifiValidation),
		"enableGPSValidation":  strconv.FormatBool(sub.EnableGPSValidation),
		"mode":                 string(sub.Mode),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile("photo", filepath.Base(sub.PhotoPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create photo part: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return nil, "", fmt.Errorf("%w: cannot read captured image: %v", punch.ErrCaptureFailed, err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return buf, writer.FormDataContentType(), nil
}

func serverMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	msg := string(raw)
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return msg
}

func parseISO(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, true
	}
	t, err = time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}

func parseISOPtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := parseISO(*s)
	if !ok {
		return nil
	}
	return &t
}
