// Package pipeline talks to the external defect-detection microservice.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"airside-bknd/internal/models"
)

// FilePart is one uploaded file buffered in memory, ready to forward.
type FilePart struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Error is a non-2xx reply from the pipeline service. The status and
// body are surfaced to the caller unchanged.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline processing failed: %s", e.Body)
}

// Client calls the pipeline service's /process and /health endpoints.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient returns a client for the pipeline service at baseURL.
// No request timeout is set: processing time scales with video length
// and the request is held open until the pipeline answers.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
	}
}

// Process submits the evidence bundle to the pipeline and decodes its
// structured detection output. A non-2xx reply is returned as *Error
// with the pipeline's status and body.
func (c *Client) Process(ctx context.Context, segmentID, vehicleID int64, video, gpx, imu FilePart) (*models.PipelineResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	// gpx and imu get fixed content types; video keeps whatever the
	// client uploaded.
	videoType := video.ContentType
	if videoType == "" {
		videoType = "application/octet-stream"
	}
	if err := writeFilePart(mw, "video", video.Filename, videoType, video.Data); err != nil {
		return nil, err
	}
	if err := writeFilePart(mw, "gpx", gpx.Filename, "application/gpx+xml", gpx.Data); err != nil {
		return nil, err
	}
	if err := writeFilePart(mw, "imu", imu.Filename, "text/csv", imu.Data); err != nil {
		return nil, err
	}

	if err := mw.WriteField("segment_id", strconv.FormatInt(segmentID, 10)); err != nil {
		return nil, err
	}
	if err := mw.WriteField("vehicle_id", strconv.FormatInt(vehicleID, 10)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pipeline request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result models.PipelineResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.ContractError{Reason: "malformed JSON: " + err.Error()}
	}

	return &result, nil
}

// Health probes the pipeline's /health endpoint and returns its body.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func writeFilePart(mw *multipart.Writer, field, filename, contentType string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}
