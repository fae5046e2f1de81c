package xapi

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
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"yt2x/config"
	"yt2x/ratelimit"
	"yt2x/types"
)

// ChunkSize is the APPEND segment size for chunked media uploads.
const ChunkSize = 4 << 20

// APIError is a non-2xx, non-429 response from the X API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("x api: status %d: %s", e.Status, e.Body)
}

// Client talks to the X API v2 with a user-context OAuth 2.0 token.
type Client struct {
	baseURL   string
	http      *http.Client
	chunkSize int
}

// NewClient builds a client whose transport refreshes the access token as needed. With no
// access token set, the first request triggers a refresh.
func NewClient(ctx context.Context, cfg config.XConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  base + "/2/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	tok := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
	}
	return NewClientWithHTTP(base, oc.Client(ctx, tok))
}

// NewClientWithHTTP uses hc as-is; the caller owns authentication.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, chunkSize: ChunkSize}
}

// WhoAmI returns the username of the authenticated account.
func (c *Client) WhoAmI(ctx context.Context) (string, error) {
	var resp struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/2/users/me", nil, "", &resp); err != nil {
		return "", err
	}
	return resp.Data.Username, nil
}

type processingInfo struct {
	State          string `json:"state"`
	CheckAfterSecs int    `json:"check_after_secs"`
	Error          *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type mediaResponse struct {
	Data struct {
		ID             string          `json:"id"`
		ProcessingInfo *processingInfo `json:"processing_info"`
	} `json:"data"`
}

// UploadMedia uploads the file at path with the chunked INIT/APPEND/FINALIZE flow and returns
// the media id.
func (c *Client) UploadMedia(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open media file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat media file: %w", err)
	}

	var initResp mediaResponse
	form := url.Values{
		"command":        {"INIT"},
		"media_type":     {"video/mp4"},
		"media_category": {"tweet_video"},
		"total_bytes":    {strconv.FormatInt(info.Size(), 10)},
	}
	if err := c.do(ctx, http.MethodPost, "/2/media/upload", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &initResp); err != nil {
		return "", fmt.Errorf("media INIT: %w", err)
	}
	mediaID := initResp.Data.ID
	if mediaID == "" {
		return "", fmt.Errorf("media INIT: empty media id")
	}

	buf := make([]byte, c.chunkSize)
	for segment := 0; ; segment++ {
		n, readErr := io.ReadFull(f, buf)
		if n > 0 {
			if err := c.appendChunk(ctx, mediaID, segment, buf[:n]); err != nil {
				return "", fmt.Errorf("media APPEND segment %d: %w", segment, err)
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("failed to read media file: %w", readErr)
		}
	}

	form = url.Values{"command": {"FINALIZE"}, "media_id": {mediaID}}
	var fin mediaResponse
	if err := c.do(ctx, http.MethodPost, "/2/media/upload", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &fin); err != nil {
		return "", fmt.Errorf("media FINALIZE: %w", err)
	}
	return mediaID, nil
}

func (c *Client) appendChunk(ctx context.Context, mediaID string, segment int, chunk []byte) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range [][2]string{
		{"command", "APPEND"},
		{"media_id", mediaID},
		{"segment_index", strconv.Itoa(segment)},
	} {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("media", "clip.mp4")
	if err != nil {
		return err
	}
	if _, err := part.Write(chunk); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/2/media/upload", &body, w.FormDataContentType(), nil)
}

// MediaStatus reports server-side processing. Media without processing info is ready.
func (c *Client) MediaStatus(ctx context.Context, mediaID string) (types.MediaStatus, error) {
	q := url.Values{"command": {"STATUS"}, "media_id": {mediaID}}
	var resp mediaResponse
	if err := c.do(ctx, http.MethodGet, "/2/media/upload?"+q.Encode(), nil, "", &resp); err != nil {
		return types.MediaStatus{}, err
	}

	pi := resp.Data.ProcessingInfo
	if pi == nil {
		return types.MediaStatus{State: types.MediaSucceeded}, nil
	}
	status := types.MediaStatus{
		State:      types.MediaState(pi.State),
		CheckAfter: time.Duration(pi.CheckAfterSecs) * time.Second,
	}
	if pi.Error != nil {
		status.Error = pi.Error.Message
	}
	return status, nil
}

// CreatePost publishes text with optional media and returns the post id.
func (c *Client) CreatePost(ctx context.Context, text string, mediaIDs []string) (string, error) {
	payload := map[string]any{"text": text}
	if len(mediaIDs) > 0 {
		payload["media"] = map[string]any{"media_ids": mediaIDs}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/2/tweets", bytes.NewReader(body), "application/json", &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr := &APIError{Status: resp.StatusCode, Body: string(data)}
		return ratelimit.FromStatus("x", resp.StatusCode, resetTime(resp.Header), apiErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// resetTime parses x-rate-limit-reset (epoch seconds). Zero when absent or malformed.
func resetTime(h http.Header) time.Time {
	v := h.Get("x-rate-limit-reset")
	if v == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}
