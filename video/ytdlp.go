package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"yt2x/config"
	"yt2x/logger"
	"yt2x/types"
)

// YtDlp drives the yt-dlp binary for live-status probing and acquisition.
type YtDlp struct {
	Binary      string
	CookiesFile string
	Run         Runner
	Logger      *log.Logger
}

// NewYtDlp returns a YtDlp using cookies when the file exists.
func NewYtDlp(cookiesFile string) *YtDlp {
	if cookiesFile != "" {
		if _, err := os.Stat(cookiesFile); err != nil {
			cookiesFile = ""
		}
	}
	return &YtDlp{
		Binary:      "yt-dlp",
		CookiesFile: cookiesFile,
		Run:         ExecRunner,
		Logger:      logger.New("yt-dlp"),
	}
}

// LiveStatus reads live_status from `yt-dlp -J`. A missing field means not live.
func (y *YtDlp) LiveStatus(ctx context.Context, id string) (types.LiveStatus, error) {
	out, err := y.Run(ctx, y.Binary, "-J", "--no-playlist", WatchURL(id))
	if err != nil {
		return types.StatusUnknown, fmt.Errorf("yt-dlp -J %s: %w", id, toolError(err))
	}

	var info struct {
		LiveStatus string `json:"live_status"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return types.StatusUnknown, fmt.Errorf("decode yt-dlp info for %s: %w", id, err)
	}
	return types.ParseLiveStatus(info.LiveStatus), nil
}

// Acquire downloads the item. Live streams are captured from the start; everything else is
// cut to the first duration seconds at ≤720p H.264 + m4a.
func (y *YtDlp) Acquire(ctx context.Context, id string, status types.LiveStatus, duration time.Duration, dest string) error {
	args := y.acquireArgs(id, status, duration, dest)
	if _, err := y.Run(ctx, y.Binary, args...); err != nil {
		return fmt.Errorf("yt-dlp download %s: %w", id, toolError(err))
	}
	return nil
}

func (y *YtDlp) acquireArgs(id string, status types.LiveStatus, duration time.Duration, dest string) []string {
	args := []string{"--user-agent", config.BrowserUserAgent}
	if y.CookiesFile != "" {
		args = append(args, "--cookies", y.CookiesFile)
	}
	args = append(args, "-N", "8", "--concurrent-fragments", "8", "--no-part", "--no-playlist", "--force-overwrites")

	if status == types.StatusIsLive {
		args = append(args, "--live-from-start")
	} else {
		secs := strconv.Itoa(int(duration / time.Second))
		args = append(args,
			"-f", "bv*[ext=mp4][vcodec^=avc1][height<=720]+ba[ext=m4a]/mp4",
			"--download-sections", "*0-"+secs,
		)
	}
	return append(args, "-o", dest, WatchURL(id))
}

// EnsureInstalled checks `yt-dlp --version` and re-downloads the binary if it is missing or
// corrupt.
func (y *YtDlp) EnsureInstalled(ctx context.Context) error {
	if _, err := y.Run(ctx, y.Binary, "--version"); err == nil {
		return nil
	}

	y.Logger.Println("yt-dlp missing/corrupt; attempting recovery...")
	if err := downloadBinary(ctx, config.YtDlpReleaseURL, config.YtDlpInstallPath); err != nil {
		return fmt.Errorf("yt-dlp recovery failed: %w", err)
	}
	if _, err := y.Run(ctx, y.Binary, "--version"); err != nil {
		return fmt.Errorf("yt-dlp still broken after recovery: %w", toolError(err))
	}
	y.Logger.Println("yt-dlp recovered")
	return nil
}

func downloadBinary(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download: status %d", resp.StatusCode)
	}

	tmp := dest + ".download"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// toolError appends captured stderr to exec failures so logs show why the tool failed.
func toolError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		stderr := exitErr.Stderr
		if len(stderr) > 512 {
			stderr = stderr[len(stderr)-512:]
		}
		return fmt.Errorf("%w: %s", err, stderr)
	}
	return err
}
