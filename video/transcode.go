package video

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"yt2x/config"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpeg transcodes acquired files into the clip profile the platform previews reliably:
// ≤1280x720, H.264 high yuv420p, faststart, closed 60-frame GOP, AAC-LC stereo 44.1kHz.
type FFmpeg struct {
	Binary string
	Run    Runner
}

// NewFFmpeg returns a transcoder using the ffmpeg binary on PATH.
func NewFFmpeg() *FFmpeg {
	return &FFmpeg{Binary: "ffmpeg", Run: ExecRunner}
}

// Transcode writes dst, overwriting any existing file.
func (f *FFmpeg) Transcode(ctx context.Context, src, dst string, duration time.Duration) error {
	if _, err := f.Run(ctx, f.Binary, TranscodeArgs(src, dst, duration)...); err != nil {
		return fmt.Errorf("ffmpeg failed: %w", toolError(err))
	}
	return nil
}

// TranscodeArgs builds the ffmpeg command line for the clip profile.
func TranscodeArgs(src, dst string, duration time.Duration) []string {
	secs := strconv.Itoa(int(duration / time.Second))
	scale := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease,fps=%d",
		config.ClipMaxWidth, config.ClipMaxHeight, config.ClipFrameRate)

	return ffmpeg.Input(src, ffmpeg.KwArgs{"ss": "0", "t": secs}).
		Output(dst, ffmpeg.KwArgs{
			"vf":           scale,
			"c:v":          config.ClipVideoCodec,
			"profile:v":    config.ClipVideoProfile,
			"pix_fmt":      config.ClipPixelFormat,
			"preset":       config.ClipPreset,
			"movflags":     "+faststart",
			"g":            config.ClipKeyframeGap,
			"keyint_min":   config.ClipKeyframeGap,
			"sc_threshold": 0,
			"c:a":          config.ClipAudioCodec,
			"b:a":          config.ClipAudioBitrate,
			"ac":           config.ClipAudioChannels,
			"ar":           config.ClipAudioSampleRate,
		}).
		OverWriteOutput().
		GetArgs()
}
