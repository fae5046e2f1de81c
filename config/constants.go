package config

import "time"

// Feed Constants
const (
	// MaxUnseenPerCycle caps how many unseen items a single poll cycle works through
	MaxUnseenPerCycle = 5

	// FeedUserAgent is sent with every feed request
	FeedUserAgent = "yt2x/1.0"
)

// Backoff Constants
const (
	// DefaultRateLimitWindow is used when a rate-limited response carries no reset time
	DefaultRateLimitWindow = 15 * time.Minute

	// MaxJitter bounds the random delay added to every backoff
	MaxJitter = 5 * time.Second
)

// Clip Profile Constants
const (
	// ClipMaxWidth and ClipMaxHeight bound the transcoded frame size
	ClipMaxWidth  = 1280
	ClipMaxHeight = 720

	ClipFrameRate    = 30
	ClipKeyframeGap  = 60
	ClipVideoCodec   = "libx264"
	ClipVideoProfile = "high"
	ClipPixelFormat  = "yuv420p"
	ClipPreset       = "veryfast"

	ClipAudioCodec      = "aac"
	ClipAudioBitrate    = "128k"
	ClipAudioChannels   = 2
	ClipAudioSampleRate = 44100
)

// Publish Constants
const (
	// MaxStatusPolls is how many times media processing status is checked before giving up
	MaxStatusPolls = 40

	// DefaultStatusDelay is used when the server does not suggest a check interval
	DefaultStatusDelay = 2 * time.Second

	// MaxStatusDelay caps the server-suggested check interval
	MaxStatusDelay = 10 * time.Second
)

// Tooling Constants
const (
	// BrowserUserAgent is passed to yt-dlp so requests look like a desktop browser
	BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

	// YtDlpReleaseURL is where a broken yt-dlp binary is re-downloaded from
	YtDlpReleaseURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"

	// YtDlpInstallPath is where the recovered binary is written
	YtDlpInstallPath = "/usr/local/bin/yt-dlp"
)
