package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "YT2X_CONFIG"

// ErrMissingFeedURL is returned by Validate when no feed is configured.
var ErrMissingFeedURL = errors.New("FEED_URL is required")

// Config holds every runtime setting of the daemon and its operator tools.
type Config struct {
	Feed    FeedConfig    `yaml:"feed"`
	Clip    ClipConfig    `yaml:"clip"`
	Publish PublishConfig `yaml:"publish"`
	X       XConfig       `yaml:"x"`
	YouTube YouTubeConfig `yaml:"youtube"`
	Cursor  CursorConfig  `yaml:"cursor"`
	S3      S3Config      `yaml:"s3"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Server  ServerConfig  `yaml:"server"`
}

// FeedConfig describes where and how often to poll.
type FeedConfig struct {
	URL         string `yaml:"url"`
	PollSeconds int    `yaml:"pollSeconds"`
}

// ClipConfig controls acquisition and the local work area.
type ClipConfig struct {
	Seconds       int    `yaml:"seconds"`
	MaxRetries    int    `yaml:"maxRetries"`
	RetryDelaySec int    `yaml:"retryDelaySeconds"`
	WorkDir       string `yaml:"workDir"`
	CookiesFile   string `yaml:"cookiesFile"`
	HeartbeatFile string `yaml:"heartbeatFile"`
}

// PublishConfig holds the administrative switches around posting.
type PublishConfig struct {
	DryRun            bool   `yaml:"dryRun"`
	SkipIdentityCheck bool   `yaml:"skipIdentityCheck"`
	AllowLinkFallback bool   `yaml:"allowLinkFallback"`
	ExpectedUsername  string `yaml:"expectedUsername"`
}

// XConfig carries the OAuth2 user-context credentials for the X API.
type XConfig struct {
	BaseURL      string `yaml:"baseUrl"`
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	AccessToken  string `yaml:"accessToken"`
	RefreshToken string `yaml:"refreshToken"`
}

// YouTubeConfig enables the Data API live-status prober when an API key is set.
type YouTubeConfig struct {
	APIKey string `yaml:"apiKey"`
}

// CursorConfig selects the cursor backend.
type CursorConfig struct {
	Backend       string `yaml:"backend"` // file, redis, postgres
	File          string `yaml:"file"`
	Key           string `yaml:"key"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`
	DatabaseDSN   string `yaml:"databaseDsn"`
}

// S3Config enables archiving published clips. Bucket empty disables it.
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"usePathStyle"`
}

// KafkaConfig enables posted events and remote cursor overrides. No brokers disables it.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	PostedTopic   string   `yaml:"postedTopic"`
	CommandsTopic string   `yaml:"commandsTopic"`
	GroupID       string   `yaml:"groupId"`
}

// ServerConfig configures the status API.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// PollInterval returns the configured poll cadence.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Feed.PollSeconds) * time.Second
}

// ClipDuration returns the teaser window measured from the start of the item.
func (c Config) ClipDuration() time.Duration {
	return time.Duration(c.Clip.Seconds) * time.Second
}

// RetryDelay returns the pause between acquisition attempts.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Clip.RetryDelaySec) * time.Second
}

// Validate reports settings the daemon cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Feed.URL) == "" {
		return ErrMissingFeedURL
	}
	return nil
}

// Load reads the YAML file named by YT2X_CONFIG (if any) and applies environment overrides.
// Callers are expected to have run godotenv.Load beforehand.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = Default()
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Feed: FeedConfig{PollSeconds: 120},
		Clip: ClipConfig{
			Seconds:       90,
			MaxRetries:    2,
			RetryDelaySec: 60,
			WorkDir:       ".",
			CookiesFile:   "/cookies/youtube.txt",
			HeartbeatFile: "/var/lib/yt2x/heartbeat",
		},
		X: XConfig{BaseURL: "https://api.x.com"},
		Cursor: CursorConfig{
			Backend:   "file",
			File:      "/var/lib/yt2x/last.txt",
			Key:       "yt2x:cursor",
			RedisAddr: "localhost:6379",
		},
		Kafka: KafkaConfig{
			PostedTopic:   "yt2x-posted",
			CommandsTopic: "yt2x-commands",
			GroupID:       "yt2x-consumer-group",
		},
		Server: ServerConfig{Port: "8080"},
	}
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Feed.URL, "FEED_URL")
	setInt(&c.Feed.PollSeconds, "POLL_SECONDS")

	setInt(&c.Clip.Seconds, "TEASER_SECONDS")
	setInt(&c.Clip.MaxRetries, "MAX_RETRIES")
	setInt(&c.Clip.RetryDelaySec, "RETRY_DELAY_S")
	setString(&c.Clip.WorkDir, "WORK_DIR")
	setString(&c.Clip.CookiesFile, "COOKIES_FILE")
	setString(&c.Clip.HeartbeatFile, "HEARTBEAT_FILE")

	setFlag(&c.Publish.DryRun, "DRY_RUN")
	setFlag(&c.Publish.SkipIdentityCheck, "SKIP_IDENTITY_CHECK")
	setFlag(&c.Publish.AllowLinkFallback, "ALLOW_LINK_FALLBACK")
	setString(&c.Publish.ExpectedUsername, "X_EXPECTED_USERNAME")

	setString(&c.X.BaseURL, "X_API_BASE_URL")
	setString(&c.X.ClientID, "X_CLIENT_ID")
	setString(&c.X.ClientSecret, "X_CLIENT_SECRET")
	setString(&c.X.AccessToken, "X_ACCESS_TOKEN")
	setString(&c.X.RefreshToken, "X_REFRESH_TOKEN")

	setString(&c.YouTube.APIKey, "YOUTUBE_API_KEY")

	setString(&c.Cursor.Backend, "CURSOR_BACKEND")
	setString(&c.Cursor.File, "STATE_FILE")
	setString(&c.Cursor.Key, "CURSOR_KEY")
	setString(&c.Cursor.RedisAddr, "REDIS_ADDR")
	setString(&c.Cursor.RedisPassword, "REDIS_PASS")
	setInt(&c.Cursor.RedisDB, "REDIS_DB")
	setString(&c.Cursor.DatabaseDSN, "DATABASE_DSN")

	setString(&c.S3.Bucket, "S3_BUCKET")
	setString(&c.S3.Region, "S3_REGION")
	setString(&c.S3.Profile, "S3_PROFILE")
	setString(&c.S3.Prefix, "S3_PREFIX")
	if v := strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")); v != "" {
		c.S3.UsePathStyle = strings.EqualFold(v, "true") || v == "1"
	}

	if v := strings.TrimSpace(os.Getenv("KAFKA_BOOTSTRAP_SERVERS")); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	setString(&c.Kafka.PostedTopic, "KAFKA_TOPIC_POSTED")
	setString(&c.Kafka.CommandsTopic, "KAFKA_TOPIC_COMMANDS")
	setString(&c.Kafka.GroupID, "KAFKA_CONSUMER_GROUP_ID")

	setString(&c.Server.Port, "PORT")
}

func (c *Config) normalize() {
	c.Feed.URL = ResolveFeedURL(c.Feed.URL)
	c.Cursor.Backend = strings.ToLower(strings.TrimSpace(c.Cursor.Backend))
	if c.Cursor.Backend == "" {
		c.Cursor.Backend = "file"
	}
	c.Publish.ExpectedUsername = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Publish.ExpectedUsername)), "@")
	if c.S3.Prefix != "" {
		c.S3.Prefix = strings.Trim(c.S3.Prefix, "/") + "/"
	}
	if c.Feed.PollSeconds <= 0 {
		c.Feed.PollSeconds = Default().Feed.PollSeconds
	}
	if c.Clip.Seconds <= 0 {
		c.Clip.Seconds = Default().Clip.Seconds
	}
	if c.Clip.MaxRetries < 0 {
		c.Clip.MaxRetries = 0
	}
	if c.Clip.RetryDelaySec < 0 {
		c.Clip.RetryDelaySec = 0
	}
	brokers := c.Kafka.Brokers[:0]
	for _, b := range c.Kafka.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.Kafka.Brokers = brokers
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

// setFlag treats "1" and "true" as enabled, matching the DRY_RUN=1 convention.
func setFlag(dst *bool, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	*dst = v == "1" || strings.EqualFold(v, "true")
}
