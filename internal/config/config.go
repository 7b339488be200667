package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/timeline/backend-go/internal/engine"
)

type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`

	// SampleContent seeds new rooms with the demo timeline instead of an
	// empty two-track layout.
	SampleContent bool `envconfig:"SAMPLE_CONTENT" default:"true"`

	Timeline Timeline `envconfig:"TIMELINE"`
}

// Timeline mirrors engine.Settings. Read as TIMELINE_<NAME>.
type Timeline struct {
	MinZoom           float64 `envconfig:"MIN_ZOOM" default:"0.1"`
	MaxZoom           float64 `envconfig:"MAX_ZOOM" default:"10"`
	MinPlaybackRate   float64 `envconfig:"MIN_PLAYBACK_RATE" default:"0.25"`
	MaxPlaybackRate   float64 `envconfig:"MAX_PLAYBACK_RATE" default:"4"`
	SnapThreshold     float64 `envconfig:"SNAP_THRESHOLD" default:"0.5"`
	GridSize          float64 `envconfig:"GRID_SIZE" default:"1"`
	TrackAreaWidth    float64 `envconfig:"TRACK_AREA_WIDTH" default:"1000"`
	MinClipDuration   float64 `envconfig:"MIN_CLIP_DURATION" default:"0.1"`
	Duration          float64 `envconfig:"DURATION" default:"300"`
	ViewportSpan      float64 `envconfig:"VIEWPORT_SPAN" default:"60"`
	HistoryLimit      int     `envconfig:"HISTORY_LIMIT" default:"100"`
	EnforceTrackKinds bool    `envconfig:"ENFORCE_TRACK_KINDS" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EngineSettings converts the TIMELINE_* block.
func (c *Config) EngineSettings() engine.Settings {
	t := c.Timeline
	return engine.Settings{
		MinZoom:           t.MinZoom,
		MaxZoom:           t.MaxZoom,
		MinPlaybackRate:   t.MinPlaybackRate,
		MaxPlaybackRate:   t.MaxPlaybackRate,
		SnapThreshold:     t.SnapThreshold,
		GridSize:          t.GridSize,
		TrackAreaWidth:    t.TrackAreaWidth,
		MinClipDuration:   t.MinClipDuration,
		Duration:          t.Duration,
		ViewportSpan:      t.ViewportSpan,
		HistoryLimit:      t.HistoryLimit,
		EnforceTrackKinds: t.EnforceTrackKinds,
	}
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginPatterns returns the allowed origins as host patterns for the
// websocket handshake, which matches on host only.
func (c *Config) OriginPatterns() []string {
	origins := c.Origins()
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}
