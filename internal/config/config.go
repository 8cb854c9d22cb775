// Package config loads portalmap settings from defaults, portalmap.yaml,
// PORTALMAP_* environment variables and command-line flags.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/portalmap/pkg/cache"
	"github.com/matzehuels/portalmap/pkg/canvas"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/source"
)

// Defaults.
const (
	DefaultAddr     = ":8080"
	DefaultWidth    = 1280
	DefaultCacheTTL = 24 * time.Hour
	DefaultFile     = "portalmap.yaml"
)

// Config is the merged configuration.
type Config struct {
	Addr           string        `koanf:"addr"`
	Descriptor     string        `koanf:"descriptor"`
	Watch          bool          `koanf:"watch"`
	Width          float64       `koanf:"width"`
	SettleDelay    time.Duration `koanf:"settle_delay"`
	ResizeDebounce time.Duration `koanf:"resize_debounce"`
	Verbose        bool          `koanf:"verbose"`

	Route RouteConfig `koanf:"route"`
	Cache CacheConfig `koanf:"cache"`
	Redis RedisConfig `koanf:"redis"`
	Mongo MongoConfig `koanf:"mongo"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

type RouteConfig struct {
	LateralThreshold float64 `koanf:"lateral_threshold"`
	BusOffset        float64 `koanf:"bus_offset"`
	StrokeWidth      float64 `koanf:"stroke_width"`
}

type CacheConfig struct {
	Backend string        `koanf:"backend"`
	Dir     string        `koanf:"dir"`
	TTL     time.Duration `koanf:"ttl"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

type MongoConfig struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
	Name       string `koanf:"name"`
}

func defaults() map[string]any {
	ro := route.DefaultOptions()
	return map[string]any{
		"addr":                    DefaultAddr,
		"descriptor":              "",
		"watch":                   false,
		"width":                   DefaultWidth,
		"settle_delay":            canvas.DefaultSettleDelay.String(),
		"resize_debounce":         "0s",
		"verbose":                 false,
		"route.lateral_threshold": ro.LateralThreshold,
		"route.bus_offset":        ro.BusOffset,
		"route.stroke_width":      ro.StrokeWidth,
		"cache.backend":           cache.BackendNone,
		"cache.dir":               "",
		"cache.ttl":               DefaultCacheTTL.String(),
		"redis.addr":              "localhost:6379",
		"redis.db":                0,
		"redis.prefix":            "portalmap:",
		"mongo.database":          "portalmap",
		"mongo.collection":        "diagrams",
		"mongo.name":              "default",
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %g", c.Width)
	}
	if c.SettleDelay < 0 || c.ResizeDebounce < 0 {
		return fmt.Errorf("settle_delay and resize_debounce must not be negative")
	}
	if c.Route.LateralThreshold < 0 {
		return fmt.Errorf("route.lateral_threshold must not be negative")
	}
	if c.Route.StrokeWidth <= 0 {
		return fmt.Errorf("route.stroke_width must be positive")
	}
	switch c.Cache.Backend {
	case cache.BackendNone, cache.BackendFile, cache.BackendRedis:
	default:
		return fmt.Errorf("cache.backend must be none, file or redis, got %q", c.Cache.Backend)
	}
	if c.Descriptor != "" && c.Mongo.URI != "" {
		return fmt.Errorf("descriptor and mongo.uri are mutually exclusive")
	}
	return nil
}

// RouteOptions converts the route section to router options.
func (c *Config) RouteOptions() []route.Option {
	return []route.Option{
		route.WithLateralThreshold(c.Route.LateralThreshold),
		route.WithBusOffset(c.Route.BusOffset),
		route.WithStrokeWidth(c.Route.StrokeWidth),
	}
}

// CanvasOptions converts the timing settings to canvas options.
func (c *Config) CanvasOptions() []canvas.Option {
	return []canvas.Option{
		canvas.WithSettleDelay(c.SettleDelay),
		canvas.WithResizeDebounce(c.ResizeDebounce),
	}
}

// CacheConfig returns the cache backend selection.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
	}
}

// OpenSource picks the descriptor source: MongoDB when mongo.uri is set,
// the descriptor file when set, the embedded default otherwise.
func (c *Config) OpenSource(ctx context.Context) (source.Source, func(), error) {
	switch {
	case c.Mongo.URI != "":
		m, err := source.DialMongo(ctx, source.MongoConfig{
			URI:        c.Mongo.URI,
			Database:   c.Mongo.Database,
			Collection: c.Mongo.Collection,
			Name:       c.Mongo.Name,
		})
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close(context.Background()) }, nil
	case c.Descriptor != "":
		return source.File{Path: c.Descriptor}, func() {}, nil
	default:
		return source.Embedded{}, func() {}, nil
	}
}
