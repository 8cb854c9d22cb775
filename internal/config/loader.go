package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "PORTALMAP_"

// sections are the nested config groups. PORTALMAP_CACHE_TTL maps to
// cache.ttl; PORTALMAP_SETTLE_DELAY stays settle_delay.
var sections = []string{"route", "cache", "redis", "mongo"}

// flagKeys maps flag names that differ from their config key.
var flagKeys = map[string]string{
	"lateral-threshold": "route.lateral_threshold",
	"bus-offset":        "route.bus_offset",
	"stroke-width":      "route.stroke_width",
	"cache":             "cache.backend",
	"cache-dir":         "cache.dir",
	"cache-ttl":         "cache.ttl",
	"redis-addr":        "redis.addr",
	"mongo-uri":         "mongo.uri",
	"mongo-name":        "mongo.name",
}

// EnvKey converts an environment variable name to its config key.
func EnvKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for _, s := range sections {
		if strings.HasPrefix(key, s+"_") {
			return s + "." + strings.TrimPrefix(key, s+"_")
		}
	}
	return key
}

// FlagKey converts a flag name to its config key.
func FlagKey(name string) string {
	if k, ok := flagKeys[name]; ok {
		return k
	}
	return strings.ReplaceAll(name, "-", "_")
}

// Load merges, lowest precedence first: defaults, the config file, .env
// and the environment, then flags that were set explicitly. cfgFile may
// be empty, in which case portalmap.yaml is used when it exists.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	used := cfgFile
	if used == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			used = DefaultFile
		}
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", used)
			}
			return nil, fmt.Errorf("read config file %s: %w", used, err)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()
	if err := k.Load(env.Provider(EnvPrefix, ".", EnvKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if flags != nil {
		err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return FlagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = used
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
