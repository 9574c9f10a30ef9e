package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	SupportedSchema = "v1"
	EnvPrefix       = "KTAIL_"
)

type KafkaSettings struct {
	Version  string `koanf:"version"`
	ClientID string `koanf:"client_id"`
	TLSEn    bool   `koanf:"tls_enabled"`
	SASLUser string `koanf:"sasl_user"`
	SASLPass string `koanf:"sasl_pass"`
}

type LogSettings struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// Settings are the knobs that do not belong on every command line: which
// client driver to use, how brokers are discovered, and ambient endpoints.
type Settings struct {
	SchemaVersion    string        `koanf:"schema_version"`
	Driver           string        `koanf:"driver"`    // sarama|kafka-go|franz
	Discovery        string        `koanf:"discovery"` // zookeeper|static
	ZKSessionTimeout time.Duration `koanf:"zk_session_timeout"`
	MetricsAddr      string        `koanf:"metrics_addr"`
	HealthAddr       string        `koanf:"health_addr"`

	Kafka KafkaSettings `koanf:"kafka"`
	Log   LogSettings   `koanf:"log"`
}

// LoadSettings merges YAML (if present) with env-vars
// (prefix `KTAIL_`, nesting delimiter `__`, e.g. KTAIL_KAFKA__VERSION).
func LoadSettings(path string) (Settings, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("settings %s: %w", path, err)
		}
	}
	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return Settings{}, fmt.Errorf("settings schema_version %q not supported (want %s)", sv, SupportedSchema)
	}

	if err := k.Load(env.Provider(EnvPrefix, "__", envKey), nil); err != nil {
		return Settings{}, fmt.Errorf("settings env: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return s, fmt.Errorf("settings: %w", err)
	}
	applyDefaults(&s)
	return s, nil
}

// envAliases nests the single-underscore names operators already use.
var envAliases = map[string]string{
	"log_level": "log__level",
	"log_json":  "log__json",
}

func envKey(s string) string {
	k := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if a, ok := envAliases[k]; ok {
		return a
	}
	return k
}

func applyDefaults(s *Settings) {
	if s.SchemaVersion == "" {
		s.SchemaVersion = SupportedSchema
	}
	if s.Driver == "" {
		s.Driver = "sarama"
	}
	if s.Discovery == "" {
		s.Discovery = "zookeeper"
	}
	if s.ZKSessionTimeout == 0 {
		s.ZKSessionTimeout = 10 * time.Second
	}
	if s.Kafka.Version == "" {
		s.Kafka.Version = "2.1.0"
	}
	if s.Kafka.ClientID == "" {
		s.Kafka.ClientID = "ktail-" + uuid.NewString()[:8]
	}
	if s.Log.Level == "" {
		s.Log.Level = "warn"
	}
}
