package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	BackendBolt     = "bolt"
	BackendPebble   = "pebble"
	BackendDynamoDB = "dynamodb"

	defaultBaseURL        = "http://localhost:5000"
	defaultRequestTimeout = 30 * time.Second
	defaultAssistantName  = "JARVIS"
	defaultExportDir      = "."
	defaultLogLevel       = "info"

	stateDirName   = ".chat-client"
	configFileName = "config.yaml"
)

// Environment variable names.
const (
	EnvBaseURL         = "CHAT_BASE_URL"
	EnvRequestTimeout  = "CHAT_REQUEST_TIMEOUT"
	EnvStorageBackend  = "CHAT_STORAGE_BACKEND"
	EnvStoragePath     = "CHAT_STORAGE_PATH"
	EnvDynamoDBTable   = "CHAT_DYNAMODB_TABLE"
	EnvDeviceID        = "CHAT_DEVICE_ID"
	EnvCredentialParam = "CHAT_CREDENTIAL_PARAM"
	EnvExportDir       = "CHAT_EXPORT_DIR"
	EnvAssistantName   = "CHAT_ASSISTANT_NAME"
	EnvHealthInterval  = "CHAT_HEALTH_INTERVAL"
	EnvLogLevel        = "CHAT_LOG_LEVEL"
	EnvConfig          = "CHAT_CONFIG"
)

type Storage struct {
	Backend       string
	Path          string
	DynamoDBTable string
}

// Config is the resolved client configuration.
type Config struct {
	BaseURL         string
	RequestTimeout  time.Duration
	Storage         Storage
	DeviceID        string
	CredentialParam string
	ExportDir       string
	AssistantName   string
	HealthInterval  time.Duration
	LogLevel        string

	home string
}

// fileConfig mirrors the YAML file; durations stay strings so that "30s"
// and "1m" are parsed the same way as the environment values.
type fileConfig struct {
	BaseURL        string `yaml:"base_url"`
	RequestTimeout string `yaml:"request_timeout"`
	Storage        struct {
		Backend       string `yaml:"backend"`
		Path          string `yaml:"path"`
		DynamoDBTable string `yaml:"dynamodb_table"`
	} `yaml:"storage"`
	DeviceID        string `yaml:"device_id"`
	CredentialParam string `yaml:"credential_param"`
	ExportDir       string `yaml:"export_dir"`
	AssistantName   string `yaml:"assistant_name"`
	HealthInterval  string `yaml:"health_interval"`
	LogLevel        string `yaml:"log_level"`
}

// Source tells Load where to look. Zero values select the process
// environment, ./.env and ~/.chat-client/config.yaml.
type Source struct {
	ConfigPath string
	EnvFile    string
	LookupEnv  func(string) (string, bool)
	HomeDir    string
	Hostname   func() (string, error)
}

// Defaults returns the built-in configuration rooted at home.
func Defaults(home string) Config {
	return Config{
		BaseURL:        defaultBaseURL,
		RequestTimeout: defaultRequestTimeout,
		Storage:        Storage{Backend: BackendBolt},
		ExportDir:      defaultExportDir,
		AssistantName:  defaultAssistantName,
		LogLevel:       defaultLogLevel,
		home:           home,
	}
}

// Load resolves defaults, then the YAML file, then the environment. Flag
// overrides are applied by the caller, which should call Validate last.
func Load(src Source) (Config, error) {
	src = src.withDefaults()

	envFile := src.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	cfg := Defaults(src.HomeDir)

	path, explicit := src.ConfigPath, src.ConfigPath != ""
	if !explicit {
		if v, ok := src.LookupEnv(EnvConfig); ok && strings.TrimSpace(v) != "" {
			path, explicit = v, true
		} else {
			path = filepath.Join(src.HomeDir, stateDirName, configFileName)
		}
	}
	if err := cfg.mergeFile(expandHome(path, src.HomeDir), explicit); err != nil {
		return Config{}, err
	}
	if err := cfg.mergeEnv(src.LookupEnv); err != nil {
		return Config{}, err
	}

	if cfg.DeviceID == "" {
		cfg.DeviceID = deriveDeviceID(src.Hostname)
	}
	return cfg, nil
}

func (s Source) withDefaults() Source {
	if s.LookupEnv == nil {
		s.LookupEnv = os.LookupEnv
	}
	if s.HomeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			s.HomeDir = home
		} else {
			s.HomeDir = "."
		}
	}
	if s.Hostname == nil {
		s.Hostname = os.Hostname
	}
	return s
}

// mergeFile applies path over cfg. A missing file is only an error when the
// path was given explicitly.
func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setString(&c.BaseURL, fc.BaseURL)
	setString(&c.Storage.Backend, fc.Storage.Backend)
	setString(&c.Storage.Path, fc.Storage.Path)
	setString(&c.Storage.DynamoDBTable, fc.Storage.DynamoDBTable)
	setString(&c.DeviceID, fc.DeviceID)
	setString(&c.CredentialParam, fc.CredentialParam)
	setString(&c.ExportDir, fc.ExportDir)
	setString(&c.AssistantName, fc.AssistantName)
	setString(&c.LogLevel, fc.LogLevel)
	if err := setDuration(&c.RequestTimeout, fc.RequestTimeout, "request_timeout"); err != nil {
		return err
	}
	return setDuration(&c.HealthInterval, fc.HealthInterval, "health_interval")
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	setString(&c.BaseURL, get(EnvBaseURL))
	setString(&c.Storage.Backend, get(EnvStorageBackend))
	setString(&c.Storage.Path, get(EnvStoragePath))
	setString(&c.Storage.DynamoDBTable, get(EnvDynamoDBTable))
	setString(&c.DeviceID, get(EnvDeviceID))
	setString(&c.CredentialParam, get(EnvCredentialParam))
	setString(&c.ExportDir, get(EnvExportDir))
	setString(&c.AssistantName, get(EnvAssistantName))
	setString(&c.LogLevel, get(EnvLogLevel))
	if err := setDuration(&c.RequestTimeout, get(EnvRequestTimeout), EnvRequestTimeout); err != nil {
		return err
	}
	return setDuration(&c.HealthInterval, get(EnvHealthInterval), EnvHealthInterval)
}

// Validate rejects configurations the client cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: base url %q must be an absolute http(s) url", c.BaseURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: request timeout must be positive")
	}
	if c.HealthInterval < 0 {
		return errors.New("config: health interval must not be negative")
	}
	switch c.Storage.Backend {
	case BackendBolt, BackendPebble:
	case BackendDynamoDB:
		if c.Storage.DynamoDBTable == "" {
			return errors.New("config: dynamodb backend requires a table name")
		}
		if c.DeviceID == "" {
			return errors.New("config: dynamodb backend requires a device id")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// StoragePath is the local database location for the selected backend.
func (c Config) StoragePath() string {
	if p := strings.TrimSpace(c.Storage.Path); p != "" {
		return expandHome(p, c.home)
	}
	switch c.Storage.Backend {
	case BackendPebble:
		return filepath.Join(c.home, stateDirName, "pebble")
	default:
		return filepath.Join(c.home, stateDirName, "state.bolt")
	}
}

// ExportPath is ExportDir with a leading ~ expanded.
func (c Config) ExportPath() string {
	return expandHome(c.ExportDir, c.home)
}

// Level maps LogLevel onto a slog level; unknown values mean info.
func (c Config) Level() slog.Level {
	return ParseLevel(c.LogLevel)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// deriveDeviceID is stable per host and OS user.
func deriveDeviceID(hostname func() (string, error)) string {
	host, err := hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	name := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(host+"/"+name)).String()
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, name string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	*dst = d
	return nil
}
