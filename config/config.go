package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath = "."

	defaultStoragePath    = "medsync.db"
	defaultChannelTimeout = 30 * time.Second
	defaultRemoteTimeout  = 30 * time.Second
	defaultHealthPath     = "/health"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Storage configures the embedded database backing the durable change queue.
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Remote configures the upstream persistence API the reconciler drains into.
	Remote RemoteConfig `json:"remote" yaml:"remote"`

	// Sync configures the reconciler and the connectivity probe.
	Sync SyncConfig `json:"sync" yaml:"sync"`

	// Notify configures the notification dispatcher.
	Notify NotifyConfig `json:"notify" yaml:"notify"`

	// Firebase configuration for the push channel.
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// Socket configuration for the in-app realtime gateway channel.
	Socket *SocketConfig `json:"socket" yaml:"socket"`

	// SMTP configuration for the email channel.
	SMTP *SMTPConfig `json:"smtp" yaml:"smtp"`

	// PubSub configuration for the audit/liability event sink.
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// StorageConfig defines where the local change queue lives.
type StorageConfig struct {
	Path string `json:"path" yaml:"path"`
}

// RemoteConfig defines the remote persistence API connection.
type RemoteConfig struct {
	BaseURL     string        `json:"baseUrl" yaml:"baseUrl"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	BearerToken string        `json:"bearerToken" yaml:"bearerToken"`
	HealthPath  string        `json:"healthPath" yaml:"healthPath"`
}

// SyncConfig defines reconciler and connectivity probe behaviour.
type SyncConfig struct {
	// DrainOnStart attempts one drain pass when the service comes up.
	DrainOnStart bool `json:"drainOnStart" yaml:"drainOnStart"`

	// ProbeInterval is how often the sync worker probes remote connectivity.
	// Zero disables the probe; connectivity is then driven via the API only.
	ProbeInterval time.Duration `json:"probeInterval" yaml:"probeInterval"`
}

// NotifyConfig defines dispatcher behaviour.
type NotifyConfig struct {
	// ChannelTimeout bounds a single channel delivery attempt.
	ChannelTimeout time.Duration `json:"channelTimeout" yaml:"channelTimeout"`
}

// FirebaseConfig defines Firebase configuration for push notifications.
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`

	// Token is the device registration token push messages are addressed to.
	Token string `json:"token" yaml:"token"`
}

// SocketConfig defines the realtime gateway the in-app channel emits through.
type SocketConfig struct {
	GatewayURL  string        `json:"gatewayUrl" yaml:"gatewayUrl"`
	MaxRetries  int           `json:"maxRetries" yaml:"maxRetries"`
	BaseBackoff time.Duration `json:"baseBackoff" yaml:"baseBackoff"`
	MaxBackoff  time.Duration `json:"maxBackoff" yaml:"maxBackoff"`
}

// SMTPConfig defines the email channel transport.
type SMTPConfig struct {
	Host     string   `json:"host" yaml:"host"`
	Port     int      `json:"port" yaml:"port"`
	From     string   `json:"from" yaml:"from"`
	Username string   `json:"username" yaml:"username"`
	Password string   `json:"password" yaml:"password"`
	To       []string `json:"to" yaml:"to"`
}

// PubSubConfig defines the audit event sink for liability escalations.
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: REMOTE_BASEURL -> remote.baseUrl (not remote.baseurl)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		cfg.Storage.Path = defaultStoragePath
	}
	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = defaultRemoteTimeout
	}
	if cfg.Remote.HealthPath == "" {
		cfg.Remote.HealthPath = defaultHealthPath
	}
	if cfg.Notify.ChannelTimeout <= 0 {
		cfg.Notify.ChannelTimeout = defaultChannelTimeout
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
