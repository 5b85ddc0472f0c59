package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".botctl"
	envPrefix  = "BOTCTL"

	KeyAppID             = "app.id"
	KeyStoreBackend      = "store.backend"
	KeyStorePath         = "store.path"
	KeyFirebaseProjectID = "firebase.project_id"
	KeyFirebaseAPIKey    = "firebase.api_key"
	KeyAuthToken         = "auth.token"
	KeyCredentialBackend = "credentials.backend"
	KeyCredentialPath    = "credentials.path"
	KeyNotifyDuration    = "notify.duration"
	KeyLogLevel          = "log.level"

	DefaultAppID = "default-app-id"
)

type StoreBackend string

const (
	StoreFile      StoreBackend = "file"
	StoreMemory    StoreBackend = "memory"
	StoreFirestore StoreBackend = "firestore"
)

type CredentialBackend string

const (
	CredentialsChain CredentialBackend = "chain"
	CredentialsFile  CredentialBackend = "file"
)

type Config struct {
	AppID             string
	StoreBackend      StoreBackend
	StorePath         string
	FirebaseProjectID string
	FirebaseAPIKey    string
	// AuthToken is the pre-supplied custom token. Empty means anonymous.
	AuthToken         string
	CredentialBackend CredentialBackend
	CredentialPath    string
	NotifyDuration    time.Duration
	LogLevel          zerolog.Level
	// File is the config file that was read, empty when none was found.
	File string
}

// Load reads ~/.botctl/config.toml when present and applies BOTCTL_*
// environment overrides. Values are read once.
func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, configDir)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(baseDir)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(KeyAppID, DefaultAppID)
	cfg.SetDefault(KeyStoreBackend, string(StoreFile))
	cfg.SetDefault(KeyStorePath, filepath.Join(baseDir, "store"))
	cfg.SetDefault(KeyFirebaseProjectID, "")
	cfg.SetDefault(KeyFirebaseAPIKey, "")
	cfg.SetDefault(KeyAuthToken, "")
	cfg.SetDefault(KeyCredentialBackend, string(CredentialsChain))
	cfg.SetDefault(KeyCredentialPath, filepath.Join(baseDir, "credentials"))
	cfg.SetDefault(KeyNotifyDuration, "3s")
	cfg.SetDefault(KeyLogLevel, "warn")

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	out := Config{
		AppID:             strings.TrimSpace(cfg.GetString(KeyAppID)),
		StoreBackend:      StoreBackend(strings.ToLower(strings.TrimSpace(cfg.GetString(KeyStoreBackend)))),
		FirebaseProjectID: strings.TrimSpace(cfg.GetString(KeyFirebaseProjectID)),
		FirebaseAPIKey:    strings.TrimSpace(cfg.GetString(KeyFirebaseAPIKey)),
		AuthToken:         strings.TrimSpace(cfg.GetString(KeyAuthToken)),
		CredentialBackend: CredentialBackend(strings.ToLower(strings.TrimSpace(cfg.GetString(KeyCredentialBackend)))),
		NotifyDuration:    cfg.GetDuration(KeyNotifyDuration),
		File:              cfg.ConfigFileUsed(),
	}

	if out.StorePath, err = expandPath(cfg.GetString(KeyStorePath), homeDir); err != nil {
		return Config{}, fmt.Errorf("resolve store path: %w", err)
	}
	if out.CredentialPath, err = expandPath(cfg.GetString(KeyCredentialPath), homeDir); err != nil {
		return Config{}, fmt.Errorf("resolve credentials path: %w", err)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.GetString(KeyLogLevel))))
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", KeyLogLevel, err)
	}
	out.LogLevel = level

	if err := out.Validate(); err != nil {
		return Config{}, err
	}

	return out, nil
}

func (c Config) Validate() error {
	if c.AppID == "" {
		return fmt.Errorf("%s is empty", KeyAppID)
	}

	switch c.StoreBackend {
	case StoreFile:
		if c.StorePath == "" {
			return fmt.Errorf("%s is empty", KeyStorePath)
		}
	case StoreMemory:
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("%s is required for the firestore backend", KeyFirebaseProjectID)
		}
	default:
		return fmt.Errorf("unsupported %s %q", KeyStoreBackend, c.StoreBackend)
	}

	switch c.CredentialBackend {
	case CredentialsChain, CredentialsFile:
	default:
		return fmt.Errorf("unsupported %s %q", KeyCredentialBackend, c.CredentialBackend)
	}

	if c.NotifyDuration <= 0 {
		return fmt.Errorf("%s must be positive", KeyNotifyDuration)
	}

	return nil
}

func expandPath(path, homeDir string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" {
		path = homeDir
	} else if rest, ok := strings.CutPrefix(path, "~/"); ok {
		path = filepath.Join(homeDir, rest)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(absPath), nil
}
