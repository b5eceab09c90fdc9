// Package config loads server configuration from CMDWARDEN_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".cmdwarden/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"cmdwarden/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type PolicyEnv struct {
	DefaultMode     string        `envconfig:"DEFAULT_MODE" default:"standard"`
	ApprovalTimeout time.Duration `envconfig:"APPROVAL_TIMEOUT" default:"5m"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:admin@example.com"`
}

type Env struct {
	BaseEnv
	StorageEnv
	PolicyEnv
	VAPIDEnv
}

const namespace = "CMDWARDEN"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func BaseEnvFromEnv(env *Env) *BaseEnv {
	return &env.BaseEnv
}

func StorageEnvFromEnv(env *Env) *StorageEnv {
	return &env.StorageEnv
}

func PolicyEnvFromEnv(env *Env) *PolicyEnv {
	return &env.PolicyEnv
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
