package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

// Env carries the host-side settings that never belong in a recipe: how the
// harness logs, and where report artifacts get published after a run.
type Env struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	NoColor  bool   `envconfig:"NO_COLOR" default:"false"`

	StorageType string `envconfig:"STORAGE_TYPE" default:"local"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Prefix    string `envconfig:"S3_PREFIX" default:"emperfect/"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

const namespace = "EMPERFECT"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *Env) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
