// Package pipeline implements the push-to-deploy release pipeline: it gates
// on the CI trigger, resolves and transforms application secrets, stages them
// on the target app and runs the deploy.
package pipeline

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when a release config fails validation.
	ErrInvalidConfig = errors.New("invalid release config")
)

// Secret value transforms.
const (
	TransformNone   = "none"
	TransformBase64 = "base64"
)

// SecretSpec declares one secret to stage on the app. The value comes from
// an environment variable, a file, or the encrypted env bundle (keyed by
// Name) when neither source is set.
type SecretSpec struct {
	Name      string `yaml:"name"`
	FromEnv   string `yaml:"from_env,omitempty"`
	FromFile  string `yaml:"from_file,omitempty"`
	Transform string `yaml:"transform,omitempty"`
}

// ReleaseConfig is the parsed shipper.yaml.
type ReleaseConfig struct {
	App          string       `yaml:"app"`
	ConfigPath   string       `yaml:"config,omitempty"`
	Recipe       string       `yaml:"recipe,omitempty"`
	EncryptedEnv string       `yaml:"encrypted_env,omitempty"`
	Secrets      []SecretSpec `yaml:"secrets"`
}

// DefaultRelease returns the release config the bot ships with: the bot
// token, the spreadsheet ID and the base64-encoded service-account document.
func DefaultRelease(app string) ReleaseConfig {
	return ReleaseConfig{
		App: app,
		Secrets: []SecretSpec{
			{Name: "BOT_TOKEN", FromEnv: "BOT_TOKEN"},
			{Name: "SPREADSHEET_ID", FromEnv: "SPREADSHEET_ID"},
			{Name: "GOOGLE_CREDS_JSON", FromEnv: "GOOGLE_CREDS_JSON", Transform: TransformBase64},
		},
	}
}

// LoadRelease reads and validates a release config from a YAML file.
func LoadRelease(path string) (*ReleaseConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read release config: %w", err)
	}

	var cfg ReleaseConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the config names an app and that every secret spec is
// well formed.
func (c *ReleaseConfig) Validate() error {
	if c.App == "" {
		return fmt.Errorf("%w: app name is required", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Secrets))
	for _, spec := range c.Secrets {
		if spec.Name == "" {
			return fmt.Errorf("%w: secret name is required", ErrInvalidConfig)
		}
		if seen[spec.Name] {
			return fmt.Errorf("%w: duplicate secret %q", ErrInvalidConfig, spec.Name)
		}
		seen[spec.Name] = true

		if spec.FromEnv != "" && spec.FromFile != "" {
			return fmt.Errorf("%w: secret %q declares both from_env and from_file", ErrInvalidConfig, spec.Name)
		}
		if spec.FromEnv == "" && spec.FromFile == "" && c.EncryptedEnv == "" {
			return fmt.Errorf("%w: secret %q has no source", ErrInvalidConfig, spec.Name)
		}

		switch spec.Transform {
		case "", TransformNone, TransformBase64:
		default:
			return fmt.Errorf("%w: secret %q has unknown transform %q", ErrInvalidConfig, spec.Name, spec.Transform)
		}
	}

	return nil
}
