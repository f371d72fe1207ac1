package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"filippo.io/age"

	"github.com/tallylabs/expensebot/internal/creds"
	"github.com/tallylabs/expensebot/internal/pipeline/envfile"
)

var (
	// ErrMissingSecret is returned when a declared secret has no value.
	ErrMissingSecret = errors.New("secret value missing")
	// ErrNoIdentity is returned when an encrypted env bundle is configured
	// but no age identity is available to open it.
	ErrNoIdentity = errors.New("no age identity configured for decryption")
	// ErrDecryptionFailed is returned when decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrInvalidKey is returned when an age key is invalid.
	ErrInvalidKey = errors.New("invalid key format")
)

// Resolver turns secret specs into staged values.
type Resolver struct {
	identity  *age.X25519Identity
	lookupEnv func(string) (string, bool)
	readFile  func(string) ([]byte, error)
	logger    *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithAgeIdentity sets the age private key used to open encrypted env
// bundles. Format: AGE-SECRET-KEY-1... (Bech32 encoded).
func WithAgeIdentity(key string) (ResolverOption, error) {
	identity, err := age.ParseX25519Identity(key)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key: %v", ErrInvalidKey, err)
	}
	return func(r *Resolver) {
		r.identity = identity
	}, nil
}

// WithLookupEnv overrides the environment lookup, for tests.
func WithLookupEnv(lookup func(string) (string, bool)) ResolverOption {
	return func(r *Resolver) {
		r.lookupEnv = lookup
	}
}

// WithReadFile overrides file reads, for tests.
func WithReadFile(read func(string) ([]byte, error)) ResolverOption {
	return func(r *Resolver) {
		r.readFile = read
	}
}

// NewResolver creates a Resolver reading from the process environment and
// the filesystem.
func NewResolver(logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Resolver{
		lookupEnv: os.LookupEnv,
		readFile:  os.ReadFile,
		logger:    logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve produces the full secret map for a release: the encrypted env
// bundle is opened first, then each spec is resolved from its source and
// its transform applied. A declared secret without a value fails the whole
// resolution.
func (r *Resolver) Resolve(ctx context.Context, cfg ReleaseConfig) (map[string]string, error) {
	bundle := map[string]string{}
	if cfg.EncryptedEnv != "" {
		var err error
		bundle, err = r.openBundle(ctx, cfg.EncryptedEnv)
		if err != nil {
			return nil, err
		}
	}

	secrets := make(map[string]string, len(cfg.Secrets))
	for _, spec := range cfg.Secrets {
		value, err := r.resolveValue(spec, bundle)
		if err != nil {
			return nil, err
		}

		secrets[spec.Name], err = applyTransform(spec.Transform, value)
		if err != nil {
			return nil, err
		}
	}

	r.logger.Debug("resolved secrets", "count", len(secrets))
	return secrets, nil
}

func (r *Resolver) resolveValue(spec SecretSpec, bundle map[string]string) (string, error) {
	switch {
	case spec.FromEnv != "":
		value, ok := r.lookupEnv(spec.FromEnv)
		if !ok || value == "" {
			return "", fmt.Errorf("%w: %s (env %s)", ErrMissingSecret, spec.Name, spec.FromEnv)
		}
		return value, nil

	case spec.FromFile != "":
		data, err := r.readFile(spec.FromFile)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrMissingSecret, spec.Name, err)
		}
		return strings.TrimRight(string(data), "\n"), nil

	default:
		value, ok := bundle[spec.Name]
		if !ok || value == "" {
			return "", fmt.Errorf("%w: %s (not in encrypted env)", ErrMissingSecret, spec.Name)
		}
		return value, nil
	}
}

// openBundle reads and decrypts an age-encrypted env file and parses it
// into key-value pairs.
func (r *Resolver) openBundle(ctx context.Context, path string) (map[string]string, error) {
	if r.identity == nil {
		return nil, ErrNoIdentity
	}

	ciphertext, err := r.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted env: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), r.identity)
	if err != nil {
		r.logger.Error("failed to create age decryptor", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	plaintext, err := io.ReadAll(reader)
	if err != nil {
		r.logger.Error("failed to read decrypted env", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return envfile.Parse(string(plaintext)), nil
}

// applyTransform applies a secret's declared transform to its value. The
// base64 transform matches what the Sheets credential expects: one encoded
// line with no embedded newlines.
func applyTransform(transform, value string) (string, error) {
	switch transform {
	case "", TransformNone:
		return value, nil
	case TransformBase64:
		return creds.Encode([]byte(value)), nil
	default:
		return "", fmt.Errorf("%w: unknown transform %q", ErrInvalidConfig, transform)
	}
}

// SealEnv encrypts key-value pairs for the given age public key, producing
// the encrypted env bundle the resolver opens at release time.
func SealEnv(publicKey string, vars map[string]string) ([]byte, error) {
	recipient, err := age.ParseX25519Recipient(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid public key: %v", ErrInvalidKey, err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to create age encryptor: %w", err)
	}
	if _, err := io.WriteString(w, envfile.Serialize(vars)); err != nil {
		return nil, fmt.Errorf("failed to write plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close encryptor: %w", err)
	}

	return buf.Bytes(), nil
}
