package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"filippo.io/age"

	"github.com/tallylabs/expensebot/internal/creds"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func TestResolveFromEnv(t *testing.T) {
	resolver := NewResolver(nil, WithLookupEnv(envLookup(map[string]string{
		"BOT_TOKEN":      "123456:abcdef",
		"SPREADSHEET_ID": "sheet-1",
	})))

	cfg := ReleaseConfig{
		App: "expensebot",
		Secrets: []SecretSpec{
			{Name: "BOT_TOKEN", FromEnv: "BOT_TOKEN"},
			{Name: "SPREADSHEET_ID", FromEnv: "SPREADSHEET_ID"},
		},
	}

	secrets, err := resolver.Resolve(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if secrets["BOT_TOKEN"] != "123456:abcdef" {
		t.Errorf("BOT_TOKEN: got %q", secrets["BOT_TOKEN"])
	}
	if secrets["SPREADSHEET_ID"] != "sheet-1" {
		t.Errorf("SPREADSHEET_ID: got %q", secrets["SPREADSHEET_ID"])
	}
}

func TestResolveMissingEnv(t *testing.T) {
	resolver := NewResolver(nil, WithLookupEnv(envLookup(nil)))

	cfg := ReleaseConfig{
		App:     "expensebot",
		Secrets: []SecretSpec{{Name: "BOT_TOKEN", FromEnv: "BOT_TOKEN"}},
	}

	_, err := resolver.Resolve(context.Background(), cfg)
	if !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestResolveBase64Transform(t *testing.T) {
	document := `{"type":"service_account","client_email":"bot@proj.iam.gserviceaccount.com"}`

	resolver := NewResolver(nil, WithLookupEnv(envLookup(map[string]string{
		"GOOGLE_CREDS_JSON": document,
	})))

	cfg := ReleaseConfig{
		App: "expensebot",
		Secrets: []SecretSpec{
			{Name: "GOOGLE_CREDS_JSON", FromEnv: "GOOGLE_CREDS_JSON", Transform: TransformBase64},
		},
	}

	secrets, err := resolver.Resolve(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	encoded := secrets["GOOGLE_CREDS_JSON"]
	if encoded != creds.Encode([]byte(document)) {
		t.Errorf("unexpected encoded value %q", encoded)
	}

	decoded, err := creds.Decode(encoded)
	if err != nil {
		t.Fatalf("staged value does not decode: %v", err)
	}
	if string(decoded) != document {
		t.Errorf("round trip mismatch: got %q", decoded)
	}
}

func TestResolveFromFile(t *testing.T) {
	resolver := NewResolver(nil,
		WithLookupEnv(envLookup(nil)),
		WithReadFile(func(path string) ([]byte, error) {
			if path != "token.txt" {
				return nil, fmt.Errorf("unexpected path %s", path)
			}
			return []byte("123456:abcdef\n"), nil
		}),
	)

	cfg := ReleaseConfig{
		App:     "expensebot",
		Secrets: []SecretSpec{{Name: "BOT_TOKEN", FromFile: "token.txt"}},
	}

	secrets, err := resolver.Resolve(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if secrets["BOT_TOKEN"] != "123456:abcdef" {
		t.Errorf("expected trailing newline trimmed, got %q", secrets["BOT_TOKEN"])
	}
}

func TestResolveEncryptedEnv(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}

	sealed, err := SealEnv(identity.Recipient().String(), map[string]string{
		"BOT_TOKEN":      "123456:abcdef",
		"SPREADSHEET_ID": "sheet-1",
	})
	if err != nil {
		t.Fatalf("SealEnv failed: %v", err)
	}

	identityOpt, err := WithAgeIdentity(identity.String())
	if err != nil {
		t.Fatalf("WithAgeIdentity failed: %v", err)
	}

	resolver := NewResolver(nil,
		identityOpt,
		WithReadFile(func(path string) ([]byte, error) {
			if path != "secrets.env.age" {
				return nil, fmt.Errorf("unexpected path %s", path)
			}
			return sealed, nil
		}),
	)

	cfg := ReleaseConfig{
		App:          "expensebot",
		EncryptedEnv: "secrets.env.age",
		Secrets: []SecretSpec{
			{Name: "BOT_TOKEN"},
			{Name: "SPREADSHEET_ID"},
		},
	}

	secrets, err := resolver.Resolve(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if secrets["BOT_TOKEN"] != "123456:abcdef" {
		t.Errorf("BOT_TOKEN: got %q", secrets["BOT_TOKEN"])
	}
	if secrets["SPREADSHEET_ID"] != "sheet-1" {
		t.Errorf("SPREADSHEET_ID: got %q", secrets["SPREADSHEET_ID"])
	}
}

func TestResolveEncryptedEnvWithoutIdentity(t *testing.T) {
	resolver := NewResolver(nil, WithReadFile(func(string) ([]byte, error) {
		return []byte("ciphertext"), nil
	}))

	cfg := ReleaseConfig{
		App:          "expensebot",
		EncryptedEnv: "secrets.env.age",
		Secrets:      []SecretSpec{{Name: "BOT_TOKEN"}},
	}

	_, err := resolver.Resolve(context.Background(), cfg)
	if !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}

func TestResolveDecryptionFailure(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}

	identityOpt, err := WithAgeIdentity(identity.String())
	if err != nil {
		t.Fatalf("WithAgeIdentity failed: %v", err)
	}

	resolver := NewResolver(nil,
		identityOpt,
		WithReadFile(func(string) ([]byte, error) {
			return []byte("not an age file"), nil
		}),
	)

	cfg := ReleaseConfig{
		App:          "expensebot",
		EncryptedEnv: "secrets.env.age",
		Secrets:      []SecretSpec{{Name: "BOT_TOKEN"}},
	}

	_, err = resolver.Resolve(context.Background(), cfg)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestWithAgeIdentityRejectsGarbage(t *testing.T) {
	if _, err := WithAgeIdentity("not-a-key"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
