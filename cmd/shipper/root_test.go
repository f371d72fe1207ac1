package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runShipper(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shipper.yaml")
	content := `app: expensebot
recipe: python
secrets:
  - name: BOT_TOKEN
    from_env: BOT_TOKEN
  - name: SPREADSHEET_ID
    from_env: SPREADSHEET_ID
  - name: GOOGLE_CREDS_JSON
    from_env: GOOGLE_CREDS_JSON
    transform: base64
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRecipeRenderPython(t *testing.T) {
	out, err := runShipper(t, "recipe", "render", "--kind", "python")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if !strings.HasPrefix(out, "FROM python:3.13.5-slim\n") {
		t.Errorf("unexpected Dockerfile:\n%s", out)
	}
	if !strings.Contains(out, "RUN pip install --no-cache-dir -r requirements.txt\n") {
		t.Errorf("missing pip install step:\n%s", out)
	}
}

func TestRecipeRenderDefaultsFromConfig(t *testing.T) {
	path := writeTestConfig(t)

	out, err := runShipper(t, "--config", path, "recipe", "render")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if !strings.HasPrefix(out, "FROM python:3.13.5-slim\n") {
		t.Errorf("expected the config recipe to be rendered:\n%s", out)
	}
}

func TestVersionReportsBothBinaries(t *testing.T) {
	out, err := runShipper(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}

	if !strings.HasPrefix(out, "shipper dev\n") {
		t.Errorf("unexpected version output: %q", out)
	}
	if !strings.Contains(out, "flyctl:") {
		t.Errorf("expected a flyctl line, got %q", out)
	}
}

func TestRecipeRenderUnknownKind(t *testing.T) {
	if _, err := runShipper(t, "recipe", "render", "--kind", "rust"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestSecretsList(t *testing.T) {
	path := writeTestConfig(t)

	out, err := runShipper(t, "--config", path, "secrets", "list")
	if err != nil {
		t.Fatalf("secrets list failed: %v", err)
	}

	want := "BOT_TOKEN\nGOOGLE_CREDS_JSON\nSPREADSHEET_ID\n"
	if out != want {
		t.Errorf("unexpected output %q, want %q", out, want)
	}
}

func TestDeploySkipsNonPushEvent(t *testing.T) {
	path := writeTestConfig(t)
	t.Setenv("GITHUB_EVENT_NAME", "pull_request")

	if _, err := runShipper(t, "--config", path, "deploy"); err != nil {
		t.Fatalf("non-push deploy should skip cleanly, got %v", err)
	}
}

func TestSealRoundTripFlagValidation(t *testing.T) {
	if _, err := runShipper(t, "secrets", "seal"); err == nil {
		t.Fatal("expected error when --recipient is missing")
	}
}
