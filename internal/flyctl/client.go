// Package flyctl wraps the Fly.io command-line tool. Deploys and secret
// staging shell out to the flyctl binary with the deployment token injected
// through the process environment.
package flyctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// TokenEnvVar is the environment variable flyctl reads its API token from.
const TokenEnvVar = "FLY_API_TOKEN"

var (
	// ErrMissingToken is returned when no API token is available.
	ErrMissingToken = errors.New("FLY_API_TOKEN is not set")
	// ErrCommandFailed is returned when flyctl exits non-zero.
	ErrCommandFailed = errors.New("flyctl command failed")
)

// Result holds the outcome of one flyctl invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// DeployParams configures a deploy invocation. High availability is always
// disabled and builds always run on the remote builder; those two flags are
// not configurable.
type DeployParams struct {
	App        string
	ConfigPath string // optional fly.toml path
	Image      string // optional pre-built image reference
}

// Client invokes the flyctl binary.
type Client struct {
	bin    string
	token  string
	logger *slog.Logger

	// run is swapped in tests to avoid executing a real binary.
	run func(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error)
}

// Option configures a Client.
type Option func(*Client)

// WithBinary overrides the flyctl binary name or path.
func WithBinary(bin string) Option {
	return func(c *Client) {
		c.bin = bin
	}
}

// NewClient creates a flyctl client. The token is read from the environment
// when empty.
func NewClient(token string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if token == "" {
		token = os.Getenv(TokenEnvVar)
	}

	c := &Client{
		bin:    "flyctl",
		token:  token,
		logger: logger,
	}
	c.run = c.execRun

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HasToken reports whether an API token is available.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// Version returns the flyctl version string, for diagnostics. Unlike the
// other commands it needs no API token.
func (c *Client) Version(ctx context.Context) (string, error) {
	result, err := c.capture(ctx, []string{"version"}, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// SecretsSet stages the given secrets on the app in a single invocation.
// Values are staged rather than released immediately: the deploy that
// follows picks them up. Secret values never reach the logs.
func (c *Client) SecretsSet(ctx context.Context, app string, secrets map[string]string) (*Result, error) {
	if len(secrets) == 0 {
		return &Result{}, nil
	}

	args := BuildSecretsArgs(app, secrets)
	c.logger.Info("staging secrets", "app", app, "keys", secretKeys(secrets))
	return c.invoke(ctx, args, nil)
}

// Deploy runs a deployment, streaming flyctl output to the given writer when
// it is non-nil.
func (c *Client) Deploy(ctx context.Context, params DeployParams, output io.Writer) (*Result, error) {
	args := BuildDeployArgs(params)
	c.logger.Info("deploying", "app", params.App, "args", args)
	return c.invoke(ctx, args, output)
}

// Status returns the app status output.
func (c *Client) Status(ctx context.Context, app string) (*Result, error) {
	return c.invoke(ctx, []string{"status", "--app", app}, nil)
}

// BuildSecretsArgs constructs the argv for staging secrets. Keys are sorted
// so invocations are deterministic.
func BuildSecretsArgs(app string, secrets map[string]string) []string {
	args := []string{"secrets", "set", "--app", app, "--stage"}
	for _, key := range secretKeys(secrets) {
		args = append(args, fmt.Sprintf("%s=%s", key, secrets[key]))
	}
	return args
}

// BuildDeployArgs constructs the argv for a deploy. The two fixed flags are
// always present: multi-machine high availability is disabled and builds are
// restricted to the remote builder.
func BuildDeployArgs(params DeployParams) []string {
	args := []string{"deploy", "--ha=false", "--remote-only"}
	if params.App != "" {
		args = append(args, "--app", params.App)
	}
	if params.ConfigPath != "" {
		args = append(args, "--config", params.ConfigPath)
	}
	if params.Image != "" {
		args = append(args, "--image", params.Image)
	}
	return args
}

// invoke runs flyctl with the given args. When output is non-nil, stdout and
// stderr stream to it as well as being captured.
func (c *Client) invoke(ctx context.Context, args []string, output io.Writer) (*Result, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}
	return c.capture(ctx, args, output)
}

// capture runs flyctl without requiring a token, collecting its output.
func (c *Client) capture(ctx context.Context, args []string, output io.Writer) (*Result, error) {
	var stdout, stderr bytes.Buffer
	outWriter := io.Writer(&stdout)
	errWriter := io.Writer(&stderr)
	if output != nil {
		outWriter = io.MultiWriter(&stdout, output)
		errWriter = io.MultiWriter(&stderr, output)
	}

	start := time.Now()
	exitCode, err := c.run(ctx, args, outWriter, errWriter)
	duration := time.Since(start)

	result := &Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if err != nil {
		return result, err
	}
	if exitCode != 0 {
		return result, fmt.Errorf("%w: %s: exit code %d: %s",
			ErrCommandFailed, args[0], exitCode, firstLine(result.Stderr))
	}

	c.logger.Debug("flyctl completed", "subcommand", args[0], "duration", duration)
	return result, nil
}

// execRun executes the real binary with the token injected into its
// environment.
func (c *Client) execRun(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), TokenEnvVar+"="+c.token)

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("running %s: %w", c.bin, err)
	}
	return 0, nil
}

// secretKeys returns the sorted key names of a secret map.
func secretKeys(secrets map[string]string) []string {
	keys := make([]string, 0, len(secrets))
	for key := range secrets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
