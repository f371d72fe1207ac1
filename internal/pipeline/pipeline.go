package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tallylabs/expensebot/internal/flyctl"
	"github.com/tallylabs/expensebot/pkg/logger"
)

// Deployer stages secrets and deploys an app. Implemented by flyctl.Client.
type Deployer interface {
	SecretsSet(ctx context.Context, app string, secrets map[string]string) (*flyctl.Result, error)
	Deploy(ctx context.Context, params flyctl.DeployParams, output io.Writer) (*flyctl.Result, error)
}

// Step names, in run order.
const (
	StepValidate       = "validate"
	StepResolveSecrets = "resolve-secrets"
	StepStageSecrets   = "stage-secrets"
	StepDeploy         = "deploy"
)

// StepResult records the outcome of one pipeline step.
type StepResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// RunResult is the outcome of a pipeline run.
type RunResult struct {
	RunID      string
	Skipped    bool
	SkipReason string
	Steps      []StepResult
}

// Pipeline runs a release: validate, resolve secrets, stage them on the app
// and deploy. The first failing step halts the run.
type Pipeline struct {
	cfg      ReleaseConfig
	resolver *Resolver
	deployer Deployer
	retrier  *Retrier
	logger   *slog.Logger
	output   io.Writer
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithOutput redirects deploy output. Defaults to stdout.
func WithOutput(w io.Writer) PipelineOption {
	return func(p *Pipeline) {
		p.output = w
	}
}

// WithRetrier sets a custom retrier for the deploy step.
func WithRetrier(r *Retrier) PipelineOption {
	return func(p *Pipeline) {
		p.retrier = r
	}
}

// New creates a Pipeline for the given release config.
func New(cfg ReleaseConfig, resolver *Resolver, deployer Deployer, log *slog.Logger, opts ...PipelineOption) *Pipeline {
	if log == nil {
		log = slog.Default()
	}

	p := &Pipeline{
		cfg:      cfg,
		resolver: resolver,
		deployer: deployer,
		logger:   log,
		output:   os.Stdout,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.retrier == nil {
		p.retrier = NewRetrier(log)
	}

	return p
}

// Run executes the pipeline for the given trigger. A non-push trigger
// produces a skipped result without error; any step failure halts the run
// and is returned alongside the partial result.
func (p *Pipeline) Run(ctx context.Context, trigger Trigger) (*RunResult, error) {
	runID := uuid.New().String()
	ctx = logger.ContextWithRunID(ctx, runID)

	log := p.logger.With("run_id", runID, "app", p.cfg.App)

	if !trigger.IsPush() {
		log.Info("skipping run, not a push event", "event", trigger.EventName)
		return &RunResult{
			RunID:      runID,
			Skipped:    true,
			SkipReason: fmt.Sprintf("event %q is not a push", trigger.EventName),
		}, nil
	}

	log.Info("starting release", "ref", trigger.Ref, "sha", trigger.ShortSHA())

	result := &RunResult{RunID: runID}

	var secrets map[string]string
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StepValidate, func(ctx context.Context) error {
			return p.cfg.Validate()
		}},
		{StepResolveSecrets, func(ctx context.Context) error {
			var err error
			secrets, err = p.resolver.Resolve(ctx, p.cfg)
			return err
		}},
		{StepStageSecrets, func(ctx context.Context) error {
			_, err := p.deployer.SecretsSet(ctx, p.cfg.App, secrets)
			return err
		}},
		{StepDeploy, func(ctx context.Context) error {
			return p.retrier.Do(ctx, StepDeploy, func(ctx context.Context) error {
				_, err := p.deployer.Deploy(ctx, flyctl.DeployParams{
					App:        p.cfg.App,
					ConfigPath: p.cfg.ConfigPath,
				}, p.output)
				return err
			})
		}},
	}

	for _, step := range steps {
		started := time.Now()
		err := step.fn(ctx)
		elapsed := time.Since(started)

		result.Steps = append(result.Steps, StepResult{
			Name:     step.name,
			Duration: elapsed,
			Err:      err,
		})

		if err != nil {
			log.Error("step failed", "step", step.name, "duration", elapsed, "error", err)
			return result, fmt.Errorf("step %s: %w", step.name, err)
		}
		log.Info("step completed", "step", step.name, "duration", elapsed)
	}

	log.Info("release complete")
	return result, nil
}
