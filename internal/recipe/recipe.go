// Package recipe models container build recipes and renders them as
// Dockerfiles.
package recipe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownKind is returned for a recipe kind with no builtin.
	ErrUnknownKind = errors.New("unknown recipe kind")
	// ErrInvalidRecipe is returned when a recipe fails validation.
	ErrInvalidRecipe = errors.New("invalid recipe")
)

// Builtin recipe kinds.
const (
	KindPython = "python"
	KindGo     = "go"
)

// CopyStep copies files into the image, optionally from an earlier stage.
type CopyStep struct {
	FromStage string
	Source    string
	Dest      string
}

// Stage is one FROM block of a Dockerfile.
type Stage struct {
	Name    string
	Image   string
	WorkDir string
	Copies  []CopyStep
	Runs    []string
}

// Recipe is a typed container build: one or more stages and the command the
// final image runs.
type Recipe struct {
	Kind   string
	Stages []Stage
	Cmd    []string
}

// Python returns the recipe the bot's original runtime used: a slim Python
// base, the source tree copied in and dependencies installed without a
// wheel cache.
func Python() *Recipe {
	return &Recipe{
		Kind: KindPython,
		Stages: []Stage{
			{
				Image:   "python:3.13.5-slim",
				WorkDir: "/app",
				Copies:  []CopyStep{{Source: ".", Dest: "."}},
				Runs:    []string{"pip install --no-cache-dir -r requirements.txt"},
			},
		},
		Cmd: []string{"python", "bot.py"},
	}
}

// Go returns a multi-stage recipe building the bot binary and packaging it
// on a minimal base.
func Go() *Recipe {
	return &Recipe{
		Kind: KindGo,
		Stages: []Stage{
			{
				Name:    "build",
				Image:   "golang:1.24-alpine",
				WorkDir: "/src",
				Copies:  []CopyStep{{Source: ".", Dest: "."}},
				Runs: []string{
					"go mod download",
					"CGO_ENABLED=0 go build -o /out/bot ./cmd/bot",
				},
			},
			{
				Image:   "alpine:3.21",
				WorkDir: "/app",
				Copies:  []CopyStep{{FromStage: "build", Source: "/out/bot", Dest: "/app/bot"}},
				Runs:    []string{"apk add --no-cache ca-certificates tzdata"},
			},
		},
		Cmd: []string{"/app/bot"},
	}
}

// ForKind returns the builtin recipe for a kind.
func ForKind(kind string) (*Recipe, error) {
	switch kind {
	case KindPython:
		return Python(), nil
	case KindGo:
		return Go(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Validate checks that the recipe pins its base images, declares a workdir
// for the final stage and names an entry command.
func (r *Recipe) Validate() error {
	if len(r.Stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidRecipe)
	}

	for i, stage := range r.Stages {
		tag := imageTag(stage.Image)
		if tag == "" {
			return fmt.Errorf("%w: stage %d image %q has no tag", ErrInvalidRecipe, i, stage.Image)
		}
		if tag == "latest" {
			return fmt.Errorf("%w: stage %d image %q is not pinned", ErrInvalidRecipe, i, stage.Image)
		}
	}

	if r.Stages[len(r.Stages)-1].WorkDir == "" {
		return fmt.Errorf("%w: final stage has no workdir", ErrInvalidRecipe)
	}
	if len(r.Cmd) == 0 {
		return fmt.Errorf("%w: no entry command", ErrInvalidRecipe)
	}

	return nil
}

// Render produces the Dockerfile. Output is deterministic for a given
// recipe.
func (r *Recipe) Render() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder

	for i, stage := range r.Stages {
		if i > 0 {
			b.WriteString("\n")
		}

		b.WriteString("FROM " + stage.Image)
		if stage.Name != "" {
			b.WriteString(" AS " + stage.Name)
		}
		b.WriteString("\n")

		if stage.WorkDir != "" {
			b.WriteString("WORKDIR " + stage.WorkDir + "\n")
		}
		for _, step := range stage.Copies {
			b.WriteString("COPY ")
			if step.FromStage != "" {
				b.WriteString("--from=" + step.FromStage + " ")
			}
			b.WriteString(step.Source + " " + step.Dest + "\n")
		}
		for _, run := range stage.Runs {
			b.WriteString("RUN " + run + "\n")
		}
	}

	b.WriteString("CMD " + execForm(r.Cmd) + "\n")

	return b.String(), nil
}

// execForm renders a command in Dockerfile exec form.
func execForm(cmd []string) string {
	quoted := make([]string, len(cmd))
	for i, part := range cmd {
		quoted[i] = fmt.Sprintf("%q", part)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// imageTag returns the tag of an image reference, or "" when untagged. The
// tag separator is the last colon after the last slash, so registries with
// ports parse correctly.
func imageTag(image string) string {
	slash := strings.LastIndex(image, "/")
	colon := strings.LastIndex(image, ":")
	if colon <= slash {
		return ""
	}
	return image[colon+1:]
}
