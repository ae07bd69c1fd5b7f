package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultGateInterval    = 30 * time.Second
	DefaultGateMaxAttempts = 20
)

var commitSHA = regexp.MustCompile(`^[0-9a-f]{40}$`)

func isCommitSHA(ref string) bool {
	return commitSHA.MatchString(strings.ToLower(ref))
}

// WorkflowRunLister is the slice of the GitHub Actions API the gate uses.
// *github.ActionsService satisfies it.
type WorkflowRunLister interface {
	ListRepositoryWorkflowRuns(ctx context.Context, owner, repo string, opts *github.ListWorkflowRunsOptions) (*github.WorkflowRuns, *github.Response, error)
}

// CommitResolver turns a branch or tag into the commit it points at.
// *github.RepositoriesService satisfies it.
type CommitResolver interface {
	GetCommitSHA1(ctx context.Context, owner, repo, ref, lastSHA string) (string, *github.Response, error)
}

// GateConfig points the gate at a repository and commit or branch.
type GateConfig struct {
	Owner       string
	Repo        string
	Ref         string
	Interval    time.Duration
	MaxAttempts int
}

// RunSummary is the gate's view of the workflow runs for one check.
type RunSummary struct {
	Total     int
	Succeeded int
	Pending   []string
	Failed    []string
}

// Green reports whether every run has concluded successfully. No runs is
// never green.
func (s RunSummary) Green() bool {
	return s.Total > 0 && s.Succeeded == s.Total
}

func (s RunSummary) String() string {
	if s.Total == 0 {
		return "no workflow runs found"
	}
	parts := []string{fmt.Sprintf("%d/%d succeeded", s.Succeeded, s.Total)}
	if len(s.Pending) > 0 {
		parts = append(parts, "pending: "+strings.Join(s.Pending, ", "))
	}
	if len(s.Failed) > 0 {
		parts = append(parts, "failed: "+strings.Join(s.Failed, ", "))
	}
	return strings.Join(parts, "; ")
}

func summarize(runs []*github.WorkflowRun) RunSummary {
	s := RunSummary{Total: len(runs)}
	for _, run := range runs {
		name := run.GetName()
		switch {
		case run.GetStatus() != "completed":
			s.Pending = append(s.Pending, name)
		case run.GetConclusion() == "success":
			s.Succeeded++
		default:
			s.Failed = append(s.Failed, name+" ("+run.GetConclusion()+")")
		}
	}
	return s
}

// Gate waits for green CI on a commit before anything is deployed.
type Gate struct {
	api     WorkflowRunLister
	commits CommitResolver
	cfg     GateConfig
	logger  *slog.Logger
	onCheck func(attempt int, summary RunSummary)
}

func NewGate(api WorkflowRunLister, commits CommitResolver, cfg GateConfig, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultGateInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultGateMaxAttempts
	}
	return &Gate{api: api, commits: commits, cfg: cfg, logger: logger}
}

// OnCheck registers a callback invoked after every check.
func (g *Gate) OnCheck(fn func(attempt int, summary RunSummary)) {
	g.onCheck = fn
}

// headSHA pins the ref to one commit so runs for older commits on the
// same branch never count against the gate.
func (g *Gate) headSHA(ctx context.Context) (string, error) {
	if isCommitSHA(g.cfg.Ref) {
		return strings.ToLower(g.cfg.Ref), nil
	}
	sha, _, err := g.commits.GetCommitSHA1(ctx, g.cfg.Owner, g.cfg.Repo, g.cfg.Ref, "")
	if err != nil {
		return "", fmt.Errorf("GetCommitSHA1 %s: %w", g.cfg.Ref, err)
	}
	if sha == "" {
		return "", fmt.Errorf("GetCommitSHA1 %s: no commit returned", g.cfg.Ref)
	}
	return sha, nil
}

func runsForCommit(sha string) *github.ListWorkflowRunsOptions {
	return &github.ListWorkflowRunsOptions{
		HeadSHA:     sha,
		ListOptions: github.ListOptions{PerPage: 100},
	}
}

var errNotGreen = errors.New("workflow runs not green")

// Wait returns nil once CI is green for the commit the ref points at. Transport errors fail the gate
// immediately; anything short of green is checked again until the
// attempts run out. Failures wrap ErrGateFailed.
func (g *Gate) Wait(ctx context.Context) error {
	sha, err := g.headSHA(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGateFailed, err)
	}

	b := retry.WithMaxRetries(uint64(g.cfg.MaxAttempts-1), retry.NewConstant(g.cfg.Interval))

	var (
		attempt int
		last    RunSummary
	)
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		runs, _, err := g.api.ListRepositoryWorkflowRuns(ctx, g.cfg.Owner, g.cfg.Repo, runsForCommit(sha))
		if err != nil {
			return fmt.Errorf("ListRepositoryWorkflowRuns: %w", err)
		}

		var list []*github.WorkflowRun
		if runs != nil {
			list = runs.WorkflowRuns
		}
		last = summarize(list)

		g.logger.Info("ci gate check",
			slog.String("repo", g.cfg.Owner+"/"+g.cfg.Repo),
			slog.String("ref", g.cfg.Ref),
			slog.String("sha", sha),
			slog.Int("attempt", attempt),
			slog.String("summary", last.String()),
		)
		if g.onCheck != nil {
			g.onCheck(attempt, last)
		}

		if last.Green() {
			return nil
		}
		return retry.RetryableError(errNotGreen)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNotGreen):
		return fmt.Errorf("%w: %s after %d attempts", ErrGateFailed, last, attempt)
	default:
		return fmt.Errorf("%w: %w", ErrGateFailed, err)
	}
}
