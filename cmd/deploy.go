package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	awsclient "natify.dev/natify/internal/aws"
	awss3 "natify.dev/natify/internal/aws/s3"
	"natify.dev/natify/internal/config"
	"natify.dev/natify/internal/deploy"
	"natify.dev/natify/internal/githubapi"
)

type deployOptions struct {
	profile     string
	region      string
	planFile    string
	repo        string
	ref         string
	skipGate    bool
	s3URI       string
	pushgateway string
	verbose     bool
}

func NewDeployCmd() *cobra.Command {
	var opts deployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Wait for green CI, then deploy the NAT stacks in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runDeploy(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "AWS profile to use (default from config, else \"default\")")
	cmd.Flags().StringVarP(&opts.region, "region", "r", "", "AWS region to use")
	cmd.Flags().StringVar(&opts.planFile, "plan", "", "Deployment plan YAML (default: built-in two-stack plan)")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "GitHub repository owner/name whose CI gates the deployment")
	cmd.Flags().StringVar(&opts.ref, "ref", "main", "Commit SHA or branch to check CI for")
	cmd.Flags().BoolVar(&opts.skipGate, "skip-gate", false, "Deploy without waiting for CI")
	cmd.Flags().StringVar(&opts.s3URI, "s3-uri", "", "s3://bucket/prefix for templates over the inline size limit")
	cmd.Flags().StringVar(&opts.pushgateway, "pushgateway", "", "Prometheus Pushgateway URL for deployment metrics")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

func runDeploy(ctx context.Context, opts deployOptions) error {
	logger := newLogger(opts.verbose)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	profile, region := cfg.Merge(opts.profile, opts.region)
	if profile == "" {
		profile = "default"
	}
	repo := opts.repo
	if repo == "" {
		repo = cfg.GitHubRepo
	}
	planFile := opts.planFile
	if planFile == "" {
		planFile = cfg.PlanFile
	}

	plan := deploy.DefaultPlan()
	if planFile != "" {
		if plan, err = deploy.LoadPlan(planFile); err != nil {
			return err
		}
	}

	client, err := awsclient.NewServiceClient(ctx, profile, region)
	if err != nil {
		return fmt.Errorf("initializing AWS client: %w", err)
	}

	printer := deploy.NewPrinter(os.Stdout)
	metrics := deploy.NewMetrics()

	poller := deploy.NewPoller(client.CloudFormation, deploy.PollPolicy{Interval: deploy.DefaultPollInterval}, logger)
	poller.OnStatus(printer.StackStatus)

	deployerOpts := []deploy.DeployerOption{deploy.WithDeployerLogger(logger)}
	if opts.s3URI != "" {
		uri, err := awss3.ParseURI(opts.s3URI)
		if err != nil {
			return err
		}
		deployerOpts = append(deployerOpts, deploy.WithTemplateBucket(client.S3, uri))
	}

	runnerOpts := []deploy.RunnerOption{
		deploy.WithObserver(printer.Transition),
		deploy.WithMetrics(metrics),
		deploy.WithRunnerLogger(logger),
	}
	if !opts.skipGate {
		if repo == "" {
			return errors.New("no repository to gate on: set --repo or github_repo in config, or pass --skip-gate")
		}
		owner, name, err := config.SplitRepo(repo)
		if err != nil {
			return err
		}
		gh := githubapi.NewClient(ctx, githubToken())
		gate := deploy.NewGate(gh.Actions, gh.Repositories, deploy.GateConfig{Owner: owner, Repo: name, Ref: opts.ref}, logger)
		gate.OnCheck(func(attempt int, s deploy.RunSummary) {
			metrics.ObserveGateCheck()
			printer.GateCheck(attempt, s)
		})
		runnerOpts = append(runnerOpts, deploy.WithGate(gate))
	}

	runner := deploy.NewRunner(deploy.NewDeployer(client.CloudFormation, poller, deployerOpts...), runnerOpts...)
	report, runErr := runner.Run(ctx, plan)
	printer.Summary(report)

	if opts.pushgateway != "" {
		if err := metrics.Push(context.WithoutCancel(ctx), opts.pushgateway); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}
	return runErr
}

func githubToken() string {
	for _, key := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
