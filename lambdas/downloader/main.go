package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	awsclient "natify.dev/natify/internal/aws"
	"natify.dev/natify/internal/config"
	"natify.dev/natify/internal/githubapi"
	"natify.dev/natify/internal/release"
)

type handler struct {
	downloader *release.Downloader
	src        release.Source
	dst        release.Destination
}

// Handle copies the release artifact and then disables this function, so
// the one-minute schedule that triggers it only succeeds once.
func (h *handler) Handle(ctx context.Context) (release.Result, error) {
	var functionName string
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc != nil {
		functionName = lambdacontext.FunctionName
	}
	return h.downloader.Run(ctx, h.src, h.dst, functionName)
}

func main() {
	ctx := context.Background()

	cfg, err := config.LoadDownloaderLambda()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("loading configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.ParseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	awsCfg, err := awsclient.LoadConfig(ctx, "", "")
	if err != nil {
		logger.Error("loading AWS config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sc := awsclient.NewFromConfig(awsCfg)

	owner, repo, _ := config.SplitRepo(cfg.ReleaseRepo)
	gh := githubapi.NewClient(ctx, cfg.GitHubToken)

	h := &handler{
		downloader: release.NewDownloader(gh.Repositories, sc.S3, sc.Lambda, logger),
		src:        release.Source{Owner: owner, Repo: repo, Asset: cfg.AssetName},
		dst:        release.Destination{Bucket: cfg.BucketName, Key: cfg.ObjectKey},
	}

	lambda.Start(h.Handle)
}
