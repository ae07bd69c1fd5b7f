// Package release copies a GitHub release asset into S3 and then disables
// the function that did the copying.
package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v68/github"
)

var ErrAssetNotFound = errors.New("release asset not found")

// ReleaseAPI is the part of the GitHub repositories API the downloader
// uses. *github.RepositoriesService satisfies it.
type ReleaseAPI interface {
	GetLatestRelease(ctx context.Context, owner, repo string) (*github.RepositoryRelease, *github.Response, error)
	DownloadReleaseAsset(ctx context.Context, owner, repo string, id int64, followRedirectsClient *http.Client) (io.ReadCloser, string, error)
}

type ObjectUploader interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
}

type FunctionDisabler interface {
	DisableFunction(ctx context.Context, functionName string) error
}

type Source struct {
	Owner string
	Repo  string
	Asset string
}

type Destination struct {
	Bucket string
	Key    string
}

type Result struct {
	Tag      string `json:"tag"`
	Asset    string `json:"asset"`
	Bytes    int    `json:"bytes"`
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Disabled bool   `json:"disabled"`
}

type Downloader struct {
	releases   ReleaseAPI
	uploader   ObjectUploader
	disabler   FunctionDisabler
	httpClient *http.Client
	logger     *slog.Logger
}

func NewDownloader(releases ReleaseAPI, uploader ObjectUploader, disabler FunctionDisabler, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		releases:   releases,
		uploader:   uploader,
		disabler:   disabler,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// Run copies the latest release's asset to dst. When functionName is set
// the function's concurrency is then set to zero so a scheduled trigger
// only ever gets one successful run. A failed copy leaves the function
// enabled for the next attempt.
func (d *Downloader) Run(ctx context.Context, src Source, dst Destination, functionName string) (Result, error) {
	rel, _, err := d.releases.GetLatestRelease(ctx, src.Owner, src.Repo)
	if err != nil {
		return Result{}, fmt.Errorf("GetLatestRelease: %w", err)
	}

	asset := findAsset(rel.Assets, src.Asset)
	if asset == nil {
		return Result{}, fmt.Errorf("%w: %s in %s/%s %s", ErrAssetNotFound, src.Asset, src.Owner, src.Repo, rel.GetTagName())
	}

	d.logger.Info("download started",
		slog.String("repo", src.Owner+"/"+src.Repo),
		slog.String("tag", rel.GetTagName()),
		slog.String("asset", asset.GetName()),
	)

	body, err := d.download(ctx, src, asset.GetID())
	if err != nil {
		return Result{}, err
	}

	d.logger.Info("download completed", slog.Int("bytes", len(body)))

	if err := d.uploader.Upload(ctx, dst.Bucket, dst.Key, bytes.NewReader(body), int64(len(body)), contentType(asset)); err != nil {
		return Result{}, err
	}

	result := Result{
		Tag:    rel.GetTagName(),
		Asset:  asset.GetName(),
		Bytes:  len(body),
		Bucket: dst.Bucket,
		Key:    dst.Key,
	}
	d.logger.Info("artifact uploaded",
		slog.String("bucket", dst.Bucket),
		slog.String("key", dst.Key),
	)

	if functionName == "" {
		return result, nil
	}
	if err := d.disabler.DisableFunction(ctx, functionName); err != nil {
		return result, err
	}
	result.Disabled = true
	d.logger.Info("function disabled", slog.String("function", functionName))
	return result, nil
}

func (d *Downloader) download(ctx context.Context, src Source, assetID int64) ([]byte, error) {
	rc, redirect, err := d.releases.DownloadReleaseAsset(ctx, src.Owner, src.Repo, assetID, d.httpClient)
	if err != nil {
		return nil, fmt.Errorf("DownloadReleaseAsset: %w", err)
	}
	if rc == nil {
		return nil, fmt.Errorf("DownloadReleaseAsset: unexpected redirect to %s", redirect)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading asset: %w", err)
	}
	return body, nil
}

func findAsset(assets []*github.ReleaseAsset, name string) *github.ReleaseAsset {
	for _, a := range assets {
		if a.GetName() == name {
			return a
		}
	}
	return nil
}

func contentType(asset *github.ReleaseAsset) string {
	if ct := asset.GetContentType(); ct != "" {
		return ct
	}
	return "application/zip"
}
