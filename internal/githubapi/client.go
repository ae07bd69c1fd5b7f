// Package githubapi builds GitHub API clients for the CI gate and the
// release downloader.
package githubapi

import (
	"context"
	"net/http"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// NewClient returns a GitHub client authenticated with token. An empty
// token gives an anonymous client, which is enough for public
// repositories within the unauthenticated rate limit.
func NewClient(ctx context.Context, token string) *github.Client {
	return github.NewClient(httpClient(ctx, token))
}

func httpClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return nil
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return oauth2.NewClient(ctx, ts)
}
