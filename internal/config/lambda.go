package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v9"
)

// NatifyLambda is the failover function's environment.
type NatifyLambda struct {
	VPCID            string `env:"VPC_ID"`
	VPCName          string `env:"VPC_NAME"`
	InstanceID       string `env:"NAT_INSTANCE_ID"`
	SecurityGroupID  string `env:"NAT_SECURITY_GROUP_ID"`
	StateMachineName string `env:"NATIFYLAMBDA_STATE_MACHINE_NAME"`
	EventRuleName    string `env:"EVENT_RULE_NAME"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
}

// DownloaderLambda is the release downloader function's environment.
type DownloaderLambda struct {
	BucketName  string `env:"BUCKET_NAME"`
	ObjectKey   string `env:"OBJECT_KEY" envDefault:"natifylambda.zip"`
	ReleaseRepo string `env:"RELEASE_REPO" envDefault:"fortran01/natifylambda"`
	AssetName   string `env:"RELEASE_ASSET" envDefault:"natifylambda.zip"`
	GitHubToken string `env:"GITHUB_TOKEN"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadNatifyLambda parses the failover function's environment. Missing
// resource IDs are not an error here; the handler reports them per request.
func LoadNatifyLambda() (*NatifyLambda, error) {
	cfg := &NatifyLambda{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing natify lambda config: %w", err)
	}
	return cfg, nil
}

func LoadDownloaderLambda() (*DownloaderLambda, error) {
	cfg := &DownloaderLambda{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing downloader lambda config: %w", err)
	}
	return cfg, nil
}

var ErrBucketRequired = errors.New("BUCKET_NAME is required")

// Validate checks the downloader has somewhere to put the artifact.
func (c *DownloaderLambda) Validate() error {
	if c.BucketName == "" {
		return ErrBucketRequired
	}
	if _, _, err := SplitRepo(c.ReleaseRepo); err != nil {
		return fmt.Errorf("RELEASE_REPO: %w", err)
	}
	return nil
}

// SplitRepo splits an "owner/name" repository reference.
func SplitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q must be owner/name", repo)
	}
	return owner, name, nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
