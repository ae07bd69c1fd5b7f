package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"natify.dev/natify/internal/aws/cfn"
	"natify.dev/natify/internal/aws/s3"
)

var ErrTemplateTooLarge = errors.New("template exceeds inline size limit")

// StackAPI is the CloudFormation surface the deployer needs.
type StackAPI interface {
	StackDescriber
	CreateStack(ctx context.Context, in cfn.StackInput) (string, error)
	UpdateStack(ctx context.Context, in cfn.StackInput) (string, error)
}

type TemplateUploader interface {
	UploadTemplate(ctx context.Context, uri s3.URI, stackName, template string) (string, error)
}

type DeployerOption func(*Deployer)

// WithTemplateBucket stages templates over the inline limit in S3.
func WithTemplateBucket(uploader TemplateUploader, uri s3.URI) DeployerOption {
	return func(d *Deployer) {
		d.uploader = uploader
		d.bucket = &uri
	}
}

func WithDeployerLogger(logger *slog.Logger) DeployerOption {
	return func(d *Deployer) {
		d.logger = logger
	}
}

// Deployer creates or updates a single stack and waits for it to settle.
type Deployer struct {
	api      StackAPI
	poller   *Poller
	uploader TemplateUploader
	bucket   *s3.URI
	logger   *slog.Logger
	readFile func(string) ([]byte, error)
}

func NewDeployer(api StackAPI, poller *Poller, opts ...DeployerOption) *Deployer {
	d := &Deployer{
		api:      api,
		poller:   poller,
		logger:   slog.Default(),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deploy drives m from DEPLOYING to SUCCESS or FAILED. The stack is
// created when DescribeStacks fails for it and updated otherwise.
func (d *Deployer) Deploy(ctx context.Context, req StackRequest, m *Machine) (cfn.Stack, error) {
	stack, err := d.deploy(ctx, req, m)
	if err != nil && !m.State().Terminal() {
		if terr := m.To(StateFailed, err.Error()); terr != nil {
			d.logger.Error("state transition", slog.String("error", terr.Error()))
		}
	}
	return stack, err
}

func (d *Deployer) deploy(ctx context.Context, req StackRequest, m *Machine) (cfn.Stack, error) {
	in, err := d.input(ctx, req)
	if err != nil {
		return cfn.Stack{}, err
	}

	existing, probeErr := d.api.DescribeStack(ctx, req.Name)
	if probeErr != nil {
		d.logger.Debug("stack not found, creating",
			slog.String("stack", req.Name),
			slog.String("probe_error", probeErr.Error()),
		)
		if err := m.To(StateStackCreate, "creating"); err != nil {
			return cfn.Stack{}, err
		}
		if _, err := d.api.CreateStack(ctx, in); err != nil {
			return cfn.Stack{}, err
		}
	} else {
		if err := m.To(StateStackUpdate, "updating from "+existing.Status); err != nil {
			return cfn.Stack{}, err
		}
		if _, err := d.api.UpdateStack(ctx, in); err != nil {
			if !cfn.IsNoUpdates(err) {
				return cfn.Stack{}, err
			}
			d.logger.Info("no updates to perform", slog.String("stack", req.Name))
			if err := m.To(StateSuccess, "no updates are to be performed"); err != nil {
				return cfn.Stack{}, err
			}
			return existing, nil
		}
	}

	if err := m.To(StatePolling, ""); err != nil {
		return cfn.Stack{}, err
	}
	stack, err := d.poller.Wait(ctx, req.Name)
	if err != nil {
		return stack, err
	}
	if err := m.To(StateSuccess, stack.Status); err != nil {
		return stack, err
	}
	return stack, nil
}

func (d *Deployer) input(ctx context.Context, req StackRequest) (cfn.StackInput, error) {
	body, err := d.readFile(req.Template)
	if err != nil {
		return cfn.StackInput{}, fmt.Errorf("reading template for %s: %w", req.Name, err)
	}

	in := cfn.StackInput{
		Name:         req.Name,
		Parameters:   req.Parameters,
		Capabilities: req.CapabilityList(),
		Tags:         req.Tags,
	}
	if len(body) <= cfn.TemplateSizeLimit {
		in.TemplateBody = string(body)
		return in, nil
	}

	if d.bucket == nil || d.uploader == nil {
		return cfn.StackInput{}, fmt.Errorf("%w: %s is %d bytes, set an S3 location for templates", ErrTemplateTooLarge, req.Template, len(body))
	}
	url, err := d.uploader.UploadTemplate(ctx, *d.bucket, req.Name, string(body))
	if err != nil {
		return cfn.StackInput{}, err
	}
	d.logger.Info("template staged in s3",
		slog.String("stack", req.Name),
		slog.String("url", url),
		slog.Int("bytes", len(body)),
	)
	in.TemplateURL = url
	return in, nil
}
