package deploy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"natify.dev/natify/internal/aws/cfn"
)

const capabilityIAM = "CAPABILITY_IAM"

var validate = validator.New()

// Plan is an ordered list of stacks. Later stacks may depend on outputs of
// earlier ones, so order is significant.
type Plan struct {
	Stacks []StackRequest `yaml:"stacks" validate:"required,min=1,unique=Name,dive"`
}

type StackRequest struct {
	Name         string            `yaml:"name" validate:"required,max=128"`
	Template     string            `yaml:"template" validate:"required"`
	Parameters   []cfn.Parameter   `yaml:"parameters" validate:"dive"`
	Capabilities []string          `yaml:"capabilities" validate:"dive,oneof=CAPABILITY_IAM CAPABILITY_NAMED_IAM CAPABILITY_AUTO_EXPAND"`
	Tags         map[string]string `yaml:"tags"`
}

// DefaultPlan deploys the downloader stack, then the NAT stack for the
// production VPC, from a CDK synth output directory.
func DefaultPlan() *Plan {
	return &Plan{Stacks: []StackRequest{
		{
			Name:     "DownloaderLambdaStack",
			Template: "cdk.out/0_DownloaderLambdaStack.yaml",
		},
		{
			Name:     "NatifyStack",
			Template: "cdk.out/1_NatifyStack.yaml",
			Parameters: []cfn.Parameter{
				{Key: "VpcName", Value: "Production-VPC"},
			},
		},
	}}
}

// LoadPlan reads a YAML plan. Relative template paths are resolved against
// the plan file's directory.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range p.Stacks {
		if t := p.Stacks[i].Template; t != "" && !filepath.IsAbs(t) {
			p.Stacks[i].Template = filepath.Join(dir, t)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return &p, nil
}

func (p *Plan) Validate() error {
	return validate.Struct(p)
}

// CapabilityList returns the requested capabilities with CAPABILITY_IAM
// always first and no duplicates.
func (r StackRequest) CapabilityList() []string {
	caps := []string{capabilityIAM}
	for _, c := range r.Capabilities {
		dup := false
		for _, have := range caps {
			if have == c {
				dup = true
				break
			}
		}
		if !dup {
			caps = append(caps, c)
		}
	}
	return caps
}
