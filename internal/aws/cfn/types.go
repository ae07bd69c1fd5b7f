package cfn

import "time"

// TemplateSizeLimit is the largest template body CloudFormation accepts
// inline. Anything bigger must be passed by S3 URL.
const TemplateSizeLimit = 51200

type Parameter struct {
	Key   string `yaml:"key" validate:"required"`
	Value string `yaml:"value"`
}

// StackInput describes a create or update request. Exactly one of
// TemplateBody and TemplateURL is set.
type StackInput struct {
	Name         string
	TemplateBody string
	TemplateURL  string
	Parameters   []Parameter
	Capabilities []string
	Tags         map[string]string
}

type Stack struct {
	Name         string
	ID           string
	Status       string
	StatusReason string
	Outputs      []Output
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Output struct {
	Key         string
	Value       string
	Description string
}

type StackEvent struct {
	LogicalID string
	Type      string
	Status    string
	Reason    string
	Timestamp time.Time
}
