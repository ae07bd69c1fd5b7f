package failover

import "net/http"

// Response is the Lambda invocation result.
type Response struct {
	StatusCode int `json:"statusCode"`
	Body       any `json:"body"`
}

type Result struct {
	Message string            `json:"message"`
	RunID   string            `json:"run_id"`
	Details Details           `json:"details"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Details holds one status word per pipeline step.
type Details struct {
	RouteTables     string `json:"route_tables"`
	SecurityGroup   string `json:"security_group"`
	StateMachine    string `json:"state_machine"`
	SourceDestCheck string `json:"source_dest_check"`
}

const (
	messageOK     = "Route tables modified successfully"
	messageErrors = "NAT failover completed with errors"
)

func badRequest(err error) Response {
	return Response{StatusCode: http.StatusBadRequest, Body: err.Error()}
}

func newResult(runID string, results []StepResult) Result {
	res := Result{Message: messageOK, RunID: runID}
	for _, r := range results {
		switch r.Name {
		case StepRouteTables:
			res.Details.RouteTables = r.Status
		case StepSecurityGroup:
			res.Details.SecurityGroup = r.Status
		case StepStateMachine:
			res.Details.StateMachine = r.Status
		case StepSourceDestCheck:
			res.Details.SourceDestCheck = r.Status
		}
		if r.Err != nil {
			if res.Errors == nil {
				res.Errors = make(map[string]string)
			}
			res.Errors[r.Name] = r.Err.Error()
			res.Message = messageErrors
		}
	}
	return res
}
