package failover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"natify.dev/natify/internal/reconcile"
)

type fakeReconciler struct {
	calls []string

	routes    reconcile.RouteReport
	routesErr error
	ingErr    error
	disarm    reconcile.DisarmResult
	disarmErr error
	srcDstErr error
}

func (f *fakeReconciler) ReconcileRoutes(ctx context.Context, vpcID, instanceID string) (reconcile.RouteReport, error) {
	f.calls = append(f.calls, StepRouteTables)
	return f.routes, f.routesErr
}

func (f *fakeReconciler) AuthorizeVPCIngress(ctx context.Context, vpcID, groupID string) (reconcile.IngressResult, error) {
	f.calls = append(f.calls, StepSecurityGroup)
	return reconcile.IngressResult{GroupID: groupID}, f.ingErr
}

func (f *fakeReconciler) Disarm(ctx context.Context, stateMachineName, ruleName string) (reconcile.DisarmResult, error) {
	f.calls = append(f.calls, StepStateMachine)
	return f.disarm, f.disarmErr
}

func (f *fakeReconciler) DisableSourceDestCheck(ctx context.Context, instanceID string) error {
	f.calls = append(f.calls, StepSourceDestCheck)
	return f.srcDstErr
}

func validTarget() Target {
	return Target{
		VPCID:            "vpc-1",
		InstanceID:       "i-nat",
		SecurityGroupID:  "sg-nat",
		StateMachineName: "NatifySM-1234",
		EventRuleName:    "NatifyRule-1234",
	}
}

func newTestOrchestrator(rec Reconciler) (*Orchestrator, *tracetest.SpanRecorder, *bytes.Buffer) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	logs := &bytes.Buffer{}
	o := New(rec,
		WithLogger(slog.New(slog.NewJSONHandler(logs, nil))),
		WithTracerProvider(tp),
	)
	o.newID = func() string { return "run-1" }
	return o, recorder, logs
}

func TestHandle_MissingConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Target)
		body   string
	}{
		{"vpc", func(t *Target) { t.VPCID = "" }, "VPC_ID not found"},
		{"instance", func(t *Target) { t.InstanceID = "" }, "NAT_INSTANCE_ID not found"},
		{"security group", func(t *Target) { t.SecurityGroupID = "" }, "NAT_SECURITY_GROUP_ID not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeReconciler{}
			o, recorder, _ := newTestOrchestrator(rec)
			target := validTarget()
			tt.mutate(&target)

			resp := o.Handle(context.Background(), target)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.body, resp.Body)
			assert.Empty(t, rec.calls)
			assert.Empty(t, recorder.Ended())
		})
	}
}

func TestHandle_AllStepsSucceed(t *testing.T) {
	rec := &fakeReconciler{
		routes: reconcile.RouteReport{Tables: []reconcile.TableResult{{RouteTableID: "rtb-1", Action: reconcile.RouteAdded}}},
		disarm: reconcile.DisarmResult{Found: true, RuleDisabled: true},
	}
	o, _, logs := newTestOrchestrator(rec)

	resp := o.Handle(context.Background(), validTarget())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{StepRouteTables, StepSecurityGroup, StepStateMachine, StepSourceDestCheck}, rec.calls)

	body, ok := resp.Body.(Result)
	require.True(t, ok)
	assert.Equal(t, "Route tables modified successfully", body.Message)
	assert.Equal(t, Details{
		RouteTables:     "modified",
		SecurityGroup:   "updated",
		StateMachine:    "disabled",
		SourceDestCheck: "stopped",
	}, body.Details)
	assert.Nil(t, body.Errors)
	assert.Contains(t, logs.String(), `"run_id":"run-1"`)
}

func TestHandle_ResponseJSON(t *testing.T) {
	rec := &fakeReconciler{}
	o, _, _ := newTestOrchestrator(rec)

	data, err := json.Marshal(o.Handle(context.Background(), validTarget()))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"statusCode": 200,
		"body": {
			"message": "Route tables modified successfully",
			"run_id": "run-1",
			"details": {
				"route_tables": "modified",
				"security_group": "updated",
				"state_machine": "not found",
				"source_dest_check": "stopped"
			}
		}
	}`, string(data))
}

func TestHandle_ContinuesAfterStepFailure(t *testing.T) {
	rec := &fakeReconciler{
		routes: reconcile.RouteReport{Tables: []reconcile.TableResult{
			{RouteTableID: "rtb-1", Err: errors.New("denied")},
			{RouteTableID: "rtb-2", Action: reconcile.RouteModified},
		}},
		routesErr: errors.New("route table rtb-1: denied"),
		ingErr:    errors.New("InvalidGroup.NotFound"),
	}
	o, _, _ := newTestOrchestrator(rec)

	resp := o.Handle(context.Background(), validTarget())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, rec.calls, 4)

	body := resp.Body.(Result)
	assert.Equal(t, "NAT failover completed with errors", body.Message)
	assert.Equal(t, "partial", body.Details.RouteTables)
	assert.Equal(t, "failed", body.Details.SecurityGroup)
	assert.Equal(t, "not found", body.Details.StateMachine)
	assert.Equal(t, "stopped", body.Details.SourceDestCheck)
	assert.Equal(t, map[string]string{
		StepRouteTables:   "route table rtb-1: denied",
		StepSecurityGroup: "InvalidGroup.NotFound",
	}, body.Errors)
}

func TestHandle_DiscoveryFailureMarksRoutesFailed(t *testing.T) {
	rec := &fakeReconciler{
		routesErr: errors.New("DescribeSubnets: throttled"),
		disarmErr: errors.New("ListStateMachines: denied"),
		srcDstErr: errors.New("ModifyInstanceAttribute: denied"),
	}
	o, _, _ := newTestOrchestrator(rec)

	body := o.Handle(context.Background(), validTarget()).Body.(Result)
	assert.Equal(t, "failed", body.Details.RouteTables)
	assert.Equal(t, "updated", body.Details.SecurityGroup)
	assert.Equal(t, "failed", body.Details.StateMachine)
	assert.Equal(t, "failed", body.Details.SourceDestCheck)
	assert.Len(t, body.Errors, 3)
}

func TestHandle_Spans(t *testing.T) {
	rec := &fakeReconciler{srcDstErr: errors.New("denied")}
	o, recorder, _ := newTestOrchestrator(rec)

	o.Handle(context.Background(), validTarget())

	spans := recorder.Ended()
	require.Len(t, spans, 5)
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"failover.route_tables",
		"failover.security_group",
		"failover.state_machine",
		"failover.source_dest_check",
		"failover.Run",
	}, names)

	assert.Equal(t, codes.Error, spans[3].Status().Code)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[4].Status().Code)
	for _, s := range spans[:4] {
		assert.Equal(t, spans[4].SpanContext().SpanID(), s.Parent().SpanID())
	}
}

func TestTargetMerge(t *testing.T) {
	base := validTarget()
	merged := base.Merge(Target{VPCID: "vpc-2", EventRuleName: "rule-2"})
	assert.Equal(t, "vpc-2", merged.VPCID)
	assert.Equal(t, "rule-2", merged.EventRuleName)
	assert.Equal(t, base.InstanceID, merged.InstanceID)
	assert.Equal(t, base, base.Merge(Target{}))
}

func TestIsBadRequest(t *testing.T) {
	assert.True(t, IsBadRequest(Target{}.Validate()))
	assert.False(t, IsBadRequest(errors.New("boom")))
	assert.NoError(t, validTarget().Validate())
}

func TestTargetNeedsVPCLookup(t *testing.T) {
	assert.True(t, Target{InstanceID: "i-nat", SecurityGroupID: "sg-1"}.NeedsVPCLookup())
	assert.False(t, validTarget().NeedsVPCLookup())
	assert.False(t, Target{SecurityGroupID: "sg-1"}.NeedsVPCLookup())
	assert.False(t, Target{InstanceID: "i-nat"}.NeedsVPCLookup())
}
