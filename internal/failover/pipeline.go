// Package failover runs the NAT instance cut-over as an ordered pipeline of
// independent steps and reports a status word per step.
package failover

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"natify.dev/natify/internal/reconcile"
)

const tracerName = "natify.dev/natify/failover"

// Step names double as the JSON keys of Details.
const (
	StepRouteTables     = "route_tables"
	StepSecurityGroup   = "security_group"
	StepStateMachine    = "state_machine"
	StepSourceDestCheck = "source_dest_check"
)

const statusFailed = "failed"

type Reconciler interface {
	ReconcileRoutes(ctx context.Context, vpcID, instanceID string) (reconcile.RouteReport, error)
	AuthorizeVPCIngress(ctx context.Context, vpcID, groupID string) (reconcile.IngressResult, error)
	Disarm(ctx context.Context, stateMachineName, ruleName string) (reconcile.DisarmResult, error)
	DisableSourceDestCheck(ctx context.Context, instanceID string) error
}

// Step is one unit of the pipeline. Run returns the status word for the
// step; on error the word describes how far it got.
type Step struct {
	Name string
	Run  func(ctx context.Context, t Target) (string, error)
}

type StepResult struct {
	Name     string
	Status   string
	Err      error
	Duration time.Duration
}

type Orchestrator struct {
	rec    Reconciler
	logger *slog.Logger
	tracer trace.Tracer
	newID  func() string
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}

func New(rec Reconciler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rec:    rec,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Steps returns the pipeline in execution order.
func (o *Orchestrator) Steps() []Step {
	return []Step{
		{Name: StepRouteTables, Run: o.routeTables},
		{Name: StepSecurityGroup, Run: o.securityGroup},
		{Name: StepStateMachine, Run: o.stateMachine},
		{Name: StepSourceDestCheck, Run: o.sourceDestCheck},
	}
}

// Handle validates the target and runs every step. A missing required
// setting yields a 400 before any provider call. Otherwise the response is
// 200 and step failures are reported in the body; a failing step never
// stops the steps after it.
func (o *Orchestrator) Handle(ctx context.Context, t Target) Response {
	if err := t.Validate(); err != nil {
		o.logger.Error("invalid failover configuration", "error", err)
		return badRequest(err)
	}

	runID := o.newID()
	logger := o.logger.With(slog.String("run_id", runID))

	ctx, span := o.tracer.Start(ctx, "failover.Run",
		trace.WithAttributes(
			attribute.String("natify.run_id", runID),
			attribute.String("natify.vpc_id", t.VPCID),
			attribute.String("natify.instance_id", t.InstanceID),
		),
	)
	defer span.End()

	logger.Info("failover started",
		slog.String("vpc", t.VPCID),
		slog.String("instance", t.InstanceID),
	)

	results := make([]StepResult, 0, 4)
	var failed []string
	for _, step := range o.Steps() {
		res := o.runStep(ctx, logger, step, t)
		results = append(results, res)
		if res.Err != nil {
			failed = append(failed, step.Name)
		}
	}

	if len(failed) > 0 {
		span.SetStatus(codes.Error, "steps failed")
		span.SetAttributes(attribute.StringSlice("natify.failed_steps", failed))
		logger.Warn("failover completed with errors", slog.Any("failed_steps", failed))
	} else {
		span.SetStatus(codes.Ok, "")
		logger.Info("failover completed")
	}

	return Response{StatusCode: http.StatusOK, Body: newResult(runID, results)}
}

func (o *Orchestrator) runStep(ctx context.Context, logger *slog.Logger, step Step, t Target) StepResult {
	ctx, span := o.tracer.Start(ctx, "failover."+step.Name)
	defer span.End()

	start := time.Now()
	status, err := step.Run(ctx, t)
	res := StepResult{Name: step.Name, Status: status, Err: err, Duration: time.Since(start)}

	span.SetAttributes(attribute.String("natify.step_status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("step failed",
			slog.String("step", step.Name),
			slog.String("status", status),
			slog.Duration("duration", res.Duration),
			slog.String("error", err.Error()),
		)
		return res
	}

	logger.Info("step completed",
		slog.String("step", step.Name),
		slog.String("status", status),
		slog.Duration("duration", res.Duration),
	)
	return res
}

func (o *Orchestrator) routeTables(ctx context.Context, t Target) (string, error) {
	report, err := o.rec.ReconcileRoutes(ctx, t.VPCID, t.InstanceID)
	if err != nil && len(report.Tables) == 0 {
		return statusFailed, err
	}
	return report.Status(), err
}

func (o *Orchestrator) securityGroup(ctx context.Context, t Target) (string, error) {
	if _, err := o.rec.AuthorizeVPCIngress(ctx, t.VPCID, t.SecurityGroupID); err != nil {
		return statusFailed, err
	}
	return "updated", nil
}

func (o *Orchestrator) stateMachine(ctx context.Context, t Target) (string, error) {
	res, err := o.rec.Disarm(ctx, t.StateMachineName, t.EventRuleName)
	if err != nil {
		return statusFailed, err
	}
	return res.Status(), nil
}

func (o *Orchestrator) sourceDestCheck(ctx context.Context, t Target) (string, error) {
	if err := o.rec.DisableSourceDestCheck(ctx, t.InstanceID); err != nil {
		return statusFailed, err
	}
	return "stopped", nil
}

// IsBadRequest reports whether err is a missing-configuration error.
func IsBadRequest(err error) bool {
	var missing *MissingConfigError
	return errors.As(err, &missing)
}
