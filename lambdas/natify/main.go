package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	awsclient "natify.dev/natify/internal/aws"
	"natify.dev/natify/internal/config"
	"natify.dev/natify/internal/failover"
	"natify.dev/natify/internal/reconcile"
)

type vpcLookup interface {
	LookupVPCID(ctx context.Context, vpcName string) (string, error)
}

type handler struct {
	env          failover.Target
	vpcName      string
	lookup       vpcLookup
	orchestrator *failover.Orchestrator
	logger       *slog.Logger
}

// Handle runs one failover. Keys present in the event override the
// function's environment. VPC_NAME is resolved through Parameter Store
// only when no VPC_ID is given and the other required IDs are present.
func (h *handler) Handle(ctx context.Context, event failover.Target) (failover.Response, error) {
	target := h.env.Merge(event)

	if target.NeedsVPCLookup() && h.vpcName != "" {
		id, err := h.lookup.LookupVPCID(ctx, h.vpcName)
		if err != nil {
			h.logger.Warn("vpc lookup failed",
				slog.String("vpc_name", h.vpcName),
				slog.String("error", err.Error()),
			)
		} else {
			target.VPCID = id
		}
	}

	return h.orchestrator.Handle(ctx, target), nil
}

func main() {
	ctx := context.Background()

	cfg, err := config.LoadNatifyLambda()
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

	h := &handler{
		env: failover.Target{
			VPCID:            cfg.VPCID,
			InstanceID:       cfg.InstanceID,
			SecurityGroupID:  cfg.SecurityGroupID,
			StateMachineName: cfg.StateMachineName,
			EventRuleName:    cfg.EventRuleName,
		},
		vpcName: cfg.VPCName,
		lookup:  sc.SSM,
		orchestrator: failover.New(
			reconcile.New(reconcile.ClientsFrom(sc), logger),
			failover.WithLogger(logger),
		),
		logger: logger,
	}

	lambda.Start(h.Handle)
}
