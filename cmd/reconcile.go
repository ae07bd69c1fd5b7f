package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	awsclient "natify.dev/natify/internal/aws"
	"natify.dev/natify/internal/config"
	"natify.dev/natify/internal/failover"
	"natify.dev/natify/internal/reconcile"
)

type vpcFlags struct {
	vpcID   string
	vpcName string
}

func (f *vpcFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.vpcID, "vpc-id", "", "VPC ID")
	cmd.Flags().StringVar(&f.vpcName, "vpc-name", "", "VPC name, resolved through Parameter Store when --vpc-id is not set")
}

type vpcIDLookup interface {
	LookupVPCID(ctx context.Context, vpcName string) (string, error)
}

// resolve returns the VPC ID, consulting Parameter Store only when no ID
// was given.
func (f *vpcFlags) resolve(ctx context.Context, lookup vpcIDLookup) (string, error) {
	if f.vpcID != "" || f.vpcName == "" {
		return f.vpcID, nil
	}
	return lookup.LookupVPCID(ctx, f.vpcName)
}

// resolveTarget fills in the VPC ID. Parameter Store is consulted only when
// the rest of the target is complete, so a target rejected for a missing
// instance or security group makes no AWS calls.
func resolveTarget(ctx context.Context, vpc vpcFlags, target failover.Target, lookup vpcIDLookup) (failover.Target, error) {
	target.VPCID = vpc.vpcID
	if !target.NeedsVPCLookup() {
		return target, nil
	}
	id, err := vpc.resolve(ctx, lookup)
	if err != nil {
		return target, err
	}
	target.VPCID = id
	return target, nil
}

func NewReconcileCmd() *cobra.Command {
	var (
		profile, region string
		vpc             vpcFlags
		target          failover.Target
		verbose         bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run the NAT failover pipeline once and print its JSON response",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLeveledLogger(reconcileLogLevel, verbose)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			profile, region = cfg.Merge(profile, region)

			client, err := awsclient.NewServiceClient(ctx, profile, region)
			if err != nil {
				return fmt.Errorf("initializing AWS client: %w", err)
			}

			resolved, err := resolveTarget(ctx, vpc, target, client.SSM)
			if err != nil {
				return err
			}

			orch := failover.New(reconcile.New(reconcile.ClientsFrom(client), logger), failover.WithLogger(logger))
			resp := orch.Handle(ctx, resolved)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("failover rejected: %v", resp.Body)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region to use")
	vpc.register(cmd)
	cmd.Flags().StringVar(&target.InstanceID, "instance-id", "", "NAT instance ID")
	cmd.Flags().StringVar(&target.SecurityGroupID, "security-group-id", "", "NAT instance security group ID")
	cmd.Flags().StringVar(&target.StateMachineName, "state-machine", "", "Trigger state machine to disarm")
	cmd.Flags().StringVar(&target.EventRuleName, "rule", "", "Schedule rule to disable")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}
