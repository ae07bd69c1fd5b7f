package cmd

import (
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	awsclient "natify.dev/natify/internal/aws"
	"natify.dev/natify/internal/config"
	"natify.dev/natify/internal/status"
	"natify.dev/natify/internal/tui"
)

func NewStatusCmd() *cobra.Command {
	var (
		profile, region string
		vpc             vpcFlags
		target          status.Target
		since           time.Duration
		watch           bool
		verbose         bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show NAT instance, private route, and trigger state for a VPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger(verbose)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			profile, region = cfg.Merge(profile, region)

			awsCfg, err := awsclient.LoadConfig(ctx, profile, region)
			if err != nil {
				return err
			}
			client := awsclient.NewFromConfig(awsCfg)

			target.VPCID, err = vpc.resolve(ctx, client.SSM)
			if err != nil {
				return err
			}

			collector := status.NewCollector(client.VPC, client.EC2, client.SFN, client.Events, logger).
				WithActivity(client.Logs, since)

			if watch {
				accountID := awsclient.GetAccountID(ctx, awsCfg)
				model := tui.NewModel(collector, target, profile, client.Region, accountID, cfg.RefreshInterval())
				p := tea.NewProgram(model)
				if _, err := p.Run(); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(1)
				}
				return nil
			}

			snap, err := collector.Collect(ctx, target)
			if err != nil {
				return err
			}
			style := status.PlainStyle()
			if isatty.IsTerminal(os.Stdout.Fd()) {
				style = status.ThemeStyle()
			}
			fmt.Print(status.Render(snap, style))
			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region to use")
	vpc.register(cmd)
	cmd.Flags().StringVar(&target.InstanceID, "instance-id", "", "NAT instance ID")
	cmd.Flags().StringVar(&target.SecurityGroupID, "security-group-id", "", "NAT instance security group ID")
	cmd.Flags().StringVar(&target.StateMachineName, "state-machine", "", "Trigger state machine")
	cmd.Flags().StringVar(&target.RuleName, "rule", "", "Trigger schedule rule")
	cmd.Flags().StringVar(&target.FunctionName, "function", "", "Failover Lambda function whose recent activity to show")
	cmd.Flags().DurationVar(&since, "since", status.DefaultActivityWindow, "How far back to read function activity")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Open a refreshing dashboard")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}
