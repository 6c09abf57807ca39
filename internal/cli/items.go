package cli

import (
	"context"

	"github.com/spf13/cobra"

	breaktimev1 "github.com/vladislavdragonenkov/breaktime/api/breaktime/v1"
)

func newItemsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "items",
		Short: "List the break-time menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withClient(cmd, func(ctx context.Context, client breaktimev1.OrderServiceClient) error {
				resp, err := client.GetAvailableItems(ctx, &breaktimev1.GetAvailableItemsRequest{})
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				renderItems(cmd.OutOrStdout(), resp.GetItems())
				return nil
			})
		},
	}
}

func newHealthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the order service answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withClient(cmd, func(ctx context.Context, client breaktimev1.OrderServiceClient) error {
				resp, err := client.Healthcheck(ctx, &breaktimev1.HealthcheckRequest{})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
}
