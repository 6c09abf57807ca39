package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	breaktimev1 "github.com/vladislavdragonenkov/breaktime/api/breaktime/v1"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <Item[=qty]>...",
		Short: "Ask the service whether a cart state is orderable",
		Long:  "Sends the cart as-is, including zero quantities and unknown names, and prints the verdict.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseItemArgs(args)
			if err != nil {
				return err
			}
			state, err := json.Marshal(stateJSON(parsed))
			if err != nil {
				return fmt.Errorf("encode cart state: %w", err)
			}

			return opts.withClient(cmd, func(ctx context.Context, client breaktimev1.OrderServiceClient) error {
				resp, err := client.ValidateOrderState(ctx, &breaktimev1.ValidateOrderStateRequest{State: state})
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				renderValid(cmd.OutOrStdout(), resp.Valid)
				return nil
			})
		},
	}
}
