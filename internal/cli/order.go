package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	breaktimev1 "github.com/vladislavdragonenkov/breaktime/api/breaktime/v1"
)

func newOrderCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Create and browse orders",
	}
	cmd.AddCommand(newOrderCreateCmd(opts))
	cmd.AddCommand(newOrderListCmd(opts))
	cmd.AddCommand(newOrderGetCmd(opts))
	return cmd
}

func newOrderCreateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "create <Item[=qty]>...",
		Short:   "Place an order, e.g. order create Tea=2 Coffee",
		Example: "  breaktime order create Tea=2 Coffee=1",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseItemArgs(args)
			if err != nil {
				return err
			}
			cart, err := buildCart(parsed)
			if err != nil {
				return err
			}

			input := cart.ToCreateInput()
			req := &breaktimev1.CreateOrderRequest{Items: make([]*breaktimev1.OrderItemInput, 0, len(input.Items))}
			for _, item := range input.Items {
				req.Items = append(req.Items, &breaktimev1.OrderItemInput{
					ItemName: item.ItemName.String(),
					Quantity: int32(item.Quantity),
				})
			}

			return opts.withClient(cmd, func(ctx context.Context, client breaktimev1.OrderServiceClient) error {
				resp, err := client.CreateOrder(ctx, req)
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), resp.GetSummary())
				}
				renderSummary(cmd.OutOrStdout(), resp.GetSummary())
				return nil
			})
		},
	}
}

func newOrderListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withClient(cmd, func(ctx context.Context, client breaktimev1.OrderServiceClient) error {
				resp, err := client.GetOrders(ctx, &breaktimev1.GetOrdersRequest{})
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), resp.GetOrders())
				}
				renderOrders(cmd.OutOrStdout(), resp.GetOrders())
				return nil
			})
		},
	}
}

func newOrderGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}

			return opts.withClient(cmd, func(ctx context.Context, client breaktimev1.OrderServiceClient) error {
				resp, err := client.GetOrderById(ctx, &breaktimev1.GetOrderByIdRequest{Id: id})
				if err != nil {
					return err
				}
				if !resp.Found {
					return fmt.Errorf("order %d not found", id)
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), resp.GetSummary())
				}
				renderSummary(cmd.OutOrStdout(), resp.GetSummary())
				return nil
			})
		},
	}
}
