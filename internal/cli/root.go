package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	breaktimev1 "github.com/vladislavdragonenkov/breaktime/api/breaktime/v1"
)

const (
	envServerAddr     = "BREAKTIME_GRPC_ADDR"
	defaultServerAddr = "localhost:50051"
	defaultTimeout    = 5 * time.Second
)

// DialFunc открывает соединение с сервисом заказов. Возвращённый Closer закрывает соединение.
type DialFunc func(addr string) (breaktimev1.OrderServiceClient, io.Closer, error)

type globalOptions struct {
	addr    string
	timeout time.Duration
	json    bool
	dial    DialFunc
}

// withClient открывает соединение, выполняет fn и закрывает соединение.
func (o *globalOptions) withClient(cmd *cobra.Command, fn func(ctx context.Context, client breaktimev1.OrderServiceClient) error) error {
	client, closer, err := o.dial(o.addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", o.addr, err)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	return fn(ctx, client)
}

// DialGRPC подключается к серверу без TLS.
func DialGRPC(addr string) (breaktimev1.OrderServiceClient, io.Closer, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return breaktimev1.NewOrderServiceClient(conn), conn, nil
}

// NewRootCmd собирает дерево команд; dial=nil означает DialGRPC.
func NewRootCmd(dial DialFunc) *cobra.Command {
	if dial == nil {
		dial = DialGRPC
	}
	opts := &globalOptions{dial: dial}

	defaultAddr := os.Getenv(envServerAddr)
	if defaultAddr == "" {
		defaultAddr = defaultServerAddr
	}

	cmd := &cobra.Command{
		Use:           "breaktime",
		Short:         "Order tea, coffee and friends for the break",
		Long:          "breaktime talks to the order service over gRPC: list the menu, place orders and browse order history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.addr, "addr", defaultAddr, "order service gRPC address (env "+envServerAddr+")")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "request timeout")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print raw JSON instead of tables")

	cmd.AddCommand(newItemsCmd(opts))
	cmd.AddCommand(newOrderCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newHealthCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))
	return cmd
}

func Execute() error {
	return NewRootCmd(nil).Execute()
}
