package breaktimev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	OrderService_ServiceName = "breaktime.v1.OrderService"

	OrderService_GetAvailableItems_FullMethodName  = "/breaktime.v1.OrderService/GetAvailableItems"
	OrderService_CreateOrder_FullMethodName        = "/breaktime.v1.OrderService/CreateOrder"
	OrderService_GetOrders_FullMethodName          = "/breaktime.v1.OrderService/GetOrders"
	OrderService_GetOrderById_FullMethodName       = "/breaktime.v1.OrderService/GetOrderById"
	OrderService_ValidateOrderState_FullMethodName = "/breaktime.v1.OrderService/ValidateOrderState"
	OrderService_Healthcheck_FullMethodName        = "/breaktime.v1.OrderService/Healthcheck"
)

// OrderServiceClient — клиентский API сервиса заказов.
type OrderServiceClient interface {
	GetAvailableItems(ctx context.Context, in *GetAvailableItemsRequest, opts ...grpc.CallOption) (*GetAvailableItemsResponse, error)
	CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error)
	GetOrders(ctx context.Context, in *GetOrdersRequest, opts ...grpc.CallOption) (*GetOrdersResponse, error)
	GetOrderById(ctx context.Context, in *GetOrderByIdRequest, opts ...grpc.CallOption) (*GetOrderByIdResponse, error)
	ValidateOrderState(ctx context.Context, in *ValidateOrderStateRequest, opts ...grpc.CallOption) (*ValidateOrderStateResponse, error)
	Healthcheck(ctx context.Context, in *HealthcheckRequest, opts ...grpc.CallOption) (*HealthcheckResponse, error)
}

type orderServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewOrderServiceClient создаёт клиента; каждый вызов идёт через JSON-кодек.
func NewOrderServiceClient(cc grpc.ClientConnInterface) OrderServiceClient {
	return &orderServiceClient{cc: cc}
}

func (c *orderServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	callOpts := make([]grpc.CallOption, 0, len(opts)+1)
	callOpts = append(callOpts, grpc.CallContentSubtype(CodecName))
	callOpts = append(callOpts, opts...)
	return c.cc.Invoke(ctx, method, in, out, callOpts...)
}

func (c *orderServiceClient) GetAvailableItems(ctx context.Context, in *GetAvailableItemsRequest, opts ...grpc.CallOption) (*GetAvailableItemsResponse, error) {
	out := new(GetAvailableItemsResponse)
	if err := c.invoke(ctx, OrderService_GetAvailableItems_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error) {
	out := new(CreateOrderResponse)
	if err := c.invoke(ctx, OrderService_CreateOrder_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) GetOrders(ctx context.Context, in *GetOrdersRequest, opts ...grpc.CallOption) (*GetOrdersResponse, error) {
	out := new(GetOrdersResponse)
	if err := c.invoke(ctx, OrderService_GetOrders_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) GetOrderById(ctx context.Context, in *GetOrderByIdRequest, opts ...grpc.CallOption) (*GetOrderByIdResponse, error) {
	out := new(GetOrderByIdResponse)
	if err := c.invoke(ctx, OrderService_GetOrderById_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) ValidateOrderState(ctx context.Context, in *ValidateOrderStateRequest, opts ...grpc.CallOption) (*ValidateOrderStateResponse, error) {
	out := new(ValidateOrderStateResponse)
	if err := c.invoke(ctx, OrderService_ValidateOrderState_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) Healthcheck(ctx context.Context, in *HealthcheckRequest, opts ...grpc.CallOption) (*HealthcheckResponse, error) {
	out := new(HealthcheckResponse)
	if err := c.invoke(ctx, OrderService_Healthcheck_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// OrderServiceServer — серверный API сервиса заказов.
// Реализации должны встраивать UnimplementedOrderServiceServer.
type OrderServiceServer interface {
	GetAvailableItems(context.Context, *GetAvailableItemsRequest) (*GetAvailableItemsResponse, error)
	CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error)
	GetOrders(context.Context, *GetOrdersRequest) (*GetOrdersResponse, error)
	GetOrderById(context.Context, *GetOrderByIdRequest) (*GetOrderByIdResponse, error)
	ValidateOrderState(context.Context, *ValidateOrderStateRequest) (*ValidateOrderStateResponse, error)
	Healthcheck(context.Context, *HealthcheckRequest) (*HealthcheckResponse, error)
	mustEmbedUnimplementedOrderServiceServer()
}

// UnimplementedOrderServiceServer отвечает Unimplemented на все методы.
type UnimplementedOrderServiceServer struct{}

func (UnimplementedOrderServiceServer) GetAvailableItems(context.Context, *GetAvailableItemsRequest) (*GetAvailableItemsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAvailableItems not implemented")
}

func (UnimplementedOrderServiceServer) CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateOrder not implemented")
}

func (UnimplementedOrderServiceServer) GetOrders(context.Context, *GetOrdersRequest) (*GetOrdersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetOrders not implemented")
}

func (UnimplementedOrderServiceServer) GetOrderById(context.Context, *GetOrderByIdRequest) (*GetOrderByIdResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetOrderById not implemented")
}

func (UnimplementedOrderServiceServer) ValidateOrderState(context.Context, *ValidateOrderStateRequest) (*ValidateOrderStateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ValidateOrderState not implemented")
}

func (UnimplementedOrderServiceServer) Healthcheck(context.Context, *HealthcheckRequest) (*HealthcheckResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Healthcheck not implemented")
}

func (UnimplementedOrderServiceServer) mustEmbedUnimplementedOrderServiceServer() {}

// RegisterOrderServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderService_ServiceDesc, srv)
}

// unaryHandler строит MethodHandler для унарного метода с учётом интерсептора.
func unaryHandler[Req, Resp any](fullMethod string, call func(OrderServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// OrderService_ServiceDesc описывает сервис для grpc.Server.
var OrderService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderService_ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetAvailableItems",
			Handler:    unaryHandler(OrderService_GetAvailableItems_FullMethodName, OrderServiceServer.GetAvailableItems),
		},
		{
			MethodName: "CreateOrder",
			Handler:    unaryHandler(OrderService_CreateOrder_FullMethodName, OrderServiceServer.CreateOrder),
		},
		{
			MethodName: "GetOrders",
			Handler:    unaryHandler(OrderService_GetOrders_FullMethodName, OrderServiceServer.GetOrders),
		},
		{
			MethodName: "GetOrderById",
			Handler:    unaryHandler(OrderService_GetOrderById_FullMethodName, OrderServiceServer.GetOrderById),
		},
		{
			MethodName: "ValidateOrderState",
			Handler:    unaryHandler(OrderService_ValidateOrderState_FullMethodName, OrderServiceServer.ValidateOrderState),
		},
		{
			MethodName: "Healthcheck",
			Handler:    unaryHandler(OrderService_Healthcheck_FullMethodName, OrderServiceServer.Healthcheck),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "breaktime/v1/order_service",
}
