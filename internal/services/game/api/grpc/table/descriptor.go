package table

import (
	"context"

	"google.golang.org/grpc"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	platformgrpc "github.com/louisbranch/stockrail/internal/platform/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "stockrail.table.v1.TableService"

// TableServiceServer is the server API of TableService.
type TableServiceServer interface {
	CreateGame(context.Context, *CreateGameRequest) (*GameResponse, error)
	GetGame(context.Context, *GetGameRequest) (*GameResponse, error)
	ListGames(context.Context, *ListGamesRequest) (*ListGamesResponse, error)
	ListActions(context.Context, *ListActionsRequest) (*ListActionsResponse, error)
	Process(context.Context, *ProcessRequest) (*ProcessResponse, error)
}

var _ TableServiceServer = (*Service)(nil)

// ServiceDesc describes TableService for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TableServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateGame", TableServiceServer.CreateGame),
		unary("GetGame", TableServiceServer.GetGame),
		unary("ListGames", TableServiceServer.ListGames),
		unary("ListActions", TableServiceServer.ListActions),
		unary("Process", TableServiceServer.Process),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stockrail/table/v1/table.proto",
}

// RegisterTableServiceServer registers srv on s.
func RegisterTableServiceServer(s grpc.ServiceRegistrar, srv TableServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(TableServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TableServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TableServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls TableService with the struct codec and restores domain errors
// from status details.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a TableService client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// CreateGame calls TableService.CreateGame.
func (c *Client) CreateGame(ctx context.Context, in *CreateGameRequest, opts ...grpc.CallOption) (*GameResponse, error) {
	return invoke[GameResponse](ctx, c.cc, "CreateGame", in, opts)
}

// GetGame calls TableService.GetGame.
func (c *Client) GetGame(ctx context.Context, in *GetGameRequest, opts ...grpc.CallOption) (*GameResponse, error) {
	return invoke[GameResponse](ctx, c.cc, "GetGame", in, opts)
}

// ListGames calls TableService.ListGames.
func (c *Client) ListGames(ctx context.Context, in *ListGamesRequest, opts ...grpc.CallOption) (*ListGamesResponse, error) {
	return invoke[ListGamesResponse](ctx, c.cc, "ListGames", in, opts)
}

// ListActions calls TableService.ListActions.
func (c *Client) ListActions(ctx context.Context, in *ListActionsRequest, opts ...grpc.CallOption) (*ListActionsResponse, error) {
	return invoke[ListActionsResponse](ctx, c.cc, "ListActions", in, opts)
}

// Process calls TableService.Process.
func (c *Client) Process(ctx context.Context, in *ProcessRequest, opts ...grpc.CallOption) (*ProcessResponse, error) {
	return invoke[ProcessResponse](ctx, c.cc, "Process", in, opts)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{platformgrpc.StructCallOption()}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, apperrors.FromGRPCStatus(err)
	}
	return out, nil
}
