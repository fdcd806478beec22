package mapserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "starmap.v1.StarMap"

// StarMapServer is the server API for the StarMap service.
type StarMapServer interface {
	NearbyStars(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TravelTime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RouteStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PlanRoute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveRoute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LoadRoute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRoutes(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(StarMapServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(StarMapServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes the StarMap service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StarMapServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("NearbyStars", StarMapServer.NearbyStars),
		unary("TravelTime", StarMapServer.TravelTime),
		unary("RouteStats", StarMapServer.RouteStats),
		unary("PlanRoute", StarMapServer.PlanRoute),
		unary("SaveRoute", StarMapServer.SaveRoute),
		unary("LoadRoute", StarMapServer.LoadRoute),
		unary("ListRoutes", StarMapServer.ListRoutes),
	},
	Streams: []grpc.StreamDesc{},
}

// Register attaches srv to a gRPC server.
func Register(s grpc.ServiceRegistrar, srv StarMapServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the StarMap service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req encoded as a Struct and returns the decoded
// response.
//
// Postcondition: Returns the response fields or a gRPC status error.
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// Invoke runs method on srv in-process with the same request and response
// shapes as Client.Call.
func Invoke(ctx context.Context, srv StarMapServer, method string, req map[string]any) (map[string]any, error) {
	for _, md := range ServiceDesc.Methods {
		if md.MethodName != method {
			continue
		}
		in, err := structpb.NewStruct(req)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "encoding request: %v", err)
		}
		dec := func(v any) error {
			proto.Merge(v.(proto.Message), in)
			return nil
		}
		out, err := md.Handler(srv, ctx, dec, nil)
		if err != nil {
			return nil, err
		}
		return out.(*structpb.Struct).AsMap(), nil
	}
	return nil, status.Errorf(codes.Unimplemented, "unknown method %s", method)
}
