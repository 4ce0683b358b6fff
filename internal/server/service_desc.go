package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "poextractor.v1.ExtractorService"

const (
	extractHeaderMethod = "/" + ServiceName + "/ExtractHeader"
	extractItemsMethod  = "/" + ServiceName + "/ExtractItems"
)

// ExtractorServer is the server API for the extractor service. Messages are
// google.protobuf.Struct so that no generated code is needed.
type ExtractorServer interface {
	ExtractHeader(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractItems(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ExtractorServiceDesc describes the extractor service for grpc.Server.
var ExtractorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractHeader", Handler: extractHeaderHandler},
		{MethodName: "ExtractItems", Handler: extractItemsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "poextractor/v1/extractor.proto",
}

func RegisterExtractorServer(s grpc.ServiceRegistrar, srv ExtractorServer) {
	s.RegisterService(&ExtractorServiceDesc, srv)
}

func extractHeaderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractorServer).ExtractHeader(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: extractHeaderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractorServer).ExtractHeader(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func extractItemsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractorServer).ExtractItems(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: extractItemsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractorServer).ExtractItems(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ExtractorClient calls the extractor service over conn.
type ExtractorClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractorClient(cc grpc.ClientConnInterface) *ExtractorClient {
	return &ExtractorClient{cc: cc}
}

func (c *ExtractorClient) ExtractHeader(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, extractHeaderMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractorClient) ExtractItems(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, extractItemsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
