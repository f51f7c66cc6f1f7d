package api

import (
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/query"
	"TraceSpectra/internal/wire"
	"context"
	"errors"
	"log"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ResultServiceName is the fully qualified gRPC service name.
const ResultServiceName = "tracespectra.v1.ResultService"

// ResultServiceServer is the server API for the result service. Messages
// are protobuf well-known types: results travel as Struct values, a trace
// is addressed by its "<group>/<name>" key.
type ResultServiceServer interface {
	ListResults(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetResult(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterResultServiceServer registers srv on s.
func RegisterResultServiceServer(s grpc.ServiceRegistrar, srv ResultServiceServer) {
	s.RegisterService(&ResultServiceDesc, srv)
}

func listResultsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResultServiceServer).ListResults(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ResultServiceName + "/ListResults"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ResultServiceServer).ListResults(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getResultHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResultServiceServer).GetResult(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ResultServiceName + "/GetResult"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ResultServiceServer).GetResult(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ResultServiceDesc describes the result service for grpc.Server.
var ResultServiceDesc = grpc.ServiceDesc{
	ServiceName: ResultServiceName,
	HandlerType: (*ResultServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListResults", Handler: listResultsHandler},
		{MethodName: "GetResult", Handler: getResultHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tracespectra/v1/result.proto",
}

// ResultServiceClient calls a remote result service.
type ResultServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewResultServiceClient creates a client over an existing connection.
func NewResultServiceClient(cc grpc.ClientConnInterface) *ResultServiceClient {
	return &ResultServiceClient{cc: cc}
}

// ListResults returns every result known to the server.
func (c *ResultServiceClient) ListResults(ctx context.Context, opts ...grpc.CallOption) ([]model.TraceResult, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, "/"+ResultServiceName+"/ListResults", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	results := make([]model.TraceResult, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		res, err := wire.Decode(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// GetResult returns the result of one trace.
func (c *ResultServiceClient) GetResult(ctx context.Context, name, group string, opts ...grpc.CallOption) (*model.TraceResult, error) {
	out := new(structpb.Struct)
	key := model.TraceSpec{Name: name, Group: group}.Key()
	if err := c.cc.Invoke(ctx, "/"+ResultServiceName+"/GetResult", wrapperspb.String(key), out, opts...); err != nil {
		return nil, err
	}
	res, err := wire.Decode(out)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ParseKey splits a "<group>/<name>" key. A key without a slash is a bare name.
func ParseKey(key string) (name, group string) {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:], key[:i]
	}
	return key, ""
}

// Service implements ResultServiceServer on top of a Querier.
type Service struct {
	querier query.Querier
}

// NewService creates a result service.
func NewService(q query.Querier) *Service {
	return &Service{querier: q}
}

func (s *Service) ListResults(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	log.Println("Received ListResults request")
	results, err := s.querier.ListResults(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list results: %v", err)
	}
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(results))}
	for _, res := range results {
		st, err := wire.Encode(res)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		list.Values = append(list.Values, structpb.NewStructValue(st))
	}
	return list, nil
}

func (s *Service) GetResult(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name, group := ParseKey(req.GetValue())
	log.Printf("Received GetResult request for trace: %s, group: %s", name, group)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "trace name is required")
	}
	res, err := s.querier.GetResult(ctx, name, group)
	if errors.Is(err, query.ErrNotFound) {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get result: %v", err)
	}
	st, err := wire.Encode(*res)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}
