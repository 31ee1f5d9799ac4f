package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * Service descriptor for sentenceparser.v1.Matcher.
 *
 * Requests and responses are google.protobuf.Struct messages, so the
 * service needs no generated code: any gRPC client that can send a Struct
 * (grpcurl included) can call it. Field names are documented on each
 * handler.
 */

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sentenceparser.v1.Matcher"

// Full method names, as seen by interceptors.
const (
	MethodFindBestMatch = "/" + ServiceName + "/FindBestMatch"
	MethodCompileRule   = "/" + ServiceName + "/CompileRule"
	MethodListRules     = "/" + ServiceName + "/ListRules"
	MethodAddRule       = "/" + ServiceName + "/AddRule"
	MethodRemoveRule    = "/" + ServiceName + "/RemoveRule"
)

// MutatingMethods lists the methods that require an API key.
func MutatingMethods() []string {
	return []string{MethodAddRule, MethodRemoveRule}
}

// MatcherServer is the server API for the Matcher service.
type MatcherServer interface {
	FindBestMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompileRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterMatcherServer registers srv with a gRPC server.
func RegisterMatcherServer(s grpc.ServiceRegistrar, srv MatcherServer) {
	s.RegisterService(&matcherServiceDesc, srv)
}

type unaryMethod func(MatcherServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// handler adapts a MatcherServer method to grpc.MethodDesc.
func handler(fullMethod string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MatcherServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(MatcherServer), ctx, req.(*structpb.Struct))
		})
	}
}

var matcherServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatcherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FindBestMatch", Handler: handler(MethodFindBestMatch, MatcherServer.FindBestMatch)},
		{MethodName: "CompileRule", Handler: handler(MethodCompileRule, MatcherServer.CompileRule)},
		{MethodName: "ListRules", Handler: handler(MethodListRules, MatcherServer.ListRules)},
		{MethodName: "AddRule", Handler: handler(MethodAddRule, MatcherServer.AddRule)},
		{MethodName: "RemoveRule", Handler: handler(MethodRemoveRule, MatcherServer.RemoveRule)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sentenceparser/v1/matcher.proto",
}
