package onebot

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"groupreview-bot/internal/domain"
	"groupreview-bot/internal/logger"
)

const (
	grpcServiceName = "onebot-grpc"

	// CallActionMethod is the full RPC name served by an action bridge
	CallActionMethod = "/onebot.v11.ActionBridge/CallAction"
)

// ActionBridgeServer is implemented by bridges that expose bot actions over
// gRPC. Requests are {action, params}; responses are the OneBot envelope.
type ActionBridgeServer interface {
	CallAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func callActionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActionBridgeServer).CallAction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CallActionMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ActionBridgeServer).CallAction(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ActionBridgeServiceDesc describes the bridge service for grpc.Server.RegisterService
var ActionBridgeServiceDesc = grpc.ServiceDesc{
	ServiceName: "onebot.v11.ActionBridge",
	HandlerType: (*ActionBridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CallAction",
			Handler:    callActionHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

// GRPCBridge invokes bot actions generically with keyword arguments
type GRPCBridge struct {
	conn        grpc.ClientConnInterface
	closer      func() error
	accessToken string
}

// NewGRPCBridge wraps an existing connection
func NewGRPCBridge(conn grpc.ClientConnInterface, accessToken string) *GRPCBridge {
	return &GRPCBridge{
		conn:        conn,
		closer:      func() error { return nil },
		accessToken: accessToken,
	}
}

// DialGRPCBridge connects to a bridge at target
func DialGRPCBridge(target, accessToken string, opts ...grpc.DialOption) (*GRPCBridge, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", target, err)
	}
	b := NewGRPCBridge(conn, accessToken)
	b.closer = conn.Close
	return b, nil
}

// CallAction invokes any action with the given keyword arguments and
// returns the envelope's data.
func (b *GRPCBridge) CallAction(ctx context.Context, action string, kwargs map[string]any) (map[string]any, error) {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	req, err := structpb.NewStruct(map[string]any{
		"action": action,
		"params": kwargs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s params: %w", action, err)
	}

	if b.accessToken != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+b.accessToken)
	}

	resp := new(structpb.Struct)
	if err := b.conn.Invoke(ctx, CallActionMethod, req, resp); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", action, err)
	}

	env := envelopeFromStruct(resp)
	if err := env.err(action); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// SetGroupAddRequest approves or rejects a join request
func (b *GRPCBridge) SetGroupAddRequest(ctx context.Context, params domain.GroupAddRequestParams) error {
	logger.ExternalServiceCall(grpcServiceName, domain.ActionSetGroupAddRequest, "flag", params.Flag, "approve", params.Approve)
	_, err := b.CallAction(ctx, domain.ActionSetGroupAddRequest, params.Kwargs())
	logger.ExternalServiceResult(grpcServiceName, domain.ActionSetGroupAddRequest, err, "flag", params.Flag)
	return err
}

// GetStatus queries get_status
func (b *GRPCBridge) GetStatus(ctx context.Context) (*domain.BotStatus, error) {
	logger.ExternalServiceCall(grpcServiceName, "get_status")
	data, err := b.CallAction(ctx, "get_status", nil)
	logger.ExternalServiceResult(grpcServiceName, "get_status", err)
	if err != nil {
		return nil, err
	}
	return statusFromData(data), nil
}

// Close releases the underlying connection when the bridge owns it
func (b *GRPCBridge) Close() error {
	return b.closer()
}

func envelopeFromStruct(s *structpb.Struct) envelope {
	m := s.AsMap()
	env := envelope{}
	env.Status, _ = m["status"].(string)
	// structpb numbers are always float64
	if rc, ok := m["retcode"].(float64); ok {
		env.RetCode = int64(rc)
	}
	env.Message, _ = m["message"].(string)
	env.Wording, _ = m["wording"].(string)
	env.Data, _ = m["data"].(map[string]any)
	return env
}
