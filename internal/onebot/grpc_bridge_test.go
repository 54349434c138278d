package onebot

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"groupreview-bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBridge records calls and answers with a canned envelope
type fakeBridge struct {
	mu       sync.Mutex
	requests []map[string]any
	auth     []string
	reply    map[string]any
}

func (f *fakeBridge) CallAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req.AsMap())
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		f.auth = append(f.auth, md.Get("authorization")...)
	}
	return structpb.NewStruct(f.reply)
}

func startBridge(t *testing.T, bridge ActionBridgeServer, token string) *GRPCBridge {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&ActionBridgeServiceDesc, bridge)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := DialGRPCBridge("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGRPCBridge_SetGroupAddRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Sends keyword arguments", func(t *testing.T) {
		fake := &fakeBridge{reply: map[string]any{"status": "ok", "retcode": 0}}
		client := startBridge(t, fake, "tok")

		err := client.SetGroupAddRequest(ctx, domain.GroupAddRequestParams{Flag: "f9", SubType: "add", Approve: true})
		require.NoError(t, err)

		require.Len(t, fake.requests, 1)
		assert.Equal(t, map[string]any{
			"action": "set_group_add_request",
			"params": map[string]any{
				"flag":     "f9",
				"sub_type": "add",
				"approve":  true,
				"reason":   "",
			},
		}, fake.requests[0])
		assert.Equal(t, []string{"Bearer tok"}, fake.auth)
	})

	t.Run("Failed envelope", func(t *testing.T) {
		fake := &fakeBridge{reply: map[string]any{"status": "failed", "retcode": 1400, "message": "bad flag"}}
		client := startBridge(t, fake, "")

		err := client.SetGroupAddRequest(ctx, domain.GroupAddRequestParams{Flag: "f"})
		assert.True(t, errors.Is(err, ErrActionFailed))
		assert.Contains(t, err.Error(), "retcode=1400")
		assert.Empty(t, fake.auth)
	})
}

func TestGRPCBridge_CallAction(t *testing.T) {
	fake := &fakeBridge{reply: map[string]any{
		"status":  "ok",
		"retcode": 0,
		"data":    map[string]any{"online": true, "good": true},
	}}
	client := startBridge(t, fake, "")

	data, err := client.CallAction(context.Background(), "get_status", nil)
	require.NoError(t, err)
	assert.Equal(t, true, data["online"])
	assert.Equal(t, map[string]any{"action": "get_status", "params": map[string]any{}}, fake.requests[0])

	st, err := client.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.BotStatus{Online: true, Good: true}, st)
}
