package grpcgw

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type call struct {
	method string
	token  string
	req    map[string]any
}

type handlerFunc func(method string, req map[string]any) (map[string]any, error)

// fakeGateway answers every method through one handler and records calls.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []call
	handler handlerFunc
}

func (f *fakeGateway) serve(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)
	in := &structpb.Struct{}
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	var token string
	if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
		if v := md.Get(AccessTokenHeader); len(v) > 0 {
			token = v[0]
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call{method: method, token: token, req: in.AsMap()})
	h := f.handler
	f.mu.Unlock()

	resp, err := h(method, in.AsMap())
	if err != nil {
		return err
	}
	out, err := structpb.NewStruct(resp)
	if err != nil {
		return err
	}
	return stream.SendMsg(out)
}

func (f *fakeGateway) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func startFake(t *testing.T, h handlerFunc, opts ...Option) (*Client, *fakeGateway) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	fake := &fakeGateway{handler: h}
	srv := grpc.NewServer(grpc.UnknownServiceHandler(fake.serve))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	opts = append(opts, WithDialOptions(grpc.WithContextDialer(dialer)))
	c, err := New("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}
