package grpcgw

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/bulletin/internal/logging"
)

const (
	serviceName = "bulletin.gateway.v1.Gateway"

	// AccessTokenHeader is the metadata key carrying the access token.
	AccessTokenHeader = "access_token"
)

func fullMethod(name string) string { return "/" + serviceName + "/" + name }

var (
	methodSignUp         = fullMethod("SignUp")
	methodSignIn         = fullMethod("SignInWithPassword")
	methodSignOut        = fullMethod("SignOut")
	methodGetCurrentUser = fullMethod("GetCurrentUser")
	methodRefreshToken   = fullMethod("RefreshToken")
	methodSelect         = fullMethod("Select")
	methodInsert         = fullMethod("Insert")
	methodUpdate         = fullMethod("Update")
	methodDelete         = fullMethod("Delete")
)

// Client talks to the gateway service. It satisfies gateway.Identity and
// gateway.Collections.
type Client struct {
	conn    *grpc.ClientConn
	log     logging.Logger
	timeout time.Duration

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onRefresh    func(access, refresh string)

	// refresher exchanges a refresh token; replaced in tests.
	refresher func(ctx context.Context, refreshToken string) (string, string, error)
	now       func() time.Time
}

type Option func(*Client, *[]grpc.DialOption)

func WithLogger(l logging.Logger) Option {
	return func(c *Client, _ *[]grpc.DialOption) { c.log = l }
}

// WithTimeout bounds every call that has no earlier deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client, _ *[]grpc.DialOption) { c.timeout = d }
}

// WithDialOptions appends raw dial options, e.g. a bufconn dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(_ *Client, d *[]grpc.DialOption) { *d = append(*d, opts...) }
}

// WithRefreshListener registers fn to observe rotated tokens.
func WithRefreshListener(fn func(access, refresh string)) Option {
	return func(c *Client, _ *[]grpc.DialOption) { c.onRefresh = fn }
}

// New creates a client for target. No connection is made until the first
// call.
func New(target string, opts ...Option) (*Client, error) {
	c := &Client{log: logging.Nop(), now: time.Now}
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}
	for _, o := range opts {
		o(c, &dialOpts)
	}
	c.log = c.log.With("module", "grpcgw")
	c.refresher = c.callRefresh

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", target, err)
	}
	c.conn = conn
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// SetTokens seeds the pair used for subsequent calls, typically from the
// credential store at startup.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = access, refresh
}

func (c *Client) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// invoke sends req as a Struct and decodes the reply into resp (if non-nil).
func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := toStruct(req)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", method, err)
	}

	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return mapError(method, err)
	}
	if resp == nil {
		return nil
	}
	if err := fromStruct(out, resp); err != nil {
		return fmt.Errorf("%s: decode reply: %w", method, err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := s.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return s, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
