package sol

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	jitorpc "github.com/jito-labs/jito-go-rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 250 * time.Millisecond
)

// Client is a rate limited Solana RPC client with optional Jito bundle support
type Client struct {
	RpcClient  *rpc.Client
	JitoClient *jitorpc.JitoJsonRpcClient

	endpoint     string
	jitoUUID     string
	limiter      *rate.Limiter
	logger       *zap.Logger
	commitment   rpc.CommitmentType
	maxRetries   int
	retryBackoff time.Duration
}

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryBackoff = backoff
	}
}

// WithJitoUUID authenticates bundle requests
func WithJitoUUID(uuid string) Option {
	return func(c *Client) {
		c.jitoUUID = uuid
	}
}

// NewClient creates a client for endpoint allowing reqLimitPerSecond requests.
// jitoRpc may be empty when bundles are not used.
func NewClient(ctx context.Context, endpoint string, jitoRpc string, reqLimitPerSecond int, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is required")
	}
	if reqLimitPerSecond <= 0 {
		reqLimitPerSecond = 20
	}

	c := &Client{
		RpcClient:    rpc.New(endpoint),
		endpoint:     endpoint,
		limiter:      rate.NewLimiter(rate.Limit(reqLimitPerSecond), reqLimitPerSecond),
		logger:       zap.NewNop(),
		commitment:   rpc.CommitmentConfirmed,
		maxRetries:   defaultMaxRetries,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if jitoRpc != "" {
		c.JitoClient = jitorpc.NewJitoJsonRpcClient(jitoRpc, c.jitoUUID)
	}
	c.logger = c.logger.With(zap.String("endpoint", endpoint))

	return c, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) Commitment() rpc.CommitmentType {
	return c.commitment
}

// call waits for the limiter before each attempt
func (c *Client) call(ctx context.Context, method string, fn func(context.Context) error) error {
	attempt := 0
	err := withRetry(ctx, c.maxRetries, c.retryBackoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		attempt++
		err := fn(ctx)
		if err != nil && attempt <= c.maxRetries && retryable(err) {
			c.logger.Debug("rpc call failed, retrying",
				zap.String("method", method),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return err
	})
	return err
}

func (c *Client) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	var out *rpc.GetAccountInfoResult
	err := c.call(ctx, "getAccountInfo", func(ctx context.Context) (err error) {
		out, err = c.RpcClient.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.commitment,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	var out *rpc.GetMultipleAccountsResult
	err := c.call(ctx, "getMultipleAccounts", func(ctx context.Context) (err error) {
		out, err = c.RpcClient.GetMultipleAccountsWithOpts(ctx, accounts, &rpc.GetMultipleAccountsOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.commitment,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProgramAccountsWithOpts(ctx context.Context, programID solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	if opts == nil {
		opts = &rpc.GetProgramAccountsOpts{}
	}
	if opts.Encoding == "" {
		opts.Encoding = solana.EncodingBase64
	}
	if opts.Commitment == "" {
		opts.Commitment = c.commitment
	}

	var out rpc.GetProgramAccountsResult
	err := c.call(ctx, "getProgramAccounts", func(ctx context.Context) (err error) {
		out, err = c.RpcClient.GetProgramAccountsWithOpts(ctx, programID, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
