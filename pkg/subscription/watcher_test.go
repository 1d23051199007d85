package subscription

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"solgraduate/pkg/anchor"
	"solgraduate/pkg/pool/whirlpool"
)

var (
	wsol   = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	usdc   = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	splash = solana.MustPublicKeyFromBase58("CWjGo5jkduSW5LN5rxgiQ18vGnJJEKWPCXkpJGxKSQTH")
)

func whirlpoolData(sqrtHi uint64) []byte {
	data := make([]byte, whirlpool.WHIRLPOOL_ACCOUNT_SIZE)
	copy(data[0:8], anchor.GetDiscriminator("account", whirlpool.WHIRLPOOL_ACCOUNT_NAME))
	binary.LittleEndian.PutUint16(data[41:43], whirlpool.SPLASH_POOL_TICK_SPACING)
	binary.LittleEndian.PutUint64(data[73:81], sqrtHi)
	copy(data[101:133], wsol.Bytes())
	copy(data[181:213], usdc.Bytes())
	return data
}

// fakeNode answers accountSubscribe and then pushes the queued payloads as
// notifications for that subscription.
type fakeNode struct {
	payloads [][]byte

	mu       sync.Mutex
	methods  []string
	accounts []string
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var subID uint64 = 76
	for {
		var req RPCRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		n.mu.Lock()
		n.methods = append(n.methods, req.Method)
		n.mu.Unlock()

		switch req.Method {
		case "accountSubscribe":
			subID++
			n.mu.Lock()
			n.accounts = append(n.accounts, req.Params[0].(string))
			n.mu.Unlock()
			if err := conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": subID}); err != nil {
				return
			}
			for i, payload := range n.payloads {
				msg := map[string]any{
					"jsonrpc": "2.0",
					"method":  "accountNotification",
					"params": map[string]any{
						"subscription": subID,
						"result": map[string]any{
							"context": map[string]any{"slot": 100 + i},
							"value": map[string]any{
								"data":     []string{base64.StdEncoding.EncodeToString(payload), "base64"},
								"lamports": 1,
								"owner":    whirlpool.WHIRLPOOL_PROGRAM_ID,
							},
						},
					},
				}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		case "accountUnsubscribe":
			if err := conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": true}); err != nil {
				return
			}
		}
	}
}

func (n *fakeNode) seen() ([]string, []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.methods...), append([]string(nil), n.accounts...)
}

func startNode(t *testing.T, payloads ...[]byte) (*fakeNode, string) {
	node := &fakeNode{payloads: payloads}
	srv := httptest.NewServer(http.HandlerFunc(node.serve))
	t.Cleanup(srv.Close)
	return node, "ws" + strings.TrimPrefix(srv.URL, "http")
}

type stubFetcher struct {
	pool *whirlpool.WhirlpoolPool
	err  error
}

func (s stubFetcher) FetchPoolByID(_ context.Context, _ solana.PublicKey) (*whirlpool.WhirlpoolPool, error) {
	return s.pool, s.err
}

func TestSubscribeAccountDecodesNotifications(t *testing.T) {
	_, url := startNode(t, []byte("graduated"))

	client, err := NewWebSocketClient(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()
	assert.True(t, client.IsConnected())

	got := make(chan []byte, 1)
	_, err = client.SubscribeAccount(splash.String(), func(accountID string, data []byte, slot uint64) {
		assert.Equal(t, splash.String(), accountID)
		assert.Equal(t, uint64(100), slot)
		got <- data
	})
	require.NoError(t, err)

	select {
	case data := <-got:
		assert.Equal(t, "graduated", string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("no notification delivered")
	}
}

func TestWaitForPoolFromSubscription(t *testing.T) {
	// The first notification is an uninitialised account and must be skipped
	node, url := startNode(t, make([]byte, 16), whirlpoolData(1))

	watcher, err := NewWhirlpoolWatcher(context.Background(), url, stubFetcher{err: errors.New("not found")}, nil)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := watcher.WaitForPool(ctx, splash)
	require.NoError(t, err)
	assert.Equal(t, splash, pool.PoolId)
	assert.Equal(t, uint64(101), pool.LastSlot)
	assert.NoError(t, pool.VerifyGraduation(wsol, usdc, whirlpool.SPLASH_POOL_TICK_SPACING, whirlpool.Q64))

	_, accounts := node.seen()
	assert.Equal(t, []string{splash.String()}, accounts)

	cached, ok := watcher.GetPool(splash)
	require.True(t, ok)
	assert.Equal(t, pool.SqrtPrice, cached.SqrtPrice)

	// A second wait is served from the cache without a new subscription
	_, err = watcher.WaitForPool(ctx, splash)
	require.NoError(t, err)
	_, accounts = node.seen()
	assert.Len(t, accounts, 1)
	assert.Equal(t, 1, watcher.Stats()["subscriptions"])
}

func TestWaitForPoolFromFetcher(t *testing.T) {
	_, url := startNode(t)

	existing, err := whirlpool.ParseWhirlpool(splash, whirlpoolData(1))
	require.NoError(t, err)

	watcher, err := NewWhirlpoolWatcher(context.Background(), url, stubFetcher{pool: existing}, nil)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := watcher.WaitForPool(ctx, splash)
	require.NoError(t, err)
	assert.Equal(t, existing.TokenMintA, pool.TokenMintA)
}

func TestWaitForPoolTimesOut(t *testing.T) {
	_, url := startNode(t)

	watcher, err := NewWhirlpoolWatcher(context.Background(), url, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = watcher.WaitForPool(ctx, splash)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, watcher.Unwatch(splash))
	assert.NoError(t, watcher.Close())
}

func TestPoolCacheIgnoresStaleSlots(t *testing.T) {
	cache := NewPoolCache()

	pool, err := whirlpool.ParseWhirlpool(splash, whirlpoolData(1))
	require.NoError(t, err)
	cache.SetPool(pool, 50)

	require.NoError(t, cache.UpdatePoolAccount(splash.String(), whirlpoolData(2), 40))
	got, ok := cache.GetPool(splash.String())
	require.True(t, ok)
	assert.Equal(t, whirlpool.Q64.String(), got.SqrtPrice.Big().String())

	require.NoError(t, cache.UpdatePoolAccount(splash.String(), whirlpoolData(2), 60))
	got, _ = cache.GetPool(splash.String())
	assert.Equal(t, uint64(60), got.LastSlot)
	assert.Equal(t, "36893488147419103232", got.SqrtPrice.Big().String())

	assert.Error(t, cache.UpdatePoolAccount(splash.String(), []byte{1}, 70))
	assert.Error(t, cache.UpdatePoolAccount(wsol.String(), whirlpoolData(1), 70))
	assert.Empty(t, cache.GetStalePoolIDs(time.Hour))
	assert.Len(t, cache.GetAllPools(), 1)

	cache.RemovePool(splash.String())
	assert.Equal(t, 0, cache.Size())
}

func TestHandleMessageIgnoresErrors(t *testing.T) {
	client := &WebSocketClient{
		subscriptions: map[uint64]*Subscription{1: {ID: 1, AccountID: "a"}},
		handlers:      map[uint64]AccountUpdateHandler{},
		logger:        zap.NewNop(),
	}

	raw, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "error": map[string]any{"code": -32602, "message": "bad"}})
	require.NoError(t, err)
	client.handleMessage(raw)
	client.handleMessage([]byte("not json"))
	assert.Zero(t, client.subscriptions[1].SubID)

	client.handleMessage([]byte(`{"jsonrpc":"2.0","id":1,"result":9}`))
	assert.Equal(t, uint64(9), client.subscriptions[1].SubID)
}
