package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/solatis/sentenceparser/internal/core/api"
	"github.com/solatis/sentenceparser/internal/core/auth"
	"github.com/solatis/sentenceparser/internal/core/config"
	"github.com/solatis/sentenceparser/internal/core/db"
	"github.com/solatis/sentenceparser/internal/core/store"
	"github.com/solatis/sentenceparser/internal/rules"
	"github.com/solatis/sentenceparser/internal/types"
)

const secretID = "0190a1b2c3d4e5f60718293a4b5c6d7e"

var secret = []byte(strings.Repeat("s", 32))

type harness struct {
	conn    *grpc.ClientConn
	apiKey  string
	dataDir string
}

func startServer(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	conn, err := db.Open("sqlite://" + filepath.Join(dir, "rules.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(conn))
	queries, err := db.LoadQueries(conn)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.DataDir = dir

	svc, err := api.NewMatcherService(store.NewSQLStore(queries), rules.NewEngine(), cfg)
	require.NoError(t, err)

	authenticator := auth.NewAuthenticator(map[string][]byte{secretID: secret}, queries)
	_, apiKey, err := auth.CreateKey(ctx, queries, secretID, secret, "test")
	require.NoError(t, err)

	srv, err := NewGRPCServer(&cfg.Server, svc, authenticator)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })

	return &harness{conn: cc, apiKey: apiKey, dataDir: dir}
}

func TestNewGRPCServerRequiresDependencies(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := NewGRPCServer(nil, nil, nil)
	assert.Error(t, err)
	_, err = NewGRPCServer(&cfg.Server, nil, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	h := startServer(t)
	resp, err := grpc_health_v1.NewHealthClient(h.conn).Check(context.Background(),
		&grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}

func TestRoundTrip(t *testing.T) {
	h := startServer(t)
	ctx := context.Background()
	client := api.NewClient(h.conn, h.apiKey)

	fruit, err := client.AddRule(ctx, "(prefer [strawberry/strawberries]) !(like banana[s])", 10)
	require.NoError(t, err)
	_, err = client.AddRule(ctx, "prefer", 1)
	require.NoError(t, err)

	got, err := client.FindBestMatch(ctx, "I prefer strawberries to anything")
	require.NoError(t, err)
	assert.True(t, got.Matched)
	assert.Equal(t, fruit.RuleID, got.RuleID)
	assert.Equal(t, 10, got.Priority)

	got, err = client.FindBestMatch(ctx, "I prefer strawberries but I like bananas")
	require.NoError(t, err)
	assert.Equal(t, "prefer", got.Result)

	got, err = client.FindBestMatch(ctx, "nothing relevant here")
	require.NoError(t, err)
	assert.False(t, got.Matched)
	assert.Equal(t, types.NoMatch, got.Result)

	listed, etag, err := client.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.NotEmpty(t, etag)

	require.NoError(t, client.RemoveRule(ctx, fruit.RuleID))
	listed, etag2, err := client.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.NotEqual(t, etag, etag2)

	entries, err := os.ReadDir(filepath.Join(h.dataDir, "matches"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMutatingMethodsRequireKey(t *testing.T) {
	h := startServer(t)
	ctx := context.Background()
	anon := api.NewClient(h.conn, "")

	_, err := anon.AddRule(ctx, "cats", 1)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = anon.RemoveRule(ctx, types.NewRuleID())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	// read methods stay open
	_, err = anon.FindBestMatch(ctx, "cats")
	assert.NoError(t, err)
	_, err = anon.CompileRule(ctx, "cats")
	assert.NoError(t, err)
}

func TestStatusMapping(t *testing.T) {
	h := startServer(t)
	ctx := context.Background()
	client := api.NewClient(h.conn, h.apiKey)

	_, err := client.AddRule(ctx, "  ", 1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = client.RemoveRule(ctx, types.NewRuleID())
	assert.Equal(t, codes.NotFound, status.Code(err))

	err = client.RemoveRule(ctx, "not-a-uuid")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.FindBestMatch(ctx, strings.Repeat("a", types.MaxSentenceLength+1))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCompileRuleRemote(t *testing.T) {
	h := startServer(t)
	got, err := api.NewClient(h.conn, "").CompileRule(context.Background(), "(prefer strawberries")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, 1, got.Repairs)
	assert.Equal(t, `^(?=.*\bprefer\b.*\bstrawberries\b.*).+$`, got.Pattern)
}
