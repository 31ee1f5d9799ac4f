package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/sentenceparser/internal/core/db"
)

const testSecretID = "0190a1b2c3d4e5f60718293a4b5c6d7e"

var testSecret = []byte(strings.Repeat("k", 32))

func newQueries(t *testing.T) *db.Queries {
	t.Helper()
	conn, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(conn))
	q, err := db.LoadQueries(conn)
	require.NoError(t, err)
	return q
}

func TestParseAPIKey(t *testing.T) {
	valid := FormatAPIKey(testSecretID, strings.Repeat("ab", 32))

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", valid, false},
		{"wrong prefix", strings.Replace(valid, "sp-", "tk-", 1), true},
		{"wrong version", strings.Replace(valid, "-v1-", "-v2-", 1), true},
		{"short secret id", "sp-v1-abc-" + strings.Repeat("ab", 32), true},
		{"short random", "sp-v1-" + testSecretID + "-abc", true},
		{"uppercase hex", strings.ToUpper(valid[:6]) + valid[6:], true},
		{"non hex", "sp-v1-" + strings.Repeat("z", 32) + "-" + strings.Repeat("ab", 32), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, _, err := ParseAPIKey(tt.key)
			if tt.wantErr {
				if err != ErrInvalidKeyFormat {
					t.Errorf("ParseAPIKey(%q) error = %v, want %v", tt.key, err, ErrInvalidKeyFormat)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAPIKey(%q) unexpected error: %v", tt.key, err)
			}
			if id != testSecretID {
				t.Errorf("secretID = %q, want %q", id, testSecretID)
			}
		})
	}
}

func TestVerifyHMAC(t *testing.T) {
	a := ComputeHMAC(testSecret, "key")
	b := ComputeHMAC(testSecret, "key")
	c := ComputeHMAC([]byte("other"), "key")
	assert.True(t, VerifyHMAC(a, b))
	assert.False(t, VerifyHMAC(a, c))
}

func TestAuthenticateLifecycle(t *testing.T) {
	ctx := context.Background()
	q := newQueries(t)
	a := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, q)

	keyID, key, err := CreateKey(ctx, q, testSecretID, testSecret, "ci")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "sp-v1-"+testSecretID+"-"))

	got, err := a.Authenticate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, keyID, got)

	// second call exercises the last_used throttle path
	_, err = a.Authenticate(ctx, key)
	require.NoError(t, err)

	require.NoError(t, RevokeKey(ctx, q, keyID))
	_, err = a.Authenticate(ctx, key)
	assert.ErrorIs(t, err, ErrKeyRevoked)
}

func TestAuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	q := newQueries(t)
	a := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, q)

	_, err := a.Authenticate(ctx, "nonsense")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	_, err = a.Authenticate(ctx, FormatAPIKey(strings.Repeat("0", 32), strings.Repeat("ab", 32)))
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = a.Authenticate(ctx, FormatAPIKey(testSecretID, strings.Repeat("ab", 32)))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestUnaryInterceptor(t *testing.T) {
	ctx := context.Background()
	q := newQueries(t)
	a := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, q)
	_, key, err := CreateKey(ctx, q, testSecretID, testSecret, "ci")
	require.NoError(t, err)

	const guarded = "/sentenceparser.v1.Matcher/AddRule"
	intercept := a.UnaryInterceptor(guarded)

	var seenKeyID string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seenKeyID = APIKeyIDFromContext(ctx)
		return "ok", nil
	}

	call := func(ctx context.Context, method string) error {
		_, err := intercept(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
		return err
	}

	// unguarded methods need no key
	require.NoError(t, call(ctx, "/sentenceparser.v1.Matcher/FindBestMatch"))
	assert.Empty(t, seenKeyID)

	err = call(ctx, guarded)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = call(metadata.NewIncomingContext(ctx, metadata.Pairs()), guarded)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = call(metadata.NewIncomingContext(ctx, metadata.Pairs("x-api-key", key)), guarded)
	require.NoError(t, err)
	assert.NotEmpty(t, seenKeyID)
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, codes.PermissionDenied, codeFor(ErrKeyRevoked))
	assert.Equal(t, codes.Unavailable, codeFor(ErrDatabase))
	assert.Equal(t, codes.Unauthenticated, codeFor(ErrInvalidKey))
}
