package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhestate/fhestate/internal/cache"
	"github.com/fhestate/fhestate/internal/fhe"
)

var (
	fheOnce sync.Once
	fheCtx  *fhe.Context
	fheErr  error
)

func testEngine(t *testing.T) (*Engine, *fhe.Context, *cache.Cache) {
	t.Helper()
	fheOnce.Do(func() {
		fheCtx, fheErr = fhe.Generate()
	})
	require.NoError(t, fheErr)

	c := cache.New(filepath.Join(t.TempDir(), "cache"), nil)
	return New(fheCtx, c, nil), fheCtx, c
}

func encrypt(t *testing.T, fhectx *fhe.Context, value uint64) []byte {
	t.Helper()
	ct, err := fhectx.Encrypt(value)
	require.NoError(t, err)
	raw, err := fhe.Serialize(ct)
	require.NoError(t, err)
	return raw
}

func decryptURI(t *testing.T, fhectx *fhe.Context, c *cache.Cache, uri string) uint64 {
	t.Helper()
	raw, err := c.Load(uri)
	require.NoError(t, err)
	ct, err := fhe.Deserialize(raw)
	require.NoError(t, err)
	value, err := fhectx.Decrypt(ct)
	require.NoError(t, err)
	return value
}

func TestApply_BootstrapIgnoresOp(t *testing.T) {
	eng, fhectx, c := testEngine(t)

	input := encrypt(t, fhectx, 65)
	// 99 is not a valid operation; the bootstrap path must never dispatch it.
	result, err := eng.Apply(context.Background(), "", input, 99)
	require.NoError(t, err)

	assert.Equal(t, uint64(65), decryptURI(t, fhectx, c, result.URI))
	assert.Equal(t, sha256.Sum256(input), result.ProofHash)
}

func TestApply_ProofHashMatchesURI(t *testing.T) {
	eng, fhectx, _ := testEngine(t)

	result, err := eng.Apply(context.Background(), "", encrypt(t, fhectx, 7), fhe.OpAdd)
	require.NoError(t, err)

	assert.Equal(t, cache.Scheme+hex.EncodeToString(result.ProofHash[:]), result.URI)
}

func TestApply_ChainedTransitions(t *testing.T) {
	eng, fhectx, c := testEngine(t)

	first, err := eng.Apply(context.Background(), "", encrypt(t, fhectx, 65), fhe.OpAdd)
	require.NoError(t, err)

	second, err := eng.Apply(context.Background(), first.URI, encrypt(t, fhectx, 1), fhe.OpAdd)
	require.NoError(t, err)
	assert.Equal(t, uint64(66), decryptURI(t, fhectx, c, second.URI))

	third, err := eng.Apply(context.Background(), second.URI, encrypt(t, fhectx, 1), fhe.OpSub)
	require.NoError(t, err)
	assert.Equal(t, uint64(65), decryptURI(t, fhectx, c, third.URI))

	// Every intermediate state stays addressable.
	assert.True(t, c.Exists(first.URI))
	assert.True(t, c.Exists(second.URI))
}

func TestApply_EmptyInput(t *testing.T) {
	eng, _, c := testEngine(t)

	_, err := eng.Apply(context.Background(), "", nil, fhe.OpAdd)
	var comp *fhe.ComputationError
	require.ErrorAs(t, err, &comp)

	// The failed call must not have written anything.
	uris, listErr := c.List()
	require.NoError(t, listErr)
	assert.Empty(t, uris)
}

func TestApply_MissingPriorState(t *testing.T) {
	eng, fhectx, _ := testEngine(t)

	missing := cache.Scheme + "00000000000000000000000000000000000000000000000000000000deadbeef"
	_, err := eng.Apply(context.Background(), missing, encrypt(t, fhectx, 1), fhe.OpAdd)

	var miss *cache.MissError
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, missing, miss.URI)
}

func TestApply_UnknownOpWritesNothing(t *testing.T) {
	eng, fhectx, c := testEngine(t)

	first, err := eng.Apply(context.Background(), "", encrypt(t, fhectx, 5), fhe.OpAdd)
	require.NoError(t, err)
	before, err := c.List()
	require.NoError(t, err)

	_, err = eng.Apply(context.Background(), first.URI, encrypt(t, fhectx, 3), 99)
	var invalid *fhe.InvalidOperationError
	require.ErrorAs(t, err, &invalid)

	after, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApply_CancelledContext(t *testing.T) {
	eng, fhectx, _ := testEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Apply(ctx, "", encrypt(t, fhectx, 1), fhe.OpAdd)
	assert.True(t, errors.Is(err, context.Canceled))
}
