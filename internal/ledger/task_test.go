package ledger

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTaskAccount assembles raw task account bytes at the documented
// offsets.
func buildTaskAccount(id uint64, submitter solana.PublicKey, inputHash [32]byte, op uint8, status Status, executor *solana.PublicKey) []byte {
	size := TaskAccountMinLen
	if executor != nil {
		size = 146
	}
	data := make([]byte, size)
	binary.LittleEndian.PutUint64(data[8:], id)
	copy(data[16:48], submitter[:])
	copy(data[48:80], inputHash[:])
	data[80] = op
	data[81] = byte(status)
	if executor != nil {
		copy(data[114:146], executor[:])
	}
	return data
}

func TestDecodeTask(t *testing.T) {
	submitter := solana.NewWallet().PublicKey()
	var inputHash [32]byte
	for i := range inputHash {
		inputHash[i] = byte(i)
	}

	data := buildTaskAccount(42, submitter, inputHash, 2, StatusPending, nil)
	task, err := DecodeTask(data)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), task.ID)
	assert.Equal(t, submitter, task.Submitter)
	assert.Equal(t, inputHash, task.InputHash)
	assert.Equal(t, uint8(2), task.Operation)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, solana.PublicKey{}, task.Executor)
}

func TestDecodeTask_FullLength(t *testing.T) {
	submitter := solana.NewWallet().PublicKey()
	executor := solana.NewWallet().PublicKey()

	data := buildTaskAccount(7, submitter, [32]byte{}, 0, StatusCompleted, &executor)
	task, err := DecodeTask(data)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, executor, task.Executor)
}

func TestDecodeTask_TooShort(t *testing.T) {
	for _, size := range []int{0, 8, 81, TaskAccountMinLen - 1} {
		_, err := DecodeTask(make([]byte, size))
		assert.Error(t, err, "size %d", size)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusCompleted, "completed"},
		{StatusChallenged, "challenged"},
		{StatusResolved, "resolved"},
		{Status(9), "status(9)"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for s := Status(0); s <= StatusResolved; s++ {
		assert.True(t, s.Valid(), "status %d", s)
	}
	assert.False(t, Status(4).Valid())
	assert.False(t, Status(255).Valid())
}

func TestValidateStatusTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusCompleted, StatusChallenged, true},
		{StatusChallenged, StatusResolved, true},
		{StatusPending, StatusChallenged, false},
		{StatusPending, StatusResolved, false},
		{StatusCompleted, StatusPending, false},
		{StatusResolved, StatusPending, false},
		{StatusResolved, StatusChallenged, false},
	}
	for _, tt := range tests {
		err := ValidateStatusTransition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s → %s", tt.from, tt.to)
		} else {
			assert.Error(t, err, "%s → %s", tt.from, tt.to)
		}
	}
}
