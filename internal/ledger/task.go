// Package ledger speaks to the coordinator program: it decodes
// program-owned account bytes into task and state records, builds the
// program's instructions, and submits transactions.
package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Task account layout, little-endian byte offsets:
//
//	discriminator  0   8
//	id             8   8
//	submitter     16  32
//	input_hash    48  32
//	operation     80   1
//	status        81   1
//	result_hash   82  32
//	executor     114  32
const (
	taskIDOffset        = 8
	taskSubmitterOffset = 16
	taskInputHashOffset = 48
	taskOperationOffset = 80
	taskStatusOffset    = 81
	taskResultOffset    = 82
	taskExecutorOffset  = 114

	// TaskAccountMinLen is the minimum byte length of a valid task
	// account. Shorter accounts are skipped by the poller, not errored.
	TaskAccountMinLen = 140

	// taskAccountFullLen includes result_hash and executor.
	taskAccountFullLen = 146
)

// Status mirrors the on-chain task status. It is owned and mutated
// exclusively by the coordinator program; the executor only reads it and
// requests transitions via transactions.
type Status uint8

const (
	StatusPending    Status = 0
	StatusCompleted  Status = 1
	StatusChallenged Status = 2
	StatusResolved   Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusChallenged:
		return "challenged"
	case StatusResolved:
		return "resolved"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Valid reports whether the byte is a known status value.
func (s Status) Valid() bool { return s <= StatusResolved }

// On-chain status transitions: pending → completed → challenged → resolved.
// The executor never reacts to challenged tasks; what it should do with
// them (pause, re-verify, ignore) is an open integration question, so the
// poller just skips and counts them.
var validStatusTransitions = map[Status]map[Status]bool{
	StatusPending:    {StatusCompleted: true},
	StatusCompleted:  {StatusChallenged: true},
	StatusChallenged: {StatusResolved: true},
}

// ValidateStatusTransition checks an observed on-chain mutation against
// the coordinator's state machine.
func ValidateStatusTransition(from, to Status) error {
	allowed, ok := validStatusTransitions[from]
	if !ok {
		return fmt.Errorf("ledger: no transitions from terminal status %q", from)
	}
	if !allowed[to] {
		return fmt.Errorf("ledger: invalid status transition: %q → %q", from, to)
	}
	return nil
}

// Task is one fully decoded ledger-resident work item.
type Task struct {
	ID         uint64
	Submitter  solana.PublicKey
	InputHash  [32]byte
	Operation  uint8
	Status     Status
	ResultHash [32]byte
	Executor   solana.PublicKey
}

// FheTask is the executor's local mirror of a pending task: constructed
// purely from decoded ledger bytes, rebuilt every poll cycle, never
// persisted.
type FheTask struct {
	Account   solana.PublicKey
	ID        uint64
	Operation uint8
	Status    Status
}

// DecodeTask parses a task account. Accounts shorter than
// TaskAccountMinLen are rejected; result_hash and executor are decoded
// only when present.
func DecodeTask(data []byte) (*Task, error) {
	if len(data) < TaskAccountMinLen {
		return nil, fmt.Errorf("ledger: task account too short: %d bytes", len(data))
	}
	t := &Task{
		ID:        binary.LittleEndian.Uint64(data[taskIDOffset:]),
		Submitter: solana.PublicKeyFromBytes(data[taskSubmitterOffset : taskSubmitterOffset+32]),
		Operation: data[taskOperationOffset],
		Status:    Status(data[taskStatusOffset]),
	}
	copy(t.InputHash[:], data[taskInputHashOffset:taskInputHashOffset+32])
	if len(data) >= taskAccountFullLen {
		copy(t.ResultHash[:], data[taskResultOffset:taskResultOffset+32])
		t.Executor = solana.PublicKeyFromBytes(data[taskExecutorOffset : taskExecutorOffset+32])
	}
	return t, nil
}
