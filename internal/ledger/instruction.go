package ledger

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Coordinator instruction method names.
const (
	MethodSubmitInput     = "submit_input"
	MethodInitializeState = "initialize_state"
	MethodCompleteTask    = "complete_task"
	MethodSubmitTask      = "submit_task"
	MethodChallengeTask   = "challenge_task"
)

// Discriminator returns the 8-byte instruction discriminator: the first 8
// bytes of sha256("global:<method>").
func Discriminator(method string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + method))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// CompleteTaskInstruction builds the completion instruction: the task
// account to mutate and the executor signing the proof.
func CompleteTaskInstruction(programID, taskAccount, executor solana.PublicKey, resultHash [32]byte) solana.Instruction {
	disc := Discriminator(MethodCompleteTask)
	data := make([]byte, 0, 8+32)
	data = append(data, disc[:]...)
	data = append(data, resultHash[:]...)

	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.Meta(taskAccount).WRITE(),
			solana.Meta(executor).WRITE().SIGNER(),
		},
		data,
	)
}

// SubmitInputInstruction builds the client-side submission: a borsh
// string (u32 length prefix + bytes) holding the ciphertext URI, followed
// by the 32-byte input hash.
func SubmitInputInstruction(programID, statePDA, submitter solana.PublicKey, uri string, inputHash [32]byte) solana.Instruction {
	disc := Discriminator(MethodSubmitInput)
	uriBytes := []byte(uri)
	data := make([]byte, 0, 8+4+len(uriBytes)+32)
	data = append(data, disc[:]...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(uriBytes)))
	data = append(data, uriBytes...)
	data = append(data, inputHash[:]...)

	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.Meta(statePDA).WRITE(),
			solana.Meta(submitter).WRITE().SIGNER(),
		},
		data,
	)
}

// InitializeStateInstruction builds the one-time state container creation
// for a submitter.
func InitializeStateInstruction(programID, statePDA, submitter solana.PublicKey) solana.Instruction {
	disc := Discriminator(MethodInitializeState)
	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.Meta(statePDA).WRITE(),
			solana.Meta(submitter).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		},
		disc[:],
	)
}

// SubmitTaskInstruction builds a task record submission.
func SubmitTaskInstruction(programID, registry, taskAccount, submitter solana.PublicKey, inputHash [32]byte, operation uint8) solana.Instruction {
	disc := Discriminator(MethodSubmitTask)
	data := make([]byte, 0, 8+32+1)
	data = append(data, disc[:]...)
	data = append(data, inputHash[:]...)
	data = append(data, operation)

	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.Meta(registry).WRITE(),
			solana.Meta(taskAccount).WRITE(),
			solana.Meta(submitter).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		},
		data,
	)
}
