package ledger

import (
	"context"
	"log"

	"github.com/gagliardetto/solana-go"
)

// Submitter reports finished transitions back to the coordinator. On
// failure the task is not re-enqueued locally: its on-chain status is
// still pending, so the next poll rediscovers it. Local queue state is
// disposable; the ledger is the only durable queue.
type Submitter struct {
	client    *Client
	programID solana.PublicKey
	signer    solana.PrivateKey
	logger    *log.Logger
}

func NewSubmitter(client *Client, programID solana.PublicKey, signer solana.PrivateKey, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Submitter{client: client, programID: programID, signer: signer, logger: logger}
}

// Executor returns the signing identity recorded on completed tasks.
func (s *Submitter) Executor() solana.PublicKey {
	return s.signer.PublicKey()
}

// Complete builds, signs, sends and confirms the complete_task
// transaction carrying the proof hash.
func (s *Submitter) Complete(ctx context.Context, task FheTask, proofHash [32]byte) (solana.Signature, error) {
	ix := CompleteTaskInstruction(s.programID, task.Account, s.signer.PublicKey(), proofHash)
	sig, err := s.client.SendAndConfirm(ctx, ix, s.signer)
	if err != nil {
		return sig, err
	}
	s.logger.Printf("INFO ledger: task #%d completed tx=%s", task.ID, sig)
	return sig, nil
}
