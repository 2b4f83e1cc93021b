package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultRPC is the default ledger endpoint (Devnet).
const DefaultRPC = "https://api.devnet.solana.com"

// confirmPollInterval is the delay between signature status checks while
// waiting for a transaction to confirm.
const confirmPollInterval = 500 * time.Millisecond

// RPCError wraps a transient chain-communication failure.
type RPCError struct {
	Op  string
	Err error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("ledger: rpc %s: %v", e.Op, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// TransactionError reports a transaction that was rejected or never
// confirmed.
type TransactionError struct {
	Signature solana.Signature
	Reason    string
	Err       error
}

func (e *TransactionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ledger: transaction %s: %s: %v", e.Signature, e.Reason, e.Err)
	}
	return fmt.Sprintf("ledger: transaction %s: %s", e.Signature, e.Reason)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// Account is one program-owned account snapshot.
type Account struct {
	Pubkey solana.PublicKey
	Data   []byte
}

// Client wraps the ledger RPC connection at confirmed commitment.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// NewClient connects to the given RPC endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		rpc:        rpc.New(endpoint),
		commitment: rpc.CommitmentConfirmed,
	}
}

// Connected reports whether the endpoint answers health checks.
func (c *Client) Connected(ctx context.Context) bool {
	out, err := c.rpc.GetHealth(ctx)
	return err == nil && out == rpc.HealthOk
}

// Slot returns the current slot.
func (c *Client) Slot(ctx context.Context) (uint64, error) {
	slot, err := c.rpc.GetSlot(ctx, c.commitment)
	if err != nil {
		return 0, &RPCError{Op: "getSlot", Err: err}
	}
	return slot, nil
}

// Balance returns the lamport balance of an account.
func (c *Client) Balance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, pubkey, c.commitment)
	if err != nil {
		return 0, &RPCError{Op: "getBalance", Err: err}
	}
	return out.Value, nil
}

// ProgramAccounts fetches every account owned by the program, raw bytes
// included. This is a full rescan by design: the ledger's own bookkeeping
// of program accounts is the source of truth, not a separate index.
func (c *Client) ProgramAccounts(ctx context.Context, programID solana.PublicKey) ([]Account, error) {
	res, err := c.rpc.GetProgramAccountsWithOpts(ctx, programID, &rpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, &RPCError{Op: "getProgramAccounts", Err: err}
	}
	accounts := make([]Account, 0, len(res))
	for _, keyed := range res {
		accounts = append(accounts, Account{
			Pubkey: keyed.Pubkey,
			Data:   keyed.Account.Data.GetBinary(),
		})
	}
	return accounts, nil
}

// AccountData fetches one account's raw bytes, or nil if it does not
// exist.
func (c *Client) AccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	res, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		if err == rpc.ErrNotFound {
			return nil, nil
		}
		return nil, &RPCError{Op: "getAccountInfo", Err: err}
	}
	if res.Value == nil {
		return nil, nil
	}
	return res.Value.Data.GetBinary(), nil
}

// SendAndConfirm signs, sends, and waits for confirmation of a single
// instruction paid for and signed by signer. The ctx deadline bounds the
// wait.
func (c *Client) SendAndConfirm(ctx context.Context, ix solana.Instruction, signer solana.PrivateKey) (solana.Signature, error) {
	blockhash, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Signature{}, &RPCError{Op: "getLatestBlockhash", Err: err}
	}

	payer := signer.PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("ledger: build transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &signer
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("ledger: sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, &TransactionError{Reason: "send", Err: err}
	}

	if err := c.awaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (c *Client) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &TransactionError{Signature: sig, Reason: "confirmation timeout", Err: ctx.Err()}
		case <-ticker.C:
		}

		res, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			continue // transient; keep polling until ctx expires
		}
		if len(res.Value) == 0 || res.Value[0] == nil {
			continue
		}
		status := res.Value[0]
		if status.Err != nil {
			return &TransactionError{Signature: sig, Reason: fmt.Sprintf("failed on-chain: %v", status.Err)}
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
	}
}
