package cli

import (
	"crypto/sha256"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fhestate/fhestate/internal/cache"
	"github.com/fhestate/fhestate/internal/fhe"
	"github.com/fhestate/fhestate/internal/ledger"

	"github.com/gagliardetto/solana-go"
)

// NewSubmitCommand creates the submit command: encrypt a value, cache the
// ciphertext locally, and publish its hash on-chain for executors to pick
// up.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		value uint64
		op    uint8
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Encrypt a value and submit it as a task input",
		Long: `Encrypt a value under the client key, store the ciphertext in the
local cache, and send a submit_input instruction carrying the cache URI
and the ciphertext hash.

Example:
  fhestate submit --value 65 --op 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fhe.OpName(op) == "UNKNOWN" || op == fhe.OpCmp {
				return fmt.Errorf("unsupported operation code %d", op)
			}
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			wallet, err := ledger.LoadWallet(cfg.Keys.Wallet)
			if err != nil {
				return err
			}
			programID, err := solana.PublicKeyFromBase58(cfg.Program.ID)
			if err != nil {
				return fmt.Errorf("parse program id %q: %w", cfg.Program.ID, err)
			}

			fhectx, err := fhe.Load(cfg.Keys.Dir, fhe.RoleClient)
			if err != nil {
				return err
			}
			ct, err := fhectx.Encrypt(value)
			if err != nil {
				return err
			}
			ctBytes, err := fhe.Serialize(ct)
			if err != nil {
				return err
			}

			store := cache.New(cfg.Cache.Dir, rootOpts.newLogger())
			uri, err := store.Store(ctBytes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ciphertext cached: %s\n", uri)

			inputHash := sha256.Sum256(ctBytes)
			statePDA, err := ledger.StateContainerAddress(wallet.PublicKey(), programID)
			if err != nil {
				return err
			}

			ix := ledger.SubmitInputInstruction(programID, statePDA, wallet.PublicKey(), uri, inputHash)
			client := ledger.NewClient(cfg.RPC.Endpoint)
			sig, err := client.SendAndConfirm(cmd.Context(), ix, wallet)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted op=%s, transaction: %s\n", fhe.OpName(op), sig)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&value, "value", 0, "plaintext value to encrypt (required)")
	cmd.Flags().Uint8Var(&op, "op", fhe.OpAdd, "operation code (0=ADD 1=SUB 2=MUL 4=AND 5=OR 6=XOR)")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}
