package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fhestate/fhestate/internal/ledger"

	"github.com/gagliardetto/solana-go"
)

// NewInitStateCommand creates the init-state command: one-time creation of
// the submitter's state container PDA.
func NewInitStateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-state",
		Short: "Initialize the on-chain state container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			statePDA, err := ledger.StateContainerAddress(wallet.PublicKey(), programID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "StateContainer PDA: %s\n", statePDA)

			client := ledger.NewClient(cfg.RPC.Endpoint)
			if data, err := client.AccountData(cmd.Context(), statePDA); err == nil && data != nil {
				return fmt.Errorf("state container %s already exists", statePDA)
			}

			ix := ledger.InitializeStateInstruction(programID, statePDA, wallet.PublicKey())
			sig, err := client.SendAndConfirm(cmd.Context(), ix, wallet)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized, transaction: %s\n", sig)
			return nil
		},
	}
	return cmd
}
