package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fhestate/fhestate/internal/ledger"
)

// NewWalletCommand creates the wallet command group.
func NewWalletCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the Solana wallet",
	}
	cmd.AddCommand(newWalletNewCommand(rootOpts))
	cmd.AddCommand(newWalletShowCommand(rootOpts))
	return cmd
}

func newWalletNewCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a wallet keypair file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = cfg.Keys.Wallet
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("wallet file %s already exists", path)
			}
			key, err := ledger.GenerateWallet(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wallet saved to %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Public key: %s\n", key.PublicKey())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to keys.wallet from config)")
	return cmd
}

func newWalletShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the wallet public key and balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			key, err := ledger.LoadWallet(cfg.Keys.Wallet)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Public key: %s\n", key.PublicKey())

			client := ledger.NewClient(cfg.RPC.Endpoint)
			lamports, err := client.Balance(cmd.Context(), key.PublicKey())
			if err != nil {
				return fmt.Errorf("balance lookup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %.9f SOL\n", float64(lamports)/1e9)
			return nil
		},
	}
	return cmd
}
