// Package cli wires the fhestate commands: the executor node plus the
// client-side tools for key generation, wallets, and task submission.
package cli

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/fhestate/fhestate/internal/config"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the fhestate root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fhestate",
		Short: "FHEstate - encrypted state transitions on Solana",
		Long: `FHEstate runs homomorphic state transitions over ciphertexts
referenced from on-chain task accounts, and ships the client tools for
submitting encrypted inputs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "fhestate.yaml", "path to the configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewKeygenCommand(opts))
	cmd.AddCommand(NewWalletCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewInitStateCommand(opts))
	cmd.AddCommand(NewProofCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (config.Config, error) {
	return config.Load(o.ConfigPath)
}

func (o *RootOptions) newLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}
