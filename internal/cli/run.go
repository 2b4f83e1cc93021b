package cli

import (
	"github.com/spf13/cobra"

	"github.com/fhestate/fhestate/internal/executor"
)

// NewRunCommand creates the run command: the long-lived executor node.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the executor node",
		Long: `Start the executor loop: poll the coordinator program for pending
tasks, apply the homomorphic state transition, and submit completion
proofs. A file lock under the data directory keeps this to a single
instance per host.

Example:
  fhestate run --config fhestate.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if rootOpts.Verbose {
				cfg.Logging.Level = "debug"
			}
			svc, err := executor.New(cfg)
			if err != nil {
				return err
			}
			return svc.Run()
		},
	}
	return cmd
}
