package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fhestate/fhestate/internal/fhe"
)

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		outDir string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the FHE key material",
		Long: `Generate a fresh BGV key set and write it to the key directory:
client_key.bin (secret key, stays with the submitter), server_key.bin
(evaluation key, ships to executor nodes) and params.bin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			dir := outDir
			if dir == "" {
				dir = cfg.Keys.Dir
			}
			if fhe.KeysExist(dir) && !force {
				return fmt.Errorf("keys already exist in %s (use --force to overwrite)", dir)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Generating FHE keys, this can take a moment...")
			fhectx, err := fhe.Generate()
			if err != nil {
				return err
			}
			if err := fhectx.Save(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Keys saved in %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "", "key directory (defaults to keys.dir from config)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing keys")
	return cmd
}
