package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fhestate/fhestate/internal/cache"
)

// NewCacheCommand creates the cache command group for inspecting the local
// ciphertext cache.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local ciphertext cache",
	}
	cmd.AddCommand(newCacheListCommand(rootOpts))
	cmd.AddCommand(newCacheSizeCommand(rootOpts))
	cmd.AddCommand(newCacheClearCommand(rootOpts))
	return cmd
}

func (o *RootOptions) openCache() (*cache.Cache, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Cache.Dir, o.newLogger()), nil
}

func newCacheListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached ciphertext URIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.openCache()
			if err != nil {
				return err
			}
			uris, err := c.List()
			if err != nil {
				return err
			}
			for _, uri := range uris {
				fmt.Fprintln(cmd.OutOrStdout(), uri)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries\n", len(uris))
			return nil
		},
	}
}

func newCacheSizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Show total cache size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.openCache()
			if err != nil {
				return err
			}
			size, err := c.SizeBytes()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", c.Dir(), size)
			return nil
		},
	}
}

func newCacheClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached ciphertext",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.openCache()
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache %s cleared\n", c.Dir())
			return nil
		},
	}
}
