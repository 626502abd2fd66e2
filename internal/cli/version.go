package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ents/pkg/ents"
)

const modulePath = "github.com/mesh-intelligence/ents"

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the entctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"version": ents.Version,
					"module":  modulePath,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "entctl v%s\nmodule: %s\n", ents.Version, modulePath)
			return nil
		},
	}
}
