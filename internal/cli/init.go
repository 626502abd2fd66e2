package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ents/internal/logging"
	"github.com/mesh-intelligence/ents/internal/paths"
	"github.com/mesh-intelligence/ents/pkg/ents"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize entctl configuration and storage",
		Long: "Create the configuration directory with a default config.yaml (kept if it\n" +
			"already exists), then attach and detach the configured backend once to\n" +
			"initialize the data directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *rootOptions) error {
	configDir, err := paths.ResolveConfigDir(opts.configDir)
	if err != nil {
		return sysError("resolve config dir", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError("load config", err)
	}
	dataDir, err := paths.ResolveDataDir(opts.dataDir, cfg.DataDir)
	if err != nil {
		return sysError("resolve data dir", err)
	}

	wrote, err := writeConfigIfMissing(configDir, &fileConfig{
		Backend:  cfg.Backend,
		DataDir:  dataDir,
		Log:      logging.Config{Level: defaultLogLevel},
		Entities: []entityDecl{},
	})
	if err != nil {
		return sysError("write config", err)
	}

	store, err := ents.Open(cfg.storeConfig(dataDir))
	if err != nil {
		return sysError("initialize storage", err)
	}
	if err := store.Detach(); err != nil {
		return sysError("finalize storage", err)
	}

	out := cmd.OutOrStdout()
	if opts.jsonMode {
		return writeJSON(out, map[string]any{
			"config_dir":     configDir,
			"data_dir":       dataDir,
			"config_written": wrote,
		})
	}
	fmt.Fprintf(out, "Initialized entctl\nconfig: %s\ndata:   %s\n", paths.ConfigFile(configDir), dataDir)
	return nil
}
