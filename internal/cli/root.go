// Package cli implements the entctl command-line interface: a thin shell
// over the persistence core for entities declared in config.yaml.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1 // bad arguments, unknown entity, no match
	exitSysError  = 2 // config, storage or I/O failure
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	msg  string
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *exitError) Unwrap() error { return e.err }

func userError(msg string, err error) error { return &exitError{code: exitUserError, msg: msg, err: err} }
func sysError(msg string, err error) error { return &exitError{code: exitSysError, msg: msg, err: err} }

// exitCode maps an error returned by a command to an exit code. Errors
// from cobra itself (unknown command, bad flags) are user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// rootOptions holds the global flags.
type rootOptions struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// NewRootCmd creates the entctl command with its global flags and
// subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "entctl",
		Short: "Save, load, update and delete entities declared in config.yaml",
		Long: "entctl stores entities through the ents persistence core.\n" +
			"Entity types and their properties are declared under 'entities:' in config.yaml.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "configuration directory (default: ./.ents or the user config dir)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (default: ./.ents-db)")
	root.PersistentFlags().BoolVar(&opts.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd(opts))
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newSaveCmd(opts))
	root.AddCommand(newLoadCmd(opts))
	root.AddCommand(newUpdateCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	return root
}

// Execute runs entctl with the process arguments and returns the exit
// code for main to pass to os.Exit.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return exitCode(err)
}
