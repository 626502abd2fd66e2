package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ents/internal/logging"
	"github.com/mesh-intelligence/ents/internal/paths"
	"github.com/mesh-intelligence/ents/pkg/ents"
	"github.com/mesh-intelligence/ents/pkg/types"
)

// session is an attached backend plus one entity of the requested type
// with the backend installed.
type session struct {
	store  types.Backend
	entity *types.Entity
	logger *slog.Logger
	closer io.Closer
}

// openSession loads config.yaml, builds the entity declared for
// entityType and attaches the configured backend.
func openSession(cmd *cobra.Command, opts *rootOptions, entityType string) (*session, error) {
	configDir, err := paths.ResolveConfigDir(opts.configDir)
	if err != nil {
		return nil, sysError("resolve config dir", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, sysError("load config", err)
	}

	decl, ok := cfg.entity(entityType)
	if !ok {
		known := strings.Join(cfg.entityTypes(), ", ")
		if known == "" {
			known = "none"
		}
		return nil, userError(fmt.Sprintf("unknown entity type %q (declared: %s)", entityType, known), nil)
	}
	e, err := buildEntity(decl)
	if err != nil {
		return nil, userError("invalid entity declaration", err)
	}

	dataDir, err := paths.ResolveDataDir(opts.dataDir, cfg.DataDir)
	if err != nil {
		return nil, sysError("resolve data dir", err)
	}
	logger, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, userError("invalid log settings", err)
	}
	store, err := ents.Open(cfg.storeConfig(dataDir), ents.WithLogger(logger))
	if err != nil {
		closer.Close()
		return nil, sysError("open storage", err)
	}
	ents.Install(store, e)
	return &session{store: store, entity: e, logger: logger, closer: closer}, nil
}

func (s *session) close() error {
	err := s.store.Detach()
	if cerr := s.closer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return sysError("close storage", err)
	}
	return nil
}

// opError classifies an entity operation failure: bad input and missing
// rows are user errors, anything else is a system error.
func opError(err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return userError("no matching entity", err)
	case errors.Is(err, types.ErrInvalidCriteria), errors.Is(err, types.ErrKindMismatch), errors.Is(err, types.ErrOutOfRange):
		return userError("invalid request", err)
	default:
		return sysError("storage failure", err)
	}
}

// withSession runs fn against an open session and closes it, keeping the
// first error.
func withSession(cmd *cobra.Command, opts *rootOptions, entityType string, fn func(*session) error) (err error) {
	s, err := openSession(cmd, opts, entityType)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

func newSaveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <type> [name=value...]",
		Short: "Save a new entity",
		Long: "Save stores a new entity of the given type. Properties not named on the\n" +
			"command line keep their zero value.\n\n" +
			"Example:\n  entctl save person name=ada age=36",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, args[0], func(s *session) error {
				values, err := parseAssignments(s.entity, args[1:])
				if err != nil {
					return userError("invalid arguments", err)
				}
				if err := assign(s.entity, values); err != nil {
					return userError("invalid arguments", err)
				}
				if err := s.entity.Save(); err != nil {
					s.logger.Debug("save failed", "trace", fmt.Sprintf("%+v", err))
					return opError(err)
				}
				return writeEntity(cmd.OutOrStdout(), s.entity, opts.jsonMode)
			})
		},
	}
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <type> [name=value...]",
		Short: "Load the first entity matching the given values",
		Long: "Load prints the first stored entity, in insertion order, whose properties\n" +
			"equal every name=value given. With no criteria the first entity is printed.\n\n" +
			"Example:\n  entctl load person name=ada",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, args[0], func(s *session) error {
				criteria, err := parseAssignments(s.entity, args[1:])
				if err != nil {
					return userError("invalid criteria", err)
				}
				if err := s.entity.Load(criteria); err != nil {
					s.logger.Debug("load failed", "trace", fmt.Sprintf("%+v", err))
					return opError(err)
				}
				return writeEntity(cmd.OutOrStdout(), s.entity, opts.jsonMode)
			})
		},
	}
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var set []string
	cmd := &cobra.Command{
		Use:   "update <type> [name=value...] --set name=value...",
		Short: "Update the first entity matching the given values",
		Long: "Update loads the first entity matching the criteria, then assigns the\n" +
			"--set values to it.\n\n" +
			"Example:\n  entctl update person name=ada --set age=37",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(set) == 0 {
				return userError("update needs at least one --set name=value", nil)
			}
			return withSession(cmd, opts, args[0], func(s *session) error {
				criteria, err := parseAssignments(s.entity, args[1:])
				if err != nil {
					return userError("invalid criteria", err)
				}
				changes, err := parseAssignments(s.entity, set)
				if err != nil {
					return userError("invalid --set", err)
				}
				if err := s.entity.Load(criteria); err != nil {
					return opError(err)
				}
				if err := s.entity.Update(changes); err != nil {
					s.logger.Debug("update failed", "trace", fmt.Sprintf("%+v", err))
					return opError(err)
				}
				return writeEntity(cmd.OutOrStdout(), s.entity, opts.jsonMode)
			})
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "property to assign, as name=value (repeatable)")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> [name=value...]",
		Short: "Delete the first entity matching the given values",
		Long: "Delete loads the first entity matching the criteria and removes it. The\n" +
			"deleted entity is printed.\n\n" +
			"Example:\n  entctl delete person name=ada",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, args[0], func(s *session) error {
				criteria, err := parseAssignments(s.entity, args[1:])
				if err != nil {
					return userError("invalid criteria", err)
				}
				if err := s.entity.Load(criteria); err != nil {
					return opError(err)
				}
				if err := s.entity.Delete(); err != nil {
					s.logger.Debug("delete failed", "trace", fmt.Sprintf("%+v", err))
					return opError(err)
				}
				return writeEntity(cmd.OutOrStdout(), s.entity, opts.jsonMode)
			})
		},
	}
}
