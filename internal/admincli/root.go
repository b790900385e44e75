// Package admincli implements prisonctl, the operator tool that talks to the
// store directly: it applies migrations, bootstraps users, inspects and
// restores archives, prints the dashboard and uploads files.
package admincli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/config"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/spf13/cobra"
)

// seams for tests
var (
	loadConfig       = config.LoadConfig
	openRepositories = func(ctx context.Context, cfg *config.Config) (repomanager.RepositoryManager, error) {
		return repomanager.Open(ctx, repomanager.Options{DSN: cfg.DatabaseDSN, Database: cfg.DatabaseName})
	}
)

type globalOptions struct {
	configFile string
	envFile    string
	dsn        string
	dbName     string
	operator   string
	verbose    bool
}

// session is an opened store plus the services bound to it.
type session struct {
	cfg   *config.Config
	repos repomanager.RepositoryManager
	svc   *services.Services
	actor auth.Actor
}

func (s *session) Close(ctx context.Context) error { return s.repos.Close(ctx) }

func (o *globalOptions) configArgs() []string {
	var args []string
	add := func(flag, v string) {
		if v != "" {
			args = append(args, flag, v)
		}
	}
	add("-c", o.configFile)
	add("-env", o.envFile)
	add("-d", o.dsn)
	add("-n", o.dbName)
	return args
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := loadConfig(o.configArgs())
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (o *globalOptions) logger(w io.Writer, cfg *config.Config) logging.Logger {
	if !o.verbose {
		return logging.Nop{}
	}
	return logging.NewJSONLogger(w, cfg.Environment)
}

// actor is the identity recorded for every write the CLI makes.
func (o *globalOptions) actor() auth.Actor {
	return auth.Actor{ID: o.operator, Role: models.RoleAdmin}
}

func (o *globalOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	repos, err := openRepositories(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &session{
		cfg:   cfg,
		repos: repos,
		svc:   services.New(repos, cfg, o.logger(cmd.ErrOrStderr(), cfg)),
		actor: o.actor(),
	}, nil
}

// NewRootCmd builds the prisonctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "prisonctl",
		Short:         "prisonctl - operator tool for the prison management backend",
		Long:          "prisonctl works directly against the configured store. It reads the same environment, .env and JSON config as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "JSON config file")
	pf.StringVar(&opts.envFile, "env-file", "", "dotenv file (default ./.env when present)")
	pf.StringVar(&opts.dsn, "dsn", "", "database DSN, overrides config")
	pf.StringVar(&opts.dbName, "db-name", "", "MongoDB database name, overrides config")
	pf.StringVar(&opts.operator, "operator", "prisonctl", "user id recorded as the actor of changes")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newUserCmd(opts))
	root.AddCommand(newArchiveCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newUploadCmd(opts))

	return root
}

// Execute runs the command tree with ctx and args.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
