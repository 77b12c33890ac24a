package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	console "github.com/Reales09/reserve-sub002"
	"github.com/Reales09/reserve-sub002/internal/logx"
	"github.com/spf13/cobra"
)

const appDir = "reserve-console"

type options struct {
	configPath string
	stateDir   string
	apiURL     string
	logLevel   string
}

// NewRootCommand returns the reserve-console command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "reserve-console",
		Short: "Session and authorization client for the reservation backend",
		Long: `reserve-console logs in against the reservation backend and keeps the
session in an encrypted file, so later commands can show the user, the
navigation menu and the businesses the session may act for.

Examples:
  reserve-console login --email ana@example.com --password-stdin
  reserve-console whoami
  reserve-console business switch 2
  reserve-console menu`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/reserve-console/config.yaml)")
	flags.StringVar(&opts.stateDir, "state-dir", "", "directory holding the encrypted session (default is $XDG_CONFIG_HOME/reserve-console)")
	flags.StringVar(&opts.apiURL, "api-url", "", "backend base URL, overrides api.base_url")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, overrides log.level")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newMenuCmd(opts),
		newBusinessCmd(opts),
		newChangePasswordCmd(opts),
	)
	return root
}

// ExecuteContext runs the command tree with os.Args.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func defaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "."+appDir)
	}
	return filepath.Join(dir, appDir)
}

// loadConfig reads the config file when one exists and applies the flag
// overrides. The CLI always keeps its session in the encrypted file
// backend unless the file selects redis.
func (o *options) loadConfig() (console.Config, error) {
	path := o.configPath
	explicit := path != ""
	if !explicit {
		path = filepath.Join(defaultDir(), "config.yaml")
	}

	cfg := console.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := console.LoadConfig(path)
		if err != nil {
			return console.Config{}, err
		}
		cfg = loaded
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return console.Config{}, fmt.Errorf("reading config: %w", err)
	}

	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	switch cfg.Session.Backend {
	case console.BackendMemory, console.BackendCookie:
		dir := o.stateDir
		if dir == "" {
			dir = defaultDir()
		}
		cfg.Session.Backend = console.BackendFile
		cfg.Session.FilePath = filepath.Join(dir, "session.age")
		cfg.Session.IdentityPath = filepath.Join(dir, "identity.txt")
	case console.BackendFile:
		if o.stateDir != "" {
			cfg.Session.FilePath = filepath.Join(o.stateDir, "session.age")
			cfg.Session.IdentityPath = filepath.Join(o.stateDir, "identity.txt")
		}
	}

	if err := cfg.Validate(); err != nil {
		return console.Config{}, err
	}
	return cfg, nil
}

// withConsole builds a Console for one command and closes it afterwards.
func (o *options) withConsole(cmd *cobra.Command, fn func(ctx context.Context, c *console.Console) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(cfg.Session.FilePath); cfg.Session.Backend == console.BackendFile {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating state dir: %w", err)
		}
	}

	c, err := console.New().
		WithConfig(cfg).
		WithLogger(logx.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())).
		Build()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, c)
}
