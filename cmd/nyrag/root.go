package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nyrag/nyrag/internal/shell/config"
	"github.com/nyrag/nyrag/internal/shell/console"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the streams and configuration shared by all commands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// interactive reports whether confirmations may prompt.
	interactive func() bool

	v       *viper.Viper
	cfgFile string
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		interactive: func() bool {
			f, ok := stdin.(*os.File)
			return ok && console.IsTerminal(f)
		},
		v: config.NewViper(),
	}
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
	}
	return exitCode(err)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nyrag",
		Short: "Deploy and feed Vespa applications",
		Long: `nyrag deploys Vespa application packages to a local container, a
Docker Compose managed Vespa or Vespa Cloud, and prepares documents
for feeding.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	flags.String("mode", "", "deploy mode: local or cloud (or set VESPA_DEPLOY_MODE)")
	flags.String("log-level", "", "log level: debug, info, warn, error (or set NYRAG_LOG_LEVEL)")
	flags.String("log-format", "", "log format: text or json (or set NYRAG_LOG_FORMAT)")

	a.bindFlag("deploy_mode", flags.Lookup("mode"))
	a.bindFlag("log.level", flags.Lookup("log-level"))
	a.bindFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(a.deployCmd(), a.statusCmd(), a.chunkCmd(), a.versionCmd())
	return root
}

// loadConfig loads configuration after flags are parsed.
func (a *app) loadConfig() (*config.DeployConfig, *slog.Logger, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, nil, &CommandError{Op: "configuration error", Err: err, ExitCode: ExitConfigError}
	}
	return cfg, SetupLogger(cfg, a.stderr), nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nyrag %s (built %s)\n", Version, BuildTime)
		},
	}
}
