package main

import (
	"time"

	"github.com/nyrag/nyrag/internal/shell/apppkg"
	"github.com/nyrag/nyrag/internal/shell/console"
	"github.com/nyrag/nyrag/internal/shell/deployer"
	"github.com/nyrag/nyrag/internal/shell/vespaclient"
	"github.com/spf13/cobra"
)

type deployFlags struct {
	appDir string
	name   string
	copy   bool
	wait   time.Duration
}

func (a *app) deployCmd() *cobra.Command {
	var f deployFlags

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy an application package to Vespa",
		Long: `Deploy the application package in --app-dir.

If Vespa refuses the deploy because it would remove a content cluster,
nyrag asks before retrying with a validation override. Without a
terminal the deploy is skipped and nyrag exits with status 3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDeploy(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.appDir, "app-dir", "", "application root containing services.xml")
	flags.StringVar(&f.name, "name", "", "application name (default: directory name)")
	flags.BoolVar(&f.copy, "copy", false, "deploy from a temporary copy; overrides are not written to --app-dir")
	flags.DurationVar(&f.wait, "wait", 0, "after deploying, wait this long for the application to answer (0 skips the check)")
	flags.String("image", "", "Vespa container image for local deploys (or set VESPA_DOCKER_IMAGE)")
	_ = cmd.MarkFlagRequired("app-dir")

	a.bindFlag("local.docker_image", flags.Lookup("image"))
	return cmd
}

func (a *app) runDeploy(cmd *cobra.Command, f deployFlags) error {
	cfg, logger, err := a.loadConfig()
	if err != nil {
		return err
	}

	term := console.New(a.stdin, a.stdout, a.interactive())
	orch := deployer.New(deployer.Options{
		Resolver:  vespaclient.NewResolver(cfg, logger),
		Confirmer: deployer.NewGate(term, logger),
		Logger:    logger,
		Image:     cfg.Local.DockerImage,
	})

	pkg := &apppkg.Dir{AppName: f.name, Path: f.appDir}
	root := f.appDir
	if f.copy {
		root = ""
	}

	ok, err := orch.Deploy(cmd.Context(), root, pkg, cfg)
	if err != nil {
		return &CommandError{Op: "deploy failed", Err: err, ExitCode: ExitDeployError}
	}
	if !ok {
		return &CommandError{Op: "deploy skipped", ExitCode: ExitDeployDenied}
	}

	if f.wait > 0 {
		endpoint, err := waitForDataPlane(cmd.Context(), cfg, f.wait, logger)
		if err != nil {
			return &CommandError{Op: "vespa not ready", Err: err, ExitCode: ExitDeployError}
		}
		logger.Info("Vespa application ready", "endpoint", endpoint)
	}
	return nil
}
