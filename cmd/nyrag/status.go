package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nyrag/nyrag/internal/core/vespa"
	"github.com/nyrag/nyrag/internal/shell/config"
	"github.com/nyrag/nyrag/internal/shell/vespaclient"
	"github.com/spf13/cobra"
)

// defaultStatusTimeout bounds a status check.
const defaultStatusTimeout = 10 * time.Second

// readinessProber is the data-plane surface the CLI needs.
type readinessProber interface {
	Endpoint() string
	WaitReady(ctx context.Context, timeout time.Duration) error
}

func (a *app) statusCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check that the deployed application answers",
		Long: `Poll the application's /state/v1/health endpoint at VESPA_URL and
VESPA_PORT, presenting VESPA_CLIENT_CERT and VESPA_CLIENT_KEY when set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.loadConfig()
			if err != nil {
				return err
			}
			endpoint, err := waitForDataPlane(cmd.Context(), cfg, timeout, logger)
			if err != nil {
				return &CommandError{Op: "vespa not ready", Err: err, ExitCode: ExitDeployError}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is ready\n", endpoint)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultStatusTimeout, "how long to wait for the application")
	return cmd
}

// waitForDataPlane builds a data-plane client from the arguments its
// factory declares and waits until the application answers.
func waitForDataPlane(ctx context.Context, cfg *config.DeployConfig, timeout time.Duration, logger *slog.Logger) (string, error) {
	factory := vespaclient.NewDataPlaneFactory(logger)
	client, err := factory.New(vespa.DataPlaneConstructorArgs(factory.Capabilities(), cfg.DataPlaneParams()))
	if err != nil {
		return "", err
	}
	prober, ok := client.(readinessProber)
	if !ok {
		return "", fmt.Errorf("%s: %w", factory.Name(), vespa.ErrUnsupportedCallShape)
	}
	if err := prober.WaitReady(ctx, timeout); err != nil {
		return prober.Endpoint(), err
	}
	return prober.Endpoint(), nil
}
