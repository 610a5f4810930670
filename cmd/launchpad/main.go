// launchpad keeps a locally installed application up to date: it checks a
// GitHub release feed, downloads release archives with resume and retry,
// swaps them into the installation directory and relaunches the app.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openplace/launchpad/internal/config"
	"github.com/openplace/launchpad/internal/faults"
	"github.com/openplace/launchpad/internal/logger"
)

type app struct {
	cfgPath string
	cfg     *config.Config
	log     *zap.Logger
}

func main() {
	// A .env next to the binary may carry overrides for local testing.
	_ = godotenv.Load()

	a := &app{}

	root := &cobra.Command{
		Use:           "launchpad",
		Short:         "Download, install and launch application updates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "launchpad.yaml", "path to config file")

	root.AddCommand(
		a.checkCmd(),
		a.fetchCmd(),
		a.updateCmd(),
		a.launchCmd(),
		a.cacheCmd(),
		a.galleryCmd(),
	)

	if err := root.Execute(); err != nil {
		reportFailure(err)
		os.Exit(1)
	}
}

// updateCheckURL fails early with an actionable message instead of letting
// an empty URL surface as a request error.
func (a *app) updateCheckURL() (string, error) {
	if a.cfg.App.UpdateCheckURL == "" {
		return "", errors.New("update check URL is not configured; set app.github_repo or app.update_check_url")
	}
	return a.cfg.App.UpdateCheckURL, nil
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// reportFailure renders an error for the terminal: a plain-language message,
// a recovery hint and the technical chain for bug reports.
func reportFailure(err error) {
	verdict := faults.Classify(err)

	color.Red("Error: %s", verdict.UserMessage)
	if verdict.RecoverySuggestion != "" {
		color.Yellow("Hint:  %s", verdict.RecoverySuggestion)
	}
	fmt.Fprintf(os.Stderr, "Details: %s\n", verdict.TechnicalDetails)
}
