package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-sweeper/cmd/env"
	"github/chapool/go-sweeper/cmd/probe"
	"github/chapool/go-sweeper/cmd/sweep"
	"github/chapool/go-sweeper/cmd/transfer"
	"github/chapool/go-sweeper/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "sweeper",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Drains ERC20 token balances and the native-currency remainder from one
account to a fixed destination wallet. Requires configuration through ENV.`, config.ModuleName),
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		configureLogger(config.DefaultSweepConfigFromEnv().Logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		env.New(),
		probe.New(),
		sweep.New(),
		transfer.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}

func configureLogger(cfg config.Logger) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}
