package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"isolation/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	config     config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "isolation",
		Short:         "Monte Carlo tree search agents for knight's Isolation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.config = c
			return config.ConfigureLogging(c.Log, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")

	root.AddCommand(
		newPlayCmd(a),
		newArenaCmd(a),
		newServeCmd(a),
		newDotCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
