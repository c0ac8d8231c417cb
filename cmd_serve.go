package main

import (
	"isolation/agent"
	"isolation/experiments"
	"isolation/experiments/metrics"
	"isolation/game/isolation"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured search agent over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.config
			server := agent.NewServer(func(seed uint64) agent.Agent[isolation.Action] {
				return experiments.NewAgent(c.Search.AgentConfig(), seed, metrics.NewPrometheusCollector(nil))
			}, c.Game.TimeLimit, c.Search.Seed)
			return server.Run(c.Server.Addr)
		},
	}
}
