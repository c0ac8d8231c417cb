package main

import (
	"fmt"

	"isolation/agent"
	"isolation/engine"
	"isolation/experiments"
	"isolation/experiments/metrics"
	"isolation/game/isolation"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPlayCmd(a *app) *cobra.Command {
	var opponent, remote string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one game between the configured search agent and an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.config
			first := experiments.NewAgent(c.Search.AgentConfig(), c.Search.Seed, metrics.NewCollector())

			var second agent.Agent[isolation.Action]
			switch {
			case remote != "":
				second = agent.NewRemoteAgent(remote)
			case opponent == "random":
				second = agent.NewRandomAgent[isolation.Action](c.Search.Seed + 1)
			case opponent == "search":
				second = experiments.NewAgent(c.Search.AgentConfig(), c.Search.Seed+1, metrics.NewCollector())
			default:
				return errors.Errorf("unknown opponent %q", opponent)
			}

			e := engine.New(first, second,
				engine.WithTimeLimit(c.Game.TimeLimit),
				engine.WithMaxTurns(c.Game.MaxTurns),
			)
			result, err := e.Run(cmd.Context(), isolation.New(c.Game.Width, c.Game.Height, c.Game.Blocked...))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, result.Final)
			if result.Winner < 0 {
				fmt.Fprintf(out, "no winner after %d moves\n", result.Game.TotalMoves)
			} else {
				fmt.Fprintf(out, "player%d wins after %d moves\n", result.Winner+1, result.Game.TotalMoves)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opponent, "opponent", "random", "second player: random or search")
	cmd.Flags().StringVar(&remote, "remote", "", "agent server URL for the second player")
	return cmd
}
