package main

import (
	"fmt"
	"sort"

	"isolation/experiments"

	"github.com/spf13/cobra"
)

func newArenaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "arena",
		Short: "Play the configured matchups and record the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.config
			summary, err := experiments.Run(cmd.Context(), experiments.Setup{
				Name:        c.Arena.Name,
				Agents:      c.Arena.Agents,
				Matchups:    c.Arena.Matchups,
				NumGames:    c.Arena.NumGames,
				Parallel:    c.Arena.Parallel,
				TimeLimit:   c.Game.TimeLimit,
				MaxTurns:    c.Game.MaxTurns,
				BoardWidth:  c.Game.Width,
				BoardHeight: c.Game.Height,
				Blocked:     c.Game.Blocked,
				OutDir:      c.Arena.OutDir,
				Formats:     c.Arena.Formats,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ids := make([]int, 0, len(summary.Wins))
			for id := range summary.Wins {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			for _, id := range ids {
				fmt.Fprintf(out, "agent %d: %d wins\n", id, summary.Wins[id])
			}
			fmt.Fprintf(out, "%d games\n", len(summary.Games))
			if summary.Dir != "" {
				fmt.Fprintf(out, "records in %s\n", summary.Dir)
			}
			return nil
		},
	}
}
