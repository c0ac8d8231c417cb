package main

import (
	"fmt"

	"isolation/agent"
	"isolation/game/isolation"
	"isolation/searcher"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newDotCmd(a *app) *cobra.Command {
	var depth, plies int
	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Search one position and print the tree in Graphviz dot format",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.config
			ctx := cmd.Context()

			// Random opening plies, reproducible from the configured seed.
			state := isolation.New(c.Game.Width, c.Game.Height, c.Game.Blocked...)
			opening := agent.NewRandomAgent[isolation.Action](c.Search.Seed)
			for i := 0; i < plies && !state.IsTerminal(); i++ {
				action, err := agent.Decide[isolation.Action](ctx, opening, state, c.Game.TimeLimit)
				if err != nil {
					return errors.Wrap(err, "opening")
				}
				state = state.Result(action).(*isolation.Board)
			}

			mcts := searcher.NewMCTS[isolation.Action](
				searcher.WithSeed(c.Search.Seed),
				searcher.WithIterations(c.Search.Iterations),
				searcher.WithGoroutines(c.Search.Goroutines),
				searcher.WithExploreFactor(c.Search.ExploreFactor),
			)
			if _, err := mcts.ChooseAction(ctx, state); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), mcts.Tree().ToDot(depth))
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 2, "maximum depth to render, 0 for the whole tree")
	cmd.Flags().IntVar(&plies, "plies", 2, "random plies played before the search")
	return cmd
}
