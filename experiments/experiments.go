package experiments

import (
	"context"
	"sync"
	"time"

	"isolation/agent"
	"isolation/engine"
	"isolation/experiments/metrics"
	"isolation/game/isolation"
	"isolation/meta"
	"isolation/searcher"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Setup describes an arena experiment. Each matchup pairs two agent IDs and
// plays NumGames games, the agents swapping seats every game.
type Setup struct {
	Name        string
	Agents      []metrics.AgentConfig
	Matchups    [][2]int
	NumGames    int
	Parallel    int
	TimeLimit   time.Duration
	MaxTurns    int
	BoardWidth  int
	BoardHeight int
	Blocked     []int
	OutDir      string   // nothing is written when empty
	Formats     []string // csv and/or parquet
}

// Summary is the outcome of an experiment. Wins counts won games per agent ID.
type Summary struct {
	Dir   string
	Games []metrics.GameRecord
	Moves []metrics.MoveRecord
	Wins  map[int]int
}

// NewAgent builds the agent described by config.
func NewAgent(config metrics.AgentConfig, seed uint64, collector metrics.Collector) agent.Agent[isolation.Action] {
	if config.Random {
		return agent.NewRandomAgent[isolation.Action](seed)
	}

	opts := []searcher.Option{
		searcher.WithSeed(seed),
		searcher.WithIterations(config.Iterations),
		searcher.WithGoroutines(config.Goroutines),
		searcher.WithMetrics(collector),
	}
	if config.ExploreFactor > 0 {
		opts = append(opts, searcher.WithExploreFactor(config.ExploreFactor))
	}
	if config.TreeReuse {
		opts = append(opts, searcher.WithTreeReuse())
	}
	return agent.NewSearchAgent(searcher.NewMCTS[isolation.Action](opts...), config.RandomPlies, seed+1)
}

func (s *Setup) defaults() {
	if s.Name == "" {
		s.Name = "arena"
	}
	if s.NumGames <= 0 {
		s.NumGames = 1
	}
	if s.Parallel <= 0 {
		s.Parallel = 1
	}
	if s.TimeLimit <= 0 {
		s.TimeLimit = meta.TIME_LIMIT
	}
	if s.MaxTurns <= 0 {
		s.MaxTurns = meta.MAX_TURNS
	}
	if s.BoardWidth <= 0 || s.BoardHeight <= 0 {
		s.BoardWidth, s.BoardHeight = meta.BOARD_WIDTH, meta.BOARD_HEIGHT
	}
	if len(s.Formats) == 0 {
		s.Formats = []string{FormatCSV}
	}
}

func (s *Setup) configs() (map[int]metrics.AgentConfig, error) {
	byID := make(map[int]metrics.AgentConfig, len(s.Agents))
	for _, config := range s.Agents {
		if _, ok := byID[config.ID]; ok {
			return nil, errors.Errorf("duplicate agent id %d", config.ID)
		}
		byID[config.ID] = config
	}
	for i, matchup := range s.Matchups {
		for _, id := range matchup {
			if _, ok := byID[id]; !ok {
				return nil, errors.Errorf("matchup %d refers to unknown agent %d", i, id)
			}
		}
	}
	for _, format := range s.Formats {
		if format != FormatCSV && format != FormatParquet {
			return nil, errors.Errorf("unknown output format %q", format)
		}
	}
	return byID, nil
}

// Run plays every game of setup, at most setup.Parallel at once, and writes
// the records when setup.OutDir is set.
func Run(ctx context.Context, setup Setup) (Summary, error) {
	setup.defaults()
	byID, err := setup.configs()
	if err != nil {
		return Summary{}, err
	}

	log.Info().Msgf("starting %s experiment with %d matchups of %d games", setup.Name, len(setup.Matchups), setup.NumGames)

	total := len(setup.Matchups) * setup.NumGames
	games := make([]metrics.GameRecord, total)
	moves := make([][]metrics.MoveRecord, total)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(setup.Parallel)

	var mu sync.Mutex
	done := make([]int, len(setup.Matchups))

	for mi, matchup := range setup.Matchups {
		for gi := 0; gi < setup.NumGames; gi++ {
			mi, gi := mi, gi
			first, second := byID[matchup[0]], byID[matchup[1]]
			if gi%2 == 1 {
				first, second = second, first
			}

			g.Go(func() error {
				idx := mi*setup.NumGames + gi
				id := uuid.NewString()

				// Seeds differ per game and seat but are reproducible.
				seed := uint64(idx) * 2
				e := engine.New(
					NewAgent(first, first.Seed+seed, metrics.NewPrometheusCollector(nil)),
					NewAgent(second, second.Seed+seed+1, metrics.NewPrometheusCollector(nil)),
					engine.WithTimeLimit(setup.TimeLimit),
					engine.WithMaxTurns(setup.MaxTurns),
				)

				result, err := e.Run(ctx, isolation.New(setup.BoardWidth, setup.BoardHeight, setup.Blocked...))
				if err != nil {
					return errors.Wrapf(err, "matchup %d game %d", mi, gi)
				}

				games[idx] = metrics.GameRecord{
					ID:         id,
					Matchup:    mi,
					Agent1:     first.ID,
					Agent2:     second.ID,
					GameMetric: result.Game,
				}
				moves[idx] = make([]metrics.MoveRecord, len(result.Moves))
				for i, mm := range result.Moves {
					moves[idx][i] = metrics.MoveRecord{Game: id, MoveMetric: mm}
				}

				mu.Lock()
				done[mi]++
				finished := done[mi]
				mu.Unlock()
				log.Info().Msgf("completed matchup %d of %d game %d of %d, winner: %d", mi+1, len(setup.Matchups), finished, setup.NumGames, result.Winner)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	log.Info().Msgf("completed %s experiment", setup.Name)

	summary := Summary{Games: games, Wins: make(map[int]int)}
	for _, record := range games {
		switch record.Winner {
		case 0:
			summary.Wins[record.Agent1]++
		case 1:
			summary.Wins[record.Agent2]++
		}
	}
	for _, m := range moves {
		summary.Moves = append(summary.Moves, m...)
	}

	if setup.OutDir == "" {
		return summary, nil
	}
	summary.Dir, err = write(setup, summary)
	return summary, err
}

func write(setup Setup, summary Summary) (string, error) {
	dir, err := metrics.OutputDir(setup.OutDir, setup.Name)
	if err != nil {
		return "", err
	}

	for _, format := range setup.Formats {
		var w metrics.RecordWriter
		switch format {
		case FormatCSV:
			w = metrics.NewWriter(dir)
		case FormatParquet:
			w = metrics.NewParquetWriter(dir)
		}

		if err := w.WriteAgentConfigs(setup.Agents); err != nil {
			return dir, errors.Wrap(err, "failed to store agent configs")
		}
		if err := w.WriteGameRecords(summary.Games); err != nil {
			return dir, errors.Wrap(err, "failed to write game records")
		}
		if err := w.WriteMoveRecords(summary.Moves); err != nil {
			return dir, errors.Wrap(err, "failed to write move records")
		}
		log.Info().Str("dir", dir).Msgf("stored %s records", format)
	}
	return dir, nil
}
