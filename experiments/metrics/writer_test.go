package metrics

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
)

func sampleRecords() ([]AgentConfig, []GameRecord, []MoveRecord) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	configs := []AgentConfig{
		{ID: 0, Random: true, Seed: 1},
		{ID: 1, Iterations: 150, Goroutines: 1, ExploreFactor: 0.05, RandomPlies: 2, TreeReuse: true, Seed: 2},
	}
	games := []GameRecord{{
		ID:      "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Matchup: 0,
		Agent1:  1,
		Agent2:  0,
		GameMetric: GameMetric{
			StartingPlayer: 0,
			Winner:         1,
			StartTime:      start,
			EndTime:        start.Add(3 * time.Second),
			Duration:       3 * time.Second,
			TotalMoves:     2,
		},
	}}
	moves := []MoveRecord{
		{Game: games[0].ID, MoveMetric: MoveMetric{Step: 1, Player: 0, SearchMetric: SearchMetric{Goroutines: 1, Iterations: 150, Expansions: 40, Nodes: 41, Duration: time.Millisecond}}},
		{Game: games[0].ID, MoveMetric: MoveMetric{Step: 2, Player: 1}},
	}
	return configs, games, moves
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func readParquet[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	stat, err := f.Stat()
	require.NoError(t, err)
	pf, err := parquet.OpenFile(f, stat.Size())
	require.NoError(t, err)

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestOutputDir(t *testing.T) {
	dir, err := OutputDir(t.TempDir(), "arena")
	require.NoError(t, err)
	require.DirExists(t, dir)
	require.Equal(t, "arena", filepath.Base(filepath.Dir(dir)))
}

func TestWriter(t *testing.T) {
	dir := t.TempDir()
	configs, games, moves := sampleRecords()

	w := NewWriter(dir)
	require.NoError(t, w.WriteAgentConfigs(configs))
	require.NoError(t, w.WriteGameRecords(games))
	require.NoError(t, w.WriteMoveRecords(moves))

	rows := readCSV(t, filepath.Join(dir, "agent_configs.csv"))
	require.Len(t, rows, 3)
	require.Equal(t, "id", rows[0][0])
	require.Equal(t, []string{"1", "false", "150", "1", "0.05", "2", "true", "2"}, rows[2])

	rows = readCSV(t, filepath.Join(dir, "game_records.csv"))
	require.Len(t, rows, 2)
	require.Equal(t, games[0].ID, rows[1][0])
	require.Equal(t, "1", rows[1][5])
	require.Equal(t, "3s", rows[1][8])

	rows = readCSV(t, filepath.Join(dir, "move_records.csv"))
	require.Len(t, rows, 3)
	require.Equal(t, []string{games[0].ID, "1", "0", "1", "1ms", "150", "40", "41", "false"}, rows[1])
}

func TestParquetWriter(t *testing.T) {
	dir := t.TempDir()
	configs, games, moves := sampleRecords()

	w := NewParquetWriter(dir)
	require.NoError(t, w.WriteAgentConfigs(configs))
	require.NoError(t, w.WriteGameRecords(games))
	require.NoError(t, w.WriteMoveRecords(moves))
	require.NoFileExists(t, filepath.Join(dir, "game_records.parquet.tmp"))

	configRows := readParquet[AgentConfigRow](t, filepath.Join(dir, "agent_configs.parquet"))
	require.Len(t, configRows, 2)
	require.True(t, configRows[0].Random)
	require.Equal(t, int32(150), configRows[1].Iterations)
	require.Equal(t, 0.05, configRows[1].ExploreFactor)

	gameRows := readParquet[GameRow](t, filepath.Join(dir, "game_records.parquet"))
	require.Len(t, gameRows, 1)
	require.Equal(t, games[0].ID, gameRows[0].ID)
	require.Equal(t, int32(1), gameRows[0].Winner)
	require.Equal(t, int64(3_000_000), gameRows[0].DurationUs)

	moveRows := readParquet[MoveRow](t, filepath.Join(dir, "move_records.parquet"))
	require.Len(t, moveRows, 2)
	require.Equal(t, int32(150), moveRows[0].Iterations)
	require.Equal(t, int32(2), moveRows[1].Step)
}
