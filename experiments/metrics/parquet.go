package metrics

import (
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/pkg/errors"
)

type AgentConfigRow struct {
	ID            int32   `parquet:"id"`
	Random        bool    `parquet:"random"`
	Iterations    int32   `parquet:"iterations"`
	Goroutines    int32   `parquet:"goroutines"`
	ExploreFactor float64 `parquet:"explore_factor"`
	RandomPlies   int32   `parquet:"random_plies"`
	TreeReuse     bool    `parquet:"tree_reuse"`
	Seed          uint64  `parquet:"seed"`
}

type GameRow struct {
	ID             string `parquet:"id"`
	Matchup        int32  `parquet:"matchup"`
	Agent1         int32  `parquet:"agent1"`
	Agent2         int32  `parquet:"agent2"`
	StartingPlayer int32  `parquet:"starting_player"`
	Winner         int32  `parquet:"winner"`
	StartTimeMs    int64  `parquet:"start_time_ms"`
	EndTimeMs      int64  `parquet:"end_time_ms"`
	DurationUs     int64  `parquet:"duration_us"`
	TotalMoves     int32  `parquet:"total_moves"`
}

type MoveRow struct {
	Game        string `parquet:"game,dict"`
	Step        int32  `parquet:"step"`
	Player      int32  `parquet:"player"`
	Goroutines  int32  `parquet:"goroutines"`
	DurationUs  int64  `parquet:"duration_us"`
	Iterations  int32  `parquet:"iterations"`
	Expansions  int32  `parquet:"expansions"`
	Nodes       int32  `parquet:"nodes"`
	IsTreeReuse bool   `parquet:"is_tree_reuse"`
}

// ParquetWriter writes zstd-compressed Parquet files.
type ParquetWriter struct {
	baseDir string
}

func NewParquetWriter(dir string) *ParquetWriter {
	return &ParquetWriter{baseDir: dir}
}

func (w *ParquetWriter) WriteAgentConfigs(configs []AgentConfig) error {
	rows := make([]AgentConfigRow, len(configs))
	for i, c := range configs {
		rows[i] = AgentConfigRow{
			ID:            int32(c.ID),
			Random:        c.Random,
			Iterations:    int32(c.Iterations),
			Goroutines:    int32(c.Goroutines),
			ExploreFactor: c.ExploreFactor,
			RandomPlies:   int32(c.RandomPlies),
			TreeReuse:     c.TreeReuse,
			Seed:          c.Seed,
		}
	}
	return writeParquet(filepath.Join(w.baseDir, "agent_configs.parquet"), "agent_config_v1", rows)
}

func (w *ParquetWriter) WriteGameRecords(records []GameRecord) error {
	rows := make([]GameRow, len(records))
	for i, r := range records {
		rows[i] = GameRow{
			ID:             r.ID,
			Matchup:        int32(r.Matchup),
			Agent1:         int32(r.Agent1),
			Agent2:         int32(r.Agent2),
			StartingPlayer: int32(r.StartingPlayer),
			Winner:         int32(r.Winner),
			StartTimeMs:    r.StartTime.UnixMilli(),
			EndTimeMs:      r.EndTime.UnixMilli(),
			DurationUs:     r.Duration.Microseconds(),
			TotalMoves:     int32(r.TotalMoves),
		}
	}
	return writeParquet(filepath.Join(w.baseDir, "game_records.parquet"), "game_record_v1", rows)
}

func (w *ParquetWriter) WriteMoveRecords(records []MoveRecord) error {
	rows := make([]MoveRow, len(records))
	for i, r := range records {
		rows[i] = MoveRow{
			Game:        r.Game,
			Step:        int32(r.Step),
			Player:      int32(r.Player),
			Goroutines:  int32(r.Goroutines),
			DurationUs:  r.Duration.Microseconds(),
			Iterations:  int32(r.Iterations),
			Expansions:  int32(r.Expansions),
			Nodes:       int32(r.Nodes),
			IsTreeReuse: r.IsTreeReuse,
		}
	}
	return writeParquet(filepath.Join(w.baseDir, "move_records.parquet"), "move_record_v1", rows)
}

// writeParquet writes to a temp file and renames it so readers never see a
// partial file.
func writeParquet[T any](outPath, schema string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schema),
	); err != nil {
		return errors.Wrap(err, "write parquet")
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return errors.Wrap(err, "rename parquet")
	}
	return nil
}
