package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"isolation/meta"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AgentConfig describes one contestant of an arena experiment. RandomPlies of 0
// searches from the first ply; decoded from YAML it defaults to
// meta.RANDOM_PLIES when the key is absent.
type AgentConfig struct {
	ID            int     `yaml:"id" validate:"gte=0"`
	Random        bool    `yaml:"random"`
	Iterations    int     `yaml:"iterations" validate:"gte=0"`
	Goroutines    int     `yaml:"goroutines" validate:"gte=0,lte=256"`
	ExploreFactor float64 `yaml:"explore_factor" validate:"gte=0"`
	RandomPlies   int     `yaml:"random_plies" validate:"gte=0"`
	TreeReuse     bool    `yaml:"tree_reuse"`
	Seed          uint64  `yaml:"seed"`
}

type GameRecord struct {
	ID      string // UUID
	Matchup int
	Agent1  int // AgentConfig.ID of the first seat
	Agent2  int // AgentConfig.ID of the second seat
	GameMetric
}

type MoveRecord struct {
	Game string // GameRecord.ID
	MoveMetric
}

func (c *AgentConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain AgentConfig
	p := plain{RandomPlies: meta.RANDOM_PLIES}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = AgentConfig(p)
	return nil
}

// RecordWriter persists the outcome of an experiment.
type RecordWriter interface {
	WriteAgentConfigs(configs []AgentConfig) error
	WriteGameRecords(records []GameRecord) error
	WriteMoveRecords(records []MoveRecord) error
}

// OutputDir creates root/name/<timestamp> for the files of one experiment.
func OutputDir(root, name string) (string, error) {
	timestamp := time.Now().UTC().Format("20060102T150405.000")
	dir := filepath.Join(root, name, timestamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create directory")
	}
	return dir, nil
}

// Writer writes CSV files.
type Writer struct {
	baseDir string
}

func NewWriter(dir string) *Writer {
	return &Writer{baseDir: dir}
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "random", "iterations", "goroutines", "explore_factor", "random_plies", "tree_reuse", "seed"}
	rows := make([][]string, len(configs))
	for i, config := range configs {
		rows[i] = []string{
			strconv.Itoa(config.ID),
			strconv.FormatBool(config.Random),
			strconv.Itoa(config.Iterations),
			strconv.Itoa(config.Goroutines),
			strconv.FormatFloat(config.ExploreFactor, 'g', -1, 64),
			strconv.Itoa(config.RandomPlies),
			strconv.FormatBool(config.TreeReuse),
			strconv.FormatUint(config.Seed, 10),
		}
	}
	return w.write("agent_configs.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "matchup", "agent1", "agent2", "starting_player", "winner", "start_time", "end_time", "duration", "total_moves"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			record.ID,
			strconv.Itoa(record.Matchup),
			strconv.Itoa(record.Agent1),
			strconv.Itoa(record.Agent2),
			strconv.Itoa(record.StartingPlayer),
			strconv.Itoa(record.Winner),
			record.StartTime.Format(time.RFC3339Nano),
			record.EndTime.Format(time.RFC3339Nano),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
		}
	}
	return w.write("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "player", "goroutines", "duration", "iterations", "expansions", "nodes", "is_tree_reuse"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			record.Game,
			strconv.Itoa(record.Step),
			strconv.Itoa(record.Player),
			strconv.Itoa(record.Goroutines),
			record.Duration.String(),
			strconv.Itoa(record.Iterations),
			strconv.Itoa(record.Expansions),
			strconv.Itoa(record.Nodes),
			strconv.FormatBool(record.IsTreeReuse),
		}
	}
	return w.write("move_records.csv", header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", name)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return errors.Wrapf(err, "failed to write %s header", name)
	}
	if err := writer.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "failed to write %s rows", name)
	}
	return nil
}
