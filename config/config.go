package config

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"isolation/experiments/metrics"
	"isolation/meta"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const envPrefix = "ISOLATION_"

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Search SearchConfig `yaml:"search"`
	Game   GameConfig   `yaml:"game"`
	Server ServerConfig `yaml:"server"`
	Arena  ArenaConfig  `yaml:"arena"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// SearchConfig configures the agent used by play and serve.
type SearchConfig struct {
	Iterations    int     `yaml:"iterations" validate:"gte=1"`
	Goroutines    int     `yaml:"goroutines" validate:"gte=1,lte=256"`
	ExploreFactor float64 `yaml:"explore_factor" validate:"gte=0"`
	RandomPlies   int     `yaml:"random_plies" validate:"gte=0"`
	TreeReuse     bool    `yaml:"tree_reuse"`
	Seed          uint64  `yaml:"seed"`
}

type GameConfig struct {
	Width     int           `yaml:"width" validate:"gte=1,lte=64"`
	Height    int           `yaml:"height" validate:"gte=1,lte=64"`
	Blocked   []int         `yaml:"blocked" validate:"dive,gte=0"`
	TimeLimit time.Duration `yaml:"time_limit" validate:"gt=0"`
	MaxTurns  int           `yaml:"max_turns" validate:"gte=1"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

type ArenaConfig struct {
	Name     string                `yaml:"name" validate:"required"`
	NumGames int                   `yaml:"num_games" validate:"gte=1"`
	Parallel int                   `yaml:"parallel" validate:"gte=1"`
	OutDir   string                `yaml:"out_dir"`
	Formats  []string              `yaml:"formats" validate:"dive,oneof=csv parquet"`
	Agents   []metrics.AgentConfig `yaml:"agents" validate:"dive"`
	Matchups [][2]int              `yaml:"matchups"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Search: SearchConfig{
			Iterations:    meta.ITERATIONS,
			Goroutines:    meta.GO_ROUTINES,
			ExploreFactor: meta.EXPLORE_FACTOR,
			RandomPlies:   meta.RANDOM_PLIES,
		},
		Game: GameConfig{
			Width:     meta.BOARD_WIDTH,
			Height:    meta.BOARD_HEIGHT,
			TimeLimit: meta.TIME_LIMIT,
			MaxTurns:  meta.MAX_TURNS,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Arena: ArenaConfig{
			Name:     "arena",
			NumGames: 10,
			Parallel: 4,
			OutDir:   "experiments",
			Formats:  []string{"csv"},
			Agents: []metrics.AgentConfig{
				{ID: 0, Random: true},
				{ID: 1, Iterations: meta.ITERATIONS, Goroutines: meta.GO_ROUTINES, ExploreFactor: meta.EXPLORE_FACTOR, RandomPlies: meta.RANDOM_PLIES},
			},
			Matchups: [][2]int{{1, 0}},
		},
	}
}

// Load reads path over the defaults, applies ISOLATION_* environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, errors.Wrap(err, "parse config file")
		}
	}

	if err := applyEnv(&config); err != nil {
		return config, err
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// AgentConfig returns the search settings in the arena's record format.
func (s SearchConfig) AgentConfig() metrics.AgentConfig {
	return metrics.AgentConfig{
		Iterations:    s.Iterations,
		Goroutines:    s.Goroutines,
		ExploreFactor: s.ExploreFactor,
		RandomPlies:   s.RandomPlies,
		TreeReuse:     s.TreeReuse,
		Seed:          s.Seed,
	}
}

func applyEnv(config *Config) error {
	strs := map[string]*string{
		"LOG_LEVEL":   &config.Log.Level,
		"LOG_FORMAT":  &config.Log.Format,
		"SERVER_ADDR": &config.Server.Addr,
		"ARENA_OUT":   &config.Arena.OutDir,
	}
	ints := map[string]*int{
		"ITERATIONS":     &config.Search.Iterations,
		"GOROUTINES":     &config.Search.Goroutines,
		"RANDOM_PLIES":   &config.Search.RandomPlies,
		"BOARD_WIDTH":    &config.Game.Width,
		"BOARD_HEIGHT":   &config.Game.Height,
		"MAX_TURNS":      &config.Game.MaxTurns,
		"ARENA_GAMES":    &config.Arena.NumGames,
		"ARENA_PARALLEL": &config.Arena.Parallel,
	}

	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	for name, dst := range ints {
		if v, ok := lookup(name); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "parse %s%s", envPrefix, name)
			}
			*dst = i
		}
	}

	if v, ok := lookup("EXPLORE_FACTOR"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "parse %sEXPLORE_FACTOR", envPrefix)
		}
		config.Search.ExploreFactor = f
	}
	if v, ok := lookup("SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parse %sSEED", envPrefix)
		}
		config.Search.Seed = seed
	}
	if v, ok := lookup("TREE_REUSE"); ok {
		config.Search.TreeReuse = v == "true" || v == "1"
	}
	if v, ok := lookup("TIME_LIMIT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "parse %sTIME_LIMIT", envPrefix)
		}
		config.Game.TimeLimit = d
	}
	if v, ok := lookup("ARENA_FORMATS"); ok {
		config.Arena.Formats = strings.Split(v, ",")
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ConfigureLogging sets the global zerolog level and output.
func ConfigureLogging(c LogConfig, w io.Writer) error {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrapf(err, "parse log level %q", c.Level)
	}
	zerolog.SetGlobalLevel(level)

	if c.Format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	return nil
}
