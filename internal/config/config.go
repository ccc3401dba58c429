// Package config loads problem instances and search settings from YAML.
//
// Precedence is defaults, then the file, then MAPF_* environment
// variables. A file that sets grid or agents replaces the whole problem;
// otherwise the reference instance is used. Search and log settings merge
// key by key.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// Environment variables read by Load.
const (
	EnvLogLevel      = "MAPF_LOG_LEVEL"
	EnvLogFormat     = "MAPF_LOG_FORMAT"
	EnvMaxExpansions = "MAPF_MAX_EXPANSIONS"
	EnvTimeLimit     = "MAPF_TIME_LIMIT"
	EnvSolver        = "MAPF_SOLVER"
)

// Solver names.
const (
	SolverCBS         = "cbs"
	SolverPrioritized = "prioritized"
)

// Config is the on-disk description of a run.
type Config struct {
	Grid   GridConfig    `yaml:"grid"`
	Agents []AgentConfig `yaml:"agents" validate:"required,min=1,dive"`
	Search SearchConfig  `yaml:"search"`
	Log    LogConfig     `yaml:"log"`
}

// GridConfig describes the grid. Cells are [row, col] pairs.
type GridConfig struct {
	Rows    int      `yaml:"rows" validate:"min=1"`
	Cols    int      `yaml:"cols" validate:"min=1"`
	Blocked [][2]int `yaml:"blocked,omitempty"`
}

// AgentConfig describes one agent.
type AgentConfig struct {
	ID    string `yaml:"id" validate:"required"`
	Start [2]int `yaml:"start"`
	Goal  [2]int `yaml:"goal"`
}

// SearchConfig selects and tunes the solver.
type SearchConfig struct {
	Solver        string        `yaml:"solver" validate:"oneof=cbs prioritized"`
	MaxExpansions int           `yaml:"max_expansions" validate:"min=0"`
	TimeLimit     time.Duration `yaml:"time_limit,omitempty" validate:"min=0"`
	Branching     string        `yaml:"branching,omitempty" validate:"omitempty,oneof=both random"`
	Seed          int64         `yaml:"seed,omitempty"`
	AllowWait     bool          `yaml:"allow_wait,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=text json"`
}

// ErrInvalid is returned when a field fails validation.
var ErrInvalid = errors.New("config: invalid")

var validate = validator.New()

// Default returns the reference instance with CBS settings.
func Default() *Config {
	cfg := FromInstance(core.ReferenceInstance())
	cfg.Search = SearchConfig{
		Solver:        SolverCBS,
		MaxExpansions: 10000,
		Branching:     "both",
	}
	cfg.Log = LogConfig{Level: "info", Format: "text"}
	return cfg
}

// FromInstance describes inst as a Config with zero search settings.
func FromInstance(inst *core.Instance) *Config {
	cfg := &Config{
		Grid: GridConfig{
			Rows: inst.Grid.Rows(),
			Cols: inst.Grid.Cols(),
		},
	}
	for _, c := range inst.Grid.Blocked() {
		cfg.Grid.Blocked = append(cfg.Grid.Blocked, [2]int{c.Row, c.Col})
	}
	for _, a := range inst.Agents {
		cfg.Agents = append(cfg.Agents, AgentConfig{
			ID:    string(a.ID),
			Start: [2]int{a.Start.Row, a.Start.Col},
			Goal:  [2]int{a.Goal.Row, a.Goal.Col},
		})
	}
	return cfg
}

// Load reads path on top of Default, applies the environment and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		var sections map[string]yaml.Node
		if err := yaml.Unmarshal(data, &sections); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		_, hasGrid := sections["grid"]
		_, hasAgents := sections["agents"]
		if hasGrid || hasAgents {
			cfg.Grid = GridConfig{}
			cfg.Agents = nil
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Log.Format = v
	}
	if v, ok := os.LookupEnv(EnvSolver); ok {
		c.Search.Solver = v
	}
	if v, ok := os.LookupEnv(EnvMaxExpansions); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxExpansions, err)
		}
		c.Search.MaxExpansions = n
	}
	if v, ok := os.LookupEnv(EnvTimeLimit); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeLimit, err)
		}
		c.Search.TimeLimit = d
	}
	return nil
}

// Validate checks field constraints and that the described instance is
// well formed.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails %q (value %v)", ErrInvalid, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	_, err := c.Instance()
	return err
}

// Instance builds and validates the problem instance.
func (c *Config) Instance() (*core.Instance, error) {
	blocked := make([]core.Cell, 0, len(c.Grid.Blocked))
	for _, b := range c.Grid.Blocked {
		blocked = append(blocked, cellOf(b))
	}
	grid, err := core.NewGrid(c.Grid.Rows, c.Grid.Cols, blocked)
	if err != nil {
		return nil, err
	}

	agents := make([]core.Agent, 0, len(c.Agents))
	for _, a := range c.Agents {
		agents = append(agents, core.Agent{
			ID:    core.AgentID(a.ID),
			Start: cellOf(a.Start),
			Goal:  cellOf(a.Goal),
		})
	}

	inst := core.NewInstance(grid, agents...)
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func cellOf(p [2]int) core.Cell { return core.Cell{Row: p[0], Col: p[1]} }
