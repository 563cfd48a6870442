// Package config loads and validates the server's bootstrap
// configuration (spec.md §6's external-interface table).
//
// Kept and generalized from the teacher's internal/config package:
// same hand-rolled two-space-indent YAML-subset scanner
// (parseYAML/parseMap/parseList in parser.go) feeding a JSON round
// trip into a typed struct, the same ApplyDefaults/Validate/
// ValidationError accumulate-then-report pattern, and a RUDIS_-
// prefixed environment overlay in place of the teacher's own env
// handling — only the field set changed, from migration topology to
// the server's own bind addresses and persistence knobs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the server's full bootstrap configuration.
type Config struct {
	ServerAddr        string    `json:"server_addr"`
	ForwardAddr       string    `json:"forward_addr"`
	MaxConnections    int       `json:"max_connections"`
	FromPD            FromPD    `json:"from_pd"`
	HDP               HDPConfig `json:"hdp"`
	ForwardMaxBacklog int       `json:"forward_max_backlog"`
	ReadOnly          bool      `json:"read_only"`

	path string
}

// FromPD configures the control-plane heartbeat client (internal/pd).
type FromPD struct {
	Addr    string `json:"addr"`
	GroupID string `json:"group_id"`
}

// HDPConfig configures persistence (internal/persist): where
// snapshots/AOF segments are written and read from, and how many
// writes accumulate per segment before a snapshot is triggered.
type HDPConfig struct {
	SaveDir  string `json:"save_hdp_dir"`
	LoadDir  string `json:"load_hdp_dir"`
	AOFCount int    `json:"aof_count"`
}

// ValidationError collects every configuration problem found, rather
// than failing on the first.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	b := strings.Builder{}
	b.WriteString("invalid configuration")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	for _, err := range e.Errors {
		b.WriteString("\n - ")
		b.WriteString(err)
	}
	return b.String()
}

// Load reads path (if non-empty), overlays RUDIS_-prefixed environment
// variables, fills defaults, and validates the result.
func Load(path string) (*Config, error) {
	raw := map[string]interface{}{}
	absPath := ""

	if path != "" {
		var err error
		absPath, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}

		file, err := os.Open(absPath)
		if err != nil {
			return nil, fmt.Errorf("opening config file %s: %w", absPath, err)
		}
		defer file.Close()

		raw, err = parseYAML(file)
		if err != nil {
			return nil, err
		}
	}

	applyEnvOverlay(raw, "RUDIS")

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.path = absPath
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverlay walks every RUDIS_-prefixed environment variable and
// sets the matching dotted path in raw, double-underscore separating
// nesting levels (RUDIS_HDP__AOF_COUNT -> hdp.aof_count).
func applyEnvOverlay(raw map[string]interface{}, prefix string) {
	want := prefix + "_"
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], want) {
			continue
		}
		keyPath := strings.ToLower(strings.TrimPrefix(parts[0], want))
		segments := strings.Split(keyPath, "__")
		setPath(raw, segments, parseScalar(parts[1]))
	}
}

func setPath(m map[string]interface{}, segments []string, value interface{}) {
	if len(segments) == 0 {
		return
	}
	if len(segments) == 1 {
		m[segments[0]] = value
		return
	}
	child, ok := m[segments[0]].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		m[segments[0]] = child
	}
	setPath(child, segments[1:], value)
}

// ApplyDefaults populates every field spec.md §6 names a default for.
func (c *Config) ApplyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = "0.0.0.0:6379"
	}
	if c.ForwardAddr == "" {
		c.ForwardAddr = "0.0.0.0:0"
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = 3000
	}
	if c.ForwardMaxBacklog == 0 {
		c.ForwardMaxBacklog = 1048576
	}
}

// Validate ensures the config is internally consistent.
func (c *Config) Validate() error {
	var errs []string

	if c.ServerAddr == "" {
		errs = append(errs, "server_addr is required")
	}
	if c.MaxConnections <= 0 {
		errs = append(errs, "max_connections must be > 0")
	}
	if c.ForwardMaxBacklog <= 0 {
		errs = append(errs, "forward_max_backlog must be > 0")
	}
	if c.HDP.AOFCount < 0 {
		errs = append(errs, "hdp.aof_count must be >= 0")
	}
	if (c.FromPD.Addr == "") != (c.FromPD.GroupID == "") {
		errs = append(errs, "from_pd.addr and from_pd.group_id must both be set or both be empty")
	}

	if len(errs) > 0 {
		return &ValidationError{Path: c.path, Errors: errs}
	}
	return nil
}

// Summary returns a concise one-line overview, for startup logging.
func (c *Config) Summary() string {
	return fmt.Sprintf(
		"server_addr=%s forward_addr=%s max_connections=%d hdp(save=%s aof_count=%d) forward_max_backlog=%d read_only=%t",
		c.ServerAddr, c.ForwardAddr, c.MaxConnections, c.HDP.SaveDir, c.HDP.AOFCount, c.ForwardMaxBacklog, c.ReadOnly,
	)
}

// IsFollower reports whether this server should run a replication
// Follower (it was told where to sync from).
func (c *Config) IsFollower() bool {
	return c.FromPD.Addr != ""
}
