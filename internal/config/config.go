// Package config loads Edison's project configuration. Precedence:
// environment variables > config file > defaults, matching the layering
// DESIGN NOTES mandates for the dynamic-config-dict re-architecture.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every typed configuration surface the core consults.
// Unknown keys in the TOML file are rejected by toml.DecodeFile's
// strict-ish behavior (we post-check via Undecoded after load).
type Config struct {
	Session      SessionConfig      `toml:"session"`
	Validation   ValidationConfig   `toml:"validation"`
	Continuation ContinuationConfig `toml:"continuation"`
	Worktrees    WorktreesConfig    `toml:"worktrees"`
	Tampering    TamperingConfig    `toml:"tampering"`
	Vendors      VendorsConfig      `toml:"vendors"`
	Log          LogConfig          `toml:"log"`
}

// SessionConfig controls session lifecycle and recovery policy (spec.md §4.4).
type SessionConfig struct {
	Recovery           RecoveryConfig `toml:"recovery"`
	InactivityThreshold int           `toml:"inactivity_threshold_seconds"`
}

// RecoveryConfig holds the staleness threshold and the scheduled-sweep
// settings. BlockOnStale is loaded from file and environment, but no
// command reads it: a stale session never blocks a claim.
type RecoveryConfig struct {
	BlockOnStale     bool `toml:"block_on_stale"`
	StaleAfterSeconds int `toml:"stale_after_seconds"`
	AutoSweep        bool `toml:"auto_sweep"`
	SweepIntervalHours int `toml:"sweep_interval_hours"`
}

// ValidationConfig declares presets and the file-glob→preset inference table (C5.1).
type ValidationConfig struct {
	Presets         map[string]PresetConfig `toml:"presets"`
	PresetInference PresetInferenceConfig   `toml:"preset_inference"`
}

// PresetConfig names the validator roster and required evidence/report files for a preset.
type PresetConfig struct {
	Validators       []string `toml:"validators"`
	RequiredEvidence []string `toml:"required_evidence"`
	RequiredReports  []string `toml:"required_reports"`
}

// PresetInferenceConfig maps file globs to preset buckets. Bucket order
// does not matter: ResolvePreset keeps the highest-ranked matching preset.
type PresetInferenceConfig struct {
	Buckets []PresetBucket `toml:"buckets"`
}

// PresetBucket is one glob-set → preset-name mapping; Code marks buckets
// that trigger the "never downgrade below standard" safety rule.
type PresetBucket struct {
	Name    string   `toml:"name"`
	Globs   []string `toml:"globs"`
	Preset  string   `toml:"preset"`
	IsCode  bool     `toml:"is_code"`
}

// ContinuationConfig is the FC/Ralph-Loop continuation contract (spec.md §4.4/§4.6).
type ContinuationConfig struct {
	Enabled          bool              `toml:"enabled"`
	DefaultMode      string            `toml:"default_mode"` // off | soft | hard
	MaxIterations    int               `toml:"max_iterations"`
	CooldownSeconds  int               `toml:"cooldown_seconds"`
	StopOnBlocked    bool              `toml:"stop_on_blocked"`
	CompletionPolicy string            `toml:"completion_policy"` // parent_validated_children_done | all_tasks_validated
	Templates        map[string]string `toml:"templates"`
}

// WorktreesConfig governs shared state between the primary checkout and linked worktrees.
type WorktreesConfig struct {
	SharedState SharedStateConfig `toml:"shared_state"`
}

// SharedStateConfig describes the meta-worktree symlink arrangement.
type SharedStateConfig struct {
	Mode             string   `toml:"mode"` // off | symlink | meta-branch
	MetaBranch       string   `toml:"meta_branch"`
	MetaPathTemplate string   `toml:"meta_path_template"`
	SharedPaths      []string `toml:"shared_paths"`
}

// TamperingConfig is read but never acted on by the core (platform-settings
// rendering is explicitly out of scope per spec.md §1); it is carried so
// composition can surface the setting to out-of-scope adapters.
type TamperingConfig struct {
	Enabled      bool     `toml:"enabled"`
	ProtectedDir string   `toml:"protected_dir"`
	Platforms    []string `toml:"platforms"`
	Mode         string   `toml:"mode"`
}

// VendorsConfig configures vendor mount/export discovery for C7.
type VendorsConfig struct {
	Cache    string         `toml:"cache"`
	Checkout string         `toml:"checkout"`
	Sources  []VendorSource `toml:"sources"`
	Exports  []VendorExport `toml:"exports"`
}

// VendorSource pins one vendor checkout.
type VendorSource struct {
	Name string `toml:"name"`
	Repo string `toml:"repo"`
	Ref  string `toml:"ref"`
}

// VendorExport promotes a mounted vendor path to a first-class entity.
type VendorExport struct {
	Vendor         string `toml:"vendor"`
	SourcePath     string `toml:"source_path"`
	ContentType    string `toml:"content_type"`
	Key            string `toml:"key"`
	AllowShadowing bool   `toml:"allow_shadowing"`
}

// LogConfig controls the ambient slog handler.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Load reads Config from a TOML file (optional) layered under defaults,
// then applies environment variable overrides (which always win).
//
// Config file search order (first found wins):
//  1. configPath parameter (from --config flag)
//  2. EDISON_CONFIG environment variable
//  3. ./.edison/config/edison.toml
//  4. ~/.config/edison/edison.toml
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Session: SessionConfig{
			InactivityThreshold: 1800,
			Recovery: RecoveryConfig{
				BlockOnStale:       false,
				StaleAfterSeconds:  1800,
				AutoSweep:          false,
				SweepIntervalHours: 1,
			},
		},
		Validation: ValidationConfig{
			Presets: map[string]PresetConfig{
				"quick": {
					Validators:       []string{"global-codex"},
					RequiredEvidence: nil,
					RequiredReports:  []string{"implementation-report.md"},
				},
				"standard": {
					Validators:       []string{"global-codex", "command-lint"},
					RequiredEvidence: []string{"command-lint.txt"},
					RequiredReports:  []string{"implementation-report.md"},
				},
			},
			PresetInference: PresetInferenceConfig{
				Buckets: []PresetBucket{
					{Name: "docs", Globs: []string{"*.md", "docs/**"}, Preset: "quick", IsCode: false},
					{Name: "config", Globs: []string{"*.yaml", "*.yml", "*.toml", "*.json"}, Preset: "quick", IsCode: false},
					{Name: "code", Globs: []string{"*.go", "*.ts", "*.tsx", "*.js", "*.py"}, Preset: "standard", IsCode: true},
				},
			},
		},
		Continuation: ContinuationConfig{
			Enabled:          true,
			DefaultMode:      "off",
			MaxIterations:    20,
			CooldownSeconds:  5,
			StopOnBlocked:    true,
			CompletionPolicy: "parent_validated_children_done",
		},
		Worktrees: WorktreesConfig{
			SharedState: SharedStateConfig{
				Mode:             "symlink",
				MetaPathTemplate: ".edison/meta",
				SharedPaths:      []string{"specs", ".project"},
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil // no config file found; rely on defaults + env
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown keys: %v", path, undecoded)
	}

	return nil
}

func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("EDISON_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(".edison/config/edison.toml"); err == nil {
		return ".edison/config/edison.toml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/edison/edison.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyEnv overlays EDISON_* environment variables on top of file/defaults.
// Only the four variables named below are read; no other EDISON_* variable
// and no dotted-path override syntax is supported.
func (c *Config) applyEnv() {
	envOverride("EDISON_LOG_LEVEL", &c.Log.Level)
	envOverride("EDISON_CONTINUATION_DEFAULT_MODE", &c.Continuation.DefaultMode)

	if v := os.Getenv("EDISON_SESSION_BLOCK_ON_STALE"); v != "" {
		c.Session.Recovery.BlockOnStale = v == "true" || v == "1"
	}
	if v := os.Getenv("EDISON_SESSION_STALE_AFTER_SECONDS"); v != "" {
		var secs int
		if _, err := fmt.Sscanf(v, "%d", &secs); err == nil && secs > 0 {
			c.Session.Recovery.StaleAfterSeconds = secs
		}
	}
}

// Validate checks structural invariants that defaults + file + env must
// jointly satisfy.
func (c *Config) Validate() error {
	switch c.Continuation.DefaultMode {
	case "off", "soft", "hard":
	default:
		return fmt.Errorf("invalid continuation.default_mode: %q (must be off, soft, or hard)", c.Continuation.DefaultMode)
	}
	switch c.Continuation.CompletionPolicy {
	case "parent_validated_children_done", "all_tasks_validated":
	default:
		return fmt.Errorf("invalid continuation.completion_policy: %q", c.Continuation.CompletionPolicy)
	}
	if len(c.Validation.Presets) == 0 {
		return fmt.Errorf("at least one validation preset must be configured")
	}
	return nil
}

func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
