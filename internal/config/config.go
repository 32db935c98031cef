// Package config loads bmo-log-parse settings from a TOML file. A missing
// file is not an error; defaults apply and flags override either.
//
// Example ~/.config/bmo-log-parse/config.toml:
//
//	color = "auto"          # auto | always | never
//	pager = true            # page output when stdout is a terminal
//	verbose = false         # show verbose errors instead of stack traces
//	theme = "Nightfox"      # Classic | Nightfox | Kanagawa | Slate
//	follow_interval = "1s"  # poll interval for --follow
//
//	[aliases]               # extra short names for -c/-p/-w
//	fw = "hostfirmwaresettings"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds user settings.
type Config struct {
	Color          string
	Pager          bool
	Verbose        bool
	Theme          string
	FollowInterval time.Duration
	Aliases        map[string]string
}

const (
	// DefaultPath is where Load looks when no path is given.
	DefaultPath = "~/.config/bmo-log-parse/config.toml"

	defaultFollowInterval = time.Second
)

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		Color:          ColorAuto,
		Pager:          true,
		FollowInterval: defaultFollowInterval,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Color          string            `toml:"color"`
		Pager          *bool             `toml:"pager"`
		Verbose        bool              `toml:"verbose"`
		Theme          string            `toml:"theme"`
		FollowInterval string            `toml:"follow_interval"`
		Aliases        map[string]string `toml:"aliases"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if color := strings.ToLower(strings.TrimSpace(raw.Color)); color != "" {
		if err := ValidateColor(color); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg.Color = color
	}
	if raw.Pager != nil {
		cfg.Pager = *raw.Pager
	}
	cfg.Verbose = raw.Verbose
	cfg.Theme = strings.TrimSpace(raw.Theme)

	if interval := strings.TrimSpace(raw.FollowInterval); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: follow_interval: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse config: follow_interval must be positive, got %s", d)
		}
		cfg.FollowInterval = d
	}

	if len(raw.Aliases) > 0 {
		cfg.Aliases = make(map[string]string, len(raw.Aliases))
		for k, v := range raw.Aliases {
			k, v = strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)
			if k == "" || v == "" {
				continue
			}
			cfg.Aliases[k] = v
		}
	}

	return cfg, nil
}

// ValidateColor checks a color mode.
func ValidateColor(mode string) error {
	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always or never)", mode)
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(DefaultPath)
	}
	return ExpandPath(path)
}

// ExpandPath expands a leading "~" and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
