package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/flowcore/internal/codec"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProjectPath   string // .hcl file or directory, or a saved snapshot
	FunctionsPath string // directory of .hcl function libraries

	// Flow names the flow to run. Empty means the first flow.
	Flow     string
	Sets     []Assignment
	Triggers []string
	OutPath  string

	NotifyURL       string
	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// Assignment is a `name=expr` variable setting.
type Assignment struct {
	Name string
	Expr string
}

// ParseAssignment splits raw at the first '='.
func ParseAssignment(raw string) (Assignment, error) {
	name, expr, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Assignment{}, fmt.Errorf("invalid assignment %q: expected name=value", raw)
	}
	return Assignment{Name: name, Expr: strings.TrimSpace(expr)}, nil
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProjectPath == "" {
		return nil, errors.New("ProjectPath is a required configuration field and cannot be empty")
	}
	for _, raw := range cfg.Triggers {
		if _, err := parseTrigger(raw); err != nil {
			return nil, err
		}
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if _, err := parseLogFormat(cfg.LogFormat); err != nil {
		return nil, err
	}
	if cfg.OutPath != "" {
		if _, err := codec.ForPath(cfg.OutPath); err != nil {
			return nil, fmt.Errorf("invalid output path: %w", err)
		}
	}
	return &cfg, nil
}
