package config

import (
	"fmt"

	atlaserrors "github.com/codeatlas/codeatlas/internal/errors"
)

// Validator validates configuration and fills in defaults for anything a
// config file left unset.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates cfg, returning a config-class
// AnalysisError on the first violation, and fills in zero-valued fields
// with spec.md §6 defaults.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	v.setDefaults(cfg)

	if err := v.validateProject(&cfg.Project); err != nil {
		return atlaserrors.NewAnalysisError(atlaserrors.ErrorTypeConfig, "project", err)
	}
	if err := v.validateWalk(&cfg.Walk); err != nil {
		return atlaserrors.NewAnalysisError(atlaserrors.ErrorTypeConfig, "walk", err)
	}
	if err := v.validateClone(&cfg.Clone); err != nil {
		return atlaserrors.NewAnalysisError(atlaserrors.ErrorTypeConfig, "clone", err)
	}
	if err := v.validateSnippet(&cfg.Snippet); err != nil {
		return atlaserrors.NewAnalysisError(atlaserrors.ErrorTypeConfig, "snippet", err)
	}

	return nil
}

func (v *Validator) validateProject(p *Project) error {
	if p.Root == "" {
		return fmt.Errorf("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateWalk(w *Walk) error {
	if w.MaxEntries < 0 {
		return fmt.Errorf("walk.max_entries cannot be negative, got %d", w.MaxEntries)
	}
	return nil
}

func (v *Validator) validateClone(c *Clone) error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("clone.threshold must be within [0,1], got %v", c.Threshold)
	}
	if c.ShingleSize < 1 {
		return fmt.Errorf("clone.shingle_size must be at least 1, got %d", c.ShingleSize)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("clone.window_size must be at least 1, got %d", c.WindowSize)
	}
	if c.MaxPairs < 0 {
		return fmt.Errorf("clone.max_pairs cannot be negative, got %d", c.MaxPairs)
	}
	return nil
}

func (v *Validator) validateSnippet(s *Snippet) error {
	if s.MinBytes < 1 {
		return fmt.Errorf("snippet.min_bytes must be at least 1, got %d", s.MinBytes)
	}
	if s.MaxBytes < s.MinBytes {
		return fmt.Errorf("snippet.max_bytes (%d) cannot be smaller than snippet.min_bytes (%d)", s.MaxBytes, s.MinBytes)
	}
	return nil
}

// setDefaults fills in any fields left at their zero value after config-file
// parsing with the defaults from Default().
func (v *Validator) setDefaults(cfg *Config) {
	fallback := Default(cfg.Project.Root)

	if cfg.Walk.MaxEntries == 0 {
		cfg.Walk.MaxEntries = fallback.Walk.MaxEntries
	}
	if cfg.Metrics.MaxFileSize == 0 {
		cfg.Metrics.MaxFileSize = fallback.Metrics.MaxFileSize
	}
	if cfg.Dependency.MaxFileSize == 0 {
		cfg.Dependency.MaxFileSize = fallback.Dependency.MaxFileSize
	}
	if cfg.AST.MaxFileBytes == 0 {
		cfg.AST.MaxFileBytes = fallback.AST.MaxFileBytes
	}
	if cfg.AST.SnippetCap == 0 {
		cfg.AST.SnippetCap = fallback.AST.SnippetCap
	}
	if cfg.Clone.Threshold == 0 {
		cfg.Clone.Threshold = fallback.Clone.Threshold
	}
	if cfg.Clone.ShingleSize == 0 {
		cfg.Clone.ShingleSize = fallback.Clone.ShingleSize
	}
	if cfg.Clone.WindowSize == 0 {
		cfg.Clone.WindowSize = fallback.Clone.WindowSize
	}
	if cfg.Clone.MaxPairs == 0 {
		cfg.Clone.MaxPairs = fallback.Clone.MaxPairs
	}
	if cfg.Clone.MaxMatchesPerPair == 0 {
		cfg.Clone.MaxMatchesPerPair = fallback.Clone.MaxMatchesPerPair
	}
	if cfg.Clone.MaxTokens == 0 {
		cfg.Clone.MaxTokens = fallback.Clone.MaxTokens
	}
	if cfg.Clone.MaxFingerprintIdx == 0 {
		cfg.Clone.MaxFingerprintIdx = fallback.Clone.MaxFingerprintIdx
	}
	if len(cfg.Ignore.Dirs) == 0 {
		cfg.Ignore.Dirs = fallback.Ignore.Dirs
	}
	if len(cfg.Ignore.Files) == 0 {
		cfg.Ignore.Files = fallback.Ignore.Files
	}
	if cfg.Snippet.MinBytes == 0 {
		cfg.Snippet.MinBytes = fallback.Snippet.MinBytes
	}
	if cfg.Snippet.MaxBytes == 0 {
		cfg.Snippet.MaxBytes = fallback.Snippet.MaxBytes
	}
}
