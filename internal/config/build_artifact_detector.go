package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DetectBuildArtifactDirs scans root for language config files that name a
// custom build-output directory and returns extra glob ignore patterns for
// them, supplementing DefaultIgnoredDirs with project-specific output dirs
// the static name set can't know about ahead of time.
func DetectBuildArtifactDirs(root string) []string {
	var patterns []string
	patterns = append(patterns, detectCargoOutputDir(root)...)
	patterns = append(patterns, detectPyprojectOutputDir(root)...)
	return patterns
}

// detectCargoOutputDir reads Cargo.toml's profile.release.target-dir, the
// only way a Rust project relocates its build output away from the
// already-ignored default "target" directory.
func detectCargoOutputDir(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil
	}

	var cargo struct {
		Profile struct {
			Release struct {
				TargetDir string `toml:"target-dir"`
			} `toml:"release"`
		} `toml:"profile"`
	}
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil
	}
	if cargo.Profile.Release.TargetDir == "" {
		return nil
	}
	return []string{"**/" + cargo.Profile.Release.TargetDir}
}

// detectPyprojectOutputDir reads pyproject.toml's tool.poetry.build.target-dir.
func detectPyprojectOutputDir(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return nil
	}

	var pyproject struct {
		Tool struct {
			Poetry struct {
				Build struct {
					TargetDir string `toml:"target-dir"`
				} `toml:"build"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &pyproject); err != nil {
		return nil
	}
	if pyproject.Tool.Poetry.Build.TargetDir == "" {
		return nil
	}
	return []string{"**/" + pyproject.Tool.Poetry.Build.TargetDir}
}
