package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// Load reads configuration from the given path. A missing file is not an
// error: Default(root) is returned instead so the pipeline always has a
// complete configuration to run with (§7: config problems never abort a
// run by themselves — only a malformed file that exists does).
func Load(path string) (*Config, error) {
	root, _ := os.Getwd()
	cfg := Default(root)

	if path == "" {
		cfg.Ignore.Dirs = append(cfg.Ignore.Dirs, DetectBuildArtifactDirs(cfg.Project.Root)...)
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.Ignore.Dirs = append(cfg.Ignore.Dirs, DetectBuildArtifactDirs(cfg.Project.Root)...)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := parseKDL(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Project.Root == "" {
		cfg.Project.Root = filepath.Dir(path)
	}
	absRoot, err := filepath.Abs(cfg.Project.Root)
	if err == nil {
		cfg.Project.Root = absRoot
	}

	cfg.Ignore.Dirs = append(cfg.Ignore.Dirs, DetectBuildArtifactDirs(cfg.Project.Root)...)

	if err := NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseKDL walks the KDL document and overlays recognized nodes onto cfg.
// Unknown nodes are ignored rather than rejected.
func parseKDL(content []byte, cfg *Config) error {
	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return err
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "walk":
			for _, cn := range n.Children {
				if nodeName(cn) == "max_entries" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Walk.MaxEntries = v
					}
				}
			}
		case "metrics":
			for _, cn := range n.Children {
				if nodeName(cn) == "max_file_size" {
					if v, ok := firstSizeArg(cn); ok {
						cfg.Metrics.MaxFileSize = v
					}
				}
			}
		case "dependency":
			for _, cn := range n.Children {
				if nodeName(cn) == "max_file_size" {
					if v, ok := firstSizeArg(cn); ok {
						cfg.Dependency.MaxFileSize = v
					}
				}
			}
		case "ast":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_file_bytes":
					if v, ok := firstSizeArg(cn); ok {
						cfg.AST.MaxFileBytes = v
					}
				case "snippet_cap":
					if v, ok := firstSizeArg(cn); ok {
						cfg.AST.SnippetCap = v
					}
				}
			}
		case "clone":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Clone.Threshold = v
					}
				case "shingle_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Clone.ShingleSize = v
					}
				case "window_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Clone.WindowSize = v
					}
				case "max_pairs":
					if v, ok := firstIntArg(cn); ok {
						cfg.Clone.MaxPairs = v
					}
				case "max_matches_per_pair":
					if v, ok := firstIntArg(cn); ok {
						cfg.Clone.MaxMatchesPerPair = v
					}
				case "max_tokens":
					if v, ok := firstIntArg(cn); ok {
						cfg.Clone.MaxTokens = v
					}
				}
			}
		case "ignore":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "dirs":
					if vals := collectStringArgs(cn); len(vals) > 0 {
						cfg.Ignore.Dirs = vals
					}
				case "files":
					if vals := collectStringArgs(cn); len(vals) > 0 {
						cfg.Ignore.Files = vals
					}
				}
			}
		case "snippet":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "min_bytes":
					if v, ok := firstSizeArg(cn); ok {
						cfg.Snippet.MinBytes = v
					}
				case "max_bytes":
					if v, ok := firstSizeArg(cn); ok {
						cfg.Snippet.MaxBytes = v
					}
				}
			}
		}
	}

	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// firstSizeArg accepts either a bare integer (bytes) or a size suffix
// string such as "256KB"/"1MB".
func firstSizeArg(n *document.Node) (int64, bool) {
	if v, ok := firstIntArg(n); ok {
		return int64(v), true
	}
	if s, ok := firstStringArg(n); ok {
		if sz, err := parseSize(s); err == nil {
			return sz, true
		}
	}
	return 0, false
}

func assignString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// parseSize handles size strings like "10MB", "500KB", "1GB".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	numStr = strings.TrimSpace(numStr)
	var n int64
	if _, err := fmt.Sscanf(numStr, "%d", &n); err != nil {
		return 0, err
	}
	return n * multiplier, nil
}
