package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/codeatlas/codeatlas/internal/config"
	"github.com/codeatlas/codeatlas/internal/mcpserver"
	"github.com/codeatlas/codeatlas/internal/pipeline"
	"github.com/codeatlas/codeatlas/internal/snippet"
	"github.com/codeatlas/codeatlas/internal/version"
)

// loadConfigWithOverrides loads configuration and applies the global
// --root/--config flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	if rootFlag := c.String("root"); rootFlag != "" && configPath == ".codeatlas.kdl" {
		configPath = filepath.Join(rootFlag, ".codeatlas.kdl")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}

	if err := config.NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:    "codeatlas",
		Usage:   "Static analysis pipeline: traversal, symbols, structure graph, clone detection, narrative synthesis",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   ".codeatlas.kdl",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to analyze (overrides config)",
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			analyzeCommand,
			snippetCommand,
			serveMCPCommand,
			versionCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var analyzeCommand = &cli.Command{
	Name:  "analyze",
	Usage: "Run the analysis pipeline and print the report",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "narrative",
			Usage: "Print the narrative summary instead of the full JSON report",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print the JSON report",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}

		report, err := pipeline.Analyze(cfg)
		if err != nil {
			return fmt.Errorf("analyze failed: %w", err)
		}

		if c.Bool("narrative") {
			fmt.Println(report.Narrative.Overview)
			for _, fact := range report.Narrative.KeyFacts {
				fmt.Println("-", fact)
			}
			for _, hotspot := range report.Narrative.Hotspots {
				fmt.Println("!", hotspot)
			}
			for _, action := range report.Narrative.Actions {
				fmt.Println(">", action)
			}
			return nil
		}

		var out []byte
		if c.Bool("pretty") {
			out, err = json.MarshalIndent(report, "", "  ")
		} else {
			out, err = json.Marshal(report)
		}
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

var snippetCommand = &cli.Command{
	Name:      "snippet",
	Usage:     "Print a byte-bounded slice of a single file, for terminal debugging of the §6 source-snippet interface",
	ArgsUsage: "<path>",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "max-bytes",
			Usage: "Maximum bytes to read",
			Value: 64 * 1024,
		},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return fmt.Errorf("snippet requires a file path argument")
		}

		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}

		result, err := snippet.Read(cfg.Project.Root, path, c.Int64("max-bytes"), cfg.Snippet)
		if err != nil {
			return fmt.Errorf("snippet failed: %w", err)
		}

		fmt.Println(result.Content)
		if result.Truncated {
			fmt.Fprintf(os.Stderr, "... truncated (%d of %d bytes shown)\n", len(result.Content), result.Size)
		}
		return nil
	},
}

var serveMCPCommand = &cli.Command{
	Name:  "serve-mcp",
	Usage: "Start the MCP server with stdio transport, exposing analyze and snippet as tools",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}

		srv := mcpserver.New(cfg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("mcp server failed: %w", err)
		}
		return nil
	},
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Action: func(c *cli.Context) error {
		fmt.Println(version.FullInfo())
		return nil
	},
}
