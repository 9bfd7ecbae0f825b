// Command graphrag is the entrypoint for running and querying a
// graph-based retrieval-augmented generation index (spec.md §6's CLI
// contract). It loads config, builds the dependency-injection container,
// and dispatches to the requested subcommand; the core package never
// parses flags itself, matching spec.md §6's "the core consumes the
// fully-resolved config and paths, never the CLI parser".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/dig"

	"github.com/rinarakaki/graphrag/internal/chunking"
	"github.com/rinarakaki/graphrag/internal/concurrency"
	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/container"
	"github.com/rinarakaki/graphrag/internal/embed"
	"github.com/rinarakaki/graphrag/internal/extract"
	"github.com/rinarakaki/graphrag/internal/input"
	"github.com/rinarakaki/graphrag/internal/logger"
	"github.com/rinarakaki/graphrag/internal/runtime"
	"github.com/rinarakaki/graphrag/internal/search"
	"github.com/rinarakaki/graphrag/internal/summarize"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
	"github.com/rinarakaki/graphrag/internal/workflow"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: graphrag <init|index|update|query|serve> [flags]")
		return 1
	}

	ctx := context.Background()
	subcommand, rest := args[0], args[1:]

	switch subcommand {
	case "init":
		return runInit(rest)
	case "index":
		return runIndex(ctx, rest, false)
	case "update":
		return runIndex(ctx, rest, true)
	case "query":
		return runQuery(ctx, rest)
	case "serve":
		return runServe(ctx, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", subcommand)
		return 1
	}
}

func loadAndBuild() (*config.Config, *dig.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	c, err := container.Build(runtime.GetContainer(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}

func runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	dir := fs.String("root", ".", "project root to scaffold")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	path := *dir + "/config.yaml"
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "%s already exists\n", path)
		return 1
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("wrote %s\n", path)
	return 0
}

// runIndex drives one indexing pass: load input, build the workflow
// stages over every loaded document, and run them in order. For update it
// goes through Runner.RunIncremental (spec.md §4.12), which skips the run
// when no loaded document is new to the prior documents table; otherwise
// the stages still process every loaded document, and no snapshot or
// merge function is passed.
func runIndex(ctx context.Context, args []string, incremental bool) int {
	cfg, c, err := loadAndBuild()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var exitCode int
	invokeErr := c.Invoke(func(
		runner *workflow.Runner,
		tokenizer chunking.Tokenizer,
		pool *concurrency.Pool,
		extractor *extract.Extractor,
		summarizer *summarize.Summarizer,
		clusterer interfaces.Clusterer,
		reporter interfaces.CommunityReporter,
		embedder *embed.Embedder,
	) error {
		docs, err := input.Load(cfg.Input)
		if err != nil {
			logger.Errorf(ctx, "loading input: %v", err)
			exitCode = 1
			return nil
		}

		deps := workflow.IndexDeps{
			Documents:  docs,
			Extractor:  extractor,
			Summarizer: summarizer,
			Clusterer:  clusterer,
			Reporter:   reporter,
			Embedder:   embedder,
			Tokenizer:  tokenizer,
			Pool:       pool,
		}
		stages := workflow.BuildIndexWorkflows(deps)

		var results []types.PipelineRunResult
		if incremental {
			results, err = runner.RunIncremental(ctx, cfg, docs, stages, nil, nil)
		} else {
			results, err = runner.Run(ctx, cfg, stages)
		}
		if err != nil {
			logger.Errorf(ctx, "pipeline run failed: %v", err)
			exitCode = 1
			return nil
		}
		for _, r := range results {
			if len(r.Errors) > 0 {
				exitCode = 1
			}
		}
		return nil
	})
	if invokeErr != nil {
		fmt.Fprintln(os.Stderr, invokeErr)
		return 1
	}
	return exitCode
}

func runQuery(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	method := fs.String("method", "basic", "basic|local|global|drift")
	q := fs.String("query", "", "query text")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *q == "" {
		fmt.Fprintln(os.Stderr, "query: -query is required")
		return 1
	}

	cfg, c, err := loadAndBuild()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var result types.SearchResult
	invokeErr := c.Invoke(func(engine *search.Engine, storage interfaces.TableStorage) error {
		result, err = answer(ctx, engine, storage, cfg, *method, *q)
		return err
	})
	if invokeErr != nil {
		fmt.Fprintln(os.Stderr, invokeErr)
		return 1
	}
	fmt.Println(result.Response)
	return 0
}

func runServe(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "listen address")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, c, err := loadAndBuild()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(ginCtx *gin.Context) { ginCtx.JSON(200, gin.H{"status": "ok"}) })
	router.POST("/query", func(ginCtx *gin.Context) {
		var body struct {
			Method string `json:"method"`
			Query  string `json:"query"`
		}
		if err := ginCtx.BindJSON(&body); err != nil {
			ginCtx.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var result types.SearchResult
		invokeErr := c.Invoke(func(engine *search.Engine, storage interfaces.TableStorage) error {
			var err error
			result, err = answer(ctx, engine, storage, cfg, body.Method, body.Query)
			return err
		})
		if invokeErr != nil {
			ginCtx.JSON(500, gin.H{"error": invokeErr.Error()})
			return
		}
		ginCtx.JSON(200, result)
	})

	fmt.Printf("listening on %s\n", *addr)
	if err := router.Run(*addr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

const defaultConfigYAML = `root_dir: .
default_chat_model: default_chat
default_embed_model: default_embed
models:
  - name: default_chat
    type: chat
    source: remote
    modelname: gpt-4o-mini
  - name: default_embed
    type: embedding
    source: remote
    modelname: text-embedding-3-small
input:
  type: file
  base_path: ./input
  file_pattern: "*.txt"
output:
  type: file
  base_dir: ./output
cache:
  type: file
  base_dir: ./cache
chunks:
  size: 1200
  overlap: 100
  strategy: tokens
`
