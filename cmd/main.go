package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/fundsight/ragengine/internal/types"
	"github.com/fundsight/ragengine/pkg/chunker"
	cfgPkg "github.com/fundsight/ragengine/pkg/config"
	"github.com/fundsight/ragengine/pkg/engine"
	"github.com/fundsight/ragengine/pkg/llm"
	"github.com/fundsight/ragengine/pkg/logger"
	"github.com/fundsight/ragengine/pkg/session"
	"github.com/fundsight/ragengine/pkg/staging"
	"github.com/fundsight/ragengine/pkg/store"
	"github.com/fundsight/ragengine/server"
)

type options struct {
	configPath string
	serve      bool
	memory     bool
	noRAG      bool
	port       string
	logMode    string
	files      []string
}

func main() {
	opts := parseFlags()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "Path to config file")
	flag.BoolVar(&opts.serve, "serve", false, "Run the HTTP API server instead of the chat loop")
	flag.BoolVar(&opts.memory, "memory", false, "Use the in-memory index instead of PostgreSQL")
	flag.BoolVar(&opts.noRAG, "no-rag", false, "Chat without document retrieval")
	flag.StringVar(&opts.port, "port", "", "HTTP port (overrides config)")
	flag.StringVar(&opts.logMode, "log", "production", "Log mode: production or development")
	flag.Parse()

	opts.files = flag.Args()
	return opts
}

func run(opts options) error {
	// .env is optional; real env vars still win inside LoadConfig.
	_ = godotenv.Load()

	config, err := cfgPkg.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.port != "" {
		config.Server.Port = opts.port
	}

	// Memory mode has no database requirement; the LLM constructors still
	// enforce the API key.
	if !opts.memory {
		if err := config.Validate(); err != nil {
			return err
		}
	}

	zl, err := logger.New(opts.logMode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		APIKey:    config.LLM.APIKey,
		Model:     config.LLM.EmbeddingModel,
		Timeout:   time.Duration(config.LLM.TimeoutSeconds) * time.Second,
		RateLimit: config.LLM.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		APIKey:      config.LLM.APIKey,
		Model:       config.LLM.Model,
		Temperature: config.LLM.Temperature,
		MaxTokens:   config.LLM.MaxTokens,
		Timeout:     time.Duration(config.LLM.TimeoutSeconds) * time.Second,
		RateLimit:   config.LLM.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	var vectorIndex types.VectorIndex
	if opts.memory {
		vectorIndex = store.NewMemory(embedder)
	} else {
		vs, err := store.NewWithConfig(store.VectorStoreConfig{
			ConnString: config.Database.URL,
			TableName:  config.Database.TableName,
			VectorDim:  config.Database.VectorDim,
		}, embedder)
		if err != nil {
			return fmt.Errorf("failed to initialize vector store: %v", err)
		}
		defer vs.Close()
		vectorIndex = vs
	}

	sessions := session.NewStore(session.StoreConfig{
		MaxSessions: config.Sessions.MaxSessions,
		TTL:         time.Duration(config.Sessions.TTLMinutes) * time.Minute,
	})

	stagingDir, err := staging.New(config.Server.UploadsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize uploads dir: %v", err)
	}

	eng := engine.New(engine.EngineConfig{},
		vectorIndex,
		chatEngine,
		chunker.NewWithConfig(chunker.ChunkerConfig{
			ChunkSize:    config.Chunker.ChunkSize,
			ChunkOverlap: config.Chunker.ChunkOverlap,
		}),
		sessions,
		stagingDir,
		zl,
	)

	ctx := context.Background()

	if len(opts.files) > 0 {
		if err := ingestFiles(ctx, eng, opts.files); err != nil {
			return err
		}
	}

	if opts.serve {
		return server.New(eng, zl).Run(config.Server.Port)
	}

	return chatLoop(ctx, eng, !opts.noRAG)
}

func ingestFiles(ctx context.Context, eng *engine.Engine, files []string) error {
	color.Blue("\nIngesting %d file(s)\n", len(files))

	bar := getProgressBar(len(files), "Processing documents...")
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %v", path, err)
		}

		result, err := eng.Upload(ctx, filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("failed to process %s: %v", path, err)
		}
		bar.Add(1)
		bar.Describe(color.BlueString("Processing documents... (%d chunks from %s)",
			result.ChunksCreated, filepath.Base(path)))
	}
	bar.Finish()
	color.Green("\nIngestion complete\n")
	return nil
}

func chatLoop(ctx context.Context, eng *engine.Engine, useRAG bool) error {
	color.Cyan("\nChat with your knowledge base (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()
	sourceNote := color.New(color.Faint).PrintfFunc()

	sessionID := ""

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}

		spinner := getSpinner("Generating response...")
		result, err := eng.Chat(ctx, query, sessionID, useRAG)
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		sessionID = result.SessionID

		assistantPrompt("Assistant: %s\n", result.Response)
		for _, src := range result.Sources {
			if src.Page != nil {
				sourceNote("  [%s p.%d, relevance %.2f]\n", src.SourceName, *src.Page, src.RelevanceScore)
			} else {
				sourceNote("  [%s, relevance %.2f]\n", src.SourceName, src.RelevanceScore)
			}
		}
	}

	return nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
