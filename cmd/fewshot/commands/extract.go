package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fewshotlabs/fewshot/internal/logger"
	"github.com/fewshotlabs/fewshot/internal/output"
	"github.com/fewshotlabs/fewshot/pkg/feed"
	"github.com/fewshotlabs/fewshot/pkg/fewshot"
	"github.com/fewshotlabs/fewshot/pkg/llm"
)

// wrappedResult wraps an extracted entity with call metadata.
type wrappedResult struct {
	Metadata resultMetadata `json:"_metadata" yaml:"_metadata"`
	Input    string         `json:"input" yaml:"input"`
	Entity   string         `json:"entity" yaml:"entity"`
}

type resultMetadata struct {
	Task          string `json:"task,omitempty" yaml:"task,omitempty"`
	Provider      string `json:"provider" yaml:"provider"`
	Model         string `json:"model" yaml:"model"`
	PromptSize    int    `json:"prompt_size" yaml:"prompt_size"`
	InputTokens   int    `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens  int    `json:"output_tokens" yaml:"output_tokens"`
	LLMDurationMs int64  `json:"llm_duration_ms" yaml:"llm_duration_ms"`
}

// plainResult is the record emitted without metadata.
type plainResult struct {
	Input  string `json:"input" yaml:"input"`
	Entity string `json:"entity" yaml:"entity"`
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract entities from text snippets",
	Long: `Extract named entities from text using a few-shot prompt.

The task file defines the extraction: a description, a label template,
and worked (text, label) examples. Query text comes from --text flags,
stdin (one snippet per line), or a public JSON feed.

Examples:
  # Literal snippets
  fewshot extract -t movies.yaml --text "a wizard boy goes to magic school"

  # One snippet per stdin line
  cat posts.txt | fewshot extract -t movies.yaml --stdin

  # Titles from a public content feed
  fewshot extract -t movies.yaml \
      --feed-url "https://api.example.com/posts" \
      --feed-param subreddit=movies --feed-limit 10`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()

	// Task and inputs
	flags.StringP("task", "t", "", "path to task file (required)")
	flags.StringSlice("text", nil, "text snippet to extract from (can be repeated)")
	flags.Bool("stdin", false, "read snippets from stdin, one per line")

	// Feed source
	flags.String("feed-url", "", "public JSON feed URL to pull query text from")
	flags.StringSlice("feed-param", nil, "feed query parameter as key=value (can be repeated)")
	flags.String("feed-items-key", "data", "payload key holding the feed item list")
	flags.Int("feed-limit", 0, "max feed items to process (0=all)")

	// LLM settings
	flags.StringP("provider", "p", "", "completion provider: cohere, anthropic, openai, ollama (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")
	flags.Duration("timeout", 60*time.Second, "completion request timeout")

	// Generation settings
	flags.Int("max-tokens", 10, "max output tokens per extraction")
	flags.Float64("temperature", 0.25, "sampling temperature")
	flags.String("stop", "\n", "generation stop sequence")
	flags.String("max-text-size", "4KB", "max input snippet size (e.g., 4KB, 1MB, 0=unlimited)")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml")
	flags.Bool("include-metadata", true, "wrap output with _metadata (use --include-metadata=false to disable)")

	_ = extractCmd.MarkFlagRequired("task")

	// Bind to viper
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load task
	taskPath, _ := cmd.Flags().GetString("task")
	logger.Debug("loading task", "path", taskPath)
	task, err := fewshot.TaskFromFile(taskPath)
	if err != nil {
		logger.Error("failed to load task", "error", err)
		return err
	}
	logger.Debug("task loaded", "name", task.Name, "exemplars", len(task.Exemplars))

	// Max snippet size (0 or empty means unlimited)
	maxTextSizeStr, _ := cmd.Flags().GetString("max-text-size")
	var maxTextSize int
	if strings.TrimSpace(maxTextSizeStr) != "" && maxTextSizeStr != "0" {
		bytes, err := humanize.ParseBytes(maxTextSizeStr)
		if err != nil {
			logger.Error("invalid max-text-size", "value", maxTextSizeStr, "error", err)
			return err
		}
		maxTextSize = int(bytes)
	}

	// Gather inputs
	inputs, err := gatherInputs(ctx, cmd)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return cmd.Help()
	}
	inputs = capInputs(inputs, maxTextSize)
	logger.Debug("inputs gathered", "count", len(inputs))

	// Build provider
	provider, err := buildProvider(cmd)
	if err != nil {
		logger.Error("failed to create provider", "error", err)
		return err
	}
	logger.Debug("provider ready", "provider", provider.Name(), "model", provider.Model())

	// Build extractor
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	stop, _ := cmd.Flags().GetString("stop")

	ext, err := fewshot.New(provider, task,
		fewshot.WithMaxTokens(maxTokens),
		fewshot.WithTemperature(temperature),
		fewshot.WithStopSequence(stop),
	)
	if err != nil {
		logger.Error("failed to create extractor", "error", err)
		return err
	}

	// Setup output
	outFile := os.Stdout
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		outFile = f
	}

	formatStr, _ := cmd.Flags().GetString("format")
	writer, err := output.NewWriter(outFile, output.Format(formatStr))
	if err != nil {
		logger.Error("failed to create output writer", "format", formatStr, "error", err)
		return err
	}
	defer func() { _ = writer.Close() }()

	includeMetadata, _ := cmd.Flags().GetBool("include-metadata")

	logger.Info("starting extraction",
		"task", task.Name,
		"inputs", len(inputs),
		"provider", provider.Name())

	// One snippet at a time, results in input order.
	count := 0
	errorCount := 0
	for _, input := range inputs {
		if ctx.Err() != nil {
			break
		}

		result, err := ext.Extract(ctx, input)
		if err != nil {
			logger.Error("extraction failed", "input", input, "error", err)
			errorCount++
			continue
		}

		var record any
		if includeMetadata {
			record = wrappedResult{
				Metadata: resultMetadata{
					Task:          task.Name,
					Provider:      result.Provider,
					Model:         result.Model,
					PromptSize:    result.PromptSize,
					InputTokens:   result.Usage.InputTokens,
					OutputTokens:  result.Usage.OutputTokens,
					LLMDurationMs: result.Duration.Milliseconds(),
				},
				Input:  result.Input,
				Entity: result.Entity,
			}
		} else {
			record = plainResult{Input: result.Input, Entity: result.Entity}
		}

		if err := writer.Write(record); err != nil {
			logger.Error("failed to write output", "error", err)
			return err
		}
		count++
	}

	logger.Info("extraction complete", "extracted", count, "errors", errorCount)
	return nil
}

// gatherInputs collects query snippets from --text flags, stdin, and the feed.
func gatherInputs(ctx context.Context, cmd *cobra.Command) ([]string, error) {
	inputs, _ := cmd.Flags().GetStringSlice("text")

	if useStdin, _ := cmd.Flags().GetBool("stdin"); useStdin {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	feedURL, _ := cmd.Flags().GetString("feed-url")
	if feedURL != "" {
		titles, err := fetchFeedTitles(ctx, cmd, feedURL)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, titles...)
	}

	return inputs, nil
}

// fetchFeedTitles pulls item titles from the configured public feed.
func fetchFeedTitles(ctx context.Context, cmd *cobra.Command, feedURL string) ([]string, error) {
	itemsKey, _ := cmd.Flags().GetString("feed-items-key")
	limit, _ := cmd.Flags().GetInt("feed-limit")
	paramPairs, _ := cmd.Flags().GetStringSlice("feed-param")

	params := make(map[string]string, len(paramPairs))
	for _, pair := range paramPairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid feed-param %q (expected key=value)", pair)
		}
		params[key] = value
	}

	source, err := feed.NewJSONFeed(feed.Config{
		BaseURL:   feedURL,
		ItemsKey:  itemsKey,
		UserAgent: "fewshot-cli",
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("fetching feed", "url", feedURL, "params", params)
	items, err := source.Fetch(ctx, params)
	if err != nil {
		logger.Error("feed fetch failed", "error", err)
		return nil, err
	}
	logger.Debug("feed fetched", "items", len(items))

	titles := feed.Titles(items)
	if limit > 0 && len(titles) > limit {
		titles = titles[:limit]
	}
	return titles, nil
}

// capInputs truncates each snippet to at most maxSize bytes, backing off to
// a rune boundary so no multi-byte character is split. 0 means unlimited.
func capInputs(inputs []string, maxSize int) []string {
	if maxSize <= 0 {
		return inputs
	}
	capped := make([]string, len(inputs))
	for i, input := range inputs {
		if len(input) > maxSize {
			cut := maxSize
			for cut > 0 && !utf8.RuneStart(input[cut]) {
				cut--
			}
			logger.Warn("input truncated due to length",
				"original_bytes", len(input),
				"max_bytes", maxSize)
			input = input[:cut]
		}
		capped[i] = input
	}
	return capped
}

// buildProvider resolves provider selection from flags, config, and env.
func buildProvider(cmd *cobra.Command) (llm.Provider, error) {
	name := viper.GetString("provider")
	apiKey := viper.GetString("api_key")

	if name == "" {
		detected, detectedKey := llm.DetectProvider()
		name = detected
		if apiKey == "" {
			apiKey = detectedKey
		}
		logger.Debug("auto-detected provider", "provider", name)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg := llm.DefaultProviderConfig()
	cfg.APIKey = apiKey
	cfg.BaseURL = viper.GetString("base_url")
	cfg.Model = viper.GetString("model")
	if timeout > 0 {
		cfg.Timeout = timeout
	}

	return llm.NewProvider(name, cfg)
}
