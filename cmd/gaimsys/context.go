package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/seonjhang/gAIm-Systems/internal/archive"
	"github.com/seonjhang/gAIm-Systems/internal/attribute"
	"github.com/seonjhang/gAIm-Systems/internal/config"
	"github.com/seonjhang/gAIm-Systems/internal/labeled"
	"github.com/seonjhang/gAIm-Systems/internal/question"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/embeddings"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
)

// commandContext carries the configuration and provider state shared by all
// commands. Everything is initialised lazily so `gaimsys parse` never dials
// an LLM backend.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	registryOnce sync.Once
	registry     *config.Registry
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration exactly once. Without --config the
// built-in defaults apply; they configure no providers, so attribution runs
// heuristic-only.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			c.config = config.Default()
			return
		}
		cfg, err := config.Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				err = fmt.Errorf("config file %q not found; copy configs/example.yaml to get started", path)
			}
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureRegistry() *config.Registry {
	c.registryOnce.Do(func() {
		c.registry = config.NewRegistry()
		registerBuiltinProviders(c.registry)
	})
	return c.registry
}

// llmProvider builds the configured classification provider. No configured
// name, or a name without a registered factory, yields a nil provider so the
// caller degrades to the heuristic pipeline.
func (c *commandContext) llmProvider() (llm.Provider, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	entry := cfg.Providers.LLM
	if entry.Name == "" {
		return nil, nil
	}
	p, err := c.ensureRegistry().CreateLLM(entry)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("llm provider not registered, classification degrades to heuristics", "name", entry.Name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", entry.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", entry.Name, "model", entry.Model)
	return p, nil
}

// embeddingsProvider builds the configured embeddings provider, nil when
// none is configured.
func (c *commandContext) embeddingsProvider() (embeddings.Provider, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	entry := cfg.Providers.Embeddings
	if entry.Name == "" {
		return nil, nil
	}
	p, err := c.ensureRegistry().CreateEmbeddings(entry)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("embeddings provider not registered, skipping", "name", entry.Name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create embeddings provider %q: %w", entry.Name, err)
	}
	slog.Info("provider created", "kind", "embeddings", "name", entry.Name, "model", entry.Model)
	return p, nil
}

// newExtractor assembles the full attribution pipeline (detector, inclusion
// rules, classifier, consolidator) from the configuration.
func (c *commandContext) newExtractor() (*attribute.Extractor, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	provider, err := c.llmProvider()
	if err != nil {
		return nil, err
	}

	detector := question.NewDetector(cfg.Questions.Tables())
	rules := attribute.NewInclusionRules(cfg.Inclusion.Lexicon())

	copts := []attribute.ClassifierOption{
		attribute.WithDetector(detector),
		attribute.WithRules(rules),
		attribute.WithWindowSize(cfg.Attribution.WindowSize),
		attribute.WithOverlap(cfg.Attribution.Overlap),
		attribute.WithSingleWindowLimit(cfg.Attribution.SingleWindowMax),
		attribute.WithContextSegments(cfg.Attribution.ContextSegments),
		attribute.WithTemperature(cfg.Attribution.Temperature),
		attribute.WithMaxTokens(cfg.Attribution.MaxTokens),
		attribute.WithRequestTimeout(time.Duration(cfg.Attribution.RequestTimeout)),
	}
	var eopts []attribute.ExtractorOption
	if provider != nil {
		copts = append(copts,
			attribute.WithProvider(provider),
			attribute.WithProviderName(cfg.Providers.LLM.Name),
		)
		eopts = append(eopts, attribute.WithModelLabel(cfg.Providers.LLM.Model))
	}

	consolidator := attribute.NewConsolidator(
		attribute.WithAdjacencyThreshold(cfg.Consolidation.AdjacencyThreshold),
		attribute.WithRescueBounds(cfg.Consolidation.RescueBefore, cfg.Consolidation.RescueAfter),
		attribute.WithConsolidatorDetector(detector),
		attribute.WithConsolidatorRules(rules),
	)

	return attribute.NewExtractor(attribute.NewClassifier(copts...), consolidator, eopts...), nil
}

// newParser assembles the labeled-transcript parser from the configuration.
func (c *commandContext) newParser() (*labeled.Parser, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return labeled.New(labeled.Config{
		Detector:           question.NewDetector(cfg.Questions.Tables()),
		FooterCues:         cfg.Parser.FooterCues,
		ConnectiveWords:    cfg.Parser.ConnectiveWords,
		MetadataPrefixMin:  cfg.Parser.MetadataPrefixMin,
		MetadataContentMax: cfg.Parser.MetadataContentMax,
		TitleWordsMax:      cfg.Parser.TitleWordsMax,
		NameSimilarity:     cfg.Parser.NameSimilarity,
	}), nil
}

// openArchive connects to the configured Postgres archive. It is an error to
// call it without a DSN; commands that can work without the archive check
// the configuration first.
func (c *commandContext) openArchive(ctx context.Context) (*archive.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Archive.PostgresDSN == "" {
		return nil, errors.New("archive.postgres_dsn is not configured")
	}
	return archive.NewStore(ctx, cfg.Archive.PostgresDSN, cfg.Archive.EmbeddingDimensions)
}

// dataDir resolves the artifact directory: the --data-dir flag when set,
// the configured collect.data_dir otherwise.
func (c *commandContext) dataDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Collect.DataDir, nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
