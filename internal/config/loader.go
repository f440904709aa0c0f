package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seonjhang/gAIm-Systems/internal/attribute"
	"github.com/seonjhang/gAIm-Systems/internal/collect"
	"github.com/seonjhang/gAIm-Systems/internal/discovery"
	"github.com/seonjhang/gAIm-Systems/internal/labeled"
	"github.com/seonjhang/gAIm-Systems/internal/lexicon"
	"github.com/seonjhang/gAIm-Systems/internal/question"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":        {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"embeddings": {"openai", "ollama"},
}

// Default returns a fully populated configuration carrying every built-in
// value: the word tables, the heuristic constants, and the discovery query
// battery. Loading a file starts from this and overrides only the keys the
// file mentions.
func Default() *Config {
	questions := question.DefaultTables()
	inclusion := attribute.DefaultLexicon()
	return &Config{
		Server: ServerConfig{
			LogLevel: LogInfo,
		},
		Attribution: AttributionConfig{
			WindowSize:      attribute.DefaultWindowSize,
			Overlap:         attribute.DefaultOverlap,
			SingleWindowMax: attribute.DefaultSingleWindowLimit,
			ContextSegments: attribute.DefaultContextSegments,
			Temperature:     attribute.DefaultTemperature,
			RequestTimeout:  Duration(attribute.DefaultRequestTimeout),
		},
		Consolidation: ConsolidationConfig{
			AdjacencyThreshold: attribute.DefaultAdjacencyThreshold,
			RescueBefore:       attribute.DefaultRescueBefore,
			RescueAfter:        attribute.DefaultRescueAfter,
		},
		Questions: QuestionConfig{
			Openers:         questions.Openers,
			ContainsMarkers: questions.Contains,
			CoreOpeners:     questions.CoreOpeners,
			MaxOpenerWords:  questions.MaxOpenerWords,
		},
		Inclusion: InclusionConfig{
			ShortAcknowledgements: inclusion.ShortAcknowledgements,
			FirstPersonMarkers:    inclusion.FirstPersonMarkers,
			ContinuationPhrases:   inclusion.ContinuationPhrases,
			IntrospectiveTerms:    inclusion.IntrospectiveTerms,
		},
		Parser: ParserConfig{
			FooterCues:         labeled.DefaultFooterCues(),
			ConnectiveWords:    labeled.DefaultConnectiveWords(),
			MetadataPrefixMin:  labeled.DefaultMetadataPrefixMin,
			MetadataContentMax: labeled.DefaultMetadataContentMax,
			TitleWordsMax:      labeled.DefaultTitleWordsMax,
			NameSimilarity:     labeled.DefaultNameSimilarity,
		},
		Discovery: DiscoveryConfig{
			QueryTemplates: discovery.DefaultQueryTemplates(),
			MaxPerQuery:    discovery.DefaultMaxPerQuery,
		},
		Collect: CollectConfig{
			DataDir:       collect.DefaultDataDir,
			TopInterviews: collect.DefaultTopInterviews,
			WorkerLimit:   collect.DefaultWorkerLimit,
		},
		Archive: ArchiveConfig{
			EmbeddingDimensions: 1536,
		},
		Lexicon: LexiconConfig{
			Categories: lexicon.DefaultCategories(),
		},
	}
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over [Default] values and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation, warnings only.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; segment classification will fall back to heuristics")
	}

	// Attribution
	attr := cfg.Attribution
	if attr.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("attribution.window_size %d must be positive", attr.WindowSize))
	}
	if attr.Overlap < 0 {
		errs = append(errs, fmt.Errorf("attribution.overlap %d must not be negative", attr.Overlap))
	}
	if attr.WindowSize > 0 && attr.Overlap >= attr.WindowSize {
		errs = append(errs, fmt.Errorf("attribution.overlap %d must be smaller than window_size %d", attr.Overlap, attr.WindowSize))
	}
	if attr.SingleWindowMax < 0 {
		errs = append(errs, fmt.Errorf("attribution.single_window_max %d must not be negative", attr.SingleWindowMax))
	}
	if attr.ContextSegments < 0 {
		errs = append(errs, fmt.Errorf("attribution.context_segments %d must not be negative", attr.ContextSegments))
	}
	if attr.Temperature < 0 || attr.Temperature > 2 {
		errs = append(errs, fmt.Errorf("attribution.temperature %.2f is out of range [0, 2]", attr.Temperature))
	}
	if attr.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("attribution.max_tokens %d must not be negative", attr.MaxTokens))
	}
	if attr.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("attribution.request_timeout must not be negative"))
	}

	// Consolidation
	cons := cfg.Consolidation
	if cons.AdjacencyThreshold <= 0 {
		errs = append(errs, fmt.Errorf("consolidation.adjacency_threshold %d must be positive", cons.AdjacencyThreshold))
	}
	if cons.RescueBefore < 0 {
		errs = append(errs, fmt.Errorf("consolidation.rescue_before %d must not be negative", cons.RescueBefore))
	}
	if cons.RescueAfter < 0 {
		errs = append(errs, fmt.Errorf("consolidation.rescue_after %d must not be negative", cons.RescueAfter))
	}

	// Questions
	if cfg.Questions.MaxOpenerWords < 0 {
		errs = append(errs, fmt.Errorf("questions.max_opener_words %d must not be negative", cfg.Questions.MaxOpenerWords))
	}

	// Parser
	if s := cfg.Parser.NameSimilarity; s <= 0 || s > 1 {
		errs = append(errs, fmt.Errorf("parser.name_similarity %.2f is out of range (0, 1]", s))
	}

	// Discovery
	for i, tmpl := range cfg.Discovery.QueryTemplates {
		if strings.Count(tmpl, "%s") != 1 {
			errs = append(errs, fmt.Errorf("discovery.query_templates[%d] %q must contain exactly one %%s", i, tmpl))
		}
	}
	if cfg.Discovery.MaxPerQuery <= 0 {
		errs = append(errs, fmt.Errorf("discovery.max_per_query %d must be positive", cfg.Discovery.MaxPerQuery))
	}

	// Collect
	if cfg.Collect.DataDir == "" {
		errs = append(errs, errors.New("collect.data_dir is required"))
	}
	if cfg.Collect.TopInterviews <= 0 {
		errs = append(errs, fmt.Errorf("collect.top_interviews %d must be positive", cfg.Collect.TopInterviews))
	}
	if cfg.Collect.WorkerLimit <= 0 {
		errs = append(errs, fmt.Errorf("collect.worker_limit %d must be positive", cfg.Collect.WorkerLimit))
	}
	if cfg.Collect.RecordToArchive && cfg.Archive.PostgresDSN == "" {
		errs = append(errs, errors.New("collect.record_to_archive requires archive.postgres_dsn"))
	}

	// Archive
	if cfg.Providers.Embeddings.Name != "" && cfg.Archive.EmbeddingDimensions <= 0 {
		errs = append(errs, fmt.Errorf("archive.embedding_dimensions %d must be positive when providers.embeddings is configured", cfg.Archive.EmbeddingDimensions))
	}

	// Lexicon
	for name, words := range cfg.Lexicon.Categories {
		if name == "" {
			errs = append(errs, errors.New("lexicon.categories contains an empty category name"))
		}
		if len(words) == 0 {
			errs = append(errs, fmt.Errorf("lexicon.categories[%q] has no words", name))
		}
	}

	return errors.Join(errs...)
}

// Tables converts the question word lists into detector tables.
func (q QuestionConfig) Tables() question.Tables {
	return question.Tables{
		Openers:        q.Openers,
		Contains:       q.ContainsMarkers,
		CoreOpeners:    q.CoreOpeners,
		MaxOpenerWords: q.MaxOpenerWords,
	}
}

// Lexicon converts the inclusion word lists into classifier rules input.
func (i InclusionConfig) Lexicon() attribute.Lexicon {
	return attribute.Lexicon{
		ShortAcknowledgements: i.ShortAcknowledgements,
		FirstPersonMarkers:    i.FirstPersonMarkers,
		ContinuationPhrases:   i.ContinuationPhrases,
		IntrospectiveTerms:    i.IntrospectiveTerms,
	}
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
