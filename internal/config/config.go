package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"resumechat/internal/domain"
)

// RemoteConfig holds connection details for an HTTP model server.
type RemoteConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model" validate:"required"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// APIKey reads the key from the configured environment variable.
func (r *RemoteConfig) APIKey() string {
	if r == nil || r.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(r.APIKeyEnv)
}

// Timeout returns the request timeout, 0 meaning the client default.
func (r *RemoteConfig) Timeout() time.Duration {
	if r == nil {
		return 0
	}
	return time.Duration(r.TimeoutSecs) * time.Second
}

// DocumentConfig points at the resume, a file path or an http(s) URL.
type DocumentConfig struct {
	Location string `yaml:"location"`
}

// ChunkerConfig configures how the resume is split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type" validate:"oneof=window sentence delimiter"`
	Size              int    `yaml:"size" validate:"gt=0"`
	Overlap           int    `yaml:"overlap" validate:"gte=0,ltfield=Size"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk" validate:"gt=0"`
	OverlapSentences  int    `yaml:"overlap_sentences" validate:"gte=0,ltfield=SentencesPerChunk"`
	Marker            string `yaml:"marker"`
	MinLength         int    `yaml:"min_length" validate:"gte=0"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string        `yaml:"type" validate:"oneof=tfidf openai langchain-openai ollama"`
	OpenAI      *RemoteConfig `yaml:"openai,omitempty"`
	Ollama      *RemoteConfig `yaml:"ollama,omitempty"`
	Dimension   int           `yaml:"dimension" validate:"gte=0"`
	Concurrency int           `yaml:"concurrency" validate:"gt=0"`
	CacheSize   int           `yaml:"cache_size" validate:"gte=0"`
}

// VectorStoreConfig selects the in-process vector index.
type VectorStoreConfig struct {
	Type       string `yaml:"type" validate:"oneof=memory chromem"`
	Collection string `yaml:"collection"`
}

// GeneratorConfig selects and configures the language model.
type GeneratorConfig struct {
	Type          string        `yaml:"type" validate:"oneof=ollama openai langchain-openai"`
	OpenAI        *RemoteConfig `yaml:"openai,omitempty"`
	Ollama        *RemoteConfig `yaml:"ollama,omitempty"`
	MaxTokens     int           `yaml:"max_tokens" validate:"gt=0"`
	Temperature   float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	DisableStream bool          `yaml:"disable_stream"`
	TimeoutSecs   int           `yaml:"timeout_secs" validate:"gt=0"`
}

// Timeout bounds one generation.
func (g GeneratorConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// PromptConfig names the person the assistant speaks for.
type PromptConfig struct {
	Owner string `yaml:"owner"`
}

// MemoryConfig bounds the conversation memory.
type MemoryConfig struct {
	Turns int `yaml:"turns" validate:"gt=0"`
}

// RetrievalConfig configures ranking and answer extraction.
type RetrievalConfig struct {
	TopK            int `yaml:"top_k" validate:"gt=0"`
	MinAnswerLength int `yaml:"min_answer_length" validate:"gt=0"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type" validate:"oneof=frequency none"`
	MaxSentences int    `yaml:"max_sentences" validate:"gte=0"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Pretty bool   `yaml:"pretty"`
	// File receives the log of the terminal chat, which owns the screen.
	File string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Document    DocumentConfig    `yaml:"document"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Prompt      PromptConfig      `yaml:"prompt"`
	Memory      MemoryConfig      `yaml:"memory"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/resumechat/config.yaml.
// If neither exists, it writes defaults to ~/.config/resumechat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var validate = validator.New()

// Validate checks field ranges and that the selected backends are
// configured. Every problem is reported, wrapped in domain.ErrConfiguration.
func (c *AppConfig) Validate() error {
	var problems []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}
	if remote(c.Embedder.Type, c.Embedder.OpenAI, c.Embedder.Ollama) == nil && c.Embedder.Type != "tfidf" {
		problems = append(problems, fmt.Sprintf("embedder %q has no connection settings", c.Embedder.Type))
	}
	if remote(c.Generator.Type, c.Generator.OpenAI, c.Generator.Ollama) == nil {
		problems = append(problems, fmt.Sprintf("generator %q has no connection settings", c.Generator.Type))
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(problems, "; "))
}

// EmbedderRemote returns the connection settings of the selected embedder.
func (c *AppConfig) EmbedderRemote() *RemoteConfig {
	return remote(c.Embedder.Type, c.Embedder.OpenAI, c.Embedder.Ollama)
}

// GeneratorRemote returns the connection settings of the selected generator.
func (c *AppConfig) GeneratorRemote() *RemoteConfig {
	return remote(c.Generator.Type, c.Generator.OpenAI, c.Generator.Ollama)
}

func remote(typ string, openai, ollama *RemoteConfig) *RemoteConfig {
	switch typ {
	case "openai", "langchain-openai":
		return openai
	case "ollama":
		return ollama
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "AppConfig.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s validation failed on '%s' tag", field, fe.Tag())
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "resumechat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Document: DocumentConfig{Location: "resume.txt"},
		Chunker: ChunkerConfig{
			Type: "window", Size: 400, Overlap: 50,
			SentencesPerChunk: 5, OverlapSentences: 1,
			Marker: "[Chunk]", MinLength: 11,
		},
		Embedder:    EmbedderConfig{Type: "tfidf", Concurrency: 4, CacheSize: 256},
		VectorStore: VectorStoreConfig{Type: "memory", Collection: "resume"},
		Generator: GeneratorConfig{
			Type:        "ollama",
			Ollama:      &RemoteConfig{BaseURL: "http://localhost:11434", Model: "phi3", TimeoutSecs: 30},
			MaxTokens:   250,
			Temperature: 0.2,
			TimeoutSecs: 60,
		},
		Memory:     MemoryConfig{Turns: 3},
		Retrieval:  RetrievalConfig{TopK: 3, MinAnswerLength: 2},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 2},
		Server:     ServerConfig{Addr: ":8080", AllowedOrigins: []string{"*"}},
		Log:        LogConfig{Level: "info", Pretty: true},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	d := defaultConfig()
	if cfg.Document.Location == "" {
		cfg.Document.Location = d.Document.Location
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = d.Chunker.Type
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = d.Chunker.Size
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = d.Chunker.SentencesPerChunk
	}
	if cfg.Chunker.Marker == "" {
		cfg.Chunker.Marker = d.Chunker.Marker
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = d.Embedder.Type
	}
	if cfg.Embedder.Concurrency == 0 {
		cfg.Embedder.Concurrency = d.Embedder.Concurrency
	}
	applyRemoteDefaults(cfg.Embedder.OpenAI, "https://api.openai.com/v1", "text-embedding-3-small")
	applyRemoteDefaults(cfg.Embedder.Ollama, "http://localhost:11434", "nomic-embed-text")
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = d.VectorStore.Type
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = d.VectorStore.Collection
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = d.Generator.Type
	}
	if cfg.Generator.Type == "ollama" && cfg.Generator.Ollama == nil {
		cfg.Generator.Ollama = &RemoteConfig{}
	}
	applyRemoteDefaults(cfg.Generator.OpenAI, "https://api.openai.com/v1", "gpt-4o-mini")
	applyRemoteDefaults(cfg.Generator.Ollama, "http://localhost:11434", "phi3")
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = d.Generator.MaxTokens
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = d.Generator.Temperature
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = d.Generator.TimeoutSecs
	}
	if cfg.Memory.Turns == 0 {
		cfg.Memory.Turns = d.Memory.Turns
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = d.Retrieval.TopK
	}
	if cfg.Retrieval.MinAnswerLength == 0 {
		cfg.Retrieval.MinAnswerLength = d.Retrieval.MinAnswerLength
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = d.Summarizer.Type
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = d.Server.AllowedOrigins
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
}

func applyRemoteDefaults(r *RemoteConfig, baseURL, model string) {
	if r == nil {
		return
	}
	if r.BaseURL == "" {
		r.BaseURL = baseURL
	}
	if r.Model == "" {
		r.Model = model
	}
	if r.APIKeyEnv == "" && strings.Contains(baseURL, "openai.com") {
		r.APIKeyEnv = "OPENAI_API_KEY"
	}
	if r.TimeoutSecs == 0 {
		r.TimeoutSecs = 30
	}
}

// applyEnvOverrides lets a .env file or the environment point the session
// at another resume or owner without editing the YAML.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("RESUMECHAT_DOCUMENT"); v != "" {
		cfg.Document.Location = v
	}
	if v := os.Getenv("RESUMECHAT_OWNER"); v != "" {
		cfg.Prompt.Owner = v
	}
	if v := os.Getenv("RESUMECHAT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
}
