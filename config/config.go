package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the newschat service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Session   SessionConfig   `mapstructure:"session"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Qdrant    QdrantConfig    `mapstructure:"qdrant"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Listen      string `mapstructure:"listen"`
	Debug       bool   `mapstructure:"debug"`
	DefaultTopK int    `mapstructure:"default_top_k"`
}

// SessionConfig contains the Redis transcript store settings
type SessionConfig struct {
	Host    string        `mapstructure:"host"`
	Port    string        `mapstructure:"port"`
	Pass    string        `mapstructure:"pass"`
	DB      int           `mapstructure:"db"`
	Timeout time.Duration `mapstructure:"timeout"`
	TTL     time.Duration `mapstructure:"ttl"`
}

func (s SessionConfig) Validate() error {
	if s.Host == "" || s.Port == "" {
		return fmt.Errorf("session redis not configured (session.host/port)")
	}
	return nil
}

// Addr returns the host:port pair for the Redis client.
func (s SessionConfig) Addr() string { return s.Host + ":" + s.Port }

// EmbeddingConfig points at the external embedding HTTP service. The
// service must use the same embedding scheme the index was built with.
type EmbeddingConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (e EmbeddingConfig) Validate() error {
	if e.URL == "" {
		return fmt.Errorf("embedding.url is required")
	}
	return nil
}

// QdrantConfig contains the vector index connection settings
type QdrantConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Collection string        `mapstructure:"collection"`
	VectorSize int           `mapstructure:"vector_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func (q QdrantConfig) Validate() error {
	if q.URL == "" {
		return fmt.Errorf("qdrant.url is required")
	}
	if q.Collection == "" {
		return fmt.Errorf("qdrant.collection is required")
	}
	return nil
}

// LLMConfig contains the generation provider settings
type LLMConfig struct {
	URL               string        `mapstructure:"url"`
	APIKey            string        `mapstructure:"api_key"`
	SystemInstruction string        `mapstructure:"system_instruction"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if l.URL == "" {
		return fmt.Errorf("llm.url is required")
	}
	return nil
}

// IngestConfig controls the feed ingestion command
type IngestConfig struct {
	Feeds        []string      `mapstructure:"feeds"`
	MaxArticles  int           `mapstructure:"max_articles"`
	ChunkChars   int           `mapstructure:"chunk_chars"`
	EmbedBatch   int           `mapstructure:"embed_batch"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// Normalize applies defaults for unset ingest values.
func (c IngestConfig) Normalize() IngestConfig {
	if c.MaxArticles <= 0 {
		c.MaxArticles = 50
	}
	if c.ChunkChars <= 0 {
		c.ChunkChars = 1500
	}
	if c.EmbedBatch <= 0 {
		c.EmbedBatch = 16
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	return c
}

// LoadConfig reads configuration from a json file plus NEWSCHAT_* env
// overrides. A missing config file is fine (defaults + env); any other
// read error is fatal.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.listen", ":4000")
	viper.SetDefault("general.default_top_k", 5)
	viper.SetDefault("session.host", "localhost")
	viper.SetDefault("session.port", "6379")
	viper.SetDefault("session.db", 0)
	viper.SetDefault("session.timeout", 5*time.Second)
	viper.SetDefault("session.ttl", 24*time.Hour)
	viper.SetDefault("embedding.url", "http://localhost:51000/embed")
	viper.SetDefault("embedding.timeout", 15*time.Second)
	viper.SetDefault("qdrant.url", "http://localhost:6333")
	viper.SetDefault("qdrant.collection", "news_passages")
	viper.SetDefault("qdrant.vector_size", 1536)
	viper.SetDefault("qdrant.timeout", 15*time.Second)
	viper.SetDefault("llm.system_instruction", "You are a helpful news assistant.")
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("ingest.max_articles", 50)
	viper.SetDefault("ingest.chunk_chars", 1500)
	viper.SetDefault("ingest.embed_batch", 16)
	viper.SetDefault("ingest.fetch_timeout", 10*time.Second)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("NEWSCHAT")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Ingest = config.Ingest.Normalize()

	return &config
}
