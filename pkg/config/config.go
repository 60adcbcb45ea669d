package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fundsight/ragengine/internal/models"
)

type Config struct {
	LLM struct {
		APIKey         string  `yaml:"-"`
		Model          string  `yaml:"model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RateLimit      float64 `yaml:"rate_limit"`
	} `yaml:"llm"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Chunker struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"chunker"`

	Sessions struct {
		MaxSessions int `yaml:"max_sessions"`
		TTLMinutes  int `yaml:"ttl_minutes"`
	} `yaml:"sessions"`

	Server struct {
		Port       string `yaml:"port"`
		UploadsDir string `yaml:"uploads_dir"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/ragengine/config.yaml"),
			"/etc/ragengine/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	config := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	mergeWithEnv(config)
	applyDefaults(config)

	return config, nil
}

// Validate checks the parts of the config without which the engine cannot
// start. Everything else has a default.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return &models.ConfigurationError{Reason: "OPENAI_API_KEY not set"}
	}
	if c.Database.URL == "" {
		return &models.ConfigurationError{Reason: "DATABASE_URL not set"}
	}
	return nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "gpt-4o-mini"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "text-embedding-3-small"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.TimeoutSeconds == 0 {
		config.LLM.TimeoutSeconds = 60
	}
	if config.LLM.RateLimit == 0 {
		config.LLM.RateLimit = 5.0
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "rag_chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 1536
	}

	if config.Chunker.ChunkSize == 0 {
		config.Chunker.ChunkSize = 1000
	}
	if config.Chunker.ChunkOverlap == 0 {
		config.Chunker.ChunkOverlap = 200
	}

	if config.Sessions.MaxSessions == 0 {
		config.Sessions.MaxSessions = 1024
	}
	if config.Sessions.TTLMinutes == 0 {
		config.Sessions.TTLMinutes = 120
	}

	if config.Server.Port == "" {
		config.Server.Port = "8000"
	}
	if config.Server.UploadsDir == "" {
		config.Server.UploadsDir = "uploads"
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}
