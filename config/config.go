package config

import (
	"fmt"
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Dashscope struct {
		ApiKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"dashscope"`

	Openai struct {
		ApiKey  string `yaml:"apiKey"`
		BaseUrl string `yaml:"baseUrl"`
		Model   string `yaml:"model"`
	} `yaml:"openai"`

	Gemini struct {
		ApiKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	Transcription struct {
		Mode string `yaml:"mode"` // "async" (submit/poll task) or "sync" (multipart upload)
	} `yaml:"transcription"`

	Bank struct {
		Path string `yaml:"path"`
	} `yaml:"bank"`
}

// LoadConfig reads the configuration file and overlays environment variables
// on top of any field the file left empty. A missing file is not an error so
// the server can run on environment variables alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := ioutil.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overlay(&cfg.Dashscope.ApiKey, "DASHSCOPE_API_KEY")
	overlay(&cfg.Dashscope.Model, "DASHSCOPE_MODEL")
	overlay(&cfg.Openai.ApiKey, "OPENAI_API_KEY")
	overlay(&cfg.Openai.BaseUrl, "OPENAI_BASE_URL")
	overlay(&cfg.Openai.Model, "OPENAI_MODEL")
	overlay(&cfg.Gemini.ApiKey, "GEMINI_API_KEY")
	overlay(&cfg.Gemini.ApiKey, "API_KEY")
	overlay(&cfg.Gemini.Model, "GEMINI_MODEL")
	overlay(&cfg.Transcription.Mode, "TRANSCRIPTION_MODE")
	overlay(&cfg.Bank.Path, "QUESTION_BANK_PATH")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Bank.Path == "" {
		cfg.Bank.Path = "./data/p1_bank.json"
	}
}

func overlay(field *string, envVar string) {
	if *field != "" {
		return
	}
	if value := os.Getenv(envVar); value != "" {
		*field = value
	}
}
