package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSystemInstruction seeds every context cache when no custom
// instruction is configured. The workflow stages address it through the
// command strings at the end of each delta prompt.
const DefaultSystemInstruction = `You are a rigorous university admissions interviewer and strategist.
The candidate's submitted documents (student record and personal statement) are part of your context.
Act on the command given at the end of each request:
- 'initial analysis': produce the initial analysis report with the five sharpest representative questions.
- 'extract additional questions': produce twenty precise deep-dive questions targeting specific sentences and claims in the documents.
- 'comprehensive strategy report': produce the full strategy report with admission scenarios and defense logic.
- 'generate model answers': produce a strategic model answer for every question in the provided list.
- 'start interview simulation': act as a live pressure interviewer at the given difficulty and feedback mode.
- 'interview simulation final report': evaluate the whole transcript and produce the final simulation report.
Answer in the language of the submitted documents.`

// Config represents the interview-prep service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Cache     CacheConfig     `yaml:"cache"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Interview InterviewConfig `yaml:"interview"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GeminiConfig holds the Gemini API key and the model bound to each tier
type GeminiConfig struct {
	APIKey           string `yaml:"api_key,omitempty"`
	APIKeyEnv        string `yaml:"api_key_env,omitempty"`
	ReportingModel   string `yaml:"reporting_model"`
	InteractiveModel string `yaml:"interactive_model"`
}

// Model returns the model name bound to a tier name, or "" for an
// unknown tier.
func (g *GeminiConfig) Model(tier string) string {
	switch tier {
	case "reporting":
		return g.ReportingModel
	case "interactive":
		return g.InteractiveModel
	default:
		return ""
	}
}

// CacheConfig holds context cache configuration
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// WorkflowConfig holds stage orchestration configuration
type WorkflowConfig struct {
	RequestTimeout        time.Duration `yaml:"request_timeout"`
	TerminateWord         string        `yaml:"terminate_word"`
	SystemInstruction     string        `yaml:"system_instruction,omitempty"`
	SystemInstructionFile string        `yaml:"system_instruction_file,omitempty"`
}

// InterviewConfig holds simulation defaults
type InterviewConfig struct {
	DefaultDifficulty int   `yaml:"default_difficulty"`
	FeedbackMode      *bool `yaml:"feedback_mode,omitempty"`
}

// FeedbackEnabled reports the configured feedback toggle, defaulting to on.
func (i *InterviewConfig) FeedbackEnabled() bool {
	if i.FeedbackMode == nil {
		return true
	}
	return *i.FeedbackMode
}

// Load loads configuration from a YAML file. An empty path yields the
// default configuration. The API key and system instruction are resolved
// from the environment and instruction file respectively.
func Load(filePath string) (*Config, error) {
	config := &Config{}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.SetDefaults()

	if config.Gemini.APIKey == "" && config.Gemini.APIKeyEnv != "" {
		config.Gemini.APIKey = os.Getenv(config.Gemini.APIKeyEnv)
	}

	if config.Workflow.SystemInstructionFile != "" {
		data, err := os.ReadFile(config.Workflow.SystemInstructionFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read system instruction file: %w", err)
		}
		config.Workflow.SystemInstruction = string(data)
	}

	return config, nil
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Gemini.APIKeyEnv == "" {
		c.Gemini.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if c.Gemini.ReportingModel == "" {
		c.Gemini.ReportingModel = "models/gemini-2.5-pro"
	}
	if c.Gemini.InteractiveModel == "" {
		c.Gemini.InteractiveModel = "models/gemini-2.5-flash"
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}

	if c.Workflow.RequestTimeout == 0 {
		c.Workflow.RequestTimeout = 2 * time.Minute
	}
	if c.Workflow.TerminateWord == "" {
		c.Workflow.TerminateWord = "end"
	}
	if c.Workflow.SystemInstruction == "" && c.Workflow.SystemInstructionFile == "" {
		c.Workflow.SystemInstruction = DefaultSystemInstruction
	}

	if c.Interview.DefaultDifficulty == 0 {
		c.Interview.DefaultDifficulty = 5
	}
	if c.Interview.FeedbackMode == nil {
		enabled := true
		c.Interview.FeedbackMode = &enabled
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required (set %s or gemini.api_key)", c.Gemini.APIKeyEnv)
	}
	if c.Gemini.ReportingModel == "" || c.Gemini.InteractiveModel == "" {
		return fmt.Errorf("both gemini.reporting_model and gemini.interactive_model are required")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Workflow.RequestTimeout <= 0 {
		return fmt.Errorf("workflow.request_timeout must be positive")
	}
	if c.Workflow.SystemInstruction == "" {
		return fmt.Errorf("workflow.system_instruction is required")
	}
	if c.Interview.DefaultDifficulty < 1 || c.Interview.DefaultDifficulty > 10 {
		return fmt.Errorf("interview.default_difficulty must be between 1 and 10")
	}
	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.SetDefaults()
	return config
}
