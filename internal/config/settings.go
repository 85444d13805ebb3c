package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTag              = "agent-izakaya"
	DefaultParameterPrefix  = "/agent-izakaya"
	DefaultAssetDir         = "assets"
	DefaultInstructionFile  = "assets/instruction.txt"
	DefaultFunctionAssetDir = "dist/agent-izakaya-function"
	DefaultAgentAliasID     = "TSTALIASID"
)

// DefaultDataSourceFiles are the knowledge base documents shipped in assets/.
var DefaultDataSourceFiles = []string{"izakaya_menu.txt", "izakaya_guidance.pdf"}

// Settings is shared by the CDK app and the operator CLI. Values come from an
// optional YAML file; CDK context and CLI flags override them.
type Settings struct {
	Region          string `yaml:"region"`
	ParameterPrefix string `yaml:"parameterPrefix"`

	EmbeddingModel    string `yaml:"embeddingModel"`
	FoundationModel   string `yaml:"foundationModel"`
	PineconeEndpoint  string `yaml:"pineconeEndpoint"`
	PineconeSecretArn string `yaml:"pineconeSecretArn"`

	InstructionFile  string   `yaml:"instructionFile"`
	FunctionAssetDir string   `yaml:"functionAssetDir"`
	AssetDir         string   `yaml:"assetDir"`
	DataSourceFiles  []string `yaml:"dataSourceFiles"`
	AgentAliasID     string   `yaml:"agentAliasId"`

	LogLevel string `yaml:"logLevel"`
	Tracing  bool   `yaml:"tracing"`
}

var ErrMissingSetting = errors.New("missing required setting")

// LoadSettings reads path and fills defaults. An empty path yields defaults only.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	path = strings.TrimSpace(path)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read settings: %w", err)
		}
		if err := yaml.Unmarshal(b, &s); err != nil {
			return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}
	s.ApplyDefaults()
	return s, nil
}

func (s *Settings) ApplyDefaults() {
	if s.ParameterPrefix == "" {
		s.ParameterPrefix = DefaultParameterPrefix
	}
	if s.InstructionFile == "" {
		s.InstructionFile = DefaultInstructionFile
	}
	if s.FunctionAssetDir == "" {
		s.FunctionAssetDir = DefaultFunctionAssetDir
	}
	if s.AssetDir == "" {
		s.AssetDir = DefaultAssetDir
	}
	if len(s.DataSourceFiles) == 0 {
		s.DataSourceFiles = append([]string(nil), DefaultDataSourceFiles...)
	}
	if s.AgentAliasID == "" {
		s.AgentAliasID = DefaultAgentAliasID
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

// ValidateStack checks the values the stack cannot be synthesized without.
func (s Settings) ValidateStack() error {
	var missing []string
	if s.EmbeddingModel == "" {
		missing = append(missing, "embeddingModel")
	}
	if s.FoundationModel == "" {
		missing = append(missing, "foundationModel")
	}
	if s.PineconeEndpoint == "" {
		missing = append(missing, "pineconeEndpoint")
	}
	if s.PineconeSecretArn == "" {
		missing = append(missing, "pineconeSecretArn")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}
