package provider

import "github.com/ganot/appforge/internal/domain/credential"

const (
	openaiAPIURL    = "https://api.openai.com/v1/chat/completions"
	grokAPIURL      = "https://api.x.ai/v1/chat/completions"
	anthropicAPIURL = "https://api.anthropic.com/v1/messages"

	anthropicVersion = "2023-06-01"
	defaultMaxTokens = 4096
)

// Models names the model used per provider. Empty fields use the defaults.
type Models struct {
	OpenAI    string `yaml:"openai"`
	Anthropic string `yaml:"anthropic"`
	Grok      string `yaml:"grok"`
}

// DefaultModels is used for any provider without an explicit model.
var DefaultModels = Models{
	OpenAI:    "gpt-4o",
	Anthropic: "claude-3-5-sonnet-latest",
	Grok:      "grok-2-latest",
}

func (m Models) forProvider(p credential.Provider) string {
	var name, fallback string
	switch p {
	case credential.ProviderOpenAI:
		name, fallback = m.OpenAI, DefaultModels.OpenAI
	case credential.ProviderAnthropic:
		name, fallback = m.Anthropic, DefaultModels.Anthropic
	case credential.ProviderGrok:
		name, fallback = m.Grok, DefaultModels.Grok
	}
	if name == "" {
		return fallback
	}
	return name
}

// Endpoints are the provider API URLs. Tests point them at local servers.
type Endpoints struct {
	OpenAI    string
	Anthropic string
	Grok      string
}

// DefaultEndpoints are the public provider APIs.
var DefaultEndpoints = Endpoints{
	OpenAI:    openaiAPIURL,
	Anthropic: anthropicAPIURL,
	Grok:      grokAPIURL,
}
