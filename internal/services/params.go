package services

// LLMParameters holds the optional sampling settings shared by the providers. A nil field leaves the
// provider's default in place.
type LLMParameters struct {
	Temperature *float32 `yaml:"temperature"`
	TopP        *float32 `yaml:"topP"`
	MaxTokens   *int     `yaml:"maxTokens"`
}
