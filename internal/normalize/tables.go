package normalize

// CapabilityFlag pairs an upstream boolean flag with its canonical tag.
// Flags are scanned in slice order so capability lists come out stable.
type CapabilityFlag struct {
	Flag string
	Tag  string
}

// Mappings holds the translation tables from upstream vocabulary to the
// canonical vocabulary. Instances are immutable after construction and
// injected into the Normalizer, never read as ambient globals.
type Mappings struct {
	// Providers maps the upstream provider tag to the canonical provider id.
	// Unknown tags pass through unchanged.
	Providers map[string]string
	// Capabilities is the fixed ordered set of upstream boolean flags.
	// Flags not listed here are silently dropped.
	Capabilities []CapabilityFlag
	// Modes maps the upstream mode to the canonical mode. Unknown modes pass
	// through unchanged; an absent upstream mode defaults to "chat".
	Modes map[string]string
}

// DefaultMappings returns the standard translation tables.
func DefaultMappings() Mappings {
	return Mappings{
		Providers: map[string]string{
			"openai":                   "openai",
			"anthropic":                "anthropic",
			"gemini":                   "google",
			"vertex_ai":                "google",
			"vertex_ai-language-models": "google",
			"azure":                    "azure_openai",
			"azure_ai":                 "azure_openai",
			"bedrock":                  "aws_bedrock",
			"sagemaker":                "aws_sagemaker",
			"cohere":                   "cohere",
			"cohere_chat":              "cohere",
			"mistral":                  "mistral",
			"groq":                     "groq",
			"together_ai":              "together",
			"fireworks_ai":             "fireworks",
			"replicate":                "replicate",
			"huggingface":              "huggingface",
			"ollama":                   "ollama",
			"ollama_chat":              "ollama",
			"lm_studio":                "lmstudio",
			"vllm":                     "vllm",
			"deepseek":                 "deepseek",
			"perplexity":               "perplexity",
			"anyscale":                 "anyscale",
			"openrouter":               "openrouter",
			"ai21":                     "ai21",
			"nlp_cloud":                "nlp_cloud",
			"aleph_alpha":              "aleph_alpha",
			"cloudflare":               "cloudflare",
			"voyage":                   "voyage",
			"xinference":               "xinference",
		},
		Capabilities: []CapabilityFlag{
			{"supports_vision", "vision"},
			{"supports_function_calling", "function_calling"},
			{"supports_parallel_function_calling", "parallel_function_calling"},
			{"supports_system_messages", "system_messages"},
			{"supports_response_schema", "json_mode"},
			{"supports_prompt_caching", "prompt_caching"},
			{"supports_reasoning", "reasoning"},
			{"supports_web_search", "web_search"},
			{"supports_audio_input", "audio_input"},
			{"supports_audio_output", "audio_output"},
		},
		Modes: map[string]string{
			"chat":                "chat",
			"completion":          "completion",
			"embedding":           "embedding",
			"image_generation":    "image",
			"audio_transcription": "audio_transcription",
			"audio_speech":        "audio_speech",
			"moderation":          "moderation",
			"rerank":              "rerank",
		},
	}
}

// CanonicalProvider translates an upstream provider tag, passing unknown
// tags through unchanged.
func (m Mappings) CanonicalProvider(tag string) string {
	if canonical, ok := m.Providers[tag]; ok {
		return canonical
	}
	return tag
}

// CanonicalMode translates an upstream mode, defaulting to "chat" when the
// upstream mode is absent and passing unknown modes through unchanged.
func (m Mappings) CanonicalMode(mode string) string {
	if mode == "" {
		return "chat"
	}
	if canonical, ok := m.Modes[mode]; ok {
		return canonical
	}
	return mode
}
