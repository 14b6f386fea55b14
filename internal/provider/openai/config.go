package openai

import "github.com/davidbz/chatstream/internal/domain"

// Config contains completion client configuration.
//   - APIKey: fallback credential when the caller supplies none
//   - BaseURL: endpoint base; requests go to {BaseURL}/v1/chat/completions
//   - Timeout: per-exchange timeout in seconds when no cancellation token is supplied
//   - MaxMalformedFrames: 0 skips malformed stream frames forever; N fails the
//     exchange once more than N frames could not be parsed
type Config struct {
	APIKey             string  `env:"OPENAI_API_KEY"`
	BaseURL            string  `env:"OPENAI_BASE_URL"             envDefault:"https://api.openai.com"`
	Timeout            int     `env:"CLIENT_TIMEOUT"              envDefault:"30"`
	TemperatureMin     float64 `env:"CLIENT_TEMPERATURE_MIN"      envDefault:"0"`
	TemperatureMax     float64 `env:"CLIENT_TEMPERATURE_MAX"      envDefault:"2"`
	MaxTokensLimit     int     `env:"CLIENT_MAX_TOKENS_LIMIT"     envDefault:"4096"`
	MaxMalformedFrames int     `env:"CLIENT_MAX_MALFORMED_FRAMES" envDefault:"0"`
}

// ValidationLimits returns the configured parameter limits, falling back to
// the defaults for unset values.
func (c Config) ValidationLimits() domain.ValidationLimits {
	limits := domain.DefaultValidationLimits()
	if c.TemperatureMax > 0 {
		limits.TemperatureMin = c.TemperatureMin
		limits.TemperatureMax = c.TemperatureMax
	}
	if c.MaxTokensLimit > 0 {
		limits.MaxTokensLimit = c.MaxTokensLimit
	}
	return limits
}
