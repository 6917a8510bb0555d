package ats

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	embedder    Embedder
	instruction string
	defaultTopN int
	lemmatize   bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEmbedder sets the text embedding provider.
// Defaults to the local TF-IDF vectorizer.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithInstruction prepends instruction to every text before embedding.
// Instruction-tuned models (e5, Qwen3-Embedding) rank noticeably better with one.
func WithInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.instruction = instruction
	})
}

// WithDefaultTopN sets the number of matches returned when Request.TopN is zero.
// Default: 5.
func WithDefaultTopN(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopN = n
	})
}

// WithoutLemmatization keeps tokens as they are instead of reducing them
// to dictionary forms. Skips loading the English dictionary.
func WithoutLemmatization() Option {
	return optionFunc(func(c *clientConfig) {
		c.lemmatize = false
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
