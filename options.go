package ethconnector

import "go.uber.org/zap"

// BatchOption configures a Batch.
type BatchOption func(*batchConfig)

// batchConfig holds configuration for Batch.Send.
type batchConfig struct {
	concurrency int
	dedupViews  bool
	logger      *zap.Logger
}

// defaultBatchConfig returns the default batch configuration.
func defaultBatchConfig() *batchConfig {
	return &batchConfig{
		concurrency: 8,
		dedupViews:  true,
		logger:      zap.NewNop(),
	}
}

// WithConcurrency sets how many views may be in flight at once.
// Default is 8. Values below 1 are treated as 1.
func WithConcurrency(n int) BatchOption {
	return func(c *batchConfig) {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
	}
}

// WithViewDeduplication enables or disables sharing one submission between
// identical views. When enabled (default), views with the same target,
// method and arguments are submitted once.
func WithViewDeduplication(enabled bool) BatchOption {
	return func(c *batchConfig) {
		c.dedupViews = enabled
	}
}

// WithBatchLogger sets the logger used for batch diagnostics.
func WithBatchLogger(logger *zap.Logger) BatchOption {
	return func(c *batchConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
