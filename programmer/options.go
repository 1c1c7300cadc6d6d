package programmer

import "time"

// DefaultPollInterval is the pause between empty receive polls while waiting
// for an acknowledgement.
const DefaultPollInterval = time.Millisecond

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called after each acknowledged record (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Metrics receives protocol events (optional)
	Metrics Metrics

	// AckTimeout bounds each wait for an acknowledgement.
	// Zero waits forever, which is the device's documented behaviour.
	AckTimeout time.Duration

	// PollInterval is the pause between empty receive polls.
	// Zero polls continuously.
	PollInterval time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Metrics:      noopMetrics{},
		PollInterval: DefaultPollInterval,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	prog := programmer.New(port,
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics sink. A nil sink is ignored.
func WithMetrics(m Metrics) Option {
	return func(c *Config) {
		if m != nil {
			c.Metrics = m
		}
	}
}

// WithAckTimeout bounds every wait for an acknowledgement. When the timeout
// expires the operation fails with *AckTimeoutError; nothing is retried.
// Zero or a negative value restores the unbounded wait.
//
// Example:
//
//	prog := programmer.New(port, programmer.WithAckTimeout(5*time.Second))
func WithAckTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout < 0 {
			timeout = 0
		}
		c.AckTimeout = timeout
	}
}

// WithPollInterval sets the pause between empty receive polls.
// Zero polls continuously.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.PollInterval = interval
		}
	}
}
