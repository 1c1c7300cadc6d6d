package programmer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Nil(t, cfg.ProgressCallback)
	assert.Nil(t, cfg.Logger)
	assert.Equal(t, noopMetrics{}, cfg.Metrics)
	assert.Zero(t, cfg.AckTimeout, "waits are unbounded by default")
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		check func(t *testing.T, cfg Config)
	}{
		{
			name: "ack timeout",
			opt:  WithAckTimeout(3 * time.Second),
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 3*time.Second, cfg.AckTimeout)
			},
		},
		{
			name: "negative ack timeout means unbounded",
			opt:  WithAckTimeout(-time.Second),
			check: func(t *testing.T, cfg Config) {
				assert.Zero(t, cfg.AckTimeout)
			},
		},
		{
			name: "poll interval",
			opt:  WithPollInterval(5 * time.Millisecond),
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 5*time.Millisecond, cfg.PollInterval)
			},
		},
		{
			name: "negative poll interval ignored",
			opt:  WithPollInterval(-1),
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
			},
		},
		{
			name: "nil metrics ignored",
			opt:  WithMetrics(nil),
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, noopMetrics{}, cfg.Metrics)
			},
		},
		{
			name: "logger",
			opt:  WithLogger(&MockLogger{}),
			check: func(t *testing.T, cfg Config) {
				assert.NotNil(t, cfg.Logger)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.opt(&cfg)
			tt.check(t, cfg)
		})
	}
}
