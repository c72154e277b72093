package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSampler(t *testing.T) {
	tests := []struct {
		sampler string
		arg     string
		want    string
	}{
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"traceidratio", "garbage", "AlwaysOnSampler"},
		{"parentbased_always_off", "", "ParentBased{root:AlwaysOffSampler"},
		{"parentbased_traceidratio", "0.25", "ParentBased{root:TraceIDRatioBased{0.25}"},
		{"unknown", "", "ParentBased{root:AlwaysOnSampler"},
	}
	for _, tt := range tests {
		t.Run(tt.sampler+"/"+tt.arg, func(t *testing.T) {
			assert.Contains(t, getSampler(tt.sampler, tt.arg).Description(), tt.want)
		})
	}
}

func TestInit_Disabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	var buf bytes.Buffer

	shutdown, err := Init(context.Background(), zerolog.New(&buf))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"tracing_enabled":false`)
}

func TestInit_UnsupportedProtocol(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "false")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")
	var buf bytes.Buffer

	shutdown, err := Init(context.Background(), zerolog.New(&buf))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "unsupported OTLP protocol: carrier-pigeon")
	assert.Contains(t, buf.String(), "tracing_init_failed")
}

func TestGetEnv(t *testing.T) {
	t.Setenv("CONVERTER_TEST_KEY", "")
	assert.Equal(t, "fallback", getEnv("CONVERTER_TEST_KEY", "fallback"))
	t.Setenv("CONVERTER_TEST_KEY", "set")
	assert.Equal(t, "set", getEnv("CONVERTER_TEST_KEY", "fallback"))
}
