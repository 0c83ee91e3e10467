package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"

	"github.com/AntonStoeckl/library-desk/oteladapters"
)

func Test_NewProviders_EmptyEndpoint_ReturnsError(t *testing.T) {
	providers, err := oteladapters.NewProviders(context.Background(), oteladapters.ProvidersConfig{})

	assert.ErrorIs(t, err, oteladapters.ErrEmptyEndpoint)
	assert.Nil(t, providers)
}

func Test_NewProviders_InstallsGlobalProviders(t *testing.T) {
	// setup
	previousTracer := otel.GetTracerProvider()
	previousMeter := otel.GetMeterProvider()
	previousLogger := global.GetLoggerProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(previousTracer)
		otel.SetMeterProvider(previousMeter)
		global.SetLoggerProvider(previousLogger)
	})

	// act
	providers, err := oteladapters.NewProviders(context.Background(), oteladapters.ProvidersConfig{
		ServiceName:    "librarydesk-test",
		ServiceVersion: "test",
		Endpoint:       "127.0.0.1:4317",
		Insecure:       true,
	})

	// assert
	require.NoError(t, err, "exporters should connect lazily")
	t.Cleanup(func() { _ = providers.Shutdown() })

	require.NotNil(t, providers.LoggerProvider)
	assert.Same(t, providers.LoggerProvider, global.GetLoggerProvider())
	assert.Same(t, providers.TracerProvider, otel.GetTracerProvider())
	assert.Same(t, providers.MeterProvider, otel.GetMeterProvider())
}
