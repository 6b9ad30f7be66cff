package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jhoicas/bom-api/pkg/config"
	"github.com/jhoicas/bom-api/pkg/logger"
)

func TestInit_DeshabilitadoNoInstalaNada(t *testing.T) {
	shutdown, err := Init(context.Background(), logger.Nop(), config.AppConfig{Name: "bom-api"}, config.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_ExportadorDesconocido(t *testing.T) {
	_, err := Init(context.Background(), logger.Nop(), config.AppConfig{Name: "bom-api"},
		config.TracingConfig{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestNewExporter_Stdout(t *testing.T) {
	exp, err := newExporter(context.Background(), config.TracingConfig{Exporter: "STDOUT"})
	require.NoError(t, err)
	assert.NoError(t, exp.Shutdown(context.Background()))
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.1, clampRatio(0))
	assert.Equal(t, 0.1, clampRatio(-3))
	assert.Equal(t, 0.5, clampRatio(0.5))
	assert.Equal(t, 1.0, clampRatio(7))
}

func TestEnd_RegistraError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := tp.Tracer("test")

	_, ok := tr.Start(context.Background(), "ok")
	End(ok, nil)
	_, bad := tr.Start(context.Background(), "falla")
	End(bad, errors.New("bloqueo ocupado"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "bloqueo ocupado", spans[1].Status().Description)
	assert.Len(t, spans[1].Events(), 1, "RecordError agrega un evento")
}
