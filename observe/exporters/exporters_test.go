package exporters

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func env(vars map[string]string) Option {
	return WithEnv(func(k string) string { return vars[k] })
}

func TestNewTracingExporter(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantNil bool
		wantErr error
	}{
		{name: "stdout"},
		{name: "none", wantNil: true},
		{name: "", wantNil: true},
		{name: "otlp", wantErr: ErrEndpointNotConfigured},
		{name: "otlp", vars: map[string]string{"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "localhost:4317"}},
		{name: "jaeger", wantErr: ErrEndpointNotConfigured},
		{name: "zipkin", wantErr: ErrUnknownExporter},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exp, err := NewTracingExporter(context.Background(), tc.name, env(tc.vars), WithWriter(&bytes.Buffer{}))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (exp == nil) != tc.wantNil {
				t.Fatalf("exporter nil = %v, want %v", exp == nil, tc.wantNil)
			}
		})
	}
}

func TestNewMetricsReader(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantNil bool
		wantErr error
	}{
		{name: "stdout"},
		{name: "prometheus"},
		{name: "none", wantNil: true},
		{name: "otlp", wantErr: ErrEndpointNotConfigured},
		{name: "otlp", vars: map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317"}},
		{name: "statsd", wantErr: ErrUnknownExporter},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reader, err := NewMetricsReader(context.Background(), tc.name, env(tc.vars), WithWriter(&bytes.Buffer{}))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (reader == nil) != tc.wantNil {
				t.Fatalf("reader nil = %v, want %v", reader == nil, tc.wantNil)
			}
		})
	}
}
