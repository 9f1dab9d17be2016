package slices

import "go.uber.org/zap"

// Nop discards diagnostics.
type Nop struct{}

// MissingType implements Diagnostics.
func (Nop) MissingType(string) {}

// LogDiagnostics reports missing renderers as warnings.
type LogDiagnostics struct {
	Logger *zap.Logger
}

// MissingType implements Diagnostics.
func (l LogDiagnostics) MissingType(sliceType string) {
	l.Logger.Warn("missing slice component", zap.String("slice_type", sliceType))
}

// Multi fans a report out to every sink.
type Multi []Diagnostics

// MissingType implements Diagnostics.
func (m Multi) MissingType(sliceType string) {
	for _, d := range m {
		d.MissingType(sliceType)
	}
}
