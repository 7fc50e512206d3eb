package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"bogus":    defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewZapLogger_RespectsLevel(t *testing.T) {
	l := newZapLogger(WarnLevel, JSONEncoding)
	if l.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info must be disabled at warn level")
	}
	if !l.Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error must be enabled at warn level")
	}
}

func TestNopAndWith(t *testing.T) {
	l := Nop().With("port", "sim")
	if l == nil || l.SugaredLogger == nil {
		t.Fatalf("With must return a usable logger")
	}
	l.Infow("discarded", "k", "v")
}
