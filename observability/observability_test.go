package observability

import "testing"

func TestFields(t *testing.T) {
	if f := String("k", "v"); f.Key() != "k" || f.Value() != "v" {
		t.Errorf("String field mismatch: %v=%v", f.Key(), f.Value())
	}
	if f := Int("n", 3); f.Value() != 3 {
		t.Errorf("Int field mismatch: %v", f.Value())
	}
	if f := Int64("n", 9); f.Value() != int64(9) {
		t.Errorf("Int64 field mismatch: %v", f.Value())
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	var l Logger = NopLogger{}
	l = l.With(String("component", "document"))
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error", Error("err", nil))
}
