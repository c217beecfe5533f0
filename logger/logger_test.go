package logger

import "testing"

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"prod", "production", "development", ""} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		if l == nil || l.SugaredLogger == nil {
			t.Fatalf("New(%q): nil logger", mode)
		}
		l.Info("message", "key", "value")
		l.Sync()
	}
}

func TestWithPreservesLogger(t *testing.T) {
	l := NewNop()
	child := l.With("component", "test")
	if child == nil || child.SugaredLogger == nil {
		t.Fatal("With returned nil logger")
	}
	child.Debug("ok")
}
