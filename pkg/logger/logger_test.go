package logger

import (
	"context"
	"testing"
)

func TestToken(t *testing.T) {
	if got := Token("token", "").String; got != "" {
		t.Errorf("empty token = %q", got)
	}
	if got := Token("token", "abc.def.ghi").String; got != "[REDACTED_TOKEN]" {
		t.Errorf("token value leaked: %q", got)
	}
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	if TraceID(ctx) != "" {
		t.Error("empty context should carry no trace id")
	}
	if got := TraceID(WithTraceID(ctx, "t-1")); got != "t-1" {
		t.Errorf("TraceID() = %q", got)
	}
}

func TestInitLogger(t *testing.T) {
	for _, env := range []string{"prod", "test", "dev"} {
		InitLogger(env)
		Info("hello")
	}
	InitLogger("test")
}
