package svcctx

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jackzampolin/primer/internal/home"
	"github.com/jackzampolin/primer/internal/providers"
)

func TestServicesFrom(t *testing.T) {
	ctx := context.Background()
	if ServicesFrom(ctx) != nil {
		t.Fatal("expected nil services on bare context")
	}
	if LoggerFrom(ctx) != slog.Default() {
		t.Error("LoggerFrom should fall back to slog.Default")
	}
	if ConfigFrom(ctx) != nil || RegistryFrom(ctx) != nil || HomeFrom(ctx) != nil || PromptsFrom(ctx) != nil || SearcherFrom(ctx) != nil {
		t.Error("extractors should return nil without services")
	}

	h, _ := home.New(t.TempDir())
	reg := providers.NewRegistry()
	logger := slog.New(slog.DiscardHandler)
	ctx = WithServices(ctx, &Services{Registry: reg, Home: h, Logger: logger})

	if RegistryFrom(ctx) != reg {
		t.Error("RegistryFrom mismatch")
	}
	if HomeFrom(ctx) != h {
		t.Error("HomeFrom mismatch")
	}
	if LoggerFrom(ctx) != logger {
		t.Error("LoggerFrom mismatch")
	}
	if ConfigFrom(ctx) != nil {
		t.Error("ConfigFrom should be nil without a manager")
	}
}
