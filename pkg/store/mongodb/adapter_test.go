package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNewAdapter_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty config", cfg: Config{}},
		{name: "missing database", cfg: Config{URL: "mongodb://localhost:27017"}},
		{name: "missing url", cfg: Config{Database: "neeProkritiDB"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdapter(tt.cfg, logger.Nop())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfig_ClientOptions(t *testing.T) {
	cfg := Config{
		URL:         "mongodb://localhost:27017",
		Database:    "neeProkritiDB",
		AppName:     "neeprokriti",
		MaxPoolSize: 50,
		StrictAPI:   true,
	}
	opts := cfg.clientOptions()

	if opts.AppName == nil || *opts.AppName != "neeprokriti" {
		t.Errorf("AppName = %v", opts.AppName)
	}
	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != 50 {
		t.Errorf("MaxPoolSize = %v", opts.MaxPoolSize)
	}
	if opts.ServerAPIOptions == nil {
		t.Fatal("expected server API options when StrictAPI is set")
	}
	if opts.ServerAPIOptions.Strict == nil || !*opts.ServerAPIOptions.Strict {
		t.Error("expected strict server API")
	}

	plain := Config{URL: "mongodb://localhost:27017", Database: "db"}.clientOptions()
	if plain.ServerAPIOptions != nil {
		t.Error("server API options must be unset by default")
	}
}

func TestOperations_WhenClosed(t *testing.T) {
	a := &Adapter{closed: true}
	ctx := context.Background()

	if err := a.ping(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("ping() error = %v, want ErrClosed", err)
	}
	var out []bson.M
	if err := a.Find(ctx, "products", bson.M{}, &out); !errors.Is(err, ErrClosed) {
		t.Errorf("Find() error = %v, want ErrClosed", err)
	}
	if _, err := a.CountDocuments(ctx, "products", bson.M{}); !errors.Is(err, ErrClosed) {
		t.Errorf("CountDocuments() error = %v, want ErrClosed", err)
	}
	if err := a.Aggregate(ctx, "products", bson.A{}, &out); !errors.Is(err, ErrClosed) {
		t.Errorf("Aggregate() error = %v, want ErrClosed", err)
	}
	if _, err := a.InsertMany(ctx, "products", []interface{}{bson.M{}}); !errors.Is(err, ErrClosed) {
		t.Errorf("InsertMany() error = %v, want ErrClosed", err)
	}
}

func TestClose_IdempotentWhenAlreadyClosed(t *testing.T) {
	a := &Adapter{closed: true}
	if err := a.Close(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestWithOperationTimeout_UsesAdapterTimeoutWhenNoDeadline(t *testing.T) {
	a := &Adapter{timeout: 2 * time.Second}

	ctx, cancel := a.withOperationTimeout(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected deadline from operation timeout")
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining > 2*time.Second {
		t.Fatalf("unexpected remaining timeout: %v", remaining)
	}
}

func TestWithOperationTimeout_PreservesCallerDeadline(t *testing.T) {
	a := &Adapter{timeout: 2 * time.Second}
	parentCtx, parentCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer parentCancel()

	ctx, cancel := a.withOperationTimeout(parentCtx)
	defer cancel()

	parentDeadline, _ := parentCtx.Deadline()
	gotDeadline, _ := ctx.Deadline()
	if !gotDeadline.Equal(parentDeadline) {
		t.Fatalf("expected caller deadline to be preserved, got %v want %v", gotDeadline, parentDeadline)
	}
}

func TestWithOperationTimeout_Disabled(t *testing.T) {
	a := &Adapter{}
	ctx, cancel := a.withOperationTimeout(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("expected no deadline when timeout is disabled")
	}
}
