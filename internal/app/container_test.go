package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/config"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"go.uber.org/zap"
)

func testConfig(irisURL string) *config.Config {
	return &config.Config{
		Iris:     config.IrisConfig{BaseURL: irisURL, WSURL: "ws://127.0.0.1:1/ws"},
		TraceMoe: config.TraceMoeConfig{MinSimilarity: 87, Timeout: 5 * time.Second},
		Bot:      config.BotConfig{Prefix: "!", Platform: constants.DefaultPlatform, MaxConcurrency: 2},
	}
}

func TestBuildProducesBot(t *testing.T) {
	container, err := Build(context.Background(), testConfig("http://127.0.0.1:1"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := container.NewBot(); err != nil {
		t.Fatalf("NewBot: %v", err)
	}
}

func TestBuildRejectsMissingInputs(t *testing.T) {
	if _, err := Build(context.Background(), nil, zap.NewNop()); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := Build(context.Background(), testConfig("http://x"), nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, testConfig("http://x"), zap.NewNop()); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestCheckIris(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/config" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"port":3000,"pollingSpeed":100,"messageRate":50,"webserverEndpoint":"http://bot"}`))
	}))
	defer server.Close()

	container, err := Build(context.Background(), testConfig(server.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !container.CheckIris(context.Background()) {
		t.Fatalf("expected reachable Iris")
	}

	server.Close()
	if container.CheckIris(context.Background()) {
		t.Fatalf("expected unreachable Iris after close")
	}
}

func TestShutdownTimeoutCoversProviderAndIris(t *testing.T) {
	cfg := testConfig("http://x")
	want := 5*time.Second + 2*constants.APIConfig.IrisTimeout
	if got := ShutdownTimeout(cfg); got != want {
		t.Fatalf("ShutdownTimeout = %v, want %v", got, want)
	}

	cfg.TraceMoe.Timeout = 0
	if got := ShutdownTimeout(cfg); got != constants.APIConfig.TraceMoeTimeout+2*constants.APIConfig.IrisTimeout {
		t.Fatalf("expected default provider timeout, got %v", got)
	}
}
