package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/adapter"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/config"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/iris"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/service/recognition"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/service/tracemoe"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type irisRecorder struct {
	mu    sync.Mutex
	calls []map[string]any
	paths []string
}

func (r *irisRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Errorf("decode iris body: %v", err)
		}
		r.mu.Lock()
		r.calls = append(r.calls, body)
		r.paths = append(r.paths, req.URL.Path)
		r.mu.Unlock()
		if req.URL.Path == "/reply" && body["type"] == "text" && body["reply_to"] != nil {
			_, _ = w.Write([]byte(`{"message_ids":["placeholder-7"]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}
}

func (r *irisRecorder) snapshot() ([]string, []map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...), append([]map[string]any(nil), r.calls...)
}

// waitForPaths polls until the recorder has seen n requests.
func (r *irisRecorder) waitForPaths(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if paths, _ := r.snapshot(); len(paths) >= n {
			return paths
		}
		time.Sleep(10 * time.Millisecond)
	}
	paths, _ := r.snapshot()
	t.Fatalf("expected %d iris requests, got %v", n, paths)
	return nil
}

const traceMoeBody = `{"result":[{"anilist":{"id":1,"title":{"native":"テスト","romaji":"Tesuto"},"genres":["Action"],
"coverImage":{"large":"https://img/cover.jpg"},"startDate":{"year":2020,"month":1,"day":5}},
"episode":3,"from":125,"similarity":0.91,"video":"https://media/v.mp4","image":"https://media/i.jpg"}]}`

type testBotOptions struct {
	platform       string
	useForward     bool
	maxConcurrency int
	trace          http.Handler
	logger         *zap.Logger
	websocketURL   string
}

type testBot struct {
	*Bot
	recorder *irisRecorder
	searches func() int
}

func newTestBot(t *testing.T, opts testBotOptions) *testBot {
	t.Helper()

	if opts.platform == "" {
		opts.platform = "kakaotalk"
	}
	if opts.maxConcurrency == 0 {
		opts.maxConcurrency = 2
	}
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}
	if opts.trace == nil {
		opts.trace = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(traceMoeBody))
		})
	}

	recorder := &irisRecorder{}
	irisServer := httptest.NewServer(recorder.handler(t))
	t.Cleanup(irisServer.Close)

	var (
		searchMu sync.Mutex
		searches int
	)
	traceServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searchMu.Lock()
		searches++
		searchMu.Unlock()
		opts.trace.ServeHTTP(w, r)
	}))
	t.Cleanup(traceServer.Close)

	cfg := &config.Config{
		Kakao: config.KakaoConfig{Rooms: []string{"애니방"}},
		TraceMoe: config.TraceMoeConfig{
			BaseURL:          traceServer.URL,
			MinSimilarity:    87,
			CutBorders:       true,
			ShowRomajiTitle:  true,
			SendCoverImage:   true,
			SendScenePreview: true,
			UseForward:       opts.useForward,
			Timeout:          2 * time.Second,
		},
		Bot: config.BotConfig{Prefix: "!", Platform: opts.platform, MaxConcurrency: opts.maxConcurrency},
	}

	logger := opts.logger
	irisClient := iris.NewClient(irisServer.URL, logger)
	traceClient := tracemoe.NewClient(cfg.TraceMoe.BaseURL, cfg.TraceMoe.Timeout, logger)

	deps := &Dependencies{
		Config:         cfg,
		Logger:         logger,
		IrisClient:     irisClient,
		MessageAdapter: adapter.NewMessageAdapter(cfg.Bot.Prefix),
		Formatter:      adapter.NewResponseFormatter(cfg.Bot.Prefix),
		TraceMoe:       traceClient,
		Pipeline:       recognition.NewPipeline(traceClient, irisClient, recognition.OptionsFromConfig(cfg.TraceMoe), logger),
	}
	if opts.websocketURL != "" {
		deps.IrisWebSocket = iris.NewWebSocket(opts.websocketURL, 0, 10*time.Millisecond, logger)
	}

	b, err := NewBot(deps)
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return &testBot{
		Bot:      b,
		recorder: recorder,
		searches: func() int {
			searchMu.Lock()
			defer searchMu.Unlock()
			return searches
		},
	}
}

// imageMessage is a text message with the picture embedded as markup, which
// is how a command and an image arrive together in one event.
func imageMessage(room string) *iris.Message {
	sender := "user"
	return &iris.Message{
		Msg:    `!애니검색 <img src="https://talk.kakaocdn.net/p.jpg">`,
		Room:   room,
		Sender: &sender,
		JSON: &iris.MessageJSON{
			ID:     "src-1",
			ChatID: "chat-1",
		},
	}
}

func TestHandleMessageEndToEnd(t *testing.T) {
	tb := newTestBot(t, testBotOptions{useForward: true})

	tb.handleMessage(context.Background(), imageMessage("애니방"))

	paths, calls := tb.recorder.snapshot()
	if strings.Join(paths, ",") != "/reply,/delete,/reply" {
		t.Fatalf("expected placeholder, delete, reply; got %v", paths)
	}
	if tb.searches() != 1 {
		t.Fatalf("expected one trace.moe call, got %d", tb.searches())
	}

	placeholder := calls[0]
	if placeholder["reply_to"] != "src-1" || placeholder["room"] != "chat-1" {
		t.Fatalf("unexpected placeholder %v", placeholder)
	}
	if calls[1]["message_id"] != "placeholder-7" {
		t.Fatalf("expected placeholder-7 to be deleted, got %v", calls[1])
	}

	reply := calls[2]
	// useForward is on but kakaotalk does not render bundles
	if reply["type"] != "message" {
		t.Fatalf("expected flat message, got %v", reply["type"])
	}
	segments := reply["data"].([]any)
	if len(segments) != 4 {
		t.Fatalf("expected 4 segments, got %v", segments)
	}
	text := segments[2].(map[string]any)["text"].(string)
	if !strings.Contains(text, "02:05") || !strings.Contains(text, "91%") {
		t.Fatalf("unexpected metadata text %q", text)
	}
}

func TestHandleMessageForwardOnSupportedPlatform(t *testing.T) {
	tb := newTestBot(t, testBotOptions{platform: "onebot", useForward: true})

	tb.handleMessage(context.Background(), imageMessage("애니방"))

	_, calls := tb.recorder.snapshot()
	if len(calls) != 3 || calls[2]["type"] != "forward" {
		t.Fatalf("expected forward bundle, got %v", calls)
	}
}

func TestHandleMessageWithoutImage(t *testing.T) {
	tb := newTestBot(t, testBotOptions{})

	sender := "user"
	tb.handleMessage(context.Background(), &iris.Message{Msg: "!애니검색", Room: "애니방", Sender: &sender})

	paths, calls := tb.recorder.snapshot()
	if len(paths) != 1 || paths[0] != "/reply" {
		t.Fatalf("expected a single reply, got %v", paths)
	}
	if _, quoted := calls[0]["reply_to"]; quoted {
		t.Fatalf("no placeholder should be sent")
	}
	if !strings.Contains(calls[0]["data"].(string), "첨부") {
		t.Fatalf("expected attach-image message, got %v", calls[0]["data"])
	}
	if tb.searches() != 0 {
		t.Fatalf("expected no trace.moe call, got %d", tb.searches())
	}
}

func TestHandleMessageIgnoresOtherRoomsAndText(t *testing.T) {
	tb := newTestBot(t, testBotOptions{})

	tb.handleMessage(context.Background(), imageMessage("다른방"))
	tb.handleMessage(context.Background(), &iris.Message{Msg: "그냥 대화", Room: "애니방"})

	paths, _ := tb.recorder.snapshot()
	if len(paths) != 0 || tb.searches() != 0 {
		t.Fatalf("expected no traffic, got paths=%v searches=%d", paths, tb.searches())
	}
}

func TestShutdownWaitsForWorkers(t *testing.T) {
	tb := newTestBot(t, testBotOptions{})

	tb.submit(context.Background(), imageMessage("애니방"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tb.Shutdown(ctx); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	paths, _ := tb.recorder.snapshot()
	if len(paths) != 3 {
		t.Fatalf("expected the in-flight command to finish, got %v", paths)
	}

	tb.submit(context.Background(), imageMessage("애니방"))
	if paths, _ := tb.recorder.snapshot(); len(paths) != 3 {
		t.Fatalf("expected no work after shutdown, got %v", paths)
	}
}

func TestSubmitDoesNotBlockWhenAllSlotsBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 8)
	stalled := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(traceMoeBody))
	})

	tb := newTestBot(t, testBotOptions{maxConcurrency: 1, trace: stalled})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	ctx := context.Background()
	tb.submit(ctx, imageMessage("애니방"))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatalf("first search never reached trace.moe")
	}

	submitted := make(chan struct{})
	go func() {
		tb.submit(ctx, imageMessage("애니방"))
		tb.submit(ctx, imageMessage("애니방"))
		close(submitted)
	}()
	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatalf("submit blocked while the only slot was busy")
	}

	if got := tb.searches(); got != 1 {
		t.Fatalf("expected queued events to wait for a slot, got %d searches", got)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	begin := time.Now()
	if err := tb.Shutdown(shutdownCtx); err == nil {
		t.Fatalf("expected shutdown to report the deadline")
	}
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Fatalf("shutdown ignored its deadline, took %v", elapsed)
	}

	unblock()
	drainCtx, drainCancel := context.WithTimeout(ctx, 10*time.Second)
	defer drainCancel()
	if err := tb.Shutdown(drainCtx); err != nil {
		t.Fatalf("expected queued commands to drain, got %v", err)
	}
	if got := tb.searches(); got != 3 {
		t.Fatalf("expected all three events to run, got %d searches", got)
	}
}

func TestSubmitRecoversFromPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	tb := newTestBot(t, testBotOptions{logger: zap.New(core)})
	tb.deps.MessageAdapter = nil

	tb.submit(context.Background(), imageMessage("애니방"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tb.Shutdown(ctx); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	entries := logs.FilterMessage("Command handler panicked").All()
	if len(entries) != 1 {
		t.Fatalf("expected one panic log, got %d", len(entries))
	}
	if msg := entries[0].ContextMap()["error"]; !strings.Contains(msg.(string), "command handler panicked") {
		t.Fatalf("unexpected error field %v", msg)
	}
}

func TestStartServesWebsocketEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	event, err := json.Marshal(imageMessage("애니방"))
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	wsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.WriteMessage(websocket.TextMessage, event); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer wsServer.Close()

	core, logs := observer.New(zap.InfoLevel)
	tb := newTestBot(t, testBotOptions{
		logger:       zap.New(core),
		websocketURL: "ws" + strings.TrimPrefix(wsServer.URL, "http"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- tb.Start(ctx)
	}()

	paths := tb.recorder.waitForPaths(t, 3)
	if strings.Join(paths, ",") != "/reply,/delete,/reply" {
		t.Fatalf("unexpected iris traffic %v", paths)
	}
	if logs.FilterMessage("Iris connected, accepting commands").Len() != 1 {
		t.Fatalf("expected connection state to be logged")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := tb.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}
