package constants

import "time"

var WebSocketConfig = struct {
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	HandshakeTimeout     time.Duration
}{
	MaxReconnectAttempts: 5,
	ReconnectDelay:       5 * time.Second,
	HandshakeTimeout:     10 * time.Second,
}

var APIConfig = struct {
	TraceMoeBaseURL string
	TraceMoeTimeout time.Duration
	IrisTimeout     time.Duration
	MaxErrorBody    int
}{
	TraceMoeBaseURL: "https://api.trace.moe",
	TraceMoeTimeout: 30 * time.Second,
	IrisTimeout:     10 * time.Second,
	MaxErrorBody:    512,
}

var RecognitionDefaults = struct {
	MinSimilarity float64
	Concurrency   int
}{
	MinSimilarity: 87,
	Concurrency:   8,
}

// ForwardPlatform is the only platform whose bridge renders forward bundles.
const ForwardPlatform = "onebot"

// DefaultPlatform is reported for Iris events that do not name a platform.
const DefaultPlatform = "kakaotalk"

// CommandAliases maps user-typed command words to registry keys.
var CommandAliases = struct {
	Trace []string
	Help  []string
}{
	Trace: []string{"애니검색", "짤검색", "trace", "tracemoe", "以图识番"},
	Help:  []string{"도움말", "도움", "help", "명령어"},
}

var Messages = struct {
	NoImage        string
	Placeholder    string
	NoResult       string
	BelowThreshold string
	Failed         string
	ResultHeader   string
	UnknownEpisode string
}{
	NoImage:        "검색할 이미지를 명령어와 함께 첨부해 주세요.",
	Placeholder:    "검색 중입니다. 잠시만 기다려 주세요...",
	NoResult:       "검색 결과를 찾지 못했습니다.",
	BelowThreshold: "가장 유사한 결과의 유사도(%s%%)가 설정된 기준(%s%%)보다 낮습니다.",
	Failed:         "검색에 실패했습니다. 네트워크 문제이거나 API를 일시적으로 사용할 수 없습니다.",
	ResultHeader:   "【검색 결과】",
	UnknownEpisode: "알 수 없음",
}
