package iris

type Config struct {
	Port              int    `json:"port"`
	PollingSpeed      int    `json:"pollingSpeed"`
	MessageRate       int    `json:"messageRate"`
	WebserverEndpoint string `json:"webserverEndpoint"`
}

// Reply types understood by POST /reply.
const (
	ReplyTypeText    = "text"
	ReplyTypeMessage = "message"
	ReplyTypeForward = "forward"
)

// ReplyRequest is the body of POST /reply. Data is a string for text replies
// and a []ReplySegment for message and forward replies.
type ReplyRequest struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Data    any    `json:"data"`
	ReplyTo string `json:"reply_to,omitempty"`
}

type ReplySegment struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

type ReplyResponse struct {
	MessageIDs []string `json:"message_ids"`
}

type DeleteRequest struct {
	Room      string `json:"room"`
	MessageID string `json:"message_id"`
}

type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// MessageJSON is the raw chat log row. Attachment is itself a JSON document
// whose shape depends on Type.
type MessageJSON struct {
	ID         string `json:"id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Message    string `json:"message,omitempty"`
	ChatID     string `json:"chat_id,omitempty"`
	Type       string `json:"type,omitempty"`
	Attachment string `json:"attachment,omitempty"`
	Platform   string `json:"platform,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// KakaoTalk chat log types carrying media.
const (
	ChatTypePhoto      = "2"
	ChatTypeVideo      = "3"
	ChatTypeMultiPhoto = "27"
)

type WebSocketState string

const (
	WSStateConnecting   WebSocketState = "CONNECTING"
	WSStateConnected    WebSocketState = "CONNECTED"
	WSStateDisconnected WebSocketState = "DISCONNECTED"
	WSStateReconnecting WebSocketState = "RECONNECTING"
	WSStateFailed       WebSocketState = "FAILED"
)

func (s WebSocketState) String() string {
	return string(s)
}
