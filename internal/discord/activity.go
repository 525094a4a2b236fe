package discord

import "encoding/json"

// ActivityType selects the verb shown by the chat client.
type ActivityType int

const (
	ActivityPlaying   ActivityType = 0
	ActivityListening ActivityType = 2
	ActivityWatching  ActivityType = 3
)

// Activity is the SET_ACTIVITY document. Timestamps are Unix milliseconds.
type Activity struct {
	Details    string       `json:"details,omitempty"`
	State      string       `json:"state,omitempty"`
	Type       ActivityType `json:"type"`
	Timestamps *Timestamps  `json:"timestamps,omitempty"`
	Assets     *Assets      `json:"assets,omitempty"`
	Buttons    []Button     `json:"buttons,omitempty"`
}

// Timestamps drive the client-side elapsed/remaining display.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

// Assets reference images by uploaded asset key or external URL.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Button is a link rendered under the activity. The service accepts at most two.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// MaxButtons is the service limit on buttons per activity.
const MaxButtons = 2

type handshake struct {
	Version  int    `json:"v"`
	ClientID string `json:"client_id"`
}

type command struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args,omitempty"`
	Nonce string `json:"nonce,omitempty"`
}

type setActivityArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity"`
}

type event struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

// User is the account the chat client reports on READY.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type readyData struct {
	User User `json:"user"`
}

type errorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
