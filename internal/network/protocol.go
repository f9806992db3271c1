package network

import "encoding/json"

// Message types - Client → Server
const (
	MsgTypeOpen      = "open"
	MsgTypeClick     = "click"
	MsgTypeClose     = "close"
	MsgTypeInventory = "inventory"
	MsgTypePing      = "ping"
)

// Message types - Server → Client
const (
	MsgTypeFrame      = "frame"
	MsgTypeFrameDelta = "frame_delta"
	MsgTypeClosed     = "closed"
	MsgTypeError      = "error"
	MsgTypePong       = "pong"
)

// Click regions
const (
	RegionTop      = "top"
	RegionPersonal = "personal"
	RegionOutside  = "outside"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SlotItem is the content of one physical slot. A nil *SlotItem is an
// empty slot.
type SlotItem struct {
	Key      string   `json:"key,omitempty"`
	Material string   `json:"material"`
	Amount   int      `json:"amount"`
	Name     string   `json:"name,omitempty"`
	Lore     []string `json:"lore,omitempty"`
}

// --- Client Message Payloads ---

// OpenPayload asks the server to show a layout. Version selects the frame
// format; empty means the server default.
type OpenPayload struct {
	Layout  string `json:"layout"`
	Version string `json:"version,omitempty"`
}

// ClickPayload reports a click on a slot of the open window
type ClickPayload struct {
	Region string    `json:"region"`
	Slot   int       `json:"slot"`
	Item   *SlotItem `json:"item,omitempty"` // what the client saw in the slot
}

// InventoryPayload replaces the player's personal inventory (36 slots,
// hotbar first)
type InventoryPayload struct {
	Slots []*SlotItem `json:"slots"`
}

// --- Server Message Payloads ---

// FramePayload is a full snapshot of the open window (version v1). Personal
// is omitted while the player's own items are on display.
type FramePayload struct {
	Layout   string      `json:"layout"`
	Title    string      `json:"title"`
	Seq      int64       `json:"seq"`
	Top      []*SlotItem `json:"top"`
	Personal []*SlotItem `json:"personal,omitempty"`
}

// SlotChange is a single changed slot in a delta frame
type SlotChange struct {
	Slot int       `json:"slot"`
	Item *SlotItem `json:"item"`
}

// FrameDeltaPayload lists only the slots that changed since the previous
// frame (version v2). Full is set when the client must reset its window
// first.
type FrameDeltaPayload struct {
	Layout      string       `json:"layout"`
	Title       string       `json:"title"`
	Seq         int64        `json:"seq"`
	Full        bool         `json:"full"`
	TopSize     int          `json:"top_size"`
	OwnPersonal bool         `json:"own_personal"`
	Top         []SlotChange `json:"top,omitempty"`
	Personal    []SlotChange `json:"personal,omitempty"`
}

// ClosedPayload tells the client its window was closed by the server
type ClosedPayload struct {
	Layout string `json:"layout"`
	Reason string `json:"reason"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// PongPayload answers a ping
type PongPayload struct {
	Timestamp int64 `json:"timestamp"`
}
