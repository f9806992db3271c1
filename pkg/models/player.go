package models

import (
	"time"

	"github.com/gravitas-games/slotgui/internal/gui"
)

// Player represents a connected player. It is the viewer every layout is
// shown to.
type Player struct {
	// From JWT claims
	ID          string `json:"id"`          // Converted from int64 user_id
	Username    string `json:"username"`    // JWT claim
	Email       string `json:"email"`       // JWT claim
	Permissions int64  `json:"permissions"` // JWT claim: bitwise permission flags
	Activated   int64  `json:"activated"`   // JWT claim: activation timestamp or ban status
	AuthMethod  string `json:"auth_method"` // JWT claim: "password" or "oauth"

	// Connection state
	Connected   bool      `json:"connected"`
	ConnectedAt time.Time `json:"connected_at"`

	// Window state, owned by the session goroutine
	Layout    string    `json:"layout,omitempty"`  // open layout, empty when none
	Version   string    `json:"version,omitempty"` // negotiated frame version
	Inventory gui.Slots `json:"-"`                 // hotbar 0-8, storage 9-35
}

// NewPlayer creates a player with an empty personal inventory.
func NewPlayer(id, username string) *Player {
	return &Player{
		ID:        id,
		Username:  username,
		Inventory: gui.NewSlots(gui.PersonalSlots),
	}
}

// ViewerID implements gui.Viewer.
func (p *Player) ViewerID() gui.ViewerID { return gui.ViewerID(p.ID) }

// Personal implements gui.Viewer.
func (p *Player) Personal() gui.Container {
	if p.Inventory == nil {
		p.Inventory = gui.NewSlots(gui.PersonalSlots)
	}
	return p.Inventory
}

// IsActive checks if the player account is activated and not banned
func (p *Player) IsActive() bool {
	// activated > 0 means activated
	// activated == 0 means not activated
	// activated == -1 means banned
	return p.Activated > 0
}

// IsBanned checks if the player is banned
func (p *Player) IsBanned() bool {
	return p.Activated == -1
}

// HasOpenLayout reports whether a window is open
func (p *Player) HasOpenLayout() bool {
	return p.Layout != ""
}
