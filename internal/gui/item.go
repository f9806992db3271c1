package gui

// ActivateFunc is invoked when a slot is activated.
type ActivateFunc func(ev *ActivationEvent)

// Item is a single visual unit placed in a pane.
type Item struct {
	key        ItemKey
	display    Stack
	visible    bool
	onActivate ActivateFunc
}

// NewItem creates a visible item. The display stack is copied and tagged
// with key.
func NewItem(key ItemKey, display Stack, onActivate ActivateFunc) *Item {
	d := *display.Clone()
	d.Key = key
	return &Item{
		key:        key,
		display:    d,
		visible:    true,
		onActivate: onActivate,
	}
}

// Key returns the item's identity.
func (it *Item) Key() ItemKey { return it.key }

// Visible reports whether the item is drawn and clickable.
func (it *Item) Visible() bool { return it.visible }

// SetVisible toggles the item.
func (it *Item) SetVisible(v bool) { it.visible = v }

// Display returns a copy of the item's display stack.
func (it *Item) Display() Stack { return *it.display.Clone() }

// SetDisplay replaces the display stack, keeping the item's key.
func (it *Item) SetDisplay(s Stack) {
	it.display = *s.Clone()
	it.display.Key = it.key
}

// OnActivate replaces the activation callback. A nil fn removes it.
func (it *Item) OnActivate(fn ActivateFunc) { it.onActivate = fn }

// Copy returns an independent item with the same key, display and callback.
// Panes copy items on add when the same item should appear in two places.
func (it *Item) Copy() *Item {
	c := *it
	c.display = *it.display.Clone()
	return &c
}

// empty reports whether the item draws nothing.
func (it *Item) empty() bool {
	return it == nil || it.display.Material == ""
}

// drawable reports whether the item should be written by a render pass.
func (it *Item) drawable() bool {
	return !it.empty() && it.visible
}

// stack returns the payload written into physical slots.
func (it *Item) stack() *Stack {
	if it == nil {
		return nil
	}
	return it.display.Clone()
}
