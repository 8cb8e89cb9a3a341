package workflow

import "github.com/scopekit/scopekit/internal/unit"

// Kind tags the actionable item variant.
type Kind int

const (
	// KindPlain is an item with no lifecycle; steps on it proceed
	// unconditionally.
	KindPlain Kind = iota + 1

	// KindLifecycleBearing is an item backed by a unit scope; steps on it
	// are confined to the scope's active window.
	KindLifecycleBearing
)

// Item is the actionable item a step operates on, modeled as a tagged
// variant so the confinement decision is made once, when the item enters
// a step, and is exhaustive by construction.
type Item struct {
	kind  Kind
	value any
	scope unit.Scope
}

// Plain creates an item with no lifecycle.
func Plain(value any) Item {
	return Item{kind: KindPlain, value: value}
}

// LifecycleBearing creates an item confined to scope's active window.
func LifecycleBearing(value any, scope unit.Scope) Item {
	return Item{kind: KindLifecycleBearing, value: value, scope: scope}
}

// Kind returns the variant tag.
func (i Item) Kind() Kind {
	return i.kind
}

// Value returns the item's payload.
func (i Item) Value() any {
	return i.value
}

// Scope returns the item's unit scope and whether the item bears one.
func (i Item) Scope() (unit.Scope, bool) {
	if i.kind == KindLifecycleBearing {
		return i.scope, true
	}
	return nil, false
}
