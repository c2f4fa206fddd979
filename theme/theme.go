package theme

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Theme is a colour palette applied to the whole UI.
type Theme struct {
	Name       string
	Primary    string // hex, e.g. "#c2185b"
	Accent     string
	Background string
}

func (t Theme) IsZero() bool { return t == Theme{} }

func (t Theme) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Primary
}

// CSS renders the palette as CSS custom properties.
func (t Theme) CSS() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--primary: %s;\n", t.Primary)
	fmt.Fprintf(&b, "--accent: %s;\n", t.Accent)
	fmt.Fprintf(&b, "--background: %s;\n", t.Background)
	return b.String()
}

// Default is the palette in effect before any change is revealed.
var Default = Theme{Name: "slate", Primary: "#5f87af", Accent: "#87afd7", Background: "#1c1c1c"}

var Palettes = []Theme{
	{Name: "pink", Primary: "#d6336c", Accent: "#f06595", Background: "#2b1620"},
	{Name: "teal", Primary: "#0c8599", Accent: "#22b8cf", Background: "#10262a"},
	{Name: "green", Primary: "#37b24d", Accent: "#69db7c", Background: "#14261a"},
	{Name: "orange", Primary: "#e8590c", Accent: "#ff922b", Background: "#2b1c12"},
	{Name: "blue-purple", Primary: "#5f3dc4", Accent: "#845ef7", Background: "#1b1630"},
}

// Request is what a resolver sees of a submitted input.
type Request struct {
	ID    string
	Input string
	Voice bool
}

type Resolver interface {
	Resolve(ctx context.Context, req Request) (Theme, error)
}

type ResolverFunc func(ctx context.Context, req Request) (Theme, error)

func (f ResolverFunc) Resolve(ctx context.Context, req Request) (Theme, error) { return f(ctx, req) }

type Applier interface {
	Apply(t Theme)
}

// Current holds the applied theme. Safe for concurrent use.
type Current struct {
	mu       sync.RWMutex
	theme    Theme
	onChange func(Theme)
}

func NewCurrent(initial Theme, onChange func(Theme)) *Current {
	return &Current{theme: initial, onChange: onChange}
}

func (c *Current) Apply(t Theme) {
	c.mu.Lock()
	c.theme = t
	cb := c.onChange
	c.mu.Unlock()
	if cb != nil {
		cb(t)
	}
}

func (c *Current) Get() Theme {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.theme
}
