package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"goals/internal/core"
)

// EmojiPicker reports one selected glyph to its caller. It holds no state.
type EmojiPicker struct {
	OnSelect func(glyph string)
	// OnClose is optional.
	OnClose func()
}

// Select reports glyph through OnSelect, then requests closure. Input that
// is not a single emoji returns core.ErrInvalidEmoji and calls nothing.
func (p EmojiPicker) Select(glyph string) error {
	if !IsSingleEmoji(glyph) {
		return core.ErrInvalidEmoji
	}
	if p.OnSelect != nil {
		p.OnSelect(glyph)
	}
	if p.OnClose != nil {
		p.OnClose()
	}
	return nil
}

// IsSingleEmoji reports whether s is exactly one grapheme cluster outside
// the ASCII range. Flags, skin tones and ZWJ sequences count as one.
func IsSingleEmoji(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r < utf8.RuneSelf {
		return false
	}
	return uniseg.GraphemeClusterCount(s) == 1
}

type EmojiCategory struct {
	Name   string
	Emojis []string
}

// EmojiCatalog is the selection offered by the HTML picker.
var EmojiCatalog = []EmojiCategory{
	{Name: "Money", Emojis: []string{"💰", "💵", "💶", "💷", "💴", "💳", "🪙", "🏦", "📈", "🐷"}},
	{Name: "Travel", Emojis: []string{"✈️", "🏖️", "🏝️", "🗺️", "🧳", "🚗", "🚲", "🏕️", "🚢", "🗼"}},
	{Name: "Home", Emojis: []string{"🏠", "🛋️", "🛏️", "🔨", "🪴", "🧺", "🚿", "🔑"}},
	{Name: "Life", Emojis: []string{"🎓", "💍", "👶", "🐶", "🐱", "🎁", "🎂", "🩺", "🛟"}},
	{Name: "Fun", Emojis: []string{"🎮", "🎸", "📷", "📚", "⚽", "🎿", "🎟️", "💻", "📱"}},
}
