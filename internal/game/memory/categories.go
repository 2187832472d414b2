package memory

import (
	"math/rand"
	"sort"
)

// Categories maps each emoji category name to the symbols cards are dealt
// from. A category must hold at least as many unique symbols as the largest
// grid needs pairs (12 for 5x5).
var Categories = map[string][]string{
	"food":    {"🍎", "🍕", "🍔", "🌮", "🍦", "🍰", "🍫", "🥑", "🍓", "🍇", "🍪", "🥕", "🥨", "🥩", "🍜"},
	"animals": {"🐶", "🐱", "🐭", "🐰", "🦊", "🐻", "🐼", "🐨", "🐯", "🦁", "🐮", "🐷", "🐸", "🐔", "🦄"},
	"faces":   {"😀", "😂", "🥰", "😎", "🤔", "😴", "🥳", "😇", "🤠", "🤡", "😺", "🤖", "👻", "👽", "🎃"},
	"nature":  {"🌸", "🌺", "🌻", "🌼", "🌷", "🌹", "🍀", "🌿", "🌴", "🌲", "🍁", "⭐", "🌙", "☀️", "⛅"},
	"objects": {"📱", "💻", "⌚", "📷", "🎮", "🎨", "📚", "✏️", "🎵", "🎸", "⚽", "🎲", "🎭", "🎪", "🎁"},
	"hearts":  {"❤️", "🧡", "💛", "💚", "💙", "💜", "🤎", "🖤", "🤍", "💖", "💗", "💓", "💝", "💕", "💞"},
	"travel":  {"✈️", "🚗", "🚲", "⛵", "🚁", "🚂", "🎡", "🗽", "🗼", "🏰", "⛩️", "🏖️", "🌋", "🗻", "🌉"},
	"sports":  {"⚽", "🏀", "🏈", "⚾", "🥎", "🎾", "🏐", "🏉", "🥏", "🎱", "🏓", "🏸", "🏒", "⛳", "🥊"},
	"moon":    {"🌑", "🌒", "🌓", "🌔", "🌕", "🌖", "🌗", "🌘", "🌙", "🌚", "🌛", "🌜", "🌝", "🌞", "⭐"},
	"fruits":  {"🍎", "🍐", "🍊", "🍋", "🍌", "🍉", "🍇", "🍓", "🫐", "🍈", "🍒", "🍑", "🥭", "🍍", "🥝"},
	"tech":    {"📱", "💻", "⌨️", "🖥️", "🖱️", "💾", "💿", "📼", "📟", "📠", "📺", "📻", "🔋", "🔌", "🧮"},
	"weather": {"☀️", "🌤️", "⛅", "🌥️", "☁️", "🌦️", "🌧️", "⛈️", "🌩️", "🌨️", "❄️", "💨", "🌪️", "🌫️", "☔"},
}

// ValidCategory reports whether name is a known emoji category.
func ValidCategory(name string) bool {
	_, ok := Categories[name]
	return ok
}

// RandomCategory picks one of the configured categories.
func RandomCategory() string {
	names := CategoryNames()
	return names[rand.Intn(len(names))]
}

// CategoryNames returns the category names in stable sorted order.
func CategoryNames() []string {
	names := make([]string, 0, len(Categories))
	for name := range Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
