// Package icon renders status symbols in the variant chosen by icons.variant.
package icon

import (
	"github.com/playcore/playcore/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants lists every supported icon variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Icon identifies a symbol.
type Icon int

const (
	Fail Icon = iota + 1
	Success
	Play
	Pause
	Stop
	Buffering
	Event
)

var icons = map[Icon]*iconDef{
	Fail:      {emoji: "💀", nerd: "", plain: "x", squares: "▪"},
	Success:   {emoji: "🎉", nerd: "", plain: "+", squares: "▫"},
	Play:      {emoji: "▶️", nerd: "", plain: ">", squares: "▸"},
	Pause:     {emoji: "⏸️", nerd: "", plain: "=", squares: "▮"},
	Stop:      {emoji: "⏹️", nerd: "", plain: "#", squares: "■"},
	Buffering: {emoji: "⏳", nerd: "", plain: "~", squares: "◌"},
	Event:     {emoji: "📣", nerd: "", plain: "*", squares: "□"},
}

// Get returns the symbol for i in the configured variant.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}
	return def.Get()
}
