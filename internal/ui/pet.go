// Package ui renders the command-line views: the companion sprite,
// the task list, and the progress bar toward the next stage.
package ui

import (
	"charm.land/lipgloss/v2"

	"github.com/hedging-my-bets/petprogress/internal/ui/theme"
)

// Mood selects which rendition of the companion to show.
type Mood int

const (
	MoodIdle        Mood = iota
	MoodCelebrating      // stage just advanced
	MoodWorried          // stage just regressed
)

const spriteEgg = `  ,--.
 /    \
 \    /
  '--'`

const spriteHatchling = `  ,--.
 / ^^ \
 \ -- /
  '||'`

const spriteTadpole = `  o
 ( )~~
  '`

const spriteFroglet = ` @..@
(----)
 ^  ^`

const spriteFrog = ` @..@
(----)
( >< )
 ^^^^`

const spriteTurtle = `    _____
  /  ___  \
 |  / . \  |
  \_\___/_/
    u   u`

const spriteCrab = ` \\ , , //
  (=o.o=)
 / |___| \`

const spriteSeahorse = `  ,~.
 ( e \
  \  }
  / /
 (_/`

const spriteFish = `  ><((('>
`

const spritePenguin = `  .--.
 | o_o|
 |:_/ |
 //   \\
(|     |)`

const spriteOtter = ` (\__/)
 ( o.o )
  > ^ <
 /|   |\`

const spriteFox = ` /\   /\
{  '-'  }
 \ o o /
  ( ^ )`

const spriteWolf = `  /\_/\
 ( 0 0 )
 /  ^  \
(__|_|__)`

const spriteLion = ` ,%%%%%,
%( o o )%
 %\ - /%
   |||`

const spriteDragon = `   /\___/\
  ( =o.o= )>===
  /|  W  |\
 ^^ ^   ^ ^^`

const spritePhoenix = `  \\  //
 ( .  . )
<(   V   )>
  \\VVV//
   ^^^^^`

var sprites = map[string]string{
	"Egg":       spriteEgg,
	"Hatchling": spriteHatchling,
	"Tadpole":   spriteTadpole,
	"Froglet":   spriteFroglet,
	"Frog":      spriteFrog,
	"Turtle":    spriteTurtle,
	"Crab":      spriteCrab,
	"Seahorse":  spriteSeahorse,
	"Fish":      spriteFish,
	"Penguin":   spritePenguin,
	"Otter":     spriteOtter,
	"Fox":       spriteFox,
	"Wolf":      spriteWolf,
	"Lion":      spriteLion,
	"Dragon":    spriteDragon,
	"Phoenix":   spritePhoenix,
}

// RenderPet returns the companion art for the named stage. Unknown
// stage names (custom stage files) fall back to the egg.
func RenderPet(stageName string, mood ...Mood) string {
	m := MoodIdle
	if len(mood) > 0 {
		m = mood[0]
	}

	art, ok := sprites[stageName]
	if !ok {
		art = spriteEgg
	}

	fg := theme.Primary
	switch m {
	case MoodCelebrating:
		fg = theme.Accent
	case MoodWorried:
		fg = theme.TextDim
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Render(art)
}
