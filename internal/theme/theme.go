// Package theme defines the widget color themes and the opacity curve.
package theme

import (
	"fmt"
	"math"
)

// RGB is a color triple used as a theme background.
type RGB struct {
	R, G, B uint8
}

// Theme describes one widget color scheme. The UI applies Text and Border
// verbatim; Background is combined with the live transparency level.
type Theme struct {
	Name   string `json:"name"`
	BG     RGB    `json:"-"`
	Text   string `json:"text"`
	Border string `json:"border"`
}

// Themes is the fixed theme list. Dark is index 0 and is the default.
var Themes = []Theme{
	{Name: "Dark", BG: RGB{30, 30, 30}, Text: "#ffffff", Border: "rgba(255,255,255,0.12)"},
	{Name: "Classic", BG: RGB{255, 247, 128}, Text: "#000000", Border: "rgba(0,0,0,0.12)"},
	{Name: "Ocean", BG: RGB{30, 60, 90}, Text: "#ffffff", Border: "rgba(255,255,255,0.12)"},
	{Name: "Rose", BG: RGB{255, 200, 200}, Text: "#000000", Border: "rgba(0,0,0,0.12)"},
	{Name: "Mint", BG: RGB{200, 255, 200}, Text: "#000000", Border: "rgba(0,0,0,0.12)"},
}

// Get returns the theme at index, wrapping out-of-range values to Dark.
func Get(index int) Theme {
	if index < 0 || index >= len(Themes) {
		return Themes[0]
	}
	return Themes[index]
}

// Next returns the index following index, wrapping around the theme list.
func Next(index int) int {
	return (index + 1) % len(Themes)
}

// Background renders a CSS rgba() color for the given base color and alpha.
// Alpha is clamped to [0, 1].
func Background(bg RGB, alpha float64) string {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%g)", bg.R, bg.G, bg.B, alpha)
}

// Curve maps a linear slider position t in [0, 1] to a perceptual alpha.
// The sub-linear exponent keeps the note readable through most of the
// slider's travel instead of washing out early.
func Curve(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return math.Pow(t, 0.4)
}
