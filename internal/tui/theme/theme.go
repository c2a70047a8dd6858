// Package theme defines color themes for the pburn TUI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps color roles to concrete colors.
type Theme struct {
	Name         string
	Background   lipgloss.Color
	Surface      lipgloss.Color // cards and panels
	SurfaceHover lipgloss.Color // selected row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color
	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	// Budget health: under the warning threshold, at or above it, over budget.
	Healthy lipgloss.Color
	Warning lipgloss.Color
	Over    lipgloss.Color

	Chart []lipgloss.Color // category series
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   "#100F0F",
	Surface:      "#1C1B1A",
	SurfaceHover: "#282726",
	Border:       "#403E3C",
	BorderAccent: "#3AA99F",
	TextDim:      "#575653",
	TextMuted:    "#878580",
	TextPrimary:  "#FFFCF0",
	Accent:       "#3AA99F",
	AccentBright: "#5BC8BE",
	Healthy:      "#879A39",
	Warning:      "#DA702C",
	Over:         "#D14D41",
	Chart:        []lipgloss.Color{"#4385BE", "#24837B", "#CE5D97", "#D0A215", "#879A39"},
}

// CatppuccinMocha is a soft pastel theme.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   "#1E1E2E",
	Surface:      "#313244",
	SurfaceHover: "#45475A",
	Border:       "#585B70",
	BorderAccent: "#89B4FA",
	TextDim:      "#6C7086",
	TextMuted:    "#A6ADC8",
	TextPrimary:  "#CDD6F4",
	Accent:       "#89B4FA",
	AccentBright: "#B4D0FB",
	Healthy:      "#A6E3A1",
	Warning:      "#FAB387",
	Over:         "#F38BA8",
	Chart:        []lipgloss.Color{"#89B4FA", "#94E2D5", "#F5C2E7", "#F9E2AF", "#A6E3A1"},
}

// TokyoNight is a cool blue and purple theme.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   "#1A1B26",
	Surface:      "#24283B",
	SurfaceHover: "#343A52",
	Border:       "#565F89",
	BorderAccent: "#7AA2F7",
	TextDim:      "#565F89",
	TextMuted:    "#A9B1D6",
	TextPrimary:  "#C0CAF5",
	Accent:       "#7AA2F7",
	AccentBright: "#A9C1FF",
	Healthy:      "#9ECE6A",
	Warning:      "#FF9E64",
	Over:         "#F7768E",
	Chart:        []lipgloss.Color{"#7AA2F7", "#7DCFFF", "#BB9AF7", "#E0AF68", "#9ECE6A"},
}

// Terminal uses the ANSI 16 palette only.
var Terminal = Theme{
	Name:         "terminal",
	Background:   "0",
	Surface:      "0",
	SurfaceHover: "8",
	Border:       "8",
	BorderAccent: "6",
	TextDim:      "8",
	TextMuted:    "7",
	TextPrimary:  "15",
	Accent:       "6",
	AccentBright: "14",
	Healthy:      "2",
	Warning:      "3",
	Over:         "1",
	Chart:        []lipgloss.Color{"4", "6", "5", "3", "2"},
}

// All available themes, default first.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// Names returns the name of every available theme.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Health returns the color for a spent percentage against a warning
// threshold. ok is false when the percentage is undefined.
func (t Theme) Health(pct float64, ok bool, warnPercent float64) lipgloss.Color {
	switch {
	case !ok:
		return t.TextMuted
	case pct > 100:
		return t.Over
	case pct >= warnPercent:
		return t.Warning
	default:
		return t.Healthy
	}
}

// ChartColor returns the i-th series color, cycling.
func (t Theme) ChartColor(i int) lipgloss.Color {
	if len(t.Chart) == 0 {
		return t.Accent
	}
	return t.Chart[i%len(t.Chart)]
}
