package format

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines the colors used for records and the pager chrome. Colors are
// ANSI indexes ("9") or hex values ("#c94f6d"); empty means the terminal
// default.
type Theme struct {
	Name string

	// Pager chrome
	Background  string
	Surface     string
	Border      string
	SelectionBg string

	// Text colors
	Text    string // info messages
	Muted   string // info timestamps and fields
	Faint   string // stack traces and structured context
	Accent  string
	Warning string // diagnostics
	Danger  string // error timestamps and fields
	Alert   string // error messages and summaries
	Info    string
}

// Styles returns lipgloss styles for this theme bound to r. Tabs are left
// alone so stack traces keep their indentation.
func (t Theme) Styles(r *lipgloss.Renderer) Styles {
	text := func(c string) lipgloss.Style {
		return r.NewStyle().
			Foreground(color(c)).
			TabWidth(lipgloss.NoTabConversion)
	}
	return Styles{
		Text:    text(t.Text),
		Muted:   text(t.Muted),
		Faint:   text(t.Faint),
		Accent:  text(t.Accent),
		Warning: text(t.Warning),
		Danger:  text(t.Danger),
		Alert:   text(t.Alert),
		Info:    text(t.Info),
		Rule:    text(t.Border),

		HelpBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color(t.Border)).
			Padding(1, 2).
			Width(40),
		Backdrop: color(t.Background),

		StatusBar: r.NewStyle().
			Background(color(t.Surface)).
			Foreground(color(t.Text)).
			Padding(0, 1),

		Match: r.NewStyle().
			Background(color(t.SelectionBg)).
			Foreground(color(t.Text)).
			TabWidth(lipgloss.NoTabConversion),
	}
}

// Styles contains pre-built lipgloss styles for a theme.
type Styles struct {
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Faint   lipgloss.Style
	Accent  lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
	Alert   lipgloss.Style
	Info    lipgloss.Style
	Rule    lipgloss.Style

	HelpBox  lipgloss.Style
	Backdrop lipgloss.TerminalColor

	StatusBar lipgloss.Style
	Match     lipgloss.Style
}

// NewRenderer returns a renderer that emits escapes for profile regardless of
// where the output ends up.
func NewRenderer(profile termenv.Profile) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)
	return r
}

func color(c string) lipgloss.TerminalColor {
	if c == "" {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(c)
}

// Theme definitions

var themes = map[string]Theme{
	"Classic":  classicTheme(),
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Classic", "Nightfox", "Kanagawa", "Slate"}

// DefaultTheme is used when no theme is configured.
const DefaultTheme = "Classic"

// GetTheme returns a theme by name, falling back to Classic.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return classicTheme()
}

// HasTheme reports whether name is a known theme.
func HasTheme(name string) bool {
	_, ok := themes[name]
	return ok
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func classicTheme() Theme {
	// 16-color palette, works on any terminal
	return Theme{
		Name: "Classic",

		Surface:     "0",
		Border:      "8",
		SelectionBg: "4",

		Text:    "",
		Muted:   "7",
		Faint:   "8",
		Accent:  "12",
		Warning: "11",
		Danger:  "9",
		Alert:   "1",
		Info:    "6",
	}
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: "Nightfox",

		Background:  "#131a24", // bg0
		Surface:     "#192330", // bg1
		Border:      "#39506d", // bg4
		SelectionBg: "#2b3b51", // sel0

		Text:    "#cdcecf", // fg1
		Muted:   "#738091", // comment
		Faint:   "#71839b", // fg3
		Accent:  "#719cd6", // blue
		Warning: "#dbc074", // yellow
		Danger:  "#c94f6d", // red
		Alert:   "#d16983", // red bright
		Info:    "#63cdcf", // cyan
	}
}

func kanagawaTheme() Theme {
	// Kanagawa palette: https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name: "Kanagawa",

		Background:  "#16161D", // sumiInk0
		Surface:     "#1F1F28", // sumiInk3
		Border:      "#54546D", // sumiInk6
		SelectionBg: "#2D4F67", // waveBlue1

		Text:    "#DCD7BA", // fujiWhite
		Muted:   "#C8C093", // oldWhite
		Faint:   "#727169", // fujiGray
		Accent:  "#7E9CD8", // crystalBlue
		Warning: "#E6C384", // carpYellow
		Danger:  "#E46876", // waveRed
		Alert:   "#E82424", // samuraiRed
		Info:    "#7FB4CA", // springBlue
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",

		Background:  "#020617", // slate-950
		Surface:     "#0f172a", // slate-900
		Border:      "#334155", // slate-700
		SelectionBg: "#0284c7", // sky-600

		Text:    "#f1f5f9", // slate-100
		Muted:   "#94a3b8", // slate-400
		Faint:   "#64748b", // slate-500
		Accent:  "#38bdf8", // sky-400
		Warning: "#f59e0b", // amber-500
		Danger:  "#ef4444", // red-500
		Alert:   "#dc2626", // red-600
		Info:    "#06b6d4", // cyan-500
	}
}
