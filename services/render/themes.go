package render

import (
	"fmt"
	"strings"
)

type Theme struct {
	Name       string
	Primary    string
	Secondary  string
	Accent     string
	Success    string
	Background string
}

var themes = map[string]Theme{
	"light": {
		Name:       "light",
		Primary:    "#2196F3",
		Secondary:  "#64B5F6",
		Accent:     "#FFC107",
		Success:    "#4CAF50",
		Background: "#F5F7FA",
	},
	"classic": {
		Name:       "classic",
		Primary:    "#1976D2",
		Secondary:  "#455A64",
		Accent:     "#FF9800",
		Success:    "#388E3C",
		Background: "#FAFAFA",
	},
	"vibrant": {
		Name:       "vibrant",
		Primary:    "#E91E63",
		Secondary:  "#9C27B0",
		Accent:     "#00BCD4",
		Success:    "#8BC34A",
		Background: "#FFF3E0",
	},
}

// ThemeByName falls back to the light theme for unknown names.
func ThemeByName(name string) Theme {
	if theme, ok := themes[name]; ok {
		return theme
	}
	return themes["light"]
}

type classReplacement struct {
	old  string
	repl string
}

// colorClassReplacements maps the generic tailwind color classes the
// templates use onto theme scoped ones. Order matters, from-blue-500
// has to go before its prefix from-blue-50.
func colorClassReplacements(name string) []classReplacement {
	return []classReplacement{
		{"from-blue-500", "from-" + name + "-primary"},
		{"via-purple-500", "via-" + name + "-secondary"},
		{"to-pink-500", "to-" + name + "-accent"},
		{"text-blue-600", "text-" + name + "-primary"},
		{"text-blue-700", "text-" + name + "-primary"},
		{"bg-blue-600", "bg-" + name + "-primary"},

		{"bg-green-600", "bg-" + name + "-success"},
		{"text-green-600", "text-" + name + "-success"},
		{"border-green-500", "border-" + name + "-success"},
		{"ring-green-200", "ring-" + name + "-success/30"},
		{"from-green-50", "from-" + name + "-success/10"},
		{"to-emerald-50", "to-" + name + "-success/20"},

		{"from-blue-50", "from-" + name + "-primary/10"},
		{"to-indigo-50", "to-" + name + "-secondary/20"},
		{"border-blue-500", "border-" + name + "-primary"},

		{"text-purple-600", "text-" + name + "-secondary"},
		{"text-pink-600", "text-" + name + "-accent"},
	}
}

// applyTheme post processes rendered markup. It fills color tokens the
// raw svg assets carry, rewrites generic color classes to theme scoped
// ones and injects the theme palette as css variables on the body tag.
func applyTheme(html string, theme Theme) string {
	html = strings.NewReplacer(
		"{{primary_color}}", theme.Primary,
		"{{secondary_color}}", theme.Secondary,
		"{{accent_color}}", theme.Accent,
		"{{success_color}}", theme.Success,
		"{{background_color}}", theme.Background,
	).Replace(html)

	for _, replacement := range colorClassReplacements(theme.Name) {
		html = strings.ReplaceAll(html, replacement.old, replacement.repl)
	}

	// A declaration with a colon means the vars were already injected.
	// The stylesheet only ever consumes them through var().
	if strings.Contains(html, "<body") && !strings.Contains(html, "--theme-primary:") {
		vars := fmt.Sprintf(
			`style="--theme-primary: %s; --theme-secondary: %s; --theme-accent: %s; --theme-success: %s; --theme-background: %s;" `,
			theme.Primary, theme.Secondary, theme.Accent, theme.Success, theme.Background,
		)
		html = strings.Replace(html, `<body class="theme-`, `<body `+vars+`class="theme-`, 1)
	}
	return html
}
