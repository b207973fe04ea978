package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThemeByName(t *testing.T) {
	require.Equal(t, "#2196F3", ThemeByName("light").Primary)
	require.Equal(t, "#1976D2", ThemeByName("classic").Primary)
	require.Equal(t, "#E91E63", ThemeByName("vibrant").Primary)
	require.Equal(t, "light", ThemeByName("no-such-theme").Name)
	require.Equal(t, "light", ThemeByName("").Name)
}

func TestApplyThemeFillsColorTokens(t *testing.T) {
	input := `<path fill="{{primary_color}}"/><path fill="{{secondary_color}}"/><rect fill="{{background_color}}"/>`
	out := applyTheme(input, ThemeByName("vibrant"))

	require.Contains(t, out, `fill="#E91E63"`)
	require.Contains(t, out, `fill="#9C27B0"`)
	require.Contains(t, out, `fill="#FFF3E0"`)
	require.NotContains(t, out, "{{")
}

func TestApplyThemeRewritesColorClasses(t *testing.T) {
	input := `<div class="from-blue-500 via-purple-500 to-pink-500 text-blue-600 border-green-500"></div>`
	out := applyTheme(input, ThemeByName("classic"))

	require.Contains(t, out, "from-classic-primary")
	require.Contains(t, out, "via-classic-secondary")
	require.Contains(t, out, "to-classic-accent")
	require.Contains(t, out, "text-classic-primary")
	require.Contains(t, out, "border-classic-success")
	require.NotContains(t, out, "from-blue-500")
}

func TestApplyThemeClassOrder(t *testing.T) {
	// from-blue-50 is a prefix of from-blue-500. Replacing the shorter
	// class first would mangle the longer one into primary/100.
	input := `<div class="from-blue-500"></div><div class="from-blue-50"></div>`
	out := applyTheme(input, ThemeByName("light"))

	require.Contains(t, out, `class="from-light-primary"`)
	require.Contains(t, out, `class="from-light-primary/10"`)
	require.NotContains(t, out, "/100")
}

func TestApplyThemeInjectsCssVars(t *testing.T) {
	input := `<html><head><style>.badge { background: var(--theme-primary); }</style></head><body class="theme-light"><p>hi</p></body></html>`
	out := applyTheme(input, ThemeByName("light"))

	require.Contains(t, out, "--theme-primary: #2196F3;")
	require.Contains(t, out, "--theme-secondary: #64B5F6;")
	require.Contains(t, out, "--theme-success: #4CAF50;")
	require.Contains(t, out, `<body style="--theme-primary:`)
}

func TestApplyThemeInjectionIsIdempotent(t *testing.T) {
	input := `<body class="theme-vibrant"></body>`
	out := applyTheme(applyTheme(input, ThemeByName("vibrant")), ThemeByName("vibrant"))

	require.Equal(t, 1, strings.Count(out, "--theme-primary: #E91E63;"))
}

func TestApplyThemeSkipsBodylessFragments(t *testing.T) {
	out := applyTheme(`<div class="text-blue-600"></div>`, ThemeByName("light"))

	require.NotContains(t, out, "--theme-primary")
	require.Contains(t, out, "text-light-primary")
}
