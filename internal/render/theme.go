package render

import "github.com/hyperifyio/readscroll/internal/session"

// Theme holds the colors of one reader theme.
type Theme struct {
	Background string
	Color      string
	Shadow     string
	Link       string
	Heading    string
	Border     string
	// Code is the background of pre and code blocks.
	Code string
}

var themes = map[string]Theme{
	session.ThemeLight: {
		Background: "white", Color: "black", Shadow: "rgba(0, 0, 0, 0.1)",
		Link: "#0366d6", Heading: "#111", Border: "#e1e4e8", Code: "#f6f8fa",
	},
	session.ThemeDark: {
		Background: "#222", Color: "#eee", Shadow: "rgba(0, 0, 0, 0.3)",
		Link: "#58a6ff", Heading: "#fff", Border: "#30363d", Code: "#2d333b",
	},
	session.ThemeRainbow: {
		Background: "lightblue", Color: "black", Shadow: "rgba(0, 0, 0, 0.1)",
		Link: "#0366d6", Heading: "#111", Border: "#e1e4e8", Code: "#f6f8fa",
	},
	session.ThemeStarWars: {
		Background: "#000", Color: "#ffe81f", Shadow: "rgba(0,0,0,1)",
		Link: "#ffe81f", Heading: "#ffe81f", Border: "#000", Code: "#2d333b",
	},
}

// ThemeFor returns the named theme, falling back to light.
func ThemeFor(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[session.ThemeLight]
}

func imageWidth(size string) string {
	switch size {
	case "large":
		return "120%"
	case "small":
		return "80%"
	}
	return "100%"
}
