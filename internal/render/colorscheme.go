package render

import "strings"

// ColorScheme defines the palette a board is drawn with.
type ColorScheme struct {
	Name           string
	BoardLight     string
	BoardDark      string
	PointLight     string
	PointDark      string
	CheckerTop     string
	CheckerBottom  string
	CheckerBorder  string
	Bar            string
	Text           string
	Bearoff        string
}

var Classic = ColorScheme{
	Name: "Classic", BoardLight: "#DEB887", BoardDark: "#8B4513",
	PointLight: "#F5DEB3", PointDark: "#8B4513",
	CheckerTop: "#FFFFFF", CheckerBottom: "#000000", CheckerBorder: "#333333",
	Bar: "#654321", Text: "#000000", Bearoff: "#DEB887",
}

var Forest = ColorScheme{
	Name: "Forest", BoardLight: "#A8C5A0", BoardDark: "#3D5A3D",
	PointLight: "#C9D9C4", PointDark: "#5F7A5F",
	CheckerTop: "#F5F5DC", CheckerBottom: "#6B4423", CheckerBorder: "#3D5A3D",
	Bar: "#4A6147", Text: "#000000", Bearoff: "#A8C5A0",
}

var Ocean = ColorScheme{
	Name: "Ocean", BoardLight: "#87CEEB", BoardDark: "#191970",
	PointLight: "#B0E0E6", PointDark: "#4682B4",
	CheckerTop: "#FFFACD", CheckerBottom: "#8B0000", CheckerBorder: "#191970",
	Bar: "#1E3A5F", Text: "#000000", Bearoff: "#87CEEB",
}

var Desert = ColorScheme{
	Name: "Desert", BoardLight: "#D4A574", BoardDark: "#8B6F47",
	PointLight: "#E8C9A0", PointDark: "#B8956A",
	CheckerTop: "#FFF8DC", CheckerBottom: "#6B4E71", CheckerBorder: "#6B4E71",
	Bar: "#9B7653", Text: "#000000", Bearoff: "#D4A574",
}

var Sunset = ColorScheme{
	Name: "Sunset", BoardLight: "#D4825A", BoardDark: "#5C3317",
	PointLight: "#E69B7B", PointDark: "#B8552F",
	CheckerTop: "#FFF5E6", CheckerBottom: "#4A1E1E", CheckerBorder: "#5C3317",
	Bar: "#8B4726", Text: "#000000", Bearoff: "#D4825A",
}

var Midnight = ColorScheme{
	Name: "Midnight", BoardLight: "#2F4F4F", BoardDark: "#000000",
	PointLight: "#708090", PointDark: "#1C1C1C",
	CheckerTop: "#E6E6FA", CheckerBottom: "#DC143C", CheckerBorder: "#000000",
	Bar: "#0F0F0F", Text: "#FFFFFF", Bearoff: "#2F4F4F",
}

var schemes = map[string]ColorScheme{
	"classic":  Classic,
	"forest":   Forest,
	"ocean":    Ocean,
	"desert":   Desert,
	"sunset":   Sunset,
	"midnight": Midnight,
}

// UnknownColorSchemeError reports a scheme name absent from the registry.
type UnknownColorSchemeError struct {
	Name string
}

func (e *UnknownColorSchemeError) Error() string {
	return "render: unknown color scheme " + e.Name
}

// GetScheme looks up a color scheme by name, case-insensitively.
func GetScheme(name string) (ColorScheme, error) {
	s, ok := schemes[strings.ToLower(name)]
	if !ok {
		return ColorScheme{}, &UnknownColorSchemeError{Name: name}
	}
	return s, nil
}

// ListSchemes returns the registered scheme names.
func ListSchemes() []string {
	names := make([]string, 0, len(schemes))
	for n := range schemes {
		names = append(names, n)
	}
	return names
}
