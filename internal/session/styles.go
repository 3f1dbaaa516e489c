package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/hyperifyio/readscroll/internal/prefs"
)

// ErrInvalidStyles is returned for style preferences outside their allowed values.
var ErrInvalidStyles = errors.New("invalid style preferences")

// Themes understood by presenters.
const (
	ThemeLight    = "light"
	ThemeDark     = "dark"
	ThemeRainbow  = "rainbow"
	ThemeStarWars = "starwars"
)

var (
	themes      = map[string]bool{ThemeLight: true, ThemeDark: true, ThemeRainbow: true, ThemeStarWars: true}
	imageSizes  = map[string]bool{"normal": true, "large": true, "small": true}
	fontWeights = map[string]bool{"normal": true, "bold": true}
	fontSizeRe  = regexp.MustCompile(`^\d+(\.\d+)?(px|pt|em|rem|%)$`)
)

// StylePreferences are the typography settings of the reader view.
type StylePreferences struct {
	FontSize   string `json:"fontSize"`
	Theme      string `json:"theme"`
	ImageSize  string `json:"imageSize"`
	FontWeight string `json:"fontWeight"`
}

// Validate reports the first field outside its allowed values.
func (p StylePreferences) Validate() error {
	switch {
	case !fontSizeRe.MatchString(p.FontSize):
		return fmt.Errorf("%w: fontSize %q", ErrInvalidStyles, p.FontSize)
	case !themes[p.Theme]:
		return fmt.Errorf("%w: theme %q", ErrInvalidStyles, p.Theme)
	case !imageSizes[p.ImageSize]:
		return fmt.Errorf("%w: imageSize %q", ErrInvalidStyles, p.ImageSize)
	case !fontWeights[p.FontWeight]:
		return fmt.Errorf("%w: fontWeight %q", ErrInvalidStyles, p.FontWeight)
	}
	return nil
}

// withDefaults fills empty fields from d.
func (p StylePreferences) withDefaults(d StylePreferences) StylePreferences {
	if p.FontSize == "" {
		p.FontSize = d.FontSize
	}
	if p.Theme == "" {
		p.Theme = d.Theme
	}
	if p.ImageSize == "" {
		p.ImageSize = d.ImageSize
	}
	if p.FontWeight == "" {
		p.FontWeight = d.FontWeight
	}
	return p
}

func (p StylePreferences) values() map[string]any {
	return map[string]any{
		prefs.KeyFontSize:   p.FontSize,
		prefs.KeyTheme:      p.Theme,
		prefs.KeyImageSize:  p.ImageSize,
		prefs.KeyFontWeight: p.FontWeight,
	}
}

func stylesFrom(v prefs.Values) StylePreferences {
	return StylePreferences{
		FontSize:   v.String(prefs.KeyFontSize),
		Theme:      v.String(prefs.KeyTheme),
		ImageSize:  v.String(prefs.KeyImageSize),
		FontWeight: v.String(prefs.KeyFontWeight),
	}
}

// DefaultStyles returns the style preferences used before anything is saved.
func DefaultStyles() StylePreferences {
	return stylesFrom(prefs.Defaults())
}

// LoadStyles reads the style preferences from store, or the defaults when store is nil.
func LoadStyles(ctx context.Context, store Store) StylePreferences {
	if store == nil {
		return DefaultStyles()
	}
	v := store.Get(ctx, prefs.KeyFontSize, prefs.KeyTheme, prefs.KeyImageSize, prefs.KeyFontWeight)
	return stylesFrom(v).withDefaults(DefaultStyles())
}
