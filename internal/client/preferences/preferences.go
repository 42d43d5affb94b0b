package preferences

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

var (
	ErrUnknownKey   = errors.New("unknown preference")
	ErrInvalidValue = errors.New("invalid preference value")
)

type Scale string

const (
	ScaleXS Scale = "xs"
	ScaleSM Scale = "sm"
	ScaleMD Scale = "md"
	ScaleLG Scale = "lg"
	ScaleXL Scale = "xl"
)

type Radius string

const (
	RadiusNone Radius = "none"
	RadiusSM   Radius = "sm"
	RadiusMD   Radius = "md"
	RadiusLG   Radius = "lg"
	RadiusXL   Radius = "xl"
)

type ColorPreset string

const (
	PresetForest   ColorPreset = "forest"
	PresetOcean    ColorPreset = "ocean"
	PresetSunset   ColorPreset = "sunset"
	PresetMidnight ColorPreset = "midnight"
)

type ContentLayout string

const (
	LayoutFull     ContentLayout = "full"
	LayoutCentered ContentLayout = "centered"
)

type SidebarMode string

const (
	SidebarDefault SidebarMode = "default"
	SidebarIcon    SidebarMode = "icon"
)

// Preferences is the full UI configuration. The JSON names are the stored
// format.
type Preferences struct {
	Scale             Scale         `json:"scale"`
	CornerRadius      Radius        `json:"radius"`
	ColorPreset       ColorPreset   `json:"themePreset"`
	ContentLayout     ContentLayout `json:"contentLayout"`
	SidebarMode       SidebarMode   `json:"sidebarMode"`
	CompactMode       bool          `json:"compactMode"`
	AnimationsEnabled bool          `json:"animations"`
	RightToLeft       bool          `json:"rtlMode"`
}

func Defaults() Preferences {
	return Preferences{
		Scale:             ScaleMD,
		CornerRadius:      RadiusMD,
		ColorPreset:       PresetOcean,
		ContentLayout:     LayoutFull,
		SidebarMode:       SidebarDefault,
		CompactMode:       false,
		AnimationsEnabled: true,
		RightToLeft:       false,
	}
}

// Key names a preference by its stored JSON name.
type Key string

const (
	KeyScale         Key = "scale"
	KeyRadius        Key = "radius"
	KeyThemePreset   Key = "themePreset"
	KeyContentLayout Key = "contentLayout"
	KeySidebarMode   Key = "sidebarMode"
	KeyCompactMode   Key = "compactMode"
	KeyAnimations    Key = "animations"
	KeyRTLMode       Key = "rtlMode"
)

type field struct {
	key    Key
	values []string // nil for booleans
	get    func(p Preferences) string
	set    func(p *Preferences, v string)
}

func boolField(key Key, ptr func(p *Preferences) *bool) field {
	return field{
		key: key,
		get: func(p Preferences) string { return strconv.FormatBool(*ptr(&p)) },
		set: func(p *Preferences, v string) { *ptr(p), _ = strconv.ParseBool(v) },
	}
}

var fields = []field{
	{
		key:    KeyScale,
		values: []string{"xs", "sm", "md", "lg", "xl"},
		get:    func(p Preferences) string { return string(p.Scale) },
		set:    func(p *Preferences, v string) { p.Scale = Scale(v) },
	},
	{
		key:    KeyRadius,
		values: []string{"none", "sm", "md", "lg", "xl"},
		get:    func(p Preferences) string { return string(p.CornerRadius) },
		set:    func(p *Preferences, v string) { p.CornerRadius = Radius(v) },
	},
	{
		key:    KeyThemePreset,
		values: []string{"forest", "ocean", "sunset", "midnight"},
		get:    func(p Preferences) string { return string(p.ColorPreset) },
		set:    func(p *Preferences, v string) { p.ColorPreset = ColorPreset(v) },
	},
	{
		key:    KeyContentLayout,
		values: []string{"full", "centered"},
		get:    func(p Preferences) string { return string(p.ContentLayout) },
		set:    func(p *Preferences, v string) { p.ContentLayout = ContentLayout(v) },
	},
	{
		key:    KeySidebarMode,
		values: []string{"default", "icon"},
		get:    func(p Preferences) string { return string(p.SidebarMode) },
		set:    func(p *Preferences, v string) { p.SidebarMode = SidebarMode(v) },
	},
	boolField(KeyCompactMode, func(p *Preferences) *bool { return &p.CompactMode }),
	boolField(KeyAnimations, func(p *Preferences) *bool { return &p.AnimationsEnabled }),
	boolField(KeyRTLMode, func(p *Preferences) *bool { return &p.RightToLeft }),
}

func lookup(key Key) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// Keys lists every preference in display order.
func Keys() []Key {
	out := make([]Key, len(fields))
	for i, f := range fields {
		out[i] = f.key
	}
	return out
}

// Allowed returns the accepted values for key; booleans accept "true" and
// "false".
func Allowed(key Key) ([]string, error) {
	f, ok := lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if f.values == nil {
		return []string{"true", "false"}, nil
	}
	return slices.Clone(f.values), nil
}

// Value returns the textual value of key in p.
func (p Preferences) Value(key Key) (string, error) {
	f, ok := lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return f.get(p), nil
}

// With returns a copy of p with key set to value. p is never modified.
func (p Preferences) With(key Key, value string) (Preferences, error) {
	f, ok := lookup(key)
	if !ok {
		return p, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if !f.valid(value) {
		return p, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
	}
	f.set(&p, value)
	return p, nil
}

func (f field) valid(v string) bool {
	if f.values == nil {
		_, err := strconv.ParseBool(v)
		return err == nil
	}
	return slices.Contains(f.values, v)
}

// sanitize replaces every out-of-range enum value with its default and
// returns the keys it had to fix.
func sanitize(p *Preferences) []Key {
	def := Defaults()
	var fixed []Key
	for _, f := range fields {
		if f.values != nil && !f.valid(f.get(*p)) {
			f.set(p, f.get(def))
			fixed = append(fixed, f.key)
		}
	}
	return fixed
}
