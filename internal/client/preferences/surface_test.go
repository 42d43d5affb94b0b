package preferences

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_WritesSurface(t *testing.T) {
	doc := NewDocument()
	p := Preferences{
		Scale:         ScaleLG,
		CornerRadius:  RadiusXL,
		ColorPreset:   PresetSunset,
		ContentLayout: LayoutCentered,
		SidebarMode:   SidebarIcon,
		CompactMode:   true,
		RightToLeft:   true,
	}

	Apply(p, doc)

	assert.Equal(t, "1.125", doc.Property("--scale-factor"))
	assert.Equal(t, "1rem", doc.Property("--radius"))
	assert.Equal(t, "rtl", doc.Attribute("dir"))
	assert.ElementsMatch(t, []string{"theme-sunset", "layout-centered", "compact-mode"}, doc.Classes())

	Apply(Defaults(), doc)

	assert.Equal(t, "1", doc.Property("--scale-factor"))
	assert.Equal(t, "0.5rem", doc.Property("--radius"))
	assert.Equal(t, "ltr", doc.Attribute("dir"))
	assert.Equal(t, []string{"theme-ocean"}, doc.Classes())
}

func TestApply_LeavesExactlyOneThemeClass(t *testing.T) {
	doc := NewDocument()
	doc.AddClass("theme-forest")
	doc.AddClass("theme-legacy")
	doc.AddClass("sidebar-open")

	p := Defaults()
	p.ColorPreset = PresetMidnight
	Apply(p, doc)

	var themes []string
	for _, c := range doc.Classes() {
		if len(c) > 6 && c[:6] == "theme-" {
			themes = append(themes, c)
		}
	}
	assert.Equal(t, []string{"theme-midnight"}, themes)
	assert.True(t, doc.HasClass("sidebar-open"))
}

func TestScaleAndRadiusTablesCoverEveryValue(t *testing.T) {
	for _, v := range []Scale{ScaleXS, ScaleSM, ScaleMD, ScaleLG, ScaleXL} {
		assert.NotEmpty(t, scaleFactors[v], v)
	}
	for _, v := range []Radius{RadiusNone, RadiusSM, RadiusMD, RadiusLG, RadiusXL} {
		assert.NotEmpty(t, radii[v], v)
	}
	assert.Equal(t, "0.75", scaleFactors[ScaleXS])
	assert.Equal(t, "0", radii[RadiusNone])
}

func TestDocument_String(t *testing.T) {
	doc := NewDocument()
	Apply(Defaults(), doc)

	assert.Equal(t, `<html dir="ltr" class="theme-ocean" style="--radius: 0.5rem; --scale-factor: 1">`, doc.String())
}
