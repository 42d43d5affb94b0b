package preferences

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Surface is the rendered document root the preferences are applied to.
type Surface interface {
	SetProperty(name, value string)
	SetAttribute(name, value string)
	Classes() []string
	AddClass(name string)
	RemoveClass(name string)
}

const themeClassPrefix = "theme-"

var scaleFactors = map[Scale]string{
	ScaleXS: "0.75",
	ScaleSM: "0.875",
	ScaleMD: "1",
	ScaleLG: "1.125",
	ScaleXL: "1.25",
}

var radii = map[Radius]string{
	RadiusNone: "0",
	RadiusSM:   "0.375rem",
	RadiusMD:   "0.5rem",
	RadiusLG:   "0.75rem",
	RadiusXL:   "1rem",
}

// Apply writes p to s. Exactly one theme class is left on s afterwards,
// whatever theme classes it carried before.
func Apply(p Preferences, s Surface) {
	s.SetProperty("--scale-factor", scaleFactors[p.Scale])
	s.SetProperty("--radius", radii[p.CornerRadius])

	for _, c := range s.Classes() {
		if strings.HasPrefix(c, themeClassPrefix) {
			s.RemoveClass(c)
		}
	}
	s.AddClass(themeClassPrefix + string(p.ColorPreset))

	toggle(s, "layout-centered", p.ContentLayout == LayoutCentered)
	toggle(s, "compact-mode", p.CompactMode)

	if p.RightToLeft {
		s.SetAttribute("dir", "rtl")
	} else {
		s.SetAttribute("dir", "ltr")
	}
}

func toggle(s Surface, class string, on bool) {
	if on {
		s.AddClass(class)
	} else {
		s.RemoveClass(class)
	}
}

// Document is an in-memory Surface.
type Document struct {
	mu         sync.Mutex
	properties map[string]string
	attributes map[string]string
	classes    []string
}

func NewDocument() *Document {
	return &Document{
		properties: make(map[string]string),
		attributes: make(map[string]string),
	}
}

func (d *Document) SetProperty(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.properties[name] = value
}

func (d *Document) Property(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.properties[name]
}

func (d *Document) SetAttribute(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attributes[name] = value
}

func (d *Document) Attribute(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attributes[name]
}

func (d *Document) Classes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.classes)
}

func (d *Document) HasClass(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Contains(d.classes, name)
}

func (d *Document) AddClass(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !slices.Contains(d.classes, name) {
		d.classes = append(d.classes, name)
	}
}

func (d *Document) RemoveClass(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.classes = slices.DeleteFunc(d.classes, func(c string) bool { return c == name })
}

// String renders the root element the way a browser inspector shows it.
func (d *Document) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	b.WriteString("<html")

	attrs := make([]string, 0, len(d.attributes))
	for k := range d.attributes {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)
	for _, k := range attrs {
		fmt.Fprintf(&b, " %s=%q", k, d.attributes[k])
	}

	if len(d.classes) > 0 {
		fmt.Fprintf(&b, " class=%q", strings.Join(d.classes, " "))
	}

	if len(d.properties) > 0 {
		props := make([]string, 0, len(d.properties))
		for k, v := range d.properties {
			props = append(props, k+": "+v)
		}
		sort.Strings(props)
		fmt.Fprintf(&b, " style=%q", strings.Join(props, "; "))
	}

	b.WriteString(">")
	return b.String()
}
