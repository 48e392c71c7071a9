// Package banner lays out one generated ad at a fixed banner size. Render is
// a pure function of its inputs; it never talks to the network.
package banner

import (
	"fmt"
	"html/template"

	"adgenius/internal/ad"
)

type Class string

const (
	ClassDefault Class = "default"
	ClassTall    Class = "tall"
	ClassWide    Class = "wide"
	ClassTiny    Class = "tiny"
)

const (
	tintOpacity       = 0.3
	gradientFrom      = "rgba(0,0,0,0.1)"
	gradientTo        = "rgba(0,0,0,0.8)"
	wideTextMaxPct    = 60
	tinyHeightPx      = 60
	wideAspectDivisor = 2
)

// Classify picks the layout class for a size. Tiny takes precedence: the
// 320x50 mobile leaderboard is also wider than 2:1 and must still render
// as a single line.
func Classify(width, height int) Class {
	switch {
	case height < tinyHeightPx:
		return ClassTiny
	case height > width:
		return ClassTall
	case width > height*wideAspectDivisor:
		return ClassWide
	default:
		return ClassDefault
	}
}

type Direction string

const (
	DirectionColumn Direction = "column"
	DirectionRow    Direction = "row"
)

type CTAPlacement string

const (
	CTABelow    CTAPlacement = "below"
	CTAOpposite CTAPlacement = "opposite"
	CTAInline   CTAPlacement = "inline"
)

type Layout struct {
	Direction        Direction
	Justify          string
	Align            string
	TextMaxWidthPct  int
	ShowSubheadline  bool
	TruncateHeadline bool
	CTAFullWidth     bool
	CTAPlacement     CTAPlacement
	HeadlineClass    string
	SubheadlineClass string
}

type Colors struct {
	Headline    string
	Subheadline string
	CTAFill     string
	CTABorder   string
	CTALabel    string
	Tint        string
}

type Background struct {
	ImageURL    string
	TintOpacity float64
	Gradient    string
}

type Banner struct {
	Size  ad.BannerSize
	Class Class
	Tall  bool
	Wide  bool
	Tiny  bool

	Headline    string
	Subheadline string
	CTA         string

	Layout     Layout
	Colors     Colors
	Background Background
}

// Render computes the composition for one size.
func Render(size ad.BannerSize, c ad.Copy, img ad.Image) Banner {
	class := Classify(size.Width, size.Height)
	tall := size.Height > size.Width
	wide := size.Width > size.Height*wideAspectDivisor
	tiny := size.Height < tinyHeightPx

	gradientDir := "to right"
	if tall {
		gradientDir = "to bottom"
	}

	return Banner{
		Size:        size,
		Class:       class,
		Tall:        tall,
		Wide:        wide,
		Tiny:        tiny,
		Headline:    c.Headline,
		Subheadline: c.Subheadline,
		CTA:         c.CTA,
		Layout:      layoutFor(class),
		Colors: Colors{
			Headline:    c.Colors.Text,
			Subheadline: c.Colors.Text,
			CTAFill:     c.Colors.Primary,
			CTABorder:   c.Colors.Secondary,
			CTALabel:    c.Colors.ButtonText,
			Tint:        c.Colors.Background,
		},
		Background: Background{
			ImageURL:    img.DataURL(),
			TintOpacity: tintOpacity,
			Gradient:    fmt.Sprintf("linear-gradient(%s, %s, %s)", gradientDir, gradientFrom, gradientTo),
		},
	}
}

// RenderAll renders the same copy and image once per registry size, in
// registry order.
func RenderAll(c ad.Copy, img ad.Image) []Banner {
	sizes := ad.Sizes()
	out := make([]Banner, 0, len(sizes))
	for _, size := range sizes {
		out = append(out, Render(size, c, img))
	}
	return out
}

func layoutFor(class Class) Layout {
	switch class {
	case ClassTiny:
		return Layout{
			Direction:        DirectionRow,
			Justify:          "space-between",
			Align:            "center",
			TextMaxWidthPct:  100,
			ShowSubheadline:  false,
			TruncateHeadline: true,
			CTAFullWidth:     false,
			CTAPlacement:     CTAInline,
			HeadlineClass:    "headline-sm",
		}
	case ClassWide:
		return Layout{
			Direction:        DirectionRow,
			Justify:          "space-between",
			Align:            "center",
			TextMaxWidthPct:  wideTextMaxPct,
			ShowSubheadline:  true,
			CTAFullWidth:     false,
			CTAPlacement:     CTAOpposite,
			HeadlineClass:    "headline-md",
			SubheadlineClass: "sub-xs",
		}
	case ClassTall:
		return Layout{
			Direction:        DirectionColumn,
			Justify:          "flex-end",
			Align:            "stretch",
			TextMaxWidthPct:  100,
			ShowSubheadline:  true,
			CTAFullWidth:     true,
			CTAPlacement:     CTABelow,
			HeadlineClass:    "headline-lg",
			SubheadlineClass: "sub-sm",
		}
	default:
		return Layout{
			Direction:        DirectionColumn,
			Justify:          "flex-end",
			Align:            "stretch",
			TextMaxWidthPct:  100,
			ShowSubheadline:  true,
			CTAFullWidth:     true,
			CTAPlacement:     CTABelow,
			HeadlineClass:    "headline-md",
			SubheadlineClass: "sub-xs",
		}
	}
}

// The style helpers below emit inline CSS for the web templates. Colour
// values come from the model, so they go through cssValue.

func (b Banner) ContainerStyle() template.CSS {
	return template.CSS(fmt.Sprintf(
		"width:%dpx;height:%dpx;background-image:url('%s');background-size:cover;background-position:center;position:relative;overflow:hidden",
		b.Size.Width, b.Size.Height, cssURL(b.Background.ImageURL)))
}

func (b Banner) TintStyle() template.CSS {
	return template.CSS(fmt.Sprintf(
		"position:absolute;inset:0;background-color:%s;opacity:%.1f;mix-blend-mode:multiply",
		cssValue(b.Colors.Tint), b.Background.TintOpacity))
}

func (b Banner) GradientStyle() template.CSS {
	return template.CSS("position:absolute;inset:0;background:" + b.Background.Gradient)
}

func (b Banner) ContentStyle() template.CSS {
	padding := "16px"
	switch b.Class {
	case ClassWide:
		padding = "16px 24px"
	case ClassTiny:
		padding = "0 12px"
	}
	return template.CSS(fmt.Sprintf(
		"position:relative;z-index:1;height:100%%;width:100%%;box-sizing:border-box;display:flex;flex-direction:%s;justify-content:%s;align-items:%s;padding:%s",
		b.Layout.Direction, b.Layout.Justify, b.Layout.Align, padding))
}

func (b Banner) TextBlockStyle() template.CSS {
	return template.CSS(fmt.Sprintf("display:flex;flex-direction:column;max-width:%d%%;min-width:0", b.Layout.TextMaxWidthPct))
}

func (b Banner) TextStyle() template.CSS {
	return template.CSS("color:" + cssValue(b.Colors.Headline))
}

func (b Banner) CTAStyle() template.CSS {
	width := "auto"
	if b.Layout.CTAFullWidth {
		width = "100%"
	}
	return template.CSS(fmt.Sprintf(
		"background-color:%s;color:%s;border-color:%s;width:%s",
		cssValue(b.Colors.CTAFill), cssValue(b.Colors.CTALabel), cssValue(b.Colors.CTABorder), width))
}

// SwatchStyle is the inline style of a palette swatch for a model colour.
func SwatchStyle(color string) template.CSS {
	return template.CSS("background-color:" + cssValue(color))
}

// cssValue drops anything that could end the declaration early.
func cssValue(v string) string {
	out := make([]rune, 0, len(v))
	for _, r := range v {
		switch r {
		case ';', '{', '}', '<', '>', '"', '\'', '\\', '\n', '\r':
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func cssURL(v string) string {
	out := make([]rune, 0, len(v))
	for _, r := range v {
		switch r {
		case '\'', '"', '(', ')', '\\', '<', '>', '\n', '\r':
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
