package ad

import "fmt"

type BannerSize struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Label  string `json:"label"`
}

func (s BannerSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

var bannerSizes = []BannerSize{
	{Name: "medium-rectangle", Width: 300, Height: 250, Label: "Medium Rectangle (300x250)"},
	{Name: "leaderboard", Width: 728, Height: 90, Label: "Leaderboard (728x90)"},
	{Name: "wide-skyscraper", Width: 160, Height: 600, Label: "Wide Skyscraper (160x600)"},
	{Name: "mobile-leaderboard", Width: 320, Height: 50, Label: "Mobile Leaderboard (320x50)"},
	{Name: "half-page", Width: 300, Height: 600, Label: "Half Page (300x600)"},
	{Name: "large-rectangle", Width: 336, Height: 280, Label: "Large Rectangle (336x280)"},
}

// Sizes returns the banner registry in display order.
func Sizes() []BannerSize {
	out := make([]BannerSize, len(bannerSizes))
	copy(out, bannerSizes)
	return out
}

func SizeByName(name string) (BannerSize, bool) {
	for _, s := range bannerSizes {
		if s.Name == name {
			return s, true
		}
	}
	return BannerSize{}, false
}

type Sample struct {
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Short is the quick-fill button label.
func (s Sample) Short() string {
	r := []rune(s.Description)
	if len(r) <= 30 {
		return s.Description + "..."
	}
	return string(r[:30]) + "..."
}

var samples = []Sample{
	{Description: "Eco-friendly bamboo toothbrush with charcoal bristles", URL: "pureearth.com"},
	{Description: "High-performance gaming headset with noise cancellation", URL: "audiogear.tech"},
	{Description: "Organic matcha tea powder from Kyoto, ceremonial grade", URL: "zenmatcha.co"},
}

func Samples() []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	return out
}

// SampleAt returns the sample at zero-based index i.
func SampleAt(i int) (Sample, bool) {
	if i < 0 || i >= len(samples) {
		return Sample{}, false
	}
	return samples[i], true
}
