// Package ad holds the ad domain model and the two Gemini-backed generators
// that produce it: structured copy first, then a background image.
package ad

import (
	"errors"
	"fmt"
	"strings"
)

// Colors is the five-colour palette returned with the copy. Values are hex
// strings as produced by the model; they are not checked for format.
type Colors struct {
	Primary    string `json:"primary" description:"Main brand color hex"`
	Secondary  string `json:"secondary" description:"Secondary accent hex"`
	Background string `json:"background" description:"Fallback background hex"`
	Text       string `json:"text" description:"Main text color hex (high contrast)"`
	ButtonText string `json:"buttonText" description:"Text color for the button"`
}

func (c Colors) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"primary", c.Primary},
		{"secondary", c.Secondary},
		{"background", c.Background},
		{"text", c.Text},
		{"buttonText", c.ButtonText},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing colors: %s", strings.Join(missing, ", "))
	}
	return nil
}

type Copy struct {
	Headline    string `json:"headline" description:"Main catchy header, max 25 chars"`
	Subheadline string `json:"subheadline" description:"Supporting text, max 60 chars"`
	CTA         string `json:"cta" description:"Button text, e.g., Shop Now"`
	ImagePrompt string `json:"imagePrompt" description:"Prompt for background image generation"`
	Colors      Colors `json:"colors"`
}

func (c Copy) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"headline", c.Headline},
		{"subheadline", c.Subheadline},
		{"cta", c.CTA},
		{"imagePrompt", c.ImagePrompt},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return c.Colors.Validate()
}

// Image is one generated background, base64-encoded.
type Image struct {
	Base64   string
	MimeType string
}

func (i Image) DataURL() string {
	mimeType := i.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, i.Base64)
}

// GeneratedAd is the combined output of one completed generation cycle.
type GeneratedAd struct {
	Copy  Copy
	Image Image
}

func NewGeneratedAd(c Copy, img Image) (GeneratedAd, error) {
	if strings.TrimSpace(img.Base64) == "" {
		return GeneratedAd{}, errors.New("image payload is empty")
	}
	return GeneratedAd{Copy: c, Image: img}, nil
}
