package ad

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"adgenius/internal/gemini"
)

const defaultCopyModel = "gemini-2.5-flash"

var copySchema = gemini.MustSchemaFor(Copy{})

// TextModel is the part of the Gemini client the copy step needs.
type TextModel interface {
	GenerateJSON(ctx context.Context, model, prompt string, schema *gemini.Schema, opts gemini.JSONOptions) (string, error)
}

type CopyOptions struct {
	Model       string
	// Temperature is sent as is. Zero keeps the model default.
	Temperature float64
	Client      TextModel
	Logger      *slog.Logger
}

type CopyGenerator struct {
	model       string
	temperature float64
	client      TextModel
	logger      *slog.Logger
}

func NewCopyGenerator(opts CopyOptions) *CopyGenerator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultCopyModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &CopyGenerator{
		model:       model,
		temperature: opts.Temperature,
		client:      opts.Client,
		logger:      logger,
	}
}

// Generate asks for headline, subheadline, CTA, palette and an image prompt.
// The caller guarantees a non-empty description; url is passed through as
// free text.
func (g *CopyGenerator) Generate(ctx context.Context, description, url string) (Copy, error) {
	prompt := BuildCopyPrompt(description, url)

	text, err := g.client.GenerateJSON(ctx, g.model, prompt, copySchema, gemini.JSONOptions{
		Temperature: g.temperature,
	})
	if err != nil {
		return Copy{}, fmt.Errorf("generate ad copy: %w", err)
	}

	text = stripCodeFence(text)
	if text == "" {
		return Copy{}, &GenerationError{Stage: StageCopy, Msg: "Failed to generate ad copy."}
	}

	var out Copy
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Copy{}, &GenerationError{Stage: StageCopy, Msg: "Failed to parse ad copy:", Err: err}
	}
	if err := out.Validate(); err != nil {
		return Copy{}, &GenerationError{Stage: StageCopy, Msg: "Failed to parse ad copy:", Err: err}
	}

	g.logger.Debug("ad copy generated", "headline", out.Headline, "cta", out.CTA)
	return out, nil
}

// BuildCopyPrompt embeds description and url verbatim.
func BuildCopyPrompt(description, url string) string {
	var b strings.Builder
	b.WriteString("You are an expert digital marketing designer.\n")
	b.WriteString("Create a high-converting ad campaign for the following product:\n")
	fmt.Fprintf(&b, "Description: \"%s\"\n", description)
	fmt.Fprintf(&b, "URL: \"%s\"\n\n", url)
	b.WriteString("I need a catchy headline (max 25 characters), a persuasive subheadline (max 60 characters), ")
	b.WriteString("a short CTA, a cohesive color palette (hex codes), and a detailed prompt for an AI image generator ")
	b.WriteString("to create a stunning background image for this ad.\n\n")
	b.WriteString("The image prompt should describe a professional product photography style background or an abstract ")
	b.WriteString("background that fits the brand mood. It should NOT contain text. It should have some negative space.\n\n")
	b.WriteString("The colors should ensure high contrast for readability.")
	return b.String()
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
