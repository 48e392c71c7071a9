package ad

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"adgenius/internal/gemini"
)

const (
	defaultImageModel = "gemini-2.5-flash-image"
	imageAspectRatio  = "1:1"
)

type ImageModel interface {
	GenerateImage(ctx context.Context, model, prompt string, opts gemini.ImageOptions) (gemini.Response, error)
}

type ImageOptions struct {
	Model  string
	Client ImageModel
	Logger *slog.Logger
}

type ImageGenerator struct {
	model  string
	client ImageModel
	logger *slog.Logger
}

func NewImageGenerator(opts ImageOptions) *ImageGenerator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultImageModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ImageGenerator{
		model:  model,
		client: opts.Client,
		logger: logger,
	}
}

// Generate renders the background for imagePrompt. A square image is
// requested since it crops reasonably into every banner size.
func (g *ImageGenerator) Generate(ctx context.Context, imagePrompt string) (Image, error) {
	resp, err := g.client.GenerateImage(ctx, g.model, BuildImagePrompt(imagePrompt), gemini.ImageOptions{
		AspectRatio: imageAspectRatio,
	})
	if err != nil {
		return Image{}, fmt.Errorf("generate ad image: %w", err)
	}

	for _, img := range resp.Images {
		if img.Data == "" {
			continue
		}
		if len(resp.Images) > 1 {
			g.logger.Debug("extra image parts ignored", "count", len(resp.Images)-1)
		}
		return Image{Base64: img.Data, MimeType: img.MimeType}, nil
	}

	g.logger.Warn("no image part in response", "model", g.model, "finish_reason", resp.FinishReason, "text_len", len(resp.Text))
	return Image{}, &GenerationError{Stage: StageImage, Msg: "No image data returned from Gemini."}
}

func BuildImagePrompt(imagePrompt string) string {
	return fmt.Sprintf("Professional advertising background, %s, high resolution, photorealistic, soft lighting, negative space for text",
		strings.TrimSpace(imagePrompt))
}
