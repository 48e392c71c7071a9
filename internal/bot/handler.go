// Package bot is the Telegram shell: /ad runs one generation cycle for the
// chat and reports each transition back as a message.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"adgenius/internal/ad"
	"adgenius/internal/banner"
	"adgenius/internal/campaign"
	"adgenius/internal/session"
)

// Messenger is the slice of the Telegram client the handler uses.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTyping(chatID int64)
	SendPhotoBase64(chatID int64, data, mimeType, caption string) error
}

type Options struct {
	Messenger  Messenger
	Copy       campaign.CopyGenerator
	Image      campaign.ImageGenerator
	Timeout    time.Duration
	SessionTTL time.Duration
	Logger     *slog.Logger
}

type Handler struct {
	tg       Messenger
	copy     campaign.CopyGenerator
	image    campaign.ImageGenerator
	timeout  time.Duration
	sessions *session.Store
	logger   *slog.Logger
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		tg:      opts.Messenger,
		copy:    opts.Copy,
		image:   opts.Image,
		timeout: opts.Timeout,
		logger:  logger,
	}
	h.sessions = session.NewStore(session.Options{
		TTL:         opts.SessionTTL,
		NewCampaign: h.newCampaign,
	})
	return h
}

func (h *Handler) Sessions() *session.Store {
	return h.sessions
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil || update.Message.Chat == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if !msg.IsCommand() {
		if strings.TrimSpace(msg.Text) == "" {
			return nil
		}
		return h.tg.SendText(chatID, "Use /ad <description> | <url> to generate a campaign. /help for more.")
	}

	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID, helpText())
	case "ad":
		description, url := parseAdArgs(msg.CommandArguments())
		if strings.TrimSpace(description) == "" {
			return h.tg.SendText(chatID, "❌ Please describe the product.\nExample: /ad Eco-friendly bamboo toothbrush | pureearth.com")
		}
		return h.generate(ctx, chatID, description, url)
	case "sample":
		n, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
		sample, ok := ad.SampleAt(n - 1)
		if err != nil || !ok {
			return h.tg.SendText(chatID, sampleList())
		}
		return h.generate(ctx, chatID, sample.Description, sample.URL)
	case "status":
		return h.tg.SendText(chatID, h.statusText(chatID))
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

func (h *Handler) generate(ctx context.Context, chatID int64, description, url string) error {
	sess := h.sessions.GetOrCreate(sessionKey(chatID))

	err := sess.Campaign.Generate(ctx, description, url)
	if errors.Is(err, campaign.ErrBusy) {
		return h.tg.SendText(chatID, "⏳ A campaign is already being generated. Please wait for it to finish.")
	}
	// cycle failures were already reported through notify
	return nil
}

func (h *Handler) newCampaign(id string) *campaign.Orchestrator {
	chatID, _ := strconv.ParseInt(id, 10, 64)
	return campaign.New(campaign.Options{
		Copy:    h.copy,
		Image:   h.image,
		Timeout: h.timeout,
		Logger:  h.logger.With("chat_id", chatID),
		OnChange: func(st campaign.State) {
			h.notify(chatID, st)
		},
	})
}

func (h *Handler) notify(chatID int64, st campaign.State) {
	var err error
	switch st.Status {
	case campaign.StatusGeneratingCopy:
		h.tg.SendTyping(chatID)
		err = h.tg.SendText(chatID, "✍️ "+st.Status.Label())
	case campaign.StatusGeneratingImage:
		err = h.tg.SendText(chatID, "🎨 "+st.Status.Label())
	case campaign.StatusCompleted:
		if st.Result == nil {
			return
		}
		img := st.Result.Image
		if err = h.tg.SendPhotoBase64(chatID, img.Base64, img.MimeType, resultCaption(st.Result.Copy)); err != nil {
			break
		}
		err = h.tg.SendText(chatID, bannerSummary(st.Result.Copy, img))
	case campaign.StatusError:
		err = h.tg.SendText(chatID, "❌ "+st.Error)
	}
	if err != nil {
		h.logger.Error("telegram send failed", "chat_id", chatID, "status", st.Status, "err", err)
	}
}

func (h *Handler) statusText(chatID int64) string {
	sess, ok := h.sessions.Get(sessionKey(chatID))
	if !ok {
		return "No campaign yet. Use /ad to start one."
	}

	st := sess.Campaign.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s", st.Status.Label())
	if st.Description != "" {
		fmt.Fprintf(&b, "\nProduct: %s", st.Description)
	}
	if st.Error != "" {
		fmt.Fprintf(&b, "\nError: %s", st.Error)
	}
	if st.Last != nil {
		fmt.Fprintf(&b, "\nLast headline: %s", st.Last.Copy.Headline)
	}
	return b.String()
}

func sessionKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// parseAdArgs splits "description | url". The URL part is optional.
func parseAdArgs(args string) (string, string) {
	description, url, _ := strings.Cut(args, "|")
	return strings.TrimSpace(description), strings.TrimSpace(url)
}

func resultCaption(c ad.Copy) string {
	return fmt.Sprintf("%s\n%s\n\n👉 %s\n\n🎨 %s / %s / %s / %s / %s",
		c.Headline, c.Subheadline, c.CTA,
		c.Colors.Primary, c.Colors.Secondary, c.Colors.Background, c.Colors.Text, c.Colors.ButtonText)
}

func bannerSummary(c ad.Copy, img ad.Image) string {
	var b strings.Builder
	b.WriteString("📐 Banner layouts:")
	for _, bn := range banner.RenderAll(c, img) {
		fmt.Fprintf(&b, "\n• %s: %s", bn.Size.Label, bn.Class)
	}
	fmt.Fprintf(&b, "\n\nImage prompt: %s", c.ImagePrompt)
	return b.String()
}

func helpText() string {
	return "📣 AdGenius AI\n\n" +
		"Turn a product description into a banner ad campaign.\n\n" +
		"Commands:\n" +
		"/ad <description> | <url> - generate a campaign\n" +
		"/sample <1-3> - run a sample product\n" +
		"/status - show the current campaign\n" +
		"/help - this message"
}

func sampleList() string {
	var b strings.Builder
	b.WriteString("Pick a sample:")
	for i, s := range ad.Samples() {
		fmt.Fprintf(&b, "\n/sample %d - %s", i+1, s.Description)
	}
	return b.String()
}
