// Package telegram is the chat transport: it maps inbound updates to
// the answering pipeline and administrative commands, and delivers
// plain-text replies. It never sees retrieval evidence.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jggl/kb-assist/internal/config"
	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
	"github.com/jggl/kb-assist/internal/domain/usecases"
	"github.com/jggl/kb-assist/internal/i18n"
)

// Bot wires the Telegram API to the pipeline.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	users    ports.UserStore
	audit    ports.AuditLog
	answerer *usecases.Answerer
	ingestor *usecases.Ingestor
	log      *slog.Logger
}

// New connects to the Telegram API.
func New(
	cfg *config.Config,
	users ports.UserStore,
	audit ports.AuditLog,
	answerer *usecases.Answerer,
	ingestor *usecases.Ingestor,
	log *slog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	return &Bot{
		api:      api,
		cfg:      cfg,
		users:    users,
		audit:    audit,
		answerer: answerer,
		ingestor: ingestor,
		log:      log,
	}, nil
}

// Run polls for updates until ctx is done. Each update is handled in
// its own goroutine; the transport serializes delivery per chat, the
// pipeline imposes no additional per-user lock.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("bot started", "username", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	case msg.Text != "":
		b.handleText(ctx, msg)
	default:
		b.send(msg.Chat.ID, i18n.TextOnly(b.language(ctx, msg.From.ID)))
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.cmdStart(ctx, msg)
	case "help":
		b.send(msg.Chat.ID, i18n.Help(b.language(ctx, msg.From.ID)))
	case "reset":
		b.cmdReset(ctx, msg)
	case "reindex":
		b.cmdReindex(ctx, msg)
	case "case_last":
		b.cmdCaseLast(ctx, msg)
	case "upload_doc":
		b.cmdUploadDoc(ctx, msg)
	default:
		b.send(msg.Chat.ID, i18n.Help(b.language(ctx, msg.From.ID)))
	}
}

func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID)
	if err != nil {
		b.log.Error("user lookup failed", "user", msg.From.ID, "error", err)
	}
	if user != nil && user.Language != "" {
		b.send(msg.Chat.ID, i18n.AlreadySetUp(user.Language))
		return
	}
	b.send(msg.Chat.ID, i18n.LanguagePrompt)
}

func (b *Bot) cmdReset(ctx context.Context, msg *tgbotapi.Message) {
	if err := b.users.SetLanguage(ctx, msg.From.ID, ""); err != nil {
		b.log.Error("language reset failed", "user", msg.From.ID, "error", err)
	}
	b.send(msg.Chat.ID, i18n.LanguagePrompt)
}

func (b *Bot) cmdReindex(ctx context.Context, msg *tgbotapi.Message) {
	if !b.adminPrivate(msg) {
		b.send(msg.Chat.ID, "This command is not available.")
		return
	}

	b.send(msg.Chat.ID, "Reindexing all documents... This may take a moment.")

	stats, err := b.ingestor.ReindexAll(ctx, b.cfg.DocsDir)
	if err != nil {
		b.log.Error("reindex failed", "error", err)
		b.send(msg.Chat.ID, "Reindex failed. Check the server logs.")
		return
	}
	b.send(msg.Chat.ID, fmt.Sprintf(
		"Reindexing complete!\n\nFiles: %d\nChunks: %d\nFailed files: %d",
		stats.TotalFiles, stats.TotalChunks, stats.FailedFiles))
}

// cmdCaseLast shows the admin's latest audit record, the one place
// where internal sources are intentionally displayed, in a private
// admin chat only.
func (b *Bot) cmdCaseLast(ctx context.Context, msg *tgbotapi.Message) {
	if !b.adminPrivate(msg) {
		b.send(msg.Chat.ID, "This command is not available.")
		return
	}

	rec, err := b.audit.Latest(ctx, msg.From.ID)
	if err != nil {
		b.log.Error("latest case lookup failed", "error", err)
		b.send(msg.Chat.ID, "Lookup failed. Check the server logs.")
		return
	}
	if rec == nil {
		b.send(msg.Chat.ID, "No cases found.")
		return
	}

	sources := rec.InternalSources
	if sources == "" {
		sources = "None"
	}
	scores := rec.RetrievalScores
	if scores == "" {
		scores = "N/A"
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
		"📋 Last Case (Admin View)\n\n*Question:* %s\n*Action:* %s\n*Time:* %s\n\n*Internal Sources:*\n%s\n\n*Retrieval Scores:*\n%s",
		rec.Question, rec.Action, rec.CreatedAt.Format("2006-01-02 15:04:05"), sources, scores))
	reply.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send failed", "chat", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) cmdUploadDoc(ctx context.Context, msg *tgbotapi.Message) {
	if !b.adminPrivate(msg) {
		b.send(msg.Chat.ID, "This command is not available.\nSupported formats: .pdf, .txt, .md")
		return
	}
	b.send(msg.Chat.ID, "Send me a document (.pdf, .txt or .md) and I will add it to the knowledge base.")
}

// handleDocument ingests an admin-uploaded file. Non-admin uploads are
// silently ignored.
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	if !b.adminPrivate(msg) {
		return
	}

	name := msg.Document.FileName
	if name == "" {
		b.send(msg.Chat.ID, "Document has no filename.")
		return
	}
	if !b.supportedExt(name) {
		b.send(msg.Chat.ID, "Unsupported file type. Supported: .pdf, .txt, .md")
		return
	}

	b.send(msg.Chat.ID, fmt.Sprintf("Processing %s...", name))

	path, err := b.download(ctx, msg.Document.FileID, name)
	if err != nil {
		b.log.Error("document download failed", "file", name, "error", err)
		b.send(msg.Chat.ID, "Error downloading document.")
		return
	}

	stats, err := b.ingestor.IngestFile(ctx, path)
	if err != nil {
		b.log.Error("document ingest failed", "file", name, "error", err)
		b.send(msg.Chat.ID, "Error processing document.")
		return
	}
	b.send(msg.Chat.ID, fmt.Sprintf(
		"Document ingested!\n\nFile: %s\nChunks added: %d\nPages: %d",
		name, stats.ChunksAdded, stats.Pages))
}

// handleText runs onboarding or the answering pipeline. The reply is
// sent before the audit record is written; an audit failure never
// takes back an already-sent response.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	user, err := b.users.Get(ctx, userID)
	if err != nil {
		b.log.Error("user lookup failed", "user", userID, "error", err)
	}

	if user == nil || user.Language == "" {
		if lang, ok := entities.ParseLanguage(text); ok {
			if err := b.users.SetLanguage(ctx, userID, lang); err != nil {
				b.log.Error("language set failed", "user", userID, "error", err)
			}
			b.send(msg.Chat.ID, i18n.Ready(lang))
		} else {
			b.send(msg.Chat.ID, i18n.LanguagePrompt)
		}
		return
	}

	lang := user.Language
	decision := b.answerer.Decide(ctx, text, lang)

	if decision.Action == entities.ActionAnswered {
		b.send(msg.Chat.ID, decision.Answer)
	} else {
		b.send(msg.Chat.ID, i18n.ForOutcome(decision.Action, decision.Reason, lang))
	}

	b.answerer.LogOutcome(ctx, userID, text, decision)
}

func (b *Bot) download(ctx context.Context, fileID, name string) (string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("resolving file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching file: status %d", resp.StatusCode)
	}

	path := filepath.Join(b.cfg.DocsDir, filepath.Base(name))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", err
	}
	return path, nil
}

func (b *Bot) adminPrivate(msg *tgbotapi.Message) bool {
	return b.cfg.IsAdmin(msg.From.ID) && msg.Chat.IsPrivate()
}

func (b *Bot) supportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// language resolves the user's template language, defaulting to
// English before onboarding completes.
func (b *Bot) language(ctx context.Context, userID int64) entities.Language {
	user, err := b.users.Get(ctx, userID)
	if err != nil || user == nil || user.Language == "" {
		return entities.LangEnglish
	}
	return user.Language
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("send failed", "chat", chatID, "error", err)
	}
}
