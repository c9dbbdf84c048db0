package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
	"github.com/jggl/kb-assist/internal/i18n"
)

// Classifier detects confidentiality-relevant intents in a raw
// question. Sensitive takes precedence over source-request.
type Classifier interface {
	Classify(text string) entities.Classification
}

// Decision is the terminal outcome of the answering pipeline for one
// question. Evidence is deliberately unexported: outbound rendering
// sees only Action, Reason and Answer, the audit record is built from
// the evidence on a separate path.
type Decision struct {
	Action entities.Action
	Reason string
	Answer string

	evidence []entities.RetrievalResult
}

// Answerer is the decision pipeline: classify, retrieve, compose,
// complete. Every failure of retrieval or completion collapses to an
// escalation; the user never sees a raw error.
type Answerer struct {
	classifier Classifier
	retriever  *Retriever
	completer  ports.Completer
	audit      ports.AuditLog
	enforce    bool
	log        *slog.Logger
}

const (
	completionTemperature = 0.5
	completionMaxTokens   = 500
)

// NewAnswerer wires the pipeline. enforce disables the classifier
// short-circuit when false (staging aid); retrieval gating is always
// on.
func NewAnswerer(
	classifier Classifier,
	retriever *Retriever,
	completer ports.Completer,
	audit ports.AuditLog,
	enforce bool,
	log *slog.Logger,
) *Answerer {
	return &Answerer{
		classifier: classifier,
		retriever:  retriever,
		completer:  completer,
		audit:      audit,
		enforce:    enforce,
		log:        log,
	}
}

// Decide runs the state machine for one question. It never returns an
// error: every failure is folded into a refusal or escalation so the
// transport always has exactly one reply to send.
func (a *Answerer) Decide(ctx context.Context, question string, lang entities.Language) Decision {
	if a.enforce {
		switch a.classifier.Classify(question) {
		case entities.ClassSensitive:
			a.log.Warn("sensitive topic refused", "question", truncate(question, 50))
			return Decision{Action: entities.ActionRefused, Reason: entities.ReasonSensitiveTopic}
		case entities.ClassSourceRequest:
			a.log.Info("source request refused", "question", truncate(question, 50))
			return Decision{Action: entities.ActionRefused, Reason: entities.ReasonSourceRequest}
		}
	}

	results, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		a.log.Error("retrieval failed", "error", err, "kind", errorKind(err))
		return Decision{Action: entities.ActionEscalated, Reason: entities.ReasonRetrievalError}
	}
	if len(results) == 0 {
		a.log.Info("no evidence above threshold", "question", truncate(question, 50))
		return Decision{Action: entities.ActionEscalated, Reason: entities.ReasonNoChunks}
	}

	messages := composeMessages(question, results, lang)
	answer, err := a.completer.Complete(ctx, messages, completionTemperature, completionMaxTokens)
	if err != nil {
		a.log.Error("completion failed", "error", err, "kind", errorKind(err))
		return Decision{Action: entities.ActionEscalated, Reason: entities.ReasonLLMError, evidence: results}
	}

	return Decision{Action: entities.ActionAnswered, Answer: answer, evidence: results}
}

// LogOutcome appends exactly one interaction record for a finalized
// decision. It runs after the reply has been sent: audit failure is
// reported but never reverses or blocks the conversation.
func (a *Answerer) LogOutcome(ctx context.Context, telegramID int64, question string, d Decision) {
	rec := entities.InteractionRecord{
		TelegramID: telegramID,
		Question:   question,
		Action:     d.Action,
	}

	if d.Action == entities.ActionAnswered {
		rec.InternalSources = encodeEvidence(d.evidence)
		rec.RetrievalScores = encodeScores(d.evidence)
	} else {
		rec.InternalSources = d.Reason
	}

	if _, err := a.audit.Append(ctx, rec); err != nil {
		a.log.Error("audit append failed", "user", telegramID, "action", d.Action, "error", err)
	}
}

// composeMessages builds the completion request: the fixed system
// instruction plus a user turn embedding the evidence texts and the
// original question. Evidence order is retrieval order. The filename
// and page tags exist for the model's grounding only; the system
// prompt forbids echoing them.
func composeMessages(question string, results []entities.RetrievalResult, lang entities.Language) []entities.ChatMessage {
	var sb strings.Builder
	for i, res := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s:p%d]\n%s", res.Chunk.Filename, res.Chunk.Page, res.Chunk.Text)
	}

	return []entities.ChatMessage{
		{Role: "system", Content: i18n.SystemPrompt(lang)},
		{
			Role: "user",
			Content: fmt.Sprintf("Context from knowledge base:\n\n%s\n\n---\n\nUser question: %s",
				sb.String(), question),
		},
	}
}

func encodeEvidence(results []entities.RetrievalResult) string {
	refs := make([]entities.EvidenceRef, len(results))
	for i, res := range results {
		refs[i] = entities.EvidenceRef{
			Filename:   res.Chunk.Filename,
			Page:       res.Chunk.Page,
			ChunkID:    res.Chunk.ID,
			Similarity: res.Similarity,
		}
	}
	data, _ := json.Marshal(refs)
	return string(data)
}

func encodeScores(results []entities.RetrievalResult) string {
	type score struct {
		ChunkID    string  `json:"chunk_id"`
		Similarity float64 `json:"similarity"`
	}
	scores := make([]score, len(results))
	for i, res := range results {
		scores[i] = score{
			ChunkID:    res.Chunk.ID,
			Similarity: math.Round(res.Similarity*1000) / 1000,
		}
	}
	data, _ := json.Marshal(scores)
	return string(data)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ports.ErrEmbedding):
		return "embedding"
	case errors.Is(err, ports.ErrCompletion):
		return "completion"
	case errors.Is(err, ports.ErrIndexUnavailable):
		return "index"
	default:
		return "unknown"
	}
}

// truncate shortens s to at most n characters for log output, cutting
// on a rune boundary.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
