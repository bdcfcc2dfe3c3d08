package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/flookyhq/flooky-tools/internal/adapter/observability"
	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/prompt"
)

// greeting is served for empty messages without spending a model call.
const greeting = "¡Hola! ¿En qué puedo ayudarte hoy? 😊"

// ChatService runs the conversational assistant over an injected
// conversation store, so history survives restarts when a persistent
// backend is configured.
type ChatService struct {
	AI        domain.CompletionClient
	Store     domain.ConversationStore
	MaxTokens int
}

// ChatReply is the assistant's answer for one turn.
type ChatReply struct {
	Message   string `json:"message"`
	SessionID string `json:"conversation_id"`
}

// NewChatService constructs a ChatService.
func NewChatService(ai domain.CompletionClient, store domain.ConversationStore, maxTokens int) ChatService {
	return ChatService{AI: ai, Store: store, MaxTokens: maxTokens}
}

// Send handles one chat turn for sessionID. Upstream failures degrade to
// an apologetic assistant reply instead of an error, so the conversation
// never breaks mid-session.
func (s ChatService) Send(ctx context.Context, sessionID, message string) (ChatReply, error) {
	start := time.Now()
	if strings.TrimSpace(message) == "" {
		observeTask(domain.TaskChat, observability.OutcomeOK, start)
		return ChatReply{Message: greeting, SessionID: sessionID}, nil
	}

	history, err := s.Store.History(ctx, sessionID)
	if err != nil {
		return ChatReply{}, err
	}

	var toAppend []domain.Message
	system := prompt.ChatSystem
	if len(history) == 0 || history[0].Role != domain.RoleSystem {
		toAppend = append(toAppend, domain.Message{Role: domain.RoleSystem, Content: system})
	} else {
		system = history[0].Content
	}
	userMsg := domain.Message{Role: domain.RoleUser, Content: message}
	toAppend = append(toAppend, userMsg)

	req := domain.CompletionRequest{
		System:      system,
		MaxTokens:   s.MaxTokens,
		Temperature: domain.Temp(1),
	}
	for _, m := range history {
		if m.Role == domain.RoleSystem {
			continue
		}
		req.Messages = append(req.Messages, m)
	}
	req.Messages = append(req.Messages, userMsg)

	reply, err := s.AI.Complete(ctx, req)
	outcome := observability.OutcomeOK
	if err != nil {
		slog.Error("chat completion failed", slog.String("session_id", sessionID), slog.Any("error", err))
		reply = fmt.Sprintf("Lo siento, estoy teniendo problemas técnicos. 😔 Error: %v", err)
		outcome = observability.OutcomeDegraded
	}

	toAppend = append(toAppend, domain.Message{Role: domain.RoleAssistant, Content: reply})
	if err := s.Store.Append(ctx, sessionID, toAppend...); err != nil {
		return ChatReply{}, err
	}
	observeTask(domain.TaskChat, outcome, start)
	return ChatReply{Message: reply, SessionID: sessionID}, nil
}

// Reset discards the conversation for sessionID.
func (s ChatService) Reset(ctx context.Context, sessionID string) error {
	return s.Store.Reset(ctx, sessionID)
}
