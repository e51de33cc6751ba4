// Package httpapi serves the chat turn and conversation management endpoints.
package httpapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"storefront-assistant/internal/cache"
	"storefront-assistant/internal/model"
	"storefront-assistant/internal/store"
)

// go-playground/validator/v10: request bodies are validated against struct tags.
var validate = validator.New()

// UserHeader carries the authenticated shopper id, set by the auth proxy.
const UserHeader = "X-User-ID"

// TurnHandler answers one chat request.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req model.ChatRequest) (*model.ChatReply, error)
}

// Service holds the handlers' collaborators.
type Service struct {
	chat  TurnHandler
	store store.Store
	trash cache.Trash
	log   zerolog.Logger
}

// NewService creates the chat API.
func NewService(chat TurnHandler, st store.Store, trash cache.Trash, log zerolog.Logger) *Service {
	return &Service{
		chat:  chat,
		store: st,
		trash: trash,
		log:   log.With().Str("component", "http-api").Logger(),
	}
}

// RegisterRoutes wires HTTP routes.
// gorilla/mux: Router provides method-based routing and URL pattern matching.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", s.Chat).Methods(http.MethodPost)
	api.HandleFunc("/conversations", s.ListConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages", s.ConversationMessages).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages/{messageID}", s.DeleteMessage).Methods(http.MethodDelete)
	api.HandleFunc("/conversations/{id}/rename", s.Rename).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/pin", s.Pin).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/delete", s.Delete).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/restore", s.Restore).Methods(http.MethodPost)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatBody struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
}

// Chat handles POST /api/chat.
func (s *Service) Chat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if !decodeBody(w, r, &body) {
		return
	}
	req := model.ChatRequest{
		Query:          strings.TrimSpace(body.Query),
		ConversationID: body.ConversationID,
		Caller:         caller(r),
	}
	// go-playground/validator/v10: query required and bounded, conversation id bounded.
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	reply, err := s.chat.HandleTurn(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, reply)
}

// ConversationSummary is one row of the conversation sidebar.
type ConversationSummary struct {
	model.Conversation
	Preview string `json:"preview"`
}

// ListConversations handles GET /api/conversations, pinned first then newest.
func (s *Service) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	convs, err := s.store.ListConversations(ctx, caller(r).UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		msgs, err := s.store.Messages(ctx, c.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		sum := ConversationSummary{Conversation: c}
		if n := len(msgs); n > 0 {
			sum.Preview = store.Title(msgs[n-1].Content)
		}
		out = append(out, sum)
	}
	writeData(w, out)
}

// ConversationMessages handles GET /api/conversations/{id}/messages.
func (s *Service) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.owned(w, r)
	if !ok {
		return
	}
	msgs, err := s.store.Messages(r.Context(), conv.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	writeData(w, msgs)
}

type renameBody struct {
	Title string `json:"title" validate:"required,max=100"`
}

// Rename handles POST /api/conversations/{id}/rename.
func (s *Service) Rename(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.owned(w, r)
	if !ok {
		return
	}
	var body renameBody
	if !decodeBody(w, r, &body) {
		return
	}
	body.Title = strings.TrimSpace(body.Title)
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, "missing title")
		return
	}
	if err := s.store.SetTitle(r.Context(), conv.ID, body.Title); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, map[string]string{"id": conv.ID, "title": body.Title})
}

// Pin handles POST /api/conversations/{id}/pin, toggling the pin.
func (s *Service) Pin(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.owned(w, r)
	if !ok {
		return
	}
	pinned, err := s.store.TogglePin(r.Context(), conv.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, map[string]bool{"pinned": pinned})
}

// Delete handles POST /api/conversations/{id}/delete. The conversation stays
// restorable until the trash entry expires.
func (s *Service) Delete(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.owned(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	msgs, err := s.store.Messages(ctx, conv.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.trash.Put(ctx, cache.Entry{Conversation: *conv, Messages: msgs}); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteConversation(ctx, conv.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, map[string]bool{"deleted": true})
}

// Restore handles POST /api/conversations/{id}/restore.
func (s *Service) Restore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	entry, err := s.trash.Take(ctx, id)
	if errors.Is(err, cache.ErrGone) {
		writeError(w, http.StatusGone, "conversation can no longer be restored")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ownedBy(&entry.Conversation, caller(r)) {
		// Put it back so the owner can still restore it.
		if err := s.trash.Put(ctx, *entry); err != nil {
			s.log.Warn().Err(err).Str("conversation_id", id).Msg("re-trash failed")
		}
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err := s.store.RestoreConversation(ctx, entry.Conversation, entry.Messages); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, map[string]bool{"restored": true})
}

// DeleteMessage handles DELETE /api/conversations/{id}/messages/{messageID}.
func (s *Service) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.owned(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	messageID := mux.Vars(r)["messageID"]
	msgs, err := s.store.Messages(ctx, conv.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	found := false
	for _, m := range msgs {
		if m.ID == messageID {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, map[string]bool{"deleted": true})
}

// owned loads the {id} conversation and checks the caller may see it.
func (s *Service) owned(w http.ResponseWriter, r *http.Request) (*model.Conversation, bool) {
	conv, err := s.store.GetConversation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	if !ownedBy(conv, caller(r)) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return nil, false
	}
	return conv, true
}

// ownedBy matches the dispatcher's rule: anonymous conversations are open,
// owned ones are visible only to their owner.
func ownedBy(conv *model.Conversation, c model.Caller) bool {
	return conv.Owner == "" || conv.Owner == c.UserID
}

func caller(r *http.Request) model.Caller {
	id := strings.TrimSpace(r.Header.Get(UserHeader))
	return model.Caller{UserID: id, Authenticated: id != ""}
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeBody reads a JSON body, gzip-compressed when Content-Encoding says so.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	reader := io.Reader(http.MaxBytesReader(w, r.Body, 1<<20))
	if enc := r.Header.Get("Content-Encoding"); strings.EqualFold(enc, "gzip") {
		gr, err := gzip.NewReader(reader)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to decompress gzip body")
			return false
		}
		defer gr.Close()
		reader = gr
	}
	if err := json.NewDecoder(reader).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
