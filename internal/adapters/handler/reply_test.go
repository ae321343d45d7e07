package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"messenger-inbox/internal/adapters/dto"
	"messenger-inbox/internal/adapters/gateway"
	"messenger-inbox/internal/core/domain"
	"messenger-inbox/internal/core/services"
)

type stubReplier struct {
	resp *dto.SendResponse
	err  error

	gotConv *domain.Conversation
	gotText string
}

func (s *stubReplier) Reply(ctx context.Context, conv *domain.Conversation, text string) (*dto.SendResponse, error) {
	s.gotConv = conv
	s.gotText = text
	return s.resp, s.err
}

type stubConversationStore struct {
	conv *domain.Conversation
	err  error
}

func (s *stubConversationStore) FindOpenThread(ctx context.Context, integrationID int64, kind, pairKey string) (*domain.Conversation, error) {
	return nil, nil
}

func (s *stubConversationStore) CreateConversation(ctx context.Context, conv *domain.Conversation) (int64, error) {
	return 0, nil
}

func (s *stubConversationStore) ResetReadUsers(ctx context.Context, id int64) error {
	return nil
}

func (s *stubConversationStore) GetConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	return s.conv, s.err
}

type stubMessageStore struct {
	saved []*domain.Message
}

func (s *stubMessageStore) CreateMessage(ctx context.Context, msg *domain.Message) (int64, error) {
	s.saved = append(s.saved, msg)
	return int64(len(s.saved)), nil
}

func newReplyRouter(h *ReplyHandler) chi.Router {
	r := chi.NewRouter()
	RegisterReplyRoutes(r, h)
	return r
}

func postReply(router chi.Router, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func openConversation() *domain.Conversation {
	return &domain.Conversation{
		ID:            42,
		IntegrationID: 1,
		CustomerID:    7,
		Status:        domain.ConversationStatusOpen,
		Facebook: domain.FacebookThread{
			Kind:        domain.FacebookKindMessenger,
			SenderID:    "USER_A",
			RecipientID: "PAGE_1",
			PageID:      "PAGE_1",
		},
	}
}

func TestHandleReplySendsAndPersistsOutboundMessage(t *testing.T) {
	replier := &stubReplier{resp: &dto.SendResponse{RecipientID: "USER_A", MessageID: "mid.out"}}
	messages := &stubMessageStore{}
	router := newReplyRouter(NewReplyHandler(replier, &stubConversationStore{conv: openConversation()}, messages))

	rec := postReply(router, "/api/conversations/42/reply", `{"text":"on our way"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "on our way", replier.gotText)
	assert.Equal(t, int64(42), replier.gotConv.ID)

	var resp APIResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Success", resp.Message)

	if assert.Len(t, messages.saved, 1) {
		assert.Equal(t, int64(42), messages.saved[0].ConversationID)
		assert.Equal(t, int64(7), messages.saved[0].CustomerID)
		assert.Equal(t, "on our way", messages.saved[0].Content)
		assert.False(t, messages.saved[0].Internal)
	}
}

func TestHandleReplyUnconfiguredAppIsConflict(t *testing.T) {
	replier := &stubReplier{err: &services.ConfigurationError{IntegrationID: 1, AppID: "gone-app"}}
	messages := &stubMessageStore{}
	router := newReplyRouter(NewReplyHandler(replier, &stubConversationStore{conv: openConversation()}, messages))

	rec := postReply(router, "/api/conversations/42/reply", `{"text":"hello"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, messages.saved)
}

func TestHandleReplyPlatformFailureIsBadGateway(t *testing.T) {
	replier := &stubReplier{err: &gateway.PlatformError{StatusCode: 400, Code: 190, Message: "token expired"}}
	messages := &stubMessageStore{}
	router := newReplyRouter(NewReplyHandler(replier, &stubConversationStore{conv: openConversation()}, messages))

	rec := postReply(router, "/api/conversations/42/reply", `{"text":"hello"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, messages.saved)
}

func TestHandleReplyUnknownConversationIsNotFound(t *testing.T) {
	router := newReplyRouter(NewReplyHandler(&stubReplier{}, &stubConversationStore{}, &stubMessageStore{}))

	rec := postReply(router, "/api/conversations/42/reply", `{"text":"hello"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReplyValidatesInput(t *testing.T) {
	router := newReplyRouter(NewReplyHandler(&stubReplier{}, &stubConversationStore{conv: openConversation()}, &stubMessageStore{}))

	rec := postReply(router, "/api/conversations/not-a-number/reply", `{"text":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postReply(router, "/api/conversations/42/reply", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postReply(router, "/api/conversations/42/reply", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
