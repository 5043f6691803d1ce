package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

// ChatService is the subset of service.ChatService used by ChatHandler.
type ChatService interface {
	Open(sid, providerID string) domain.ChatThread
	Send(ctx context.Context, sid, providerID, text string) (domain.ChatMessage, error)
}

type ChatHandler struct {
	chat    ChatService
	catalog ProviderCatalog
}

func NewChatHandler(chat ChatService, catalog ProviderCatalog) *ChatHandler {
	return &ChatHandler{chat: chat, catalog: catalog}
}

// Thread returns the caller's conversation with a provider, opening it with
// the provider's greeting on first access.
//
// @Summary      Chat thread
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        provider_id  path      string  true  "Provider id"
// @Success      200          {object}  domain.ChatThread
// @Failure      401          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Router       /v1/chat/{provider_id} [get]
func (h *ChatHandler) Thread(c echo.Context) error {
	sid, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	provider, err := h.catalog.Provider(c.Param("provider_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.chat.Open(sid, provider.ID))
}

// Send posts a message to a provider. The provider's reply is appended to
// the thread asynchronously.
//
// @Summary      Send a chat message
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        provider_id  path      string              true  "Provider id"
// @Param        body         body      sendMessageRequest  true  "Message"
// @Success      201          {object}  domain.ChatMessage
// @Failure      401          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Failure      422          {object}  errorResponse
// @Router       /v1/chat/{provider_id}/messages [post]
func (h *ChatHandler) Send(c echo.Context) error {
	sid, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	provider, err := h.catalog.Provider(c.Param("provider_id"))
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	msg, err := h.chat.Send(c.Request().Context(), sid, provider.ID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}
