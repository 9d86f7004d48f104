package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"docschat/internal/models"
)

type pagesService interface {
	List(ctx context.Context) ([]string, error)
	Content(ctx context.Context, url string) (*models.PageContentResponse, error)
}

type PagesHandler struct {
	pages  pagesService
	logger *zap.Logger
}

func NewPagesHandler(pages pagesService, logger *zap.Logger) *PagesHandler {
	return &PagesHandler{pages: pages, logger: logger}
}

func (h *PagesHandler) List(w http.ResponseWriter, r *http.Request) {
	urls, err := h.pages.List(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, models.PageListResponse{URLs: urls})
}

func (h *PagesHandler) Content(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.Content(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}
