package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/bellhop-ai/bellhop/server/classifier"
)

// CategoryInfo is one taxonomy entry as served to clients.
type CategoryInfo struct {
	Category              string `json:"category"`
	Name                  string `json:"name"`
	Description           string `json:"description"`
	Department            string `json:"department"`
	TypicalCompletionTime string `json:"typical_completion_time"`
}

// CategoriesResponse lists the service taxonomy.
type CategoriesResponse struct {
	Categories []CategoryInfo `json:"categories"`
}

// CategoriesHandler serves the category listing. The response comes
// straight from configuration; no model call is involved.
type CategoriesHandler struct {
	service *classifier.Service
	logger  *zap.Logger
}

// NewCategoriesHandler creates the handler.
func NewCategoriesHandler(service *classifier.Service, logger *zap.Logger) *CategoriesHandler {
	return &CategoriesHandler{service: service, logger: logger}
}

func (h *CategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	categories := h.service.Categories()

	resp := CategoriesResponse{Categories: make([]CategoryInfo, len(categories))}
	for i, c := range categories {
		resp.Categories[i] = CategoryInfo{
			Category:              string(c.Key),
			Name:                  c.Name,
			Description:           c.Description,
			Department:            c.Department,
			TypicalCompletionTime: c.TypicalCompletionTime,
		}
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}
