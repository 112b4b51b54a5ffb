package api

import (
	"net/http"

	"fairytale-chat/internal/models"
	"fairytale-chat/internal/persona"
)

// PersonaHandler serves the persona catalog
type PersonaHandler struct {
	registry *persona.Registry
}

// NewPersonaHandler creates a persona handler
func NewPersonaHandler(registry *persona.Registry) *PersonaHandler {
	return &PersonaHandler{registry: registry}
}

// PersonaResponse is a persona as listed to clients
type PersonaResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Traits        []string `json:"traits"`
	Welcome       string   `json:"welcome"`
	Suggestions   []string `json:"suggestions"`
	KnowledgeBase bool     `json:"knowledge_base"`
	Default       bool     `json:"default"`
}

// List handles GET /api/personas
func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	personas := h.registry.List()
	resp := make([]PersonaResponse, 0, len(personas))
	for _, p := range personas {
		resp = append(resp, toPersonaResponse(p, p.ID == h.registry.DefaultID()))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toPersonaResponse(p models.Persona, isDefault bool) PersonaResponse {
	traits := p.Traits
	if traits == nil {
		traits = []string{}
	}
	return PersonaResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Traits:        traits,
		Welcome:       p.Welcome,
		Suggestions:   p.Suggestions,
		KnowledgeBase: p.KnowledgeBase,
		Default:       isDefault,
	}
}
