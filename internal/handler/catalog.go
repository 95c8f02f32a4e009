package handler

import (
	"net/http"

	"github.com/sakif/heartline/internal/model"
)

var (
	visualsCatalog = []model.CatalogEntry{
		{ID: 1, Title: "Handwritten Letters", Description: "Personal letters written by creators to lift your mood"},
		{ID: 2, Title: "Poems", Description: "Short poems about feelings, hope and healing"},
		{ID: 3, Title: "Live Concerts", Description: "Recorded and live music sessions from our creators"},
	}
	culturalCatalog = []model.CatalogEntry{
		{ID: 1, Title: "Cultural Events", Description: "Upcoming community events and gatherings"},
		{ID: 2, Title: "Videos", Description: "Cultural performances and stories shared by creators"},
	}
)

// HandleVisuals handles GET /api/visuals.
func HandleVisuals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, visualsCatalog)
}

// HandleCultural handles GET /api/cultural.
func HandleCultural(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, culturalCatalog)
}

// HandleHealth is the liveness probe.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
