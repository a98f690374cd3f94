package handlers

import (
	"encoding/json"
	"net/http"

	"tokolink/internal/domain"
	"tokolink/internal/infra"
)

// JobQueue is the slice of the queue the route layer needs.
type JobQueue interface {
	Add(ownerID, categoryID string, opts domain.RenderOptions) string
	Get(id string) (domain.VideoJob, bool)
}

// App bundles handler dependencies.
type App struct {
	Jobs   JobQueue
	Logger infra.Logger
}

// NewApp constructs the handler container.
func NewApp(jobs JobQueue, logger infra.Logger) *App {
	return &App{Jobs: jobs, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
