package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/timeline/backend-go/internal/auth"
	"github.com/inamate/timeline/backend-go/internal/command"
	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/engine"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the project API on r. r is expected to be behind
// auth.AuthMiddleware.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/projects", h.List).Methods("GET")
	r.HandleFunc("/projects", h.Create).Methods("POST")
	r.HandleFunc("/projects/{projectId}", h.Get).Methods("GET")
	r.HandleFunc("/projects/{projectId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/projects/{projectId}/state", h.State).Methods("GET")
	r.HandleFunc("/projects/{projectId}/ops", h.SubmitOp).Methods("POST")
	r.HandleFunc("/projects/{projectId}/suggestions", h.Suggestions).Methods("POST")
}

type createRequest struct {
	Name string `json:"name"`
}

type suggestionsRequest struct {
	Suggestions []document.Suggestion `json:"suggestions"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	project, err := h.service.Create(r.Context(), req.Name, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.List(r.Context()))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.Get(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	projectID := mux.Vars(r)["projectId"]

	if err := h.service.Delete(r.Context(), projectID, userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.State(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SubmitOp applies one operation. Panels that live outside the timeline
// (effect drag-and-drop, suggestion lists) edit through here.
func (h *Handler) SubmitOp(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	projectID := mux.Vars(r)["projectId"]

	var op command.Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.service.Apply(r.Context(), projectID, userID, op)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	placed, err := h.service.Suggestions(r.Context(), mux.Vars(r)["projectId"], req.Suggestions)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placed)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
	case errors.Is(err, engine.ErrNotFound):
		writeOpError(w, http.StatusNotFound, err)
	case errors.Is(err, engine.ErrLocked):
		writeOpError(w, http.StatusConflict, err)
	case errors.Is(err, engine.ErrInvalidRange), errors.Is(err, engine.ErrKindMismatch):
		writeOpError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, command.ErrInvalid):
		writeOpError(w, http.StatusBadRequest, err)
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeOpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": command.Code(err)})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
