package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"project-tracker/backend/models"
	"project-tracker/backend/services"
	"project-tracker/backend/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectHandler struct {
	Service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{Service: service}
}

type CreateProjectRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Deadline    *time.Time           `json:"deadline"`
	Team        []primitive.ObjectID `json:"team"`
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	project, err := h.Service.CreateProject(r.Context(), actor, req.Title, req.Description, req.Deadline, req.Team)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	projects, err := h.Service.ListProjects(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteList(w, projects, len(projects))
}

func (h *ProjectHandler) GetProjectByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	project, err := h.Service.GetProject(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var patch models.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	project, err := h.Service.UpdateProject(r.Context(), actor, mux.Vars(r)["id"], patch)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteProject(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Project deleted")
}
