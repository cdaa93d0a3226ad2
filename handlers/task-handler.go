package handlers

import (
	"encoding/json"
	"net/http"

	"project-tracker/backend/models"
	"project-tracker/backend/services"
	"project-tracker/backend/utils"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	Service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{Service: service}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.NewTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	task, err := h.Service.CreateTask(r.Context(), actor, req)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, task)
}

// ListTasks supports ?projectId=, ?status= and ?priority= query filters.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	query := services.TaskQuery{
		Project:  r.URL.Query().Get("projectId"),
		Status:   models.TaskStatus(r.URL.Query().Get("status")),
		Priority: models.TaskPriority(r.URL.Query().Get("priority")),
	}

	tasks, err := h.Service.ListTasks(r.Context(), actor, query)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteList(w, tasks, len(tasks))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	task, err := h.Service.GetTask(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	task, err := h.Service.UpdateTask(r.Context(), actor, mux.Vars(r)["id"], patch)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteTask(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Task deleted")
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	comments, err := h.Service.AddComment(r.Context(), actor, mux.Vars(r)["id"], req.Text)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, comments)
}
