package handlers

import (
	"encoding/json"
	"net/http"

	"project-tracker/backend/models"
	"project-tracker/backend/services"
	"project-tracker/backend/utils"
)

type AuthHandler struct {
	Service *services.UserService
}

func NewAuthHandler(service *services.UserService) *AuthHandler {
	return &AuthHandler{Service: service}
}

type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, token, err := h.Service.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, token, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me returns the authenticated user's own record.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	user, err := h.Service.CurrentUser(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, user)
}

// ListUsers returns all users, for team selection.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteList(w, users, len(users))
}
