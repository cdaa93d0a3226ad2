package handlers

import (
	"errors"
	"net/http"

	"project-tracker/backend/logging"
	"project-tracker/backend/middleware"
	"project-tracker/backend/models"
	"project-tracker/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps the core error taxonomy onto status codes. Anything
// outside the taxonomy is a server fault and is not leaked to the caller.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		utils.WriteMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrForbidden):
		utils.WriteMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidReference):
		utils.WriteMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrUnauthenticated):
		utils.WriteMessage(w, http.StatusUnauthorized, err.Error())
	default:
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: Unhandled error: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Server Error")
	}
}

// requireActor pulls the authenticated actor out of the request context.
// Routes behind JWTAuthMiddleware always have one; a miss means the route
// was wired without the middleware.
func requireActor(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, "Not authenticated")
		return primitive.NilObjectID, false
	}
	return actor, true
}
