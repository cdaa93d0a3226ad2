package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"project-tracker/backend/models"
	"project-tracker/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedUser(t *testing.T, s store.Store, name string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	user := &models.User{
		Name:             name,
		Email:            fmt.Sprintf("%s@example.com", name),
		Password:         "hashed",
		Role:             models.RoleTeamMember,
		CreatedProjects:  []primitive.ObjectID{},
		AssignedProjects: []primitive.ObjectID{},
		AssignedTasks:    []primitive.ObjectID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.InsertUser(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return user
}

func reloadUser(t *testing.T, s store.Store, id primitive.ObjectID) *models.User {
	t.Helper()
	user, err := s.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload user %s: %v", id.Hex(), err)
	}
	return user
}

func hasID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }
