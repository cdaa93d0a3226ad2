package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"project-tracker/backend/logging"
	"project-tracker/backend/models"
	"project-tracker/backend/store"
	"project-tracker/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserService is the identity store: registration, credential checks and
// token issue. It never exposes password hashes and leaves all project/task
// rights to the authorization guard.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService {
	return &UserService{store: s}
}

// Register creates a user with a bcrypt-hashed password and returns the
// user together with a fresh token.
func (s *UserService) Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, "", fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: a valid email is required", models.ErrValidation)
	}
	if len(password) < 6 {
		return nil, "", fmt.Errorf("%w: password must be 6 or more characters", models.ErrValidation)
	}
	if role == "" {
		role = models.RoleTeamMember
	}
	if role != models.RoleAdmin && role != models.RoleTeamMember {
		return nil, "", fmt.Errorf("%w: invalid role %q", models.ErrValidation, role)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("%w: user already exists", models.ErrValidation)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Name:             name,
		Email:            email,
		Password:         string(hashedPassword),
		Role:             role,
		CreatedProjects:  []primitive.ObjectID{},
		AssignedProjects: []primitive.ObjectID{},
		AssignedTasks:    []primitive.ObjectID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered with role %s", user.ID.Hex(), user.Role)
	return user, token, nil
}

// Login verifies the credentials and returns the user with a fresh token.
// Wrong email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", models.ErrUnauthenticated)
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", models.ErrUnauthenticated)
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}
	return user, token, nil
}

// CurrentUser loads the user behind an authenticated actor id.
func (s *UserService) CurrentUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// ListUsers returns all users, for team and assignee selection.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}
