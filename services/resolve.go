package services

import (
	"context"

	"project-tracker/backend/models"
	"project-tracker/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// resolver turns raw ids into embedded summaries, caching lookups for the
// duration of one request. A reference to a vanished record resolves to an
// id-only summary instead of failing the whole read.
type resolver struct {
	store    store.Store
	users    map[primitive.ObjectID]models.UserSummary
	projects map[primitive.ObjectID]models.ProjectRef
}

func newResolver(s store.Store) *resolver {
	return &resolver{
		store:    s,
		users:    make(map[primitive.ObjectID]models.UserSummary),
		projects: make(map[primitive.ObjectID]models.ProjectRef),
	}
}

func (r *resolver) user(ctx context.Context, id primitive.ObjectID) models.UserSummary {
	if summary, ok := r.users[id]; ok {
		return summary
	}
	summary := models.UserSummary{ID: id}
	if user, err := r.store.GetUserByID(ctx, id); err == nil {
		summary = user.Summary()
	}
	r.users[id] = summary
	return summary
}

func (r *resolver) userPtr(ctx context.Context, id *primitive.ObjectID) *models.UserSummary {
	if id == nil {
		return nil
	}
	summary := r.user(ctx, *id)
	return &summary
}

func (r *resolver) projectRef(ctx context.Context, id primitive.ObjectID) models.ProjectRef {
	if ref, ok := r.projects[id]; ok {
		return ref
	}
	ref := models.ProjectRef{ID: id}
	if project, err := r.store.GetProjectByID(ctx, id); err == nil {
		ref.Title = project.Title
	}
	r.projects[id] = ref
	return ref
}

func (r *resolver) taskSummary(ctx context.Context, task *models.Task) models.TaskSummary {
	return models.TaskSummary{
		ID:         task.ID,
		Title:      task.Title,
		Status:     task.Status,
		Priority:   task.Priority,
		Deadline:   task.Deadline,
		AssignedTo: r.userPtr(ctx, task.AssignedTo),
	}
}

func (r *resolver) taskView(ctx context.Context, task *models.Task, withComments bool) models.TaskView {
	view := models.TaskView{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Project:     r.projectRef(ctx, task.Project),
		AssignedTo:  r.userPtr(ctx, task.AssignedTo),
		CreatedBy:   r.user(ctx, task.CreatedBy),
		Deadline:    task.Deadline,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if withComments {
		view.Comments = r.commentViews(ctx, task.Comments)
	}
	return view
}

func (r *resolver) commentViews(ctx context.Context, comments []models.Comment) []models.CommentView {
	views := make([]models.CommentView, 0, len(comments))
	for _, comment := range comments {
		views = append(views, models.CommentView{
			Text:      comment.Text,
			User:      r.user(ctx, comment.User),
			CreatedAt: comment.CreatedAt,
		})
	}
	return views
}

func (r *resolver) teamSummaries(ctx context.Context, team []primitive.ObjectID) []models.UserSummary {
	summaries := make([]models.UserSummary, 0, len(team))
	for _, member := range team {
		summaries = append(summaries, r.user(ctx, member))
	}
	return summaries
}
