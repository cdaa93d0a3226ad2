package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"project-tracker/backend/models"
	"project-tracker/backend/store"
	"project-tracker/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateTaskDefaultsAndReferences(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	projects := NewProjectService(s)
	tasks := NewTaskService(s, nil)

	owner := seedUser(t, s, "owner")
	member := seedUser(t, s, "member")

	project, err := projects.CreateProject(ctx, owner.ID, "Board", "Task board", nil, []primitive.ObjectID{member.ID})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	task, err := tasks.CreateTask(ctx, owner.ID, models.NewTask{
		Title:       "Wire the API",
		Description: "Expose the endpoints",
		Project:     project.ID.Hex(),
		AssignedTo:  member.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if task.Status != models.TaskToDo {
		t.Errorf("status = %q, want %q", task.Status, models.TaskToDo)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want %q", task.Priority, models.PriorityMedium)
	}
	if task.CreatedBy != owner.ID {
		t.Errorf("createdBy = %s, want %s", task.CreatedBy.Hex(), owner.ID.Hex())
	}

	stored, err := s.GetProjectByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if len(stored.Tasks) != 1 || stored.Tasks[0] != task.ID {
		t.Errorf("project task list = %v, want [%s]", stored.Tasks, task.ID.Hex())
	}
	if !hasID(reloadUser(t, s, member.ID).AssignedTasks, task.ID) {
		t.Error("assignee's assignedTasks missing the task")
	}
}

func TestCreateTaskRejectsOutsiderAssignee(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	projects := NewProjectService(s)
	tasks := NewTaskService(s, nil)

	owner := seedUser(t, s, "owner")
	outsider := seedUser(t, s, "outsider")

	project, err := projects.CreateProject(ctx, owner.ID, "Closed", "No outsiders", nil, nil)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	_, err = tasks.CreateTask(ctx, owner.ID, models.NewTask{
		Title:       "Bad",
		Description: "Assignee not on the project",
		Project:     project.ID.Hex(),
		AssignedTo:  outsider.ID.Hex(),
	})
	if !errors.Is(err, models.ErrInvalidReference) {
		t.Fatalf("err = %v, want ErrInvalidReference", err)
	}

	// The rejected create must leave no trace.
	stored, err := s.GetProjectByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if len(stored.Tasks) != 0 {
		t.Errorf("project task list = %v, want empty", stored.Tasks)
	}
	if len(reloadUser(t, s, outsider.ID).AssignedTasks) != 0 {
		t.Error("outsider gained a task reference")
	}
}

func TestCreateTaskAuthorization(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	projects := NewProjectService(s)
	tasks := NewTaskService(s, nil)

	owner := seedUser(t, s, "owner")
	outsider := seedUser(t, s, "outsider")

	project, err := projects.CreateProject(ctx, owner.ID, "Guarded", "Members only", nil, nil)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	_, err = tasks.CreateTask(ctx, outsider.ID, models.NewTask{
		Title:       "Nope",
		Description: "Outsider create",
		Project:     project.ID.Hex(),
	})
	if !errors.Is(err, models.ErrForbidden) {
		t.Errorf("outsider create err = %v, want ErrForbidden", err)
	}

	_, err = tasks.CreateTask(ctx, owner.ID, models.NewTask{
		Title:       "Lost",
		Description: "Project does not exist",
		Project:     primitive.NewObjectID().Hex(),
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("absent project err = %v, want ErrNotFound", err)
	}
}

func TestUpdateTaskReassignAndUnassign(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	projects := NewProjectService(s)
	tasks := NewTaskService(s, nil)

	owner := seedUser(t, s, "owner")
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	project, err := projects.CreateProject(ctx, owner.ID, "Handoff", "Reassignment", nil, []primitive.ObjectID{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	task, err := tasks.CreateTask(ctx, owner.ID, models.NewTask{
		Title:       "Rotate",
		Description: "Moves between assignees",
		Project:     project.ID.Hex(),
		AssignedTo:  alice.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	updated, err := tasks.UpdateTask(ctx, owner.ID, task.ID.Hex(), models.TaskPatch{AssignedTo: strPtr(bob.ID.Hex())})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != bob.ID {
		t.Fatalf("assignedTo = %v, want %s", updated.AssignedTo, bob.ID.Hex())
	}
	if hasID(reloadUser(t, s, alice.ID).AssignedTasks, task.ID) {
		t.Error("previous assignee still holds the task")
	}
	if !hasID(reloadUser(t, s, bob.ID).AssignedTasks, task.ID) {
		t.Error("new assignee missing the task")
	}

	// Empty string clears the assignment.
	updated, err = tasks.UpdateTask(ctx, owner.ID, task.ID.Hex(), models.TaskPatch{AssignedTo: strPtr("")})
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if updated.AssignedTo != nil {
		t.Errorf("assignedTo = %s, want nil", updated.AssignedTo.Hex())
	}
	if hasID(reloadUser(t, s, bob.ID).AssignedTasks, task.ID) {
		t.Error("unassigned user still holds the task")
	}
}

func TestUpdateTaskPartialPatchAndAuthorization(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	projects := NewProjectService(s)
	tasks := NewTaskService(s, nil)

	owner := seedUser(t, s, "owner")
	member := seedUser(t, s, "member")

	project, err := projects.CreateProject(ctx, owner.ID, "Patch", "Partial updates", nil, []primitive.ObjectID{member.ID})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	task, err := tasks.CreateTask(ctx, owner.ID, models.NewTask{
		Title:       "Keep me",
		Description: "Original description",
		Project:     project.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	status := models.TaskInProgress
	updated, err := tasks.UpdateTask(ctx, owner.ID, task.ID.Hex(), models.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Status != models.TaskInProgress {
		t.Errorf("status = %q, want %q", updated.Status, models.TaskInProgress)
	}
	if updated.Title != "Keep me" || updated.Description != "Original description" {
		t.Error("absent patch fields were modified")
	}

	// Plain team members who did not create the task cannot edit it.
	title := "Hijacked"
	if _, err := tasks.UpdateTask(ctx, member.ID, task.ID.Hex(), models.TaskPatch{Title: &title}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("member update err = %v, want ErrForbidden", err)
	}

	bad := models.TaskStatus("Blocked")
	if _, err := tasks.UpdateTask(ctx, owner.ID, task.ID.Hex(), models.TaskPatch{Status: &bad}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("invalid status err = %v, want ErrValidation", err)
	}
}

func TestUpdateTaskRejectedPatchLeavesReferencesUntouched(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	projects := NewProjectService(s)

	notified := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notified++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	tasks := NewTaskService(s, utils.NewNotifier(utils.NewHTTPClient(), server.URL))

	owner := seedUser(t, s, "owner")
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	project, err := projects.CreateProject(ctx, owner.ID, "Atomic", "Patch is all or nothing", nil, []primitive.ObjectID{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	task, err := tasks.CreateTask(ctx, owner.ID, models.NewTask{
		Title:       "Held",
		Description: "Assigned to alice",
		Project:     project.ID.Hex(),
		AssignedTo:  alice.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	createNotifications := notified

	// A patch mixing a valid assignee change with an invalid status must be
	// rejected whole: no record change, no reference moved, no notification.
	bad := models.TaskStatus("Bogus")
	_, err = tasks.UpdateTask(ctx, owner.ID, task.ID.Hex(), models.TaskPatch{
		AssignedTo: strPtr(bob.ID.Hex()),
		Status:     &bad,
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	stored, err := s.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if stored.AssignedTo == nil || *stored.AssignedTo != alice.ID {
		t.Errorf("stored assignee = %v, want %s", stored.AssignedTo, alice.ID.Hex())
	}
	if !hasID(reloadUser(t, s, alice.ID).AssignedTasks, task.ID) {
		t.Error("rejected patch pulled the task from the current assignee")
	}
	if hasID(reloadUser(t, s, bob.ID).AssignedTasks, task.ID) {
		t.Error("rejected patch pushed the task to the proposed assignee")
	}
	if notified != createNotifications {
		t.Errorf("rejected patch sent %d notifications", notified-createNotifications)
	}

	// The same assignee change on its own goes through, with one notification.
	if _, err := tasks.UpdateTask(ctx, owner.ID, task.ID.Hex(), models.TaskPatch{AssignedTo: strPtr(bob.ID.Hex())}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if notified != createNotifications+1 {
		t.Errorf("successful reassignment sent %d notifications, want 1", notified-createNotifications)
	}
}

func TestDeleteTaskDetachesBothSides(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	projects := NewProjectService(s)
	tasks := NewTaskService(s, nil)

	owner := seedUser(t, s, "owner")
	member := seedUser(t, s, "member")

	project, err := projects.CreateProject(ctx, owner.ID, "Cleanup", "Delete semantics", nil, []primitive.ObjectID{member.ID})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	task, err := tasks.CreateTask(ctx, owner.ID, models.NewTask{
		Title:       "Doomed",
		Description: "Will be deleted",
		Project:     project.ID.Hex(),
		AssignedTo:  member.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if err := tasks.DeleteTask(ctx, member.ID, task.ID.Hex()); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("member delete err = %v, want ErrForbidden", err)
	}

	if err := tasks.DeleteTask(ctx, owner.ID, task.ID.Hex()); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	if _, err := s.GetTaskByID(ctx, task.ID); !errors.Is(err, models.ErrNotFound) {
		t.Error("task record survived deletion")
	}
	stored, err := s.GetProjectByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if hasID(stored.Tasks, task.ID) {
		t.Error("project task list still references the task")
	}
	if hasID(reloadUser(t, s, member.ID).AssignedTasks, task.ID) {
		t.Error("assignee still references the task")
	}
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	projects := NewProjectService(s)
	tasks := NewTaskService(s, nil)

	owner := seedUser(t, s, "owner")
	member := seedUser(t, s, "member")
	outsider := seedUser(t, s, "outsider")

	project, err := projects.CreateProject(ctx, owner.ID, "Discussion", "Comment log", nil, []primitive.ObjectID{member.ID})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	task, err := tasks.CreateTask(ctx, owner.ID, models.NewTask{
		Title:       "Talk",
		Description: "Has comments",
		Project:     project.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if _, err := tasks.AddComment(ctx, owner.ID, task.ID.Hex(), "   "); !errors.Is(err, models.ErrValidation) {
		t.Errorf("blank comment err = %v, want ErrValidation", err)
	}
	if _, err := tasks.AddComment(ctx, outsider.ID, task.ID.Hex(), "drive-by"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("outsider comment err = %v, want ErrForbidden", err)
	}

	if _, err := tasks.AddComment(ctx, owner.ID, task.ID.Hex(), "first"); err != nil {
		t.Fatalf("owner comment: %v", err)
	}
	comments, err := tasks.AddComment(ctx, member.ID, task.ID.Hex(), "second")
	if err != nil {
		t.Fatalf("member comment: %v", err)
	}

	if len(comments) != 2 {
		t.Fatalf("comment count = %d, want 2", len(comments))
	}
	// Newest first.
	if comments[0].Text != "second" || comments[1].Text != "first" {
		t.Errorf("comment order = [%q, %q], want [second, first]", comments[0].Text, comments[1].Text)
	}
	if comments[0].User.ID != member.ID {
		t.Errorf("newest comment author = %s, want %s", comments[0].User.ID.Hex(), member.ID.Hex())
	}
}

func TestListTasksVisibilityAndFilters(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	projects := NewProjectService(s)
	tasks := NewTaskService(s, nil)

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	mine, err := projects.CreateProject(ctx, alice.ID, "Mine", "Alice owns this", nil, nil)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	theirs, err := projects.CreateProject(ctx, bob.ID, "Theirs", "Bob only", nil, nil)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	urgent := models.PriorityUrgent
	if _, err := tasks.CreateTask(ctx, alice.ID, models.NewTask{
		Title: "Visible", Description: "In alice's project", Project: mine.ID.Hex(), Priority: urgent,
	}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := tasks.CreateTask(ctx, alice.ID, models.NewTask{
		Title: "Routine", Description: "Default priority", Project: mine.ID.Hex(),
	}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := tasks.CreateTask(ctx, bob.ID, models.NewTask{
		Title: "Hidden", Description: "In bob's project", Project: theirs.ID.Hex(),
	}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	all, err := tasks.ListTasks(ctx, alice.ID, TaskQuery{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("alice sees %d tasks, want 2", len(all))
	}
	for _, view := range all {
		if view.Title == "Hidden" {
			t.Error("task from a foreign project leaked into the listing")
		}
	}

	filtered, err := tasks.ListTasks(ctx, alice.ID, TaskQuery{Priority: models.PriorityUrgent})
	if err != nil {
		t.Fatalf("ListTasks priority filter: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Title != "Visible" {
		t.Errorf("priority filter result = %+v, want only the urgent task", filtered)
	}

	if _, err := tasks.ListTasks(ctx, alice.ID, TaskQuery{Project: theirs.ID.Hex()}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("foreign project filter err = %v, want ErrForbidden", err)
	}

	empty, err := tasks.ListTasks(ctx, seedUser(t, s, "nobody").ID, TaskQuery{})
	if err != nil {
		t.Fatalf("ListTasks for user with no projects: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("listing = %v, want empty non-nil slice", empty)
	}
}
