package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"project-tracker/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store with the same semantics as MongoStore,
// including newest-first ordering and idempotent back-reference updates. It
// backs the test suite and local runs without a mongod.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]*models.User
	projects map[primitive.ObjectID]*models.Project
	tasks    map[primitive.ObjectID]*models.Task
	// seq breaks createdAt ties so ordering stays stable within one instant.
	seq      uint64
	userSeq  map[primitive.ObjectID]uint64
	projSeq  map[primitive.ObjectID]uint64
	taskSeq  map[primitive.ObjectID]uint64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[primitive.ObjectID]*models.User),
		projects: make(map[primitive.ObjectID]*models.Project),
		tasks:    make(map[primitive.ObjectID]*models.Task),
		userSeq:  make(map[primitive.ObjectID]uint64),
		projSeq:  make(map[primitive.ObjectID]uint64),
		taskSeq:  make(map[primitive.ObjectID]uint64),
	}
}

func copyIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.CreatedProjects = copyIDs(u.CreatedProjects)
	c.AssignedProjects = copyIDs(u.AssignedProjects)
	c.AssignedTasks = copyIDs(u.AssignedTasks)
	return &c
}

func copyProject(p *models.Project) *models.Project {
	c := *p
	c.Team = copyIDs(p.Team)
	c.Tasks = copyIDs(p.Tasks)
	return &c
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	if t.AssignedTo != nil {
		assignee := *t.AssignedTo
		c.AssignedTo = &assignee
	}
	c.Comments = make([]models.Comment, len(t.Comments))
	copy(c.Comments, t.Comments)
	return &c
}

func addID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func (s *MemoryStore) InsertUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.seq++
	s.userSeq[user.ID] = s.seq
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, id.Hex())
	}
	return copyUser(user), nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, email)
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, *copyUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return s.userSeq[users[i].ID] > s.userSeq[users[j].ID]
	})
	return users, nil
}

func (s *MemoryStore) AddCreatedProject(ctx context.Context, userID, projectID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.CreatedProjects = addID(user.CreatedProjects, projectID)
	}
	return nil
}

func (s *MemoryStore) AddAssignedProject(ctx context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, userID := range userIDs {
		if user, ok := s.users[userID]; ok {
			user.AssignedProjects = addID(user.AssignedProjects, projectID)
		}
	}
	return nil
}

func (s *MemoryStore) RemoveAssignedProject(ctx context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, userID := range userIDs {
		if user, ok := s.users[userID]; ok {
			user.AssignedProjects = removeID(user.AssignedProjects, projectID)
		}
	}
	return nil
}

func (s *MemoryStore) RemoveProjectRefs(ctx context.Context, projectID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		user.CreatedProjects = removeID(user.CreatedProjects, projectID)
		user.AssignedProjects = removeID(user.AssignedProjects, projectID)
	}
	return nil
}

func (s *MemoryStore) AddAssignedTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.AssignedTasks = addID(user.AssignedTasks, taskID)
	}
	return nil
}

func (s *MemoryStore) RemoveAssignedTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.AssignedTasks = removeID(user.AssignedTasks, taskID)
	}
	return nil
}

func (s *MemoryStore) InsertProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	s.seq++
	s.projSeq[project.ID] = s.seq
	s.projects[project.ID] = copyProject(project)
	return nil
}

func (s *MemoryStore) GetProjectByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", models.ErrNotFound, id.Hex())
	}
	return copyProject(project), nil
}

func (s *MemoryStore) ListProjectsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var projects []models.Project
	for _, project := range s.projects {
		if project.Owner == userID {
			projects = append(projects, *copyProject(project))
			continue
		}
		for _, member := range project.Team {
			if member == userID {
				projects = append(projects, *copyProject(project))
				break
			}
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return s.projSeq[projects[i].ID] > s.projSeq[projects[j].ID]
	})
	return projects, nil
}

func (s *MemoryStore) UpdateProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return fmt.Errorf("%w: project %s", models.ErrNotFound, project.ID.Hex())
	}
	s.projects[project.ID] = copyProject(project)
	return nil
}

func (s *MemoryStore) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return fmt.Errorf("%w: project %s", models.ErrNotFound, id.Hex())
	}
	delete(s.projects, id)
	delete(s.projSeq, id)
	return nil
}

func (s *MemoryStore) AddProjectTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if project, ok := s.projects[projectID]; ok {
		project.Tasks = addID(project.Tasks, taskID)
	}
	return nil
}

func (s *MemoryStore) RemoveProjectTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if project, ok := s.projects[projectID]; ok {
		project.Tasks = removeID(project.Tasks, taskID)
	}
	return nil
}

func (s *MemoryStore) InsertTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	s.seq++
	s.taskSeq[task.ID] = s.seq
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *MemoryStore) GetTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", models.ErrNotFound, id.Hex())
	}
	return copyTask(task), nil
}

func (s *MemoryStore) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tasks []models.Task
	for _, task := range s.tasks {
		if filter.Projects != nil && !containsID(filter.Projects, task.Project) {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		tasks = append(tasks, *copyTask(task))
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return s.taskSeq[tasks[i].ID] > s.taskSeq[tasks[j].ID]
	})
	return tasks, nil
}

func (s *MemoryStore) ListTasksByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return s.ListTasks(ctx, TaskFilter{Projects: []primitive.ObjectID{projectID}})
}

func (s *MemoryStore) UpdateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return fmt.Errorf("%w: task %s", models.ErrNotFound, task.ID.Hex())
	}
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *MemoryStore) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("%w: task %s", models.ErrNotFound, id.Hex())
	}
	delete(s.tasks, id)
	delete(s.taskSeq, id)
	return nil
}

func (s *MemoryStore) DeleteTasksByProject(ctx context.Context, projectID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, task := range s.tasks {
		if task.Project == projectID {
			delete(s.tasks, id)
			delete(s.taskSeq, id)
		}
	}
	return nil
}

func (s *MemoryStore) PrependComment(ctx context.Context, taskID primitive.ObjectID, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %s", models.ErrNotFound, taskID.Hex())
	}
	task.Comments = append([]models.Comment{comment}, task.Comments...)
	return nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
