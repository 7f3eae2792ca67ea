package service

import (
	"context"
	"fmt"
	"time"

	"github.com/danielfrg/things-sub001/internal/model"
	"github.com/danielfrg/things-sub001/internal/recurrence"
	"github.com/danielfrg/things-sub001/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title         string
	Notes         string
	Project       string
	Area          string
	Tags          []string
	Checklist     []string
	ScheduledDate *time.Time
}

// TaskService wraps task creation and lookup, resolving named projects, areas
// and tags into records.
type TaskService struct {
	taskRepo      *repository.TaskRepository
	checklistRepo *repository.ChecklistRepository
	tagRepo       *repository.TagRepository
	projectRepo   *repository.ProjectRepository
	areaRepo      *repository.AreaRepository
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	checklistRepo *repository.ChecklistRepository,
	tagRepo *repository.TagRepository,
	projectRepo *repository.ProjectRepository,
	areaRepo *repository.AreaRepository,
) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		checklistRepo: checklistRepo,
		tagRepo:       tagRepo,
		projectRepo:   projectRepo,
		areaRepo:      areaRepo,
	}
}

func (s *TaskService) Create(ctx context.Context, userID string, input TaskInput) (*model.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	var placement model.Placement
	if input.Project != "" {
		project, err := s.projectRepo.GetOrCreate(ctx, userID, input.Project)
		if err != nil {
			return nil, err
		}
		if project != nil {
			placement.ProjectID = &project.ID
		}
	}
	if input.Area != "" {
		area, err := s.areaRepo.GetOrCreate(ctx, userID, input.Area)
		if err != nil {
			return nil, err
		}
		if area != nil {
			placement.AreaID = &area.ID
		}
	}

	task := model.Task{
		UserID:    userID,
		Title:     input.Title,
		Notes:     input.Notes,
		Placement: placement,
	}
	if input.ScheduledDate != nil {
		day := recurrence.Day(*input.ScheduledDate)
		task.ScheduledDate = &day
		task.Status = model.TaskStatusScheduled
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	for i, title := range input.Checklist {
		if _, err := s.checklistRepo.CreateItem(ctx, task.ID, title, i); err != nil {
			return nil, err
		}
	}
	for _, name := range input.Tags {
		tag, err := s.tagRepo.GetOrCreate(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			continue
		}
		if err := s.tagRepo.CreateTaskTag(ctx, task.ID, tag.ID); err != nil {
			return nil, err
		}
	}

	return &task, nil
}

func (s *TaskService) Get(ctx context.Context, taskID string) (*model.Task, error) {
	return s.taskRepo.GetByID(ctx, taskID)
}

func (s *TaskService) Trash(ctx context.Context, taskID string) error {
	return s.taskRepo.Trash(ctx, taskID)
}
