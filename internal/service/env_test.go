package service

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/danielfrg/things-sub001/internal/repository"
)

type env struct {
	rules      *repository.RuleRepository
	tasks      *repository.TaskRepository
	checklists *repository.ChecklistRepository
	tags       *repository.TagRepository
	projects   *repository.ProjectRepository
	areas      *repository.AreaRepository

	materializer *Materializer
	sync         *TemplateSync
	taskService  *TaskService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	e := &env{
		rules:      repository.NewRuleRepository(db),
		tasks:      repository.NewTaskRepository(db),
		checklists: repository.NewChecklistRepository(db),
		tags:       repository.NewTagRepository(db),
		projects:   repository.NewProjectRepository(db),
		areas:      repository.NewAreaRepository(db),
	}
	e.materializer = NewMaterializer(e.rules, e.tasks, e.checklists, e.tags, quietLogger())
	e.sync = NewTemplateSync(e.rules, e.tasks, e.checklists, e.tags)
	e.taskService = NewTaskService(e.tasks, e.checklists, e.tags, e.projects, e.areas)
	return e
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
