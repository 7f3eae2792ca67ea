package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielfrg/things-sub001/internal/config"
	"github.com/danielfrg/things-sub001/internal/repository"
	"github.com/danielfrg/things-sub001/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	ruleRepo := repository.NewRuleRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	tagRepo := repository.NewTagRepository(db)

	materializer := service.NewMaterializer(ruleRepo, taskRepo, checklistRepo, tagRepo, logrus.StandardLogger())

	runPass := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		// CatchUp drains the whole backlog: one pass spawns one occurrence
		// per rule, so days missed while the daemon was down take one pass
		// each.
		res, err := materializer.CatchUp(jobCtx, time.Now())
		if err != nil {
			logrus.WithError(err).Error("materialization pass failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"created":  len(res.CreatedTaskIDs),
			"failures": len(res.Failures),
		}).Info("materialization pass complete")
	}

	runPass()

	scheduler := service.NewScheduler(time.Local)
	if _, err := scheduler.ScheduleDaily(cfg.MaterializeTime, runPass); err != nil {
		logrus.Fatalf("schedule materialization: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logrus.Info("materializer daemon started")
	<-ctx.Done()
	logrus.Info("shutdown complete")
}
