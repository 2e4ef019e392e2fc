package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/leadflow/internal/domain"
	"github.com/shaiso/leadflow/internal/mq"
	"github.com/shaiso/leadflow/internal/repo"
)

// Scheduler — планировщик, обрабатывающий due schedules.
type Scheduler struct {
	scheduleRepo *repo.ScheduleRepo
	runRepo      *repo.RunRepo
	workflowRepo *repo.WorkflowRepo
	publisher    *mq.Publisher
	logger       *slog.Logger
	batchSize    int
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo *repo.ScheduleRepo
	RunRepo      *repo.RunRepo
	WorkflowRepo *repo.WorkflowRepo
	Publisher    *mq.Publisher
	Logger       *slog.Logger
	BatchSize    int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduleRepo: cfg.ScheduleRepo,
		runRepo:      cfg.RunRepo,
		workflowRepo: cfg.WorkflowRepo,
		publisher:    cfg.Publisher,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Для каждого schedule создаёт run
// 3. Обновляет next_due_at
// 4. Публикует run.requested в RabbitMQ
//
// Ошибки одного schedule не блокируют обработку остальных.
// Tick вызывается только лидером (advisory lock в main).
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.scheduleRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed, created int
	for i := range schedules {
		sched := &schedules[i]

		runCreated, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			continue
		}

		processed++
		if runCreated {
			created++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
		"runs_created", created,
	)

	return nil
}

// advanceSchedule фиксирует запуск и вычисляет next_due_at.
//
// Расписание, для которого следующий запуск невычислим, выключается:
// иначе оно оставалось бы due и создавало бы run на каждом тике до
// вмешательства оператора. Возвращённая ошибка — для лога.
func advanceSchedule(sched *domain.Schedule, runID uuid.UUID, now time.Time) error {
	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		sched.Enabled = false
		sched.UpdatedAt = now
		return err
	}
	sched.RecordRun(runID, nextDue)
	return nil
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если run был создан.
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// Workflow мог быть удалён после создания schedule.
	if _, err := s.workflowRepo.GetByName(ctx, sched.WorkflowName); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logger.Warn("workflow not found for schedule, skipping",
				"schedule_id", sched.ID,
				"workflow", sched.WorkflowName,
			)
			return false, nil
		}
		return false, fmt.Errorf("get workflow: %w", err)
	}

	run := domain.NewRun(sched.WorkflowName)
	run.CreatedAt = now
	if err := s.runRepo.Create(ctx, run); err != nil {
		return false, fmt.Errorf("create run: %w", err)
	}

	s.logger.Info("created run from schedule",
		"run_id", run.ID,
		"schedule_id", sched.ID,
		"schedule_name", sched.Name,
		"workflow", sched.WorkflowName,
	)

	if err := advanceSchedule(sched, run.ID, now); err != nil {
		s.logger.Error("schedule disabled: next due computation failed",
			"schedule_id", sched.ID,
			"schedule_name", sched.Name,
			"error", err,
		)
	}
	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return true, fmt.Errorf("update schedule: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRunRequested(ctx, run.ID, run.WorkflowName); err != nil {
			// Не фатальная ошибка — run уже создан в БД
			// и останется pending до восстановления брокера.
			s.logger.Warn("failed to publish run.requested",
				"run_id", run.ID,
				"error", err,
			)
		}
	}

	return true, nil
}
