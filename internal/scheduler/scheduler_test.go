package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/leadflow/internal/domain"
)

func TestAdvanceSchedule(t *testing.T) {
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	runID := uuid.New()

	t.Run("интервальное расписание сдвигается вперёд", func(t *testing.T) {
		sched := &domain.Schedule{
			IntervalSec: 3600,
			Timezone:    "UTC",
			Enabled:     true,
		}

		if err := advanceSchedule(sched, runID, now); err != nil {
			t.Fatalf("advanceSchedule: %v", err)
		}
		if !sched.Enabled {
			t.Error("schedule disabled, want enabled")
		}
		if sched.NextDueAt == nil || !sched.NextDueAt.Equal(now.Add(time.Hour)) {
			t.Errorf("NextDueAt = %v, want %v", sched.NextDueAt, now.Add(time.Hour))
		}
		if sched.LastRunID == nil || *sched.LastRunID != runID {
			t.Errorf("LastRunID = %v, want %v", sched.LastRunID, runID)
		}
	})

	t.Run("невычислимое расписание выключается", func(t *testing.T) {
		due := now.Add(-time.Minute)
		sched := &domain.Schedule{
			Timezone:  "UTC",
			Enabled:   true,
			NextDueAt: &due,
		}

		if err := advanceSchedule(sched, runID, now); err == nil {
			t.Fatal("expected error for schedule without cron_expr and interval_sec")
		}
		// Иначе расписание оставалось бы due и создавало бы run
		// на каждом тике.
		if sched.Enabled {
			t.Error("broken schedule left enabled")
		}
		if sched.LastRunID != nil {
			t.Errorf("LastRunID = %v, want nil: запуск не фиксируется", sched.LastRunID)
		}
	})
}
