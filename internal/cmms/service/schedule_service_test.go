package service

import (
	"errors"
	"testing"
	"time"

	"github.com/liftwise/liftwise/internal/cmms/entity"
)

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(v float64) *float64 { return &v }

func TestValidateFrequency(t *testing.T) {
	if err := validateFrequency(entity.FrequencyModeDays, 30); err != nil {
		t.Errorf("Expected valid frequency, got %v", err)
	}
	if err := validateFrequency(entity.FrequencyModeHours, 250); err != nil {
		t.Errorf("Expected valid frequency, got %v", err)
	}

	if err := validateFrequency(entity.FrequencyModeDays, 0); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Expected ErrInvalidSchedule for zero frequency, got %v", err)
	}
	if err := validateFrequency(entity.FrequencyModeDays, -5); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Expected ErrInvalidSchedule for negative frequency, got %v", err)
	}
	if err := validateFrequency("WEEKS", 2); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Expected ErrInvalidSchedule for unknown mode, got %v", err)
	}
}

func TestScheduleDueDayMode(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	schedule := &entity.MaintenanceSchedule{
		FrequencyMode:  entity.FrequencyModeDays,
		FrequencyValue: 30,
		IsActive:       true,
		NextDueAt:      timePtr(now.Add(24 * time.Hour)),
	}
	if scheduleDue(schedule, now, 0) {
		t.Error("Schedule due tomorrow should not be due today")
	}

	schedule.NextDueAt = timePtr(now)
	if !scheduleDue(schedule, now, 0) {
		t.Error("Schedule is due exactly at next_due_at")
	}

	schedule.NextDueAt = timePtr(now.Add(-48 * time.Hour))
	if !scheduleDue(schedule, now, 0) {
		t.Error("Overdue schedule should be due")
	}

	schedule.IsActive = false
	if scheduleDue(schedule, now, 0) {
		t.Error("Inactive schedule must never be due")
	}
}

func TestScheduleDueHourMode(t *testing.T) {
	now := time.Now()
	schedule := &entity.MaintenanceSchedule{
		FrequencyMode:  entity.FrequencyModeHours,
		FrequencyValue: 250,
		IsActive:       true,
		NextDueHours:   floatPtr(1250),
	}

	if scheduleDue(schedule, now, 1249.9) {
		t.Error("Not due before meter reaches threshold")
	}
	if !scheduleDue(schedule, now, 1250) {
		t.Error("Due exactly at threshold")
	}
	if !scheduleDue(schedule, now, 1400) {
		t.Error("Due past threshold")
	}
}

func TestAdvanceScheduleDayModeOnTime(t *testing.T) {
	due := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	schedule := &entity.MaintenanceSchedule{
		FrequencyMode:  entity.FrequencyModeDays,
		FrequencyValue: 30,
		NextDueAt:      timePtr(due),
	}

	// 提前两天完成：下一次从原到期日起算
	completedAt := due.Add(-48 * time.Hour)
	if err := advanceSchedule(schedule, completedAt, 0); err != nil {
		t.Fatalf("advanceSchedule failed: %v", err)
	}
	want := due.Add(30 * 24 * time.Hour)
	if !schedule.NextDueAt.Equal(want) {
		t.Errorf("Expected next due %v, got %v", want, schedule.NextDueAt)
	}
	if schedule.LastCompletedAt == nil || !schedule.LastCompletedAt.Equal(completedAt) {
		t.Errorf("Expected last_completed_at %v, got %v", completedAt, schedule.LastCompletedAt)
	}
}

func TestAdvanceScheduleDayModeLate(t *testing.T) {
	due := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	schedule := &entity.MaintenanceSchedule{
		FrequencyMode:  entity.FrequencyModeDays,
		FrequencyValue: 30,
		NextDueAt:      timePtr(due),
	}

	// 晚十天完成：下一次从完成时间起算，不叠加拖欠间隔
	completedAt := due.Add(10 * 24 * time.Hour)
	if err := advanceSchedule(schedule, completedAt, 0); err != nil {
		t.Fatalf("advanceSchedule failed: %v", err)
	}
	want := completedAt.Add(30 * 24 * time.Hour)
	if !schedule.NextDueAt.Equal(want) {
		t.Errorf("Expected next due %v, got %v", want, schedule.NextDueAt)
	}
}

func TestAdvanceScheduleHourMode(t *testing.T) {
	schedule := &entity.MaintenanceSchedule{
		FrequencyMode:  entity.FrequencyModeHours,
		FrequencyValue: 250,
		NextDueHours:   floatPtr(1250),
	}

	// 1320 工时完成：下一次锚定实际完成工时
	completedAt := time.Now()
	if err := advanceSchedule(schedule, completedAt, 1320); err != nil {
		t.Fatalf("advanceSchedule failed: %v", err)
	}
	if schedule.NextDueHours == nil || *schedule.NextDueHours != 1570 {
		t.Errorf("Expected next due hours 1570, got %v", schedule.NextDueHours)
	}
}
