package handler

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"github.com/liftwise/liftwise/internal/cmms/repository"
	"github.com/liftwise/liftwise/internal/cmms/service"
	"github.com/liftwise/liftwise/internal/cmms/testutil"
	"github.com/liftwise/liftwise/internal/config"
)

func setupScheduleTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, nil, cfg, zap.NewNop())
	h := NewScheduleHandler(services.Schedule)
	eh := NewEquipmentHandler(services.Equipment)

	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/schedules", h.List)
	api.POST("/schedules", h.Create)
	api.GET("/schedules/due", h.Due)
	api.GET("/schedules/:id", h.Get)
	api.PUT("/schedules/:id", h.Update)
	api.GET("/schedules/:id/evaluate", h.Evaluate)
	api.POST("/schedules/:id/complete", h.Complete)
	api.PUT("/equipment/:id/hours", eh.UpdateHours)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestCreateScheduleRejectsBadFrequency(t *testing.T) {
	env := setupScheduleTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin)
	testutil.SeedTestEquipment(t, env.DB, "eq-001", "FL-001", 1000)

	for _, body := range []map[string]interface{}{
		{"equipment_id": "eq-001", "task_name": "Oil change", "frequency_mode": "DAYS", "frequency_value": -30},
		{"equipment_id": "eq-001", "task_name": "Oil change", "frequency_mode": "WEEKS", "frequency_value": 2},
	} {
		w := testutil.DoRequest(env.Router, "POST", "/api/v1/schedules", body, token)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %v, got %d: %s", body, w.Code, w.Body.String())
		}
	}
}

func TestScheduleHourModeEvaluateAndComplete(t *testing.T) {
	env := setupScheduleTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin)
	testutil.SeedTestEquipment(t, env.DB, "eq-001", "FL-001", 1000)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/schedules", map[string]interface{}{
		"equipment_id":    "eq-001",
		"task_name":       "250h service",
		"frequency_mode":  "HOURS",
		"frequency_value": 250,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create failed: %d %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	id := data["id"].(string)
	if data["next_due_hours"].(float64) != 1250 {
		t.Errorf("Expected initial due at 1250h, got %v", data["next_due_hours"])
	}

	// 未到工时，不到期
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/schedules/"+id+"/evaluate", nil, token)
	eval := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if eval["is_due"] != false {
		t.Error("Schedule must not be due at 1000h")
	}

	// 工时推进到 1300，到期
	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/equipment/eq-001/hours",
		map[string]interface{}{"hours": 1300}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("UpdateHours failed: %d %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/schedules/"+id+"/evaluate", nil, token)
	eval = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if eval["is_due"] != true {
		t.Error("Schedule must be due at 1300h")
	}

	// 完成：下一次锚定完成时的实际工时
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/schedules/"+id+"/complete", map[string]interface{}{
		"completed_at":        time.Now().Format(time.RFC3339),
		"hours_at_completion": 1320,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Complete failed: %d %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["next_due_hours"].(float64) != 1570 {
		t.Errorf("Expected next due at 1570h, got %v", data["next_due_hours"])
	}
}

func TestScheduleDayModeLateCompletion(t *testing.T) {
	env := setupScheduleTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin)
	testutil.SeedTestEquipment(t, env.DB, "eq-001", "FL-001", 1000)

	// 直接种一条十天前就到期的计划
	overdue := time.Now().Add(-10 * 24 * time.Hour).Truncate(time.Second)
	schedule := &entity.MaintenanceSchedule{
		ID:             "sched-001",
		EquipmentID:    "eq-001",
		TaskName:       "Monthly check",
		FrequencyMode:  entity.FrequencyModeDays,
		FrequencyValue: 30,
		IsActive:       true,
		NextDueAt:      &overdue,
		CreatedBy:      "test-user-001",
	}
	if err := env.DB.Create(schedule).Error; err != nil {
		t.Fatalf("Failed to seed schedule: %v", err)
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/schedules/sched-001/evaluate", nil, token)
	eval := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if eval["is_due"] != true {
		t.Fatal("Overdue schedule must evaluate as due")
	}

	// 晚完成：下一次从完成时间起算
	completedAt := time.Now().Truncate(time.Second)
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/schedules/sched-001/complete", map[string]interface{}{
		"completed_at": completedAt.Format(time.RFC3339),
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Complete failed: %d %s", w.Code, w.Body.String())
	}

	var updated entity.MaintenanceSchedule
	env.DB.First(&updated, "id = ?", "sched-001")
	want := completedAt.Add(30 * 24 * time.Hour)
	if updated.NextDueAt == nil || updated.NextDueAt.Sub(want).Abs() > time.Second {
		t.Errorf("Expected next due ~%v, got %v", want, updated.NextDueAt)
	}

	// 推进后不再到期
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/schedules/sched-001/evaluate", nil, token)
	eval = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if eval["is_due"] != false {
		t.Error("Schedule must not be due after completion")
	}
}

func TestInactiveScheduleNeverDue(t *testing.T) {
	env := setupScheduleTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin)
	testutil.SeedTestEquipment(t, env.DB, "eq-001", "FL-001", 1000)

	overdue := time.Now().Add(-24 * time.Hour)
	schedule := &entity.MaintenanceSchedule{
		ID:             "sched-002",
		EquipmentID:    "eq-001",
		TaskName:       "Paused task",
		FrequencyMode:  entity.FrequencyModeDays,
		FrequencyValue: 7,
		IsActive:       false,
		NextDueAt:      &overdue,
		CreatedBy:      "test-user-001",
	}
	if err := env.DB.Create(schedule).Error; err != nil {
		t.Fatalf("Failed to seed schedule: %v", err)
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/schedules/sched-002/evaluate", nil, token)
	eval := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if eval["is_due"] != false {
		t.Error("Inactive schedule must never be due")
	}

	// due 扫描也不包含
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/schedules/due", nil, token)
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 0 {
		t.Errorf("Expected empty due list, got %d items", len(items))
	}
}

func TestUpdateHoursMonotonic(t *testing.T) {
	env := setupScheduleTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin)
	testutil.SeedTestEquipment(t, env.DB, "eq-001", "FL-001", 1000)

	// 回退被拒绝
	w := testutil.DoRequest(env.Router, "PUT", "/api/v1/equipment/eq-001/hours",
		map[string]interface{}{"hours": 900}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for hours regression, got %d: %s", w.Code, w.Body.String())
	}

	var eq entity.Equipment
	env.DB.First(&eq, "id = ?", "eq-001")
	if eq.CurrentHours != 1000 {
		t.Errorf("Hours must be unchanged after rejected update, got %v", eq.CurrentHours)
	}
}
