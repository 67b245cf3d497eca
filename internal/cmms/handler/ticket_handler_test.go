package handler

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"github.com/liftwise/liftwise/internal/cmms/repository"
	"github.com/liftwise/liftwise/internal/cmms/service"
	"github.com/liftwise/liftwise/internal/cmms/testutil"
	"github.com/liftwise/liftwise/internal/config"
)

func setupTicketTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, nil, cfg, zap.NewNop())
	h := NewTicketHandler(services.Ticket)

	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/tickets", h.List)
	api.POST("/tickets", h.Create)
	api.GET("/tickets/:id", h.Get)
	api.POST("/tickets/:id/assign", h.Assign)
	api.POST("/tickets/:id/resolve", h.Resolve)
	api.POST("/tickets/:id/close", h.Close)
	api.POST("/tickets/:id/costs", h.AddCost)
	api.GET("/tickets/:id/costs", h.Costs)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func createTestTicket(t *testing.T, env *testutil.TestEnv, token string) string {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tickets", map[string]interface{}{
		"equipment_id": "eq-001",
		"priority":     "HIGH",
		"description":  "Hydraulic leak at mast",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	return data["id"].(string)
}

func TestTicketLifecycle(t *testing.T) {
	env := setupTicketTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin)
	tech := testutil.SeedTestUser(t, env.DB, "tech-001", "Test Technician", entity.RoleTechnician)
	testutil.SeedTestEquipment(t, env.DB, "eq-001", "FL-001", 800)

	id := createTestTicket(t, env, token)

	// Ticket number follows the TKT-YYYY-NNNNNN pattern
	var ticket entity.Ticket
	env.DB.First(&ticket, "id = ?", id)
	if len(ticket.TicketNo) != 15 || ticket.TicketNo[:4] != "TKT-" {
		t.Errorf("Unexpected ticket number format: %s", ticket.TicketNo)
	}

	// OPEN → IN_PROGRESS
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/assign",
		map[string]interface{}{"assignee_id": tech.ID}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Assign failed: %d %s", w.Code, w.Body.String())
	}

	// IN_PROGRESS → RESOLVED
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/resolve",
		map[string]interface{}{"resolution": "Replaced hose"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Resolve failed: %d %s", w.Code, w.Body.String())
	}

	// RESOLVED → CLOSED
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/close", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Close failed: %d %s", w.Code, w.Body.String())
	}

	env.DB.First(&ticket, "id = ?", id)
	if ticket.Status != entity.TicketStatusClosed {
		t.Errorf("Expected CLOSED, got %s", ticket.Status)
	}
	if ticket.AssignedAt == nil || ticket.ResolvedAt == nil || ticket.ClosedAt == nil {
		t.Error("Expected all lifecycle timestamps to be set")
	}
}

func TestTicketIllegalTransitions(t *testing.T) {
	env := setupTicketTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin)
	tech := testutil.SeedTestUser(t, env.DB, "tech-001", "Test Technician", entity.RoleTechnician)
	testutil.SeedTestEquipment(t, env.DB, "eq-001", "FL-001", 800)

	id := createTestTicket(t, env, token)

	// OPEN 不能直接 resolve
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/resolve",
		map[string]interface{}{"resolution": "x"}, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for OPEN→RESOLVED, got %d", w.Code)
	}

	// OPEN 不能直接 close
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/close", nil, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for OPEN→CLOSED, got %d", w.Code)
	}

	// 走完整个流程
	testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/assign",
		map[string]interface{}{"assignee_id": tech.ID}, token)
	testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/resolve",
		map[string]interface{}{"resolution": "done"}, token)
	testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/close", nil, token)

	// CLOSED 是终态
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/assign",
		map[string]interface{}{"assignee_id": tech.ID}, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for CLOSED→assign, got %d", w.Code)
	}

	// 状态没有被破坏
	var ticket entity.Ticket
	env.DB.First(&ticket, "id = ?", id)
	if ticket.Status != entity.TicketStatusClosed {
		t.Errorf("Expected status to remain CLOSED, got %s", ticket.Status)
	}
}

func TestTicketCostLedger(t *testing.T) {
	env := setupTicketTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin)
	testutil.SeedTestEquipment(t, env.DB, "eq-001", "FL-001", 800)

	id := createTestTicket(t, env, token)

	// 服务端计算总价，客户端传入的 total_cost 被忽略
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/costs", map[string]interface{}{
		"cost_type":   "PART",
		"description": "Hydraulic hose",
		"quantity":    "2",
		"unit_cost":   "45.50",
		"total_cost":  "1.00",
		"is_billable": true,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("AddCost failed: %d %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["total_cost"] != "91" {
		t.Errorf("Expected server-computed total 91, got %v", data["total_cost"])
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/costs", map[string]interface{}{
		"cost_type":   "LABOR",
		"description": "Repair labor",
		"quantity":    "1.5",
		"unit_cost":   "60",
		"is_billable": false,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("AddCost failed: %d %s", w.Code, w.Body.String())
	}

	// 汇总
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/tickets/"+id+"/costs", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Costs failed: %d %s", w.Code, w.Body.String())
	}
	summary := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if summary["total"] != "181" {
		t.Errorf("Expected total 181, got %v", summary["total"])
	}
	if summary["billable_total"] != "91" {
		t.Errorf("Expected billable total 91, got %v", summary["billable_total"])
	}
	if summary["non_billable_total"] != "90" {
		t.Errorf("Expected non-billable total 90, got %v", summary["non_billable_total"])
	}

	// 负数数量被拒绝
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/costs", map[string]interface{}{
		"cost_type":   "MISC",
		"description": "Bad row",
		"quantity":    "-1",
		"unit_cost":   "10",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative quantity, got %d", w.Code)
	}
}

func TestTicketCostAfterCloseRejected(t *testing.T) {
	env := setupTicketTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin)
	tech := testutil.SeedTestUser(t, env.DB, "tech-001", "Test Technician", entity.RoleTechnician)
	testutil.SeedTestEquipment(t, env.DB, "eq-001", "FL-001", 800)

	id := createTestTicket(t, env, token)
	testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/assign",
		map[string]interface{}{"assignee_id": tech.ID}, token)
	testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/resolve",
		map[string]interface{}{"resolution": "done"}, token)
	testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/close", nil, token)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tickets/"+id+"/costs", map[string]interface{}{
		"cost_type":   "PART",
		"description": "Too late",
		"quantity":    "1",
		"unit_cost":   "10",
	}, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for cost on closed ticket, got %d", w.Code)
	}

	var count int64
	env.DB.Model(&entity.TicketCost{}).Where("ticket_id = ?", id).Count(&count)
	if count != 0 {
		t.Errorf("Expected no cost rows on closed ticket, got %d", count)
	}
}
