package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"github.com/bitfantasy/nimo-qc/internal/qc/service"
	"github.com/bitfantasy/nimo-qc/internal/qc/testutil"
	"go.uber.org/zap"
)

func setupUserTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	userSvc := service.NewUserService(repos, db)
	handler := NewUserHandler(userSvc, zap.NewNop())

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/users", handler.Create)
	api.GET("/users", handler.List)
	api.GET("/inspectors", handler.ListInspectors)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// TestCreateQCUserCreatesInspector tests that a qc user gets an inspector profile
func TestCreateQCUserCreatesInspector(t *testing.T) {
	env := setupUserTest(t)
	token := testutil.AdminToken()

	body := map[string]interface{}{
		"username": "zhangsan",
		"name":     "张三",
		"role":     "qc",
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/users", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	userID := resp["data"].(map[string]interface{})["id"].(string)

	var inspector entity.Inspector
	if err := env.DB.First(&inspector, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("inspector profile not created: %v", err)
	}
	if len(inspector.AllotedLabels) != 0 {
		t.Errorf("expected empty label ledger, got %v", inspector.AllotedLabels)
	}

	// Duplicate username rejected
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/users", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// Manager role does not create an inspector profile
	body = map[string]interface{}{"username": "lisi", "name": "李四", "role": "manager"}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/users", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("create manager failed: %d %s", w.Code, w.Body.String())
	}
	managerID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
	var count int64
	env.DB.Model(&entity.Inspector{}).Where("user_id = ?", managerID).Count(&count)
	if count != 0 {
		t.Errorf("expected no inspector for manager, got %d", count)
	}

	// Unknown role rejected
	body = map[string]interface{}{"username": "wangwu", "name": "王五", "role": "ceo"}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/users", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

// TestListInspectors tests the directory view with ledger counts
func TestListInspectors(t *testing.T) {
	env := setupUserTest(t)
	token := testutil.AdminToken()

	testutil.SeedTestUser(t, env.DB, "user-qc-1", "检验员A", "qc")
	testutil.SeedTestInspector(t, env.DB, "insp-1", "user-qc-1", []int64{1, 2, 3}, []int64{1})

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/inspectors", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("list failed: %d %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 inspector, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["alloted_count"].(float64) != 3 || item["used_count"].(float64) != 1 {
		t.Fatalf("unexpected ledger counts: %v", item)
	}
}
