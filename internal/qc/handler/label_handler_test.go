package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"github.com/bitfantasy/nimo-qc/internal/qc/service"
	"github.com/bitfantasy/nimo-qc/internal/qc/testutil"
	"go.uber.org/zap"
)

func setupLabelTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	locker := service.NewLocker(nil)
	labelSvc := service.NewLabelService(repos.Inspector, locker)
	handler := NewLabelHandler(labelSvc, zap.NewNop())

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/inspectors/:id/labels/allocate", handler.Allocate)
	api.PUT("/inspectors/:id/labels", handler.Replace)
	api.POST("/inspectors/:id/labels/remove", handler.Remove)
	api.POST("/inspectors/:id/labels/claim", handler.Claim)
	api.GET("/inspectors/:id/labels/stats", handler.UsageStats)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// TestLabelAllocate tests incremental allocation and duplicate rejection
func TestLabelAllocate(t *testing.T) {
	env := setupLabelTest(t)
	token := testutil.AdminToken()

	testutil.SeedTestUser(t, env.DB, "user-qc-1", "检验员A", "qc")
	testutil.SeedTestInspector(t, env.DB, "insp-1", "user-qc-1", nil, nil)

	// First allocation succeeds
	body := map[string]interface{}{"labels": []int64{3, 1, 2}}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/allocate", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	added := data["added"].([]interface{})
	if len(added) != 3 {
		t.Fatalf("expected 3 added labels, got %v", added)
	}

	// Re-allocating the full same set is rejected
	body = map[string]interface{}{"labels": []int64{1, 2, 3}}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/allocate", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if resp["code"].(float64) != 42212 {
		t.Fatalf("expected code 42212, got %v", resp["code"])
	}

	// Partial overlap allocates only the net new labels
	body = map[string]interface{}{"labels": []int64{3, 4, 5}}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/allocate", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	data = resp["data"].(map[string]interface{})
	if len(data["added"].([]interface{})) != 2 {
		t.Fatalf("expected 2 added labels, got %v", data["added"])
	}
}

// TestLabelCrossInspectorExclusivity tests that a label held by one inspector
// cannot be allocated to another
func TestLabelCrossInspectorExclusivity(t *testing.T) {
	env := setupLabelTest(t)
	token := testutil.AdminToken()

	testutil.SeedTestUser(t, env.DB, "user-qc-1", "检验员A", "qc")
	testutil.SeedTestUser(t, env.DB, "user-qc-2", "检验员B", "qc")
	testutil.SeedTestInspector(t, env.DB, "insp-1", "user-qc-1", []int64{1, 2, 3}, []int64{1})
	testutil.SeedTestInspector(t, env.DB, "insp-2", "user-qc-2", nil, nil)

	// Label 2 is alloted to insp-1
	body := map[string]interface{}{"labels": []int64{2, 10}}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-2/labels/allocate", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["owner_id"] != "insp-1" {
		t.Fatalf("expected owner insp-1, got %v", data["owner_id"])
	}

	// Replace is subject to the same check
	body = map[string]interface{}{"labels": []int64{1, 20}}
	w = testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/inspectors/insp-2/labels", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

// TestLabelClaimAndStats tests claim semantics and usage statistics
func TestLabelClaimAndStats(t *testing.T) {
	env := setupLabelTest(t)
	token := testutil.AdminToken()

	testutil.SeedTestUser(t, env.DB, "user-qc-1", "检验员A", "qc")
	testutil.SeedTestInspector(t, env.DB, "insp-1", "user-qc-1", []int64{1, 2, 3, 4}, nil)

	// Claim two labels
	body := map[string]interface{}{"labels": []int64{1, 2}}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/claim", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Re-claiming a consumed label is rejected
	body = map[string]interface{}{"labels": []int64{2}}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/claim", body, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 42211 {
		t.Fatalf("expected code 42211, got %v", resp["code"])
	}

	// Claiming an unallocated label is rejected
	body = map[string]interface{}{"labels": []int64{99}}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/claim", body, token)
	resp = testutil.ParseResponse(w)
	if resp["code"].(float64) != 42210 {
		t.Fatalf("expected code 42210, got %v", resp["code"])
	}

	// Stats reflect the ledger
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/inspectors/insp-1/labels/stats", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["alloted_count"].(float64) != 4 || data["used_count"].(float64) != 2 {
		t.Fatalf("unexpected stats: %v", data)
	}
	if data["usage_percent"].(float64) != 50 {
		t.Fatalf("expected 50 percent, got %v", data["usage_percent"])
	}
}

// TestLabelClaimAuthorization tests that only the inspector's own user or a
// privileged role may consume labels through the standalone claim endpoint
func TestLabelClaimAuthorization(t *testing.T) {
	env := setupLabelTest(t)

	testutil.SeedTestUser(t, env.DB, "user-qc-1", "检验员A", "qc")
	testutil.SeedTestUser(t, env.DB, "user-qc-2", "检验员B", "qc")
	testutil.SeedTestInspector(t, env.DB, "insp-1", "user-qc-1", []int64{1, 2, 3}, nil)

	// An unrelated qc user cannot burn another inspector's allocation
	otherToken := testutil.GenerateTestToken("user-qc-2", "检验员B", "qc")
	body := map[string]interface{}{"labels": []int64{1}}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/claim", body, otherToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40310 {
		t.Fatalf("expected code 40310, got %v", resp["code"])
	}

	// The inspector's own user may claim
	ownToken := testutil.GenerateTestToken("user-qc-1", "检验员A", "qc")
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/claim", body, ownToken)
	if w.Code != http.StatusOK {
		t.Fatalf("own claim failed: %d %s", w.Code, w.Body.String())
	}

	// Manager may claim on behalf of an inspector
	managerToken := testutil.GenerateTestToken("user-mgr-1", "经理", "manager")
	body = map[string]interface{}{"labels": []int64{2}}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/claim", body, managerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("manager claim failed: %d %s", w.Code, w.Body.String())
	}
}

// TestLabelRemove tests removal keeps used within alloted
func TestLabelRemove(t *testing.T) {
	env := setupLabelTest(t)
	token := testutil.AdminToken()

	testutil.SeedTestUser(t, env.DB, "user-qc-1", "检验员A", "qc")
	testutil.SeedTestInspector(t, env.DB, "insp-1", "user-qc-1", []int64{1, 2, 3}, []int64{2})

	body := map[string]interface{}{"labels": []int64{2, 3}}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/remove", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if len(data["alloted_labels"].([]interface{})) != 1 {
		t.Fatalf("expected 1 remaining alloted label, got %v", data["alloted_labels"])
	}
	if len(data["used_labels"].([]interface{})) != 0 {
		t.Fatalf("expected used labels cleared of removed labels, got %v", data["used_labels"])
	}

	// Removing labels none of which are present is a 404
	body = map[string]interface{}{"labels": []int64{50}}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inspectors/insp-1/labels/remove", body, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}
