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

func setupOrderTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	locker := service.NewLocker(nil)
	orderSvc := service.NewOrderService(repos, locker, db)
	handler := NewOrderHandler(orderSvc, zap.NewNop())

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/orders", handler.List)
	api.GET("/orders/:id", handler.Get)
	api.POST("/orders", handler.Create)
	api.POST("/orders/:id/shipments", handler.AddShipment)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// TestOrderCreateAndDuplicate tests creation and the composite uniqueness rule
func TestOrderCreateAndDuplicate(t *testing.T) {
	env := setupOrderTest(t)
	token := testutil.AdminToken()

	body := map[string]interface{}{
		"order_no":  "PO-2001",
		"item_code": "ITEM-X",
		"vendor":    "供应商甲",
		"brand":     "BrandX",
		"quantity":  500,
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/orders", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}

	// Same order_no with a different item_code is allowed
	body["item_code"] = "ITEM-Y"
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/orders", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("create with new item_code failed: %d %s", w.Code, w.Body.String())
	}

	// Exact duplicate is rejected
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/orders", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// Non-positive quantity is rejected
	body["item_code"] = "ITEM-Z"
	body["quantity"] = 0
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/orders", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

// TestOrderShipmentProjection tests the shipment running sum and status projection
func TestOrderShipmentProjection(t *testing.T) {
	env := setupOrderTest(t)
	token := testutil.AdminToken()

	order := testutil.SeedTestOrder(t, env.DB, "order-1", "PO-2001", "ITEM-X", 100)

	// Shipments are not allowed before inspection is done
	body := map[string]interface{}{"quantity": 10}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/orders/order-1/shipments", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 before inspection, got %d: %s", w.Code, w.Body.String())
	}

	env.DB.Model(order).Update("status", entity.OrderStatusInspectionDone)

	// Partial shipment
	body = map[string]interface{}{"quantity": 60, "container_no": "CONT-001", "stuffing_date": "2026-09-01"}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/orders/order-1/shipments", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("shipment failed: %d %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["shipped_qty"].(float64) != 60 {
		t.Errorf("expected shipped_qty 60, got %v", data["shipped_qty"])
	}
	if data["status"] != entity.OrderStatusPartialShipped {
		t.Errorf("expected partial_shipped, got %v", data["status"])
	}
	shipments := data["shipments"].([]interface{})
	last := shipments[len(shipments)-1].(map[string]interface{})
	if last["remaining_after"].(float64) != 40 {
		t.Errorf("expected remaining_after 40, got %v", last["remaining_after"])
	}

	// Overshipping is rejected
	body = map[string]interface{}{"quantity": 41}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/orders/order-1/shipments", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on overship, got %d: %s", w.Code, w.Body.String())
	}

	// Final shipment flips the order to shipped
	body = map[string]interface{}{"quantity": 40, "container_no": "CONT-002"}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/orders/order-1/shipments", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("final shipment failed: %d %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	data = resp["data"].(map[string]interface{})
	if data["status"] != entity.OrderStatusShipped {
		t.Errorf("expected shipped, got %v", data["status"])
	}

	// No further shipments on a fully shipped order
	body = map[string]interface{}{"quantity": 1}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/orders/order-1/shipments", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 after full shipment, got %d: %s", w.Code, w.Body.String())
	}
}

// TestOrderList tests filtering
func TestOrderList(t *testing.T) {
	env := setupOrderTest(t)
	token := testutil.AdminToken()

	testutil.SeedTestOrder(t, env.DB, "order-1", "PO-2001", "ITEM-X", 100)
	testutil.SeedTestOrder(t, env.DB, "order-2", "PO-2002", "ITEM-Y", 200)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/orders?order_no=PO-2001", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("list failed: %d %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["total"].(float64) != 1 {
		t.Fatalf("expected 1 order, got %v", data["total"])
	}
}
