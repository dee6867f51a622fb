package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"github.com/bitfantasy/nimo-qc/internal/qc/testutil"
)

// TestImportOrdersCSV covers in-file dedupe, existing-key skip and per-row errors
func TestImportOrdersCSV(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewOrderService(repos, NewLocker(nil), db)

	testutil.SeedTestOrder(t, db, "order-1", "PO-3001", "ITEM-A", 100)

	csvData := strings.Join([]string{
		"订单号,商品编码,描述,品牌,供应商,数量,下单日期,交期",
		"PO-3001,ITEM-A,已存在的行,BrandX,供应商甲,100,2026-08-01,2026-10-01",
		"PO-3002,ITEM-B,正常行,BrandX,供应商甲,200,2026-08-01,",
		"PO-3002,ITEM-B,文件内重复,BrandX,供应商甲,200,,",
		"PO-3003,ITEM-C,数量非法,BrandX,供应商甲,abc,,",
		",ITEM-D,缺订单号,BrandX,供应商甲,10,,",
		"PO-3004,ITEM-E,正常行2,BrandY,供应商乙,50,,",
	}, "\n")

	result, err := svc.ImportOrders(context.Background(), "orders.csv", strings.NewReader(csvData), "test-admin")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if result.Total != 6 {
		t.Errorf("expected 6 rows, got %d", result.Total)
	}
	if result.Imported != 2 {
		t.Errorf("expected 2 imported, got %d", result.Imported)
	}
	if result.Skipped != 4 {
		t.Errorf("expected 4 skipped, got %d", result.Skipped)
	}
	if len(result.Errors) != 4 {
		t.Fatalf("expected 4 row errors, got %d: %v", len(result.Errors), result.Errors)
	}
	// 行号从2开始（表头占第1行）
	if result.Errors[0].Row != 2 {
		t.Errorf("expected first error on row 2, got %d", result.Errors[0].Row)
	}

	order, err := repos.Order.FindByNoAndItem(context.Background(), "PO-3002", "ITEM-B")
	if err != nil {
		t.Fatalf("imported order not found: %v", err)
	}
	if order.Quantity != 200 || order.Brand != "BrandX" {
		t.Errorf("unexpected imported order: %+v", order)
	}
	if order.OrderDate == nil || order.OrderDate.Format("2006-01-02") != "2026-08-01" {
		t.Errorf("unexpected order date: %v", order.OrderDate)
	}
}

// TestImportOrdersEmptyFile rejects a file without data rows
func TestImportOrdersEmptyFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewOrderService(repos, NewLocker(nil), db)

	csvData := "订单号,商品编码,描述,品牌,供应商,数量,下单日期,交期"
	_, err := svc.ImportOrders(context.Background(), "orders.csv", strings.NewReader(csvData), "test-admin")
	if err == nil {
		t.Fatal("expected error for file without data rows")
	}
}
