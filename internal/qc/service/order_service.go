package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"gorm.io/gorm"
)

// OrderService 订单服务：导入导出、出运登记与状态投影
type OrderService struct {
	orderRepo *repository.OrderRepository
	qcRepo    *repository.QCRepository
	locker    *Locker
	db        *gorm.DB
}

func NewOrderService(repos *repository.Repositories, locker *Locker, db *gorm.DB) *OrderService {
	return &OrderService{
		orderRepo: repos.Order,
		qcRepo:    repos.QC,
		locker:    locker,
		db:        db,
	}
}

// === 查询 ===

// ListOrders 查询订单列表
func (s *OrderService) ListOrders(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Order, int64, error) {
	return s.orderRepo.FindAll(ctx, page, pageSize, filters)
}

// GetOrder 查询订单详情（含出运记录）
func (s *OrderService) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// === 创建 ===

// CreateOrderRequest 单条订单创建请求
type CreateOrderRequest struct {
	OrderNo      string `json:"order_no" binding:"required"`
	ItemCode     string `json:"item_code" binding:"required"`
	Description  string `json:"description"`
	Brand        string `json:"brand"`
	Vendor       string `json:"vendor"`
	Quantity     int    `json:"quantity" binding:"required"`
	OrderDate    string `json:"order_date"`
	ExpectedDate string `json:"expected_date"`
}

// CreateOrder 创建单条订单行项
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest, actorID string) (*entity.Order, error) {
	if req.Quantity <= 0 {
		return nil, validationErrorf("订单数量必须大于0")
	}

	if _, err := s.orderRepo.FindByNoAndItem(ctx, req.OrderNo, req.ItemCode); err == nil {
		return nil, &ConflictError{Message: fmt.Sprintf("订单 %s 商品 %s 已存在", req.OrderNo, req.ItemCode)}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	order := &entity.Order{
		ID:          uuid.New().String()[:32],
		OrderNo:     strings.TrimSpace(req.OrderNo),
		ItemCode:    strings.TrimSpace(req.ItemCode),
		Description: req.Description,
		Brand:       req.Brand,
		Vendor:      req.Vendor,
		Quantity:    req.Quantity,
		Status:      entity.OrderStatusPending,
		CreatedBy:   actorID,
	}

	if req.OrderDate != "" {
		d, err := parseDate(req.OrderDate)
		if err != nil {
			return nil, validationErrorf("下单日期格式错误: %s", req.OrderDate)
		}
		order.OrderDate = d
	}
	if req.ExpectedDate != "" {
		d, err := parseDate(req.ExpectedDate)
		if err != nil {
			return nil, validationErrorf("交期格式错误: %s", req.ExpectedDate)
		}
		order.ExpectedDate = d
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// === 批量导入 ===

// ImportRowError 导入失败的行及原因
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult 批量导入结果
type ImportResult struct {
	Total    int              `json:"total"`
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors"`
}

// 导入列顺序：订单号、商品编码、描述、品牌、供应商、数量、下单日期、交期
var importHeaders = []string{"订单号", "商品编码", "描述", "品牌", "供应商", "数量", "下单日期", "交期"}

// ImportOrders 从 Excel 或 CSV 批量导入订单行项。
// 文件内与库内的 (order_no, item_code) 重复行均跳过并记录原因，
// 合法行在单事务内批量写入。
func (s *OrderService) ImportOrders(ctx context.Context, filename string, reader io.Reader, actorID string) (*ImportResult, error) {
	var rows [][]string
	var err error

	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		rows, err = readCSVRows(reader)
	} else {
		rows, err = readExcelRows(reader)
	}
	if err != nil {
		return nil, validationErrorf("文件解析失败: %v", err)
	}
	if len(rows) <= 1 {
		return nil, validationErrorf("文件中没有数据行")
	}

	existing, err := s.orderRepo.ExistingKeys(ctx)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	seen := make(map[string]bool)
	var orders []entity.Order

	for i, row := range rows[1:] {
		rowNo := i + 2 // 表头占第1行
		result.Total++

		order, rowErr := parseImportRow(row)
		if rowErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNo, Message: rowErr.Error()})
			continue
		}

		key := order.OrderNo + "|" + order.ItemCode
		if seen[key] {
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNo, Message: "文件内重复的订单号+商品编码"})
			continue
		}
		if existing[key] {
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNo, Message: "订单号+商品编码已存在"})
			continue
		}
		seen[key] = true

		order.ID = uuid.New().String()[:32]
		order.Status = entity.OrderStatusPending
		order.CreatedBy = actorID
		orders = append(orders, *order)
	}

	if err := s.orderRepo.CreateBatch(ctx, orders); err != nil {
		return nil, err
	}
	result.Imported = len(orders)
	return result, nil
}

func parseImportRow(row []string) (*entity.Order, error) {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	orderNo := get(0)
	itemCode := get(1)
	if orderNo == "" || itemCode == "" {
		return nil, fmt.Errorf("订单号与商品编码不能为空")
	}

	qtyStr := get(5)
	qty, err := strconv.Atoi(qtyStr)
	if err != nil || qty <= 0 {
		return nil, fmt.Errorf("数量必须是正整数: %s", qtyStr)
	}

	order := &entity.Order{
		OrderNo:     orderNo,
		ItemCode:    itemCode,
		Description: get(2),
		Brand:       get(3),
		Vendor:      get(4),
		Quantity:    qty,
	}

	if raw := get(6); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("下单日期格式错误: %s", raw)
		}
		order.OrderDate = d
	}
	if raw := get(7); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("交期格式错误: %s", raw)
		}
		order.ExpectedDate = d
	}

	return order, nil
}

func readExcelRows(reader io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("工作簿为空")
	}
	return f.GetRows(sheet)
}

// readCSVRows 读取CSV，非UTF-8内容按GBK解码
func readCSVRows(reader io.Reader) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("文件编码无法识别")
		}
		data = decoded
	}

	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// === 导出 ===

// ExportOrders 导出订单列表为 Excel 工作簿
func (s *OrderService) ExportOrders(ctx context.Context, filters map[string]string) (*excelize.File, error) {
	orders, _, err := s.orderRepo.FindAll(ctx, 1, 10000, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := append(append([]string{}, importHeaders...), "已出运数量", "状态")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, order := range orders {
		row := i + 2
		values := []interface{}{
			order.OrderNo,
			order.ItemCode,
			order.Description,
			order.Brand,
			order.Vendor,
			order.Quantity,
			formatDate(order.OrderDate),
			formatDate(order.ExpectedDate),
			order.ShippedQty,
			order.Status,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f, nil
}

// ImportTemplate 生成导入模板工作簿
func (s *OrderService) ImportTemplate() *excelize.File {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, h := range importHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	return f
}

// === 出运 ===

// AddShipmentRequest 出运登记请求
type AddShipmentRequest struct {
	ContainerNo  string `json:"container_no"`
	StuffingDate string `json:"stuffing_date"`
	Quantity     int    `json:"quantity" binding:"required"`
	Remarks      string `json:"remarks"`
}

// AddShipment 登记一次出运并投影订单状态。
// 累计出运不得超过订单数量；全部出完置为 shipped，否则 partial_shipped。
func (s *OrderService) AddShipment(ctx context.Context, orderID string, req *AddShipmentRequest, actorID string) (*entity.Order, error) {
	if req.Quantity <= 0 {
		return nil, validationErrorf("出运数量必须大于0")
	}

	release, err := s.locker.Lock(ctx, "order:"+orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case entity.OrderStatusInspectionDone, entity.OrderStatusPartialShipped:
	default:
		return nil, validationErrorf("订单当前状态 %s 不允许出运", order.Status)
	}

	newShipped := order.ShippedQty + req.Quantity
	if newShipped > order.Quantity {
		return nil, validationErrorf("累计出运数量 %d 超过订单数量 %d", newShipped, order.Quantity)
	}

	shipment := &entity.OrderShipment{
		ID:             uuid.New().String()[:32],
		OrderID:        order.ID,
		ContainerNo:    req.ContainerNo,
		Quantity:       req.Quantity,
		RemainingAfter: order.Quantity - newShipped,
		Remarks:        req.Remarks,
		CreatedBy:      actorID,
	}
	if req.StuffingDate != "" {
		d, err := parseDate(req.StuffingDate)
		if err != nil {
			return nil, validationErrorf("装柜日期格式错误: %s", req.StuffingDate)
		}
		shipment.StuffingDate = d
	}

	order.ShippedQty = newShipped
	if newShipped >= order.Quantity {
		order.Status = entity.OrderStatusShipped
	} else {
		order.Status = entity.OrderStatusPartialShipped
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txOrders := repository.NewOrderRepository(tx)
		if err := txOrders.CreateShipment(ctx, shipment); err != nil {
			return err
		}
		return txOrders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	order.Shipments = append(order.Shipments, *shipment)
	return order, nil
}

// === 日期辅助 ===

var dateLayouts = []string{"2006-01-02", "2006/01/02", "01-02-06", "1/2/06"}

func parseDate(raw string) (*time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date: %s", raw)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
