package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QCService 验货对账引擎：负责验货记录的创建（对齐）与全部增量更新，
// 维护数量守恒不变量与一次性字段约束
type QCService struct {
	qcRepo        *repository.QCRepository
	orderRepo     *repository.OrderRepository
	inspectorRepo *repository.InspectorRepository
	eventRepo     *repository.EventRepository
	labelSvc      *LabelService
	locker        *Locker
	db            *gorm.DB
}

func NewQCService(
	repos *repository.Repositories,
	labelSvc *LabelService,
	locker *Locker,
	db *gorm.DB,
) *QCService {
	return &QCService{
		qcRepo:        repos.QC,
		orderRepo:     repos.Order,
		inspectorRepo: repos.Inspector,
		eventRepo:     repos.Event,
		labelSvc:      labelSvc,
		locker:        locker,
		db:            db,
	}
}

// === 对齐（创建验货记录） ===

// AlignQCRequest 对齐请求
type AlignQCRequest struct {
	OrderID         string `json:"order_id" binding:"required"`
	InspectorID     string `json:"inspector_id" binding:"required"`
	RequestDate     string `json:"request_date" binding:"required"` // 2006-01-02
	VendorProvision int    `json:"vendor_provision"`
	Remarks         string `json:"remarks"`
}

// Align 把订单行项与检验员、初始数量绑定，创建验货记录并把订单置为验货中。
// 验货记录创建与订单状态更新在同一事务内提交。
func (s *QCService) Align(ctx context.Context, req *AlignQCRequest, actorID string) (*entity.QCRecord, error) {
	order, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if _, err := s.qcRepo.FindByOrderID(ctx, req.OrderID); err == nil {
		return nil, &ConflictError{Message: "该订单行项已存在验货记录"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	inspector, err := s.inspectorRepo.FindByID(ctx, req.InspectorID)
	if err != nil {
		return nil, err
	}

	requestDate, err := time.ParseInLocation("2006-01-02", req.RequestDate, time.Local)
	if err != nil {
		return nil, validationErrorf("验货日期格式错误，应为 YYYY-MM-DD")
	}
	today := startOfToday()
	if requestDate.Before(today) {
		return nil, validationErrorf("验货日期不能早于今天")
	}

	if req.VendorProvision < 0 {
		return nil, validationErrorf("供货数量不能为负")
	}
	if req.VendorProvision > order.Quantity {
		return nil, validationErrorf("供货数量不能超过客户需求 %d", order.Quantity)
	}

	code, err := s.qcRepo.GenerateCode(ctx)
	if err != nil {
		return nil, err
	}

	record := &entity.QCRecord{
		ID:              uuid.New().String()[:32],
		QCCode:          code,
		OrderID:         order.ID,
		ItemCode:        order.ItemCode,
		InspectorID:     inspector.ID,
		RequestDate:     requestDate,
		ClientDemand:    order.Quantity,
		VendorProvision: req.VendorProvision,
		Pending:         order.Quantity - req.VendorProvision,
		Labels:          datatypes.JSONSlice[int64]{},
		Remarks:         req.Remarks,
		CreatedBy:       actorID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewQCRepository(tx).Create(ctx, record); err != nil {
			return err
		}
		order.Status = entity.OrderStatusUnderInspection
		order.QCRecordID = &record.ID
		return repository.NewOrderRepository(tx).Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// === 增量更新 ===

// UpdateQCRequest 单次检验提交，数量字段均为本次增量
type UpdateQCRequest struct {
	QCChecked       *int    `json:"qc_checked"`
	QCPassed        *int    `json:"qc_passed"`
	QCRejected      *int    `json:"qc_rejected"`
	VendorProvision *int    `json:"vendor_provision"`
	Labels          []int64 `json:"labels"`

	Barcode    *int64 `json:"barcode"`
	PackedSize *bool  `json:"packed_size"`
	Finishing  *bool  `json:"finishing"`
	Branding   *bool  `json:"branding"`

	CBM       *string `json:"cbm"` // cbm_total 的旧字段名
	CBMTop    *string `json:"cbm_top"`
	CBMBottom *string `json:"cbm_bottom"`
	CBMTotal  *string `json:"cbm_total"`

	Remarks *string `json:"remarks"`
}

func (r *UpdateQCRequest) hasQuantityPayload() bool {
	return r.QCChecked != nil || r.QCPassed != nil || r.QCRejected != nil ||
		r.VendorProvision != nil || len(r.Labels) > 0
}

// Update 合并一次部分检验结果。校验顺序：完结锁 → 一次性字段 → 增量合法性 →
// 守恒校验 → 标签认领 → 事务提交（检验员、验货记录、检验事件一并落库）。
func (s *QCService) Update(ctx context.Context, id string, req *UpdateQCRequest, actorID, actorRole string) (*entity.QCRecord, error) {
	release, err := s.locker.Lock(ctx, "record:"+id)
	if err != nil {
		return nil, err
	}
	defer release()

	record, err := s.qcRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	admin := actorRole == entity.RoleAdmin

	// 检验员账本也要上锁：同一检验员名下的其他验货记录并发认领标签时，
	// 串行化读改写，避免 used_labels 丢失更新
	releaseInspector, err := s.locker.Lock(ctx, "inspector:"+record.InspectorID)
	if err != nil {
		return nil, err
	}
	defer releaseInspector()

	inspector, err := s.inspectorRepo.FindByID(ctx, record.InspectorID)
	if err != nil {
		return nil, err
	}
	if !admin && inspector.UserID != actorID {
		return nil, &UnauthorizedError{Message: "仅指派的检验员可更新该验货记录"}
	}

	// 1. 完结锁：无待验数量后，非admin仅允许一次性字段补录；
	//    三个一次性布尔均已确认则整体拒绝
	if !admin && record.HasAnyUpdate() && record.ClientDemand-record.QCPassed <= 0 {
		if record.PackedSize && record.Finishing && record.Branding {
			return nil, &FinalizedError{Message: "验货已完结，不可再更新"}
		}
		if req.hasQuantityPayload() {
			return nil, &NoPendingQuantityError{Message: "无待验数量，仅允许补录包装/工艺/品牌确认"}
		}
	}

	// 2. 一次性字段
	if err := s.applyOneTimeFields(record, req, admin); err != nil {
		return nil, err
	}

	// 3. 增量合法性
	dChecked, err := deltaValue(req.QCChecked, "qc_checked")
	if err != nil {
		return nil, err
	}
	dPassed, err := deltaValue(req.QCPassed, "qc_passed")
	if err != nil {
		return nil, err
	}
	dRejected, err := deltaValue(req.QCRejected, "qc_rejected")
	if err != nil {
		return nil, err
	}
	dProvision, err := deltaValue(req.VendorProvision, "vendor_provision")
	if err != nil {
		return nil, err
	}
	if req.hasQuantityPayload() && dChecked <= 0 {
		return nil, validationErrorf("更新数量或标签时本次查验数量必须大于0")
	}

	// 4. 守恒校验，基于合并后的累计值
	nextProvision := record.VendorProvision + dProvision - dRejected
	if nextProvision < 0 {
		return nil, validationErrorf("供货数量不能为负")
	}
	if nextProvision > record.ClientDemand {
		return nil, validationErrorf("供货数量不能超过客户需求")
	}

	totalOffered := record.VendorProvision + record.QCRejected + dProvision
	nextChecked := record.QCChecked + dChecked
	if nextChecked > totalOffered {
		return nil, validationErrorf("查验数量不能超过供货总量")
	}

	nextPassed := record.QCPassed + dPassed
	if nextPassed > nextProvision {
		return nil, validationErrorf("合格数量不能超过供货数量")
	}
	if nextPassed+record.QCRejected+dRejected > nextChecked {
		return nil, validationErrorf("合格与不合格之和不能超过查验数量")
	}

	// 5. 标签认领：仅净新增的标签参与校验与消耗
	var claimed []int64
	inspectorDirty := false
	if len(req.Labels) > 0 {
		requested, err := dedupeLabels(req.Labels)
		if err != nil {
			return nil, err
		}

		existing := labelSet(record.Labels)
		var incoming []int64
		for _, label := range requested {
			if !existing[label] {
				incoming = append(incoming, label)
			}
		}

		if len(incoming) > dChecked {
			return nil, validationErrorf("本次标签数不能超过本次查验数量")
		}
		if len(record.Labels)+len(incoming) > nextChecked {
			return nil, validationErrorf("标签总数不能超过累计查验数量")
		}

		if len(incoming) > 0 {
			if err := s.labelSvc.ApplyClaim(inspector, incoming); err != nil {
				return nil, err
			}
			record.Labels = sortedUnion(record.Labels, incoming)
			claimed = incoming
			inspectorDirty = true
		}
	}

	// 6. 提交
	record.VendorProvision = nextProvision
	record.QCChecked = nextChecked
	record.QCPassed = nextPassed
	record.QCRejected = record.QCRejected + dRejected
	record.Pending = record.ClientDemand - nextPassed
	if req.Remarks != nil && *req.Remarks != "" {
		record.Remarks = *req.Remarks
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if inspectorDirty {
			if err := repository.NewInspectorRepository(tx).Update(ctx, inspector); err != nil {
				return err
			}
		}

		if err := repository.NewQCRepository(tx).UpdateWithVersion(ctx, record); err != nil {
			return err
		}

		// 仅数量或标签有变化时记入检验事件，纯补录不进审计账
		if dChecked != 0 || dPassed != 0 || dRejected != 0 || dProvision != 0 || len(claimed) > 0 {
			txEvents := repository.NewEventRepository(tx)
			seq, err := txEvents.NextSeq(ctx, record.ID)
			if err != nil {
				return err
			}
			event := &entity.InspectionEvent{
				ID:             uuid.New().String()[:32],
				QCRecordID:     record.ID,
				Seq:            seq,
				CheckedDelta:   dChecked,
				PassedDelta:    dPassed,
				RejectedDelta:  dRejected,
				ProvisionDelta: dProvision,
				Labels:         datatypes.JSONSlice[int64](claimed),
				OperatorID:     actorID,
			}
			if req.Remarks != nil {
				event.Remarks = *req.Remarks
			}
			if err := txEvents.Create(ctx, event); err != nil {
				return err
			}
		}

		// 订单状态投影：无待验数量且未出运时置为验货完成
		if record.Pending <= 0 {
			order, err := repository.NewOrderRepository(tx).FindByID(ctx, record.OrderID)
			if err != nil {
				return err
			}
			if order.Status == entity.OrderStatusUnderInspection {
				order.Status = entity.OrderStatusInspectionDone
				if err := repository.NewOrderRepository(tx).Update(ctx, order); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, &ConflictError{Message: "验货记录已被并发修改，请重试"}
		}
		return nil, err
	}

	return record, nil
}

// applyOneTimeFields 一次性字段写入：未设置可写，等值重复提交幂等，admin可覆盖
func (s *QCService) applyOneTimeFields(record *entity.QCRecord, req *UpdateQCRequest, admin bool) error {
	// CBM：total 单独提交，或 top+bottom 成对提交
	total := req.CBMTotal
	if total == nil {
		total = req.CBM
	}
	pairSupplied := req.CBMTop != nil || req.CBMBottom != nil

	if total != nil && pairSupplied {
		return validationErrorf("cbm_total 与 cbm_top/cbm_bottom 不能同时提交")
	}
	if pairSupplied && (req.CBMTop == nil || req.CBMBottom == nil) {
		return validationErrorf("cbm_top 与 cbm_bottom 必须成对提交")
	}

	if total != nil {
		normalized, err := ParsePositiveDecimal(*total, "cbm_total")
		if err != nil {
			return err
		}
		if record.CBMSet() && !admin {
			if record.CBMTotal != normalized || record.CBMTop != "" {
				return &ImmutableFieldError{Field: "cbm"}
			}
		} else {
			record.CBMTop = ""
			record.CBMBottom = ""
			record.CBMTotal = normalized
		}
	} else if pairSupplied {
		top, err := ParsePositiveDecimal(*req.CBMTop, "cbm_top")
		if err != nil {
			return err
		}
		bottom, err := ParsePositiveDecimal(*req.CBMBottom, "cbm_bottom")
		if err != nil {
			return err
		}
		if record.CBMSet() && !admin {
			if record.CBMTop != top || record.CBMBottom != bottom {
				return &ImmutableFieldError{Field: "cbm"}
			}
		} else {
			sum, err := AddDecimal(top, bottom)
			if err != nil {
				return err
			}
			record.CBMTop = top
			record.CBMBottom = bottom
			record.CBMTotal = sum
		}
	}

	if req.Barcode != nil {
		if *req.Barcode <= 0 {
			return validationErrorf("条码必须是正整数")
		}
		if record.Barcode != nil && !admin && *record.Barcode != *req.Barcode {
			return &ImmutableFieldError{Field: "barcode"}
		}
		record.Barcode = req.Barcode
	}

	if req.PackedSize != nil {
		next, err := setOnce(record.PackedSize, *req.PackedSize, false, admin, "packed_size")
		if err != nil {
			return err
		}
		record.PackedSize = next
	}
	if req.Finishing != nil {
		next, err := setOnce(record.Finishing, *req.Finishing, false, admin, "finishing")
		if err != nil {
			return err
		}
		record.Finishing = next
	}
	if req.Branding != nil {
		next, err := setOnce(record.Branding, *req.Branding, false, admin, "branding")
		if err != nil {
			return err
		}
		record.Branding = next
	}

	return nil
}

// setOnce 一次性字段的通用写入规则：
// 当前为零值、等值重复提交或admin时允许写入，否则拒绝
func setOnce[T comparable](current, incoming, zero T, admin bool, field string) (T, error) {
	if current == zero || admin || current == incoming {
		return incoming, nil
	}
	return current, &ImmutableFieldError{Field: field}
}

func deltaValue(v *int, field string) (int, error) {
	if v == nil {
		return 0, nil
	}
	if *v < 0 {
		return 0, validationErrorf("%s 不能为负", field)
	}
	return *v, nil
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}

// === 查询 ===

// QCDetail 验货详情，含推导字段与事件历史
type QCDetail struct {
	*entity.QCRecord
	RejectedLabels []int64                  `json:"rejected_labels"`
	Events         []entity.InspectionEvent `json:"events"`
}

// GetQCDetail 查询验货详情
func (s *QCService) GetQCDetail(ctx context.Context, id string) (*QCDetail, error) {
	record, err := s.qcRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.FindByQCRecordID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &QCDetail{
		QCRecord:       record,
		RejectedLabels: RejectedLabels(record.Labels),
		Events:         events,
	}, nil
}

// ListQCRecords 查询验货记录列表
func (s *QCService) ListQCRecords(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.QCRecord, int64, error) {
	return s.qcRepo.FindAll(ctx, page, pageSize, filters)
}

// ListEvents 查询验货记录的事件历史
func (s *QCService) ListEvents(ctx context.Context, qcRecordID string) ([]entity.InspectionEvent, error) {
	if _, err := s.qcRepo.FindByID(ctx, qcRecordID); err != nil {
		return nil, err
	}
	return s.eventRepo.FindByQCRecordID(ctx, qcRecordID)
}

// RejectedLabels 从已认领标签的间隙推导被拒标签：
// 相邻标签差值大于1时，中间缺失的整数视为被拒。读取时投影，不落库。
func RejectedLabels(labels []int64) []int64 {
	if len(labels) < 2 {
		return []int64{}
	}

	sorted := make([]int64, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rejected := []int64{}
	for i := 1; i < len(sorted); i++ {
		for missing := sorted[i-1] + 1; missing < sorted[i]; missing++ {
			rejected = append(rejected, missing)
		}
	}
	return rejected
}
