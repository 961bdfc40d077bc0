package usecase

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// AdminOrderUsecase は注文の状態遷移と管理者照会。
// 遷移は「イベント追記＋status更新」を1トランザクションで行い、
// 不正な遷移は何も書かずに拒否する。
type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	orderRepo repo.OrderRepository
	inventory repo.InventoryRepository
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	inventory repo.InventoryRepository,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orderRepo: orderRepo, inventory: inventory}
}

// 注文一覧（status・user・期間で絞り込み）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.OrderListFilter) ([]OrderOutput, int64, error) {
	if f.Page < 1 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	orders, total, err := u.orderRepo.List(ctx, f)
	if err != nil {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs, total, nil
}

// Transition は遷移表に従ってstatusを進め、イベントを追記する。
func (u *AdminOrderUsecase) Transition(ctx context.Context, actorUserID int64, orderID int64, newStatus model.OrderStatus, note string) (OrderOutput, error) {
	if actorUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	if _, err := u.transition(ctx, orderID, newStatus, note, map[string]string{
		model.EventMetaActor: fmt.Sprintf("admin:%d", actorUserID),
	}); err != nil {
		return OrderOutput{}, err
	}

	return u.reload(ctx, orderID)
}

// Cancel はCANCELLEDへ遷移し、明細ぶんの在庫を戻す。
// DELIVERED・REFUNDED（および既にCANCELLED）の注文は拒否される。
func (u *AdminOrderUsecase) Cancel(ctx context.Context, actorUserID int64, orderID int64, reason string) (OrderOutput, error) {
	if actorUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.transition(ctx, orderID, model.OrderStatusCancelled, reason, map[string]string{
		model.EventMetaActor: fmt.Sprintf("admin:%d", actorUserID),
	})
	if err != nil {
		return OrderOutput{}, err
	}

	// 予約の補償。遷移確定後に台帳を1商品ずつ戻す。
	// 1商品の失敗で残りを道連れにしない（キャンセル自体は既に成立している）。
	for _, it := range o.Items {
		ok, err := u.inventory.Release(ctx, it.ProductID, it.Quantity)
		if err != nil {
			log.Printf("cancel: release of product %d for order %d failed: %v", it.ProductID, orderID, err)
			continue
		}
		if !ok {
			// 商品が消えていても注文のキャンセル自体は成立している
			log.Printf("cancel: release of product %d for order %d skipped (product gone)", it.ProductID, orderID)
		}
	}

	return u.reload(ctx, orderID)
}

// Refund はDELIVEREDからのみREFUNDEDへ遷移する。
func (u *AdminOrderUsecase) Refund(ctx context.Context, actorUserID int64, orderID int64, reason string) (OrderOutput, error) {
	if actorUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if _, err := u.transition(ctx, orderID, model.OrderStatusRefunded, reason, map[string]string{
		model.EventMetaActor: fmt.Sprintf("admin:%d", actorUserID),
	}); err != nil {
		return OrderOutput{}, err
	}

	return u.reload(ctx, orderID)
}

type RecordPaymentInput struct {
	Provider      string
	TransactionID string
	Status        string
	ProcessedAt   *time.Time
}

// RecordPayment は外部決済の進捗を記録する統合シーム。
// 決済完了（COMPLETED/PAID）ならPENDING→PAIDの遷移も行う。
func (u *AdminOrderUsecase) RecordPayment(ctx context.Context, orderID int64, in RecordPaymentInput) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	if status == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment status")
	}

	paid := status == "COMPLETED" || status == "PAID"

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 決済完了を反映できない状態（キャンセル済み等）は遷移エラー
		if paid && !o.Status.CanTransitionTo(model.OrderStatusPaid) {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("invalid transition %s -> %s", o.Status, model.OrderStatusPaid))
		}

		payment := o.Payment
		if in.Provider != "" {
			payment.Provider = in.Provider
		}
		if in.TransactionID != "" {
			payment.TransactionID = in.TransactionID
		}
		payment.Status = status
		processedAt := in.ProcessedAt
		if processedAt == nil {
			now := time.Now()
			processedAt = &now
		}
		payment.ProcessedAt = processedAt

		if err := r.Orders().UpdatePayment(ctx, orderID, payment); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if paid {
			return u.applyTransition(ctx, r, o, model.OrderStatusPaid, "payment confirmed", map[string]string{
				model.EventMetaActor: "payment:" + payment.Provider,
			})
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	return u.reload(ctx, orderID)
}

// transition は1トランザクションで遷移を適用し、遷移前の注文を返す。
func (u *AdminOrderUsecase) transition(ctx context.Context, orderID int64, newStatus model.OrderStatus, note string, meta map[string]string) (model.Order, error) {
	var before model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		before = o
		return u.applyTransition(ctx, r, o, newStatus, note, meta)
	})
	if err != nil {
		return model.Order{}, err
	}
	return before, nil
}

func (u *AdminOrderUsecase) applyTransition(ctx context.Context, r repo.TxRepos, o model.Order, newStatus model.OrderStatus, note string, meta map[string]string) error {
	if !o.Status.CanTransitionTo(newStatus) {
		return NewHTTPError(http.StatusConflict,
			fmt.Sprintf("invalid transition %s -> %s", o.Status, newStatus))
	}

	if meta == nil {
		meta = map[string]string{}
	}
	meta[model.EventMetaPreviousStatus] = string(o.Status)

	if err := r.Orders().UpdateStatus(ctx, o.ID, newStatus); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := r.Orders().AppendEvent(ctx, model.OrderEvent{
		OrderID:   o.ID,
		Status:    newStatus,
		Note:      note,
		Meta:      meta,
		CreatedAt: time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AdminOrderUsecase) reload(ctx context.Context, orderID int64) (OrderOutput, error) {
	o, err := u.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutput(o), nil
}
