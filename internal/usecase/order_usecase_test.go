package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetMyOrderDetail(t *testing.T) {
	ctx := context.Background()
	orders := new(OrderRepoMock)
	uc := usecase.NewOrderUsecase(orders)

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 7,
		Items: []model.OrderItem{{
			ProductID: 1, SKUSnapshot: "SKU-1", TitleSnapshot: "Product A",
			Quantity: 2, UnitPriceSnapshot: decimal.RequireFromString("100.00"),
		}},
		Subtotal: decimal.RequireFromString("200.00"),
		Shipping: decimal.RequireFromString("50.00"),
		Total:    decimal.RequireFromString("250.00"),
		Status:   model.OrderStatusPaid,
		Events:   []model.OrderEvent{{Status: model.OrderStatusPending}, {Status: model.OrderStatusPaid}},
	}, nil)

	out, err := uc.GetMyOrderDetail(ctx, 7, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), out.ID)
	assert.Equal(t, "PAID", out.Status)
	assert.Equal(t, "Product A", out.Items[0].Title)
	assert.Equal(t, "SKU-1", out.Items[0].SKU)
	assert.True(t, out.Total.Equal(decimal.RequireFromString("250.00")))
	assert.Len(t, out.Events, 2)
}

// 他人の注文は404（存在の有無を漏らさない）
func TestGetMyOrderDetail_ForeignOrderHidden(t *testing.T) {
	ctx := context.Background()
	orders := new(OrderRepoMock)
	uc := usecase.NewOrderUsecase(orders)

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{ID: 10, UserID: 8}, nil)

	_, err := uc.GetMyOrderDetail(ctx, 7, 10)
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestGetMyOrderDetail_NotFound(t *testing.T) {
	ctx := context.Background()
	orders := new(OrderRepoMock)
	uc := usecase.NewOrderUsecase(orders)

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.GetMyOrderDetail(ctx, 7, 10)
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestListMyOrders_NormalizesPaging(t *testing.T) {
	ctx := context.Background()
	orders := new(OrderRepoMock)
	uc := usecase.NewOrderUsecase(orders)

	// page<1, limit>100 は既定値に丸める
	orders.On("ListByUserID", mock.Anything, int64(7), 1, 20).
		Return([]model.Order{{ID: 1, UserID: 7}, {ID: 2, UserID: 7}}, int64(2), nil)

	outs, total, err := uc.ListMyOrders(ctx, 7, 0, 500)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, outs, 2)

	orders.AssertExpectations(t)
}

func TestListMyOrders_Unauthorized(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewOrderUsecase(new(OrderRepoMock))

	_, _, err := uc.ListMyOrders(ctx, 0, 1, 20)
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}
