package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase はカートの業務ロジック。
// 在庫の参考値チェックはするが、在庫台帳を減らすのはチェックアウトだけ。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	inventory    repo.InventoryRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	inventory repo.InventoryRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		inventory:    inventory,
	}
}

type CartItemResponse struct {
	ProductID  int64             `json:"product_id"`
	SKU        string            `json:"sku"`
	Quantity   int64             `json:"quantity"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	LineTotal  decimal.Decimal   `json:"line_total"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type CartResponse struct {
	ID        int64              `json:"id"`
	UserID    *int64             `json:"user_id,omitempty"`
	SessionID *string            `json:"session_id,omitempty"`
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Total     decimal.Decimal    `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type AddCartInput struct {
	ProductID  int64
	Quantity   int64
	Attributes map[string]string
}

type UpdateCartItemInput struct {
	ProductID int64
	Quantity  int64
}

// GetCart はidentityのカートを返す（無ければ空で作る）。
func (u *CartUsecase) GetCart(ctx context.Context, identity repo.CartIdentity) (CartResponse, error) {
	if !identity.Valid() {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreate(ctx, identity)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
// 価格・SKU・属性は追加時点のスナップショットを保存する。
func (u *CartUsecase) AddToCart(ctx context.Context, identity repo.CartIdentity, in AddCartInput) (CartResponse, error) {
	if !identity.Valid() {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.Available {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product not available")
	}

	cart, err := u.cartRepo.GetOrCreate(ctx, identity)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 既存分と合わせた数量で参考チェック（確定の是非はチェックアウトの予約で決まる）
	var existingQty int64 = 0
	existing, err := u.cartItemRepo.FindByCartAndProduct(ctx, cart.ID, in.ProductID)
	if err == nil {
		existingQty = existing.Quantity
	} else if err != repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ok, err := u.inventory.CheckAvailability(ctx, in.ProductID, existingQty+in.Quantity)
	if err != nil && err != repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err == repo.ErrNotFound || !ok {
		return CartResponse{}, NewHTTPError(http.StatusConflict, "insufficient stock")
	}

	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, model.CartItem{
		ProductID:         in.ProductID,
		SKUSnapshot:       p.SKU,
		Quantity:          in.Quantity,
		UnitPriceSnapshot: p.Price,
		Attributes:        in.Attributes,
	}); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// UpdateItem は数量変更。0は明細削除。
func (u *CartUsecase) UpdateItem(ctx context.Context, identity repo.CartIdentity, in UpdateCartItemInput) (CartResponse, error) {
	if !identity.Valid() {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.cartRepo.Find(ctx, identity)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if _, err := u.cartItemRepo.FindByCartAndProduct(ctx, cart.ID, in.ProductID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 0は削除
	if in.Quantity == 0 {
		if err := u.cartItemRepo.DeleteByCartAndProduct(ctx, cart.ID, in.ProductID); err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return u.buildCartResponse(ctx, cart.ID)
	}

	ok, err := u.inventory.CheckAvailability(ctx, in.ProductID, in.Quantity)
	if err != nil && err != repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err == repo.ErrNotFound || !ok {
		return CartResponse{}, NewHTTPError(http.StatusConflict, "insufficient stock")
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cart.ID, in.ProductID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// MergeGuestCart はゲストカートを会員カートへ併合する。
// ゲストカートが無い・空なら何もしないで会員カートを返す。
func (u *CartUsecase) MergeGuestCart(ctx context.Context, userID int64, guestSessionID string) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if guestSessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid session_id")
	}

	userCart, err := u.cartRepo.GetOrCreate(ctx, repo.UserIdentity(userID))
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	guestCart, err := u.cartRepo.Find(ctx, repo.SessionIdentity(guestSessionID))
	if err == repo.ErrNotFound {
		return u.buildCartResponse(ctx, userCart.ID)
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartRepo.Merge(ctx, userCart.ID, guestCart.ID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, userCart.ID)
}

// cartIDの明細をまとめてCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	cart, err := u.cartRepo.FindByID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(cart.Items))
	total := decimal.Zero

	for _, it := range cart.Items {
		lineTotal := it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity))
		respItems = append(respItems, CartItemResponse{
			ProductID:  it.ProductID,
			SKU:        it.SKUSnapshot,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPriceSnapshot,
			LineTotal:  lineTotal,
			Attributes: it.Attributes,
		})
		total = total.Add(lineTotal)
	}

	return CartResponse{
		ID:        cart.ID,
		UserID:    cart.UserID,
		SessionID: cart.SessionID,
		Items:     respItems,
		ItemCount: len(respItems),
		Total:     total,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}, nil
}
