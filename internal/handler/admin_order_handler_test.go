package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func adminListContext(t *testing.T, query string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/orders?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// 壊れた期間パラメータは黙って捨てずに400を返す
func TestAdminOrderList_MalformedFromRejected(t *testing.T) {
	h := NewAdminOrderHandler(usecase.NewAdminOrderUsecase(nil, nil, nil))

	c, rec := adminListContext(t, "from=yesterday")
	assert.NoError(t, h.list(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid from")
}

func TestAdminOrderList_MalformedToRejected(t *testing.T) {
	h := NewAdminOrderHandler(usecase.NewAdminOrderUsecase(nil, nil, nil))

	c, rec := adminListContext(t, "to=2026-13-99")
	assert.NoError(t, h.list(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid to")
}

func TestAdminOrderList_MalformedUserIDRejected(t *testing.T) {
	h := NewAdminOrderHandler(usecase.NewAdminOrderUsecase(nil, nil, nil))

	c, rec := adminListContext(t, "user_id=abc")
	assert.NoError(t, h.list(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseDateTimeRFC3339(t *testing.T) {
	// 空はフィルタ無し
	got, err := parseDateTimeRFC3339("")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseDateTimeRFC3339("2026-08-01T00:00:00Z")
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), got.UTC())
	}

	_, err = parseDateTimeRFC3339("2026-08-01")
	assert.Error(t, err)
}
