package repository

import (
	"context"

	"app/internal/domain/model"
)

// 認証済みprincipal→内部ユーザーの解決にだけ使う
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
}
