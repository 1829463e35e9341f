// Пакет service — бизнес-логика Backoffice: операторы (Admin, User),
// объявления, аутентификация и жизненный цикл токенов.
package service

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxRunner выполняет функцию внутри транзакции БД.
// Реализуется repository.TxRunner; в unit-тестах подменяется заглушкой.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// TokenPair — пара «access-токен + refresh-токен», результат
// входа и обновления токена.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ListResult — страница списка с общим количеством.
type ListResult[T any] struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	Items    []*T  `json:"items"`
}

// pageBounds переводит номер страницы (с 1) и размер в limit/offset.
func pageBounds(page, pageSize int) (limit, offset *int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	l := pageSize
	o := (page - 1) * pageSize
	return &l, &o
}
