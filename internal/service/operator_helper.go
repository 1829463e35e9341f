// operator_helper.go — батчевый резолв авторов audit-записей.
// Для страницы сущностей выполняется не более одного запроса
// на каждый тип актора (ADMIN, USER), запросы идут параллельно.
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/backoffice/internal/domain/model"
)

// SimpleItemsGetter — выборка облегчённых проекций операторов по списку id.
type SimpleItemsGetter interface {
	GetSimpleItemsByIDs(ctx context.Context, ids []int64) ([]model.UserSimple, error)
}

// OperatorHelper заполняет транзиентные проекции Creator/Updater
// для списков audit-сущностей.
type OperatorHelper struct {
	admins SimpleItemsGetter
	users  SimpleItemsGetter
	logger *slog.Logger
}

// NewOperatorHelper создаёт резолвер авторов.
func NewOperatorHelper(admins, users SimpleItemsGetter, logger *slog.Logger) *OperatorHelper {
	return &OperatorHelper{
		admins: admins,
		users:  users,
		logger: logger.With(slog.String("component", "operator_helper")),
	}
}

// Fulfill заполняет Creator/Updater всех переданных сущностей.
// Уже заполненные проекции не перезапрашиваются. Ссылки на авторов,
// отсутствующих в БД (физически удалённых), остаются незаполненными.
func (h *OperatorHelper) Fulfill(ctx context.Context, items []model.Audited) error {
	adminIDs := map[int64]bool{}
	userIDs := map[int64]bool{}

	collect := func(ref model.ActorRef) {
		switch ref.Type {
		case model.UserTypeAdmin:
			adminIDs[ref.ID] = true
		case model.UserTypeUser:
			userIDs[ref.ID] = true
		}
	}
	for _, item := range items {
		audit := item.Audit()
		if audit.Creator == nil {
			collect(audit.CreatedRef())
		}
		if audit.Updater == nil {
			collect(audit.UpdatedRef())
		}
	}
	if len(adminIDs) == 0 && len(userIDs) == 0 {
		return nil
	}

	var adminItems, userItems []model.UserSimple
	g, gctx := errgroup.WithContext(ctx)
	if len(adminIDs) > 0 {
		g.Go(func() error {
			var err error
			adminItems, err = h.admins.GetSimpleItemsByIDs(gctx, keys(adminIDs))
			return err
		})
	}
	if len(userIDs) > 0 {
		g.Go(func() error {
			var err error
			userItems, err = h.users.GetSimpleItemsByIDs(gctx, keys(userIDs))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	resolved := map[model.ActorRef]*model.UserSimple{}
	for i := range adminItems {
		resolved[model.ActorRef{Type: model.UserTypeAdmin, ID: adminItems[i].ID}] = &adminItems[i]
	}
	for i := range userItems {
		resolved[model.ActorRef{Type: model.UserTypeUser, ID: userItems[i].ID}] = &userItems[i]
	}

	for _, item := range items {
		audit := item.Audit()
		if audit.Creator == nil {
			audit.Creator = resolved[audit.CreatedRef()]
		}
		if audit.Updater == nil {
			audit.Updater = resolved[audit.UpdatedRef()]
		}
	}
	return nil
}

// FulfillOperators — типизированная обёртка Fulfill для однородных списков.
func FulfillOperators[T model.Audited](ctx context.Context, helper *OperatorHelper, items []T) error {
	audited := make([]model.Audited, 0, len(items))
	for _, item := range items {
		audited = append(audited, item)
	}
	return helper.Fulfill(ctx, audited)
}

func keys(m map[int64]bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}
