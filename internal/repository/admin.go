package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/sqlcommand"
)

// adminTable — дескриптор таблицы admins.
// Порядок полей совпадает с порядком сканирования в scanAdmin.
var adminTable = sqlcommand.NewTable("admins",
	"id", "loginId", "password", "token", "name",
	"useFlag", "managerFlag", "authorities",
	"changePasswordAt", "latestActiveAt", "joinedAt",
	"createdAt", "createdObjectType", "createdObjectId",
	"updatedAt", "updatedObjectType", "updatedObjectId",
	"removedFlag", "removedAt",
)

// AdminRepository — доступ к таблице admins.
// Фильтры задаются map-ами вида «поле[:оператор]» → значение.
type AdminRepository interface {
	// WithTx возвращает копию репозитория, привязанную к транзакции.
	WithTx(tx DBTX) AdminRepository
	// CountByMap возвращает количество администраторов по фильтру.
	CountByMap(ctx context.Context, where map[string]any) (int64, error)
	// GetItemsByMapOrderByLimitOffset возвращает страницу администраторов.
	GetItemsByMapOrderByLimitOffset(ctx context.Context, where map[string]any, orderBy []string, limit, offset *int) ([]*model.Admin, error)
	// GetItemByMap возвращает первого подходящего администратора.
	GetItemByMap(ctx context.Context, where map[string]any) (*model.Admin, error)
	// GetItemByID возвращает администратора по id.
	GetItemByID(ctx context.Context, id int64) (*model.Admin, error)
	// GetSimpleItemsByIDs возвращает облегчённые проекции по списку id.
	GetSimpleItemsByIDs(ctx context.Context, ids []int64) ([]model.UserSimple, error)
	// Insert вставляет администратора и присваивает ему id.
	Insert(ctx context.Context, admin *model.Admin) error
	// UpdateByID сохраняет все поля администратора.
	UpdateByID(ctx context.Context, id int64, admin *model.Admin) error
	// UpdateMapByMap обновляет набор полей по фильтру.
	UpdateMapByMap(ctx context.Context, updateMap, where map[string]any) error
}

// adminRepo — реализация AdminRepository поверх SqlRepository.
type adminRepo struct {
	SqlRepository[model.Admin]
}

// NewAdminRepository создаёт репозиторий администраторов.
func NewAdminRepository(db DBTX) AdminRepository {
	return &adminRepo{SqlRepository: NewSqlRepository(
		db, sqlcommand.New(adminTable), scanAdmin, adminToMap, setAdminID,
	)}
}

func (r *adminRepo) WithTx(tx DBTX) AdminRepository {
	bound := *r
	bound.db = tx
	return &bound
}

func (r *adminRepo) GetSimpleItemsByIDs(ctx context.Context, ids []int64) ([]model.UserSimple, error) {
	return getSimpleItemsByIDs(ctx, r.SqlRepository, ids)
}

// scanAdmin сканирует строку результата в модель Admin.
func scanAdmin(row pgx.Row) (*model.Admin, error) {
	admin := &model.Admin{}
	err := row.Scan(
		&admin.ID, &admin.LoginID, &admin.PasswordHash, &admin.Token, &admin.Name,
		&admin.UseFlag, &admin.ManagerFlag, &admin.Authorities,
		&admin.ChangePasswordAt, &admin.LatestActiveAt, &admin.JoinedAt,
		&admin.CreatedAt, &admin.CreatedObjectType, &admin.CreatedObjectID,
		&admin.UpdatedAt, &admin.UpdatedObjectType, &admin.UpdatedObjectID,
		&admin.RemovedFlag, &admin.RemovedAt,
	)
	return admin, err
}

// adminToMap сериализует администратора в map для sqlcommand.
// Транзиентные проекции Creator/Updater не включаются.
func adminToMap(admin *model.Admin) map[string]any {
	return map[string]any{
		"id":                admin.ID,
		"loginId":           admin.LoginID,
		"password":          admin.PasswordHash,
		"token":             admin.Token,
		"name":              admin.Name,
		"useFlag":           admin.UseFlag,
		"managerFlag":       admin.ManagerFlag,
		"authorities":       admin.Authorities,
		"changePasswordAt":  admin.ChangePasswordAt,
		"latestActiveAt":    admin.LatestActiveAt,
		"joinedAt":          admin.JoinedAt,
		"createdAt":         admin.CreatedAt,
		"createdObjectType": admin.CreatedObjectType,
		"createdObjectId":   admin.CreatedObjectID,
		"updatedAt":         admin.UpdatedAt,
		"updatedObjectType": admin.UpdatedObjectType,
		"updatedObjectId":   admin.UpdatedObjectID,
		"removedFlag":       admin.RemovedFlag,
		"removedAt":         admin.RemovedAt,
	}
}

func setAdminID(admin *model.Admin, id int64) { admin.ID = &id }

// getSimpleItemsByIDs — общая выборка облегчённых проекций (id, loginId, name)
// для батчевого резолва авторов audit-записей.
func getSimpleItemsByIDs[T any](ctx context.Context, repo SqlRepository[T], ids []int64) ([]model.UserSimple, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	set := make(sqlcommand.Set, 0, len(ids))
	for _, id := range ids {
		set = append(set, id)
	}

	var items []model.UserSimple
	err := repo.GetDistinctAndTargetItemsByMapOrderByLimitOffset(
		ctx, nil, []string{"id", "loginId", "name"},
		map[string]any{"id:in": set}, nil, nil, nil,
		func(rows pgx.Rows) error {
			var item model.UserSimple
			if err := rows.Scan(&item.ID, &item.LoginID, &item.Name); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return items, nil
}
