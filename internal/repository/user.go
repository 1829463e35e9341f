package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/sqlcommand"
)

// userTable — дескриптор таблицы users.
// Порядок полей совпадает с порядком сканирования в scanUser.
var userTable = sqlcommand.NewTable("users",
	"id", "loginId", "password", "token", "name",
	"useFlag", "authorities",
	"changePasswordAt", "latestActiveAt", "joinedAt", "additionalInfo",
	"createdAt", "createdObjectType", "createdObjectId",
	"updatedAt", "updatedObjectType", "updatedObjectId",
	"removedFlag", "removedAt",
)

// UserRepository — доступ к таблице users.
type UserRepository interface {
	// WithTx возвращает копию репозитория, привязанную к транзакции.
	WithTx(tx DBTX) UserRepository
	// CountByMap возвращает количество пользователей по фильтру.
	CountByMap(ctx context.Context, where map[string]any) (int64, error)
	// GetItemsByMapOrderByLimitOffset возвращает страницу пользователей.
	GetItemsByMapOrderByLimitOffset(ctx context.Context, where map[string]any, orderBy []string, limit, offset *int) ([]*model.User, error)
	// GetItemByMap возвращает первого подходящего пользователя.
	GetItemByMap(ctx context.Context, where map[string]any) (*model.User, error)
	// GetItemByID возвращает пользователя по id.
	GetItemByID(ctx context.Context, id int64) (*model.User, error)
	// GetSimpleItemsByIDs возвращает облегчённые проекции по списку id.
	GetSimpleItemsByIDs(ctx context.Context, ids []int64) ([]model.UserSimple, error)
	// Insert вставляет пользователя и присваивает ему id.
	Insert(ctx context.Context, user *model.User) error
	// UpdateByID сохраняет все поля пользователя.
	UpdateByID(ctx context.Context, id int64, user *model.User) error
	// UpdateMapByMap обновляет набор полей по фильтру.
	UpdateMapByMap(ctx context.Context, updateMap, where map[string]any) error
}

// userRepo — реализация UserRepository поверх SqlRepository.
type userRepo struct {
	SqlRepository[model.User]
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{SqlRepository: NewSqlRepository(
		db, sqlcommand.New(userTable), scanUser, userToMap, setUserID,
	)}
}

func (r *userRepo) WithTx(tx DBTX) UserRepository {
	bound := *r
	bound.db = tx
	return &bound
}

func (r *userRepo) GetSimpleItemsByIDs(ctx context.Context, ids []int64) ([]model.UserSimple, error) {
	return getSimpleItemsByIDs(ctx, r.SqlRepository, ids)
}

// scanUser сканирует строку результата в модель User.
func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.LoginID, &user.PasswordHash, &user.Token, &user.Name,
		&user.UseFlag, &user.Authorities,
		&user.ChangePasswordAt, &user.LatestActiveAt, &user.JoinedAt, &user.AdditionalInfo,
		&user.CreatedAt, &user.CreatedObjectType, &user.CreatedObjectID,
		&user.UpdatedAt, &user.UpdatedObjectType, &user.UpdatedObjectID,
		&user.RemovedFlag, &user.RemovedAt,
	)
	return user, err
}

// userToMap сериализует пользователя в map для sqlcommand.
func userToMap(user *model.User) map[string]any {
	return map[string]any{
		"id":                user.ID,
		"loginId":           user.LoginID,
		"password":          user.PasswordHash,
		"token":             user.Token,
		"name":              user.Name,
		"useFlag":           user.UseFlag,
		"authorities":       user.Authorities,
		"changePasswordAt":  user.ChangePasswordAt,
		"latestActiveAt":    user.LatestActiveAt,
		"joinedAt":          user.JoinedAt,
		"additionalInfo":    user.AdditionalInfo,
		"createdAt":         user.CreatedAt,
		"createdObjectType": user.CreatedObjectType,
		"createdObjectId":   user.CreatedObjectID,
		"updatedAt":         user.UpdatedAt,
		"updatedObjectType": user.UpdatedObjectType,
		"updatedObjectId":   user.UpdatedObjectID,
		"removedFlag":       user.RemovedFlag,
		"removedAt":         user.RemovedAt,
	}
}

func setUserID(user *model.User, id int64) { user.ID = &id }
