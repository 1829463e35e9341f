// users.go — сервис управления пользователями: CRUD c мягким удалением,
// вход, обновление и отзыв токенов. Зеркален сервису администраторов,
// но без managerFlag и с произвольными дополнительными атрибутами.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/repository"
)

// UserListParams — фильтры и пагинация списка пользователей.
type UserListParams struct {
	Page     int
	PageSize int
	LoginID  string
	Name     string
	UseFlag  *bool
}

// CreateUserParams — данные создания пользователя.
type CreateUserParams struct {
	LoginID        string
	Password       string
	Name           string
	UseFlag        bool
	Authorities    []model.Authority
	AdditionalInfo map[string]any
}

// UpdateUserParams — данные обновления пользователя.
// Password != nil означает смену пароля.
type UpdateUserParams struct {
	LoginID        string
	Password       *string
	Name           string
	UseFlag        bool
	Authorities    []model.Authority
	AdditionalInfo map[string]any
}

// UserService — бизнес-логика пользователей.
type UserService struct {
	users      repository.UserRepository
	tx         TxRunner
	tokens     *TokenProvider
	operators  *OperatorHelper
	renewGrace time.Duration
	logger     *slog.Logger

	now func() time.Time
}

// NewUserService создаёт сервис пользователей.
func NewUserService(
	users repository.UserRepository,
	tx TxRunner,
	tokens *TokenProvider,
	operators *OperatorHelper,
	renewGrace time.Duration,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:      users,
		tx:         tx,
		tokens:     tokens,
		operators:  operators,
		renewGrace: renewGrace,
		logger:     logger.With(slog.String("component", "user_service")),
		now:        time.Now,
	}
}

// GetUserList возвращает страницу действующих пользователей.
func (s *UserService) GetUserList(ctx context.Context, params UserListParams) (*ListResult[model.User], error) {
	where := map[string]any{"removedFlag": false}
	if params.LoginID != "" {
		where["loginId:contains"] = params.LoginID
	}
	if params.Name != "" {
		where["name:contains"] = params.Name
	}
	if params.UseFlag != nil {
		where["useFlag"] = *params.UseFlag
	}
	limit, offset := pageBounds(params.Page, params.PageSize)

	var total int64
	var items []*model.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.users.CountByMap(gctx, where)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.users.GetItemsByMapOrderByLimitOffset(gctx, where, []string{"-id"}, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if total == 0 {
		items = nil
	}

	if err := FulfillOperators(ctx, s.operators, items); err != nil {
		return nil, err
	}
	return &ListResult[model.User]{
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    total,
		Items:    items,
	}, nil
}

// GetUser возвращает действующего пользователя по id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.getActiveUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := FulfillOperators(ctx, s.operators, []*model.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser создаёт пользователя.
// Логин проверяется на уникальность среди действующих учётных записей;
// проверка и вставка выполняются в одной транзакции.
func (s *UserService) CreateUser(ctx context.Context, operator *model.Operator, params CreateUserParams) (*model.User, error) {
	passwordHash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := s.users.WithTx(tx)

		_, err := repo.GetItemByMap(ctx, map[string]any{"loginId": params.LoginID, "removedFlag": false})
		if err == nil {
			return ErrAlreadyJoinedAccount
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		user = model.NewUser(
			params.LoginID, passwordHash, params.Name,
			params.UseFlag, params.Authorities,
			operator, s.now(),
		)
		if params.AdditionalInfo != nil {
			user.AdditionalInfo = params.AdditionalInfo
		}
		return repo.Insert(ctx, user)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyJoinedAccount
		}
		return nil, err
	}

	s.logger.Info("пользователь создан",
		slog.Int64("id", *user.ID), slog.String("login_id", user.LoginID))
	return user, nil
}

// UpdateUser обновляет пользователя.
// Проверка занятости логина и загрузка сущности идут параллельно;
// при одновременной ошибке приоритет у конфликта логина.
func (s *UserService) UpdateUser(ctx context.Context, operator *model.Operator, id int64, params UpdateUserParams) (*model.User, error) {
	var user *model.User
	var duplicated bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.users.GetItemByMap(gctx, map[string]any{
			"loginId": params.LoginID, "removedFlag": false, "id:ne": id,
		})
		if err == nil {
			duplicated = true
			return ErrAlreadyJoinedAccount
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.getActiveUser(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		if duplicated {
			return nil, ErrAlreadyJoinedAccount
		}
		return nil, err
	}

	var passwordHash *string
	if params.Password != nil {
		hash, err := HashPassword(*params.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = &hash
	}

	user.Update(
		params.LoginID, passwordHash, params.Name,
		params.UseFlag, params.Authorities,
		operator, s.now(),
	)
	if params.AdditionalInfo != nil {
		user.AdditionalInfo = params.AdditionalInfo
	}
	if err := s.users.UpdateByID(ctx, id, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser помечает пользователя удалённым.
// Пользователь не может удалить собственную учётную запись.
func (s *UserService) DeleteUser(ctx context.Context, operator *model.Operator, id int64) error {
	if operator.Type == model.UserTypeUser && operator.ID == id {
		return ErrCannotRemoveYourself
	}

	user, err := s.getActiveUser(ctx, id)
	if err != nil {
		return err
	}
	user.Remove(operator, s.now())
	if err := s.users.UpdateByID(ctx, id, user); err != nil {
		return err
	}

	s.logger.Info("пользователь удалён",
		slog.Int64("id", id), slog.String("login_id", user.LoginID))
	return nil
}

// ChangeUserPassword меняет пароль пользователя.
// Пользователь может менять только собственный пароль;
// требуется текущий пароль, новый не должен совпадать с текущим.
func (s *UserService) ChangeUserPassword(ctx context.Context, operator *model.Operator, id int64, oldPassword, newPassword string) error {
	if operator.Type == model.UserTypeUser && operator.ID != id {
		return ErrCannotChangeOthersPassword
	}

	user, err := s.getActiveUser(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil || !VerifyPassword(oldPassword, *user.PasswordHash) {
		return ErrInvalidPassword
	}
	if VerifyPassword(newPassword, *user.PasswordHash) {
		return ErrChangeToSamePassword
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.ChangePassword(passwordHash, operator, s.now())
	return s.users.UpdateByID(ctx, id, user)
}

// LoginUser аутентифицирует пользователя и выпускает пару токенов.
func (s *UserService) LoginUser(ctx context.Context, loginID, password string) (*TokenPair, error) {
	user, err := s.users.GetItemByMap(ctx, map[string]any{"loginId": loginID, "removedFlag": false})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnjoinedAccount
		}
		return nil, err
	}
	if !user.UseFlag {
		return nil, ErrUnknownUser
	}
	if user.PasswordHash == nil || !VerifyPassword(password, *user.PasswordHash) {
		return nil, ErrInvalidPassword
	}

	operator := model.OperatorOfUser(user)
	accessToken, err := s.tokens.CreateAccessToken(operator)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.CreateRefreshToken(operator.ID, model.UserTypeUser)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user.RenewToken(refreshToken, now)
	if err := s.users.UpdateMapByMap(ctx,
		map[string]any{"token": refreshToken, "latestActiveAt": now},
		map[string]any{"id": *user.ID},
	); err != nil {
		return nil, err
	}

	s.logger.Info("вход пользователя", slog.String("login_id", loginID))
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RenewUserToken обновляет пару токенов по refresh-токену.
// Семантика идентична обновлению токена администратора.
func (s *UserService) RenewUserToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	id, userType, err := s.tokens.ParseSubject(refreshToken)
	if err != nil || userType != model.UserTypeUser {
		return nil, ErrUnauthorized
	}

	user, err := s.getActiveUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.UseFlag || user.Token == nil {
		return nil, ErrUnauthorized
	}

	operator := model.OperatorOfUser(user)
	accessToken, err := s.tokens.CreateAccessToken(operator)
	if err != nil {
		return nil, err
	}

	switch {
	case *user.Token == refreshToken:
		newRefresh, err := s.tokens.CreateRefreshToken(id, model.UserTypeUser)
		if err != nil {
			return nil, err
		}
		now := s.now()
		user.RenewToken(newRefresh, now)
		if err := s.users.UpdateMapByMap(ctx,
			map[string]any{"token": newRefresh, "latestActiveAt": now},
			map[string]any{"id": id},
		); err != nil {
			return nil, err
		}
		return &TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil

	case s.tokens.IssuedWithin(*user.Token, s.renewGrace):
		return &TokenPair{AccessToken: accessToken, RefreshToken: *user.Token}, nil

	default:
		return nil, ErrUnauthorized
	}
}

// LogoutUser сбрасывает сохранённый refresh-токен оператора.
// Ошибка сброса не прерывает выход — только логируется.
func (s *UserService) LogoutUser(ctx context.Context, operator *model.Operator) {
	err := s.users.UpdateMapByMap(ctx,
		map[string]any{"token": nil},
		map[string]any{"id": operator.ID},
	)
	if err != nil {
		s.logger.Warn("ошибка сброса токена при выходе",
			slog.Int64("id", operator.ID), slog.String("error", err.Error()))
		return
	}
	s.logger.Info("выход пользователя", slog.String("login_id", operator.LoginID))
}

// CheckUserLoginID сообщает, занят ли логин действующей учётной записью.
func (s *UserService) CheckUserLoginID(ctx context.Context, loginID string) (bool, error) {
	count, err := s.users.CountByMap(ctx, map[string]any{"loginId": loginID, "removedFlag": false})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// getActiveUser возвращает действующего пользователя либо ErrUnknownUser.
func (s *UserService) getActiveUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetItemByMap(ctx, map[string]any{"id": id, "removedFlag": false})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	return user, nil
}
