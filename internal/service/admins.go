// admins.go — сервис управления администраторами: CRUD c мягким
// удалением, вход по логину/паролю, обновление и отзыв токенов.
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

// AdminListParams — фильтры и пагинация списка администраторов.
type AdminListParams struct {
	Page     int
	PageSize int
	// LoginID — подстрока логина.
	LoginID string
	// Name — подстрока имени.
	Name string
	// UseFlag — фильтр по признаку активности; nil — без фильтра.
	UseFlag *bool
}

// CreateAdminParams — данные создания администратора.
type CreateAdminParams struct {
	LoginID     string
	Password    string
	Name        string
	UseFlag     bool
	ManagerFlag bool
	Authorities []model.Authority
}

// UpdateAdminParams — данные обновления администратора.
// Password != nil означает смену пароля.
type UpdateAdminParams struct {
	LoginID     string
	Password    *string
	Name        string
	UseFlag     bool
	ManagerFlag bool
	Authorities []model.Authority
}

// AdminService — бизнес-логика администраторов.
type AdminService struct {
	admins     repository.AdminRepository
	tx         TxRunner
	tokens     *TokenProvider
	operators  *OperatorHelper
	renewGrace time.Duration
	logger     *slog.Logger

	// now подменяется в тестах.
	now func() time.Time
}

// NewAdminService создаёт сервис администраторов.
func NewAdminService(
	admins repository.AdminRepository,
	tx TxRunner,
	tokens *TokenProvider,
	operators *OperatorHelper,
	renewGrace time.Duration,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		admins:     admins,
		tx:         tx,
		tokens:     tokens,
		operators:  operators,
		renewGrace: renewGrace,
		logger:     logger.With(slog.String("component", "admin_service")),
		now:        time.Now,
	}
}

// GetAdminList возвращает страницу действующих администраторов.
// Подсчёт и выборка идут параллельно; авторы audit-записей
// резолвятся батчем после выборки.
func (s *AdminService) GetAdminList(ctx context.Context, params AdminListParams) (*ListResult[model.Admin], error) {
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
	var items []*model.Admin
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.admins.CountByMap(gctx, where)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.admins.GetItemsByMapOrderByLimitOffset(gctx, where, []string{"-id"}, limit, offset)
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
	return &ListResult[model.Admin]{
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    total,
		Items:    items,
	}, nil
}

// GetAdmin возвращает действующего администратора по id.
func (s *AdminService) GetAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	admin, err := s.getActiveAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := FulfillOperators(ctx, s.operators, []*model.Admin{admin}); err != nil {
		return nil, err
	}
	return admin, nil
}

// CreateAdmin создаёт администратора.
// Логин проверяется на уникальность среди действующих учётных записей;
// проверка и вставка выполняются в одной транзакции.
func (s *AdminService) CreateAdmin(ctx context.Context, operator *model.Operator, params CreateAdminParams) (*model.Admin, error) {
	passwordHash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	var admin *model.Admin
	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := s.admins.WithTx(tx)

		_, err := repo.GetItemByMap(ctx, map[string]any{"loginId": params.LoginID, "removedFlag": false})
		if err == nil {
			return ErrAlreadyJoinedAccount
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		admin = model.NewAdmin(
			params.LoginID, passwordHash, params.Name,
			params.UseFlag, params.ManagerFlag, params.Authorities,
			operator, s.now(),
		)
		return repo.Insert(ctx, admin)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyJoinedAccount
		}
		return nil, err
	}

	s.logger.Info("администратор создан",
		slog.Int64("id", *admin.ID), slog.String("login_id", admin.LoginID))
	return admin, nil
}

// UpdateAdmin обновляет администратора.
// Снятие managerFlag с собственной учётной записи запрещено.
// Проверка занятости логина и загрузка сущности идут параллельно;
// при одновременной ошибке приоритет у конфликта логина.
func (s *AdminService) UpdateAdmin(ctx context.Context, operator *model.Operator, id int64, params UpdateAdminParams) (*model.Admin, error) {
	if operator.Type == model.UserTypeAdmin && operator.ID == id && !params.ManagerFlag && operator.ManagerFlag {
		return nil, ErrCannotUpdateYourself
	}

	var admin *model.Admin
	var duplicated bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.admins.GetItemByMap(gctx, map[string]any{
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
		admin, err = s.getActiveAdmin(gctx, id)
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

	admin.Update(
		params.LoginID, passwordHash, params.Name,
		params.UseFlag, params.ManagerFlag, params.Authorities,
		operator, s.now(),
	)
	if err := s.admins.UpdateByID(ctx, id, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// DeleteAdmin помечает администратора удалённым.
// Удалить собственную учётную запись нельзя.
func (s *AdminService) DeleteAdmin(ctx context.Context, operator *model.Operator, id int64) error {
	if operator.Type == model.UserTypeAdmin && operator.ID == id {
		return ErrCannotRemoveYourself
	}

	admin, err := s.getActiveAdmin(ctx, id)
	if err != nil {
		return err
	}
	admin.Remove(operator, s.now())
	if err := s.admins.UpdateByID(ctx, id, admin); err != nil {
		return err
	}

	s.logger.Info("администратор удалён",
		slog.Int64("id", id), slog.String("login_id", admin.LoginID))
	return nil
}

// ChangeAdminPassword меняет пароль администратора.
// Требуется текущий пароль; новый не должен совпадать с текущим.
func (s *AdminService) ChangeAdminPassword(ctx context.Context, operator *model.Operator, id int64, oldPassword, newPassword string) error {
	admin, err := s.getActiveAdmin(ctx, id)
	if err != nil {
		return err
	}
	if admin.PasswordHash == nil || !VerifyPassword(oldPassword, *admin.PasswordHash) {
		return ErrInvalidPassword
	}
	if VerifyPassword(newPassword, *admin.PasswordHash) {
		return ErrChangeToSamePassword
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	admin.ChangePassword(passwordHash, operator, s.now())
	return s.admins.UpdateByID(ctx, id, admin)
}

// LoginAdmin аутентифицирует администратора по логину и паролю
// и выпускает пару токенов. Refresh-токен сохраняется в учётной
// записи, вытесняя предыдущий.
func (s *AdminService) LoginAdmin(ctx context.Context, loginID, password string) (*TokenPair, error) {
	admin, err := s.admins.GetItemByMap(ctx, map[string]any{"loginId": loginID, "removedFlag": false})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnjoinedAccount
		}
		return nil, err
	}
	if !admin.UseFlag {
		return nil, ErrUnknownAdmin
	}
	if admin.PasswordHash == nil || !VerifyPassword(password, *admin.PasswordHash) {
		return nil, ErrInvalidPassword
	}

	operator := model.OperatorOfAdmin(admin)
	accessToken, err := s.tokens.CreateAccessToken(operator)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.CreateRefreshToken(operator.ID, model.UserTypeAdmin)
	if err != nil {
		return nil, err
	}

	now := s.now()
	admin.RenewToken(refreshToken, now)
	if err := s.admins.UpdateMapByMap(ctx,
		map[string]any{"token": refreshToken, "latestActiveAt": now},
		map[string]any{"id": *admin.ID},
	); err != nil {
		return nil, err
	}

	s.logger.Info("вход администратора", slog.String("login_id", loginID))
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RenewAdminToken обновляет пару токенов по refresh-токену.
// Совпадение с сохранённым токеном ротирует его; токен, уже
// вытесненный конкурентным обновлением, принимается в течение
// grace-окна — возвращается сохранённый. Иначе — ErrUnauthorized.
func (s *AdminService) RenewAdminToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	id, userType, err := s.tokens.ParseSubject(refreshToken)
	if err != nil || userType != model.UserTypeAdmin {
		return nil, ErrUnauthorized
	}

	admin, err := s.getActiveAdmin(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUnknownAdmin) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !admin.UseFlag || admin.Token == nil {
		return nil, ErrUnauthorized
	}

	operator := model.OperatorOfAdmin(admin)
	accessToken, err := s.tokens.CreateAccessToken(operator)
	if err != nil {
		return nil, err
	}

	switch {
	case *admin.Token == refreshToken:
		newRefresh, err := s.tokens.CreateRefreshToken(id, model.UserTypeAdmin)
		if err != nil {
			return nil, err
		}
		now := s.now()
		admin.RenewToken(newRefresh, now)
		if err := s.admins.UpdateMapByMap(ctx,
			map[string]any{"token": newRefresh, "latestActiveAt": now},
			map[string]any{"id": id},
		); err != nil {
			return nil, err
		}
		return &TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil

	case s.tokens.IssuedWithin(*admin.Token, s.renewGrace):
		// Конкурентное обновление: предъявленный токен уже вытеснен,
		// но замена свежая — отдаём её повторно.
		return &TokenPair{AccessToken: accessToken, RefreshToken: *admin.Token}, nil

	default:
		return nil, ErrUnauthorized
	}
}

// LogoutAdmin сбрасывает сохранённый refresh-токен оператора.
// Ошибка сброса не прерывает выход — только логируется.
func (s *AdminService) LogoutAdmin(ctx context.Context, operator *model.Operator) {
	err := s.admins.UpdateMapByMap(ctx,
		map[string]any{"token": nil},
		map[string]any{"id": operator.ID},
	)
	if err != nil {
		s.logger.Warn("ошибка сброса токена при выходе",
			slog.Int64("id", operator.ID), slog.String("error", err.Error()))
		return
	}
	s.logger.Info("выход администратора", slog.String("login_id", operator.LoginID))
}

// CheckAdminLoginID сообщает, занят ли логин действующей учётной записью.
func (s *AdminService) CheckAdminLoginID(ctx context.Context, loginID string) (bool, error) {
	count, err := s.admins.CountByMap(ctx, map[string]any{"loginId": loginID, "removedFlag": false})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// getActiveAdmin возвращает действующего администратора либо ErrUnknownAdmin.
func (s *AdminService) getActiveAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	admin, err := s.admins.GetItemByMap(ctx, map[string]any{"id": id, "removedFlag": false})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownAdmin
		}
		return nil, err
	}
	return admin, nil
}
