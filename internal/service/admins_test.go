package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/repository"
)

// mockAdminRepo — мок AdminRepository: поведение задаётся функциями-полями,
// незаданные методы возвращают ErrNotFound / nil.
type mockAdminRepo struct {
	countByMap     func(where map[string]any) (int64, error)
	getItems       func(where map[string]any) ([]*model.Admin, error)
	getItemByMap   func(where map[string]any) (*model.Admin, error)
	insert         func(admin *model.Admin) error
	updateByID     func(id int64, admin *model.Admin) error
	updateMapByMap func(updateMap, where map[string]any) error
}

func (m *mockAdminRepo) WithTx(tx repository.DBTX) repository.AdminRepository { return m }

func (m *mockAdminRepo) CountByMap(_ context.Context, where map[string]any) (int64, error) {
	if m.countByMap == nil {
		return 0, nil
	}
	return m.countByMap(where)
}

func (m *mockAdminRepo) GetItemsByMapOrderByLimitOffset(_ context.Context, where map[string]any, _ []string, _, _ *int) ([]*model.Admin, error) {
	if m.getItems == nil {
		return nil, nil
	}
	return m.getItems(where)
}

func (m *mockAdminRepo) GetItemByMap(_ context.Context, where map[string]any) (*model.Admin, error) {
	if m.getItemByMap == nil {
		return nil, repository.ErrNotFound
	}
	return m.getItemByMap(where)
}

func (m *mockAdminRepo) GetItemByID(_ context.Context, id int64) (*model.Admin, error) {
	return m.GetItemByMap(context.Background(), map[string]any{"id": id})
}

func (m *mockAdminRepo) GetSimpleItemsByIDs(_ context.Context, _ []int64) ([]model.UserSimple, error) {
	return nil, nil
}

func (m *mockAdminRepo) Insert(_ context.Context, admin *model.Admin) error {
	if m.insert == nil {
		id := int64(1)
		admin.ID = &id
		return nil
	}
	return m.insert(admin)
}

func (m *mockAdminRepo) UpdateByID(_ context.Context, id int64, admin *model.Admin) error {
	if m.updateByID == nil {
		return nil
	}
	return m.updateByID(id, admin)
}

func (m *mockAdminRepo) UpdateMapByMap(_ context.Context, updateMap, where map[string]any) error {
	if m.updateMapByMap == nil {
		return nil
	}
	return m.updateMapByMap(updateMap, where)
}

// txStub выполняет функцию без реальной транзакции.
type txStub struct{}

func (txStub) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error { return fn(nil) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAdminService(repo *mockAdminRepo, at time.Time) *AdminService {
	logger := testLogger()
	operators := NewOperatorHelper(repo, &mockUserRepo{}, logger)
	s := NewAdminService(repo, txStub{}, NewTokenProvider("test-secret", 5*time.Minute, 720*time.Hour), operators, 3*time.Second, logger)
	s.now = func() time.Time { return at }
	s.tokens.now = s.now
	return s
}

func activeAdmin(id int64, loginID, password string) *model.Admin {
	hash, _ := HashPassword(password)
	admin := &model.Admin{
		LoginID:      loginID,
		PasswordHash: &hash,
		Name:         "Тест",
		UseFlag:      true,
		ManagerFlag:  false,
		Authorities:  []model.Authority{model.AuthorityAdminView},
	}
	admin.ID = &id
	return admin
}

func adminOperator(id int64) *model.Operator {
	return &model.Operator{ID: id, LoginID: "boss", Name: "Босс", Type: model.UserTypeAdmin, ManagerFlag: true}
}

func TestLoginAdmin_UnknownLogin(t *testing.T) {
	s := newTestAdminService(&mockAdminRepo{}, time.Now())

	_, err := s.LoginAdmin(context.Background(), "ghost", "pass")
	if !errors.Is(err, ErrUnjoinedAccount) {
		t.Errorf("ожидается ErrUnjoinedAccount, получили %v", err)
	}
}

func TestLoginAdmin_Disabled(t *testing.T) {
	admin := activeAdmin(1, "admin01", "secret123")
	admin.UseFlag = false
	s := newTestAdminService(&mockAdminRepo{
		getItemByMap: func(map[string]any) (*model.Admin, error) { return admin, nil },
	}, time.Now())

	_, err := s.LoginAdmin(context.Background(), "admin01", "secret123")
	if !errors.Is(err, ErrUnknownAdmin) {
		t.Errorf("ожидается ErrUnknownAdmin, получили %v", err)
	}
}

func TestLoginAdmin_WrongPassword(t *testing.T) {
	admin := activeAdmin(1, "admin01", "secret123")
	var persisted bool
	s := newTestAdminService(&mockAdminRepo{
		getItemByMap:   func(map[string]any) (*model.Admin, error) { return admin, nil },
		updateMapByMap: func(_, _ map[string]any) error { persisted = true; return nil },
	}, time.Now())

	_, err := s.LoginAdmin(context.Background(), "admin01", "wrong")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("ожидается ErrInvalidPassword, получили %v", err)
	}
	if persisted {
		t.Error("при неверном пароле токен не должен сохраняться")
	}
}

func TestLoginAdmin_Success(t *testing.T) {
	admin := activeAdmin(1, "admin01", "secret123")
	var savedToken string
	s := newTestAdminService(&mockAdminRepo{
		getItemByMap: func(map[string]any) (*model.Admin, error) { return admin, nil },
		updateMapByMap: func(updateMap, where map[string]any) error {
			savedToken, _ = updateMap["token"].(string)
			if where["id"] != int64(1) {
				t.Errorf("where id = %v, ожидается 1", where["id"])
			}
			return nil
		},
	}, time.Now())

	pair, err := s.LoginAdmin(context.Background(), "admin01", "secret123")
	if err != nil {
		t.Fatalf("LoginAdmin() ошибка: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("пара токенов не выпущена")
	}
	if savedToken != pair.RefreshToken {
		t.Error("refresh-токен не сохранён в учётной записи")
	}

	// Access-токен несёт профиль оператора.
	operator, err := s.tokens.ParseOperator(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseOperator() ошибка: %v", err)
	}
	if operator.ID != 1 || operator.LoginID != "admin01" || operator.Type != model.UserTypeAdmin {
		t.Errorf("оператор из токена = %+v", operator)
	}
}

func TestRenewAdminToken_Rotation(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	admin := activeAdmin(1, "admin01", "secret123")

	var savedToken string
	repo := &mockAdminRepo{
		getItemByMap: func(map[string]any) (*model.Admin, error) { return admin, nil },
		updateMapByMap: func(updateMap, _ map[string]any) error {
			savedToken, _ = updateMap["token"].(string)
			return nil
		},
	}
	s := newTestAdminService(repo, issued)

	stored, err := s.tokens.CreateRefreshToken(1, model.UserTypeAdmin)
	if err != nil {
		t.Fatalf("CreateRefreshToken() ошибка: %v", err)
	}
	admin.Token = &stored

	// Предъявлен сохранённый токен: ротация и сохранение нового.
	s.now = func() time.Time { return issued.Add(time.Minute) }
	s.tokens.now = s.now
	pair, err := s.RenewAdminToken(context.Background(), stored)
	if err != nil {
		t.Fatalf("RenewAdminToken() ошибка: %v", err)
	}
	if pair.RefreshToken == stored {
		t.Error("refresh-токен не ротирован")
	}
	if savedToken != pair.RefreshToken {
		t.Error("новый refresh-токен не сохранён")
	}
}

func TestRenewAdminToken_GraceWindow(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	admin := activeAdmin(1, "admin01", "secret123")
	repo := &mockAdminRepo{
		getItemByMap: func(map[string]any) (*model.Admin, error) { return admin, nil },
	}
	s := newTestAdminService(repo, issued)

	displaced, err := s.tokens.CreateRefreshToken(1, model.UserTypeAdmin)
	if err != nil {
		t.Fatalf("CreateRefreshToken() ошибка: %v", err)
	}

	// Конкурентное обновление уже вытеснило предъявляемый токен.
	s.now = func() time.Time { return issued.Add(time.Second) }
	s.tokens.now = s.now
	stored, err := s.tokens.CreateRefreshToken(1, model.UserTypeAdmin)
	if err != nil {
		t.Fatalf("CreateRefreshToken() ошибка: %v", err)
	}
	admin.Token = &stored

	// Замена свежая (1с < 3с) — возвращается сохранённый токен.
	s.now = func() time.Time { return issued.Add(2 * time.Second) }
	s.tokens.now = s.now
	pair, err := s.RenewAdminToken(context.Background(), displaced)
	if err != nil {
		t.Fatalf("RenewAdminToken() в grace-окне ошибка: %v", err)
	}
	if pair.RefreshToken != stored {
		t.Error("в grace-окне должен возвращаться сохранённый токен")
	}

	// Спустя grace-окно вытесненный токен отклоняется.
	s.now = func() time.Time { return issued.Add(10 * time.Second) }
	s.tokens.now = s.now
	if _, err := s.RenewAdminToken(context.Background(), displaced); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("вне grace-окна: ожидается ErrUnauthorized, получили %v", err)
	}
}

func TestRenewAdminToken_WrongSubjectType(t *testing.T) {
	s := newTestAdminService(&mockAdminRepo{}, time.Now())

	// Refresh-токен пользователя не принимается сервисом администраторов.
	userToken, err := s.tokens.CreateRefreshToken(1, model.UserTypeUser)
	if err != nil {
		t.Fatalf("CreateRefreshToken() ошибка: %v", err)
	}
	if _, err := s.RenewAdminToken(context.Background(), userToken); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ожидается ErrUnauthorized, получили %v", err)
	}
}

func TestRenewAdminToken_NoStoredToken(t *testing.T) {
	admin := activeAdmin(1, "admin01", "secret123")
	s := newTestAdminService(&mockAdminRepo{
		getItemByMap: func(map[string]any) (*model.Admin, error) { return admin, nil },
	}, time.Now())

	token, err := s.tokens.CreateRefreshToken(1, model.UserTypeAdmin)
	if err != nil {
		t.Fatalf("CreateRefreshToken() ошибка: %v", err)
	}
	// После logout сохранённого токена нет.
	if _, err := s.RenewAdminToken(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ожидается ErrUnauthorized, получили %v", err)
	}
}

func TestCreateAdmin_DuplicateLogin(t *testing.T) {
	existing := activeAdmin(1, "admin01", "secret123")
	s := newTestAdminService(&mockAdminRepo{
		getItemByMap: func(map[string]any) (*model.Admin, error) { return existing, nil },
	}, time.Now())

	_, err := s.CreateAdmin(context.Background(), adminOperator(9), CreateAdminParams{
		LoginID: "admin01", Password: "secret123", Name: "Дубль",
	})
	if !errors.Is(err, ErrAlreadyJoinedAccount) {
		t.Errorf("ожидается ErrAlreadyJoinedAccount, получили %v", err)
	}
}

func TestCreateAdmin_Success(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	var inserted *model.Admin
	s := newTestAdminService(&mockAdminRepo{
		insert: func(admin *model.Admin) error {
			id := int64(5)
			admin.ID = &id
			inserted = admin
			return nil
		},
	}, now)

	operator := adminOperator(9)
	admin, err := s.CreateAdmin(context.Background(), operator, CreateAdminParams{
		LoginID: "new01", Password: "secret123", Name: "Новый",
		UseFlag: true, Authorities: []model.Authority{model.AuthorityUserView},
	})
	if err != nil {
		t.Fatalf("CreateAdmin() ошибка: %v", err)
	}
	if inserted == nil || *admin.ID != 5 {
		t.Fatal("администратор не вставлен")
	}
	if admin.PasswordHash == nil || !VerifyPassword("secret123", *admin.PasswordHash) {
		t.Error("пароль не захэширован bcrypt")
	}
	if admin.CreatedObjectType != model.UserTypeAdmin || admin.CreatedObjectID != 9 {
		t.Errorf("audit-штамп создания = %s/%d", admin.CreatedObjectType, admin.CreatedObjectID)
	}
	if !admin.CreatedAt.Equal(now) || !admin.UpdatedAt.Equal(now) {
		t.Error("временные штампы не совпадают с часами сервиса")
	}
	if admin.JoinedAt == nil || !admin.JoinedAt.Equal(now) {
		t.Error("JoinedAt не установлен")
	}
}

func TestUpdateAdmin_SelfDemote(t *testing.T) {
	s := newTestAdminService(&mockAdminRepo{}, time.Now())

	operator := adminOperator(3)
	_, err := s.UpdateAdmin(context.Background(), operator, 3, UpdateAdminParams{
		LoginID: "boss", Name: "Босс", UseFlag: true, ManagerFlag: false,
	})
	if !errors.Is(err, ErrCannotUpdateYourself) {
		t.Errorf("снятие managerFlag с себя: ожидается ErrCannotUpdateYourself, получили %v", err)
	}
}

func TestUpdateAdmin_DuplicateLoginWins(t *testing.T) {
	other := activeAdmin(2, "taken", "secret123")
	target := activeAdmin(1, "admin01", "secret123")
	s := newTestAdminService(&mockAdminRepo{
		getItemByMap: func(where map[string]any) (*model.Admin, error) {
			if _, byLogin := where["loginId"]; byLogin {
				return other, nil // логин занят другой записью
			}
			return target, nil
		},
	}, time.Now())

	_, err := s.UpdateAdmin(context.Background(), adminOperator(9), 1, UpdateAdminParams{
		LoginID: "taken", Name: "Тест", UseFlag: true, ManagerFlag: true,
	})
	if !errors.Is(err, ErrAlreadyJoinedAccount) {
		t.Errorf("ожидается ErrAlreadyJoinedAccount, получили %v", err)
	}
}

func TestUpdateAdmin_Success(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	target := activeAdmin(1, "admin01", "secret123")
	oldHash := *target.PasswordHash

	var saved *model.Admin
	s := newTestAdminService(&mockAdminRepo{
		getItemByMap: func(where map[string]any) (*model.Admin, error) {
			if _, byLogin := where["loginId"]; byLogin {
				return nil, repository.ErrNotFound
			}
			return target, nil
		},
		updateByID: func(_ int64, admin *model.Admin) error { saved = admin; return nil },
	}, now)

	admin, err := s.UpdateAdmin(context.Background(), adminOperator(9), 1, UpdateAdminParams{
		LoginID: "renamed", Name: "Переименован", UseFlag: false, ManagerFlag: true,
	})
	if err != nil {
		t.Fatalf("UpdateAdmin() ошибка: %v", err)
	}
	if saved == nil {
		t.Fatal("UpdateByID не вызван")
	}
	if admin.LoginID != "renamed" || admin.Name != "Переименован" || admin.UseFlag || !admin.ManagerFlag {
		t.Errorf("данные не обновлены: %+v", admin)
	}
	if *admin.PasswordHash != oldHash {
		t.Error("пароль без params.Password меняться не должен")
	}
	if admin.UpdatedObjectID != 9 || !admin.UpdatedAt.Equal(now) {
		t.Error("audit-штамп изменения не проставлен")
	}
}

func TestDeleteAdmin_Self(t *testing.T) {
	s := newTestAdminService(&mockAdminRepo{}, time.Now())

	if err := s.DeleteAdmin(context.Background(), adminOperator(3), 3); !errors.Is(err, ErrCannotRemoveYourself) {
		t.Errorf("удаление себя: ожидается ErrCannotRemoveYourself, получили %v", err)
	}
}

func TestDeleteAdmin_SoftDelete(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	target := activeAdmin(1, "admin01", "secret123")
	var saved *model.Admin
	s := newTestAdminService(&mockAdminRepo{
		getItemByMap: func(map[string]any) (*model.Admin, error) { return target, nil },
		updateByID:   func(_ int64, admin *model.Admin) error { saved = admin; return nil },
	}, now)

	if err := s.DeleteAdmin(context.Background(), adminOperator(9), 1); err != nil {
		t.Fatalf("DeleteAdmin() ошибка: %v", err)
	}
	if saved == nil || !saved.RemovedFlag {
		t.Fatal("запись не помечена удалённой")
	}
	if saved.RemovedAt == nil || !saved.RemovedAt.Equal(now) {
		t.Error("RemovedAt не установлен")
	}
}

func TestChangeAdminPassword(t *testing.T) {
	target := activeAdmin(1, "admin01", "old-secret")
	var saved *model.Admin
	s := newTestAdminService(&mockAdminRepo{
		getItemByMap: func(map[string]any) (*model.Admin, error) { return target, nil },
		updateByID:   func(_ int64, admin *model.Admin) error { saved = admin; return nil },
	}, time.Now())
	operator := adminOperator(1)

	// Неверный текущий пароль.
	err := s.ChangeAdminPassword(context.Background(), operator, 1, "wrong", "new-secret")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("ожидается ErrInvalidPassword, получили %v", err)
	}

	// Новый пароль совпадает с текущим.
	err = s.ChangeAdminPassword(context.Background(), operator, 1, "old-secret", "old-secret")
	if !errors.Is(err, ErrChangeToSamePassword) {
		t.Errorf("ожидается ErrChangeToSamePassword, получили %v", err)
	}

	// Успешная смена.
	if err := s.ChangeAdminPassword(context.Background(), operator, 1, "old-secret", "new-secret"); err != nil {
		t.Fatalf("ChangeAdminPassword() ошибка: %v", err)
	}
	if saved == nil || saved.PasswordHash == nil || !VerifyPassword("new-secret", *saved.PasswordHash) {
		t.Error("новый пароль не сохранён")
	}
	if saved.ChangePasswordAt == nil {
		t.Error("ChangePasswordAt не установлен")
	}
}

func TestCheckAdminLoginID(t *testing.T) {
	s := newTestAdminService(&mockAdminRepo{
		countByMap: func(where map[string]any) (int64, error) {
			if where["loginId"] == "taken" {
				return 1, nil
			}
			return 0, nil
		},
	}, time.Now())

	joined, err := s.CheckAdminLoginID(context.Background(), "taken")
	if err != nil || !joined {
		t.Errorf("занятый логин: joined = %v, err = %v", joined, err)
	}
	joined, err = s.CheckAdminLoginID(context.Background(), "free")
	if err != nil || joined {
		t.Errorf("свободный логин: joined = %v, err = %v", joined, err)
	}
}

func TestGetAdminList_Empty(t *testing.T) {
	s := newTestAdminService(&mockAdminRepo{
		countByMap: func(map[string]any) (int64, error) { return 0, nil },
		getItems: func(map[string]any) ([]*model.Admin, error) {
			return []*model.Admin{activeAdmin(1, "ghost", "x")}, nil
		},
	}, time.Now())

	result, err := s.GetAdminList(context.Background(), AdminListParams{Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("GetAdminList() ошибка: %v", err)
	}
	if result.Total != 0 || result.Items != nil {
		t.Errorf("при total=0 items должны отбрасываться: %+v", result)
	}
}

func TestGetAdminList_Filters(t *testing.T) {
	var gotWhere map[string]any
	s := newTestAdminService(&mockAdminRepo{
		countByMap: func(where map[string]any) (int64, error) { gotWhere = where; return 1, nil },
		getItems: func(map[string]any) ([]*model.Admin, error) {
			return []*model.Admin{activeAdmin(1, "admin01", "x")}, nil
		},
	}, time.Now())

	useFlag := true
	result, err := s.GetAdminList(context.Background(), AdminListParams{
		Page: 2, PageSize: 10, LoginID: "adm", Name: "Ад", UseFlag: &useFlag,
	})
	if err != nil {
		t.Fatalf("GetAdminList() ошибка: %v", err)
	}
	if result.Total != 1 || len(result.Items) != 1 {
		t.Errorf("result = %+v", result)
	}
	if gotWhere["removedFlag"] != false {
		t.Error("фильтр removedFlag=false обязателен")
	}
	if gotWhere["loginId:contains"] != "adm" || gotWhere["name:contains"] != "Ад" || gotWhere["useFlag"] != true {
		t.Errorf("фильтры не переданы: %v", gotWhere)
	}
}
