package service

import (
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/backoffice/internal/domain/model"
)

func testOperator() *model.Operator {
	return &model.Operator{
		ID:          42,
		LoginID:     "admin01",
		Name:        "Администратор",
		Type:        model.UserTypeAdmin,
		ManagerFlag: true,
		Authorities: []model.Authority{model.AuthorityAdminView, model.AuthorityAdminEdit},
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	p := NewTokenProvider("test-secret", 5*time.Minute, 720*time.Hour)

	token, err := p.CreateAccessToken(testOperator())
	if err != nil {
		t.Fatalf("CreateAccessToken() ошибка: %v", err)
	}

	operator, err := p.ParseOperator(token)
	if err != nil {
		t.Fatalf("ParseOperator() ошибка: %v", err)
	}
	if operator.ID != 42 {
		t.Errorf("ID = %d, ожидается 42", operator.ID)
	}
	if operator.LoginID != "admin01" {
		t.Errorf("LoginID = %q, ожидается admin01", operator.LoginID)
	}
	if operator.Name != "Администратор" {
		t.Errorf("Name = %q", operator.Name)
	}
	if operator.Type != model.UserTypeAdmin {
		t.Errorf("Type = %q, ожидается ADMIN", operator.Type)
	}
	if !operator.ManagerFlag {
		t.Error("ManagerFlag = false, ожидается true")
	}
	if len(operator.Authorities) != 2 || operator.Authorities[0] != model.AuthorityAdminView {
		t.Errorf("Authorities = %v", operator.Authorities)
	}
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	p := NewTokenProvider("test-secret", 5*time.Minute, 720*time.Hour)

	token, err := p.CreateRefreshToken(7, model.UserTypeUser)
	if err != nil {
		t.Fatalf("CreateRefreshToken() ошибка: %v", err)
	}

	id, userType, err := p.ParseSubject(token)
	if err != nil {
		t.Fatalf("ParseSubject() ошибка: %v", err)
	}
	if id != 7 {
		t.Errorf("id = %d, ожидается 7", id)
	}
	if userType != model.UserTypeUser {
		t.Errorf("type = %q, ожидается USER", userType)
	}
}

func TestParseOperator_WrongSecret(t *testing.T) {
	p := NewTokenProvider("secret-one", 5*time.Minute, time.Hour)
	other := NewTokenProvider("secret-two", 5*time.Minute, time.Hour)

	token, err := p.CreateAccessToken(testOperator())
	if err != nil {
		t.Fatalf("CreateAccessToken() ошибка: %v", err)
	}
	if _, err := other.ParseOperator(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("чужая подпись: ожидается ErrInvalidToken, получили %v", err)
	}
}

func TestParseOperator_Expired(t *testing.T) {
	p := NewTokenProvider("test-secret", 5*time.Minute, time.Hour)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	p.now = func() time.Time { return issued }
	token, err := p.CreateAccessToken(testOperator())
	if err != nil {
		t.Fatalf("CreateAccessToken() ошибка: %v", err)
	}

	// В пределах срока токен принимается.
	p.now = func() time.Time { return issued.Add(4 * time.Minute) }
	if _, err := p.ParseOperator(token); err != nil {
		t.Errorf("токен в пределах срока отвергнут: %v", err)
	}

	// После истечения срока — ErrInvalidToken.
	p.now = func() time.Time { return issued.Add(6 * time.Minute) }
	if _, err := p.ParseOperator(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("просроченный токен: ожидается ErrInvalidToken, получили %v", err)
	}
}

func TestParseOperator_Garbage(t *testing.T) {
	p := NewTokenProvider("test-secret", 5*time.Minute, time.Hour)
	if _, err := p.ParseOperator("не-токен"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("мусор: ожидается ErrInvalidToken, получили %v", err)
	}
}

func TestIssuedWithin(t *testing.T) {
	p := NewTokenProvider("test-secret", 5*time.Minute, time.Hour)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	p.now = func() time.Time { return issued }
	token, err := p.CreateRefreshToken(1, model.UserTypeAdmin)
	if err != nil {
		t.Fatalf("CreateRefreshToken() ошибка: %v", err)
	}

	p.now = func() time.Time { return issued.Add(2 * time.Second) }
	if !p.IssuedWithin(token, 3*time.Second) {
		t.Error("токен выпущен 2с назад — должен попадать в окно 3с")
	}

	p.now = func() time.Time { return issued.Add(4 * time.Second) }
	if p.IssuedWithin(token, 3*time.Second) {
		t.Error("токен выпущен 4с назад — не должен попадать в окно 3с")
	}

	if p.IssuedWithin("не-токен", 3*time.Second) {
		t.Error("невалидный токен не должен попадать в окно")
	}
}
