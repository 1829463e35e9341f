package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigkaa/backoffice/internal/domain/model"
)

// parserStub — заглушка OperatorParser: валидным считается
// только токен "valid-token".
type parserStub struct {
	operator *model.Operator
}

func (p *parserStub) ParseOperator(tokenString string) (*model.Operator, error) {
	if tokenString != "valid-token" {
		return nil, errors.New("некорректный токен")
	}
	return p.operator, nil
}

func viewer() *model.Operator {
	return &model.Operator{
		ID: 1, LoginID: "admin01", Type: model.UserTypeAdmin,
		Authorities: []model.Authority{model.AuthorityAdminView},
	}
}

// errorCode извлекает машиночитаемый код из тела ответа.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("некорректный JSON в ответе: %v", err)
	}
	return body.Error.Code
}

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuth(&parserStub{operator: viewer()})

	var gotOperator *model.Operator
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOperator = OperatorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"без заголовка", "", http.StatusUnauthorized},
		{"не Bearer", "Basic abc", http.StatusUnauthorized},
		{"пустой токен", "Bearer ", http.StatusUnauthorized},
		{"невалидный токен", "Bearer garbage", http.StatusUnauthorized},
		{"валидный токен", "Bearer valid-token", http.StatusOK},
		{"bearer в нижнем регистре", "bearer valid-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOperator = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admins", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotOperator == nil || gotOperator.LoginID != "admin01" {
					t.Error("оператор не помещён в контекст")
				}
			} else if errorCode(t, rec) != "UNAUTHORIZED" {
				t.Errorf("код ошибки = %q, ожидается UNAUTHORIZED", errorCode(t, rec))
			}
		})
	}
}

func TestRequireAuthority(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	auth := NewAuth(&parserStub{operator: viewer()})

	// Право есть.
	handler := auth.Middleware()(RequireAuthority(model.AuthorityAdminView)(next))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admins", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("статус = %d, ожидается 200", rec.Code)
	}

	// Права нет — 403.
	handler = auth.Middleware()(RequireAuthority(model.AuthorityAdminEdit)(next))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("статус = %d, ожидается 403", rec.Code)
	}
	if errorCode(t, rec) != "FORBIDDEN" {
		t.Errorf("код ошибки = %q, ожидается FORBIDDEN", errorCode(t, rec))
	}

	// Без Auth.Middleware() оператора в контексте нет — 401.
	handler = RequireAuthority(model.AuthorityAdminView)(next)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admins", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401", rec.Code)
	}
}

func TestRequireAuthority_Manager(t *testing.T) {
	manager := viewer()
	manager.ManagerFlag = true
	manager.Authorities = nil
	auth := NewAuth(&parserStub{operator: manager})

	// Менеджер проходит любую проверку права без явных назначений.
	handler := auth.Middleware()(RequireAuthority(model.AuthorityNoticeEdit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notices", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("статус = %d, ожидается 200", rec.Code)
	}
}

func TestRequireManager(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Не менеджер — 403.
	auth := NewAuth(&parserStub{operator: viewer()})
	handler := auth.Middleware()(RequireManager()(next))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admins", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("статус = %d, ожидается 403", rec.Code)
	}

	// Менеджер — 200.
	manager := viewer()
	manager.ManagerFlag = true
	auth = NewAuth(&parserStub{operator: manager})
	handler = auth.Middleware()(RequireManager()(next))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("статус = %d, ожидается 200", rec.Code)
	}
}
