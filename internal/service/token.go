// token.go — выпуск и разбор JWT (HS512): короткоживущий access-токен
// с полным профилем оператора и долгоживущий refresh-токен.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/backoffice/internal/domain/model"
)

// Ошибки разбора токенов.
var (
	// ErrInvalidToken — токен не прошёл разбор или проверку подписи/срока.
	ErrInvalidToken = errors.New("некорректный токен")
)

// TokenProvider выпускает и разбирает JWT-токены доступа.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	// now подменяется в тестах.
	now func() time.Time
}

// NewTokenProvider создаёт провайдер токенов.
func NewTokenProvider(secret string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// CreateAccessToken выпускает access-токен с полным профилем оператора.
func (p *TokenProvider) CreateAccessToken(operator *model.Operator) (string, error) {
	now := p.now()
	authorities := make([]string, 0, len(operator.Authorities))
	for _, a := range operator.Authorities {
		authorities = append(authorities, a.Code())
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"id":          operator.ID,
		"loginId":     operator.LoginID,
		"name":        operator.Name,
		"type":        operator.Type.Code(),
		"managerFlag": operator.ManagerFlag,
		"authorities": authorities,
		"iat":         now.Unix(),
		"exp":         now.Add(p.accessTTL).Unix(),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи access-токена: %w", err)
	}
	return signed, nil
}

// CreateRefreshToken выпускает refresh-токен: только id и тип оператора.
func (p *TokenProvider) CreateRefreshToken(id int64, userType model.UserType) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"id":   id,
		"type": userType.Code(),
		"iat":  now.Unix(),
		"exp":  now.Add(p.refreshTTL).Unix(),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи refresh-токена: %w", err)
	}
	return signed, nil
}

// ParseOperator разбирает access-токен и восстанавливает оператора.
// Проверяются подпись и срок действия.
func (p *TokenProvider) ParseOperator(tokenString string) (*model.Operator, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return nil, err
	}

	id, ok := claims["id"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: отсутствует claim id", ErrInvalidToken)
	}
	loginID, _ := claims["loginId"].(string)
	name, _ := claims["name"].(string)
	userType, _ := claims["type"].(string)
	managerFlag, _ := claims["managerFlag"].(bool)

	var authorities []model.Authority
	if raw, ok := claims["authorities"].([]any); ok {
		for _, item := range raw {
			if code, ok := item.(string); ok {
				authorities = append(authorities, model.Authority(code))
			}
		}
	}

	return &model.Operator{
		ID:          int64(id),
		LoginID:     loginID,
		Name:        name,
		Type:        model.UserType(userType),
		ManagerFlag: managerFlag,
		Authorities: authorities,
	}, nil
}

// ParseSubject разбирает refresh-токен и возвращает id и тип оператора.
func (p *TokenProvider) ParseSubject(tokenString string) (int64, model.UserType, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return 0, "", err
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("%w: отсутствует claim id", ErrInvalidToken)
	}
	userType, _ := claims["type"].(string)
	return int64(id), model.UserType(userType), nil
}

// IssuedWithin сообщает, выпущен ли токен не раньше, чем d назад.
// Используется для grace-окна конкурентного обновления токена.
func (p *TokenProvider) IssuedWithin(tokenString string, d time.Duration) bool {
	claims, err := p.parse(tokenString)
	if err != nil {
		return false
	}
	iat, ok := claims["iat"].(float64)
	if !ok {
		return false
	}
	issuedAt := time.Unix(int64(iat), 0)
	return p.now().Sub(issuedAt) <= d
}

// parse разбирает токен с проверкой подписи HS512 и срока действия.
func (p *TokenProvider) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithTimeFunc(func() time.Time { return p.now() }))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
