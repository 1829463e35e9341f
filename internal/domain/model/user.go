package model

import "time"

// User — пользователь системы.
// AdditionalInfo — произвольные дополнительные атрибуты, хранятся как JSON.
type User struct {
	IdCreatedUpdated

	LoginID          string
	PasswordHash     *string
	Token            *string
	Name             string
	UseFlag          bool
	Authorities      []Authority
	ChangePasswordAt *time.Time
	LatestActiveAt   *time.Time
	JoinedAt         *time.Time
	AdditionalInfo   map[string]any
	RemovedFlag      bool
	RemovedAt        *time.Time
}

// NewUser создаёт пользователя с audit-штампами оператора.
func NewUser(
	loginID, passwordHash, name string,
	useFlag bool,
	authorities []Authority,
	operator *Operator,
	now time.Time,
) *User {
	user := &User{
		LoginID:        loginID,
		PasswordHash:   &passwordHash,
		Name:           name,
		UseFlag:        useFlag,
		Authorities:    authorities,
		JoinedAt:       &now,
		AdditionalInfo: map[string]any{},
		RemovedFlag:    false,
	}
	user.SetCreatedBy(operator, now)
	user.SetUpdatedBy(operator, now)
	return user
}

// Audit реализует Audited.
func (u *User) Audit() *IdCreatedUpdated { return &u.IdCreatedUpdated }

// Type возвращает тип оператора для данной сущности.
func (u *User) Type() UserType { return UserTypeUser }

// Update обновляет данные пользователя.
// passwordHash != nil означает смену пароля.
func (u *User) Update(
	loginID string,
	passwordHash *string,
	name string,
	useFlag bool,
	authorities []Authority,
	operator *Operator,
	now time.Time,
) {
	u.LoginID = loginID
	u.Name = name
	u.UseFlag = useFlag
	u.Authorities = authorities
	u.SetUpdatedBy(operator, now)
	if passwordHash != nil {
		u.PasswordHash = passwordHash
		u.ChangePasswordAt = &now
	}
}

// ChangePassword устанавливает новый хэш пароля.
func (u *User) ChangePassword(passwordHash string, operator *Operator, now time.Time) {
	u.PasswordHash = &passwordHash
	u.ChangePasswordAt = &now
	u.SetUpdatedBy(operator, now)
}

// Remove помечает пользователя удалённым (soft delete).
func (u *User) Remove(operator *Operator, now time.Time) {
	u.RemovedFlag = true
	u.RemovedAt = &now
	u.SetUpdatedBy(operator, now)
}

// RenewToken сохраняет новый refresh-токен, вытесняя предыдущий.
func (u *User) RenewToken(token string, now time.Time) {
	u.Token = &token
	u.LatestActiveAt = &now
}

// Logout сбрасывает сохранённый refresh-токен.
func (u *User) Logout() {
	u.Token = nil
}
