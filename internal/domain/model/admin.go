package model

import "time"

// Admin — администратор системы.
// PasswordHash и Token хранят bcrypt-хэш пароля и текущий refresh-токен;
// nil означает «не установлено».
type Admin struct {
	IdCreatedUpdated

	LoginID          string
	PasswordHash     *string
	Token            *string
	Name             string
	UseFlag          bool
	ManagerFlag      bool
	Authorities      []Authority
	ChangePasswordAt *time.Time
	LatestActiveAt   *time.Time
	JoinedAt         *time.Time
	RemovedFlag      bool
	RemovedAt        *time.Time
}

// NewAdmin создаёт администратора с audit-штампами оператора.
// passwordHash — уже захэшированный пароль.
func NewAdmin(
	loginID, passwordHash, name string,
	useFlag, managerFlag bool,
	authorities []Authority,
	operator *Operator,
	now time.Time,
) *Admin {
	admin := &Admin{
		LoginID:      loginID,
		PasswordHash: &passwordHash,
		Name:         name,
		UseFlag:      useFlag,
		ManagerFlag:  managerFlag,
		Authorities:  authorities,
		JoinedAt:     &now,
		RemovedFlag:  false,
	}
	admin.SetCreatedBy(operator, now)
	admin.SetUpdatedBy(operator, now)
	return admin
}

// Audit реализует Audited.
func (a *Admin) Audit() *IdCreatedUpdated { return &a.IdCreatedUpdated }

// Type возвращает тип оператора для данной сущности.
func (a *Admin) Type() UserType { return UserTypeAdmin }

// Update обновляет данные администратора.
// passwordHash != nil означает смену пароля.
func (a *Admin) Update(
	loginID string,
	passwordHash *string,
	name string,
	useFlag, managerFlag bool,
	authorities []Authority,
	operator *Operator,
	now time.Time,
) {
	a.LoginID = loginID
	a.Name = name
	a.UseFlag = useFlag
	a.ManagerFlag = managerFlag
	a.Authorities = authorities
	a.SetUpdatedBy(operator, now)
	if passwordHash != nil {
		a.PasswordHash = passwordHash
		a.ChangePasswordAt = &now
	}
}

// ChangePassword устанавливает новый хэш пароля.
func (a *Admin) ChangePassword(passwordHash string, operator *Operator, now time.Time) {
	a.PasswordHash = &passwordHash
	a.ChangePasswordAt = &now
	a.SetUpdatedBy(operator, now)
}

// Remove помечает администратора удалённым (soft delete).
func (a *Admin) Remove(operator *Operator, now time.Time) {
	a.RemovedFlag = true
	a.RemovedAt = &now
	a.SetUpdatedBy(operator, now)
}

// RenewToken сохраняет новый refresh-токен, вытесняя предыдущий.
func (a *Admin) RenewToken(token string, now time.Time) {
	a.Token = &token
	a.LatestActiveAt = &now
}

// Logout сбрасывает сохранённый refresh-токен.
func (a *Admin) Logout() {
	a.Token = nil
}
