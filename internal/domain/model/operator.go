package model

// Operator — аутентифицированный субъект, выполняющий действие.
// Формируется из JWT claims либо из загруженной сущности Admin/User
// и протягивается через сервисные вызовы для audit-штампов
// и проверок прав.
type Operator struct {
	// ID — идентификатор оператора.
	ID int64
	// LoginID — логин оператора.
	LoginID string
	// Name — отображаемое имя.
	Name string
	// Type — тип оператора (ADMIN, USER).
	Type UserType
	// ManagerFlag — признак менеджера (только для Admin).
	ManagerFlag bool
	// Authorities — назначенные права.
	Authorities []Authority
}

// OperatorOfAdmin строит Operator из сущности Admin.
// Менеджер получает полный набор прав.
func OperatorOfAdmin(admin *Admin) *Operator {
	authorities := admin.Authorities
	if admin.ManagerFlag {
		authorities = AllAuthorities()
	}
	return &Operator{
		ID:          *admin.ID,
		LoginID:     admin.LoginID,
		Name:        admin.Name,
		Type:        UserTypeAdmin,
		ManagerFlag: admin.ManagerFlag,
		Authorities: authorities,
	}
}

// OperatorOfUser строит Operator из сущности User.
func OperatorOfUser(user *User) *Operator {
	return &Operator{
		ID:          *user.ID,
		LoginID:     user.LoginID,
		Name:        user.Name,
		Type:        UserTypeUser,
		ManagerFlag: false,
		Authorities: user.Authorities,
	}
}

// HasAuthority проверяет наличие права у оператора.
// Менеджер обладает всеми правами.
func (o *Operator) HasAuthority(authority Authority) bool {
	if o.ManagerFlag {
		return true
	}
	for _, a := range o.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// Simple возвращает облегчённую проекцию оператора для audit-полей.
func (o *Operator) Simple() *UserSimple {
	return &UserSimple{ID: o.ID, LoginID: o.LoginID, Name: o.Name}
}
