// Пакет model — доменные модели Backoffice: операторы (Admin, User),
// объявления (Notice) и audit-примеси created/updated.
package model

// UserType — тип оператора системы.
type UserType string

const (
	// UserTypeAdmin — администратор.
	UserTypeAdmin UserType = "ADMIN"
	// UserTypeUser — пользователь.
	UserTypeUser UserType = "USER"
)

// Code возвращает стабильный строковый код для записи в БД.
func (t UserType) Code() string { return string(t) }

// Authority — право доступа оператора к разделам системы.
type Authority string

const (
	AuthorityAdminView  Authority = "ADMIN_VIEW"
	AuthorityAdminEdit  Authority = "ADMIN_EDIT"
	AuthorityUserView   Authority = "USER_VIEW"
	AuthorityUserEdit   Authority = "USER_EDIT"
	AuthorityNoticeView Authority = "NOTICE_VIEW"
	AuthorityNoticeEdit Authority = "NOTICE_EDIT"
)

// Code возвращает стабильный строковый код для записи в БД.
func (a Authority) Code() string { return string(a) }

// AllAuthorities возвращает полный список прав.
// Менеджер (managerFlag) получает их все независимо от назначенных.
func AllAuthorities() []Authority {
	return []Authority{
		AuthorityAdminView,
		AuthorityAdminEdit,
		AuthorityUserView,
		AuthorityUserEdit,
		AuthorityNoticeView,
		AuthorityNoticeEdit,
	}
}
