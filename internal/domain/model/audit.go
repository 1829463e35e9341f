package model

import "time"

// UserSimple — облегчённая проекция оператора (id, логин, имя)
// для отображения авторства без повторной загрузки сущности.
type UserSimple struct {
	ID      int64  `json:"id"`
	LoginID string `json:"loginId"`
	Name    string `json:"name"`
}

// ActorRef — дискриминированная ссылка на актора audit-записи:
// тип (ADMIN или USER) плюс идентификатор в соответствующей таблице.
type ActorRef struct {
	Type UserType
	ID   int64
}

// IdCreated — примесь «кем и когда создано».
// Персистентные поля: ID, CreatedAt, CreatedObjectType, CreatedObjectID.
// Creator — транзиентная проекция автора: заполняется при штамповке
// или батчевым резолвером, в SQL никогда не попадает.
type IdCreated struct {
	// ID — первичный ключ; nil до первой записи в БД.
	ID *int64

	CreatedAt         time.Time
	CreatedObjectType UserType
	CreatedObjectID   int64

	Creator *UserSimple
}

// SetCreatedBy штампует авторство создания и сохраняет проекцию актора.
func (e *IdCreated) SetCreatedBy(operator *Operator, at time.Time) {
	e.CreatedAt = at
	e.CreatedObjectType = operator.Type
	e.CreatedObjectID = operator.ID
	e.Creator = operator.Simple()
}

// CreatedRef возвращает ссылку на создавшего актора.
func (e *IdCreated) CreatedRef() ActorRef {
	return ActorRef{Type: e.CreatedObjectType, ID: e.CreatedObjectID}
}

// IdCreatedUpdated — примесь «кем создано и кем последним изменено».
// Updater, как и Creator — транзиентная проекция.
type IdCreatedUpdated struct {
	IdCreated

	UpdatedAt         time.Time
	UpdatedObjectType UserType
	UpdatedObjectID   int64

	Updater *UserSimple
}

// SetUpdatedBy штампует авторство изменения. Вызывается при каждой записи.
func (e *IdCreatedUpdated) SetUpdatedBy(operator *Operator, at time.Time) {
	e.UpdatedAt = at
	e.UpdatedObjectType = operator.Type
	e.UpdatedObjectID = operator.ID
	e.Updater = operator.Simple()
}

// UpdatedRef возвращает ссылку на последнего изменившего актора.
func (e *IdCreatedUpdated) UpdatedRef() ActorRef {
	return ActorRef{Type: e.UpdatedObjectType, ID: e.UpdatedObjectID}
}

// Audited — сущность с полным audit-следом.
// Реализуется всеми персистентными моделями через встраивание IdCreatedUpdated.
type Audited interface {
	Audit() *IdCreatedUpdated
}
