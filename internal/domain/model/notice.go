package model

import "time"

// Notice — объявление для операторов системы.
type Notice struct {
	IdCreatedUpdated

	Title       string
	Content     string
	UseFlag     bool
	RemovedFlag bool
	RemovedAt   *time.Time
}

// NewNotice создаёт объявление с audit-штампами оператора.
func NewNotice(title, content string, useFlag bool, operator *Operator, now time.Time) *Notice {
	notice := &Notice{
		Title:       title,
		Content:     content,
		UseFlag:     useFlag,
		RemovedFlag: false,
	}
	notice.SetCreatedBy(operator, now)
	notice.SetUpdatedBy(operator, now)
	return notice
}

// Audit реализует Audited.
func (n *Notice) Audit() *IdCreatedUpdated { return &n.IdCreatedUpdated }

// Update обновляет объявление.
func (n *Notice) Update(title, content string, useFlag bool, operator *Operator, now time.Time) {
	n.Title = title
	n.Content = content
	n.UseFlag = useFlag
	n.SetUpdatedBy(operator, now)
}

// Remove помечает объявление удалённым (soft delete).
func (n *Notice) Remove(operator *Operator, now time.Time) {
	n.RemovedFlag = true
	n.RemovedAt = &now
	n.SetUpdatedBy(operator, now)
}
