package service

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bigkaa/backoffice/internal/domain/model"
)

// simpleGetterMock считает вызовы и отдаёт проекции по списку id.
type simpleGetterMock struct {
	calls int32
	items map[int64]model.UserSimple
}

func (m *simpleGetterMock) GetSimpleItemsByIDs(_ context.Context, ids []int64) ([]model.UserSimple, error) {
	atomic.AddInt32(&m.calls, 1)
	result := make([]model.UserSimple, 0, len(ids))
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			result = append(result, item)
		}
	}
	return result, nil
}

func auditedNotice(createdBy, updatedBy model.ActorRef) *model.Notice {
	notice := &model.Notice{Title: "t"}
	notice.CreatedObjectType = createdBy.Type
	notice.CreatedObjectID = createdBy.ID
	notice.UpdatedObjectType = updatedBy.Type
	notice.UpdatedObjectID = updatedBy.ID
	return notice
}

func TestFulfill_BatchesPerActorType(t *testing.T) {
	admins := &simpleGetterMock{items: map[int64]model.UserSimple{
		1: {ID: 1, LoginID: "admin01", Name: "Админ 1"},
		2: {ID: 2, LoginID: "admin02", Name: "Админ 2"},
	}}
	users := &simpleGetterMock{items: map[int64]model.UserSimple{
		7: {ID: 7, LoginID: "user07", Name: "Пользователь 7"},
	}}
	helper := NewOperatorHelper(admins, users, testLogger())

	adminRef1 := model.ActorRef{Type: model.UserTypeAdmin, ID: 1}
	adminRef2 := model.ActorRef{Type: model.UserTypeAdmin, ID: 2}
	userRef := model.ActorRef{Type: model.UserTypeUser, ID: 7}

	// Десять сущностей, акторы двух типов — по одному запросу на тип.
	items := make([]*model.Notice, 0, 10)
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			items = append(items, auditedNotice(adminRef1, userRef))
		} else {
			items = append(items, auditedNotice(adminRef2, adminRef1))
		}
	}

	if err := FulfillOperators(context.Background(), helper, items); err != nil {
		t.Fatalf("Fulfill() ошибка: %v", err)
	}
	if admins.calls != 1 {
		t.Errorf("запросов к администраторам %d, ожидается 1", admins.calls)
	}
	if users.calls != 1 {
		t.Errorf("запросов к пользователям %d, ожидается 1", users.calls)
	}

	for i, item := range items {
		if item.Creator == nil || item.Updater == nil {
			t.Fatalf("сущность %d: проекции не заполнены", i)
		}
	}
	if items[0].Creator.LoginID != "admin01" || items[0].Updater.LoginID != "user07" {
		t.Errorf("проекции перепутаны: %+v / %+v", items[0].Creator, items[0].Updater)
	}
}

func TestFulfill_DedupesIDs(t *testing.T) {
	var gotIDs []int64
	admins := &adminIDRecorder{ids: &gotIDs}
	helper := NewOperatorHelper(admins, &simpleGetterMock{}, testLogger())

	ref1 := model.ActorRef{Type: model.UserTypeAdmin, ID: 1}
	ref2 := model.ActorRef{Type: model.UserTypeAdmin, ID: 2}
	items := []*model.Notice{
		auditedNotice(ref1, ref1),
		auditedNotice(ref1, ref2),
		auditedNotice(ref2, ref1),
	}

	if err := FulfillOperators(context.Background(), helper, items); err != nil {
		t.Fatalf("Fulfill() ошибка: %v", err)
	}
	sort.Slice(gotIDs, func(i, j int) bool { return gotIDs[i] < gotIDs[j] })
	if len(gotIDs) != 2 || gotIDs[0] != 1 || gotIDs[1] != 2 {
		t.Errorf("ids = %v, ожидается [1 2]", gotIDs)
	}
}

type adminIDRecorder struct {
	ids *[]int64
}

func (r *adminIDRecorder) GetSimpleItemsByIDs(_ context.Context, ids []int64) ([]model.UserSimple, error) {
	*r.ids = append(*r.ids, ids...)
	return nil, nil
}

func TestFulfill_SkipsRetainedProjections(t *testing.T) {
	admins := &simpleGetterMock{items: map[int64]model.UserSimple{}}
	users := &simpleGetterMock{items: map[int64]model.UserSimple{}}
	helper := NewOperatorHelper(admins, users, testLogger())

	// Проекции уже заполнены штамповкой — запросов быть не должно.
	operator := adminOperator(1)
	notice := model.NewNotice("t", "c", true, operator, time.Now())

	if err := FulfillOperators(context.Background(), helper, []*model.Notice{notice}); err != nil {
		t.Fatalf("Fulfill() ошибка: %v", err)
	}
	if admins.calls != 0 || users.calls != 0 {
		t.Errorf("запросы при заполненных проекциях: admins=%d users=%d", admins.calls, users.calls)
	}
}

func TestFulfill_MissingActorsStayNil(t *testing.T) {
	// Актор физически удалён из БД — проекция остаётся пустой.
	admins := &simpleGetterMock{items: map[int64]model.UserSimple{
		1: {ID: 1, LoginID: "admin01", Name: "Админ 1"},
	}}
	helper := NewOperatorHelper(admins, &simpleGetterMock{}, testLogger())

	present := model.ActorRef{Type: model.UserTypeAdmin, ID: 1}
	missing := model.ActorRef{Type: model.UserTypeAdmin, ID: 999}
	notice := auditedNotice(present, missing)

	if err := FulfillOperators(context.Background(), helper, []*model.Notice{notice}); err != nil {
		t.Fatalf("Fulfill() ошибка: %v", err)
	}
	if notice.Creator == nil || notice.Creator.ID != 1 {
		t.Error("Creator не заполнен")
	}
	if notice.Updater != nil {
		t.Errorf("Updater должен остаться nil, получили %+v", notice.Updater)
	}
}

func TestFulfill_EmptyList(t *testing.T) {
	admins := &simpleGetterMock{}
	helper := NewOperatorHelper(admins, &simpleGetterMock{}, testLogger())

	if err := helper.Fulfill(context.Background(), nil); err != nil {
		t.Fatalf("Fulfill(nil) ошибка: %v", err)
	}
	if admins.calls != 0 {
		t.Error("запросы при пустом списке")
	}
}
