package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/sqlcommand"
)

// noticeTable — дескриптор таблицы notices.
// Порядок полей совпадает с порядком сканирования в scanNotice.
var noticeTable = sqlcommand.NewTable("notices",
	"id", "title", "content", "useFlag",
	"createdAt", "createdObjectType", "createdObjectId",
	"updatedAt", "updatedObjectType", "updatedObjectId",
	"removedFlag", "removedAt",
)

// NoticeRepository — доступ к таблице notices.
type NoticeRepository interface {
	// CountByMap возвращает количество объявлений по фильтру.
	CountByMap(ctx context.Context, where map[string]any) (int64, error)
	// GetItemsByMapOrderByLimitOffset возвращает страницу объявлений.
	GetItemsByMapOrderByLimitOffset(ctx context.Context, where map[string]any, orderBy []string, limit, offset *int) ([]*model.Notice, error)
	// GetItemByMap возвращает первое подходящее объявление.
	GetItemByMap(ctx context.Context, where map[string]any) (*model.Notice, error)
	// GetItemByID возвращает объявление по id.
	GetItemByID(ctx context.Context, id int64) (*model.Notice, error)
	// Insert вставляет объявление и присваивает ему id.
	Insert(ctx context.Context, notice *model.Notice) error
	// InsertBatch вставляет несколько объявлений одним запросом.
	InsertBatch(ctx context.Context, notices []*model.Notice) error
	// UpdateByID сохраняет все поля объявления.
	UpdateByID(ctx context.Context, id int64, notice *model.Notice) error
}

// noticeRepo — реализация NoticeRepository поверх SqlRepository.
type noticeRepo struct {
	SqlRepository[model.Notice]
}

// NewNoticeRepository создаёт репозиторий объявлений.
func NewNoticeRepository(db DBTX) NoticeRepository {
	return &noticeRepo{SqlRepository: NewSqlRepository(
		db, sqlcommand.New(noticeTable), scanNotice, noticeToMap, setNoticeID,
	)}
}

// scanNotice сканирует строку результата в модель Notice.
func scanNotice(row pgx.Row) (*model.Notice, error) {
	notice := &model.Notice{}
	err := row.Scan(
		&notice.ID, &notice.Title, &notice.Content, &notice.UseFlag,
		&notice.CreatedAt, &notice.CreatedObjectType, &notice.CreatedObjectID,
		&notice.UpdatedAt, &notice.UpdatedObjectType, &notice.UpdatedObjectID,
		&notice.RemovedFlag, &notice.RemovedAt,
	)
	return notice, err
}

// noticeToMap сериализует объявление в map для sqlcommand.
func noticeToMap(notice *model.Notice) map[string]any {
	return map[string]any{
		"id":                notice.ID,
		"title":             notice.Title,
		"content":           notice.Content,
		"useFlag":           notice.UseFlag,
		"createdAt":         notice.CreatedAt,
		"createdObjectType": notice.CreatedObjectType,
		"createdObjectId":   notice.CreatedObjectID,
		"updatedAt":         notice.UpdatedAt,
		"updatedObjectType": notice.UpdatedObjectType,
		"updatedObjectId":   notice.UpdatedObjectID,
		"removedFlag":       notice.RemovedFlag,
		"removedAt":         notice.RemovedAt,
	}
}

func setNoticeID(notice *model.Notice, id int64) { notice.ID = &id }
