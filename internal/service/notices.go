// notices.go — сервис объявлений: CRUD с мягким удалением.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/repository"
)

// NoticeListParams — фильтры и пагинация списка объявлений.
type NoticeListParams struct {
	Page     int
	PageSize int
	// Title — подстрока заголовка.
	Title string
	// UseFlag — фильтр по признаку активности; nil — без фильтра.
	UseFlag *bool
}

// NoticeParams — данные создания и обновления объявления.
type NoticeParams struct {
	Title   string
	Content string
	UseFlag bool
}

// NoticeService — бизнес-логика объявлений.
type NoticeService struct {
	notices   repository.NoticeRepository
	operators *OperatorHelper
	logger    *slog.Logger

	now func() time.Time
}

// NewNoticeService создаёт сервис объявлений.
func NewNoticeService(notices repository.NoticeRepository, operators *OperatorHelper, logger *slog.Logger) *NoticeService {
	return &NoticeService{
		notices:   notices,
		operators: operators,
		logger:    logger.With(slog.String("component", "notice_service")),
		now:       time.Now,
	}
}

// GetNoticeList возвращает страницу действующих объявлений.
func (s *NoticeService) GetNoticeList(ctx context.Context, params NoticeListParams) (*ListResult[model.Notice], error) {
	where := map[string]any{"removedFlag": false}
	if params.Title != "" {
		where["title:contains"] = params.Title
	}
	if params.UseFlag != nil {
		where["useFlag"] = *params.UseFlag
	}
	limit, offset := pageBounds(params.Page, params.PageSize)

	var total int64
	var items []*model.Notice
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.notices.CountByMap(gctx, where)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.notices.GetItemsByMapOrderByLimitOffset(gctx, where, []string{"-id"}, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if total == 0 {
		items = nil
	}

	if err := FulfillOperators(ctx, s.operators, items); err != nil {
		return nil, err
	}
	return &ListResult[model.Notice]{
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    total,
		Items:    items,
	}, nil
}

// GetNotice возвращает действующее объявление по id.
func (s *NoticeService) GetNotice(ctx context.Context, id int64) (*model.Notice, error) {
	notice, err := s.getActiveNotice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := FulfillOperators(ctx, s.operators, []*model.Notice{notice}); err != nil {
		return nil, err
	}
	return notice, nil
}

// CreateNotice создаёт объявление.
func (s *NoticeService) CreateNotice(ctx context.Context, operator *model.Operator, params NoticeParams) (*model.Notice, error) {
	notice := model.NewNotice(params.Title, params.Content, params.UseFlag, operator, s.now())
	if err := s.notices.Insert(ctx, notice); err != nil {
		return nil, err
	}
	s.logger.Info("объявление создано", slog.Int64("id", *notice.ID))
	return notice, nil
}

// UpdateNotice обновляет объявление.
func (s *NoticeService) UpdateNotice(ctx context.Context, operator *model.Operator, id int64, params NoticeParams) (*model.Notice, error) {
	notice, err := s.getActiveNotice(ctx, id)
	if err != nil {
		return nil, err
	}
	notice.Update(params.Title, params.Content, params.UseFlag, operator, s.now())
	if err := s.notices.UpdateByID(ctx, id, notice); err != nil {
		return nil, err
	}
	return notice, nil
}

// DeleteNotice помечает объявление удалённым.
func (s *NoticeService) DeleteNotice(ctx context.Context, operator *model.Operator, id int64) error {
	notice, err := s.getActiveNotice(ctx, id)
	if err != nil {
		return err
	}
	notice.Remove(operator, s.now())
	if err := s.notices.UpdateByID(ctx, id, notice); err != nil {
		return err
	}
	s.logger.Info("объявление удалено", slog.Int64("id", id))
	return nil
}

// getActiveNotice возвращает действующее объявление либо ErrUnknownNotice.
func (s *NoticeService) getActiveNotice(ctx context.Context, id int64) (*model.Notice, error) {
	notice, err := s.notices.GetItemByMap(ctx, map[string]any{"id": id, "removedFlag": false})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownNotice
		}
		return nil, err
	}
	return notice, nil
}
