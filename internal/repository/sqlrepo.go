package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/backoffice/internal/sqlcommand"
)

// SqlRepository — обобщённый репозиторий над одной таблицей.
// SQL строится пакетом sqlcommand по map-фильтрам; сканирование,
// сериализация в map и присваивание сгенерированного id задаются
// функциями конкретной сущности.
type SqlRepository[T any] struct {
	db    DBTX
	cmd   sqlcommand.Command
	scan  func(row pgx.Row) (*T, error)
	toMap func(entity *T) map[string]any
	setID func(entity *T, id int64)
}

// NewSqlRepository создаёт обобщённый репозиторий.
func NewSqlRepository[T any](
	db DBTX,
	cmd sqlcommand.Command,
	scan func(row pgx.Row) (*T, error),
	toMap func(entity *T) map[string]any,
	setID func(entity *T, id int64),
) SqlRepository[T] {
	return SqlRepository[T]{db: db, cmd: cmd, scan: scan, toMap: toMap, setID: setID}
}

// CountAll возвращает количество всех строк таблицы.
func (r SqlRepository[T]) CountAll(ctx context.Context) (int64, error) {
	return r.CountByMap(ctx, nil)
}

// CountByMap возвращает количество строк по фильтру.
func (r SqlRepository[T]) CountByMap(ctx context.Context, where map[string]any) (int64, error) {
	query, err := r.cmd.CountByMap(where)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта строк: %w", err)
	}
	return count, nil
}

// GetItemsByMapOrderByLimitOffset возвращает страницу сущностей по фильтру.
// orderBy — имена полей, ведущий '-' означает убывание;
// limit/offset — nil, если ограничение не требуется.
func (r SqlRepository[T]) GetItemsByMapOrderByLimitOffset(
	ctx context.Context,
	where map[string]any,
	orderBy []string,
	limit, offset *int,
) ([]*T, error) {
	query, err := r.cmd.Select(nil, nil, where, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.queryItems(ctx, query)
}

// GetDistinctAndTargetItemsByMapOrderByLimitOffset выполняет выборку
// проекции (distinct- и target-колонки в camelCase) и вызывает scan
// для каждой строки результата. Сканер задаётся вызывающим: проекция
// уже, чем полная сущность.
func (r SqlRepository[T]) GetDistinctAndTargetItemsByMapOrderByLimitOffset(
	ctx context.Context,
	distinctColumns, targetColumns []string,
	where map[string]any,
	orderBy []string,
	limit, offset *int,
	scan func(rows pgx.Rows) error,
) error {
	query, err := r.cmd.Select(distinctColumns, targetColumns, where, orderBy, limit, offset)
	if err != nil {
		return err
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("ошибка выборки проекции: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("ошибка сканирования проекции: %w", err)
		}
	}
	return rows.Err()
}

// GetItemByMap возвращает первую подходящую под фильтр сущность.
// Отсутствие — ErrNotFound.
func (r SqlRepository[T]) GetItemByMap(ctx context.Context, where map[string]any) (*T, error) {
	query, err := r.cmd.SelectByMap(where)
	if err != nil {
		return nil, err
	}
	entity, err := r.scan(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}
	return entity, nil
}

// GetItemByID возвращает сущность по идентификатору.
func (r SqlRepository[T]) GetItemByID(ctx context.Context, id int64) (*T, error) {
	return r.GetItemByMap(ctx, map[string]any{"id": id})
}

// Insert вставляет сущность и присваивает ей сгенерированный id.
func (r SqlRepository[T]) Insert(ctx context.Context, entity *T) error {
	query, err := r.cmd.Insert(r.toMap(entity))
	if err != nil {
		return err
	}
	var id int64
	if err := r.db.QueryRow(ctx, query).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrConflict, r.cmd.Table().Name)
		}
		return fmt.Errorf("ошибка вставки записи: %w", err)
	}
	r.setID(entity, id)
	return nil
}

// InsertBatch вставляет несколько сущностей одним запросом
// и присваивает каждой сгенерированный id.
func (r SqlRepository[T]) InsertBatch(ctx context.Context, entities []*T) error {
	values := make([]map[string]any, 0, len(entities))
	for _, entity := range entities {
		values = append(values, r.toMap(entity))
	}
	query, err := r.cmd.InsertBatch(values)
	if err != nil {
		return err
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrConflict, r.cmd.Table().Name)
		}
		return fmt.Errorf("ошибка пакетной вставки: %w", err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("ошибка чтения id пакетной вставки: %w", err)
		}
		r.setID(entities[i], id)
	}
	return rows.Err()
}

// UpdateByID обновляет все поля сущности по её id.
func (r SqlRepository[T]) UpdateByID(ctx context.Context, id int64, entity *T) error {
	return r.UpdateMapByMap(ctx, r.toMap(entity), map[string]any{"id": id})
}

// UpdateByMap обновляет все поля сущности по фильтру.
func (r SqlRepository[T]) UpdateByMap(ctx context.Context, entity *T, where map[string]any) error {
	return r.UpdateMapByMap(ctx, r.toMap(entity), where)
}

// UpdateMapByMap обновляет набор полей по фильтру.
func (r SqlRepository[T]) UpdateMapByMap(ctx context.Context, updateMap, where map[string]any) error {
	query, err := r.cmd.UpdateMapByMap(updateMap, where)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, query); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrConflict, r.cmd.Table().Name)
		}
		return fmt.Errorf("ошибка обновления записи: %w", err)
	}
	return nil
}

// DeleteByMap физически удаляет строки по фильтру.
func (r SqlRepository[T]) DeleteByMap(ctx context.Context, where map[string]any) error {
	query, err := r.cmd.DeleteByMap(where)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("ошибка удаления записи: %w", err)
	}
	return nil
}

// DeleteByID физически удаляет строку по идентификатору.
func (r SqlRepository[T]) DeleteByID(ctx context.Context, id int64) error {
	return r.DeleteByMap(ctx, map[string]any{"id": id})
}

// queryItems выполняет select и сканирует все строки.
func (r SqlRepository[T]) queryItems(ctx context.Context, query string) ([]*T, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки: %w", err)
	}
	defer rows.Close()

	var items []*T
	for rows.Next() {
		entity, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		items = append(items, entity)
	}
	return items, rows.Err()
}
