package sqlcommand

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Ошибки построителя. Все они — ошибки программирования (конфигурации),
// а не данных: запрос до БД не доходит.
var (
	// ErrWhereRequired — изменяющий запрос без условий WHERE.
	ErrWhereRequired = errors.New("отсутствуют условия WHERE")
	// ErrEmptyEntities — insertBatch с пустым списком сущностей.
	ErrEmptyEntities = errors.New("пустой список сущностей")
	// ErrEmptyInSet — условие in/notIn с пустым множеством значений.
	ErrEmptyInSet = errors.New("пустое множество значений для условия in/notIn")
	// ErrInRequiresSet — условие in/notIn со значением, не являющимся Set.
	ErrInRequiresSet = errors.New("условие in/notIn требует sqlcommand.Set")
	// ErrUnknownOperator — неизвестный суффикс оператора в ключе фильтра.
	ErrUnknownOperator = errors.New("неизвестный оператор условия")
)

// Command — построитель SQL-запросов для одной таблицы.
// Ключи фильтра имеют вид «поле[:оператор]» в camelCase; поддерживаются
// операторы eq (по умолчанию), ne/not, in, notIn, null, notNull,
// contains, notContains, startsWith, endsWith, lt, lte, gt, gte.
type Command struct {
	table Table
}

// New создаёт построитель для таблицы.
func New(table Table) Command {
	return Command{table: table}
}

// Table возвращает дескриптор таблицы построителя.
func (c Command) Table() Table { return c.table }

// CountByMap строит запрос подсчёта строк по фильтру.
// Пустой фильтр допустим — подсчёт всей таблицы.
func (c Command) CountByMap(where map[string]any) (string, error) {
	whereSQL, err := c.whereClause(where)
	if err != nil {
		return "", err
	}
	return "SELECT COUNT(1) FROM " + wrapIdentifier(c.table.Name) + whereSQL, nil
}

// Select строит запрос выборки.
// distinctColumns/targetColumns — проекции (пустые → все поля дескриптора);
// orderBy — имена полей, ведущий '-' означает DESC;
// limit/offset — nil, если ограничение не требуется.
func (c Command) Select(
	distinctColumns, targetColumns []string,
	where map[string]any,
	orderBy []string,
	limit, offset *int,
) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(distinctColumns) > 0 {
		b.WriteString("DISTINCT ")
	}

	switch {
	case len(distinctColumns) == 0 && len(targetColumns) == 0:
		for i, column := range c.table.Columns() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(wrapIdentifier(column))
		}
	default:
		// distinct-колонки + target-колонки без дублей.
		seen := make(map[string]bool, len(distinctColumns))
		first := true
		for _, name := range distinctColumns {
			seen[name] = true
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(wrapIdentifier(CamelToSnake(name)))
		}
		for _, name := range targetColumns {
			if seen[name] {
				continue
			}
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(wrapIdentifier(CamelToSnake(name)))
		}
	}

	b.WriteString(" FROM ")
	b.WriteString(wrapIdentifier(c.table.Name))

	whereSQL, err := c.whereClause(where)
	if err != nil {
		return "", err
	}
	b.WriteString(whereSQL)

	for i, condition := range orderBy {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		column := CamelToSnake(condition)
		if strings.HasPrefix(column, "-") {
			b.WriteString(wrapIdentifier(column[1:]) + " DESC")
		} else {
			b.WriteString(wrapIdentifier(column))
		}
	}

	if limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *limit)
	}
	if offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *offset)
	}

	return b.String(), nil
}

// SelectByMap строит выборку «одной подходящей строки»:
// без проекций, сортировки и пагинации, WHERE обязателен.
func (c Command) SelectByMap(where map[string]any) (string, error) {
	if len(where) == 0 {
		return "", ErrWhereRequired
	}
	return c.Select(nil, nil, where, nil, nil, nil)
}

// Insert строит вставку одной строки.
// values — значения по именам полей; генерируемое поле id пропускается,
// запрос завершается RETURNING "id".
func (c Command) Insert(values map[string]any) (string, error) {
	var columns, literals []string
	for _, f := range c.table.Fields {
		if f.Name == "id" {
			continue
		}
		columns = append(columns, wrapIdentifier(f.Column))
		literals = append(literals, FormatValue(values[f.Name]))
	}
	return "INSERT INTO " + wrapIdentifier(c.table.Name) +
		" (" + strings.Join(columns, ", ") + ") VALUES (" +
		strings.Join(literals, ", ") + `) RETURNING "id"`, nil
}

// InsertBatch строит вставку нескольких строк одним запросом.
// Список колонок общий — из дескриптора таблицы; по кортежу VALUES
// на каждую сущность. Пустой список — ошибка.
func (c Command) InsertBatch(values []map[string]any) (string, error) {
	if len(values) == 0 {
		return "", ErrEmptyEntities
	}

	var columns []string
	for _, f := range c.table.Fields {
		if f.Name == "id" {
			continue
		}
		columns = append(columns, wrapIdentifier(f.Column))
	}

	tuples := make([]string, 0, len(values))
	for _, entity := range values {
		literals := make([]string, 0, len(columns))
		for _, f := range c.table.Fields {
			if f.Name == "id" {
				continue
			}
			literals = append(literals, FormatValue(entity[f.Name]))
		}
		tuples = append(tuples, "("+strings.Join(literals, ", ")+")")
	}

	return "INSERT INTO " + wrapIdentifier(c.table.Name) +
		" (" + strings.Join(columns, ", ") + ") VALUES " +
		strings.Join(tuples, ", ") + ` RETURNING "id"`, nil
}

// UpdateMapByMap строит обновление произвольного набора полей по фильтру.
// Поля, не объявленные в дескрипторе (транзиентные), пропускаются.
// Пустой WHERE — ошибка конфигурации, запрос не строится.
func (c Command) UpdateMapByMap(updateMap, where map[string]any) (string, error) {
	if len(where) == 0 {
		return "", ErrWhereRequired
	}

	assignments := make([]string, 0, len(updateMap))
	for _, name := range sortedKeys(updateMap) {
		if !c.table.HasField(name) || name == "id" {
			continue
		}
		assignments = append(assignments,
			wrapIdentifier(CamelToSnake(name))+" = "+FormatValue(updateMap[name]))
	}

	whereSQL, err := c.whereClause(where)
	if err != nil {
		return "", err
	}

	return "UPDATE " + wrapIdentifier(c.table.Name) +
		" SET " + strings.Join(assignments, ", ") + whereSQL, nil
}

// DeleteByMap строит физическое удаление по фильтру.
// Пустой WHERE — ошибка конфигурации, запрос не строится.
func (c Command) DeleteByMap(where map[string]any) (string, error) {
	if len(where) == 0 {
		return "", ErrWhereRequired
	}
	whereSQL, err := c.whereClause(where)
	if err != nil {
		return "", err
	}
	return "DELETE FROM " + wrapIdentifier(c.table.Name) + whereSQL, nil
}

// whereClause строит " WHERE ..." из фильтра; пустой фильтр → "".
// Условия соединяются AND в порядке отсортированных ключей.
func (c Command) whereClause(where map[string]any) (string, error) {
	if len(where) == 0 {
		return "", nil
	}

	conditions := make([]string, 0, len(where))
	for _, key := range sortedKeys(where) {
		column, conditionType, _ := strings.Cut(key, ":")
		if conditionType == "" {
			conditionType = "eq"
		}
		condition, err := whereCondition(conditionType, CamelToSnake(column), where[key])
		if err != nil {
			return "", fmt.Errorf("%w: %s", err, key)
		}
		conditions = append(conditions, condition)
	}

	return " WHERE " + strings.Join(conditions, " AND "), nil
}

// whereCondition строит одно условие по типу оператора.
func whereCondition(conditionType, column string, value any) (string, error) {
	quoted := wrapIdentifier(column)
	switch conditionType {
	case "eq":
		return quoted + " = " + FormatValue(value), nil
	case "ne", "not":
		return quoted + " <> " + FormatValue(value), nil
	case "in", "notIn":
		set, ok := value.(Set)
		if !ok {
			return "", ErrInRequiresSet
		}
		if len(set) == 0 {
			return "", ErrEmptyInSet
		}
		literals := make([]string, 0, len(set))
		for _, item := range set {
			literals = append(literals, FormatValue(item))
		}
		op := " IN ("
		if conditionType == "notIn" {
			op = " NOT IN ("
		}
		return quoted + op + strings.Join(literals, ", ") + ")", nil
	case "null":
		return quoted + " IS NULL", nil
	case "notNull":
		return quoted + " IS NOT NULL", nil
	case "contains":
		return "POSITION(" + FormatValue(value) + " IN " + quoted + ") > 0", nil
	case "notContains":
		return "POSITION(" + FormatValue(value) + " IN " + quoted + ") = 0", nil
	case "startsWith":
		return "POSITION(" + FormatValue(value) + " IN " + quoted + ") = 1", nil
	case "endsWith":
		literal := FormatValue(value)
		return "RIGHT(" + quoted + ", LENGTH(" + literal + ")) = " + literal, nil
	case "lt":
		return quoted + " < " + FormatValue(value), nil
	case "lte":
		return quoted + " <= " + FormatValue(value), nil
	case "gt":
		return quoted + " > " + FormatValue(value), nil
	case "gte":
		return quoted + " >= " + FormatValue(value), nil
	default:
		return "", ErrUnknownOperator
	}
}

// sortedKeys возвращает отсортированные ключи map-а:
// детерминированный порядок условий и присваиваний.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
