package sqlcommand

import "strings"

// Field — дескриптор персистентного поля сущности:
// имя в camelCase и колонка в snake_case.
type Field struct {
	Name   string
	Column string
}

// Table — явная таблица дескрипторов полей сущности.
// Заменяет рантайм-рефлексию: транзиентные поля (проекции авторов,
// рабочий контекст) в дескриптор просто не включаются и в SQL
// не попадают. Порядок полей фиксирует порядок колонок в SELECT
// и INSERT, поэтому должен совпадать с порядком сканирования строк.
type Table struct {
	// Name — имя таблицы в БД.
	Name string
	// Fields — персистентные поля в объявленном порядке.
	// Первым ожидается генерируемое поле "id".
	Fields []Field
}

// NewTable создаёт дескриптор таблицы из имён полей в camelCase.
func NewTable(name string, fieldNames ...string) Table {
	fields := make([]Field, 0, len(fieldNames))
	for _, fn := range fieldNames {
		fields = append(fields, Field{Name: fn, Column: CamelToSnake(fn)})
	}
	return Table{Name: name, Fields: fields}
}

// Columns возвращает колонки в объявленном порядке.
func (t Table) Columns() []string {
	columns := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		columns = append(columns, f.Column)
	}
	return columns
}

// HasField сообщает, объявлено ли поле в дескрипторе.
func (t Table) HasField(name string) bool {
	for _, f := range t.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// CamelToSnake переводит camelCase в snake_case: loginId → login_id.
// Ведущий '-' (признак сортировки по убыванию) сохраняется.
func CamelToSnake(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// wrapIdentifier заключает идентификатор в двойные кавычки PostgreSQL.
func wrapIdentifier(identifier string) string {
	return `"` + identifier + `"`
}
