// Пакет sqlcommand — map-ориентированный построитель SQL-запросов.
// Заменяет ORM: по явной таблице дескрипторов полей сущности синтезирует
// select/count/insert/update/delete из фильтра вида «поле:оператор» → значение.
// Значения подставляются литералами через FormatValue.
package sqlcommand

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// ValueEnum — перечисление со стабильным строковым кодом для записи в БД.
type ValueEnum interface {
	Code() string
}

// Set — множество значений для условий in/notIn и set-колонок.
// В отличие от срезов форматируется без нормализации внутренних кавычек.
type Set []any

const instantLayout = "2006-01-02 15:04:05.000"

// FormatValue преобразует значение в SQL-литерал.
// Строка, распознанная как ISO-8601 instant, переформатируется
// в 'yyyy-MM-dd HH:mm:ss.SSS' (UTC); прочие строки экранируются
// удвоением одинарных кавычек. Срезы и map-ы дают JSON-подобные
// литералы. Детерминированность: ключи map-ов сортируются.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		if isISO8601String(v) {
			if instant, err := time.Parse(time.RFC3339, v); err == nil {
				return "'" + formatInstant(instant) + "'"
			}
		}
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case time.Time:
		return "'" + formatInstant(v) + "'"
	case *time.Time:
		if v == nil {
			return "null"
		}
		return "'" + formatInstant(*v) + "'"
	case ValueEnum:
		return "'" + v.Code() + "'"
	case Set:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FormatValue(item))
		}
		return "'[" + strings.Join(parts, ", ") + "]'"
	case bool:
		if v {
			return "true"
		}
		return "false"
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return FormatValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		// Списки: внутренние одинарные кавычки нормализуются в двойные,
		// получается JSON-совместимый литерал '["A", "B"]'.
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			formatted := FormatValue(rv.Index(i).Interface())
			parts = append(parts, strings.ReplaceAll(formatted, "'", `"`))
		}
		return "'[" + strings.Join(parts, ", ") + "]'"
	case reflect.Map:
		parts := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			formatted := FormatValue(iter.Value().Interface())
			formatted = strings.ReplaceAll(formatted, "'", `"`)
			parts = append(parts, `"`+fmt.Sprint(iter.Key().Interface())+`":`+formatted)
		}
		sort.Strings(parts)
		return "'{" + strings.Join(parts, ", ") + "}'"
	}

	return strings.ReplaceAll(fmt.Sprint(value), "'", "''")
}

// isISO8601String — эвристика распознавания ISO-8601 instant:
// ровно два '-', два ':', один 'T' и завершающий 'Z' либо ровно один '+'.
// Обычная строка такой же формы будет ошибочно распознана — известное
// ограничение, сохранено намеренно: от точного поведения зависят
// записанные ранее литералы.
func isISO8601String(value string) bool {
	return strings.Count(value, "-") == 2 &&
		strings.Count(value, ":") == 2 &&
		strings.Count(value, "T") == 1 &&
		(strings.HasSuffix(value, "Z") || strings.Count(value, "+") == 1)
}

// formatInstant форматирует момент времени в UTC с миллисекундами.
func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}
