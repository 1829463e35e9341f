package sqlcommand

import (
	"errors"
	"testing"
)

func testTable() Table {
	return NewTable("admins", "id", "loginId", "name", "useFlag", "removedFlag")
}

func intPtr(v int) *int { return &v }

func TestCountByMap(t *testing.T) {
	cmd := New(testTable())

	// Пустой фильтр допустим — подсчёт всей таблицы.
	sql, err := cmd.CountByMap(nil)
	if err != nil {
		t.Fatalf("CountByMap(nil) ошибка: %v", err)
	}
	if sql != `SELECT COUNT(1) FROM "admins"` {
		t.Errorf("CountByMap(nil) = %q", sql)
	}

	sql, err = cmd.CountByMap(map[string]any{"removedFlag": false, "useFlag": true})
	if err != nil {
		t.Fatalf("CountByMap() ошибка: %v", err)
	}
	want := `SELECT COUNT(1) FROM "admins" WHERE "removed_flag" = false AND "use_flag" = true`
	if sql != want {
		t.Errorf("CountByMap() = %q,\nожидается   %q", sql, want)
	}
}

func TestSelect_AllColumns(t *testing.T) {
	cmd := New(testTable())

	sql, err := cmd.Select(nil, nil, map[string]any{"removedFlag": false}, []string{"-id"}, intPtr(20), intPtr(40))
	if err != nil {
		t.Fatalf("Select() ошибка: %v", err)
	}
	want := `SELECT "id", "login_id", "name", "use_flag", "removed_flag" FROM "admins"` +
		` WHERE "removed_flag" = false ORDER BY "id" DESC LIMIT 20 OFFSET 40`
	if sql != want {
		t.Errorf("Select() = %q,\nожидается %q", sql, want)
	}
}

func TestSelect_Projection(t *testing.T) {
	cmd := New(testTable())

	// distinct-колонки + target-колонки без дублей.
	sql, err := cmd.Select([]string{"id"}, []string{"id", "loginId", "name"},
		map[string]any{"id:in": Set{int64(1), int64(2)}}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Select() ошибка: %v", err)
	}
	want := `SELECT DISTINCT "id", "login_id", "name" FROM "admins" WHERE "id" IN (1, 2)`
	if sql != want {
		t.Errorf("Select() = %q,\nожидается %q", sql, want)
	}
}

func TestSelect_MultipleOrderBy(t *testing.T) {
	cmd := New(testTable())

	sql, err := cmd.Select(nil, nil, nil, []string{"name", "-loginId"}, nil, nil)
	if err != nil {
		t.Fatalf("Select() ошибка: %v", err)
	}
	if want := ` ORDER BY "name", "login_id" DESC`; sql[len(sql)-len(want):] != want {
		t.Errorf("Select() = %q, ожидается суффикс %q", sql, want)
	}
}

func TestSelectByMap(t *testing.T) {
	cmd := New(testTable())

	if _, err := cmd.SelectByMap(nil); !errors.Is(err, ErrWhereRequired) {
		t.Errorf("SelectByMap(nil): ожидается ErrWhereRequired, получили %v", err)
	}

	sql, err := cmd.SelectByMap(map[string]any{"loginId": "admin01"})
	if err != nil {
		t.Fatalf("SelectByMap() ошибка: %v", err)
	}
	want := `SELECT "id", "login_id", "name", "use_flag", "removed_flag" FROM "admins" WHERE "login_id" = 'admin01'`
	if sql != want {
		t.Errorf("SelectByMap() = %q", sql)
	}
}

func TestInsert(t *testing.T) {
	cmd := New(testTable())

	sql, err := cmd.Insert(map[string]any{
		"id":          int64(99), // генерируемое поле пропускается
		"loginId":     "admin01",
		"name":        "Админ",
		"useFlag":     true,
		"removedFlag": false,
	})
	if err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	want := `INSERT INTO "admins" ("login_id", "name", "use_flag", "removed_flag")` +
		` VALUES ('admin01', 'Админ', true, false) RETURNING "id"`
	if sql != want {
		t.Errorf("Insert() = %q,\nожидается %q", sql, want)
	}
}

func TestInsert_MissingValuesBecomeNull(t *testing.T) {
	cmd := New(testTable())

	sql, err := cmd.Insert(map[string]any{"loginId": "a"})
	if err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	want := `INSERT INTO "admins" ("login_id", "name", "use_flag", "removed_flag")` +
		` VALUES ('a', null, null, null) RETURNING "id"`
	if sql != want {
		t.Errorf("Insert() = %q", sql)
	}
}

func TestInsertBatch(t *testing.T) {
	cmd := New(testTable())

	sql, err := cmd.InsertBatch([]map[string]any{
		{"loginId": "a", "name": "A", "useFlag": true, "removedFlag": false},
		{"loginId": "b", "name": "B", "useFlag": false, "removedFlag": false},
	})
	if err != nil {
		t.Fatalf("InsertBatch() ошибка: %v", err)
	}
	want := `INSERT INTO "admins" ("login_id", "name", "use_flag", "removed_flag")` +
		` VALUES ('a', 'A', true, false), ('b', 'B', false, false) RETURNING "id"`
	if sql != want {
		t.Errorf("InsertBatch() = %q,\nожидается %q", sql, want)
	}

	if _, err := cmd.InsertBatch(nil); !errors.Is(err, ErrEmptyEntities) {
		t.Errorf("InsertBatch(nil): ожидается ErrEmptyEntities, получили %v", err)
	}
}

func TestUpdateMapByMap(t *testing.T) {
	cmd := New(testTable())

	sql, err := cmd.UpdateMapByMap(
		map[string]any{"name": "Новый", "useFlag": false},
		map[string]any{"id": int64(5)},
	)
	if err != nil {
		t.Fatalf("UpdateMapByMap() ошибка: %v", err)
	}
	want := `UPDATE "admins" SET "name" = 'Новый', "use_flag" = false WHERE "id" = 5`
	if sql != want {
		t.Errorf("UpdateMapByMap() = %q,\nожидается %q", sql, want)
	}
}

func TestUpdateMapByMap_SkipsTransientFields(t *testing.T) {
	cmd := New(testTable())

	// Поля вне дескриптора и "id" в SET не попадают.
	sql, err := cmd.UpdateMapByMap(
		map[string]any{"id": int64(7), "name": "X", "creator": "транзиентное"},
		map[string]any{"id": int64(7)},
	)
	if err != nil {
		t.Fatalf("UpdateMapByMap() ошибка: %v", err)
	}
	want := `UPDATE "admins" SET "name" = 'X' WHERE "id" = 7`
	if sql != want {
		t.Errorf("UpdateMapByMap() = %q", sql)
	}
}

func TestUpdateMapByMap_RequiresWhere(t *testing.T) {
	cmd := New(testTable())
	if _, err := cmd.UpdateMapByMap(map[string]any{"name": "X"}, nil); !errors.Is(err, ErrWhereRequired) {
		t.Errorf("ожидается ErrWhereRequired, получили %v", err)
	}
}

func TestDeleteByMap(t *testing.T) {
	cmd := New(testTable())

	sql, err := cmd.DeleteByMap(map[string]any{"id": int64(3)})
	if err != nil {
		t.Fatalf("DeleteByMap() ошибка: %v", err)
	}
	if sql != `DELETE FROM "admins" WHERE "id" = 3` {
		t.Errorf("DeleteByMap() = %q", sql)
	}

	if _, err := cmd.DeleteByMap(nil); !errors.Is(err, ErrWhereRequired) {
		t.Errorf("DeleteByMap(nil): ожидается ErrWhereRequired, получили %v", err)
	}
}

func TestWhereOperators(t *testing.T) {
	cmd := New(testTable())

	tests := []struct {
		name  string
		where map[string]any
		want  string
	}{
		{"eq", map[string]any{"name": "A"}, `"name" = 'A'`},
		{"ne", map[string]any{"name:ne": "A"}, `"name" <> 'A'`},
		{"not", map[string]any{"name:not": "A"}, `"name" <> 'A'`},
		{"in", map[string]any{"id:in": Set{int64(1), int64(2)}}, `"id" IN (1, 2)`},
		{"notIn", map[string]any{"id:notIn": Set{int64(1)}}, `"id" NOT IN (1)`},
		{"null", map[string]any{"name:null": nil}, `"name" IS NULL`},
		{"notNull", map[string]any{"name:notNull": nil}, `"name" IS NOT NULL`},
		{"contains", map[string]any{"name:contains": "ad"}, `POSITION('ad' IN "name") > 0`},
		{"notContains", map[string]any{"name:notContains": "ad"}, `POSITION('ad' IN "name") = 0`},
		{"startsWith", map[string]any{"name:startsWith": "ad"}, `POSITION('ad' IN "name") = 1`},
		{"endsWith", map[string]any{"name:endsWith": "01"}, `RIGHT("name", LENGTH('01')) = '01'`},
		{"lt", map[string]any{"id:lt": int64(5)}, `"id" < 5`},
		{"lte", map[string]any{"id:lte": int64(5)}, `"id" <= 5`},
		{"gt", map[string]any{"id:gt": int64(5)}, `"id" > 5`},
		{"gte", map[string]any{"id:gte": int64(5)}, `"id" >= 5`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, err := cmd.CountByMap(tt.where)
			if err != nil {
				t.Fatalf("CountByMap() ошибка: %v", err)
			}
			want := `SELECT COUNT(1) FROM "admins" WHERE ` + tt.want
			if sql != want {
				t.Errorf("условие = %q, ожидается %q", sql, want)
			}
		})
	}
}

func TestWhereErrors(t *testing.T) {
	cmd := New(testTable())

	if _, err := cmd.CountByMap(map[string]any{"id:in": Set{}}); !errors.Is(err, ErrEmptyInSet) {
		t.Errorf("пустой Set: ожидается ErrEmptyInSet, получили %v", err)
	}
	if _, err := cmd.CountByMap(map[string]any{"id:in": []int64{1}}); !errors.Is(err, ErrInRequiresSet) {
		t.Errorf("срез вместо Set: ожидается ErrInRequiresSet, получили %v", err)
	}
	if _, err := cmd.CountByMap(map[string]any{"id:between": 1}); !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("неизвестный оператор: ожидается ErrUnknownOperator, получили %v", err)
	}
}
