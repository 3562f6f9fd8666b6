// Package csvtable はCSV形式の栄養リファレンステーブルをメモリ上に読み込みます。
package csvtable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
	"calorie_backend/internal/shared/foodname"
)

// 列名（大文字小文字・前後の空白は無視）
const (
	ColumnName          = "name"
	ColumnCalories      = "calories"
	ColumnProtein       = "protein"
	ColumnFat           = "fat"
	ColumnCarbohydrates = "carbohydrates"
)

// ErrMissingNameColumn はヘッダーにname列がない場合に返されます。
var ErrMissingNameColumn = errors.New("nutrition table has no name column")

// Table は正規化済み食品名をキーとする読み取り専用の栄養テーブルです。
// 構築後は変更されないため、ロックなしで並行に参照できます。
type Table struct {
	rows       []entity.NutritionRecord
	index      map[string]int
	duplicates []string
	missing    []string
}

// Tableがusecaseのインターフェースを実装していることをコンパイル時に検証します。
var (
	_ usecase.NutritionRepository = (*Table)(nil)
	_ usecase.NutritionSource     = (*Table)(nil)
)

// LoadFile はCSVファイルからTableを構築します。
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nutrition table: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load nutrition table %s: %w", path, err)
	}
	return t, nil
}

// Load はヘッダー付きCSVを読み込みます。
// 栄養値の列がない場合や数値でないセルは「不明」として扱います。
// 正規化後の名前が重複する行は、最初の行を採用します。
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingNameColumn
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := cols[h]; !ok {
			cols[h] = i
		}
	}
	nameCol, ok := cols[ColumnName]
	if !ok {
		return nil, ErrMissingNameColumn
	}

	t := &Table{index: map[string]int{}}
	for _, c := range []string{ColumnCalories, ColumnProtein, ColumnFat, ColumnCarbohydrates} {
		if _, ok := cols[c]; !ok {
			t.missing = append(t.missing, c)
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		key := foodname.Canonicalize(cell(rec, nameCol))
		if key == "" {
			continue
		}
		if _, dup := t.index[key]; dup {
			t.duplicates = append(t.duplicates, key)
			continue
		}

		t.index[key] = len(t.rows)
		t.rows = append(t.rows, entity.NutritionRecord{
			CanonicalName: key,
			Calories:      nutrient(rec, cols, ColumnCalories),
			Protein:       nutrient(rec, cols, ColumnProtein),
			Fat:           nutrient(rec, cols, ColumnFat),
			Carbohydrates: nutrient(rec, cols, ColumnCarbohydrates),
		})
	}
	return t, nil
}

// FindByCanonicalName は一致するレコードを返します。存在しない場合はusecase.ErrNutritionNotFoundを返します。
func (t *Table) FindByCanonicalName(_ context.Context, canonicalName string) (*entity.NutritionRecord, error) {
	i, ok := t.index[canonicalName]
	if !ok {
		return nil, usecase.ErrNutritionNotFound
	}
	rec := t.rows[i]
	return &rec, nil
}

// All はファイル順のすべてのレコードを返します。
func (t *Table) All() []entity.NutritionRecord {
	out := make([]entity.NutritionRecord, len(t.rows))
	copy(out, t.rows)
	return out
}

// Has は指定キーの行が存在するかを返します。
func (t *Table) Has(canonicalName string) bool {
	_, ok := t.index[canonicalName]
	return ok
}

// Len は行数を返します。
func (t *Table) Len() int {
	return len(t.rows)
}

// Duplicates は読み込み時に捨てられた重複キーを返します。
func (t *Table) Duplicates() []string {
	return t.duplicates
}

// MissingColumns はヘッダーに存在しなかった栄養値の列名を返します。
func (t *Table) MissingColumns() []string {
	return t.missing
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func nutrient(rec []string, cols map[string]int, column string) entity.Nutrient {
	i, ok := cols[column]
	if !ok {
		return entity.UnknownNutrient()
	}
	s := strings.TrimSpace(cell(rec, i))
	if s == "" {
		return entity.UnknownNutrient()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return entity.UnknownNutrient()
	}
	return entity.KnownNutrient(v)
}
