// Package gems models the expedition gem inventory: per-level counts
// spread across storage columns, market prices per level, and the
// derived value totals. Like the checklist state, everything here is a
// pure function over a value-copied Sheet; the caller persists it.
package gems

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Levels lists the tracked gem levels, highest first.
var Levels = []int{10, 9, 8, 7}

// DefaultColumns is the initial column set: the shared storage plus one
// slot per roster character.
var DefaultColumns = []string{
	"Storage",
	"Character 1", "Character 2", "Character 3",
	"Character 4", "Character 5", "Character 6",
	"Character 7", "Character 8", "Character 9",
}

var ErrDuplicateColumn = errors.New("column already exists")

// Sheet is the whole gem inventory. Counts maps level -> column -> count.
type Sheet struct {
	Columns []string               `json:"columns"`
	Counts  map[int]map[string]int `json:"counts"`
	Prices  map[int]float64        `json:"prices"`
}

// DefaultSheet returns an empty inventory over the default columns.
func DefaultSheet() Sheet {
	return Normalize(Sheet{Columns: append([]string(nil), DefaultColumns...)})
}

// Normalize backfills missing level maps, clamps negatives, and drops
// counts for columns that no longer exist. A sheet without columns gets
// the defaults.
func Normalize(s Sheet) Sheet {
	if len(s.Columns) == 0 {
		s.Columns = append([]string(nil), DefaultColumns...)
	}

	known := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		known[c] = true
	}

	counts := make(map[int]map[string]int, len(Levels))
	prices := make(map[int]float64, len(Levels))
	for _, lvl := range Levels {
		row := make(map[string]int, len(s.Columns))
		for col, n := range s.Counts[lvl] {
			if known[col] && n > 0 {
				row[col] = n
			}
		}
		counts[lvl] = row
		if p := s.Prices[lvl]; p > 0 {
			prices[lvl] = p
		}
	}
	s.Counts = counts
	s.Prices = prices
	return s
}

// DecodeSheet parses a stored inventory, normalizing whatever it finds.
func DecodeSheet(data []byte) (Sheet, error) {
	var s Sheet
	if err := json.Unmarshal(data, &s); err != nil {
		return Sheet{}, fmt.Errorf("parse gem sheet: %w", err)
	}
	return Normalize(s), nil
}

// EncodeSheet serializes the inventory for storage.
func EncodeSheet(s Sheet) ([]byte, error) {
	return json.Marshal(s)
}

// Count returns the stored count for (level, column).
func Count(s Sheet, level int, column string) int {
	return s.Counts[level][column]
}

// Price returns the market price set for a level, zero if unset.
func Price(s Sheet, level int) float64 {
	return s.Prices[level]
}

// SetCount records a count, clamped at zero. Unknown levels and columns
// are ignored.
func SetCount(s Sheet, level int, column string, n int) Sheet {
	if !hasLevel(level) || !hasColumn(s, column) {
		return s
	}
	if n < 0 {
		n = 0
	}
	counts := copyCounts(s.Counts)
	if n == 0 {
		delete(counts[level], column)
	} else {
		counts[level][column] = n
	}
	s.Counts = counts
	return s
}

// SetPrice records a level's market price, clamped at zero.
func SetPrice(s Sheet, level int, p float64) Sheet {
	if !hasLevel(level) {
		return s
	}
	if p < 0 {
		p = 0
	}
	prices := make(map[int]float64, len(s.Prices)+1)
	for k, v := range s.Prices {
		prices[k] = v
	}
	if p == 0 {
		delete(prices, level)
	} else {
		prices[level] = p
	}
	s.Prices = prices
	return s
}

// AddColumn appends a new empty column.
func AddColumn(s Sheet, name string) (Sheet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s, errors.New("column name is empty")
	}
	if hasColumn(s, name) {
		return s, ErrDuplicateColumn
	}
	s.Columns = append(append([]string(nil), s.Columns...), name)
	return s, nil
}

// RenameColumn renames a column, carrying its counts over.
func RenameColumn(s Sheet, oldName, newName string) (Sheet, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return s, errors.New("column name is empty")
	}
	if newName == oldName {
		return s, nil
	}
	if hasColumn(s, newName) {
		return s, ErrDuplicateColumn
	}

	columns := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		if c == oldName {
			columns[i] = newName
		} else {
			columns[i] = c
		}
	}
	s.Columns = columns

	counts := copyCounts(s.Counts)
	for _, lvl := range Levels {
		if n, ok := counts[lvl][oldName]; ok {
			counts[lvl][newName] = n
			delete(counts[lvl], oldName)
		}
	}
	s.Counts = counts
	return s, nil
}

// DeleteColumn removes a column and its counts.
func DeleteColumn(s Sheet, name string) Sheet {
	columns := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c != name {
			columns = append(columns, c)
		}
	}
	s.Columns = columns

	counts := copyCounts(s.Counts)
	for _, lvl := range Levels {
		delete(counts[lvl], name)
	}
	s.Counts = counts
	return s
}

// ResetCounts clears every count and price, keeping the columns.
func ResetCounts(s Sheet) Sheet {
	counts := make(map[int]map[string]int, len(Levels))
	for _, lvl := range Levels {
		counts[lvl] = map[string]int{}
	}
	s.Counts = counts
	s.Prices = map[int]float64{}
	return s
}

// SumByLevel totals the counts of one level across all columns.
func SumByLevel(s Sheet, level int) int {
	sum := 0
	for _, col := range s.Columns {
		sum += s.Counts[level][col]
	}
	return sum
}

// ValueByLevel is the level's count total multiplied by its price.
func ValueByLevel(s Sheet, level int) float64 {
	return float64(SumByLevel(s, level)) * s.Prices[level]
}

// TotalCount sums every count on the sheet.
func TotalCount(s Sheet) int {
	total := 0
	for _, lvl := range Levels {
		total += SumByLevel(s, lvl)
	}
	return total
}

// TotalValue sums the per-level values.
func TotalValue(s Sheet) float64 {
	total := 0.0
	for _, lvl := range Levels {
		total += ValueByLevel(s, lvl)
	}
	return total
}

func hasLevel(level int) bool {
	for _, lvl := range Levels {
		if lvl == level {
			return true
		}
	}
	return false
}

func hasColumn(s Sheet, name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func copyCounts(in map[int]map[string]int) map[int]map[string]int {
	out := make(map[int]map[string]int, len(Levels))
	for _, lvl := range Levels {
		row := make(map[string]int, len(in[lvl]))
		for k, v := range in[lvl] {
			row[k] = v
		}
		out[lvl] = row
	}
	return out
}
