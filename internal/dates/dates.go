// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package dates converts spreadsheet and free-form date cells to unix seconds.
package dates

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ExcelEpoch is 1899-12-30T00:00:00Z, serial day zero in spreadsheet dates.
const ExcelEpoch int64 = -2209161600

const secondsPerDay = 86400

// ErrEmpty is returned by ParseToUnix for a blank value.
var ErrEmpty = errors.New("dates: empty value")

// ExcelSerialToUnix converts a spreadsheet serial day number to unix
// seconds. Fractional days carry the time of day; the result is floored.
func ExcelSerialToUnix(serial float64) int64 {
	return ExcelEpoch + int64(math.Floor(serial*secondsPerDay))
}

// ParseToUnix parses a free-form date string as UTC and truncates it to
// whole seconds.
func ParseToUnix(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t.Unix(), nil
}

// ToUnix converts one cell: numeric values are spreadsheet serials, other
// strings go through the free-form parser.
func ToUnix(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("parse date %q: not a finite serial", s)
		}
		return ExcelSerialToUnix(f), nil
	}
	return ParseToUnix(s)
}

// NormalizeRow rewrites the cells at cols to unix seconds in place using
// ToUnix. Empty cells are left untouched. Cells that cannot be parsed are
// cleared and their positions returned so the caller can report them.
func NormalizeRow(row []string, cols []int) []int {
	return NormalizeRowWith(row, cols, ToUnix)
}

// NormalizeRowWith is NormalizeRow with a caller-chosen parser. Text exports
// use ParseToUnix, since their cells never hold spreadsheet serials.
func NormalizeRowWith(row []string, cols []int, parse func(string) (int64, error)) []int {
	var bad []int
	for _, i := range cols {
		if i < 0 || i >= len(row) || strings.TrimSpace(row[i]) == "" {
			continue
		}
		ts, err := parse(row[i])
		if err != nil {
			row[i] = ""
			bad = append(bad, i)
			continue
		}
		row[i] = strconv.FormatInt(ts, 10)
	}
	return bad
}
