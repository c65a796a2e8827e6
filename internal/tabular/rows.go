// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"strings"
)

// Delimiters used by lake files.
const (
	Comma = ','
	Tab   = '\t'
)

// ErrEmpty is returned when a body has no header line.
var ErrEmpty = errors.New("tabular: empty file")

// Option adjusts how Split reads a body.
type Option func(*reader)

// StripQuotedCommas removes commas that sat inside quoted fields. The user
// export quotes free-text columns that contain commas.
func StripQuotedCommas() Option {
	return func(r *reader) { r.stripCommas = true }
}

type reader struct {
	csv         *csv.Reader
	delim       rune
	stripCommas bool
	err         error
}

// Split reads the header line of body and returns it with a sequence over
// the remaining rows. The sequence is lazy and single-pass: it reads from
// the same underlying reader and cannot be restarted. Blank lines are
// skipped, and both \n and \r\n terminators are accepted. The index passed
// to the caller is the zero-based data row number.
func Split(body []byte, delim rune, opts ...Option) ([]string, iter.Seq2[int, []string], error) {
	r := &reader{delim: delim}
	for _, opt := range opts {
		opt(r)
	}
	r.csv = csv.NewReader(bytes.NewReader(body))
	r.csv.Comma = delim
	r.csv.LazyQuotes = true
	r.csv.FieldsPerRecord = -1
	r.csv.ReuseRecord = false

	header, ok := r.next()
	if !ok {
		if r.err != nil {
			return nil, nil, r.err
		}
		return nil, nil, ErrEmpty
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	seq := func(yield func(int, []string) bool) {
		for i := 0; ; i++ {
			row, ok := r.next()
			if !ok {
				return
			}
			if !yield(i, row) {
				return
			}
		}
	}
	return header, seq, nil
}

// next returns the next non-blank record.
func (r *reader) next() ([]string, bool) {
	for {
		rec, err := r.csv.Read()
		if err == io.EOF {
			return nil, false
		}
		if err != nil {
			r.err = err
			return nil, false
		}
		if blank(rec) {
			continue
		}
		if r.stripCommas && r.delim == Comma {
			for i, f := range rec {
				rec[i] = strings.ReplaceAll(f, ",", "")
			}
		}
		return rec, true
	}
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
