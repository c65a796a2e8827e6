// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package models

import "time"

// Outcome is the terminal state of one processed record.
type Outcome string

const (
	OutcomeWritten Outcome = "written"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result reports what happened to one notification record.
type Result struct {
	Key       string   `json:"key"`
	Outcome   Outcome  `json:"outcome"`
	Reason    string   `json:"reason,omitempty"`
	Err       error    `json:"-"`
	Error     string   `json:"error,omitempty"`
	Artifacts []string `json:"artifacts,omitempty"`
}

// Written reports a record whose output artifacts (or store rows) were written.
func Written(key string, artifacts ...string) Result {
	return Result{Key: key, Outcome: OutcomeWritten, Artifacts: artifacts}
}

// Skipped reports a record that was deliberately not processed.
func Skipped(key, reason string) Result {
	return Result{Key: key, Outcome: OutcomeSkipped, Reason: reason}
}

// Failed reports a record whose processing returned an error.
func Failed(key string, err error) Result {
	r := Result{Key: key, Outcome: OutcomeFailed, Err: err}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// WriteReport counts what the curated writer did with a set of rows.
type WriteReport struct {
	Written    int `json:"written"`
	Skipped    int `json:"skipped"`
	Dropped    int `json:"dropped"`
	Unresolved int `json:"unresolved"`
	Failed     int `json:"failed"`
}

// Merge adds other into r.
func (r *WriteReport) Merge(other WriteReport) {
	r.Written += other.Written
	r.Skipped += other.Skipped
	r.Dropped += other.Dropped
	r.Unresolved += other.Unresolved
	r.Failed += other.Failed
}

// Summary aggregates the results of one stage invocation.
type Summary struct {
	Stage     string        `json:"stage"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Results   []Result      `json:"results"`
	Written   int           `json:"written"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Records   WriteReport   `json:"records"`
}

// Add appends r and updates the outcome counters.
func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeWritten:
		s.Written++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}
