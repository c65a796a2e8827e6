// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package models

import (
	"path"
	"strings"
)

// Stage names a lake zone. Each zone owns a key prefix and an event topic.
type Stage string

const (
	StageRaw      Stage = "raw"
	StageFormated Stage = "formated"
	StageCurated  Stage = "curated"
)

// Stages lists the zones in pipeline order.
var Stages = []Stage{StageRaw, StageFormated, StageCurated}

// Prefix returns the object key prefix of the zone, e.g. "data/raw/".
func (s Stage) Prefix() string {
	return "data/" + string(s) + "/"
}

// Topic returns the event subject storage events for the zone go to.
func (s Stage) Topic() string {
	return "lake." + string(s)
}

// Key returns the object key of name inside the zone.
func (s Stage) Key(name string) string {
	return s.Prefix() + name
}

// ParseStage maps a stage name to a Stage.
func ParseStage(name string) (Stage, bool) {
	for _, s := range Stages {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// StageForKey returns the zone whose prefix key falls under.
func StageForKey(key string) (Stage, bool) {
	for _, s := range Stages {
		if strings.HasPrefix(key, s.Prefix()) {
			return s, true
		}
	}
	return "", false
}

// IsPlaceholderKey reports keys that only keep a prefix alive in the
// bucket: directory markers and .dummy files.
func IsPlaceholderKey(key string) bool {
	return key == "" || strings.HasSuffix(key, "/") || path.Base(key) == ".dummy"
}
