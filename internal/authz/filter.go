// Copyright 2026 The Lumina Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package authz

import (
	"fmt"
	"strings"
)

// FilterType is the scope a stored rule grants.
type FilterType string

const (
	FilterTypeOwn FilterType = "OWN"
	FilterTypeAll FilterType = "ALL"
)

// ParseFilterType accepts the stored values, case-insensitively.
func ParseFilterType(s string) (FilterType, error) {
	switch FilterType(strings.ToUpper(strings.TrimSpace(s))) {
	case FilterTypeOwn:
		return FilterTypeOwn, nil
	case FilterTypeAll:
		return FilterTypeAll, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFilterType, s)
}

// Valid reports whether t is one of the stored values.
func (t FilterType) Valid() bool {
	return t == FilterTypeOwn || t == FilterTypeAll
}

// Effective maps a stored type onto the effective filter order. Anything
// unrecognised grants nothing.
func (t FilterType) Effective() EffectiveFilter {
	switch t {
	case FilterTypeAll:
		return All
	case FilterTypeOwn:
		return Own
	}
	return Denied
}

// EffectiveFilter is the resolved data scope, ordered Denied < Own < All.
type EffectiveFilter int

const (
	Denied EffectiveFilter = iota
	Own
	All
)

func (f EffectiveFilter) String() string {
	switch f {
	case Own:
		return "OWN"
	case All:
		return "ALL"
	}
	return "DENIED"
}

// Allowed reports whether the filter grants any access.
func (f EffectiveFilter) Allowed() bool {
	return f > Denied
}

func (f EffectiveFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *EffectiveFilter) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "DENIED":
		*f = Denied
	case "OWN":
		*f = Own
	case "ALL":
		*f = All
	default:
		return fmt.Errorf("unknown effective filter %q", string(b))
	}
	return nil
}

// Combine returns the more permissive of a and b.
func Combine(a, b EffectiveFilter) EffectiveFilter {
	if a > b {
		return a
	}
	return b
}

// Reduce folds every rule with Combine. No rules means Denied.
func Reduce(types []FilterType) EffectiveFilter {
	result := Denied
	for _, t := range types {
		result = Combine(result, t.Effective())
		if result == All {
			break
		}
	}
	return result
}
