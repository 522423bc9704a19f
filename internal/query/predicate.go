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

// Package query builds parameterised PostgreSQL SELECT statements and scopes
// them by the authorization decision carried on the request context.
package query

import (
	"reflect"
	"strconv"
	"strings"
)

// Row is a column-to-value view of one record, used to evaluate predicates
// outside the database.
type Row map[string]any

// Args collects positional arguments while a statement is rendered.
type Args struct {
	values []any
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

func (a *Args) Values() []any {
	return a.values
}

// Predicate is a boolean SQL condition that can also be evaluated in memory.
type Predicate interface {
	SQL(args *Args) string
	Eval(row Row) bool
}

type constant bool

// True matches every row.
func True() Predicate { return constant(true) }

// False matches no row.
func False() Predicate { return constant(false) }

func (c constant) SQL(*Args) string {
	if c {
		return "TRUE"
	}
	return "FALSE"
}

func (c constant) Eval(Row) bool { return bool(c) }

type eq struct {
	column string
	value  any
}

// Eq matches rows whose column equals value.
func Eq(column string, value any) Predicate {
	return eq{column: column, value: value}
}

func (p eq) SQL(args *Args) string {
	return p.column + " = " + args.Add(p.value)
}

func (p eq) Eval(row Row) bool {
	v, ok := row[p.column]
	return ok && reflect.DeepEqual(v, p.value)
}

type in struct {
	column string
	values []any
}

// In matches rows whose column equals any of values. An empty list matches nothing.
func In[T any](column string, values ...T) Predicate {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return in{column: column, values: vs}
}

func (p in) SQL(args *Args) string {
	if len(p.values) == 0 {
		return "FALSE"
	}
	placeholders := make([]string, len(p.values))
	for i, v := range p.values {
		placeholders[i] = args.Add(v)
	}
	return p.column + " IN (" + strings.Join(placeholders, ", ") + ")"
}

func (p in) Eval(row Row) bool {
	v, ok := row[p.column]
	if !ok {
		return false
	}
	for _, want := range p.values {
		if reflect.DeepEqual(v, want) {
			return true
		}
	}
	return false
}

type junction struct {
	op    string
	terms []Predicate
}

// And matches rows satisfying every term. And() is True.
func And(terms ...Predicate) Predicate {
	return junction{op: "AND", terms: terms}
}

// Or matches rows satisfying at least one term. Or() is False.
func Or(terms ...Predicate) Predicate {
	return junction{op: "OR", terms: terms}
}

func (j junction) SQL(args *Args) string {
	switch len(j.terms) {
	case 0:
		return constant(j.op == "AND").SQL(args)
	case 1:
		return j.terms[0].SQL(args)
	}
	parts := make([]string, len(j.terms))
	for i, t := range j.terms {
		parts[i] = t.SQL(args)
	}
	return "(" + strings.Join(parts, " "+j.op+" ") + ")"
}

func (j junction) Eval(row Row) bool {
	if j.op == "AND" {
		for _, t := range j.terms {
			if !t.Eval(row) {
				return false
			}
		}
		return true
	}
	for _, t := range j.terms {
		if t.Eval(row) {
			return true
		}
	}
	return false
}
