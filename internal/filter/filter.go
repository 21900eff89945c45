// Package filter selects subsets of a model with conjunctive predicates over
// descriptor fields. Predicates are a closed union of (field, operator,
// value) triples; within one filter they combine with logical AND. There is
// no OR or NOT: independently-authored conditions compose by applying one
// filter's output to the next, which is associative and order-independent.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/descry/internal/model"
)

// ErrBadPredicate reports an unknown field or operator in textual form.
var ErrBadPredicate = errors.New("bad filter predicate")

// Field enumerates the descriptor fields a predicate can target.
type Field uint8

const (
	FieldPath Field = iota
	FieldSource
	FieldFoundType
	FieldDescriptiveType
	FieldDescription
	FieldUnique
	FieldDefault
	FieldRegex
)

var fieldNames = map[string]Field{
	"path":            FieldPath,
	"source":          FieldSource,
	"foundType":       FieldFoundType,
	"descriptiveType": FieldDescriptiveType,
	"description":     FieldDescription,
	"unique":          FieldUnique,
	"default":         FieldDefault,
	"regex":           FieldRegex,
}

// Op enumerates the predicate operators. All string operators are exact and
// case-sensitive over the field's textual representation.
type Op uint8

const (
	OpExact Op = iota
	OpStartsWith
	OpEndsWith
	OpContains
	// OpIsNull tests for absence of the field (never set), not for falsy
	// emptiness of a present value.
	OpIsNull
)

var opNames = map[string]Op{
	"exact":      OpExact,
	"startswith": OpStartsWith,
	"endswith":   OpEndsWith,
	"contains":   OpContains,
	"isnull":     OpIsNull,
}

// Predicate is one (field, operator, value) condition.
type Predicate struct {
	Field Field
	Op    Op
	Value string
}

// Where builds a predicate.
func Where(f Field, op Op, value string) Predicate {
	return Predicate{Field: f, Op: op, Value: value}
}

// ParseArg decodes the textual `field__op` / value form used on the command
// line, e.g. ("descriptiveType__exact", "https://schema.org/URL").
func ParseArg(fieldOp, value string) (Predicate, error) {
	idx := strings.LastIndex(fieldOp, "__")
	if idx < 0 {
		return Predicate{}, fmt.Errorf("%w: %q, want field__op", ErrBadPredicate, fieldOp)
	}
	field, ok := fieldNames[fieldOp[:idx]]
	if !ok {
		return Predicate{}, fmt.Errorf("%w: unknown field %q", ErrBadPredicate, fieldOp[:idx])
	}
	op, ok := opNames[fieldOp[idx+2:]]
	if !ok {
		return Predicate{}, fmt.Errorf("%w: unknown operator %q", ErrBadPredicate, fieldOp[idx+2:])
	}
	return Predicate{Field: field, Op: op, Value: value}, nil
}

// Filter is an immutable conjunction of predicates.
type Filter struct {
	preds []Predicate
}

// New builds a filter from predicates.
func New(preds ...Predicate) Filter {
	return Filter{preds: append([]Predicate(nil), preds...)}
}

// And returns a new filter with p appended.
func (f Filter) And(p Predicate) Filter {
	return Filter{preds: append(append([]Predicate(nil), f.preds...), p)}
}

// Apply returns the subset of m's descriptors satisfying every predicate.
func (f Filter) Apply(m *model.Model) *model.Model {
	return m.Select(f.Match)
}

// Match reports whether every predicate holds for d.
func (f Filter) Match(d *model.Descriptor) bool {
	for _, p := range f.preds {
		if !matchOne(p, d) {
			return false
		}
	}
	return true
}

func matchOne(p Predicate, d *model.Descriptor) bool {
	text, present := fieldText(p.Field, d)
	if p.Op == OpIsNull {
		want := p.Value != "false"
		return !present == want
	}
	if !present {
		return false
	}
	switch p.Op {
	case OpExact:
		return text == p.Value
	case OpStartsWith:
		return strings.HasPrefix(text, p.Value)
	case OpEndsWith:
		return strings.HasSuffix(text, p.Value)
	case OpContains:
		return strings.Contains(text, p.Value)
	default:
		return false
	}
}

// fieldText returns the textual representation of a descriptor field and
// whether the field is set at all. foundType renders each observed kind on
// its own, so `contains` works per category name.
func fieldText(f Field, d *model.Descriptor) (string, bool) {
	switch f {
	case FieldPath:
		return d.Address.String(), true
	case FieldSource:
		return d.Source, d.Source != ""
	case FieldFoundType:
		if len(d.FoundTypes) == 0 {
			return "", false
		}
		names := make([]string, len(d.FoundTypes))
		for i, k := range d.FoundTypes {
			names[i] = k.String()
		}
		return strings.Join(names, ","), true
	case FieldDescriptiveType:
		return d.DescriptiveType, d.DescriptiveType != ""
	case FieldDescription:
		return d.Description, d.Description != ""
	case FieldUnique:
		if d.Unique == nil {
			return "", false
		}
		if *d.Unique {
			return "true", true
		}
		return "false", true
	case FieldDefault:
		if d.Default == nil {
			return "", false
		}
		return fmt.Sprint(d.Default), true
	case FieldRegex:
		return d.Regex, d.Regex != ""
	default:
		return "", false
	}
}
