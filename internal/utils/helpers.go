package utils

import (
	"database/sql"
	"strings"
	"time"
)

// Patch carries an optional update to a nullable field: Set reports whether
// the caller supplied the field at all, Value is nil to clear it.
type Patch[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Patch that assigns v.
func SetTo[T any](v T) Patch[T] { return Patch[T]{Set: true, Value: &v} }

// Clear returns a Patch that nulls the field.
func Clear[T any]() Patch[T] { return Patch[T]{Set: true} }

func StrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// TrimmedOrNil trims s and returns nil when nothing is left.
func TrimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func Ptr[T any](v T) *T { return &v }

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// FormatYMD renders a date-only value, or nil.
func FormatYMD(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format("2006-01-02")
	return &s
}

// NullString converts a nullable column into a pointer.
func NullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// NullTime converts a nullable column into a pointer in UTC.
func NullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// NullableArg turns a nil pointer into a SQL NULL argument.
func NullableArg[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
