// Package validation enforces field-level rules on records before they are persisted.
package validation

import (
	"sort"
	"strings"
)

// Messages attached to fields.
const (
	MsgBlank     = "can't be blank"
	MsgMustExist = "must exist"
	MsgTaken     = "has already been taken"
	MsgInvalid   = "is invalid"
	MsgBadDate   = "is not a valid date"
)

// Errors maps a field name to its human-readable messages.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	for _, m := range e[field] {
		if m == message {
			return
		}
	}
	e[field] = append(e[field], message)
}

// Get returns the messages for field.
func (e Errors) Get(field string) []string {
	return e[field]
}

// Has reports whether field has at least one message.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Merge copies all messages from other into e.
func (e Errors) Merge(other Errors) {
	for field, msgs := range other {
		for _, m := range msgs {
			e.Add(field, m)
		}
	}
}

// Err returns e as an error, or nil when there are no messages.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	return "validation failed: " + strings.Join(e.FullMessages(), "; ")
}

// FullMessages returns "Field message" strings ordered by field name.
func (e Errors) FullMessages() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var out []string
	for _, f := range fields {
		for _, m := range e[f] {
			out = append(out, humanize(f)+" "+m)
		}
	}
	return out
}

// humanize turns "first_name" into "First name".
func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
