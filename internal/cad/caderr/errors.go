// Package caderr holds the error taxonomy shared by the bridge layers.
// Every message is written for an automated caller: it names the offending
// value and, when known, the valid alternatives.
package caderr

import (
	"errors"
	"fmt"
	"strings"
)

// maxListed caps how many alternatives are echoed back in a message.
const maxListed = 10

// ============================================================
// Not found
// ============================================================

type NotFoundError struct {
	Kind      string // "Document", "Object", "Sketch", "Base object", ...
	Name      string
	Scope     string // owning document, empty for documents
	Available []string
	// NoneHint is appended when Available is empty.
	NoneHint string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s '%s' not found", e.Kind, e.Name)
	if e.Scope != "" {
		fmt.Fprintf(&b, " in document '%s'", e.Scope)
	}
	b.WriteString(".")
	if len(e.Available) > 0 {
		fmt.Fprintf(&b, " Available %s: %s", availableLabel(e.Kind), JoinLimited(e.Available, maxListed))
	} else if e.NoneHint != "" {
		b.WriteString(" " + e.NoneHint)
	}
	return b.String()
}

func availableLabel(kind string) string {
	if kind == "Document" {
		return "documents"
	}
	return "objects"
}

func DocumentNotFound(name string, available []string) error {
	return &NotFoundError{
		Kind:      "Document",
		Name:      name,
		Available: available,
		NoneHint:  "No documents are currently open.",
	}
}

func ObjectNotFound(kind, name, doc string, available []string) error {
	return &NotFoundError{Kind: kind, Name: name, Scope: doc, Available: available}
}

// ============================================================
// Already exists
// ============================================================

type ExistsError struct {
	Name     string
	Document string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("Object '%s' already exists in document '%s'.", e.Name, e.Document)
}

// ============================================================
// Reference resolution
// ============================================================

type ReferenceError struct {
	Name      string
	Available []string
}

func (e *ReferenceError) Error() string {
	msg := fmt.Sprintf("Referenced object '%s' not found.", e.Name)
	if len(e.Available) > 0 {
		msg += " Available objects: " + JoinLimited(e.Available, maxListed)
	}
	return msg
}

// ============================================================
// Validation
// ============================================================

type ValidationError struct {
	Field   string
	Value   any
	Allowed []string
	Detail  string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("Invalid %s '%v'.", e.Field, e.Value)
	if len(e.Allowed) > 0 {
		msg += " Must be one of: " + strings.Join(e.Allowed, ", ") + "."
	}
	if e.Detail != "" {
		msg += " " + e.Detail
	}
	return msg
}

func Invalid(field string, value any, allowed ...string) error {
	return &ValidationError{Field: field, Value: value, Allowed: allowed}
}

// ============================================================
// Capability
// ============================================================

type CapabilityError struct {
	Capability string
	Guidance   string
	Available  []string
}

func (e *CapabilityError) Error() string {
	msg := fmt.Sprintf("%s not found.", e.Capability)
	if e.Guidance != "" {
		msg += " " + e.Guidance
	}
	if len(e.Available) > 0 {
		msg += " Available: " + strings.Join(e.Available, ", ")
	}
	return msg
}

// ============================================================
// Helpers
// ============================================================

// JoinLimited joins up to limit names and marks truncation with "...".
func JoinLimited(names []string, limit int) string {
	if len(names) <= limit {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:limit], ", ") + "..."
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
