package cli

import (
	"context"
	"fmt"

	"tasklync-cli/internal/form"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// formError carries the text a form put in its error slot while keeping the
// underlying error for errors.Is/As.
type formError struct {
	msg string
	err error
}

func (e formError) Error() string { return e.msg }

func (e formError) Unwrap() error { return e.err }

// submitForm fills f from values, loads it when it is an edit form, and
// submits it once. Failures report the form's inline message.
func submitForm(ctx context.Context, f *form.Form, values form.Values) (form.Result, error) {
	for k, v := range values {
		f.Set(k, v)
	}
	if !f.Ready() {
		if err := f.Load(ctx); err != nil {
			return form.Result{}, formError{msg: f.Error(), err: err}
		}
	}
	res, err := f.Submit(ctx)
	if err != nil {
		msg := f.Error()
		if msg == "" {
			msg = err.Error()
		}
		return form.Result{}, formError{msg: msg, err: err}
	}
	return res, nil
}

type permissionError struct {
	capability string
}

func (e permissionError) Error() string {
	return fmt.Sprintf("permission denied: %s requires the admin role", e.capability)
}

func errPermission(c fmt.Stringer) error {
	return permissionError{capability: c.String()}
}
