// Package form is the submit flow shared by every data-entry screen.
//
// A Form holds its own field values, checks only that required fields are
// present, sends exactly one request per submit, and on failure puts the
// server's message in its inline error slot without navigating. Edit forms
// load the entity first and refuse to submit until that load finished.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tasklync-cli/internal/api"
)

var (
	ErrMissingField = errors.New("missing required field")
	// ErrNotReady is returned by Submit on an edit form whose entity has not
	// been loaded yet.
	ErrNotReady = errors.New("form is still loading")
	// ErrBusy is returned by Submit while an earlier submit is in flight.
	ErrBusy = errors.New("form is already submitting")
)

// MissingFieldError names the first empty required field.
type MissingFieldError struct {
	Field string
	Label string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Label)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

type Field struct {
	Name        string
	Label       string
	Placeholder string
	Required    bool
	Secret      bool
}

// Values maps field names to their current text.
type Values map[string]string

func (v Values) Get(name string) string { return strings.TrimSpace(v[name]) }

// Persist is one identifier to remember after success.
type Persist struct {
	Key   string
	Value string
	TTL   time.Duration
}

// Result is what a successful submit produces.
type Result struct {
	// Next is where to navigate: a view tag or a session route.
	Next    string
	Persist []Persist
	// Data is the created/updated entity, for callers that show it.
	Data any
}

// Store receives persisted identifiers.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type SubmitFunc func(ctx context.Context, v Values) (Result, error)
type LoadFunc func(ctx context.Context) (Values, error)

type Form struct {
	Title    string
	Fields   []Field
	Fallback string

	submit SubmitFunc
	load   LoadFunc
	store  Store

	values Values
	ready  bool
	busy   bool
	err    string
	result *Result
}

// New builds a create-style form: it is ready at once.
func New(title string, fields []Field, fallback string, submit SubmitFunc) *Form {
	return &Form{Title: title, Fields: fields, Fallback: fallback, submit: submit, values: Values{}, ready: true}
}

// NewEdit builds a form that must Load before it can submit.
func NewEdit(title string, fields []Field, fallback string, load LoadFunc, submit SubmitFunc) *Form {
	f := New(title, fields, fallback, submit)
	f.load = load
	f.ready = false
	return f
}

// WithStore sets where Result.Persist entries are written.
func (f *Form) WithStore(s Store) *Form {
	f.store = s
	return f
}

func (f *Form) Set(name, value string) { f.values[name] = value }

func (f *Form) Value(name string) string { return f.values[name] }

// Values returns a copy of the field values.
func (f *Form) Values() Values {
	out := Values{}
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f *Form) Ready() bool { return f.ready }
func (f *Form) Busy() bool  { return f.busy }

// Error is the inline error slot; empty when there is nothing to show.
func (f *Form) Error() string { return f.err }

// Result is the last successful submit, if any.
func (f *Form) Result() (Result, bool) {
	if f.result == nil {
		return Result{}, false
	}
	return *f.result, true
}

// Load pre-populates an edit form. Values already typed are kept.
func (f *Form) Load(ctx context.Context) error {
	v, err := f.Fetch(ctx)
	return f.Apply(v, err)
}

// Fetch runs the loader without touching form state.
func (f *Form) Fetch(ctx context.Context) (Values, error) {
	if f.load == nil {
		return nil, nil
	}
	return f.load(ctx)
}

// Apply installs the outcome of Fetch.
func (f *Form) Apply(v Values, err error) error {
	if err != nil {
		f.err = message(err, f.Fallback)
		return err
	}
	for k, val := range v {
		if _, typed := f.values[k]; !typed {
			f.values[k] = val
		}
	}
	f.ready = true
	return nil
}

// Validate checks required fields for presence only.
func (f *Form) Validate() error {
	for _, fd := range f.Fields {
		if fd.Required && f.values.Get(fd.Name) == "" {
			label := fd.Label
			if label == "" {
				label = fd.Name
			}
			return &MissingFieldError{Field: fd.Name, Label: label}
		}
	}
	return nil
}

// Start begins a submit: it validates and marks the form busy. On error the
// message is already in the error slot and nothing is sent.
func (f *Form) Start() (Values, error) {
	if !f.ready {
		return nil, ErrNotReady
	}
	if f.busy {
		return nil, ErrBusy
	}
	if err := f.Validate(); err != nil {
		f.err = err.Error()
		return nil, err
	}
	f.err = ""
	f.busy = true
	return f.Values(), nil
}

// Send runs the request for values. It does not touch form state, so it can
// run off the update loop.
func (f *Form) Send(ctx context.Context, v Values) (Result, error) {
	return f.submit(ctx, v)
}

// Finish records the outcome of Send. On success the persisted identifiers
// are written; on failure the message goes to the error slot.
func (f *Form) Finish(ctx context.Context, res Result, err error) (Result, error) {
	f.busy = false
	if err != nil {
		f.err = message(err, f.Fallback)
		return Result{}, err
	}
	if f.store != nil {
		for _, p := range res.Persist {
			if strings.TrimSpace(p.Value) == "" {
				continue
			}
			if perr := f.store.Set(ctx, p.Key, p.Value, p.TTL); perr != nil {
				f.err = perr.Error()
				return Result{}, perr
			}
		}
	}
	f.result = &res
	return res, nil
}

// Submit is Start, Send and Finish in one call.
func (f *Form) Submit(ctx context.Context) (Result, error) {
	v, err := f.Start()
	if err != nil {
		return Result{}, err
	}
	res, err := f.Send(ctx, v)
	return f.Finish(ctx, res, err)
}

// message renders err for the error slot. Backend errors follow the
// verbatim-or-fallback rule; client-side checks show their own text.
func message(err error, fallback string) string {
	var apiErr *api.APIError
	var netErr *api.NetworkError
	if errors.As(err, &apiErr) || errors.As(err, &netErr) || errors.Is(err, api.ErrUnauthenticated) {
		return api.Message(err, fallback)
	}
	return err.Error()
}
