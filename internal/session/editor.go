package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vyconsole/vyconsole/internal/audit"
	"github.com/vyconsole/vyconsole/internal/capability"
	"github.com/vyconsole/vyconsole/internal/formfile"
	"github.com/vyconsole/vyconsole/internal/logging"
	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/vyos"
	"github.com/vyconsole/vyconsole/internal/vyosapi"
)

// Editor is the form state of one entity between opening and submitting.
type Editor interface {
	Info() vyos.Info
	Key() vyos.Key
	Mode() Mode
	// Form returns a pointer to the live form.
	Form() any
	Capabilities() *capability.Matrix

	// Overlay lets decode write user values onto the form, e.g.
	// func(into any) error { return formfile.Decode(path, into) }.
	Overlay(decode func(into any) error) error
	// Set applies a "field=value" assignment.
	Set(assignment string) error
	Validate() error
	Plan() opbuilder.Plan
	Preview() string

	Submit(ctx context.Context) (*Result, error)
	Verify(ctx context.Context, opts *vyosapi.VerificationOptions) *vyosapi.VerificationResult
	RevertPlan() (opbuilder.Plan, error)
	SafeSubmit(ctx context.Context, opts *vyosapi.VerificationOptions) *SafeResult
}

// ErrNothingSubmitted is returned by Verify and RevertPlan before a
// successful Submit.
var ErrNothingSubmitted = errors.New("nothing has been submitted")

// FormError lists client-side validation problems. Forms with errors are
// never sent.
type FormError struct {
	Category string
	Key      vyos.Key
	Errors   vyos.ValidationErrors
}

func (e *FormError) Error() string {
	paths := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		paths = append(paths, fe.FieldPath)
	}
	return fmt.Sprintf("%s %s: invalid fields: %s", e.Category, e.Key, strings.Join(paths, ", "))
}

func (e *FormError) Unwrap() error {
	return e.Errors
}

// Result describes a submission.
type Result struct {
	Mode Mode
	Plan opbuilder.Plan
	// Applied is false when the plan was empty and nothing was sent.
	Applied  bool
	Response *vyosapi.BatchResponse
}

type editor[E, F any] struct {
	kind *vyos.Kind[E, F]
	api  API
	opts options
	key  vyos.Key
	caps *capability.Matrix

	// origin is the state when opened; prev the state the next plan is
	// computed against. Both are nil for a new entity.
	origin *F
	prev   *F
	form   F

	// submitted is the last form the device accepted.
	submitted *F
}

func (e *editor[E, F]) Info() vyos.Info                  { return e.kind.Info() }
func (e *editor[E, F]) Key() vyos.Key                    { return e.key }
func (e *editor[E, F]) Form() any                        { return &e.form }
func (e *editor[E, F]) Capabilities() *capability.Matrix { return e.caps }

func (e *editor[E, F]) Mode() Mode {
	if e.prev == nil {
		return ModeCreate
	}
	return ModeEdit
}

func (e *editor[E, F]) Overlay(decode func(into any) error) error {
	return decode(&e.form)
}

func (e *editor[E, F]) Set(assignment string) error {
	return formfile.Assign(&e.form, assignment)
}

func (e *editor[E, F]) Validate() error {
	err := vyos.ValidateForm(e.form)
	if err == nil {
		return nil
	}
	var verrs vyos.ValidationErrors
	if errors.As(err, &verrs) {
		return &FormError{Category: e.kind.Name, Key: e.key, Errors: verrs}
	}
	return err
}

func (e *editor[E, F]) gate() opbuilder.Gate {
	return e.caps
}

func (e *editor[E, F]) Plan() opbuilder.Plan {
	return opbuilder.Diff(e.prev, &e.form, e.kind.Spec, e.gate())
}

func (e *editor[E, F]) Preview() string {
	return e.Plan().Preview(e.kind.Title, e.key.String())
}

func (e *editor[E, F]) Submit(ctx context.Context) (*Result, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Mode: e.Mode(), Plan: e.Plan()}
	if result.Plan.IsEmpty() {
		logging.Debug("Nothing to submit", zap.String("category", e.kind.Name), zap.String("key", e.key.String()))
		return result, nil
	}

	keys, err := e.kind.BatchKeys(e.key)
	if err != nil {
		return nil, err
	}
	logging.LogPlan(e.kind.Name, e.key.String(), result.Plan.Sets(), result.Plan.Deletes())

	started := time.Now()
	resp, err := e.api.ApplyBatch(ctx, e.kind.Path, vyosapi.NewBatchRequest(keys, result.Plan))
	e.opts.record(audit.NewEvent(e.opts.target, e.kind.Name, e.key.String(), audit.EventTypeApply).
		WithMode(string(result.Mode)).
		WithOperations(result.Plan).
		WithResult(err).
		WithDuration(time.Since(started)))
	if err != nil && resp == nil {
		return nil, err
	}

	// The batch was accepted even if the refresh afterwards failed.
	result.Applied = true
	result.Response = resp
	submitted := cloneForm(e.form)
	e.submitted = &submitted
	e.prev = &submitted
	return result, err
}

// check compares the device's current state with the submitted form.
func (e *editor[E, F]) check(ctx context.Context) ([]string, error) {
	raw, err := e.api.GetConfig(ctx, e.kind.Path, true)
	if err != nil {
		return nil, err
	}
	items, err := e.kind.Decode(raw)
	if err != nil {
		return nil, err
	}
	found := e.kind.Find(items, e.key)
	if found == nil {
		return []string{fmt.Sprintf("%s %s not present on device", e.kind.Name, e.key)}, nil
	}
	current := e.kind.NewForm(found, e.key)

	var mismatches []string
	for _, op := range opbuilder.Diff(&current, e.submitted, e.kind.Spec, e.gate()) {
		mismatches = append(mismatches, "still pending: "+op.String())
	}
	return mismatches, nil
}

func (e *editor[E, F]) Verify(ctx context.Context, opts *vyosapi.VerificationOptions) *vyosapi.VerificationResult {
	if e.submitted == nil {
		return &vyosapi.VerificationResult{Error: ErrNothingSubmitted}
	}
	return vyosapi.Verify(ctx, e.check, opts)
}

// RevertPlan returns the operations that undo the last submission. A
// created entity is reverted by deleting it. Fields without a delete op
// cannot be cleared, so reverting them is best-effort.
func (e *editor[E, F]) RevertPlan() (opbuilder.Plan, error) {
	if e.submitted == nil {
		return nil, ErrNothingSubmitted
	}
	if e.origin == nil {
		if e.kind.DeleteOp == "" {
			return nil, fmt.Errorf("%s: %w", e.kind.Name, ErrNotDeletable)
		}
		return opbuilder.Plan{opbuilder.Set(e.kind.DeleteOp)}, nil
	}
	return opbuilder.Diff(e.submitted, e.origin, e.kind.Spec, e.gate()), nil
}

func (e *editor[E, F]) revert(ctx context.Context) (*Result, error) {
	plan, err := e.RevertPlan()
	if err != nil {
		return nil, err
	}
	result := &Result{Mode: ModeEdit, Plan: plan}
	if plan.IsEmpty() {
		return result, nil
	}
	keys, err := e.kind.BatchKeys(e.key)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	resp, err := e.api.ApplyBatch(ctx, e.kind.Path, vyosapi.NewBatchRequest(keys, plan))
	e.opts.record(audit.NewEvent(e.opts.target, e.kind.Name, e.key.String(), audit.EventTypeRevert).
		WithOperations(plan).
		WithResult(err).
		WithDuration(time.Since(started)))
	if err != nil {
		return nil, err
	}
	result.Applied = true
	result.Response = resp
	return result, nil
}

// cloneForm copies f with its own list backing arrays, so later overlays
// onto the live form cannot change a kept snapshot.
func cloneForm[F any](f F) F {
	v := reflect.ValueOf(&f).Elem()
	if v.Kind() != reflect.Struct {
		return f
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Slice && !field.IsNil() && field.CanSet() {
			cp := reflect.MakeSlice(field.Type(), field.Len(), field.Len())
			reflect.Copy(cp, field)
			field.Set(cp)
		}
	}
	return f
}
