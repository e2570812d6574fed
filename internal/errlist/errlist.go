// Package errlist collects errors into a go-errors list while keeping every
// collected error reachable through errors.Is and errors.As.
package errlist

import (
	"slices"

	"github.com/pixil98/go-errors"
)

type collector interface {
	Add(err error)
	Err() error
}

// List aggregates errors. Nil errors are ignored.
type List struct {
	el   collector
	errs []error
}

func New() *List {
	return &List{el: errors.NewErrorList()}
}

func (l *List) Add(err error) {
	if err == nil {
		return
	}
	l.el.Add(err)
	l.errs = append(l.errs, err)
}

func (l *List) Len() int {
	return len(l.errs)
}

// Err returns nil when nothing was added and the error itself when exactly
// one was. Otherwise it returns the go-errors aggregate, which unwraps to
// every collected error.
func (l *List) Err() error {
	err := l.el.Err()
	if len(l.errs) < 2 {
		return err
	}
	return &aggregate{err: err, errs: slices.Clone(l.errs)}
}

type aggregate struct {
	err  error
	errs []error
}

func (a *aggregate) Error() string {
	return a.err.Error()
}

func (a *aggregate) Unwrap() []error {
	return a.errs
}
