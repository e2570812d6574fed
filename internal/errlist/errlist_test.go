package errlist

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pixil98/go-testutil"
)

var (
	errFirst  = errors.New("first")
	errSecond = errors.New("second")
	errOther  = errors.New("other")
)

func TestList_Err(t *testing.T) {
	tests := map[string]struct {
		add      []error
		expNil   bool
		expMsg   []string
		expIs    []error
		expNotIs []error
	}{
		"empty": {
			expNil: true,
		},
		"only nil": {
			add:    []error{nil, nil},
			expNil: true,
		},
		"single": {
			add:    []error{fmt.Errorf("a: %w", errFirst)},
			expMsg: []string{"a: first"},
			expIs:  []error{errFirst},
		},
		"several": {
			add: []error{
				fmt.Errorf("a: %w", errFirst),
				nil,
				fmt.Errorf("b: %w", errSecond),
			},
			expMsg:   []string{"2 errors", "a: first", "b: second"},
			expIs:    []error{errFirst, errSecond},
			expNotIs: []error{errOther},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := New()
			for _, err := range tt.add {
				l.Add(err)
			}

			err := l.Err()
			if tt.expNil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				testutil.AssertEqual(t, "len", l.Len(), 0)
				return
			}
			testutil.AssertErrorContains(t, err, tt.expMsg...)
			for _, target := range tt.expIs {
				if !errors.Is(err, target) {
					t.Errorf("expected %v to match %v", err, target)
				}
			}
			for _, target := range tt.expNotIs {
				if errors.Is(err, target) {
					t.Errorf("expected %v not to match %v", err, target)
				}
			}
		})
	}
}

func TestList_ErrSurvivesWrapping(t *testing.T) {
	l := New()
	l.Add(fmt.Errorf("x: %w", errFirst))
	l.Add(fmt.Errorf("y: %w", errSecond))

	err := fmt.Errorf("saving: %w", l.Err())
	testutil.AssertEqual(t, "is first", errors.Is(err, errFirst), true)
	testutil.AssertEqual(t, "is second", errors.Is(err, errSecond), true)
}
