package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

var ErrNoStrategies = errors.New("no locator strategies given")

// Strategy is one way of finding an element on a page.
type Strategy struct {
	Name   string
	Locate func(page playwright.Page) playwright.Locator
}

func ByPlaceholder(text string) Strategy {
	return Strategy{
		Name: fmt.Sprintf("placeholder=%q", text),
		Locate: func(page playwright.Page) playwright.Locator {
			return page.GetByPlaceholder(text).First()
		},
	}
}

func ByRole(role, name string) Strategy {
	return Strategy{
		Name: fmt.Sprintf("role=%s[name=%q]", role, name),
		Locate: func(page playwright.Page) playwright.Locator {
			return page.GetByRole(playwright.AriaRole(role), playwright.PageGetByRoleOptions{
				Name: name,
			}).First()
		},
	}
}

func BySelector(selector string) Strategy {
	return Strategy{
		Name: selector,
		Locate: func(page playwright.Page) playwright.Locator {
			return page.Locator(selector).First()
		},
	}
}

type StrategyError struct {
	Strategy string
	Err      error
}

// ChainError is returned when every strategy in a chain failed.
type ChainError struct {
	Action   string
	Failures []StrategyError
}

func (e *ChainError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s: %v", e.Action, ErrNoStrategies)
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Strategy, f.Err))
	}
	return fmt.Sprintf("%s failed with every strategy (%s)", e.Action, strings.Join(parts, "; "))
}

func (e *ChainError) Unwrap() []error {
	if len(e.Failures) == 0 {
		return []error{ErrNoStrategies}
	}
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// TryStrategies runs act against each located element in order and stops at
// the first success. It returns the name of the strategy that worked.
func TryStrategies(page playwright.Page, action string, strategies []Strategy, act func(playwright.Locator) error) (string, error) {
	chainErr := &ChainError{Action: action}
	for _, s := range strategies {
		err := act(s.Locate(page))
		if err == nil {
			return s.Name, nil
		}
		chainErr.Failures = append(chainErr.Failures, StrategyError{Strategy: s.Name, Err: err})
	}
	return "", chainErr
}

func FillFirst(page playwright.Page, strategies []Strategy, value string, timeout time.Duration) (string, error) {
	return TryStrategies(page, "fill", strategies, func(loc playwright.Locator) error {
		return loc.Fill(value, playwright.LocatorFillOptions{
			Timeout: playwright.Float(float64(timeout.Milliseconds())),
		})
	})
}

func ClickFirst(page playwright.Page, strategies []Strategy, timeout time.Duration) (string, error) {
	return TryStrategies(page, "click", strategies, func(loc playwright.Locator) error {
		return loc.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(float64(timeout.Milliseconds())),
		})
	})
}
