package health

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/rulekit/pkg/audit"
	"mercator-hq/rulekit/pkg/rules/ruleset"
)

// RulesetStatus is implemented by *ruleset.Registry.
type RulesetStatus interface {
	Current() *ruleset.Ruleset
	LastError() error
}

// RulesetCheck fails until a ruleset has loaded, and while the most recent
// reload failed. The previous ruleset keeps serving in that case, so the
// message says which one.
func RulesetCheck(status RulesetStatus) CheckFunc {
	return func(ctx context.Context) error {
		current := status.Current()
		if current == nil {
			return errors.New("no ruleset loaded")
		}
		if err := status.LastError(); err != nil {
			return fmt.Errorf("serving %s with %d rules, last reload failed: %w", current.Name, len(current.Rules), err)
		}
		return nil
	}
}

// StorageCheck fails when the audit storage cannot be queried.
func StorageCheck(storage audit.Storage) CheckFunc {
	return func(ctx context.Context) error {
		_, err := storage.Count(ctx, &audit.Query{})
		return err
	}
}
