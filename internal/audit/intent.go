package audit

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	"github.com/agrocrm/backoffice/internal/governance"
	"github.com/agrocrm/backoffice/internal/store"
)

type intentContextKey struct{}

// WithIntent tags the next update issued with ctx with an explicit semantic
// action. Tagged updates skip the status-field inference.
func WithIntent(ctx context.Context, action Action) context.Context {
	return context.WithValue(ctx, intentContextKey{}, action)
}

func intentFromContext(ctx context.Context) (Action, bool) {
	a, ok := ctx.Value(intentContextKey{}).(Action)
	return a, ok && a != ""
}

// foldCase builds a fresh Caser per call; Casers are stateful.
func foldCase(s string) string { return cases.Fold().String(s) }

var (
	approvedValue = foldCase("APPROVED")
	rejectedValue = foldCase("REJECTED")
)

// InferUpdateAction classifies an update payload. A status-like field set to
// APPROVED or REJECTED (any case) turns the update into APPROVE or REJECT.
func InferUpdateAction(data store.Record, statusFields []string) Action {
	for _, field := range statusFields {
		value, ok := data[field].(string)
		if !ok {
			continue
		}
		switch foldCase(strings.TrimSpace(value)) {
		case approvedValue:
			return ActionApprove
		case rejectedValue:
			return ActionReject
		}
	}
	return ActionUpdate
}

// IntentOf resolves the action an update carries: the explicit tag on ctx,
// else the status inference over fields, the governance defaults when none
// are given.
func IntentOf(ctx context.Context, data store.Record, fields ...string) Action {
	if len(fields) == 0 {
		fields = governance.DefaultStatusFields()
	}
	return updateAction(ctx, data, fields)
}

func updateAction(ctx context.Context, data store.Record, statusFields []string) Action {
	if a, ok := intentFromContext(ctx); ok {
		return a
	}
	return InferUpdateAction(data, statusFields)
}
