package privacy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Policy decision sentinel errors.
//
// These errors are used as return values from rules to indicate how the
// policy evaluation should proceed. Use errors.Is() to check for these
// values:
//
//	if errors.Is(err, privacy.Allow) { ... }
//	if errors.Is(err, privacy.Deny) { ... }
//	if errors.Is(err, privacy.Skip) { ... }
var (
	// Allow may be returned by rules to indicate that the policy
	// evaluation should terminate with an allow decision.
	Allow = errors.New("spiderly/privacy: allow rule")

	// Deny may be returned by rules to indicate that the policy
	// evaluation should terminate with a deny decision.
	Deny = errors.New("spiderly/privacy: deny rule")

	// Skip may be returned by rules to indicate that the policy
	// evaluation should continue to the next rule in the chain.
	Skip = errors.New("spiderly/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Action is the kind of access a permission code grants.
type Action int

// Permission actions.
const (
	ActionRead Action = iota + 1
	ActionEdit
	ActionInsert
	ActionDelete
)

var actionNames = [...]string{
	ActionRead:   "Read",
	ActionEdit:   "Edit",
	ActionInsert: "Insert",
	ActionDelete: "Delete",
}

// Actions lists all actions in declaration order.
var Actions = []Action{ActionRead, ActionEdit, ActionInsert, ActionDelete}

// String returns the code prefix of the action.
func (a Action) String() string {
	if a > 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// PermissionCode returns the permission code of an action on an entity,
// e.g. "ReadUser" or "DeleteOrder".
func PermissionCode(a Action, entity string) string {
	return a.String() + entity
}

// ParsePermissionCode splits a permission code into its action and
// entity name.
func ParsePermissionCode(code string) (Action, string, bool) {
	for _, a := range Actions {
		if entity, ok := strings.CutPrefix(code, a.String()); ok && entity != "" {
			return a, entity, true
		}
	}
	return 0, "", false
}

// Rule decides whether the permission code is granted in ctx.
type Rule interface {
	Eval(ctx context.Context, code string) error
}

// RuleFunc type is an adapter which allows the use of ordinary functions
// as rules.
type RuleFunc func(context.Context, string) error

// Eval returns f(ctx, code).
func (f RuleFunc) Eval(ctx context.Context, code string) error {
	return f(ctx, code)
}

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// ContextRule creates a rule from a context evaluation function.
// Returning nil is equivalent to returning Skip.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(ctx context.Context, _ string) error {
		return eval(ctx)
	})
}

// OnAction evaluates the given rule only for codes of the given actions.
func OnAction(rule Rule, actions ...Action) Rule {
	return RuleFunc(func(ctx context.Context, code string) error {
		if a, _, ok := ParsePermissionCode(code); ok && slices.Contains(actions, a) {
			return rule.Eval(ctx, code)
		}
		return Skip
	})
}

// OnEntity evaluates the given rule only for codes on the given entities.
func OnEntity(rule Rule, entities ...string) Rule {
	return RuleFunc(func(ctx context.Context, code string) error {
		if _, e, ok := ParsePermissionCode(code); ok && slices.Contains(entities, e) {
			return rule.Eval(ctx, code)
		}
		return Skip
	})
}

// DenyActionRule returns a rule denying the given action on every entity.
func DenyActionRule(a Action) Rule {
	rule := RuleFunc(func(_ context.Context, code string) error {
		return Denyf("spiderly/privacy: %s is not allowed", code)
	})
	return OnAction(rule, a)
}

// Policy combines multiple rules. Rules are evaluated in order until one
// returns a decision other than Skip.
type Policy []Rule

// Eval evaluates the policy. A policy where every rule skips returns nil,
// leaving the final decision to the caller.
func (p Policy) Eval(ctx context.Context, code string) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, rule := range p {
		switch decision := rule.Eval(ctx, code); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Authorizer is the authorization collaborator generated services call
// before touching data.
type Authorizer interface {
	AuthorizeOrThrow(ctx context.Context, code string) error
}

// AuthorizerFunc type is an adapter which allows the use of ordinary
// functions as authorizers.
type AuthorizerFunc func(context.Context, string) error

// AuthorizeOrThrow returns f(ctx, code).
func (f AuthorizerFunc) AuthorizeOrThrow(ctx context.Context, code string) error {
	return f(ctx, code)
}

// PermissionError is returned by the policy authorizer when a permission
// code is not granted.
type PermissionError struct {
	Code  string
	Cause error
}

// Error returns the error string.
func (e *PermissionError) Error() string {
	return fmt.Sprintf("spiderly/privacy: permission %s denied: %v", e.Code, e.Cause)
}

// Unwrap returns the underlying decision.
func (e *PermissionError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error is Deny.
func (e *PermissionError) Is(err error) bool {
	return err == Deny
}

// IsDenied returns true if err is a deny decision.
func IsDenied(err error) bool {
	return err != nil && errors.Is(err, Deny)
}

// NewAuthorizer returns an Authorizer evaluating the policy. Codes the
// policy does not explicitly allow are denied.
func NewAuthorizer(rules ...Rule) Authorizer {
	p := Policy(rules)
	return AuthorizerFunc(func(ctx context.Context, code string) error {
		if decision, ok := DecisionFromContext(ctx); ok {
			if decision == nil {
				return nil
			}
			return &PermissionError{Code: code, Cause: decision}
		}
		for _, rule := range p {
			switch decision := rule.Eval(ctx, code); {
			case decision == nil || errors.Is(decision, Skip):
			case errors.Is(decision, Allow):
				return nil
			default:
				return &PermissionError{Code: code, Cause: decision}
			}
		}
		return &PermissionError{Code: code, Cause: Deny}
	})
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attached to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) Eval(context.Context, string) error {
	return f.decision
}
