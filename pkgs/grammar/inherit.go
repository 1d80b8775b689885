package grammar

import (
	"github.com/google/go-cmp/cmp"
)

// mergeInherited folds a parent grammar's states into the child. States
// only the parent defines are copied whole; for states both define,
// each parent rule is appended unless a structurally identical rule is
// already present. Child-declared rules keep their positions, inherited
// rules follow in the parent's order.
func mergeInherited(child, parent *Grammar) {
	for _, name := range parent.stateOrder {
		parentRules := parent.States[name]
		childRules, ok := child.States[name]
		if !ok {
			child.States[name] = append([]Rule(nil), parentRules...)
			child.stateOrder = append(child.stateOrder, name)
			continue
		}
		for _, pr := range parentRules {
			if !containsRule(childRules, pr) {
				childRules = append(childRules, pr)
			}
		}
		child.States[name] = childRules
	}
}

func containsRule(rules []Rule, r Rule) bool {
	for _, candidate := range rules {
		if EqualRules(candidate, r) {
			return true
		}
	}
	return false
}

// EqualRules reports structural identity of two rules: the same variant
// carrying exactly the same set of declared options with equal values.
// An option declared with its default value still counts as declared
// (Merge and ConsumeLineEnd are presence-sensitive pointers), so adding
// any option to one of two otherwise equal rules makes them distinct.
func EqualRules(a, b Rule) bool {
	switch ar := a.(type) {
	case *TokenRule:
		br, ok := b.(*TokenRule)
		return ok && cmp.Equal(ar, br)
	case *DefaultTokenRule:
		br, ok := b.(*DefaultTokenRule)
		return ok && cmp.Equal(ar, br)
	default:
		return false
	}
}
