/**
 * @description
 * This file defines the accepted payment-state vocabulary as an explicit,
 * enumerable set. The original system scattered these string literals across
 * queries (including a silently accepted empty string for legacy rows); here
 * the set is built once from configuration and consulted everywhere.
 */
package domain

import "strings"

// Well-known payment states.
const (
	PaymentCompleted    = "completed"
	PaymentPaid         = "paid"
	PaymentSuccess      = "success"
	PaymentPending      = "pending"
	PaymentFailed       = "failed"
	PaymentAdminAdded   = "admin-added"
	PaymentAdminCreated = "admin-created"
)

// PaymentStateSet is the set of payment states that qualify a subscription
// for dispatch. States are case-sensitive by contract.
type PaymentStateSet struct {
	states     map[string]struct{}
	allowEmpty bool
}

// NewPaymentStateSet builds a set from the configured state list. Empty
// entries in the list are ignored; acceptance of the empty string is an
// explicit flag because it exists only to accommodate legacy rows.
func NewPaymentStateSet(states []string, allowEmpty bool) PaymentStateSet {
	set := make(map[string]struct{}, len(states))
	for _, s := range states {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return PaymentStateSet{states: set, allowEmpty: allowEmpty}
}

// Accepts reports whether the given payment state qualifies for dispatch.
func (p PaymentStateSet) Accepts(state string) bool {
	if state == "" {
		return p.allowEmpty
	}
	_, ok := p.states[state]
	return ok
}

// List returns the accepted states, including the empty string when legacy
// rows are accepted. Useful for SQL ANY($1) filters.
func (p PaymentStateSet) List() []string {
	out := make([]string, 0, len(p.states)+1)
	for s := range p.states {
		out = append(out, s)
	}
	if p.allowEmpty {
		out = append(out, "")
	}
	return out
}
