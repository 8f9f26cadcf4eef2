// Package resolve merges document-extracted PII with user-entered PII through
// an ordered plugin chain. The chain is middleware: each plugin receives an
// explicit next continuation, and a plugin that returns without invoking next
// terminates the chain. That short-circuit is a feature, not a bug.
package resolve

import (
	"idproof/internal/proofing/models"
)

// Identity is the accumulated mapping of resolved identity attributes.
type Identity map[string]string

// Clone copies the identity so plugins can hand an augmented value to next
// without mutating what earlier plugins saw.
func (i Identity) Clone() Identity {
	out := make(Identity, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Next continues the chain with the identity accumulated so far.
type Next func(soFar Identity) (Identity, error)

// Plugin is one link in the resolution chain.
//
// A plugin either calls next (possibly with an augmented identity) to
// continue, or returns a value without calling next, which prevents every
// later plugin from running. Plugin errors propagate to the caller unswallowed:
// a broken plugin must fail resolution rather than produce an incomplete
// identity.
type Plugin interface {
	ResolveIdentity(docPII, userPII models.Applicant, soFar Identity, next Next) (Identity, error)
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(docPII, userPII models.Applicant, soFar Identity, next Next) (Identity, error)

func (f PluginFunc) ResolveIdentity(docPII, userPII models.Applicant, soFar Identity, next Next) (Identity, error) {
	return f(docPII, userPII, soFar, next)
}

// Resolver runs plugins strictly in configured order.
type Resolver struct {
	plugins []Plugin
}

// New builds a resolver. Order is significant and preserved exactly.
func New(plugins ...Plugin) *Resolver {
	return &Resolver{plugins: plugins}
}

// ResolveIdentity runs the chain and returns whatever it ultimately produces.
func (r *Resolver) ResolveIdentity(docPII, userPII models.Applicant) (Identity, error) {
	return r.invoke(0, docPII, userPII, Identity{})
}

func (r *Resolver) invoke(index int, docPII, userPII models.Applicant, soFar Identity) (Identity, error) {
	if index >= len(r.plugins) {
		return soFar, nil
	}
	next := func(accumulated Identity) (Identity, error) {
		return r.invoke(index+1, docPII, userPII, accumulated)
	}
	return r.plugins[index].ResolveIdentity(docPII, userPII, soFar, next)
}
