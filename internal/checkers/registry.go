package checkers

import "github.com/wordsift/wordsift/internal/normalize"

// Registry is an ordered set of active checkers. It is immutable; build a new
// one to change the active set.
type Registry struct {
	checkers []Checker
}

// NewRegistry returns a registry consulting cs in the given order. Nil
// entries are dropped.
func NewRegistry(cs ...Checker) *Registry {
	r := &Registry{checkers: make([]Checker, 0, len(cs))}
	for _, c := range cs {
		if c != nil {
			r.checkers = append(r.checkers, c)
		}
	}
	return r
}

// With returns a new registry consulting r's checkers followed by cs.
func (r *Registry) With(cs ...Checker) *Registry {
	if len(cs) == 0 {
		return r
	}
	var base []Checker
	if r != nil {
		base = r.checkers
	}
	return NewRegistry(append(append([]Checker(nil), base...), cs...)...)
}

// Len returns the number of active checkers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.checkers)
}

// IDs lists the active checker IDs in registration order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.checkers))
	for i, c := range r.checkers {
		out[i] = c.ID()
	}
	return out
}

// Bind pins every stateful checker to its current snapshot.
func (r *Registry) Bind() *Registry {
	if r == nil {
		return nil
	}
	out := &Registry{checkers: make([]Checker, len(r.checkers))}
	for i, c := range r.checkers {
		if b, ok := c.(Binder); ok {
			out.checkers[i] = b.Bind()
			continue
		}
		out.checkers[i] = c
	}
	return out
}

// MayMatch reports whether any checker could produce a deny match on nc.
// Checkers without a prefilter always may.
func (r *Registry) MayMatch(nc *normalize.Context) bool {
	if r == nil {
		return false
	}
	for _, c := range r.checkers {
		p, ok := c.(Prefilter)
		if !ok || p.MayMatch(nc) {
			return true
		}
	}
	return false
}

// Classify queries every checker at pos. Deny and Allow are the maxima over
// all checkers; Type comes from the first checker reaching the maximum deny.
// The first checker error aborts the query and is returned as a *Fault.
func (r *Registry) Classify(nc *normalize.Context, pos int) (Result, error) {
	var best Result
	if r == nil {
		return best, nil
	}
	for _, c := range r.checkers {
		res, err := classifyOne(c, nc, pos)
		if err != nil {
			return Result{}, err
		}
		if res.Deny > best.Deny {
			best.Deny = res.Deny
			best.Type = res.Type
		}
		if res.Allow > best.Allow {
			best.Allow = res.Allow
		}
	}
	return best, nil
}
