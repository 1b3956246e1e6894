package container

// snapshot is everything a Replacement swaps out and later restores.
type snapshot struct {
	definition any
	args       []any
	kwargs     Kwargs
	strategy   Strategy

	realized bool
	value    any
	applied  Strategy
	entered  any
}

func (r *Recipe) snapshot() *snapshot {
	return &snapshot{
		definition: r.definition,
		args:       r.args,
		kwargs:     r.kwargs,
		strategy:   r.strategy,
		realized:   r.realized,
		value:      r.value,
		applied:    r.applied,
		entered:    r.entered,
	}
}

func (r *Recipe) restore(s *snapshot) {
	r.definition, r.args, r.kwargs, r.strategy = s.definition, s.args, s.kwargs, s.strategy
	r.realized, r.value, r.applied, r.entered = s.realized, s.value, s.applied, s.entered
}

// Replacement is an active substitution of a recipe's definition. Close
// restores the original.
type Replacement struct {
	recipe *Recipe
	closed bool
}

// Replace installs with's definition, arguments and strategy on r until the
// returned Replacement is closed. The name of r is kept.
//
// Only one replacement may be active per recipe, and a recipe realized
// under any strategy other than pass-through cannot be replaced: its
// resource is live.
//
//	repl, err := settings.Replace(container.New(&Settings{Debug: true}))
//	if err != nil {
//	    return err
//	}
//	defer repl.Close()
func (r *Recipe) Replace(with *Recipe) (*Replacement, error) {
	if r.replacement != nil {
		return nil, newError(ErrCodeReplacement, r, "cannot replace a recipe that is already replaced")
	}
	if r.realized && r.applied != StrategyPassThrough {
		return nil, newError(ErrCodeReplacement, r, "cannot replace a recipe that is already realized")
	}

	r.replacement = r.snapshot()
	r.definition, r.args, r.kwargs, r.strategy = with.definition, with.args, with.kwargs, with.strategy
	r.realized, r.value, r.applied, r.entered = false, nil, StrategyAuto, nil
	r.settle()
	return &Replacement{recipe: r}, nil
}

// OpenReplacement replaces r with definition and args. A lone *Recipe
// definition is installed as is; anything else goes through New.
//
//	repl, err := container.OpenReplacement(port, 9090)
func OpenReplacement(r *Recipe, definition any, args ...any) (*Replacement, error) {
	with, ok := definition.(*Recipe)
	if !ok || len(args) > 0 {
		with = New(definition, args...)
	}
	return r.Replace(with)
}

// Recipe returns the replaced recipe.
func (p *Replacement) Recipe() *Recipe { return p.recipe }

// Close restores the original definition and realized state. It always
// restores; if the replacement's own value was still realized (and it was
// not a pass-through value) that leak is reported as an ErrReplacement
// error. Closing twice is a no-op.
func (p *Replacement) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	r := p.recipe
	leaked := r.realized && r.applied != StrategyPassThrough
	r.restore(r.replacement)
	r.replacement = nil
	if leaked {
		return newError(ErrCodeReplacement, r, "replacement value is still realized, release it before closing the replacement")
	}
	return nil
}
