package game

// PowerState holds one value per system. Every mutation clamps to
// [0, MaxPower].
type PowerState struct {
	Weapons   int `json:"weapons" yaml:"weapons" validate:"gte=0,lte=10"`
	Computers int `json:"computers" yaml:"computers" validate:"gte=0,lte=10"`
	Engines   int `json:"engines" yaml:"engines" validate:"gte=0,lte=10"`
	Logistics int `json:"logistics" yaml:"logistics" validate:"gte=0,lte=10"`
}

// NewPowerState returns a state with every system set to v.
func NewPowerState(v int) PowerState {
	var p PowerState
	for _, s := range Systems {
		p.Set(s, v)
	}
	return p
}

func (p *PowerState) field(s System) *int {
	switch s {
	case SystemWeapons:
		return &p.Weapons
	case SystemComputers:
		return &p.Computers
	case SystemEngines:
		return &p.Engines
	case SystemLogistics:
		return &p.Logistics
	}
	return nil
}

// Get returns the value of one system, or 0 for an invalid system.
func (p PowerState) Get(s System) int {
	if f := p.field(s); f != nil {
		return *f
	}
	return 0
}

// Set stores a clamped value.
func (p *PowerState) Set(s System, v int) {
	if f := p.field(s); f != nil {
		*f = clampPower(v)
	}
}

// Add adds d (which may be negative) and returns the change actually applied.
func (p *PowerState) Add(s System, d int) int {
	f := p.field(s)
	if f == nil {
		return 0
	}
	before := *f
	*f = clampPower(before + d)
	return *f - before
}

// AddAll adds every system of o.
func (p *PowerState) AddAll(o PowerState) {
	for _, s := range Systems {
		p.Add(s, o.Get(s))
	}
}

// Total sums all systems.
func (p PowerState) Total() int {
	return p.Weapons + p.Computers + p.Engines + p.Logistics
}

// IsZero reports whether every system is zero.
func (p PowerState) IsZero() bool {
	return p == PowerState{}
}

// Covers reports whether every system of p is at least the matching system of req.
func (p PowerState) Covers(req PowerState) bool {
	for _, s := range Systems {
		if p.Get(s) < req.Get(s) {
			return false
		}
	}
	return true
}

// hasNegative reports whether any raw field is below zero. Clamping setters
// never produce negatives, so this only catches decoded input.
func (p PowerState) hasNegative() bool {
	return p.Weapons < 0 || p.Computers < 0 || p.Engines < 0 || p.Logistics < 0
}

func clampPower(v int) int {
	switch {
	case v < 0:
		return 0
	case v > MaxPower:
		return MaxPower
	}
	return v
}

// addOverflow adds n to system s. Whatever does not fit under MaxPower spills
// into the other systems in fixed order; anything left after that is lost.
func (p *PowerState) addOverflow(s System, n int) {
	left := n - p.Add(s, n)
	for _, o := range Systems {
		if left <= 0 {
			return
		}
		if o == s {
			continue
		}
		left -= p.Add(o, left)
	}
}

// scaleAllocation shrinks an allocation proportionally so that its total does
// not exceed limit. Rounding remainders go to systems in fixed order.
func scaleAllocation(a PowerState, limit int) PowerState {
	total := a.Total()
	if total <= limit {
		return a
	}
	var out PowerState
	given := 0
	for _, s := range Systems {
		v := a.Get(s) * limit / total
		out.Set(s, v)
		given += v
	}
	for _, s := range Systems {
		if given >= limit {
			break
		}
		if out.Get(s) < a.Get(s) {
			out.Add(s, 1)
			given++
		}
	}
	return out
}
