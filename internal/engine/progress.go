package engine

// progress forwards percentages to a caller's callback while guaranteeing the
// sequence is strictly increasing and stays within 0..100.
type progress struct {
	fn      func(int)
	last    int
	started bool
}

func newProgress(fn func(int)) *progress {
	return &progress{fn: fn}
}

func (p *progress) report(v int) {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	if p.started && v <= p.last {
		return
	}
	p.started = true
	p.last = v
	if p.fn != nil {
		p.fn(v)
	}
}

// span maps step i of n onto the range from..to, for loops over pages.
func (p *progress) span(from, to, i, n int) {
	if n <= 0 {
		return
	}
	p.report(from + (to-from)*i/n)
}
