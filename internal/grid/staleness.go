package grid

// Token identifies one fetch. It is only honoured while it is the latest
// token issued for the current period.
type Token struct {
	seq    uint64
	period string
}

func (t Token) Seq() uint64    { return t.seq }
func (t Token) Period() string { return t.period }

// Guard issues fetch tokens. It is not synchronized; the Controller guards it.
type Guard struct {
	seq    uint64
	period string
}

// Begin issues a token for a fetch of period, superseding every earlier one.
func (g *Guard) Begin(period string) Token {
	g.seq++
	g.period = period
	return Token{seq: g.seq, period: period}
}

// Valid reports whether tok is still the latest token for the current period.
func (g *Guard) Valid(tok Token) bool {
	return tok.seq == g.seq && tok.period == g.period
}

// Period returns the period of the latest fetch.
func (g *Guard) Period() string {
	return g.period
}

// Started reports whether any fetch was ever issued.
func (g *Guard) Started() bool {
	return g.seq > 0
}
