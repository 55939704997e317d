package install

import "github.com/jxwalker/modinstall/internal/reactive"

// Gate combines the three input error flags into the single signal that
// enables the start action.
type Gate struct {
	canStart *reactive.Value[bool]
	sub      *reactive.Subscription
}

func NewGate(installErr, downloadErr, modlistErr *reactive.Value[bool]) *Gate {
	v, sub := reactive.CombineLatest3(installErr, downloadErr, modlistErr, canStart)
	return &Gate{canStart: v, sub: sub}
}

func canStart(installErr, downloadErr, modlistErr bool) bool {
	return !installErr && !downloadErr && !modlistErr
}

func (g *Gate) CanStart() bool { return g.canStart.Get() }

// Signal is the observable form of CanStart.
func (g *Gate) Signal() *reactive.Value[bool] { return g.canStart }

// Close detaches the gate from its inputs; CanStart keeps its last value.
func (g *Gate) Close() { g.sub.Close() }
