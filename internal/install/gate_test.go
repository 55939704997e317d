package install

import (
	"testing"

	"github.com/jxwalker/modinstall/internal/reactive"
)

func TestGateAllCombinations(t *testing.T) {
	inst, dl, ml := reactive.NewValue(false), reactive.NewValue(false), reactive.NewValue(false)
	g := NewGate(inst, dl, ml)
	defer g.Close()
	for mask := 0; mask < 8; mask++ {
		a, b, c := mask&1 != 0, mask&2 != 0, mask&4 != 0
		inst.Set(a)
		dl.Set(b)
		ml.Set(c)
		if want := !(a || b || c); g.CanStart() != want {
			t.Errorf("install=%v download=%v modlist=%v: CanStart=%v want %v", a, b, c, g.CanStart(), want)
		}
	}
}

func TestGateSignalNotifies(t *testing.T) {
	inst, dl, ml := reactive.NewValue(true), reactive.NewValue(false), reactive.NewValue(false)
	g := NewGate(inst, dl, ml)
	var seen []bool
	g.Signal().Subscribe(func(v bool) { seen = append(seen, v) })
	inst.Set(false)
	ml.Set(true)
	if len(seen) != 3 || seen[0] || !seen[1] || seen[2] {
		t.Fatalf("unexpected emissions: %v", seen)
	}
	g.Close()
	ml.Set(false)
	if g.CanStart() {
		t.Fatalf("closed gate should keep its last value")
	}
}
