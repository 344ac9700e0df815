package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/integrators"
	"github.com/san-kum/latchsim/internal/latch"
	"github.com/san-kum/latchsim/internal/regress"
	"github.com/san-kum/latchsim/internal/stimulus"
)

func TestDownsample(t *testing.T) {
	in := make([]float64, 101)
	for i := range in {
		in[i] = float64(i)
	}
	out := Downsample(in, 11)
	if len(out) != 11 {
		t.Fatalf("expected 11 samples, got %d", len(out))
	}
	if out[0] != 0 || out[10] != 100 || out[5] != 50 {
		t.Errorf("unexpected samples %v", out)
	}
	if got := Downsample(in[:5], 11); len(got) != 5 {
		t.Errorf("short input should be returned as is, got %d", len(got))
	}
}

func TestPlotTrace(t *testing.T) {
	if PlotTrace(nil, "empty", 40, 5) != "" {
		t.Error("empty series should render nothing")
	}
	out := PlotTrace([]float64{3.3, 3.3, 1.0, 0.1, 0.0}, "output", 40, 5)
	if !strings.Contains(out, "output") {
		t.Errorf("caption missing:\n%s", out)
	}
	cmp := PlotComparison([]float64{1, 2, 3}, []float64{1, 2, 2.5}, "fit", 40, 5)
	if !strings.Contains(cmp, "measured") || !strings.Contains(cmp, "model") {
		t.Errorf("legend missing:\n%s", cmp)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	err := SavePNG(path, "step", "t (s)", "y (V)",
		Line{Name: "y", X: []float64{0, 1, 2}, Y: []float64{0, 0.5, 0.75}},
		Line{Name: "u", X: []float64{0, 1, 2}, Y: []float64{1, 1, 1}},
	)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected a non-empty image: %v", err)
	}

	if err := SavePNG(path, "bad", "", "", Line{Name: "y", X: []float64{0}, Y: nil}); err == nil {
		t.Error("mismatched line should fail")
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("retro").Name != "retro" {
		t.Error("named theme not found")
	}
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
	last := Themes[len(Themes)-1]
	if NextTheme(last).Name != Themes[0].Name {
		t.Error("theme cycle should wrap")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names length mismatch")
	}
}

func newLive(t *testing.T) LiveModel {
	t.Helper()
	tr := regress.Transition{
		Tau:          regress.Fit{Const: 2e-10},
		ResponseTime: regress.Fit{Const: 5e-10},
	}
	m, err := latch.New(latch.NewParams(regress.Bias{VREF: 1.6, VREG: 1.7}, tr, tr))
	if err != nil {
		t.Fatal(err)
	}
	dt := 1e-11
	clk, err := stimulus.NewPulse(250, 500, 250, latch.DefaultVDD, dt)
	if err != nil {
		t.Fatal(err)
	}
	return NewLiveModel(m, integrators.NewEuler(), clk, dynamo.State{latch.DefaultVDD}, dt, 1000, "latch")
}

func TestLiveModelSteps(t *testing.T) {
	lm := newLive(t)

	next, cmd := lm.Update(TickMsg{})
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	lm = next.(LiveModel)
	if lm.Step() == 0 || len(lm.Output()) != lm.Step() {
		t.Fatalf("tick should advance the model, step=%d history=%d", lm.Step(), len(lm.Output()))
	}

	next, _ = lm.Update(tea.KeyMsg{Type: tea.KeySpace})
	lm = next.(LiveModel)
	if lm.Running() {
		t.Fatal("space should pause")
	}
	before := lm.Step()
	next, _ = lm.Update(TickMsg{})
	lm = next.(LiveModel)
	if lm.Step() != before {
		t.Error("paused view should not advance on tick")
	}
	next, _ = lm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	lm = next.(LiveModel)
	if lm.Step() != before+1 {
		t.Errorf("n should single-step, got %d from %d", lm.Step(), before)
	}

	if !strings.Contains(lm.View(), "precharge") {
		t.Errorf("view should show the mode:\n%s", lm.View())
	}
}

func TestLiveModelRunsToEndAndResets(t *testing.T) {
	lm := newLive(t)
	lm.advance(2000)
	if lm.Step() != 1000 || lm.Running() {
		t.Fatalf("expected stop at 1000 steps, got %d running=%v", lm.Step(), lm.Running())
	}
	if len(lm.latch.Transitions()) == 0 {
		t.Error("a full pulse should record transitions")
	}
	if !strings.Contains(lm.View(), "->") {
		t.Error("view should list transitions")
	}

	next, _ := lm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	lm = next.(LiveModel)
	if lm.Step() != 0 || len(lm.Output()) != 0 || lm.latch.State() != latch.Precharge {
		t.Error("reset should rewind the model")
	}

	_, cmd := lm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestLiveModelTheme(t *testing.T) {
	lm := newLive(t).WithTheme("minimal")
	if !strings.Contains(lm.View(), "minimal") {
		t.Error("view should name the active theme")
	}
	next, _ := lm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if strings.Contains(next.(LiveModel).View(), "theme (minimal)") {
		t.Error("t should cycle the theme")
	}
}
