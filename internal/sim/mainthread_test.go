package sim

import (
	"testing"

	"github.com/go-drift/mapbridge/pkg/platform"
)

func TestMainThreadRunsDispatchedCallbacksOnFlush(t *testing.T) {
	platform.SetupTestBridge(t.Cleanup)
	ui := &MainThread{}
	platform.RegisterDispatch(ui.Post)

	var order []int
	platform.DispatchOrRun(func() {
		order = append(order, 1)
		platform.DispatchOrRun(func() { order = append(order, 3) })
	})
	platform.DispatchOrRun(func() { order = append(order, 2) })

	if len(order) != 0 || ui.Pending() != 2 {
		t.Fatalf("ran %v before Flush, pending = %d", order, ui.Pending())
	}
	if n := ui.Flush(); n != 3 {
		t.Errorf("Flush ran %d callbacks, want 3", n)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
	if ui.Flush() != 0 {
		t.Error("second Flush ran callbacks")
	}
}
