package tracking_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/saviola777/PlusLib/internal/tracking"
)

// referenceProbeTracker builds the common two-role setup: a reference tool
// on port 0 and two probes on ports 1 and 3.
func referenceProbeTracker(t *testing.T) *tracking.Tracker {
	t.Helper()
	tr, _ := newSimTracker(t, 4, 100)
	if err := tr.SetToolName(0, "Ref"); err != nil {
		t.Fatalf("SetToolName returned unexpected error: %v", err)
	}
	if err := tr.SetToolRole(0, tracking.RoleReference); err != nil {
		t.Fatalf("SetToolRole returned unexpected error: %v", err)
	}
	for _, port := range []int{1, 3} {
		if err := tr.SetToolRole(port, tracking.RoleProbe); err != nil {
			t.Fatalf("SetToolRole returned unexpected error: %v", err)
		}
	}
	return tr
}

func TestLookupsByNameAndRole(t *testing.T) {
	tr := referenceProbeTracker(t)

	if got := tr.GetToolPortByName("Ref"); got != 0 {
		t.Errorf("GetToolPortByName(Ref) = %d, expected 0", got)
	}
	if got := tr.GetToolPortByName("NoSuchTool"); got != -1 {
		t.Errorf("GetToolPortByName for unknown name = %d, expected -1", got)
	}

	probes := tr.GetToolPortNumbersByType(tracking.RoleProbe)
	if diff := cmp.Diff([]int{1, 3}, probes); diff != "" {
		t.Errorf("probe ports mismatch (-want +got):\n%s", diff)
	}
	if got := tr.GetToolPortNumbersByType(tracking.RoleNeedle); got != nil {
		t.Errorf("needle ports = %v, expected nil", got)
	}

	if got := tr.GetFirstPortNumberByType(tracking.RoleProbe); got != 1 {
		t.Errorf("GetFirstPortNumberByType(Probe) = %d, expected 1", got)
	}
	if got := tr.GetFirstPortNumberByType(tracking.RoleStylus); got != -1 {
		t.Errorf("GetFirstPortNumberByType(Stylus) = %d, expected -1", got)
	}
	if got := tr.GetReferenceToolNumber(); got != 0 {
		t.Errorf("GetReferenceToolNumber = %d, expected 0", got)
	}
}

func TestGetFirstActiveTool(t *testing.T) {
	tr := referenceProbeTracker(t)

	port, err := tr.GetFirstActiveTool()
	if err != nil {
		t.Fatalf("GetFirstActiveTool returned unexpected error: %v", err)
	}
	if port != 0 {
		t.Errorf("GetFirstActiveTool = %d, expected 0", port)
	}

	if err := tr.SetToolEnabled(0, false); err != nil {
		t.Fatalf("SetToolEnabled returned unexpected error: %v", err)
	}
	port, err = tr.GetFirstActiveTool()
	if err != nil {
		t.Fatalf("GetFirstActiveTool returned unexpected error: %v", err)
	}
	if port != 1 {
		t.Errorf("GetFirstActiveTool after disabling port 0 = %d, expected 1", port)
	}

	for port := 0; port < 4; port++ {
		if err := tr.SetToolEnabled(port, false); err != nil {
			t.Fatalf("SetToolEnabled returned unexpected error: %v", err)
		}
	}
	if _, err := tr.GetFirstActiveTool(); !errors.Is(err, tracking.ErrNotFound) {
		t.Errorf("GetFirstActiveTool with all tools disabled returned %v, expected ErrNotFound", err)
	}
}

func TestSetToolNameValidation(t *testing.T) {
	tr, _ := newSimTracker(t, 2, 100)

	if err := tr.SetToolName(0, ""); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("empty rename returned %v, expected ErrInvalidArgument", err)
	}
	if err := tr.SetToolName(5, "Whatever"); !errors.Is(err, tracking.ErrOutOfRange) {
		t.Errorf("rename of unknown port returned %v, expected ErrOutOfRange", err)
	}

	if err := tr.SetToolName(0, "Stylus"); err != nil {
		t.Fatalf("SetToolName returned unexpected error: %v", err)
	}
	// Renaming a tool to its own name is a no-op, not a duplicate.
	if err := tr.SetToolName(0, "Stylus"); err != nil {
		t.Errorf("self-rename returned %v, expected nil", err)
	}

	// A duplicate rename fails and leaves both tools' names unchanged.
	if err := tr.SetToolName(1, "Stylus"); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("duplicate rename returned %v, expected ErrInvalidArgument", err)
	}
	if got := tr.GetToolPortByName("Stylus"); got != 0 {
		t.Errorf("port of Stylus after rejected rename = %d, expected 0", got)
	}
	if got := tr.GetToolPortByName("Tool1"); got != 1 {
		t.Errorf("port of Tool1 after rejected rename = %d, expected 1", got)
	}
}

func TestSetToolRoleValidation(t *testing.T) {
	tr, _ := newSimTracker(t, 1, 100)

	if err := tr.SetToolRole(0, tracking.ToolRole(99)); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("unknown role returned %v, expected ErrInvalidArgument", err)
	}
	tool, err := tr.GetTool(0)
	if err != nil {
		t.Fatalf("GetTool returned unexpected error: %v", err)
	}
	if tool.Role() != tracking.RoleNone {
		t.Errorf("role after rejected set = %v, expected RoleNone", tool.Role())
	}
}
