package tracking

import (
	"fmt"

	"github.com/saviola777/PlusLib/internal/transform"
)

// Read-only lookups over the tool table. All delegate to the table so
// tie-break (port-index ascending) and not-found policy (-1 sentinel or
// ErrNotFound) have a single source of truth.

// GetTool returns the tool at the given port. Repeated calls return the
// same tool identity.
func (t *Tracker) GetTool(port int) (*Tool, error) {
	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()
	if tools == nil {
		return nil, fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}
	return tools.Tool(port)
}

// GetToolPortByName returns the port of the named tool, or -1.
func (t *Tracker) GetToolPortByName(name string) int {
	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()
	if tools == nil {
		return -1
	}
	return tools.PortByName(name)
}

// GetToolPortNumbersByType returns all ports with the given role, ascending.
func (t *Tracker) GetToolPortNumbersByType(role ToolRole) []int {
	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()
	if tools == nil {
		return nil
	}
	return tools.PortsByRole(role)
}

// GetFirstPortNumberByType returns the lowest port with the given role, or -1.
func (t *Tracker) GetFirstPortNumberByType(role ToolRole) int {
	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()
	if tools == nil {
		return -1
	}
	return tools.FirstPortByRole(role)
}

// GetReferenceToolNumber returns the port of the reference tool, or -1.
func (t *Tracker) GetReferenceToolNumber() int {
	return t.GetFirstPortNumberByType(RoleReference)
}

// GetFirstActiveTool returns the lowest enabled port, or ErrNotFound when
// every tool is disabled.
func (t *Tracker) GetFirstActiveTool() (int, error) {
	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()
	if tools == nil {
		return -1, fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}
	return tools.FirstEnabledPort()
}

// SetToolName renames a tool. Rejected while tracking.
func (t *Tracker) SetToolName(port int, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return fmt.Errorf("%w: cannot rename tools while tracking", ErrInvalidArgument)
	}
	if t.tools == nil {
		return fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}
	return t.tools.SetName(port, name)
}

// SetToolRole assigns a role to a tool. Rejected while tracking.
func (t *Tracker) SetToolRole(port int, role ToolRole) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return fmt.Errorf("%w: cannot change tool roles while tracking", ErrInvalidArgument)
	}
	if t.tools == nil {
		return fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}
	return t.tools.SetRole(port, role)
}

// SetToolEnabled toggles a tool. Rejected while tracking.
func (t *Tracker) SetToolEnabled(port int, enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return fmt.Errorf("%w: cannot enable or disable tools while tracking", ErrInvalidArgument)
	}
	if t.tools == nil {
		return fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}
	return t.tools.SetEnabled(port, enabled)
}

// SetToolCalibrationMatrix sets a tool's calibration transform. Rejected
// while tracking.
func (t *Tracker) SetToolCalibrationMatrix(port int, m transform.Matrix) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return fmt.Errorf("%w: cannot change tool calibration while tracking", ErrInvalidArgument)
	}
	if t.tools == nil {
		return fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}
	return t.tools.SetCalibration(port, m)
}
