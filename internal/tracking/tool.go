package tracking

import (
	"fmt"

	"github.com/saviola777/PlusLib/internal/transform"
)

// Tool is one slot in a tracker's tool table: identity, enablement, role and
// a handle to the tool's sample store. The port number is fixed at
// construction and is the stable identity used by every lookup.
type Tool struct {
	port        int
	name        string
	role        ToolRole
	enabled     bool
	calibration transform.Matrix
	store       SampleStore
}

func (t *Tool) Port() int                           { return t.port }
func (t *Tool) Name() string                        { return t.name }
func (t *Tool) Role() ToolRole                      { return t.role }
func (t *Tool) Enabled() bool                       { return t.enabled }
func (t *Tool) CalibrationMatrix() transform.Matrix { return t.calibration }
func (t *Tool) Store() SampleStore                  { return t.store }

// ToolTable is a fixed-capacity collection of tools allocated once, indexed
// by port number. The table structure never changes after construction;
// name/role/enabled mutations are gated by the Tracker so they only happen
// while tracking is stopped.
type ToolTable struct {
	tools []*Tool
}

// NewToolTable allocates n tools with default names ("Tool0".."ToolN-1"),
// role None, enabled, identity calibration, and one store per port from the
// factory.
func NewToolTable(n int, newStore StoreFactory) (*ToolTable, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: number of tools must be positive, got %d", ErrInvalidArgument, n)
	}
	if newStore == nil {
		return nil, fmt.Errorf("%w: a sample store factory is required", ErrInvalidArgument)
	}
	tools := make([]*Tool, n)
	for port := range tools {
		tools[port] = &Tool{
			port:        port,
			name:        fmt.Sprintf("Tool%d", port),
			role:        RoleNone,
			enabled:     true,
			calibration: transform.Identity(),
			store:       newStore(port),
		}
	}
	return &ToolTable{tools: tools}, nil
}

// Len returns the number of tool ports.
func (tt *ToolTable) Len() int { return len(tt.tools) }

// Tool returns the tool at the given port. The returned pointer is stable
// across repeated calls.
func (tt *ToolTable) Tool(port int) (*Tool, error) {
	if port < 0 || port >= len(tt.tools) {
		return nil, fmt.Errorf("%w: port %d, table has %d tools", ErrOutOfRange, port, len(tt.tools))
	}
	return tt.tools[port], nil
}

// PortByName returns the port of the tool with the given name, or -1.
func (tt *ToolTable) PortByName(name string) int {
	for _, tool := range tt.tools {
		if tool.name == name {
			return tool.port
		}
	}
	return -1
}

// PortsByRole returns the ports of all tools with the given role, ascending.
func (tt *ToolTable) PortsByRole(role ToolRole) []int {
	var ports []int
	for _, tool := range tt.tools {
		if tool.role == role {
			ports = append(ports, tool.port)
		}
	}
	return ports
}

// FirstPortByRole returns the lowest port with the given role, or -1.
func (tt *ToolTable) FirstPortByRole(role ToolRole) int {
	for _, tool := range tt.tools {
		if tool.role == role {
			return tool.port
		}
	}
	return -1
}

// ReferencePort returns the port of the reference tool, or -1.
func (tt *ToolTable) ReferencePort() int {
	return tt.FirstPortByRole(RoleReference)
}

// FirstEnabledPort returns the lowest enabled port, or an ErrNotFound error
// when every tool is disabled.
func (tt *ToolTable) FirstEnabledPort() (int, error) {
	for _, tool := range tt.tools {
		if tool.enabled {
			return tool.port, nil
		}
	}
	return -1, fmt.Errorf("%w: no enabled tool", ErrNotFound)
}

// SetName renames the tool at port. Renaming to a name already held by a
// different tool fails with ErrInvalidArgument and leaves both unchanged.
func (tt *ToolTable) SetName(port int, name string) error {
	tool, err := tt.Tool(port)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: tool name must not be empty", ErrInvalidArgument)
	}
	if existing := tt.PortByName(name); existing >= 0 && existing != port {
		return fmt.Errorf("%w: tool name %q already in use by port %d", ErrInvalidArgument, name, existing)
	}
	tool.name = name
	return nil
}

// SetRole assigns a role to the tool at port.
func (tt *ToolTable) SetRole(port int, role ToolRole) error {
	if _, err := ConvertToolTypeToString(role); err != nil {
		return err
	}
	tool, err := tt.Tool(port)
	if err != nil {
		return err
	}
	tool.role = role
	return nil
}

// SetEnabled toggles the tool at port.
func (tt *ToolTable) SetEnabled(port int, enabled bool) error {
	tool, err := tt.Tool(port)
	if err != nil {
		return err
	}
	tool.enabled = enabled
	return nil
}

// SetCalibration sets the tool calibration transform, propagating it to the
// tool's sample store for calibrated queries.
func (tt *ToolTable) SetCalibration(port int, m transform.Matrix) error {
	tool, err := tt.Tool(port)
	if err != nil {
		return err
	}
	tool.calibration = m
	tool.store.SetToolCalibration(m)
	return nil
}
