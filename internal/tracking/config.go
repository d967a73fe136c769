package tracking

import (
	"fmt"

	"github.com/saviola777/PlusLib/internal/config"
	"github.com/saviola777/PlusLib/internal/transform"
)

// stagedToolConfig is one fully-validated tool entry, ready to commit.
type stagedToolConfig struct {
	port        int
	name        string
	hasName     bool
	role        ToolRole
	hasRole     bool
	enabled     *bool
	calibration *transform.Matrix
}

// ReadConfiguration applies tracker-level scalars and tool settings from a
// configuration node. The node is parsed and validated in full before any
// state changes, so a failure reports the offending field and leaves the
// coordinator exactly as it was. Rejected while tracking.
func (t *Tracker) ReadConfiguration(node *config.TrackerNode) error {
	if node == nil {
		return fmt.Errorf("%w: nil configuration node", ErrInvalidArgument)
	}
	if t.IsTracking() {
		return fmt.Errorf("%w: cannot read configuration while tracking", ErrInvalidArgument)
	}

	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()

	// Stage: validate every field without touching coordinator state.
	if node.Frequency != nil && *node.Frequency <= 0 {
		return fmt.Errorf("%w: field frequency must be positive, got %g", ErrInvalidArgument, *node.Frequency)
	}
	if node.MaxConsecutiveErrors != nil && *node.MaxConsecutiveErrors < 0 {
		return fmt.Errorf("%w: field max_consecutive_errors must not be negative", ErrInvalidArgument)
	}

	var world *transform.Matrix
	if node.WorldCalibration != nil {
		m, err := transform.FromSlice(node.WorldCalibration)
		if err != nil {
			return fmt.Errorf("%w: field world_calibration: %v", ErrInvalidArgument, err)
		}
		world = &m
	}

	staged := make([]stagedToolConfig, 0, len(node.Tools))
	stagedNames := make(map[string]int)
	renamedPorts := make(map[int]string)
	for _, tn := range node.Tools {
		if tools == nil {
			return fmt.Errorf("%w: field tools: tool table has not been sized", ErrInvalidArgument)
		}
		if tn.Port < 0 || tn.Port >= tools.Len() {
			return fmt.Errorf("%w: field tools: port %d outside table of %d", ErrOutOfRange, tn.Port, tools.Len())
		}
		sc := stagedToolConfig{port: tn.Port, enabled: tn.Enabled}
		if tn.Name != "" {
			if prev, dup := stagedNames[tn.Name]; dup {
				return fmt.Errorf("%w: field tools: name %q configured for both port %d and %d",
					ErrInvalidArgument, tn.Name, prev, tn.Port)
			}
			stagedNames[tn.Name] = tn.Port
			renamedPorts[tn.Port] = tn.Name
			sc.name = tn.Name
			sc.hasName = true
		}
		if tn.Role != "" {
			role, err := ConvertStringToToolType(tn.Role)
			if err != nil {
				return fmt.Errorf("field tools, port %d: %w", tn.Port, err)
			}
			sc.role = role
			sc.hasRole = true
		}
		if tn.Calibration != nil {
			m, err := transform.FromSlice(tn.Calibration)
			if err != nil {
				return fmt.Errorf("%w: field tools, port %d calibration: %v", ErrInvalidArgument, tn.Port, err)
			}
			sc.calibration = &m
		}
		staged = append(staged, sc)
	}
	// A staged name must also not collide with a tool whose name this node
	// does not change.
	for name, port := range stagedNames {
		if tools == nil {
			break
		}
		if existing := tools.PortByName(name); existing >= 0 && existing != port {
			if newName, renamed := renamedPorts[existing]; !renamed || newName == name {
				return fmt.Errorf("%w: field tools: name %q already held by port %d",
					ErrInvalidArgument, name, existing)
			}
		}
	}

	// Commit.
	t.mu.Lock()
	defer t.mu.Unlock()
	if node.Frequency != nil {
		t.frequency = *node.Frequency
	}
	if node.MaxConsecutiveErrors != nil {
		t.maxConsecutiveErrors = *node.MaxConsecutiveErrors
	}
	if node.Calibrated != nil {
		t.calibrated = *node.Calibrated
	}
	if world != nil {
		t.worldCalibration = *world
		if t.tools != nil {
			for _, tool := range t.tools.tools {
				tool.store.SetWorldCalibration(*world)
			}
		}
	}
	for _, sc := range staged {
		tool := t.tools.tools[sc.port]
		if sc.hasName {
			tool.name = sc.name
		}
		if sc.hasRole {
			tool.role = sc.role
		}
		if sc.enabled != nil {
			tool.enabled = *sc.enabled
		}
		if sc.calibration != nil {
			tool.calibration = *sc.calibration
			tool.store.SetToolCalibration(*sc.calibration)
		}
	}
	return nil
}

// WriteConfiguration fills a configuration node with the coordinator's
// current settings so they round-trip through Load/Save.
func (t *Tracker) WriteConfiguration(node *config.TrackerNode) error {
	if node == nil {
		return fmt.Errorf("%w: nil configuration node", ErrInvalidArgument)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	freq := t.frequency
	maxErrs := t.maxConsecutiveErrors
	calibrated := t.calibrated
	node.Frequency = &freq
	node.MaxConsecutiveErrors = &maxErrs
	node.Calibrated = &calibrated
	node.WorldCalibration = append([]float64(nil), t.worldCalibration[:]...)

	node.Tools = nil
	if t.tools != nil {
		for _, tool := range t.tools.tools {
			roleStr, err := ConvertToolTypeToString(tool.role)
			if err != nil {
				return fmt.Errorf("serializing role of tool %q: %w", tool.name, err)
			}
			enabled := tool.enabled
			node.Tools = append(node.Tools, config.ToolNode{
				Port:        tool.port,
				Name:        tool.name,
				Role:        roleStr,
				Enabled:     &enabled,
				Calibration: append([]float64(nil), tool.calibration[:]...),
			})
		}
	}
	return nil
}
