package tracking

import "fmt"

// ToolRole classifies the clinical function of a tracked instrument.
type ToolRole int

const (
	RoleNone ToolRole = iota
	RoleReference
	RoleProbe
	RoleStylus
	RoleNeedle
	RoleGeneral
)

// ConvertToolTypeToString returns the canonical string form of a role.
// Unknown values fail with ErrInvalidArgument.
func ConvertToolTypeToString(role ToolRole) (string, error) {
	switch role {
	case RoleNone:
		return "None", nil
	case RoleReference:
		return "Reference", nil
	case RoleProbe:
		return "Probe", nil
	case RoleStylus:
		return "Stylus", nil
	case RoleNeedle:
		return "Needle", nil
	case RoleGeneral:
		return "General", nil
	default:
		return "", fmt.Errorf("%w: unknown tool type %d", ErrInvalidArgument, role)
	}
}

// ConvertStringToToolType is the inverse of ConvertToolTypeToString.
func ConvertStringToToolType(s string) (ToolRole, error) {
	switch s {
	case "None":
		return RoleNone, nil
	case "Reference":
		return RoleReference, nil
	case "Probe":
		return RoleProbe, nil
	case "Stylus":
		return RoleStylus, nil
	case "Needle":
		return RoleNeedle, nil
	case "General":
		return RoleGeneral, nil
	default:
		return 0, fmt.Errorf("%w: unknown tool type %q", ErrInvalidArgument, s)
	}
}
