package model

// Action is a human-friendly operating mode for one hour.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromFlows derives the operating mode from the hourly charge and
// discharge flows. In a valid solution at most one of them is positive.
func ActionFromFlows(charge, discharge float64) Action {
	switch {
	case charge > 0:
		return ActionCharging
	case discharge > 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
