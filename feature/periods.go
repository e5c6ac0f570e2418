package feature

// TimeStep is the unit of the implicit row index, driving which seasonal
// cycles are expressible and how many rows make up one period of each.
type TimeStep string

const (
	TimeStepDays     TimeStep = "days"
	TimeStepWeeks    TimeStep = "weeks"
	TimeStepMonths   TimeStep = "months"
	TimeStepQuarters TimeStep = "quarters"
	TimeStepYears    TimeStep = "years"
	TimeStepHours    TimeStep = "hours"
)

// CyclePeriods returns the known cycle lengths in row-index units for a time
// step. Cycles not listed for a step cannot be encoded at that resolution and
// are silently skipped by the engineer.
func CyclePeriods(step TimeStep) map[string]float64 {
	switch step {
	case TimeStepDays:
		return map[string]float64{
			"yearly":    365.25,
			"quarterly": 91.31,
			"monthly":   30.44,
			"weekly":    7.0,
		}
	case TimeStepWeeks:
		return map[string]float64{
			"yearly":  52.14,
			"monthly": 4.34,
		}
	case TimeStepMonths:
		return map[string]float64{
			"yearly":    12.0,
			"quarterly": 3.0,
		}
	case TimeStepQuarters:
		return map[string]float64{
			"yearly": 4.0,
		}
	case TimeStepYears:
		return map[string]float64{
			"decade": 10.0,
		}
	case TimeStepHours:
		return map[string]float64{
			"yearly": 365.25 * 24,
			"weekly": 7 * 24,
			"daily":  24.0,
		}
	}
	return map[string]float64{}
}
