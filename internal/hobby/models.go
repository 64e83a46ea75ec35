package hobby

// Model class sets. Controllable actions fall into one of four classes
// that determine which property a write targets.
var (
	// RelayModels switch a single output on or off via Status.
	RelayModels = map[string]bool{
		"light":            true,
		"socket":           true,
		"switched-fan":     true,
		"switched-generic": true,
	}

	// DimmerModels accept Status and Brightness writes.
	DimmerModels = map[string]bool{
		"dimmer": true,
	}

	// MotorModels accept Action and Position writes.
	MotorModels = map[string]bool{
		"rolldownshutter": true,
		"sunblind":        true,
		"gate":            true,
		"venetianblind":   true,
	}

	// MoodModels are stateless scenes triggered via BasicState.
	MoodModels = map[string]bool{
		"comfort": true,
		"alloff":  true,
		"generic": true,
	}
)

// AllControllableModels is the union of the four model classes.
var AllControllableModels = unionModels(RelayModels, DimmerModels, MotorModels, MoodModels)

func unionModels(sets ...map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for _, set := range sets {
		for model := range set {
			out[model] = true
		}
	}
	return out
}
