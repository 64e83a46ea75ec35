package hass

// Category is the generic entity kind a hub device translates into.
type Category string

// Entity categories. Unsupported is the zero value.
const (
	CategoryUnsupported  Category = ""
	CategoryLight        Category = "light"
	CategorySwitch       Category = "switch"
	CategorySceneSwitch  Category = "scene-switch"
	CategoryCover        Category = "cover"
	CategoryFan          Category = "fan"
	CategoryBinarySensor Category = "binary-sensor"
)

// Component returns the Home Assistant discovery component used in
// topics. Scene switches share the switch component; the distinction
// only affects payload construction.
func (c Category) Component() string {
	switch c {
	case CategorySceneSwitch:
		return "switch"
	case CategoryBinarySensor:
		return "binary_sensor"
	default:
		return string(c)
	}
}

// modelCategories is the fixed model translation table. Models not
// listed are unsupported and excluded from discovery.
var modelCategories = map[string]Category{
	"light":  CategoryLight,
	"dimmer": CategoryLight,

	"rolldownshutter": CategoryCover,
	"sunblind":        CategoryCover,
	"gate":            CategoryCover,
	"venetianblind":   CategoryCover,

	"switched-fan": CategoryFan,

	"socket":           CategorySwitch,
	"switched-generic": CategorySwitch,

	"pir":            CategorySceneSwitch,
	"comfort":        CategorySceneSwitch,
	"overallcomfort": CategorySceneSwitch,
	"alloff":         CategorySceneSwitch,
	"generic":        CategorySceneSwitch,
}

// CategoryForModel maps a hub model to its entity category.
// Returns CategoryUnsupported for unmapped models.
func CategoryForModel(model string) Category {
	return modelCategories[model]
}

// SupportedModels returns the set of models with a category mapping,
// suitable for registry lookups.
func SupportedModels() map[string]bool {
	out := make(map[string]bool, len(modelCategories))
	for model := range modelCategories {
		out[model] = true
	}
	return out
}

// CoverClassForModel maps a motor model to its cover device class.
// The class is a display attribute only.
func CoverClassForModel(model string) string {
	switch model {
	case "sunblind":
		return "awning"
	case "gate":
		return "gate"
	case "venetianblind":
		return "blind"
	default:
		return "shutter"
	}
}

// sceneIcons gives each scene-switch model a display icon.
var sceneIcons = map[string]string{
	"comfort":        "mdi:sofa",
	"overallcomfort": "mdi:home-heart",
	"alloff":         "mdi:power",
	"generic":        "mdi:gesture-tap-button",
	"pir":            "mdi:motion-sensor",
}

func sceneIconForModel(model string) string {
	if icon, ok := sceneIcons[model]; ok {
		return icon
	}
	return sceneIcons["generic"]
}
