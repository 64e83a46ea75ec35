package device

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Device type tags used by the hub.
const (
	// TypeAction marks a controllable entity. Only action devices are
	// eligible for translation towards the generic side.
	TypeAction = "action"
)

// Synthetic trait keys produced by name extraction.
const (
	TraitMeshAddress  = "MeshAddress"
	traitOptionPrefix = "Option"
)

// Property is a single named value in a device's ordered property list.
type Property struct {
	Name  string
	Value string
}

// Properties is an ordered list of single-key property values.
//
// The hub transmits properties, parameters and traits as arrays of
// one-entry objects; insertion order is preserved for display purposes.
// After first population the key set of a device's properties is stable:
// updates overwrite values for existing keys and never introduce new ones.
type Properties []Property

// MarshalJSON encodes the list in the hub's wire shape:
//
//	[{"Status":"On"},{"Brightness":"50"}]
func (p Properties) MarshalJSON() ([]byte, error) {
	out := make([]map[string]string, 0, len(p))
	for _, prop := range p {
		out = append(out, map[string]string{prop.Name: prop.Value})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the hub's array-of-single-key-objects shape.
// Entries with more than one key are rejected as malformed.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	props := make(Properties, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 1 {
			return fmt.Errorf("property entry must have exactly one key, got %d", len(entry))
		}
		for name, value := range entry {
			props = append(props, Property{Name: name, Value: value})
		}
	}

	*p = props
	return nil
}

// Get returns the value for a property name.
func (p Properties) Get(name string) (string, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

// Has reports whether a property name is present.
func (p Properties) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Set overwrites the value of an existing property.
// It returns false when the name is not present; no entry is added.
func (p Properties) Set(name, value string) bool {
	for i := range p {
		if p[i].Name == name {
			p[i].Value = value
			return true
		}
	}
	return false
}

// Merge overwrites values for every delta key that already exists.
// Keys not present are ignored (merge-not-insert). It returns the names
// that were overwritten, in delta order.
func (p Properties) Merge(delta Properties) []string {
	var touched []string
	for _, prop := range delta {
		if p.Set(prop.Name, prop.Value) {
			touched = append(touched, prop.Name)
		}
	}
	return touched
}

// Names returns the property names in order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for _, prop := range p {
		names = append(names, prop.Name)
	}
	return names
}

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	copy(out, p)
	return out
}

// Device represents one physical or logical hub entity.
//
// The UUID is the primary key; Name is the display name after trait
// extraction. Properties carry the live state values, Parameters the
// configuration values (location among them), Traits auxiliary data
// (MAC address, channel, name-derived extras).
type Device struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Model string `json:"model"`
	Type  string `json:"type"`

	Online      bool `json:"online"`
	HassEnabled bool `json:"hass_enabled"`

	Properties Properties `json:"properties"`
	Parameters Properties `json:"parameters"`
	Traits     Properties `json:"traits"`

	// PropertyDefinitions are kept verbatim as delivered by the hub;
	// the bridge never interprets them.
	PropertyDefinitions []json.RawMessage `json:"property_definitions,omitempty"`
}

// Location returns the device's location name from its parameter list.
func (d *Device) Location() string {
	loc, _ := d.Parameters.Get("LocationName")
	return loc
}

// DisplayName returns the name disambiguated with the location.
// The location is appended only when the name does not already contain it.
func (d *Device) DisplayName() string {
	loc := d.Location()
	if loc == "" || strings.Contains(d.Name, loc) {
		return d.Name
	}
	return d.Name + " " + loc
}

// DeepCopy returns an independent copy of the device.
// Callers can safely modify the result without affecting the registry.
func (d *Device) DeepCopy() *Device {
	out := *d
	out.Properties = d.Properties.Clone()
	out.Parameters = d.Parameters.Clone()
	out.Traits = d.Traits.Clone()
	if d.PropertyDefinitions != nil {
		out.PropertyDefinitions = make([]json.RawMessage, len(d.PropertyDefinitions))
		for i, def := range d.PropertyDefinitions {
			out.PropertyDefinitions[i] = append(json.RawMessage(nil), def...)
		}
	}
	return &out
}

// ExtractNameTraits splits the name on '#' and converts the extra
// segments into synthetic traits. The first segment becomes the
// canonical display name, the first extra segment the MeshAddress
// trait, later ones OptionN. Re-running after a rename replaces the
// previously extracted synthetic traits.
func (d *Device) ExtractNameTraits() {
	parts := strings.Split(d.Name, "#")
	d.Name = parts[0]

	// Drop synthetic traits from a previous extraction so a rename
	// cannot accumulate duplicates.
	kept := make(Properties, 0, len(d.Traits))
	for _, trait := range d.Traits {
		if trait.Name == TraitMeshAddress || strings.HasPrefix(trait.Name, traitOptionPrefix) {
			continue
		}
		kept = append(kept, trait)
	}
	d.Traits = kept

	for i, segment := range parts[1:] {
		key := TraitMeshAddress
		if i > 0 {
			key = fmt.Sprintf("%s%d", traitOptionPrefix, i)
		}
		d.Traits = append(d.Traits, Property{Name: key, Value: segment})
	}
}

// StatusDelta is the payload of a devices.status event for one device.
//
// Online and Properties are mutually exclusive update modes: a delta
// carrying an online flag updates only the online state and suppresses
// the state-publish side effect.
type StatusDelta struct {
	Online     *bool
	Properties Properties
}
