package device

import (
	"errors"
	"reflect"
	"testing"
)

const (
	uuidLight  = "3b2095d2-7a69-4fc2-a3c9-1e4d8a2f6b01"
	uuidDimmer = "57f1d2aa-8c44-4d0e-9e71-2b8a9c3e4f02"
	uuidMotor  = "9c4e7b31-1f2d-4a8e-b6d5-3c9f0a1e2d03"
)

func snapshotDevices() []Device {
	return []Device{
		{
			UUID:  uuidLight,
			Name:  "Kitchen Light#A1",
			Model: "light",
			Type:  "action",
			Properties: Properties{
				{Name: "Status", Value: "Off"},
			},
			Parameters: Properties{
				{Name: "LocationName", Value: "Kitchen"},
			},
		},
		{
			UUID:  uuidDimmer,
			Name:  "Living Dimmer",
			Model: "dimmer",
			Type:  "action",
			Properties: Properties{
				{Name: "Status", Value: "On"},
				{Name: "Brightness", Value: "40"},
			},
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	reg.ReplaceAll(snapshotDevices())
	return reg
}

func TestRegistry_ReplaceAll(t *testing.T) {
	reg := newTestRegistry(t)

	if reg.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reg.Count())
	}

	dev, err := reg.FindByUUID(uuidLight)
	if err != nil {
		t.Fatalf("FindByUUID() error = %v", err)
	}
	if dev.Name != "Kitchen Light" {
		t.Errorf("Name = %q, want trait-extracted %q", dev.Name, "Kitchen Light")
	}
	if v, _ := dev.Traits.Get("MeshAddress"); v != "A1" {
		t.Errorf("MeshAddress trait = %q, want A1", v)
	}
	if !dev.HassEnabled {
		t.Error("new device should default to hass-enabled")
	}
}

func TestRegistry_ReplaceAll_PreservesHassEnabled(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.SetHassEnabled(uuidLight, false); err != nil {
		t.Fatalf("SetHassEnabled() error = %v", err)
	}

	reg.ReplaceAll(snapshotDevices())

	dev, err := reg.FindByUUID(uuidLight)
	if err != nil {
		t.Fatalf("FindByUUID() error = %v", err)
	}
	if dev.HassEnabled {
		t.Error("HassEnabled should survive snapshot replacement")
	}
}

func TestRegistry_ApplyAdded(t *testing.T) {
	reg := newTestRegistry(t)

	var added []Device
	reg.SetCallbacks(Callbacks{
		OnAdded: func(dev Device) { added = append(added, dev) },
	})

	reg.ApplyAdded(Device{
		UUID:  uuidMotor,
		Name:  "Bedroom Shutter#C7",
		Model: "rolldownshutter",
		Type:  "action",
	})

	if reg.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", reg.Count())
	}
	if len(added) != 1 {
		t.Fatalf("OnAdded fired %d times, want 1", len(added))
	}
	if added[0].Name != "Bedroom Shutter" {
		t.Errorf("added name = %q, want trait-extracted name", added[0].Name)
	}

	// Known UUID: update in place, no callback.
	reg.ApplyAdded(Device{
		UUID:  uuidLight,
		Name:  "Kitchen Spot",
		Model: "light",
		Type:  "action",
	})

	if reg.Count() != 3 {
		t.Errorf("Count() = %d after duplicate add, want 3", reg.Count())
	}
	if len(added) != 1 {
		t.Errorf("OnAdded fired for known uuid")
	}
	dev, _ := reg.FindByUUID(uuidLight)
	if dev.Name != "Kitchen Spot" {
		t.Errorf("Name = %q, want in-place update to %q", dev.Name, "Kitchen Spot")
	}
}

func TestRegistry_ApplyRemoved(t *testing.T) {
	reg := newTestRegistry(t)

	type removal struct{ uuid, model string }
	var removed []removal
	reg.SetCallbacks(Callbacks{
		OnRemoved: func(id, model string) {
			removed = append(removed, removal{id, model})
		},
	})

	reg.ApplyRemoved([]string{uuidDimmer, "not-a-known-uuid"})

	if reg.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reg.Count())
	}
	want := []removal{{uuidDimmer, "dimmer"}}
	if !reflect.DeepEqual(removed, want) {
		t.Errorf("OnRemoved calls = %+v, want %+v", removed, want)
	}

	if _, err := reg.FindByUUID(uuidDimmer); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("FindByUUID() after removal error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_ApplyRenamed(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.ApplyRenamed(uuidLight, "Kitchen Pendant#B9"); err != nil {
		t.Fatalf("ApplyRenamed() error = %v", err)
	}

	dev, _ := reg.FindByUUID(uuidLight)
	if dev.Name != "Kitchen Pendant" {
		t.Errorf("Name = %q, want %q", dev.Name, "Kitchen Pendant")
	}
	if v, _ := dev.Traits.Get("MeshAddress"); v != "B9" {
		t.Errorf("MeshAddress trait = %q, want B9", v)
	}

	if err := reg.ApplyRenamed("unknown", "x"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("ApplyRenamed() unknown error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_ApplyStatus_Merge(t *testing.T) {
	reg := newTestRegistry(t)

	var gotDev Device
	var gotDelta StatusDelta
	fired := 0
	reg.SetCallbacks(Callbacks{
		OnStatus: func(dev Device, delta StatusDelta) {
			fired++
			gotDev = dev
			gotDelta = delta
		},
	})

	err := reg.ApplyStatus(uuidDimmer, StatusDelta{
		Properties: Properties{
			{Name: "Brightness", Value: "80"},
			{Name: "Bogus", Value: "x"},
		},
	})
	if err != nil {
		t.Fatalf("ApplyStatus() error = %v", err)
	}

	if fired != 1 {
		t.Fatalf("OnStatus fired %d times, want 1", fired)
	}
	if v, _ := gotDev.Properties.Get("Brightness"); v != "80" {
		t.Errorf("merged Brightness = %q, want 80", v)
	}
	if gotDev.Properties.Has("Bogus") {
		t.Error("unknown key inserted by status merge")
	}

	wantDelta := Properties{{Name: "Brightness", Value: "80"}}
	if !reflect.DeepEqual(gotDelta.Properties, wantDelta) {
		t.Errorf("effective delta = %+v, want %+v", gotDelta.Properties, wantDelta)
	}
}

func TestRegistry_ApplyStatus_OnlineOnly(t *testing.T) {
	reg := newTestRegistry(t)

	fired := 0
	reg.SetCallbacks(Callbacks{
		OnStatus: func(Device, StatusDelta) { fired++ },
	})

	offline := false
	if err := reg.ApplyStatus(uuidLight, StatusDelta{Online: &offline}); err != nil {
		t.Fatalf("ApplyStatus() error = %v", err)
	}

	if fired != 0 {
		t.Error("OnStatus fired for online-only delta")
	}
	dev, _ := reg.FindByUUID(uuidLight)
	if dev.Online {
		t.Error("Online = true, want false")
	}
}

func TestRegistry_ApplyStatus_OnlineTransition(t *testing.T) {
	reg := newTestRegistry(t)

	statusFired := 0
	var transitions []bool
	reg.SetCallbacks(Callbacks{
		OnStatus: func(Device, StatusDelta) { statusFired++ },
		OnOnline: func(dev Device, online bool) {
			if dev.UUID != uuidLight {
				t.Errorf("OnOnline uuid = %s, want %s", dev.UUID, uuidLight)
			}
			transitions = append(transitions, online)
		},
	})

	online := true
	if err := reg.ApplyStatus(uuidLight, StatusDelta{Online: &online}); err != nil {
		t.Fatalf("ApplyStatus() error = %v", err)
	}
	if !reflect.DeepEqual(transitions, []bool{true}) {
		t.Fatalf("transitions = %v, want [true]", transitions)
	}

	// Restating the current flag is not a transition.
	if err := reg.ApplyStatus(uuidLight, StatusDelta{Online: &online}); err != nil {
		t.Fatalf("ApplyStatus() error = %v", err)
	}
	if len(transitions) != 1 {
		t.Errorf("OnOnline fired %d times, want 1", len(transitions))
	}

	offline := false
	if err := reg.ApplyStatus(uuidLight, StatusDelta{Online: &offline}); err != nil {
		t.Fatalf("ApplyStatus() error = %v", err)
	}
	if !reflect.DeepEqual(transitions, []bool{true, false}) {
		t.Errorf("transitions = %v, want [true false]", transitions)
	}

	if statusFired != 0 {
		t.Errorf("OnStatus fired %d times for online deltas, want 0", statusFired)
	}
}

func TestRegistry_ApplyStatus_Bootstrap(t *testing.T) {
	reg := NewRegistry()
	reg.ReplaceAll([]Device{{
		UUID:  uuidMotor,
		Name:  "Shutter",
		Model: "rolldownshutter",
		Type:  "action",
	}})

	fired := 0
	reg.SetCallbacks(Callbacks{
		OnStatus: func(Device, StatusDelta) { fired++ },
	})

	boot := Properties{
		{Name: "Position", Value: "100"},
		{Name: "Moving", Value: "False"},
	}
	if err := reg.ApplyStatus(uuidMotor, StatusDelta{Properties: boot}); err != nil {
		t.Fatalf("ApplyStatus() error = %v", err)
	}

	if fired != 0 {
		t.Error("OnStatus fired during bootstrap")
	}

	dev, _ := reg.FindByUUID(uuidMotor)
	if !reflect.DeepEqual(dev.Properties, boot) {
		t.Errorf("bootstrapped properties = %+v, want %+v", dev.Properties, boot)
	}

	// Subsequent delta against the bootstrapped set fires normally.
	err := reg.ApplyStatus(uuidMotor, StatusDelta{
		Properties: Properties{{Name: "Position", Value: "50"}},
	})
	if err != nil {
		t.Fatalf("ApplyStatus() error = %v", err)
	}
	if fired != 1 {
		t.Errorf("OnStatus fired %d times after bootstrap, want 1", fired)
	}
}

func TestRegistry_FindControllable(t *testing.T) {
	reg := newTestRegistry(t)
	lights := map[string]bool{"light": true, "dimmer": true}

	tests := []struct {
		name       string
		identifier string
		models     map[string]bool
		wantUUID   string
		wantErr    error
	}{
		{
			name:       "by uuid",
			identifier: uuidLight,
			models:     lights,
			wantUUID:   uuidLight,
		},
		{
			name:       "by display name",
			identifier: "Living Dimmer",
			models:     lights,
			wantUUID:   uuidDimmer,
		},
		{
			name:       "uuid not in registry",
			identifier: uuidMotor,
			models:     lights,
			wantErr:    ErrDeviceNotFound,
		},
		{
			name:       "model not permitted",
			identifier: uuidLight,
			models:     map[string]bool{"rolldownshutter": true},
			wantErr:    ErrNotControllable,
		},
		{
			name:       "name not found",
			identifier: "No Such Device",
			models:     lights,
			wantErr:    ErrDeviceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := reg.FindControllable(tt.identifier, tt.models)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindControllable() error = %v", err)
			}
			if dev.UUID != tt.wantUUID {
				t.Errorf("UUID = %q, want %q", dev.UUID, tt.wantUUID)
			}
		})
	}
}

func TestRegistry_ListControllableUUIDs(t *testing.T) {
	reg := newTestRegistry(t)

	got := reg.ListControllableUUIDs(map[string]bool{"dimmer": true})
	want := []string{uuidDimmer}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListControllableUUIDs() = %v, want %v", got, want)
	}
}

func TestRegistry_AllReturnsCopies(t *testing.T) {
	reg := newTestRegistry(t)

	all := reg.All()
	all[0].Properties.Set("Status", "Mutated")

	dev, _ := reg.FindByUUID(all[0].UUID)
	if v, _ := dev.Properties.Get("Status"); v == "Mutated" {
		t.Error("All() shares storage with the registry")
	}
}
