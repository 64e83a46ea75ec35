package hass

import "testing"

func TestTopics(t *testing.T) {
	topics := NewTopics("homeassistant")

	if got := topics.Config(CategoryLight, "u1"); got != "homeassistant/light/u1/config" {
		t.Errorf("Config() = %q", got)
	}
	if got := topics.State(CategoryCover, "u2"); got != "homeassistant/cover/u2/state" {
		t.Errorf("State() = %q", got)
	}
	if got := topics.Set(CategorySwitch, "u3"); got != "homeassistant/switch/u3/set" {
		t.Errorf("Set() = %q", got)
	}
	if got := topics.Available(CategoryFan, "u4"); got != "homeassistant/fan/u4/available" {
		t.Errorf("Available() = %q", got)
	}
	if got := topics.CommandWildcard(); got != "homeassistant/+/+/set" {
		t.Errorf("CommandWildcard() = %q", got)
	}
	if got := topics.StatusTopic(); got != "homeassistant/status" {
		t.Errorf("StatusTopic() = %q", got)
	}

	// Scene switches share the switch component.
	if got := topics.Config(CategorySceneSwitch, "u5"); got != "homeassistant/switch/u5/config" {
		t.Errorf("scene Config() = %q", got)
	}
}

func TestTopics_Defaults(t *testing.T) {
	topics := NewTopics("")
	if topics.Namespace() != "homeassistant" {
		t.Errorf("Namespace() = %q, want homeassistant", topics.Namespace())
	}

	topics = NewTopics("custom/")
	if got := topics.StatusTopic(); got != "custom/status" {
		t.Errorf("StatusTopic() = %q, want custom/status", got)
	}
}

func TestTopics_ParseCommandTopic(t *testing.T) {
	topics := NewTopics("homeassistant")

	tests := []struct {
		name          string
		topic         string
		wantComponent string
		wantUUID      string
		wantOK        bool
	}{
		{"valid", "homeassistant/light/u1/set", "light", "u1", true},
		{"scene via switch component", "homeassistant/switch/u2/set", "switch", "u2", true},
		{"wrong suffix", "homeassistant/light/u1/state", "", "", false},
		{"wrong namespace", "other/light/u1/set", "", "", false},
		{"too deep", "homeassistant/light/u1/extra/set", "", "", false},
		{"status topic", "homeassistant/status", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			component, uuid, ok := topics.ParseCommandTopic(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if component != tt.wantComponent || uuid != tt.wantUUID {
				t.Errorf("parsed (%q, %q), want (%q, %q)", component, uuid, tt.wantComponent, tt.wantUUID)
			}
		})
	}
}
