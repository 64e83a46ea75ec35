package hass

import "strings"

// Topics builds the discovery topic scheme under a namespace.
// The zero value is not usable; construct with NewTopics.
type Topics struct {
	namespace string
}

// NewTopics creates a topic builder. An empty namespace defaults to
// "homeassistant", the convention's standard discovery prefix.
func NewTopics(namespace string) Topics {
	if namespace == "" {
		namespace = "homeassistant"
	}
	return Topics{namespace: strings.TrimSuffix(namespace, "/")}
}

// Namespace returns the configured prefix.
func (t Topics) Namespace() string {
	return t.namespace
}

// Base returns the per-entity base topic <namespace>/<component>/<uuid>.
func (t Topics) Base(category Category, uuid string) string {
	return t.namespace + "/" + category.Component() + "/" + uuid
}

// Config returns the discovery config topic.
func (t Topics) Config(category Category, uuid string) string {
	return t.Base(category, uuid) + "/config"
}

// State returns the state topic.
func (t Topics) State(category Category, uuid string) string {
	return t.Base(category, uuid) + "/state"
}

// Set returns the command topic.
func (t Topics) Set(category Category, uuid string) string {
	return t.Base(category, uuid) + "/set"
}

// Available returns the per-entity availability topic.
func (t Topics) Available(category Category, uuid string) string {
	return t.Base(category, uuid) + "/available"
}

// CommandWildcard matches every entity command topic.
func (t Topics) CommandWildcard() string {
	return t.namespace + "/+/+/set"
}

// StatusTopic is where Home Assistant publishes its own birth and
// last-will messages ("online"/"offline").
func (t Topics) StatusTopic() string {
	return t.namespace + "/status"
}

// ParseCommandTopic extracts the component and UUID from a command
// topic. Returns ok=false for topics outside the scheme.
func (t Topics) ParseCommandTopic(topic string) (component, uuid string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.namespace+"/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != "set" || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
