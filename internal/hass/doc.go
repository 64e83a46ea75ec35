// Package hass translates hub devices into Home Assistant MQTT
// discovery entities.
//
// The package has three layers:
//
//   - Model translation (category.go): the fixed hub-model to entity
//     category table, the cover device-class sub-table and the scene
//     icon table. Pure functions, no state.
//   - Topic construction (topics.go): the
//     <namespace>/<component>/<uuid>/{config,state,set,available}
//     scheme plus the command wildcard and the Home Assistant status
//     topic.
//   - Entity adapters (one file per category): discovery payload
//     builders, state payload builders and command decoders. Adapters
//     are stateless; dispatch goes through a closed category table
//     (AdapterFor).
//
// Command decoding degrades instead of failing: an unrecognized token
// or a missing optional field yields "no write", never an error.
package hass
