package event

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of every payload keyed by event name.
func Schema() map[string]*jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.DoNotReference = true
	reflector.Namer = func(t reflect.Type) string {
		return "event." + t.Name()
	}

	schemas := make(map[string]*jsonschema.Schema)
	for _, p := range Payloads() {
		schemas[p.Name()] = reflector.Reflect(p)
	}
	return schemas
}
