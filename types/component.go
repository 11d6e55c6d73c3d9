package types

import (
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"
)

// Component is the interface that the user needs to implement to create a new
// component type. The returned name is the stable, human-readable identifier
// used in save files and by script code; it must be unique across all
// registered types.
type Component interface {
	Name() string
}

var ErrComponentSchemaMismatch = eris.New("component schema does not match target schema")

// SerializeComponentSchema reflects the JSON schema of a component value.
func SerializeComponentSchema(component Component) ([]byte, error) {
	componentSchema := jsonschema.Reflect(component)
	schema, err := componentSchema.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "component must be json serializable")
	}
	return schema, nil
}

// IsComponentValid reports whether the component's current schema matches the
// given serialized schema.
func IsComponentValid(component Component, jsonSchemaBytes []byte) (bool, error) {
	componentSchemaBytes, err := SerializeComponentSchema(component)
	if err != nil {
		return false, err
	}
	return IsSchemaValid(componentSchemaBytes, jsonSchemaBytes)
}

func IsSchemaValid(jsonSchemaBytes1 []byte, jsonSchemaBytes2 []byte) (bool, error) {
	patch, err := jsondiff.CompareJSON(jsonSchemaBytes1, jsonSchemaBytes2)
	if err != nil {
		return false, eris.Wrap(err, "")
	}
	return patch.String() == "", nil
}
