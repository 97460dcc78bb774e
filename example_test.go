package jsonschema_test

import (
	"fmt"

	"github.com/lucab/jsonschema"
)

func ExampleCompileString() {
	schema, err := jsonschema.CompileString(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1}
		}
	}`)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println(schema.IsValid(map[string]any{"name": "ada"}))
	fmt.Println(schema.IsValid(map[string]any{}))
	// Output:
	// true
	// false
}

func ExampleSchema_Validate() {
	schema, err := jsonschema.CompileString(`{"required": ["name"]}`)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	err = schema.Validate(map[string]any{"age": 40})
	fmt.Println(err)
	// Output: [required] missing required property "name"
}

func ExampleSchema_Errors() {
	schema, err := jsonschema.CompileString(`{
		"type": "object",
		"required": ["id"],
		"minProperties": 2
	}`)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	for violation := range schema.Errors(map[string]any{"name": "x"}) {
		fmt.Println(violation.Keyword)
	}
	// Output:
	// required
	// minProperties
}
