// Copyright 2015 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package tools

import (
	"fmt"
	"reflect"
)

// Schema describes a tool's input/output shape and the effects it may
// trigger, in the JSON-Schema subset Lumen's host bridge needs (spec.md
// §5 "Tool schemas"). InputSchema/OutputSchema are decoded
// map[string]interface{}/bool trees, mirroring the loosely-typed
// serde_json::Value the runtime's provider layer was built against.
type Schema struct {
	Name         string
	Description  string
	InputSchema  interface{}
	OutputSchema interface{}
	Effects      []string
}

// Capability names a feature a provider may support, used by callers to
// filter candidate providers before dispatch.
type Capability uint8

const (
	CapTextGeneration Capability = iota
	CapChat
	CapEmbedding
	CapVision
	CapToolUse
	CapStructuredOutput
	CapStreaming
)

// ValidateOutput checks a provider's returned value against its
// declared output schema, supporting the subset of JSON Schema actually
// used by Lumen tool schemas: type (single or union), const, enum,
// required, properties, additionalProperties, and items. An empty,
// nil, or `true` schema always validates.
func ValidateOutput(schema, output interface{}) error {
	if err := validateValue(schema, output, "$"); err != nil {
		return &OutputValidationError{
			ExpectedSchema: fmt.Sprintf("%v", schema),
			Actual:         fmt.Sprintf("%v (%s)", output, err),
		}
	}
	return nil
}

func validateValue(schema, val interface{}, path string) error {
	switch s := schema.(type) {
	case nil:
		return nil
	case bool:
		if !s {
			return fmt.Errorf("%s: schema is false", path)
		}
		return nil
	case map[string]interface{}:
		if len(s) == 0 {
			return nil
		}
		return validateObjectSchema(s, val, path)
	default:
		return nil
	}
}

func validateObjectSchema(s map[string]interface{}, val interface{}, path string) error {
	if constVal, ok := s["const"]; ok {
		if !deepEqual(constVal, val) {
			return fmt.Errorf("%s: value does not match const", path)
		}
	}

	if enumVals, ok := s["enum"].([]interface{}); ok {
		matched := false
		for _, candidate := range enumVals {
			if deepEqual(candidate, val) {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Errorf("%s: value is not in enum", path)
		}
	}

	if typeDecl, ok := s["type"]; ok {
		if !typeMatches(typeDecl, val) {
			return fmt.Errorf("%s: expected type %v, got %s", path, typeDecl, typeName(val))
		}
	}

	if obj, ok := val.(map[string]interface{}); ok {
		if required, ok := s["required"].([]interface{}); ok {
			for _, r := range required {
				name, ok := r.(string)
				if !ok {
					continue
				}
				if _, present := obj[name]; !present {
					return fmt.Errorf("%s: missing required property '%s'", path, name)
				}
			}
		}

		props, _ := s["properties"].(map[string]interface{})
		for name, propSchema := range props {
			if propVal, present := obj[name]; present {
				if err := validateValue(propSchema, propVal, path+"."+name); err != nil {
					return err
				}
			}
		}

		if additional, ok := s["additionalProperties"]; ok {
			for key, extra := range obj {
				if props != nil {
					if _, known := props[key]; known {
						continue
					}
				}
				switch a := additional.(type) {
				case bool:
					if !a {
						return fmt.Errorf("%s: additional property '%s' is not allowed", path, key)
					}
				default:
					if err := validateValue(a, extra, path+"."+key); err != nil {
						return err
					}
				}
			}
		}
	}

	if itemsSchema, ok := s["items"]; ok {
		if arr, ok := val.([]interface{}); ok {
			for i, item := range arr {
				if err := validateValue(itemsSchema, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func typeMatches(typeDecl interface{}, val interface{}) bool {
	switch t := typeDecl.(type) {
	case string:
		return valueMatchesType(val, t)
	case []interface{}:
		for _, candidate := range t {
			if name, ok := candidate.(string); ok && valueMatchesType(val, name) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func valueMatchesType(val interface{}, expected string) bool {
	switch expected {
	case "null":
		return val == nil
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "integer":
		switch n := val.(type) {
		case int, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case "number":
		switch val.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case "string":
		_, ok := val.(string)
		return ok
	case "array":
		_, ok := val.([]interface{})
		return ok
	case "object":
		_, ok := val.(map[string]interface{})
		return ok
	default:
		return true
	}
}

func typeName(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case int, int64:
		return "integer"
	case float64:
		if v == float64(int64(v)) {
			return "integer"
		}
		return "number"
	default:
		return "unknown"
	}
}

func deepEqual(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}
