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

package durability

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// SchemaType represents a Lumen type for schema comparison, used to
// detect when a tool or API response diverges from its declared
// output schema (spec.md §4.4 "Schema-drift detector").
type SchemaType struct {
	Kind string // "string","int","float","bool","null","list","map","record","union","optional","any"

	// List
	Elem *SchemaType
	// Map
	Key, Value *SchemaType
	// Record
	RecordName string
	Fields     []SchemaField
	// Union / Optional
	Variants []SchemaType
	Inner    *SchemaType
}

// SchemaField is a single field in a Record SchemaType.
type SchemaField struct {
	Name     string
	Type     SchemaType
	Required bool
}

func (t SchemaType) String() string {
	switch t.Kind {
	case "string":
		return "String"
	case "int":
		return "Int"
	case "float":
		return "Float"
	case "bool":
		return "Bool"
	case "null":
		return "Null"
	case "list":
		return fmt.Sprintf("List[%s]", t.Elem)
	case "map":
		return fmt.Sprintf("Map[%s, %s]", t.Key, t.Value)
	case "record":
		return t.RecordName
	case "union":
		s := ""
		for i, v := range t.Variants {
			if i > 0 {
				s += " | "
			}
			s += v.String()
		}
		return s
	case "optional":
		return t.Inner.String() + "?"
	default:
		return "Any"
	}
}

func (t SchemaType) equal(o SchemaType) bool {
	return reflect.DeepEqual(t, o)
}

// DriftKind classifies the nature of a schema drift.
type DriftKind int

const (
	TypeMismatch DriftKind = iota
	MissingField
	ExtraField
	NullabilityChange
	TypeWidened
	TypeNarrowed
	FieldRenamed
)

func (k DriftKind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case MissingField:
		return "MissingField"
	case ExtraField:
		return "ExtraField"
	case NullabilityChange:
		return "NullabilityChange"
	case TypeWidened:
		return "TypeWidened"
	case TypeNarrowed:
		return "TypeNarrowed"
	case FieldRenamed:
		return "FieldRenamed"
	default:
		return "Unknown"
	}
}

// DriftSeverity orders Info < Warning < Breaking.
type DriftSeverity int

const (
	Info DriftSeverity = iota
	Warning
	Breaking
)

func (s DriftSeverity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Breaking:
		return "BREAKING"
	default:
		return "UNKNOWN"
	}
}

// Drift is a single detected schema difference.
type Drift struct {
	Path     string
	Kind     DriftKind
	Expected string
	Actual   string
	Severity DriftSeverity
}

func (d Drift) String() string {
	return fmt.Sprintf("[%s] %s at '%s': expected %s, got %s", d.Severity, d.Kind, d.Path, d.Expected, d.Actual)
}

// DriftReport is the aggregated result of one schema comparison.
type DriftReport struct {
	Drifts      []Drift
	SchemaName  string
	TimestampMs int64
}

// HasBreaking reports whether the report contains a Breaking drift.
func (r *DriftReport) HasBreaking() bool {
	for _, d := range r.Drifts {
		if d.Severity == Breaking {
			return true
		}
	}
	return false
}

func (r *DriftReport) String() string {
	out := fmt.Sprintf("Schema Drift Report: %s (at %dms)\n", r.SchemaName, r.TimestampMs)
	if len(r.Drifts) == 0 {
		out += "  No drifts detected.\n"
		return out
	}
	out += fmt.Sprintf("  %d drift(s) found:\n", len(r.Drifts))
	for _, d := range r.Drifts {
		out += fmt.Sprintf("    %s\n", d)
	}
	return out
}

// DetectDrift recursively compares expected against actual, collecting
// every drift found, rooted at path (pass "root" at the top level).
func DetectDrift(expected, actual SchemaType, path string) []Drift {
	var drifts []Drift
	detectDriftInner(expected, actual, path, &drifts)
	return drifts
}

func detectDriftInner(expected, actual SchemaType, path string, drifts *[]Drift) {
	if expected.Kind == "any" || actual.Kind == "any" {
		return
	}
	if expected.equal(actual) {
		return
	}

	switch {
	case expected.Kind == "optional" && actual.Kind == "null":
		return
	case expected.Kind == "optional":
		detectDriftInner(*expected.Inner, actual, path, drifts)
		return
	case actual.Kind == "optional":
		*drifts = append(*drifts, Drift{
			Path: path, Kind: NullabilityChange,
			Expected: expected.String(), Actual: actual.Inner.String() + "?",
			Severity: Breaking,
		})
		return
	case actual.Kind == "null":
		*drifts = append(*drifts, Drift{
			Path: path, Kind: NullabilityChange,
			Expected: expected.String(), Actual: "Null", Severity: Breaking,
		})
		return
	case expected.Kind == "null":
		*drifts = append(*drifts, Drift{
			Path: path, Kind: NullabilityChange,
			Expected: "Null", Actual: actual.String(), Severity: Breaking,
		})
		return
	case expected.Kind == "list" && actual.Kind == "list":
		detectDriftInner(*expected.Elem, *actual.Elem, path+"[]", drifts)
		return
	case expected.Kind == "map" && actual.Kind == "map":
		detectDriftInner(*expected.Key, *actual.Key, path+"<key>", drifts)
		detectDriftInner(*expected.Value, *actual.Value, path+"<value>", drifts)
		return
	case expected.Kind == "record" && actual.Kind == "record":
		detectRecordDrift(expected, actual, path, drifts)
		return
	case expected.Kind == "union" && actual.Kind == "union":
		detectUnionDrift(expected, actual, path, drifts)
		return
	case expected.Kind == "union":
		for _, v := range expected.Variants {
			if v.equal(actual) {
				return
			}
		}
		*drifts = append(*drifts, Drift{
			Path: path, Kind: TypeMismatch,
			Expected: expected.String(), Actual: actual.String(), Severity: Breaking,
		})
		return
	case actual.Kind == "union":
		for _, v := range actual.Variants {
			if v.equal(expected) {
				*drifts = append(*drifts, Drift{
					Path: path, Kind: TypeWidened,
					Expected: expected.String(), Actual: actual.String(), Severity: Warning,
				})
				return
			}
		}
		*drifts = append(*drifts, Drift{
			Path: path, Kind: TypeMismatch,
			Expected: expected.String(), Actual: actual.String(), Severity: Breaking,
		})
		return
	default:
		*drifts = append(*drifts, Drift{
			Path: path, Kind: TypeMismatch,
			Expected: expected.String(), Actual: actual.String(), Severity: Breaking,
		})
	}
}

func detectRecordDrift(expected, actual SchemaType, path string, drifts *[]Drift) {
	for _, ef := range expected.Fields {
		found := false
		for _, af := range actual.Fields {
			if af.Name == ef.Name {
				found = true
				detectDriftInner(ef.Type, af.Type, path+"."+ef.Name, drifts)
				break
			}
		}
		if !found {
			severity := Warning
			if ef.Required {
				severity = Breaking
			}
			*drifts = append(*drifts, Drift{
				Path: path + "." + ef.Name, Kind: MissingField,
				Expected: fmt.Sprintf("%s (%s)", ef.Type, expected.RecordName),
				Actual:   "absent", Severity: severity,
			})
		}
	}
	for _, af := range actual.Fields {
		found := false
		for _, ef := range expected.Fields {
			if ef.Name == af.Name {
				found = true
				break
			}
		}
		if !found {
			*drifts = append(*drifts, Drift{
				Path: path + "." + af.Name, Kind: ExtraField,
				Expected: "absent", Actual: af.Type.String(), Severity: Info,
			})
		}
	}
}

func detectUnionDrift(expected, actual SchemaType, path string, drifts *[]Drift) {
	for _, ev := range expected.Variants {
		found := false
		for _, av := range actual.Variants {
			if av.equal(ev) {
				found = true
				break
			}
		}
		if !found {
			*drifts = append(*drifts, Drift{
				Path: path, Kind: TypeNarrowed,
				Expected: ev.String(), Actual: "absent from union", Severity: Breaking,
			})
		}
	}
	for _, av := range actual.Variants {
		found := false
		for _, ev := range expected.Variants {
			if ev.equal(av) {
				found = true
				break
			}
		}
		if !found {
			*drifts = append(*drifts, Drift{
				Path: path, Kind: TypeWidened,
				Expected: "absent from union", Actual: av.String(), Severity: Warning,
			})
		}
	}
}

// CheckValueAgainstSchema parses a JSON value and compares its inferred
// structural shape against an expected schema.
func CheckValueAgainstSchema(value []byte, schema SchemaType) []Drift {
	var parsed interface{}
	if err := json.Unmarshal(value, &parsed); err != nil {
		return []Drift{{
			Path: "root", Kind: TypeMismatch,
			Expected: schema.String(), Actual: fmt.Sprintf("unparseable: %v", err),
			Severity: Breaking,
		}}
	}
	actual := jsonValueToSchema(parsed)
	return DetectDrift(schema, actual, "root")
}

func jsonValueToSchema(val interface{}) SchemaType {
	switch v := val.(type) {
	case nil:
		return SchemaType{Kind: "null"}
	case bool:
		return SchemaType{Kind: "bool"}
	case float64:
		if v == float64(int64(v)) {
			return SchemaType{Kind: "int"}
		}
		return SchemaType{Kind: "float"}
	case string:
		return SchemaType{Kind: "string"}
	case []interface{}:
		if len(v) == 0 {
			any := SchemaType{Kind: "any"}
			return SchemaType{Kind: "list", Elem: &any}
		}
		el := jsonValueToSchema(v[0])
		return SchemaType{Kind: "list", Elem: &el}
	case map[string]interface{}:
		fields := make([]SchemaField, 0, len(v))
		for k, fv := range v {
			fields = append(fields, SchemaField{Name: k, Type: jsonValueToSchema(fv), Required: true})
		}
		return SchemaType{Kind: "record", RecordName: "object", Fields: fields}
	default:
		return SchemaType{Kind: "any"}
	}
}

// DriftHistory accumulates DriftReports and supports trend queries
// (spec.md §4.4 "a bounded history of drift reports").
type DriftHistory struct {
	Reports    []DriftReport
	MaxReports int
}

// NewDriftHistory builds a history capped at maxReports entries.
func NewDriftHistory(maxReports int) *DriftHistory {
	return &DriftHistory{MaxReports: maxReports}
}

// AddReport appends a report, pruning the oldest if over capacity.
func (h *DriftHistory) AddReport(r DriftReport) {
	h.Reports = append(h.Reports, r)
	for len(h.Reports) > h.MaxReports {
		h.Reports = h.Reports[1:]
	}
}

// BreakingDrifts returns every Breaking-severity drift across the
// entire history.
func (h *DriftHistory) BreakingDrifts() []Drift {
	var out []Drift
	for _, r := range h.Reports {
		for _, d := range r.Drifts {
			if d.Severity == Breaking {
				out = append(out, d)
			}
		}
	}
	return out
}

// DriftTrend returns every drift recorded against fieldPath, in
// chronological order, across the whole history.
func (h *DriftHistory) DriftTrend(fieldPath string) []Drift {
	var out []Drift
	for _, r := range h.Reports {
		for _, d := range r.Drifts {
			if d.Path == fieldPath {
				out = append(out, d)
			}
		}
	}
	return out
}

// HasBreaking reports whether any report in the history contains a
// breaking drift.
func (h *DriftHistory) HasBreaking() bool {
	for _, r := range h.Reports {
		if r.HasBreaking() {
			return true
		}
	}
	return false
}
