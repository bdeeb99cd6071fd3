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
	"testing"

	"github.com/stretchr/testify/assert"
)

func personSchema() SchemaType {
	return SchemaType{
		Kind:       "record",
		RecordName: "Person",
		Fields: []SchemaField{
			{Name: "name", Type: SchemaType{Kind: "string"}, Required: true},
			{Name: "age", Type: SchemaType{Kind: "int"}, Required: true},
		},
	}
}

func TestDetectDriftMatchingSchemasEmpty(t *testing.T) {
	drifts := DetectDrift(SchemaType{Kind: "string"}, SchemaType{Kind: "string"}, "root")
	assert.Empty(t, drifts)
}

func TestDetectDriftMatchingRecords(t *testing.T) {
	schema := personSchema()
	drifts := DetectDrift(schema, schema, "root")
	assert.Empty(t, drifts)
}

func TestDetectDriftTypeMismatch(t *testing.T) {
	drifts := DetectDrift(SchemaType{Kind: "int"}, SchemaType{Kind: "string"}, "root")
	assert.Len(t, drifts, 1)
	assert.Equal(t, TypeMismatch, drifts[0].Kind)
	assert.Equal(t, Breaking, drifts[0].Severity)
	assert.Equal(t, "root", drifts[0].Path)
}

func TestDetectDriftMissingRequiredField(t *testing.T) {
	expected := personSchema()
	actual := SchemaType{
		Kind:       "record",
		RecordName: "Person",
		Fields:     []SchemaField{{Name: "name", Type: SchemaType{Kind: "string"}, Required: true}},
	}
	drifts := DetectDrift(expected, actual, "root")
	assert.Len(t, drifts, 1)
	assert.Equal(t, MissingField, drifts[0].Kind)
	assert.Equal(t, Breaking, drifts[0].Severity)
	assert.Equal(t, "root.age", drifts[0].Path)
}

func TestDetectDriftExtraFieldIsInfo(t *testing.T) {
	expected := personSchema()
	actual := personSchema()
	actual.Fields = append(actual.Fields, SchemaField{Name: "email", Type: SchemaType{Kind: "string"}, Required: true})
	drifts := DetectDrift(expected, actual, "root")
	assert.Len(t, drifts, 1)
	assert.Equal(t, ExtraField, drifts[0].Kind)
	assert.Equal(t, Info, drifts[0].Severity)
}

func TestDetectDriftNullabilityChange(t *testing.T) {
	drifts := DetectDrift(SchemaType{Kind: "string"}, SchemaType{Kind: "null"}, "root")
	assert.Len(t, drifts, 1)
	assert.Equal(t, NullabilityChange, drifts[0].Kind)
	assert.Equal(t, Breaking, drifts[0].Severity)
}

func TestDetectDriftOptionalAcceptsNull(t *testing.T) {
	str := SchemaType{Kind: "string"}
	optional := SchemaType{Kind: "optional", Inner: &str}
	drifts := DetectDrift(optional, SchemaType{Kind: "null"}, "root")
	assert.Empty(t, drifts)
}

func TestDetectDriftUnionWidened(t *testing.T) {
	expected := SchemaType{Kind: "int"}
	actual := SchemaType{Kind: "union", Variants: []SchemaType{{Kind: "int"}, {Kind: "string"}}}
	drifts := DetectDrift(expected, actual, "root")
	assert.Len(t, drifts, 1)
	assert.Equal(t, TypeWidened, drifts[0].Kind)
	assert.Equal(t, Warning, drifts[0].Severity)
}

func TestDetectDriftListElements(t *testing.T) {
	strElem := SchemaType{Kind: "string"}
	intElem := SchemaType{Kind: "int"}
	expected := SchemaType{Kind: "list", Elem: &strElem}
	actual := SchemaType{Kind: "list", Elem: &intElem}
	drifts := DetectDrift(expected, actual, "root")
	assert.Len(t, drifts, 1)
	assert.Equal(t, "root[]", drifts[0].Path)
}

func TestCheckValueAgainstSchemaDetectsTypeMismatch(t *testing.T) {
	schema := personSchema()
	drifts := CheckValueAgainstSchema([]byte(`{"name":"Alice","age":"25"}`), schema)
	assert.Len(t, drifts, 1)
	assert.Equal(t, TypeMismatch, drifts[0].Kind)
	assert.Equal(t, "root.age", drifts[0].Path)
}

func TestDriftHistoryPrunesOldest(t *testing.T) {
	h := NewDriftHistory(2)
	h.AddReport(DriftReport{SchemaName: "a"})
	h.AddReport(DriftReport{SchemaName: "b"})
	h.AddReport(DriftReport{SchemaName: "c"})
	assert.Len(t, h.Reports, 2)
	assert.Equal(t, "b", h.Reports[0].SchemaName)
	assert.Equal(t, "c", h.Reports[1].SchemaName)
}

func TestDriftHistoryBreakingAndTrend(t *testing.T) {
	h := NewDriftHistory(10)
	h.AddReport(DriftReport{SchemaName: "a", Drifts: []Drift{
		{Path: "root.age", Kind: TypeMismatch, Severity: Breaking},
		{Path: "root.name", Kind: ExtraField, Severity: Info},
	}})
	h.AddReport(DriftReport{SchemaName: "b", Drifts: []Drift{
		{Path: "root.age", Kind: MissingField, Severity: Breaking},
	}})

	assert.True(t, h.HasBreaking())
	assert.Len(t, h.BreakingDrifts(), 2)
	assert.Len(t, h.DriftTrend("root.age"), 2)
	assert.Len(t, h.DriftTrend("root.name"), 1)
}
