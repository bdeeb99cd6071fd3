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

// Package resolve performs name resolution and effect-row inference over
// a pre-lowering ir.Program: it builds a SymbolTable of every top-level
// declaration, checks that the types named in record fields and cell
// signatures point somewhere real, and widens each cell's declared
// effect row with effects the cell's body actually performs. Tool-call
// targets are not checked against the declared tools: a call to an
// unknown tool contributes no effect and raises no error.
package resolve

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"github.com/steakknife/bloomfilter"

	"github.com/lumen-run/lumen/core/analyzer/ir"
)

// ErrorKind distinguishes the ways resolution can fail.
type ErrorKind uint8

const (
	UndefinedType ErrorKind = iota
	UndefinedCell
	UndefinedTool
	Duplicate
	MissingEffectGrant
	UndeclaredEffect
)

// Error is one resolution failure. Resolve accumulates every Error it
// finds rather than stopping at the first, so a caller can report a
// whole program's worth of mistakes in one pass.
type Error struct {
	Kind   ErrorKind
	Name   string // UndefinedType / UndefinedCell / UndefinedTool / Duplicate
	Cell   string // MissingEffectGrant / UndeclaredEffect
	Effect string // MissingEffectGrant / UndeclaredEffect
	Line   int
}

func (e *Error) Error() string {
	switch e.Kind {
	case UndefinedType:
		return fmt.Sprintf("undefined type '%s' at line %d", e.Name, e.Line)
	case UndefinedCell:
		return fmt.Sprintf("undefined cell '%s' at line %d", e.Name, e.Line)
	case UndefinedTool:
		return fmt.Sprintf("undefined tool alias '%s' at line %d", e.Name, e.Line)
	case Duplicate:
		return fmt.Sprintf("duplicate definition '%s' at line %d", e.Name, e.Line)
	case MissingEffectGrant:
		return fmt.Sprintf("cell '%s' requires effect '%s' but no compatible grant is in scope (line %d)", e.Cell, e.Effect, e.Line)
	case UndeclaredEffect:
		return fmt.Sprintf("cell '%s' performs effect '%s' but it is not declared in its effect row (line %d)", e.Cell, e.Effect, e.Line)
	default:
		return "resolve: unknown error"
	}
}

// TypeInfoKind distinguishes how a named type was introduced.
type TypeInfoKind uint8

const (
	TypeBuiltin TypeInfoKind = iota
	TypeRecord
	TypeEnum
)

// TypeInfo describes one entry of SymbolTable.Types.
type TypeInfo struct {
	Kind   TypeInfoKind
	Record *ir.RecordDef // set when Kind == TypeRecord
	Enum   *ir.EnumDef   // set when Kind == TypeEnum
}

// CellInfo describes one entry of SymbolTable.Cells.
type CellInfo struct {
	Params     []ir.ParamDef
	ReturnType *ir.Type
	Effects    []string
}

// ToolInfo describes one entry of SymbolTable.Tools.
type ToolInfo struct {
	Kind string
}

// AgentInfo describes one entry of SymbolTable.Agents.
type AgentInfo struct {
	Name    string
	Methods []string
}

// ProcessInfo describes one entry of SymbolTable.Processes, keyed by
// "<kind>:<name>" so a memory process and a machine process can share a
// name without colliding.
type ProcessInfo struct {
	Kind    ir.ProcessKind
	Name    string
	Methods []string
}

// EffectInfo describes one entry of SymbolTable.Effects.
type EffectInfo struct {
	Name       string
	Operations []string
}

// HandlerInfo describes one entry of SymbolTable.Handlers.
type HandlerInfo struct {
	Name       string
	EffectName string
}

// TraitInfo describes one entry of SymbolTable.Traits.
type TraitInfo struct {
	Name    string
	Methods []string
}

// ImplInfo describes one entry of SymbolTable.Impls.
type ImplInfo struct {
	TraitName  string
	TargetType string
}

// ConstInfo describes one entry of SymbolTable.Consts.
type ConstInfo struct {
	Name string
	Type *ir.Type
}

// SymbolTable is the complete result of a successful resolution pass.
type SymbolTable struct {
	Types       map[string]*TypeInfo
	Cells       map[string]*CellInfo
	Tools       map[string]*ToolInfo
	Agents      map[string]*AgentInfo
	Processes   map[string]*ProcessInfo
	Effects     map[string]*EffectInfo
	Handlers    map[string]*HandlerInfo
	Traits      map[string]*TraitInfo
	Impls       []*ImplInfo
	Consts      map[string]*ConstInfo
	TypeAliases map[string]*ir.Type
}

var builtinTypes = []string{
	"Int", "Float", "String", "Bool", "Bytes",
	"List", "Map", "Set", "Tuple", "Null", "Any", "Result",
}

func newSymbolTable() *SymbolTable {
	t := &SymbolTable{
		Types:       make(map[string]*TypeInfo),
		Cells:       make(map[string]*CellInfo),
		Tools:       make(map[string]*ToolInfo),
		Agents:      make(map[string]*AgentInfo),
		Processes:   make(map[string]*ProcessInfo),
		Effects:     make(map[string]*EffectInfo),
		Handlers:    make(map[string]*HandlerInfo),
		Traits:      make(map[string]*TraitInfo),
		Consts:      make(map[string]*ConstInfo),
		TypeAliases: make(map[string]*ir.Type),
	}
	for _, name := range builtinTypes {
		t.Types[name] = &TypeInfo{Kind: TypeBuiltin}
	}
	return t
}

// effectsCarryingNoGrantRequirement are effects the language itself
// provides without an external capability grant.
var effectsCarryingNoGrantRequirement = map[string]bool{
	"pure": true, "trace": true, "state": true,
	"approve": true, "emit": true, "cache": true,
}

// Resolve runs the two-pass resolution algorithm over program: the
// first pass registers every declaration, the second checks type
// references and effect grants and widens effect rows by fixpoint
// inference over cell bodies.
func Resolve(program *ir.Program) (*SymbolTable, []*Error) {
	table := newSymbolTable()
	var errs []*Error

	registerDecls(program, table, &errs)

	for _, r := range program.Records {
		for _, f := range r.Fields {
			checkTypeRefs(f.Type, table, &errs, nil)
		}
	}
	for _, c := range program.Cells {
		checkTypeRefs(c.ReturnType, table, &errs, c.GenericNames)
		for _, p := range c.Params {
			checkTypeRefs(p.Type, table, &errs, c.GenericNames)
		}
	}

	applyEffectInference(program, table, &errs)

	if len(errs) > 0 {
		return nil, errs
	}
	return table, nil
}

func registerDecls(program *ir.Program, table *SymbolTable, errs *[]*Error) {
	for _, r := range program.Records {
		table.Types[r.Name] = &TypeInfo{Kind: TypeRecord, Record: r}
	}
	for _, e := range program.Enums {
		table.Types[e.Name] = &TypeInfo{Kind: TypeEnum, Enum: e}
	}
	for _, c := range program.Cells {
		table.Cells[c.Name] = &CellInfo{Params: c.Params, ReturnType: c.ReturnType, Effects: c.Effects}
	}
	for _, tool := range program.Tools {
		table.Tools[tool.Name] = &ToolInfo{Kind: tool.Kind}
	}
	for _, e := range program.Effects {
		ops := make([]string, len(e.Operations))
		for i, op := range e.Operations {
			ops[i] = op.Name
		}
		table.Effects[e.Name] = &EffectInfo{Name: e.Name, Operations: ops}
	}
	for _, h := range program.Handlers {
		if _, dup := table.Handlers[h.Name]; dup {
			*errs = append(*errs, &Error{Kind: Duplicate, Name: h.Name, Line: h.Span.Line})
			continue
		}
		table.Handlers[h.Name] = &HandlerInfo{Name: h.Name, EffectName: h.EffectName}
	}
	for _, tr := range program.Traits {
		methods := make([]string, len(tr.Methods))
		for i, m := range tr.Methods {
			methods[i] = m.Name
		}
		table.Traits[tr.Name] = &TraitInfo{Name: tr.Name, Methods: methods}
	}
	for _, im := range program.Impls {
		table.Impls = append(table.Impls, &ImplInfo{TraitName: im.TraitName, TargetType: im.TypeName})
	}
	for _, c := range program.Consts {
		table.Consts[c.Name] = &ConstInfo{Name: c.Name, Type: c.Type}
	}
	for _, a := range program.Aliases {
		table.TypeAliases[a.Name] = a.Target
	}

	for _, a := range program.Agents {
		if _, dup := table.Agents[a.Name]; dup {
			*errs = append(*errs, &Error{Kind: Duplicate, Name: a.Name, Line: a.Span.Line})
		} else {
			table.Agents[a.Name] = &AgentInfo{Name: a.Name, Methods: append([]string(nil), a.Tools...)}
		}
		if _, ok := table.Types[a.Name]; !ok {
			table.Types[a.Name] = &TypeInfo{Kind: TypeRecord, Record: &ir.RecordDef{Name: a.Name, IsPub: true, Span: a.Span}}
		}
	}

	for _, p := range program.Processes {
		key := string(p.Kind) + ":" + p.Name
		methods := make([]string, len(p.Methods))
		for i, m := range p.Methods {
			methods[i] = m.Name
		}
		table.Processes[key] = &ProcessInfo{Kind: p.Kind, Name: p.Name, Methods: methods}
		if _, ok := table.Types[p.Name]; !ok {
			table.Types[p.Name] = &TypeInfo{Kind: TypeRecord, Record: &ir.RecordDef{Name: p.Name, IsPub: true, Span: p.Span}}
		}
		for _, m := range p.Methods {
			fq := p.Name + "." + m.Name
			if _, exists := table.Cells[fq]; !exists {
				table.Cells[fq] = &CellInfo{Params: m.Params, ReturnType: m.ReturnType, Effects: m.Effects}
			}
		}
	}
}

func checkTypeRefs(t *ir.Type, table *SymbolTable, errs *[]*Error, generics []string) {
	if t == nil {
		return
	}
	for _, g := range generics {
		if g == t.Name {
			return
		}
	}
	if _, ok := table.Types[t.Name]; !ok {
		if _, ok := table.TypeAliases[t.Name]; !ok {
			*errs = append(*errs, &Error{Kind: UndefinedType, Name: t.Name, Line: t.Span.Line})
		}
	}
	for _, arg := range t.Args {
		checkTypeRefs(arg, table, errs, generics)
	}
}

// toolSignatureSet builds the bloom filter used as a fast negative
// pre-check over a program's declared tool kinds before the exact
// classification walk in grantSatisfies runs.
func toolSignatureSet(table *SymbolTable) *bloomfilter.Filter {
	n := uint64(len(table.Tools))
	if n == 0 {
		n = 1
	}
	filter, err := bloomfilter.NewOptimal(n*8+8, 0.001)
	if err != nil {
		return nil
	}
	for _, tool := range table.Tools {
		h := fnv.New64()
		h.Write([]byte(strings.ToLower(tool.Kind)))
		filter.Add(h)
	}
	return filter
}

func bloomMightContain(filter *bloomfilter.Filter, token string) bool {
	if filter == nil {
		return true
	}
	h := fnv.New64()
	h.Write([]byte(token))
	return filter.Contains(h)
}

// grantSatisfies is the conservative capability proxy: any declared
// tool of a matching kind counts as satisfying the effect, since grants
// are represented as plain top-level declarations rather than a
// separate capability-grant construct.
func grantSatisfies(effect string, table *SymbolTable, filter *bloomfilter.Filter) bool {
	for _, tool := range table.Tools {
		kind := strings.ToLower(tool.Kind)
		if !bloomMightContain(filter, kind) {
			continue
		}
		switch effect {
		case "http":
			if strings.Contains(kind, "http") {
				return true
			}
		case "llm":
			if strings.Contains(kind, "llm") || strings.Contains(kind, "chat") {
				return true
			}
		case "fs":
			if strings.Contains(kind, "fs") || strings.Contains(kind, "file") {
				return true
			}
		case "database":
			if strings.Contains(kind, "db") || strings.Contains(kind, "sql") || strings.Contains(kind, "postgres") {
				return true
			}
		case "email":
			if strings.Contains(kind, "email") {
				return true
			}
		case "mcp":
			if strings.Contains(kind, "mcp") {
				return true
			}
		default:
			return true
		}
	}
	return false
}

func checkEffectGrantsFor(cellName string, line int, effects []string, table *SymbolTable, errs *[]*Error) {
	if len(effects) == 0 || len(table.Tools) == 0 {
		return
	}
	filter := toolSignatureSet(table)
	for _, raw := range effects {
		effect := normalizeEffect(raw)
		if effectsCarryingNoGrantRequirement[effect] {
			continue
		}
		if !grantSatisfies(effect, table, filter) {
			*errs = append(*errs, &Error{Kind: MissingEffectGrant, Cell: cellName, Effect: effect, Line: line})
		}
	}
}

func normalizeEffect(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func directiveBool(program *ir.Program, name string, def bool) bool {
	raw, ok := program.Directives[name]
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// applyEffectInference runs a 32-iteration fixpoint over every cell
// whose author left its effect row empty, unioning in whatever the
// body's statements and expressions actually perform, then validates
// declared rows against what was inferred.
func applyEffectInference(program *ir.Program, table *SymbolTable, errs *[]*Error) {
	if len(program.Cells) == 0 {
		return
	}
	strict := directiveBool(program, "strict", true)
	docMode := directiveBool(program, "doc_mode", false)
	enforceDeclaredRows := strict && !docMode

	effective := make(map[string]mapset.Set, len(program.Cells))
	for _, c := range program.Cells {
		declared := mapset.NewSet()
		for _, e := range c.Effects {
			declared.Add(normalizeEffect(e))
		}
		effective[c.Name] = declared
	}

	for iter := 0; iter < 32; iter++ {
		changed := false
		for _, c := range program.Cells {
			if len(c.Effects) > 0 {
				continue
			}
			inferred := inferCellEffects(c, table, effective)
			if !inferred.Equal(effective[c.Name]) {
				effective[c.Name] = inferred
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for _, c := range program.Cells {
		inferred := inferCellEffects(c, table, effective)
		declared := mapset.NewSet()
		for _, e := range c.Effects {
			declared.Add(normalizeEffect(e))
		}

		var final mapset.Set
		if declared.Cardinality() == 0 {
			final = inferred
		} else {
			if enforceDeclaredRows {
				for missing := range inferred.Difference(declared).Iter() {
					*errs = append(*errs, &Error{Kind: UndeclaredEffect, Cell: c.Name, Effect: missing.(string), Line: c.Span.Line})
				}
			}
			final = declared
		}

		if declared.Cardinality() == 0 {
			checkEffectGrantsFor(c.Name, c.Span.Line, sortedStrings(final), table, errs)
		}

		if info, ok := table.Cells[c.Name]; ok {
			info.Effects = sortedStrings(final)
		}
	}
}

func sortedStrings(s mapset.Set) []string {
	out := make([]string, 0, s.Cardinality())
	for v := range s.Iter() {
		out = append(out, v.(string))
	}
	sort.Strings(out)
	return out
}

func inferCellEffects(c *ir.CellDef, table *SymbolTable, current map[string]mapset.Set) mapset.Set {
	out := mapset.NewSet()
	for _, s := range c.Body {
		inferStmtEffects(s, table, current, out)
	}
	return out
}

func inferStmtEffects(s ir.Stmt, table *SymbolTable, current map[string]mapset.Set, out mapset.Set) {
	switch s := s.(type) {
	case *ir.LetStmt:
		inferExprEffects(s.Value, table, current, out)
	case *ir.AssignStmt:
		inferExprEffects(s.Value, table, current, out)
	case *ir.CompoundAssignStmt:
		inferExprEffects(s.Value, table, current, out)
	case *ir.ExprStmt:
		inferExprEffects(s.Expr, table, current, out)
	case *ir.IfStmt:
		inferExprEffects(s.Condition, table, current, out)
		for _, st := range s.Then {
			inferStmtEffects(st, table, current, out)
		}
		for _, st := range s.Else {
			inferStmtEffects(st, table, current, out)
		}
	case *ir.ReturnStmt:
		inferExprEffects(s.Value, table, current, out)
	case *ir.HaltStmt:
		inferExprEffects(s.Message, table, current, out)
	case *ir.ForStmt:
		inferExprEffects(s.Iter, table, current, out)
		if s.Filter != nil {
			inferExprEffects(s.Filter, table, current, out)
		}
		for _, st := range s.Body {
			inferStmtEffects(st, table, current, out)
		}
	case *ir.WhileStmt:
		inferExprEffects(s.Condition, table, current, out)
		for _, st := range s.Body {
			inferStmtEffects(st, table, current, out)
		}
	case *ir.LoopStmt:
		for _, st := range s.Body {
			inferStmtEffects(st, table, current, out)
		}
	case *ir.MatchStmt:
		inferExprEffects(s.Subject, table, current, out)
		for _, arm := range s.Arms {
			for _, st := range arm.Body {
				inferStmtEffects(st, table, current, out)
			}
		}
	case *ir.EmitStmt:
		inferExprEffects(s.Value, table, current, out)
		out.Add("emit")
	case *ir.DeferStmt:
		for _, st := range s.Body {
			inferStmtEffects(st, table, current, out)
		}
	case *ir.YieldStmt:
		inferExprEffects(s.Value, table, current, out)
	case *ir.BreakStmt, *ir.ContinueStmt:
		// no-op
	}
}

func inferExprEffects(e ir.Expr, table *SymbolTable, current map[string]mapset.Set, out mapset.Set) {
	switch e := e.(type) {
	case *ir.BinOpExpr:
		inferExprEffects(e.Left, table, current, out)
		inferExprEffects(e.Right, table, current, out)
	case *ir.UnaryOpExpr:
		inferExprEffects(e.Operand, table, current, out)
	case *ir.AwaitExpr:
		inferExprEffects(e.Inner, table, current, out)
		out.Add("async")
	case *ir.TryExpr:
		inferExprEffects(e.Inner, table, current, out)
	case *ir.ResumeExpr:
		inferExprEffects(e.Inner, table, current, out)
	case *ir.CallExpr:
		inferExprEffects(e.Callee, table, current, out)
		for _, a := range e.Args {
			inferExprEffects(a.Value, table, current, out)
		}
		switch callee := e.Callee.(type) {
		case *ir.IdentExpr:
			if effects, ok := current[callee.Name]; ok {
				for v := range effects.Iter() {
					out.Add(v)
				}
			}
			if callee.Name == "emit" || callee.Name == "print" {
				out.Add("emit")
			}
			if callee.Name == "parallel" || callee.Name == "race" {
				out.Add("async")
			}
		case *ir.DotAccessExpr:
			if owner, ok := callee.Base.(*ir.IdentExpr); ok {
				fq := owner.Name + "." + callee.Member
				if effects, ok := current[fq]; ok {
					for v := range effects.Iter() {
						out.Add(v)
					}
				}
				for _, proc := range table.Processes {
					if proc.Name != owner.Name {
						continue
					}
					if stateCarryingMethod(proc.Kind, callee.Member) {
						out.Add("state")
					}
				}
			}
		}
	case *ir.ToolCallExpr:
		for _, a := range e.Args {
			inferExprEffects(a.Value, table, current, out)
		}
		if callee, ok := e.Callee.(*ir.IdentExpr); ok {
			if effect, ok := effectFromTool(callee.Name, table); ok {
				out.Add(effect)
			}
		}
	case *ir.ListLitExpr:
		for _, el := range e.Elems {
			inferExprEffects(el, table, current, out)
		}
	case *ir.SetLitExpr:
		for _, el := range e.Elems {
			inferExprEffects(el, table, current, out)
		}
	case *ir.TupleLitExpr:
		for _, el := range e.Elems {
			inferExprEffects(el, table, current, out)
		}
	case *ir.MapLitExpr:
		for _, entry := range e.Entries {
			inferExprEffects(entry.Key, table, current, out)
			inferExprEffects(entry.Value, table, current, out)
		}
	case *ir.RecordLitExpr:
		for _, f := range e.Fields {
			inferExprEffects(f.Value, table, current, out)
		}
	case *ir.DotAccessExpr:
		inferExprEffects(e.Base, table, current, out)
	case *ir.IndexAccessExpr:
		inferExprEffects(e.Base, table, current, out)
		inferExprEffects(e.Index, table, current, out)
	case *ir.LambdaExpr:
		for _, st := range e.Body {
			inferStmtEffects(st, table, current, out)
		}
	case *ir.BlockExpr:
		for _, st := range e.Body {
			inferStmtEffects(st, table, current, out)
		}
	case *ir.IfExprExpr:
		inferExprEffects(e.Cond, table, current, out)
		inferExprEffects(e.Then, table, current, out)
		inferExprEffects(e.Else, table, current, out)
	case *ir.PipeExpr:
		inferExprEffects(e.Left, table, current, out)
		inferExprEffects(e.Right, table, current, out)
	case *ir.StringInterpExpr:
		for _, seg := range e.Segments {
			if seg.Interpolation != nil {
				inferExprEffects(seg.Interpolation, table, current, out)
			}
		}
	case *ir.PerformExpr:
		for _, a := range e.Args {
			inferExprEffects(a, table, current, out)
		}
	case *ir.HandleExpr:
		for _, st := range e.Body {
			inferStmtEffects(st, table, current, out)
		}
		for _, h := range e.Handlers {
			for _, st := range h.Body {
				inferStmtEffects(st, table, current, out)
			}
		}
	case *ir.MatchExprExpr:
		inferExprEffects(e.Subject, table, current, out)
		for _, arm := range e.Arms {
			for _, st := range arm.Body {
				inferStmtEffects(st, table, current, out)
			}
		}
	// Literals and identifiers carry no effects by themselves.
	case *ir.IdentExpr, *ir.IntLitExpr, *ir.FloatLitExpr, *ir.StringLitExpr,
		*ir.BoolLitExpr, *ir.NullLitExpr:
	}
}

func stateCarryingMethod(kind ir.ProcessKind, method string) bool {
	switch kind {
	case ir.ProcessMemory:
		switch method {
		case "append", "remember", "upsert", "store", "recent", "recall", "query", "get":
			return true
		}
	case ir.ProcessMachine:
		switch method {
		case "run", "start", "step", "is_terminal", "current_state", "resume_from":
			return true
		}
	}
	return false
}

func effectFromTool(alias string, table *SymbolTable) (string, bool) {
	tool, ok := table.Tools[alias]
	if !ok {
		return "", false
	}
	kind := strings.ToLower(tool.Kind)
	switch {
	case strings.Contains(kind, "http"):
		return "http", true
	case strings.Contains(kind, "llm") || strings.Contains(kind, "chat"):
		return "llm", true
	case strings.Contains(kind, "fs") || strings.Contains(kind, "file"):
		return "fs", true
	case strings.Contains(kind, "db") || strings.Contains(kind, "sql") || strings.Contains(kind, "postgres"):
		return "database", true
	case strings.Contains(kind, "email"):
		return "email", true
	case strings.Contains(kind, "mcp"):
		return "mcp", true
	default:
		return "", false
	}
}
