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

// Package ir defines the declarative, pre-lowering intermediate
// representation that the static analyzer packages (resolve, ownership,
// typestate, verify) consume. A frontend (lexer, parser, desugaring)
// outside this module produces a Program; core/analyzer never parses
// source text itself and never touches the post-lowering bytecode built
// by core/vm — it sits strictly between the two.
package ir

// Span locates a node in the original source, for diagnostics only. It
// carries no semantic weight during analysis.
type Span struct {
	Line   int
	Column int
}

// Program is the root of a compilation unit: every top-level
// declaration the frontend produced, in source order.
type Program struct {
	Records []*RecordDef
	Enums   []*EnumDef
	Cells   []*CellDef
	Effects []*EffectDecl
	Tools   []*ToolDecl
	Agents  []*AgentDecl
	Handlers []*HandlerDecl
	Processes []*ProcessDecl
	Traits  []*TraitDecl
	Impls   []*ImplDecl
	Consts  []*ConstDecl
	Aliases []*TypeAliasDecl

	// Directives carries source-level pragmas (e.g. "strict", "doc_mode")
	// as already-parsed name/value pairs; values default to "true" when a
	// directive carries no explicit value.
	Directives map[string]string
}

// Type is a reference to a named type, possibly generic or a builtin
// container. Builtins ("Int", "String", "Bool", "List", "Map", ...) are
// distinguished from user-defined names only at resolve time.
type Type struct {
	Name string
	Args []*Type // generic instantiation, e.g. List<Int> -> Name="List", Args=[Int]
	Span Span
}

// RecordDef declares a named product type.
type RecordDef struct {
	Name   string
	Fields []FieldDef
	IsPub  bool
	Span   Span
	Doc    string
}

// FieldDef is one field of a RecordDef.
type FieldDef struct {
	Name string
	Type *Type
	Span Span
}

// EnumDef declares a named sum type.
type EnumDef struct {
	Name     string
	Variants []EnumVariant
	IsPub    bool
	Span     Span
	Doc      string
}

// EnumVariant is one case of an EnumDef, optionally carrying fields.
type EnumVariant struct {
	Name   string
	Fields []FieldDef
	Span   Span
}

// CellDef declares a cell: Lumen's unit of callable, effect-tracked
// computation (the analog of a function).
type CellDef struct {
	Name         string
	GenericNames []string
	Params       []ParamDef
	ReturnType   *Type
	// Effects is the set of effect names the author declared; resolve
	// widens this with inferred effects from the body.
	Effects []string
	Body    []Stmt
	IsPub   bool
	IsAsync bool
	IsExtern bool
	MustUse bool
	Span    Span
	Doc     string
}

// ParamDef is one parameter of a CellDef.
type ParamDef struct {
	Name string
	Type *Type
	Span Span
}

// EffectDecl declares a named effect signature (the operations a
// handler for it must provide).
type EffectDecl struct {
	Name       string
	Operations []EffectOp
	Span       Span
	Doc        string
}

// EffectOp is one operation of an EffectDecl.
type EffectOp struct {
	Name       string
	Params     []ParamDef
	ReturnType *Type
	Span       Span
}

// ToolDecl declares an external tool binding: a named capability
// reachable through the host's tool-provider registry. Kind classifies
// the tool's capability surface ("http", "llm", "fs", "database",
// "email", "mcp", ...) for effect-grant checking.
type ToolDecl struct {
	Name string
	Kind string
	Span Span
	Doc  string
}

// AgentDecl declares an agent: a named bundle of tools and a system
// prompt/policy the runtime wires into an LLM-backed cell.
type AgentDecl struct {
	Name  string
	Tools []string
	Span  Span
	Doc   string
}

// HandlerDecl declares a handler body implementing an EffectDecl.
type HandlerDecl struct {
	Name       string
	EffectName string
	Body       []Stmt
	Span       Span
	Doc        string
}

// ProcessKind distinguishes the built-in process flavors that carry
// implicit effects (spec.md's "state"-classified method names).
type ProcessKind string

const (
	ProcessMemory  ProcessKind = "memory"
	ProcessMachine ProcessKind = "machine"
	ProcessGeneric ProcessKind = "generic"
)

// ProcessDecl declares a stateful process: a named, long-lived
// component whose methods implicitly carry the "state" effect.
type ProcessDecl struct {
	Name    string
	Kind    ProcessKind
	Methods []CellDef
	Span    Span
	Doc     string
}

// TraitDecl declares a named interface: a set of method signatures a
// type can implement.
type TraitDecl struct {
	Name    string
	Methods []CellDef
	Span    Span
	Doc     string
}

// ImplDecl implements a TraitDecl for a concrete type.
type ImplDecl struct {
	TraitName string
	TypeName  string
	Methods   []CellDef
	Span      Span
}

// ConstDecl declares a module-level constant.
type ConstDecl struct {
	Name  string
	Type  *Type
	Value Expr
	Span  Span
}

// TypeAliasDecl declares a named alias for another type expression.
type TypeAliasDecl struct {
	Name   string
	Target *Type
	Span   Span
}

// Stmt is implemented by every statement kind the body of a CellDef,
// HandlerDecl, or lambda can contain.
type Stmt interface{ stmtNode() }

type LetStmt struct {
	Name    string
	Mutable bool
	Type    *Type
	Value   Expr
	Span    Span
}

type AssignStmt struct {
	Target string
	Value  Expr
	Span   Span
}

type CompoundAssignStmt struct {
	Target string
	Op     string
	Value  Expr
	Span   Span
}

type ExprStmt struct {
	Expr Expr
	Span Span
}

type IfStmt struct {
	Condition Expr
	Then      []Stmt
	Else      []Stmt // nil when there is no else-branch
	Span      Span
}

type ReturnStmt struct {
	Value Expr
	Span  Span
}

type HaltStmt struct {
	Message Expr
	Span    Span
}

type ForStmt struct {
	Var    string
	Iter   Expr
	Filter Expr // nil when absent
	Body   []Stmt
	Span   Span
}

type WhileStmt struct {
	Condition Expr
	Body      []Stmt
	Span      Span
}

type LoopStmt struct {
	Body []Stmt
	Span Span
}

type MatchStmt struct {
	Subject Expr
	Arms    []MatchArm
	Span    Span
}

type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil when absent
	Body    []Stmt
	Span    Span
}

type EmitStmt struct {
	Value Expr
	Span  Span
}

type DeferStmt struct {
	Body []Stmt
	Span Span
}

type YieldStmt struct {
	Value Expr
	Span  Span
}

type BreakStmt struct{ Span Span }
type ContinueStmt struct{ Span Span }

func (*LetStmt) stmtNode()            {}
func (*AssignStmt) stmtNode()         {}
func (*CompoundAssignStmt) stmtNode() {}
func (*ExprStmt) stmtNode()           {}
func (*IfStmt) stmtNode()             {}
func (*ReturnStmt) stmtNode()         {}
func (*HaltStmt) stmtNode()           {}
func (*ForStmt) stmtNode()            {}
func (*WhileStmt) stmtNode()          {}
func (*LoopStmt) stmtNode()           {}
func (*MatchStmt) stmtNode()          {}
func (*EmitStmt) stmtNode()           {}
func (*DeferStmt) stmtNode()          {}
func (*YieldStmt) stmtNode()          {}
func (*BreakStmt) stmtNode()          {}
func (*ContinueStmt) stmtNode()       {}

// Pattern is implemented by every match-arm pattern kind.
type Pattern interface{ patternNode() }

type IdentPattern struct {
	Name string
	Span Span
}

type LiteralPattern struct {
	Value Expr
	Span  Span
}

type RecordPattern struct {
	TypeName string
	Fields   map[string]Pattern
	Span     Span
}

type WildcardPattern struct{ Span Span }

func (*IdentPattern) patternNode()   {}
func (*LiteralPattern) patternNode() {}
func (*RecordPattern) patternNode()  {}
func (*WildcardPattern) patternNode() {}

// CallArg is one argument of a call expression: positional, named, or a
// role-tagged argument (Lumen's agent/tool role arguments, e.g.
// `system: "..."`).
type CallArg struct {
	Kind  CallArgKind
	Name  string // set for Named and Role
	Value Expr
	Span  Span
}

type CallArgKind uint8

const (
	ArgPositional CallArgKind = iota
	ArgNamed
	ArgRole
)

// Expr is implemented by every expression kind.
type Expr interface{ exprNode() }

type IdentExpr struct {
	Name string
	Span Span
}

type IntLitExpr struct {
	Value int64
	Span  Span
}

type FloatLitExpr struct {
	Value float64
	Span  Span
}

type StringLitExpr struct {
	Value string
	Span  Span
}

type BoolLitExpr struct {
	Value bool
	Span  Span
}

type NullLitExpr struct{ Span Span }

type CallExpr struct {
	Callee Expr
	Args   []CallArg
	Span   Span
}

// DotAccessExpr is both field access and the shape a method call's
// callee takes: Call{Callee: DotAccess{Base, Method}}.
type DotAccessExpr struct {
	Base   Expr
	Member string
	Span   Span
}

type BinOpExpr struct {
	Left  Expr
	Op    string
	Right Expr
	Span  Span
}

type UnaryOpExpr struct {
	Op      string
	Operand Expr
	Span    Span
}

type ToolCallExpr struct {
	Callee Expr
	Args   []CallArg
	Span   Span
}

type ListLitExpr struct {
	Elems []Expr
	Span  Span
}

type SetLitExpr struct {
	Elems []Expr
	Span  Span
}

type TupleLitExpr struct {
	Elems []Expr
	Span  Span
}

type MapEntry struct {
	Key   Expr
	Value Expr
}

type MapLitExpr struct {
	Entries []MapEntry
	Span    Span
}

type RecordLitExpr struct {
	TypeName string
	Fields   []RecordFieldInit
	Span     Span
}

type RecordFieldInit struct {
	Name  string
	Value Expr
}

type IndexAccessExpr struct {
	Base  Expr
	Index Expr
	Span  Span
}

type IfExprExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Span Span
}

type LambdaExpr struct {
	Params []ParamDef
	Body   []Stmt // a block body; a single-expression body is wrapped as a bare ReturnStmt-less ExprStmt
	Span   Span
}

type BlockExpr struct {
	Body []Stmt
	Span Span
}

type PipeExpr struct {
	Left  Expr
	Right Expr
	Span  Span
}

type StringSegment struct {
	Literal       string
	Interpolation Expr // nil when this segment is a literal run
}

type StringInterpExpr struct {
	Segments []StringSegment
	Span     Span
}

type AwaitExpr struct {
	Inner Expr
	Span  Span
}

type TryExpr struct {
	Inner Expr
	Span  Span
}

type ResumeExpr struct {
	Inner Expr
	Span  Span
}

type PerformExpr struct {
	EffectName string
	Operation  string
	Args       []Expr
	Span       Span
}

type HandleExpr struct {
	Body     []Stmt
	Handlers []HandlerClause
	Span     Span
}

type HandlerClause struct {
	EffectName string
	Operation  string
	Body       []Stmt
	Span       Span
}

type MatchExprExpr struct {
	Subject Expr
	Arms    []MatchArm
	Span    Span
}

// RefExpr is an explicit borrow: &x (Mutable=false) or &mut x
// (Mutable=true).
type RefExpr struct {
	Mutable bool
	Inner   Expr
	Span    Span
}

func (*IdentExpr) exprNode()        {}
func (*IntLitExpr) exprNode()       {}
func (*FloatLitExpr) exprNode()     {}
func (*StringLitExpr) exprNode()    {}
func (*BoolLitExpr) exprNode()      {}
func (*NullLitExpr) exprNode()      {}
func (*CallExpr) exprNode()         {}
func (*DotAccessExpr) exprNode()    {}
func (*BinOpExpr) exprNode()        {}
func (*UnaryOpExpr) exprNode()      {}
func (*ToolCallExpr) exprNode()     {}
func (*ListLitExpr) exprNode()      {}
func (*SetLitExpr) exprNode()       {}
func (*TupleLitExpr) exprNode()     {}
func (*MapLitExpr) exprNode()       {}
func (*RecordLitExpr) exprNode()    {}
func (*IndexAccessExpr) exprNode()  {}
func (*IfExprExpr) exprNode()       {}
func (*LambdaExpr) exprNode()       {}
func (*BlockExpr) exprNode()        {}
func (*PipeExpr) exprNode()         {}
func (*StringInterpExpr) exprNode() {}
func (*AwaitExpr) exprNode()        {}
func (*TryExpr) exprNode()          {}
func (*ResumeExpr) exprNode()       {}
func (*PerformExpr) exprNode()      {}
func (*HandleExpr) exprNode()       {}
func (*MatchExprExpr) exprNode()    {}
func (*RefExpr) exprNode()          {}
