// Package source declares the interfaces the CHA core consumes from an
// external parser/binder/type-calculator (§6), plus the small AST node
// model those interfaces traffic in. Nothing in this package parses or
// resolves anything itself; it is the seam between this module's pipeline
// and whatever embedder supplies real syntax trees and bindings.
package source

import "github.com/gocha/chatool/internal/typeref"

// TokenRange is the immutable {file, offset, length} identity key used as
// an AST-node-stable identity across stages (§3, Glossary).
type TokenRange struct {
	File   string
	Offset int
	Length int
}

// Kind enumerates the node kinds the pipeline looks for while walking a
// SyntaxTree (§6).
type Kind int

const (
	KindTypeDecl Kind = iota
	KindAnonymousClassDecl
	KindMethodDecl
	KindInitializerBlock
	KindFieldDecl
	KindMethodInvocation
	KindInstanceCreation
	KindThisInvocation
	KindSuperInvocation
	KindSuperMethodInvocation
	KindEnumConstant
	KindQualifiedName
	KindThrowStatement
)

// Node is the common supertype of every AST node kind the pipeline
// consumes. Its Range is its stable identity key.
type Node interface {
	Kind() Kind
	Range() TokenRange
}

// TypeDeclNode is a type (class/interface/enum/record) declaration or an
// anonymous class declaration.
type TypeDeclNode interface {
	Node
	Name() string
	IsInterface() bool
	IsAnnotation() bool
	IsAnonymous() bool
	Static() bool
	SuperclassRef() (Node, bool)
	InterfaceRefs() []Node
	Fields() []FieldDeclNode
	Methods() []MethodDeclNode
	InitializerBlocks() []InitializerNode
	// Parent returns the syntactically enclosing node (a TypeDeclNode or a
	// MethodDeclNode), used by Stage 3 to compute inner/enclosing links
	// (§4.2).
	Parent() (Node, bool)
	// AnonymousArgs returns the argument expression nodes of the
	// instance-creation that introduced this anonymous class, if any.
	AnonymousArgs() []Node
}

// FieldDeclNode is a single field declaration.
type FieldDeclNode interface {
	Node
	Name() string
	Static() bool
	Private() bool
	TypeNode() Node
	Initializer() (Node, bool)
}

// MethodDeclNode is a method, constructor, or synthetic-eligible
// declaration.
type MethodDeclNode interface {
	Node
	Name() string
	Static() bool
	Constructor() bool
	DefaultInInterface() bool
	Abstract() bool
	Native() bool
	HasBody() bool
	ReturnTypeNode() (Node, bool)
	ParamTypeNodes() []Node
	// CallSites returns every call-site node found in the method body,
	// already flattened by the external parser.
	CallSites() []Node
	// FirstStatementIsThisOrSuperCall reports whether the constructor's
	// first statement is a this()/super() invocation, used by §4.4's
	// constructor-chaining rule.
	FirstStatementIsThisOrSuperCall() bool
}

// InitializerNode is an instance or static initializer block.
type InitializerNode interface {
	Node
	Static() bool
	CallSites() []Node
}

// CallSiteNode is any call-site-shaped node: method invocation, instance
// creation, this()/super() invocation, super.m() invocation, enum
// constant, or qualified-name reference.
type CallSiteNode interface {
	Node
	Name() string
	ArgTypeNodes() []Node
	Receiver() (Node, bool)
}

// SyntaxTree is a single compilation unit, already parsed by the external
// collaborator.
type SyntaxTree interface {
	File() string
	// Imports returns the raw import package path strings found in the
	// file, used by excluded-file detection (§4.2, §6).
	Imports() []string
	// TypeDecls returns every top-level and nested type declaration,
	// including anonymous class declarations, found anywhere in the file.
	TypeDecls() []TypeDeclNode
}

// SourceFileProvider enumerates and loads compilation units.
type SourceFileProvider interface {
	ListSourceFiles() ([]string, error)
	LoadUnit(path string) (SyntaxTree, error)
}

// TypeBinding is a resolved class/interface binding.
type TypeBinding interface {
	QualifiedName() string
	IsLibrary() bool
	IsInterface() bool
	// BindingHash recovers a class id when the binding's token-range
	// cannot be read directly (§4.1). Never populated for anonymous
	// bindings.
	BindingHash() string
}

// MethodBinding is a resolved method binding.
type MethodBinding interface {
	QualifiedName() string
	IsLibrary() bool
	IsStatic() bool
	DeclaringClass() TypeBinding
}

// ModifierSet is the resolved modifier bits of a binding (visibility,
// static, abstract, native, default, ...); the specific bit layout is owned
// by the embedder, this package only needs a few boolean questions.
type ModifierSet interface {
	IsPublic() bool
	IsProtected() bool
	IsPrivate() bool
	IsStatic() bool
	IsAbstract() bool
	IsNative() bool
	IsDefault() bool
}

// Binder resolves AST nodes to type/method bindings and exposes the
// structural queries (super, interfaces, declared methods, modifiers) the
// class-graph builder needs (§6).
type Binder interface {
	ResolveType(n Node) (TypeBinding, bool)
	ResolveMethod(n Node) (MethodBinding, bool)
	DeclaredMethods(c TypeBinding) []MethodBinding
	Super(c TypeBinding) (TypeBinding, bool)
	Interfaces(c TypeBinding) []TypeBinding
	Modifiers(b interface{}) ModifierSet
}

// TypeCalculator produces type descriptors for expressions and
// declarations in two modes: "soft" (local syntactic/binding info only,
// usable before the field/method registries are populated) and "proper"
// (full registries available). See Glossary.
type TypeCalculator interface {
	SoftType(n Node) (typeref.Descriptor, bool)
	ProperType(n Node) (typeref.Descriptor, bool)
	QualifiedNameOf(n Node, file string, strict bool) (string, bool)
}

// ProgressReporter is the single sink for human-readable progress and
// diagnostic messages (§6).
type ProgressReporter interface {
	Report(message string)
}

// NopReporter discards every message. Useful as a default and in tests.
type NopReporter struct{}

func (NopReporter) Report(string) {}
