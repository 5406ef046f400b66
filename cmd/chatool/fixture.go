package main

import (
	"github.com/gocha/chatool/internal/classgraph"
	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/source"
	"github.com/gocha/chatool/internal/typeref"
)

// This file builds the tiny in-memory fixture program used by -demo: a
// base class Animal declaring speak(), and a subclass Dog overriding it
// and a Kennel class whose feed() method calls an Animal-typed field's
// speak() through a receiver expression. It exists only to exercise the
// four stages end to end without a real Java parser/binder; it does not
// attempt to model the full source.* interface surface meaningfully
// beyond what the demo path touches.

type fxNode struct {
	kind source.Kind
	rng  source.TokenRange
}

func (n fxNode) Kind() source.Kind        { return n.kind }
func (n fxNode) Range() source.TokenRange { return n.rng }

type fxCallSite struct {
	fxNode
	name     string
	receiver source.Node
	hasRecv  bool
}

func (c fxCallSite) Name() string                  { return c.name }
func (c fxCallSite) ArgTypeNodes() []source.Node   { return nil }
func (c fxCallSite) Receiver() (source.Node, bool) { return c.receiver, c.hasRecv }

type fxMethod struct {
	fxNode
	name        string
	constructor bool
	hasBody     bool
	sites       []source.Node
}

func (m fxMethod) Name() string                         { return m.name }
func (m fxMethod) Static() bool                          { return false }
func (m fxMethod) Constructor() bool                     { return m.constructor }
func (m fxMethod) DefaultInInterface() bool              { return false }
func (m fxMethod) Abstract() bool                        { return false }
func (m fxMethod) Native() bool                           { return false }
func (m fxMethod) HasBody() bool                          { return m.hasBody }
func (m fxMethod) ReturnTypeNode() (source.Node, bool)    { return nil, false }
func (m fxMethod) ParamTypeNodes() []source.Node          { return nil }
func (m fxMethod) CallSites() []source.Node               { return m.sites }
func (m fxMethod) FirstStatementIsThisOrSuperCall() bool  { return false }

type fxType struct {
	fxNode
	name     string
	super    source.Node
	hasSuper bool
	methods  []source.MethodDeclNode
}

func (d fxType) Name() string                                { return d.name }
func (d fxType) IsInterface() bool                            { return false }
func (d fxType) IsAnnotation() bool                           { return false }
func (d fxType) IsAnonymous() bool                            { return false }
func (d fxType) Static() bool                                 { return false }
func (d fxType) SuperclassRef() (source.Node, bool)           { return d.super, d.hasSuper }
func (d fxType) InterfaceRefs() []source.Node                 { return nil }
func (d fxType) Fields() []source.FieldDeclNode               { return nil }
func (d fxType) Methods() []source.MethodDeclNode             { return d.methods }
func (d fxType) InitializerBlocks() []source.InitializerNode  { return nil }
func (d fxType) Parent() (source.Node, bool)                  { return nil, false }
func (d fxType) AnonymousArgs() []source.Node                 { return nil }

type fxTree struct {
	file  string
	decls []source.TypeDeclNode
}

func (t fxTree) File() string                     { return t.file }
func (t fxTree) Imports() []string                { return nil }
func (t fxTree) TypeDecls() []source.TypeDeclNode { return t.decls }

type fxProvider struct{ tree fxTree }

func (p fxProvider) ListSourceFiles() ([]string, error) { return []string{p.tree.file}, nil }
func (p fxProvider) LoadUnit(string) (source.SyntaxTree, error) { return p.tree, nil }

type fxTypeBinding struct{ qname, hash string }

func (b fxTypeBinding) QualifiedName() string { return b.qname }
func (b fxTypeBinding) IsLibrary() bool       { return false }
func (b fxTypeBinding) IsInterface() bool     { return false }
func (b fxTypeBinding) BindingHash() string   { return b.hash }

type fxMethodBinding struct {
	qname     string
	declClass source.TypeBinding
}

func (b fxMethodBinding) QualifiedName() string             { return b.qname }
func (b fxMethodBinding) IsLibrary() bool                   { return false }
func (b fxMethodBinding) IsStatic() bool                    { return false }
func (b fxMethodBinding) DeclaringClass() source.TypeBinding { return b.declClass }

type fxBinder struct {
	types   map[source.Node]source.TypeBinding
	methods map[source.Node]source.MethodBinding
}

func (b fxBinder) ResolveType(n source.Node) (source.TypeBinding, bool) {
	tb, ok := b.types[n]
	return tb, ok
}
func (b fxBinder) ResolveMethod(n source.Node) (source.MethodBinding, bool) {
	mb, ok := b.methods[n]
	return mb, ok
}
func (b fxBinder) DeclaredMethods(source.TypeBinding) []source.MethodBinding { return nil }
func (b fxBinder) Super(source.TypeBinding) (source.TypeBinding, bool)       { return nil, false }
func (b fxBinder) Interfaces(source.TypeBinding) []source.TypeBinding       { return nil }
func (b fxBinder) Modifiers(interface{}) source.ModifierSet                 { return nil }

type fxTypes struct{ qnames map[source.Node]string }

func (t fxTypes) SoftType(source.Node) (typeref.Descriptor, bool)   { return typeref.Dummy, true }
func (t fxTypes) ProperType(source.Node) (typeref.Descriptor, bool) { return typeref.Dummy, true }
func (t fxTypes) QualifiedNameOf(n source.Node, file string, strict bool) (string, bool) {
	q, ok := t.qnames[n]
	return q, ok
}

// buildDemoProgram returns the provider/binder/type-calculator triple
// for the Animal/Dog/Kennel fixture described above.
func buildDemoProgram() (source.SourceFileProvider, source.Binder, source.TypeCalculator) {
	speak := fxMethod{fxNode: fxNode{kind: source.KindMethodDecl}, name: "speak", hasBody: true}
	animal := fxType{
		fxNode:  fxNode{kind: source.KindTypeDecl, rng: source.TokenRange{File: "demo.src", Offset: 1}},
		name:    "Animal",
		methods: []source.MethodDeclNode{speak},
	}

	dogSpeak := fxMethod{fxNode: fxNode{kind: source.KindMethodDecl}, name: "speak", hasBody: true}
	superRef := fxNode{kind: source.KindTypeDecl, rng: source.TokenRange{File: "demo.src", Offset: 2}}
	dog := fxType{
		fxNode:   fxNode{kind: source.KindTypeDecl, rng: source.TokenRange{File: "demo.src", Offset: 20}},
		name:     "Dog",
		super:    superRef,
		hasSuper: true,
		methods:  []source.MethodDeclNode{dogSpeak},
	}

	call := fxCallSite{
		fxNode:   fxNode{kind: source.KindMethodInvocation, rng: source.TokenRange{File: "demo.src", Offset: 80}},
		name:     "speak",
		receiver: fxNode{kind: source.KindQualifiedName},
		hasRecv:  true,
	}
	feed := fxMethod{fxNode: fxNode{kind: source.KindMethodDecl}, name: "feed", hasBody: true, sites: []source.Node{call}}
	kennel := fxType{
		fxNode:  fxNode{kind: source.KindTypeDecl, rng: source.TokenRange{File: "demo.src", Offset: 40}},
		name:    "Kennel",
		methods: []source.MethodDeclNode{feed},
	}

	tree := fxTree{file: "demo.src", decls: []source.TypeDeclNode{animal, dog, kennel}}
	provider := fxProvider{tree: tree}

	// Stage 1 derives a class's id from its declaration's token range
	// (classgraph.ClassIDOf), independent of any particular registry
	// instance; computing it here lets the fixture's bindings resolve to
	// the very same id Stage 1 will register for Animal.
	animalClassID := classgraph.ClassIDOf(ids.NewRegistry(), animal)
	animalBinding := fxTypeBinding{qname: "Animal", hash: string(animalClassID)}
	binder := fxBinder{
		types:   map[source.Node]source.TypeBinding{superRef: animalBinding},
		methods: map[source.Node]source.MethodBinding{call: fxMethodBinding{qname: "Animal.speak", declClass: animalBinding}},
	}
	types := fxTypes{qnames: map[source.Node]string{call: "demo.Animal.speak"}}

	return provider, binder, types
}
