package cha

import (
	"context"
	"testing"

	"github.com/gocha/chatool/internal/classgraph"
	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/invoke"
	"github.com/gocha/chatool/internal/methodid"
	"github.com/gocha/chatool/internal/methods"
	"github.com/gocha/chatool/internal/source"
	"github.com/gocha/chatool/internal/typeref"
)

type fakeNode struct {
	kind source.Kind
	rng  source.TokenRange
}

func (n fakeNode) Kind() source.Kind        { return n.kind }
func (n fakeNode) Range() source.TokenRange { return n.rng }

type callNode struct {
	fakeNode
	name     string
	receiver source.Node
	hasRecv  bool
}

func (c callNode) Name() string                  { return c.name }
func (c callNode) ArgTypeNodes() []source.Node    { return nil }
func (c callNode) Receiver() (source.Node, bool) { return c.receiver, c.hasRecv }

type chaMethodDecl struct {
	fakeNode
	name        string
	hasBody     bool
	sites       []source.Node
	constructor bool
	params      []source.Node
	firstIsThisOrSuper bool
}

func (m chaMethodDecl) Name() string                            { return m.name }
func (m chaMethodDecl) Static() bool                            { return false }
func (m chaMethodDecl) Constructor() bool                       { return m.constructor }
func (m chaMethodDecl) DefaultInInterface() bool                { return false }
func (m chaMethodDecl) Abstract() bool                          { return false }
func (m chaMethodDecl) Native() bool                            { return false }
func (m chaMethodDecl) HasBody() bool                           { return m.hasBody }
func (m chaMethodDecl) ReturnTypeNode() (source.Node, bool)      { return nil, false }
func (m chaMethodDecl) ParamTypeNodes() []source.Node           { return m.params }
func (m chaMethodDecl) CallSites() []source.Node                { return m.sites }
func (m chaMethodDecl) FirstStatementIsThisOrSuperCall() bool    { return m.firstIsThisOrSuper }

type chaTypeDecl struct {
	fakeNode
	name          string
	methods       []source.MethodDeclNode
	super         source.Node
	hasSuper      bool
	anon          bool
	anonymousArgs []source.Node
}

func (d chaTypeDecl) Name() string                                { return d.name }
func (d chaTypeDecl) IsInterface() bool                           { return false }
func (d chaTypeDecl) IsAnnotation() bool                          { return false }
func (d chaTypeDecl) IsAnonymous() bool                           { return d.anon }
func (d chaTypeDecl) Static() bool                                { return false }
func (d chaTypeDecl) SuperclassRef() (source.Node, bool)          { return d.super, d.hasSuper }
func (d chaTypeDecl) InterfaceRefs() []source.Node                { return nil }
func (d chaTypeDecl) Fields() []source.FieldDeclNode               { return nil }
func (d chaTypeDecl) Methods() []source.MethodDeclNode            { return d.methods }
func (d chaTypeDecl) InitializerBlocks() []source.InitializerNode { return nil }
func (d chaTypeDecl) Parent() (source.Node, bool)                  { return nil, false }
func (d chaTypeDecl) AnonymousArgs() []source.Node                 { return d.anonymousArgs }

type chaTree struct {
	file  string
	decls []source.TypeDeclNode
}

func (t chaTree) File() string                     { return t.file }
func (t chaTree) Imports() []string                { return nil }
func (t chaTree) TypeDecls() []source.TypeDeclNode { return t.decls }

type chaProvider struct {
	tree chaTree
}

func (p chaProvider) ListSourceFiles() ([]string, error) { return []string{p.tree.file}, nil }
func (p chaProvider) LoadUnit(path string) (source.SyntaxTree, error) { return p.tree, nil }

type chaTypeBinding struct {
	qname   string
	hash    string
	library bool
}

func (b chaTypeBinding) QualifiedName() string { return b.qname }
func (b chaTypeBinding) IsLibrary() bool       { return b.library }
func (b chaTypeBinding) IsInterface() bool     { return false }
func (b chaTypeBinding) BindingHash() string   { return b.hash }

type chaMethodBinding struct {
	qname      string
	declClass  source.TypeBinding
}

func (b chaMethodBinding) QualifiedName() string             { return b.qname }
func (b chaMethodBinding) IsLibrary() bool                   { return false }
func (b chaMethodBinding) IsStatic() bool                    { return false }
func (b chaMethodBinding) DeclaringClass() source.TypeBinding { return b.declClass }

type chaBinder struct {
	typeResolved   map[source.Node]source.TypeBinding
	methodResolved map[source.Node]source.MethodBinding
}

func (b chaBinder) ResolveType(n source.Node) (source.TypeBinding, bool) {
	tb, ok := b.typeResolved[n]
	return tb, ok
}
func (b chaBinder) ResolveMethod(n source.Node) (source.MethodBinding, bool) {
	mb, ok := b.methodResolved[n]
	return mb, ok
}
func (b chaBinder) DeclaredMethods(source.TypeBinding) []source.MethodBinding { return nil }
func (b chaBinder) Super(source.TypeBinding) (source.TypeBinding, bool)       { return nil, false }
func (b chaBinder) Interfaces(source.TypeBinding) []source.TypeBinding       { return nil }
func (b chaBinder) Modifiers(interface{}) source.ModifierSet                 { return nil }

type chaTypes struct {
	qnames map[source.Node]string
	soft   map[source.Node]typeref.Descriptor
}

func (t chaTypes) SoftType(n source.Node) (typeref.Descriptor, bool) {
	d, ok := t.soft[n]
	return d, ok
}
func (t chaTypes) ProperType(source.Node) (typeref.Descriptor, bool) { return nil, false }
func (t chaTypes) QualifiedNameOf(n source.Node, file string, strict bool) (string, bool) {
	q, ok := t.qnames[n]
	return q, ok
}

func TestRunResolvesInheritedCallAndBuildsGraph(t *testing.T) {
	reg := ids.NewRegistry()

	bDecl := chaTypeDecl{
		fakeNode: fakeNode{kind: source.KindTypeDecl, rng: source.TokenRange{File: "u.go", Offset: 1}},
		name:     "B",
		methods:  []source.MethodDeclNode{chaMethodDecl{fakeNode: fakeNode{kind: source.KindMethodDecl}, name: "foo", hasBody: true}},
	}
	bClassID := classgraph.ClassIDOf(reg, bDecl)

	superRef := fakeNode{kind: source.KindTypeDecl, rng: source.TokenRange{File: "u.go", Offset: 2}}
	call := callNode{
		fakeNode: fakeNode{kind: source.KindMethodInvocation, rng: source.TokenRange{File: "u.go", Offset: 60}},
		name:     "foo",
		receiver: fakeNode{kind: source.KindQualifiedName},
		hasRecv:  true,
	}
	cDecl := chaTypeDecl{
		fakeNode: fakeNode{kind: source.KindTypeDecl, rng: source.TokenRange{File: "u.go", Offset: 50}},
		name:     "C",
		super:    superRef,
		hasSuper: true,
		methods:  []source.MethodDeclNode{chaMethodDecl{fakeNode: fakeNode{kind: source.KindMethodDecl}, name: "caller", hasBody: true, sites: []source.Node{call}}},
	}

	tree := chaTree{file: "u.go", decls: []source.TypeDeclNode{bDecl, cDecl}}
	provider := chaProvider{tree: tree}

	bBinding := chaTypeBinding{qname: "B", hash: string(bClassID)}
	binder := chaBinder{
		typeResolved:   map[source.Node]source.TypeBinding{superRef: bBinding},
		methodResolved: map[source.Node]source.MethodBinding{call: chaMethodBinding{qname: "B.foo", declClass: bBinding}},
	}
	types := chaTypes{qnames: map[source.Node]string{call: "pkg.B.foo"}}

	ac := NewContext(nil)
	ac.Reg = reg
	ac.Classes = classgraph.NewGraph(reg)

	if err := ac.Run(context.Background(), provider, binder, types, nil, nil); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	declared := ac.Methods.DeclaredMethods(bClassID)
	var fooID ids.MethodID
	for _, mid := range declared {
		b, _ := ac.Methods.Bundle(mid)
		if b.Identity.Name == "foo" {
			fooID = mid
		}
	}
	if fooID == "" {
		t.Fatalf("expected foo to be registered on B")
	}

	found := false
	for _, caller := range ac.CallGraph.Callers(fooID) {
		if b, ok := ac.Methods.Bundle(caller); ok && b.Identity.Name == "caller" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an edge from caller() to B.foo(), callers=%v", ac.CallGraph.Callers(fooID))
	}
}

// TestLinkConstructorChainMatchesAnonymousConstructorByArguments pins down
// §4.4 scenario S6: an anonymous class's synthetic default constructor
// must link to whichever of the parent's declared constructors the
// instance-creation's own argument list best matches, not unconditionally
// the parent's zero-arg constructor.
func TestLinkConstructorChainMatchesAnonymousConstructorByArguments(t *testing.T) {
	reg := ids.NewRegistry()
	ac := NewContext(nil)
	ac.Reg = reg
	ac.Classes = classgraph.NewGraph(reg)

	parent := ids.ClassID("P")
	anon := ids.ClassID("Anon")
	ac.Classes.RegisterClass(parent, "p.go", false, false, false)
	ac.Classes.RegisterClass(anon, "a.go", false, false, true)
	ac.Classes.SetImmediateSuper(anon, parent)
	ac.Classes.Close()

	zeroArgCtor := ac.Methods.Register(reg, parent, methodIdentity("P"), methodid.Constructor)
	oneArgCtor := ac.Methods.Register(reg, parent, methodIdentity("P", typeref.Top), methodid.Constructor)

	argNode := fakeNode{kind: source.KindMethodInvocation, rng: source.TokenRange{File: "a.go", Offset: 1}}
	anonDecl := chaTypeDecl{
		fakeNode:      fakeNode{kind: source.KindTypeDecl, rng: source.TokenRange{File: "a.go", Offset: 2}},
		name:          "Anon",
		anon:          true,
		anonymousArgs: []source.Node{argNode},
	}

	mctx := methodid.Context{Types: chaTypes{soft: map[source.Node]typeref.Descriptor{argNode: typeref.Top}}}
	ac.linkConstructorChain(mctx, anon, anonDecl)

	anonDefault := ac.Methods.EnsureDefaultConstructor(reg, anon)
	callees := ac.CallGraph.Callees(anonDefault)
	if len(callees) != 1 || callees[0] != oneArgCtor {
		t.Fatalf("expected anonymous default constructor to link to the one-arg constructor %v, got %v (zero-arg was %v)", oneArgCtor, callees, zeroArgCtor)
	}
}

// TestLinkConstructorChainFallsBackToDefaultWhenNoAnonymousArgsMatch
// exercises the degrade path: when nothing on the parent matches the
// instance-creation's argument list, the anonymous class still chains to
// the parent's synthetic default constructor.
func TestLinkConstructorChainFallsBackToDefaultWhenNoAnonymousArgsMatch(t *testing.T) {
	reg := ids.NewRegistry()
	ac := NewContext(nil)
	ac.Reg = reg
	ac.Classes = classgraph.NewGraph(reg)

	parent := ids.ClassID("P")
	anon := ids.ClassID("Anon")
	ac.Classes.RegisterClass(parent, "p.go", false, false, false)
	ac.Classes.RegisterClass(anon, "a.go", false, false, true)
	ac.Classes.SetImmediateSuper(anon, parent)
	ac.Classes.Close()

	anonDecl := chaTypeDecl{
		fakeNode: fakeNode{kind: source.KindTypeDecl, rng: source.TokenRange{File: "a.go", Offset: 2}},
		name:     "Anon",
		anon:     true,
	}

	mctx := methodid.Context{Types: chaTypes{}}
	ac.linkConstructorChain(mctx, anon, anonDecl)

	parentDefault := ac.Methods.EnsureDefaultConstructor(reg, parent)
	anonDefault := ac.Methods.EnsureDefaultConstructor(reg, anon)
	callees := ac.CallGraph.Callees(anonDefault)
	if len(callees) != 1 || callees[0] != parentDefault {
		t.Fatalf("expected fallback to parent's default constructor %v, got %v", parentDefault, callees)
	}
}

func methodIdentity(name string, params ...typeref.Descriptor) methodid.Identity {
	return methodid.Identity{Name: name, Params: params}
}

// TestResolveCallSitesFallsBackToLibrarySubclasses pins down §4.4
// scenario S5: a call anchored on an unresolved library type (the
// ordinary servicing-method lookup finds nothing declared on the
// library type itself) widens to that type's known source subclasses
// and emits an edge to whichever of them matches.
func TestResolveCallSitesFallsBackToLibrarySubclasses(t *testing.T) {
	reg := ids.NewRegistry()
	ac := NewContext(nil)
	ac.Reg = reg
	ac.Classes = classgraph.NewGraph(reg)

	libList := ids.ClassID("LIB:java.util.List")
	impl := ids.ClassID("MyArrayList")
	caller := ids.ClassID("Caller")
	ac.Classes.RegisterClass(impl, "impl.go", false, false, false)
	ac.Classes.RegisterClass(caller, "caller.go", false, false, false)
	ac.Classes.SetImmediateSuper(impl, libList)
	ac.Classes.Close()

	sizeID := ac.Methods.Register(reg, impl, methodIdentity("size"), 0)
	callerID := ac.Methods.Register(reg, caller, methodIdentity("caller"), 0)

	receiver := fakeNode{kind: source.KindQualifiedName}
	call := callNode{
		fakeNode: fakeNode{kind: source.KindMethodInvocation, rng: source.TokenRange{File: "caller.go", Offset: 5}},
		name:     "size",
		receiver: receiver,
		hasRecv:  true,
	}
	binder := chaBinder{
		typeResolved: map[source.Node]source.TypeBinding{
			receiver: chaTypeBinding{qname: "java.util.List", library: true},
		},
	}
	types := chaTypes{}

	lookup := invoke.Lookup{Classes: ac.Classes, Methods: ac.Methods}
	engine := &invoke.Engine{Classes: ac.Classes, Methods: ac.Methods, Reg: ac.Reg}
	site := classSite{methods.DeclSite{Method: callerID, Class: caller, Sites: []source.Node{call}}}

	ac.resolveCallSites(binder, types, nil, lookup, engine, site)

	callees := ac.CallGraph.Callees(callerID)
	found := false
	for _, c := range callees {
		if c == sizeID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected caller() to gain an edge to the library subclass's size(), callees=%v", callees)
	}
}
