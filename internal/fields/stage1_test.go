package fields

import (
	"testing"

	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/source"
	"github.com/gocha/chatool/internal/typeref"
)

type stage1FieldDecl struct {
	name    string
	static  bool
	init    source.Node
	hasInit bool
}

func (f stage1FieldDecl) Kind() source.Kind        { return source.KindFieldDecl }
func (f stage1FieldDecl) Range() source.TokenRange { return source.TokenRange{} }
func (f stage1FieldDecl) Name() string             { return f.name }
func (f stage1FieldDecl) Static() bool             { return f.static }
func (f stage1FieldDecl) Private() bool            { return false }
func (f stage1FieldDecl) TypeNode() source.Node    { return nil }
func (f stage1FieldDecl) Initializer() (source.Node, bool) {
	return f.init, f.hasInit
}

type stage1TypeDecl struct {
	name   string
	fields []source.FieldDeclNode
}

func (d stage1TypeDecl) Kind() source.Kind                            { return source.KindTypeDecl }
func (d stage1TypeDecl) Range() source.TokenRange                     { return source.TokenRange{} }
func (d stage1TypeDecl) Name() string                                 { return d.name }
func (d stage1TypeDecl) IsInterface() bool                            { return false }
func (d stage1TypeDecl) IsAnnotation() bool                           { return false }
func (d stage1TypeDecl) IsAnonymous() bool                            { return false }
func (d stage1TypeDecl) Static() bool                                 { return false }
func (d stage1TypeDecl) SuperclassRef() (source.Node, bool)           { return nil, false }
func (d stage1TypeDecl) InterfaceRefs() []source.Node                 { return nil }
func (d stage1TypeDecl) Fields() []source.FieldDeclNode               { return d.fields }
func (d stage1TypeDecl) Methods() []source.MethodDeclNode             { return nil }
func (d stage1TypeDecl) InitializerBlocks() []source.InitializerNode  { return nil }
func (d stage1TypeDecl) Parent() (source.Node, bool)                  { return nil, false }
func (d stage1TypeDecl) AnonymousArgs() []source.Node                 { return nil }

type stage1Types struct{}

func (stage1Types) SoftType(source.Node) (typeref.Descriptor, bool)        { return nil, false }
func (stage1Types) ProperType(source.Node) (typeref.Descriptor, bool)      { return nil, false }
func (stage1Types) QualifiedNameOf(source.Node, string, bool) (string, bool) { return "", false }

func TestRegisterDeclaredFieldsRecordsCallSiteInitializer(t *testing.T) {
	call := fakeInitNode{kind: source.KindMethodInvocation}
	f := stage1FieldDecl{name: "x", init: call, hasInit: true}
	decl := stage1TypeDecl{name: "C", fields: []source.FieldDeclNode{f}}

	r := NewRegistry()
	RegisterDeclaredFields(r, stage1Types{}, ids.ClassID("C"), decl)

	fi, ok := r.Lookup(ids.ClassID("C"), "x")
	if !ok {
		t.Fatalf("expected field x to be registered")
	}
	sites := fi.InitializerSites()
	if len(sites) != 1 || sites[0] != call {
		t.Fatalf("expected the initializer call site to be recorded, got %v", sites)
	}
}

func TestRegisterDeclaredFieldsSkipsNonCallSiteInitializer(t *testing.T) {
	literal := fakeInitNode{kind: source.KindThrowStatement}
	f := stage1FieldDecl{name: "y", init: literal, hasInit: true}
	decl := stage1TypeDecl{name: "C", fields: []source.FieldDeclNode{f}}

	r := NewRegistry()
	RegisterDeclaredFields(r, stage1Types{}, ids.ClassID("C"), decl)

	fi, ok := r.Lookup(ids.ClassID("C"), "y")
	if !ok {
		t.Fatalf("expected field y to be registered")
	}
	if len(fi.InitializerSites()) != 0 {
		t.Fatalf("expected no initializer sites recorded for a non-call-site initializer")
	}
}

func TestRegisterDeclaredFieldsFallsBackToDummyType(t *testing.T) {
	f := stage1FieldDecl{name: "z"}
	decl := stage1TypeDecl{name: "C", fields: []source.FieldDeclNode{f}}

	r := NewRegistry()
	RegisterDeclaredFields(r, stage1Types{}, ids.ClassID("C"), decl)

	fi, ok := r.Lookup(ids.ClassID("C"), "z")
	if !ok {
		t.Fatalf("expected field z to be registered")
	}
	if fi.Type != typeref.Dummy {
		t.Fatalf("expected dummy fallback type, got %v", fi.Type)
	}
}

type fakeInitNode struct {
	kind source.Kind
}

func (n fakeInitNode) Kind() source.Kind        { return n.kind }
func (n fakeInitNode) Range() source.TokenRange { return source.TokenRange{} }
