// Package methodid implements the method-identity data model and the
// "method handler" of §4.3: a pure function from an AST node to a
// MethodIdentity, used both to register declared methods (Stage 3) and to
// characterize call sites for the overload resolver (Stage 4).
package methodid

import (
	"github.com/gocha/chatool/internal/source"
	"github.com/gocha/chatool/internal/typeref"
)

// Bits are the per-method modifier flags of §3.
type Bits uint8

const (
	Bodyless Bits = 1 << iota
	Constructor
	Static
	PossiblyPolymorphic
	Virtual
	DefaultInInterface
)

func (b Bits) Has(bit Bits) bool { return b&bit != 0 }

// Identity is the immutable (name, return type, ordered parameter types)
// tuple of §3.
type Identity struct {
	Name   string
	Return typeref.Descriptor
	Params []typeref.Descriptor
}

// ExactOverride reports whether other is an exact override of id: same
// name, same parameter types type-for-type, ignoring return type. This is
// the "Exact override match" of §4.4, used only to decide overriding, never
// for ordinary resolution.
func (id Identity) ExactOverride(other Identity) bool {
	if id.Name != other.Name || len(id.Params) != len(other.Params) {
		return false
	}
	for i, p := range id.Params {
		if !p.Equals(other.Params[i]) {
			return false
		}
	}
	return true
}

// Bundle is the per-method registered state of §3: its identity, modifier
// bits, and (populated later by the invocation-type engine) the computed
// invocation type and candidate subclass-override indices.
type Bundle struct {
	Signature              string
	Identity               Identity
	Bits                   Bits
	InvocationCallers      []int // class indices; populated by package invoke
	SubclassInvocationIdxs []int // method indices; populated by package invoke
}

// Context carries the external collaborators and the syntactic context
// (enclosing method/class) the method handler needs to synthesize an
// identity for nodes whose own shape doesn't carry enough information
// (this()/super() invocations, enum constants).
type Context struct {
	Binder source.Binder
	Types  source.TypeCalculator

	// ContainingMethodName is the name of the method whose body a
	// this()-invocation appears in.
	ContainingMethodName string

	// EnclosingClassSuperName is the simple name of the immediate super of
	// the class whose constructor body a super()-invocation appears in.
	EnclosingClassSuperName string
}

func softTypesOf(ctx Context, nodes []source.Node) []typeref.Descriptor {
	out := make([]typeref.Descriptor, len(nodes))
	for i, n := range nodes {
		if t, ok := ctx.Types.SoftType(n); ok {
			out[i] = t
		} else {
			out[i] = typeref.Dummy
		}
	}
	return out
}

// HandleDecl synthesizes the identity and bits for a method declaration
// (the first row of §4.3's table).
func HandleDecl(ctx Context, decl source.MethodDeclNode) (Identity, Bits) {
	var bits Bits
	if decl.Static() {
		bits |= Static
	}
	if decl.DefaultInInterface() {
		bits |= DefaultInInterface
	}
	if decl.Constructor() {
		bits |= Constructor
	}
	if !decl.HasBody() {
		bits |= Bodyless
	}
	if !decl.Native() && !decl.Constructor() && (decl.Abstract() || decl.DefaultInInterface()) {
		bits |= PossiblyPolymorphic
	}

	ret := typeref.Void
	if !decl.Constructor() {
		if rn, ok := decl.ReturnTypeNode(); ok {
			if t, ok := ctx.Types.SoftType(rn); ok {
				ret = t
			}
		}
	}

	params := softTypesOf(ctx, decl.ParamTypeNodes())

	return Identity{Name: decl.Name(), Return: ret, Params: params}, bits
}

// HandleCallSite synthesizes the identity for a call-site node: method
// invocation, instance creation, this()/super() invocation, super.m(),
// or enum constant (the remaining rows of §4.3's table).
func HandleCallSite(ctx Context, n source.Node, site source.CallSiteNode) (Identity, Bits) {
	switch n.Kind() {
	case source.KindMethodInvocation:
		return handleMethodInvocation(ctx, n, site)

	case source.KindInstanceCreation:
		return Identity{
			Name:   stripTypeParams(site.Name()),
			Return: typeref.Void,
			Params: softTypesOf(ctx, site.ArgTypeNodes()),
		}, Constructor

	case source.KindThisInvocation:
		return Identity{
			Name:   ctx.ContainingMethodName,
			Return: typeref.Void,
			Params: softTypesOf(ctx, site.ArgTypeNodes()),
		}, Constructor

	case source.KindSuperInvocation:
		return Identity{
			Name:   ctx.EnclosingClassSuperName,
			Return: typeref.Void,
			Params: softTypesOf(ctx, site.ArgTypeNodes()),
		}, Constructor

	case source.KindSuperMethodInvocation:
		return handleMethodInvocation(ctx, n, site)

	case source.KindEnumConstant:
		return Identity{
			Name:   site.Name(),
			Return: typeref.Void,
			Params: softTypesOf(ctx, site.ArgTypeNodes()),
		}, Constructor

	default:
		return handleMethodInvocation(ctx, n, site)
	}
}

// handleMethodInvocation implements the "method invocation" and
// "super.m()" rows: the return type comes from the binding if resolvable;
// otherwise it is void for an expression-statement call and the unresolved
// "dummy" sentinel otherwise.
func handleMethodInvocation(ctx Context, n source.Node, site source.CallSiteNode) (Identity, Bits) {
	ret := typeref.Dummy
	if mb, ok := ctx.Binder.ResolveMethod(n); ok {
		if t, ok := ctx.Types.SoftType(n); ok {
			ret = t
		} else if mb.IsStatic() {
			// binding resolved but no computable return descriptor: fall
			// back to void only when used as a statement, which the caller
			// signals by passing an already-void-typed soft type; absent
			// that information here, keep dummy (never silently wrong).
			ret = typeref.Dummy
		}
	} else if t, ok := ctx.Types.SoftType(n); ok && typeref.IsVoid(t) {
		ret = typeref.Void
	}
	return Identity{
		Name:   site.Name(),
		Return: ret,
		Params: softTypesOf(ctx, site.ArgTypeNodes()),
	}, 0
}

// stripTypeParams removes a trailing "<...>" type-argument suffix from an
// instance-creation's class name, per §4.3.
func stripTypeParams(name string) string {
	if i := indexByte(name, '<'); i >= 0 {
		return name[:i]
	}
	return name
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
