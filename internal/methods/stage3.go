package methods

import (
	"github.com/gocha/chatool/internal/classgraph"
	"github.com/gocha/chatool/internal/fields"
	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/methodid"
	"github.com/gocha/chatool/internal/source"
)

// DeclSite pairs a registered method id with the call-site nodes found
// in its body (or, for a synthetic constructor, the call-site nodes
// attributed to it from field initializers and initializer blocks),
// ready for Stage 4 to walk.
type DeclSite struct {
	Method ids.MethodID
	Class  ids.ClassID
	Sites  []source.Node

	// ContainingMethodName/EnclosingClassSuperName carry the syntactic
	// context a this()/super() call site at one of Sites needs to
	// resolve its own identity (methodid.Context).
	ContainingMethodName    string
	EnclosingClassSuperName string
}

// Stage3Unit registers every method declared on decl (explicit
// constructors, instance/static methods) plus the class's synthetic
// default/static constructors, and attributes field-initializer and
// initializer-block call sites to the appropriate synthetic constructor
// (§4.2 points 3 and 5, §5's field-initializer-to-constructor
// attribution).
//
// superName is the simple name of decl's immediate super as recorded by
// Stage 1/2, used as the EnclosingClassSuperName context for any
// super()-invocation call sites found in an explicit constructor body.
func Stage3Unit(methReg *Registry, fieldReg *fields.Registry, reg *ids.Registry, ctx methodid.Context, class ids.ClassID, decl source.TypeDeclNode, superName string) []DeclSite {
	var out []DeclSite

	defaultCtor := methReg.EnsureDefaultConstructor(reg, class)
	var defaultSites []source.Node

	var staticCtor ids.MethodID
	var staticSites []source.Node
	needsStatic := classgraph.HasStaticField(decl)
	for _, init := range decl.InitializerBlocks() {
		if init.Static() {
			needsStatic = true
		}
	}
	if needsStatic {
		staticCtor = methReg.EnsureStaticConstructor(reg, class)
	}

	for _, f := range decl.Fields() {
		fi, ok := fieldReg.Lookup(class, f.Name())
		if !ok {
			continue
		}
		sites := fi.InitializerSites()
		if len(sites) == 0 {
			continue
		}
		if f.Static() {
			staticSites = append(staticSites, sites...)
		} else {
			defaultSites = append(defaultSites, sites...)
		}
	}

	for _, init := range decl.InitializerBlocks() {
		if init.Static() {
			staticSites = append(staticSites, init.CallSites()...)
		} else {
			defaultSites = append(defaultSites, init.CallSites()...)
		}
	}

	out = append(out, DeclSite{Method: defaultCtor, Class: class, Sites: defaultSites})
	if staticCtor != "" {
		out = append(out, DeclSite{Method: staticCtor, Class: class, Sites: staticSites})
	}

	for _, m := range decl.Methods() {
		id, bits := methodid.HandleDecl(ctx, m)
		methodCtx := ctx
		methodCtx.ContainingMethodName = defaultCtorName
		if m.Constructor() {
			methodCtx.ContainingMethodName = decl.Name()
		}
		methodCtx.EnclosingClassSuperName = superName

		mid := methReg.Register(reg, class, id, bits)
		out = append(out, DeclSite{
			Method:                  mid,
			Class:                   class,
			Sites:                   m.CallSites(),
			ContainingMethodName:    methodCtx.ContainingMethodName,
			EnclosingClassSuperName: methodCtx.EnclosingClassSuperName,
		})
	}

	return out
}
