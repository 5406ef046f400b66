package fields

import (
	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/source"
	"github.com/gocha/chatool/internal/typeref"
)

// isCallSiteKind reports whether k is one of the call-site-shaped kinds a
// CallSiteNode implementor uses (§6).
func isCallSiteKind(k source.Kind) bool {
	switch k {
	case source.KindMethodInvocation, source.KindInstanceCreation,
		source.KindThisInvocation, source.KindSuperInvocation,
		source.KindSuperMethodInvocation, source.KindEnumConstant,
		source.KindQualifiedName:
		return true
	}
	return false
}

// RegisterDeclaredFields registers every field decl declares directly,
// deriving each field's soft type through types. When a field's
// initializer expression is itself a call-site-shaped node (a method
// invocation, instance creation, or qualified-name reference at the
// initializer's own root), it is recorded as an initializer site; an
// initializer whose call sites are nested deeper than its own root
// relies on the same flattening convention MethodDeclNode.CallSites()
// already follows, left to the embedder's parser.
func RegisterDeclaredFields(r *Registry, types source.TypeCalculator, class ids.ClassID, decl source.TypeDeclNode) {
	for _, f := range decl.Fields() {
		typ, ok := types.SoftType(f.TypeNode())
		if !ok {
			typ = typeref.Dummy
		}
		fi := r.RegisterDeclared(class, f, typ)
		if init, ok := f.Initializer(); ok && isCallSiteKind(init.Kind()) {
			fi.AddInitializerSite(init)
		}
	}
}
