package classgraph

import (
	"strings"

	"github.com/gocha/chatool/internal/classpath"
	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/source"
)

// ExclusionRule decides, from a compilation unit's path and imports,
// whether its classes should be flagged excluded (test/example/
// auto-generated detection, §4.2). Supplied by the embedder since the
// naming conventions that signal "test file" or "generated file" are
// project-specific.
type ExclusionRule func(file string, imports []string) bool

// DefaultExclusionRule flags, comparing the path case-insensitively,
// files under a "test" path segment or whose name ends in "test.java",
// and files whose name contains ".generated." or ends in "_pb.java".
// imports is not consulted. Embedders needing other detection supply
// their own ExclusionRule.
func DefaultExclusionRule(file string, imports []string) bool {
	lower := strings.ToLower(file)
	if strings.Contains(lower, "/test/") || strings.HasSuffix(lower, "test.java") {
		return true
	}
	if strings.Contains(lower, ".generated.") || strings.HasSuffix(lower, "_pb.java") {
		return true
	}
	return false
}

// Stage1Unit registers every type declaration a compilation unit reports
// — SyntaxTree.TypeDecls already flattens top-level, nested, and
// anonymous declarations (§6) — into g, resolving each one's immediate
// super and direct interfaces through binder. Library/unresolvable
// supertypes are encoded via resolveClassRef's LIB: convention.
//
// Stage1Unit itself does no locking beyond what Graph already provides,
// so the caller may run one goroutine per SyntaxTree (§4.2's Stage 1
// fan-out) without additional synchronization.
//
// cp, when non-nil, resolves a library supertype/interface reference to
// its classpath-registered version before it is encoded as a "LIB:" class
// id (§4.4's "library super-types" fallback needs this so that two
// source classes extending the same library type, resolved through
// different classpath entries, land on the same reachable-subs bucket).
// cp may be nil, in which case the plain unversioned "LIB:" encoding is
// used, as before.
func Stage1Unit(g *Graph, reg *ids.Registry, binder source.Binder, cp *classpath.Registry, tree source.SyntaxTree, rule ExclusionRule) []ids.ClassID {
	if rule == nil {
		rule = DefaultExclusionRule
	}
	excludedFile := rule(tree.File(), tree.Imports())

	registered := make([]ids.ClassID, 0, len(tree.TypeDecls()))
	for _, decl := range tree.TypeDecls() {
		id := ClassIDOf(reg, decl)
		reg.UpdateOrGetBitIndex(id)
		parent, nested := decl.Parent()
		g.RegisterClass(id, tree.File(), nested, decl.Static(), decl.IsAnonymous())
		registered = append(registered, id)

		// A parent that is itself a type declaration is ordinary nesting:
		// record both the inner/outer namespace link and the enclosing
		// class directly. A parent that is a method declaration (a
		// method-local class) has no Parent() of its own in this node
		// model, so its enclosing class cannot be recovered by climbing
		// further here; Stage 3, which walks method bodies, is where that
		// case is resolved instead.
		if nested {
			if parentDecl, ok := parent.(source.TypeDeclNode); ok {
				parentID := ClassIDOf(reg, parentDecl)
				g.SetInnerOf(id, parentID)
				g.SetEnclosing(id, parentID, "", false)
			}
		}

		var flags ids.ClassFlags
		if nested {
			flags |= ids.FlagNested
		}
		if decl.Static() {
			flags |= ids.FlagStatic
		}
		if excludedFile {
			flags |= ids.FlagExcluded
			g.MarkExcludedFile(id)
		}
		if flags != 0 {
			reg.SetClassFlags(id, flags)
		}

		if superRef, ok := decl.SuperclassRef(); ok {
			g.SetImmediateSuper(id, resolveClassRef(reg, binder, cp, superRef))
		} else if !decl.IsInterface() {
			g.SetImmediateSuper(id, TopClassID)
		}
		for _, ifaceRef := range decl.InterfaceRefs() {
			g.AddInterface(id, resolveClassRef(reg, binder, cp, ifaceRef))
		}
	}
	return registered
}

// HasStaticField reports whether decl declares at least one static field,
// used by package methods to decide whether a synthetic static
// initializer-bearing constructor is needed (§4.2 point 5).
func HasStaticField(decl source.TypeDeclNode) bool {
	for _, f := range decl.Fields() {
		if f.Static() {
			return true
		}
	}
	return false
}

// ClassIDOf derives a stable ClassID from a type declaration's token
// range, matching §4.1's "AST-node-stable identity" rule.
func ClassIDOf(reg *ids.Registry, decl source.TypeDeclNode) ids.ClassID {
	r := decl.Range()
	return ids.ClassID(r.File + ":" + decl.Name() + ":" + itoa(r.Offset))
}

// resolveClassRef turns a supertype/interface reference node into a
// ClassID: a library type not backed by any source in this build is
// encoded via the typeref.LibraryPrefix convention (§6), recovered here
// through the resolved binding's qualified name rather than the node's
// own token range, since library types have no declaration to key off of.
func resolveClassRef(reg *ids.Registry, binder source.Binder, cp *classpath.Registry, ref source.Node) ids.ClassID {
	tb, ok := binder.ResolveType(ref)
	if !ok {
		return TopClassID
	}
	return ClassIDForBinding(reg, cp, tb)
}

// ClassIDForBinding applies the same LIB:/binding-hash/qualified-name
// convention as resolveClassRef directly to an already-resolved
// TypeBinding, for callers that reach a binding through some path other
// than a supertype/interface reference node — e.g. the receiver
// expression's resolved type at a call site (§4.4's servicing-method
// lookup anchors class_c on the receiver's own resolved type before CHA
// widens the search across the subclass lattice).
//
// cp, when non-nil, resolves a library type's qualified name through the
// classpath registry's highest-known version before formatting the
// "LIB:" id, so that the id matches whatever Stage 1 used for the same
// library type's reachable-subs bucket. cp may be nil, which keeps the
// plain unversioned "LIB:" encoding.
func ClassIDForBinding(reg *ids.Registry, cp *classpath.Registry, tb source.TypeBinding) ids.ClassID {
	if tb.IsLibrary() {
		if cp != nil {
			return ids.ClassID(cp.LibraryID(tb.QualifiedName()))
		}
		return ids.ClassID("LIB:" + tb.QualifiedName())
	}
	if h := tb.BindingHash(); h != "" {
		if id, ok := reg.ClassForBinding(h); ok {
			return id
		}
		return ids.ClassID(h)
	}
	return ids.ClassID(tb.QualifiedName())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
