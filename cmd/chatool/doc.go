/*
The chatool command builds a whole-program class-hierarchy-analysis call
graph for a Java-like OO program and reports its shape.

	Usage: chatool [flags]

chatool loads a program through an embedder-supplied source provider,
binder, and type calculator (chatool does not parse or type-check Java
itself — see internal/source for the three interfaces it expects), then
runs the four-stage CHA pipeline: class/field skeleton construction,
inheritance closure, method identity and inner/outer linking, and
call-site resolution. The result is a bidirectional method-level call
graph plus an auxiliary qualified-name graph for export.

The -classpath flag registers one or more name@version library
classpath entries (repeatable), consumed by internal/classpath to
resolve duplicate library types to their highest version.

The -workers flag overrides the default GOMAXPROCS-1 worker pool size
used by each parallel stage.

Since no Java parser/binder ships with this module, -demo runs the
pipeline against a tiny in-memory fixture program instead of reading
real source, to exercise and report on the four stages end to end.
*/
package main
