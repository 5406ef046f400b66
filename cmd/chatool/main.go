package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/gocha/chatool/internal/cha"
	"github.com/gocha/chatool/internal/classpath"
	"github.com/gocha/chatool/internal/diag"
	"github.com/gocha/chatool/internal/progress"
)

//go:embed doc.go
var doc string

type classpathFlag []classpath.Entry

func (f *classpathFlag) String() string {
	parts := make([]string, len(*f))
	for i, e := range *f {
		parts[i] = e.QualifiedName + "@" + e.Version
	}
	return strings.Join(parts, ",")
}

func (f *classpathFlag) Set(value string) error {
	name, version, ok := strings.Cut(value, "@")
	if !ok {
		return fmt.Errorf("invalid -classpath entry %q: want name@version", value)
	}
	*f = append(*f, classpath.Entry{QualifiedName: name, Version: version})
	return nil
}

var (
	workersFlag    = flag.Int("workers", 0, "worker pool size per stage (default: GOMAXPROCS-1)")
	timeoutFlag    = flag.Duration("timeout", 0, "abort the run after this long (0: no timeout)")
	demoFlag       = flag.Bool("demo", false, "run against the built-in fixture program instead of real source")
	classpathEntry classpathFlag
)

func usage() {
	_, after, _ := strings.Cut(doc, "/*\n")
	body, _, _ := strings.Cut(after, "*/")
	io.WriteString(flag.CommandLine.Output(), body+"\nFlags:\n\n")
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("chatool: ")
	log.SetFlags(0)

	flag.Var(&classpathEntry, "classpath", "register a name@version library classpath entry (repeatable)")
	flag.Usage = usage
	flag.Parse()

	if !*demoFlag {
		usage()
		log.Fatalf("no source.SourceFileProvider is built in; rerun with -demo, or embed this module with your own provider/binder/type-calculator")
	}

	reporter := progress.Stderr()

	cp := classpath.NewRegistry()
	for _, e := range classpathEntry {
		cp.Register(e)
		reporter.Report(fmt.Sprintf("classpath: registered %s", cp.LibraryID(e.QualifiedName)))
	}

	ctx := context.Background()
	if *timeoutFlag > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeoutFlag)
		defer cancel()
	}

	workers := *workersFlag
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0) - 1
	}
	ac := cha.NewContextWithWorkers(reporter, workers)

	provider, binder, types := buildDemoProgram()

	start := time.Now()
	if err := ac.Run(ctx, provider, binder, types, nil, cp); err != nil {
		if ctx.Err() != nil {
			log.Fatalf("%v", diag.ConfigErrorf("run did not finish before its deadline: %v", err))
		}
		log.Fatalf("%v", err)
	}

	reporter.Report(fmt.Sprintf("done in %s, %d workers", time.Since(start), ac.Workers()))
	fmt.Printf("call graph edges: %d\n", ac.CallGraph.Size())
	for _, root := range ac.CallGraph.RootMethods() {
		if b, ok := ac.Methods.Bundle(root); ok {
			fmt.Printf("root: %s\n", b.Identity.Name)
		}
	}
	for caller, callees := range ac.CallGraph.ExportQualifiedNames() {
		for _, callee := range callees {
			fmt.Printf("%s -> %s\n", caller, callee)
		}
	}
}
