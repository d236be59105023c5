// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// opgrad_dump reads a forward operator graph encoded as JSON (see
// opdesc.MarshalOp for the format), synthesizes its backward graph and
// prints it.
//
//	opgrad_dump [flags] [graph.json]
//
// With no file argument the graph is read from stdin. The stock gradient
// recipes are pre-registered; programs with custom operator sets should
// build their own tool on top of the backward package.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomlx/opgrad/backward"
	"github.com/gomlx/opgrad/opdesc"
	"github.com/gomlx/opgrad/ui/optree"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	_ "github.com/gomlx/opgrad/gradients/stdgrads"
)

var (
	flagNoGrad = flag.String("no_grad", "", "Comma-separated forward variable names whose "+
		"gradients are not computed.")
	flagFlat = flag.Bool("flat", false, "Treat the input as a flat block: the root must be a "+
		"composite of leaves, and the gradient descriptors are appended to it.")
	flagJSON    = flag.Bool("json", false, "Print the result as JSON instead of a rendered tree.")
	flagSummary = flag.Bool("summary", false, "Also print a table of operator counts per kind.")
	flagDepth   = flag.Int("max_depth", backward.MaxStepNetDepth, "Recursion guard: maximum nesting "+
		"depth, composites and step-nets alike, before the graph is considered cyclic.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) > 1 {
		klog.Errorf("At most one graph file accepted. See 'opgrad_dump -help'.")
		os.Exit(1)
	}
	reader := io.Reader(os.Stdin)
	if len(args) == 1 {
		file := must.M1(os.Open(args[0]))
		defer func() { must.M(file.Close()) }()
		reader = file
	}
	forward := must.M1(opdesc.UnmarshalOp(must.M1(io.ReadAll(reader))))

	var noGradVars []string
	if *flagNoGrad != "" {
		noGradVars = strings.Split(*flagNoGrad, ",")
	}
	backward.MaxStepNetDepth = *flagDepth

	var result opdesc.Op
	if *flagFlat {
		result = flatBackward(forward, noGradVars)
	} else {
		var err error
		result, err = backward.Backward(forward, noGradVars...)
		if err != nil {
			klog.Errorf("Backward synthesis failed: %+v", err)
			os.Exit(1)
		}
	}

	if *flagJSON {
		fmt.Println(string(must.M1(opdesc.MarshalOp(result))))
	} else {
		fmt.Println(optree.Render(result))
	}
	if *flagSummary {
		fmt.Println(optree.Summary(result))
	}
}

// flatBackward runs the flat variant: the root composite's leaves become a
// block, gradients are appended to it, and the result is re-wrapped in a
// composite for printing.
func flatBackward(forward opdesc.Op, noGradVars []string) opdesc.Op {
	net, ok := forward.(*opdesc.Net)
	if !ok {
		klog.Errorf("-flat requires the root to be a composite of leaves, got %q.", forward.Type())
		os.Exit(1)
	}
	block := opdesc.NewBlock()
	for _, child := range net.Children() {
		op, ok := child.(*opdesc.OpDesc)
		if !ok {
			klog.Errorf("-flat requires the root to be a composite of leaves, child %q is a composite.", child.Type())
			os.Exit(1)
		}
		block.Append(op)
	}
	if err := backward.AppendBackward(block, noGradVars...); err != nil {
		klog.Errorf("Backward synthesis failed: %+v", err)
		os.Exit(1)
	}
	result := opdesc.NewNet()
	for _, op := range block.Ops() {
		result.Append(op)
	}
	return result
}
