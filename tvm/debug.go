// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package tvm

import (
	"log"

	"github.com/kr/pretty"

	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

// DumpExpr logs the source rendering of a tree followed by its full
// node structure. Debugging aid, not part of evaluation.
func DumpExpr(x xpr.Expression) {
	log.Println(xpr.Describe(x))
	log.Printf("%# v", pretty.Formatter(x))
}

// DumpFrame logs every binding reachable from the frame.
func DumpFrame(f *MapFrame) {
	for s := f; s != nil; s = s.parent {
		log.Printf("%# v", pretty.Formatter(s.slots))
	}
}

// DumpValue renders a value with its full aggregate structure.
func DumpValue(v val.Value) string {
	return pretty.Sprint(v)
}
