// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package xpr

// Traverse walks the tree depth-first, left to right. pre runs before a
// node's children and may return false to prune the subtree; post runs
// after. Either callback may be nil.
func Traverse(x Expression, pre func(Expression) bool, post func(Expression)) {
	if x == nil {
		return
	}
	if pre != nil && !pre(x) {
		return
	}
	for _, c := range x.Children() {
		Traverse(c, pre, post)
	}
	if post != nil {
		post(x)
	}
}

// Pure re-derives purity over a whole tree, for audits and tests.
// Construction already computes and caches the flag per node.
func Pure(x Expression) bool {
	pure := true
	Traverse(x, func(c Expression) bool {
		if !c.IsPure() {
			pure = false
			return false
		}
		return true
	}, nil)
	return pure
}
