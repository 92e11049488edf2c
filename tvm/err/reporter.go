// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package err

// Reporter collects diagnostics. Static errors accumulate during expression
// construction and surface before any traffic is processed; runtime warnings
// accumulate during live evaluation without stopping the process.
type Reporter struct {
	Static  []Error
	Runtime []Error
}

func (r *Reporter) ReportStatic(e Error) {
	if r == nil {
		return
	}
	r.Static = append(r.Static, e)
}

func (r *Reporter) ReportRuntime(e Error) {
	if r == nil {
		return
	}
	r.Runtime = append(r.Runtime, e)
}

// HasStatic reports whether construction produced any type errors,
// i.e. whether the script should be rejected at load time.
func (r *Reporter) HasStatic() bool {
	return r != nil && len(r.Static) > 0
}

func (r *Reporter) Reset() {
	if r == nil {
		return
	}
	r.Static, r.Runtime = nil, nil
}
