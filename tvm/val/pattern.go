// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"regexp"
)

// Pattern is a compiled signature pattern. Equality against strings means
// exact full-string match. A pattern built by conjunction carries several
// compiled expressions which must all match.
type Pattern struct {
	Src   string
	exact []*regexp.Regexp // anchored, all must match
	loose []*regexp.Regexp // unanchored variants, for membership tests
}

func NewPattern(src string) (*Pattern, error) {
	exact, e := regexp.Compile(`\A(?:` + src + `)\z`)
	if e != nil {
		return nil, e
	}
	loose, e := regexp.Compile(`(?:` + src + `)`)
	if e != nil {
		return nil, e
	}
	return &Pattern{src, []*regexp.Regexp{exact}, []*regexp.Regexp{loose}}, nil
}

func (p *Pattern) Copy() Value {
	return p // patterns are immutable once compiled
}

func (p *Pattern) Equals(v Value) bool {
	q, ok := v.(*Pattern)
	return ok && p.Src == q.Src
}

func (*Pattern) Primitive() bool {
	return true
}

// MatchExactly reports whether s as a whole matches the pattern.
func (p *Pattern) MatchExactly(s string) bool {
	for _, re := range p.exact {
		if !re.MatchString(s) {
			return false
		}
	}
	return true
}

// MatchAnywhere reports whether any substring of s matches the pattern.
func (p *Pattern) MatchAnywhere(s string) bool {
	for _, re := range p.loose {
		if !re.MatchString(s) {
			return false
		}
	}
	return true
}

// Conjoin builds the pattern matching strings that both operands match.
func Conjoin(a, b *Pattern) *Pattern {
	return &Pattern{
		Src:   "(" + a.Src + ")&(" + b.Src + ")",
		exact: append(append([]*regexp.Regexp(nil), a.exact...), b.exact...),
		loose: append(append([]*regexp.Regexp(nil), a.loose...), b.loose...),
	}
}

// Disjoin builds the alternation of two patterns. Recompilation fails when
// an operand source is itself a conjunction; that surfaces at runtime.
func Disjoin(a, b *Pattern) (*Pattern, error) {
	return NewPattern("(?:" + a.Src + ")|(?:" + b.Src + ")")
}
