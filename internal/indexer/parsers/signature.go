package parsers

import (
	"strings"
)

// SignatureStyle selects how a function's return type is rendered.
type SignatureStyle int

const (
	// StylePython renders "name(params) -> ret" and "-> None" when absent.
	StylePython SignatureStyle = iota
	// StyleColon renders "name(params): ret", omitting an absent return.
	StyleColon
	// StyleArrow renders "name(params) -> ret", omitting an absent return.
	StyleArrow
	// StyleSpace renders "name(params) ret", omitting an absent return.
	StyleSpace
	// StyleBare renders "name(params)" with no return.
	StyleBare
	// StyleStructured keeps the parts apart (C# methods).
	StyleStructured
)

// Signature holds the raw parts of a function signature.
type Signature struct {
	Decorators []string
	Name       string
	Parameters string
	ReturnType string
}

// Render synthesizes the display form of the signature. Whitespace is
// collapsed and decorators are prepended in source order.
func (s Signature) Render(style SignatureStyle) string {
	var b strings.Builder

	for _, d := range s.Decorators {
		if d = collapseWhitespace(d); d != "" {
			b.WriteString(d)
			b.WriteByte(' ')
		}
	}

	b.WriteString(collapseWhitespace(s.Name))
	b.WriteString(normalizeParameters(s.Parameters))

	ret := normalizeReturnType(s.ReturnType)
	switch style {
	case StylePython:
		if ret == "" {
			ret = "None"
		}
		b.WriteString(" -> ")
		b.WriteString(ret)
	case StyleColon:
		if ret != "" {
			b.WriteString(": ")
			b.WriteString(ret)
		}
	case StyleArrow:
		if ret != "" {
			b.WriteString(" -> ")
			b.WriteString(ret)
		}
	case StyleSpace:
		if ret != "" {
			b.WriteByte(' ')
			b.WriteString(ret)
		}
	}

	return b.String()
}

// normalizeParameters collapses the parameter list text and makes sure it is
// parenthesized (ruby allows bare parameter lists).
func normalizeParameters(params string) string {
	params = collapseWhitespace(params)
	if params == "" {
		return "()"
	}
	if !strings.HasPrefix(params, "(") {
		return "(" + params + ")"
	}
	return params
}

// normalizeReturnType strips annotation punctuation that some grammars keep
// inside the return type node (": T" in TypeScript, "-> T" in others).
func normalizeReturnType(ret string) string {
	ret = collapseWhitespace(ret)
	ret = strings.TrimPrefix(ret, "->")
	ret = strings.TrimPrefix(ret, ":")
	return strings.TrimSpace(ret)
}
