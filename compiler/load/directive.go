package load

import (
	"go/ast"
	"strings"
)

// DirectivePrefix starts every attribute directive comment.
const DirectivePrefix = "+spiderly:"

// ParseDirective parses one comment line. It reports false for lines that
// are not directives.
//
//	// +spiderly:DisplayName
//	// +spiderly:UIControlType=Dropdown
//	// +spiderly:ProjectToDTO=RoleName=Role.Name
func ParseDirective(line string) (AttributeTag, bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "//")
	line = strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(line, DirectivePrefix)
	if !ok {
		return AttributeTag{}, false
	}
	name, value, _ := strings.Cut(rest, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return AttributeTag{}, false
	}
	return AttributeTag{Name: name, Value: strings.TrimSpace(value)}, true
}

// Directives collects the directives of the given comment groups in order.
// Nil groups are ignored.
func Directives(groups ...*ast.CommentGroup) Attributes {
	var attrs Attributes
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if t, ok := ParseDirective(c.Text); ok {
				attrs = append(attrs, t)
			}
		}
	}
	return attrs
}
