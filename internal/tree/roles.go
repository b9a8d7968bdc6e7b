package tree

import "strings"

// RoleMap maps macOS AXRole values to compact role codes.
var RoleMap = map[string]string{
	"AXApplication": "app",
	"AXButton":      "btn",
	"AXStaticText":  "txt",
	"AXLink":        "lnk",
	"AXImage":       "img",
	"AXTextField":   "input",
	"AXTextArea":    "input",
	"AXCheckBox":    "chk",
	"AXSwitch":      "toggle",
	"AXRadioButton": "radio",
	"AXMenu":        "menu",
	"AXMenuBar":     "menu",
	"AXMenuItem":    "menuitem",
	"AXTabGroup":    "tab",
	"AXList":        "list",
	"AXTable":       "list",
	"AXRow":         "row",
	"AXCell":        "cell",
	"AXGroup":       "group",
	"AXSplitGroup":  "group",
	"AXScrollArea":  "scroll",
	"AXToolbar":     "toolbar",
	"AXWebArea":     "web",
	"AXWindow":      "window",
}

// roleAliases accepts the spellings remote clients use in queries.
var roleAliases = map[string]string{
	"text":        "txt",
	"statictext":  "txt",
	"button":      "btn",
	"link":        "lnk",
	"image":       "img",
	"textfield":   "input",
	"checkbox":    "chk",
	"radiobutton": "radio",
}

// MapRole converts a raw accessibility role to a compact code.
func MapRole(axRole string) string {
	if short, ok := RoleMap[axRole]; ok {
		return short
	}
	if axRole == "" {
		return "other"
	}
	return strings.ToLower(strings.TrimPrefix(axRole, "AX"))
}

// NormalizeRole canonicalizes a caller-supplied role query so that "text",
// "AXStaticText", and "txt" all match the same nodes.
func NormalizeRole(q string) string {
	if short, ok := RoleMap[q]; ok {
		return short
	}
	lq := strings.ToLower(q)
	if short, ok := roleAliases[lq]; ok {
		return short
	}
	return lq
}
