package vocab

import "fmt"

// Role is the semantic meaning of a task identifier within one workflow
// version.
type Role int

const (
	RoleUnknown Role = iota
	RoleControl
	RoleHeading
	RoleSubject
	RolePages
	RoleComment
	RoleSkip

	// Name list panel.
	RoleTitleDropdown
	RoleTitleText
	RoleForename
	RoleSurname
	RolePositionDropdown
	RolePositionText
	RoleNameCombo

	// Minutes front matter and agenda items.
	RoleAttendeeChecklist
	RoleAttendeeText
	RoleItemChecklist
	RoleItemCombo
	RoleItemNumberDropdown
	RoleItemNumberText
	RoleItemTitle
	RoleItemText
	RoleItemResolution
	RoleItemClassification

	// Table accordion.
	RoleTableHeader
	RoleTableTitle
	RoleTableHeading
	RoleTableRow
	RoleTableColumns
	RoleTableCell
	RoleTableControl

	// Underlining.
	RoleStrokes
)

var roleNames = map[Role]string{
	RoleUnknown:            "unknown",
	RoleControl:            "control",
	RoleHeading:            "heading",
	RoleSubject:            "subject",
	RolePages:              "pages",
	RoleComment:            "comment",
	RoleSkip:               "skip",
	RoleTitleDropdown:      "title_dropdown",
	RoleTitleText:          "title_text",
	RoleForename:           "forename",
	RoleSurname:            "surname",
	RolePositionDropdown:   "position_dropdown",
	RolePositionText:       "position_text",
	RoleNameCombo:          "name_combo",
	RoleAttendeeChecklist:  "attendee_checklist",
	RoleAttendeeText:       "attendee_text",
	RoleItemChecklist:      "item_checklist",
	RoleItemCombo:          "item_combo",
	RoleItemNumberDropdown: "item_number_dropdown",
	RoleItemNumberText:     "item_number_text",
	RoleItemTitle:          "item_title",
	RoleItemText:           "item_text",
	RoleItemResolution:     "item_resolution",
	RoleItemClassification: "item_classification",
	RoleTableHeader:        "table_header",
	RoleTableTitle:         "table_title",
	RoleTableHeading:       "table_heading",
	RoleTableRow:           "table_row",
	RoleTableColumns:       "table_columns",
	RoleTableCell:          "table_cell",
	RoleTableControl:       "table_control",
	RoleStrokes:            "strokes",
}

var rolesByName = func() map[string]Role {
	m := make(map[string]Role, len(roleNames))
	for r, name := range roleNames {
		m[name] = r
	}
	return m
}()

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// IsDropdown reports whether r is answered with exactly one selection.
func (r Role) IsDropdown() bool {
	switch r {
	case RoleTitleDropdown, RolePositionDropdown, RoleItemNumberDropdown:
		return true
	}
	return false
}

// ParseRole maps a registry role name to its Role.
func ParseRole(name string) (Role, error) {
	r, ok := rolesByName[name]
	if !ok || r == RoleUnknown {
		return RoleUnknown, fmt.Errorf("unknown role %q", name)
	}
	return r, nil
}

// Kind selects the page decoder for a control answer.
type Kind string

const (
	KindBlank      Kind = "blank"
	KindIndexOther Kind = "index-other"
	KindIndexNames Kind = "index-names"
	KindMinutes    Kind = "minutes"
	KindUnderline  Kind = "underline"
)

func parseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBlank, KindIndexOther, KindIndexNames, KindMinutes, KindUnderline:
		return k, nil
	}
	return "", fmt.Errorf("unknown page kind %q", s)
}

// TableAction is the effect of a table-accordion control answer.
type TableAction string

const (
	TableMoreRows    TableAction = "row"
	TableMoreColumns TableAction = "column"
	TableFlush       TableAction = "flush"
)

func parseTableAction(s string) (TableAction, error) {
	switch a := TableAction(s); a {
	case TableMoreRows, TableMoreColumns, TableFlush:
		return a, nil
	}
	return "", fmt.Errorf("unknown table action %q", s)
}
