package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/Tender-Intelligence/internal/extraction/fieldspec"
)

// FieldList is the CLI projection of the field definition table.
type FieldList struct {
	Fields []FieldInfo `json:"fields"`
}

// FieldInfo describes one canonical field.
type FieldInfo struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Rules int    `json:"rules"`
}

// TableHeaders implements the table output contract.
func (l *FieldList) TableHeaders() []string {
	return []string{"FIELD", "KIND", "RULES"}
}

// TableRows implements the table output contract.
func (l *FieldList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Fields))
	for _, f := range l.Fields {
		rows = append(rows, []string{f.Name, f.Kind, strconv.Itoa(f.Rules)})
	}
	return rows
}

// NewFieldsCmd creates the "fields" subcommand listing the canonical field
// catalog and the pattern count behind each field.
func NewFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the canonical extraction fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := fieldspec.NewTable(nil)

			out := &FieldList{}
			for _, def := range table.Definitions() {
				out.Fields = append(out.Fields, FieldInfo{
					Name:  def.Name,
					Kind:  string(def.Kind),
					Rules: len(def.Rules),
				})
			}
			return PrintResult(cmd, out)
		},
	}
}

//Personal.AI order the ending
