package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/rastercade/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available sequences",
	Long:  `Shows a list of all sequences registered in rastercade.`,
	Run:   runList,
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// newTable returns a table in the CLI style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func runList(_ *cobra.Command, _ []string) {
	infos := registry.List()

	if len(infos) == 0 {
		fmt.Println("No sequences available.")
		return
	}

	t := newTable("ID", "Title", "Description")
	for _, info := range infos {
		t.Row(info.ID, info.Title, info.Description)
	}

	fmt.Println("Available sequences:")
	fmt.Println(t)
	fmt.Println()
	fmt.Println("Run a sequence with: rastercade run <id>")
}
