package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Gammanik/media-edge/internal/group"
)

// renderGroups рисует таблицу групп с итоговой строкой
func renderGroups(ranges []group.Range) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Group", "Start", "End", "Count"})

	total, maxID := 0, 0
	for _, r := range ranges {
		tw.AppendRow(table.Row{r.GroupID, r.StartID, r.EndID, r.Count()})
		total += r.Count()
		maxID = max(maxID, r.EndID)
	}
	tw.AppendFooter(table.Row{"", "", "max " + strconv.Itoa(maxID), total})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	return tw.Render()
}

// renderPairs рисует двухколоночную таблицу ключ-значение
func renderPairs(rows [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	return tw.Render()
}
