package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/caevv/storewatch/internal/report"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <report.csv>",
	Short: "Summarize a downloaded report",
	Long: `Check that a file is a well-formed report and print its totals and
the stores with the most downtime over the last week.

Example:
  storewatch inspect report.csv --top 5`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().Int("top", 10, "Number of stores with the most weekly downtime to list")
}

// Column positions in report.Header.
const (
	colStore = iota
	colUpHour
	colDownHour
	colUpDay
	colDownDay
	colUpWeek
	colDownWeek
)

// reportSummary totals a report's columns.
type reportSummary struct {
	Stores int
	// Totals is indexed by column position; the store column stays zero.
	Totals [7]decimal.Decimal
	// Worst holds data lines sorted by descending weekly downtime.
	Worst [][]string
}

func runInspect(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	lines, err := report.Read(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	sum, err := summarize(lines, top)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d stores\n\n", args[0], sum.Stores)

	totals := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WINDOW", "UPTIME", "DOWNTIME").
		Row("last hour (min)", sum.Totals[colUpHour].String(), sum.Totals[colDownHour].String()).
		Row("last day (h)", sum.Totals[colUpDay].StringFixed(2), sum.Totals[colDownDay].StringFixed(2)).
		Row("last week (h)", sum.Totals[colUpWeek].StringFixed(2), sum.Totals[colDownWeek].StringFixed(2))
	fmt.Fprintln(out, totals.String())

	if len(sum.Worst) > 0 {
		worst := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "STORE", "DOWN WEEK (h)", "UP WEEK (h)")
		for i, line := range sum.Worst {
			worst.Row(strconv.Itoa(i+1), line[colStore], line[colDownWeek], line[colUpWeek])
		}
		fmt.Fprintf(out, "\nMost weekly downtime:\n%s\n", worst.String())
	}
	return nil
}

// summarize totals every numeric column and keeps the top lines by weekly
// downtime, ties broken by store ID.
func summarize(lines [][]string, top int) (reportSummary, error) {
	sum := reportSummary{Stores: len(lines)}
	weekly := make([]decimal.Decimal, len(lines))
	for i, line := range lines {
		for col := colUpHour; col <= colDownWeek; col++ {
			v, err := decimal.NewFromString(line[col])
			if err != nil {
				return reportSummary{}, fmt.Errorf("line %d, %s: %w", i+2, report.Header[col], err)
			}
			sum.Totals[col] = sum.Totals[col].Add(v)
			if col == colDownWeek {
				weekly[i] = v
			}
		}
	}

	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		wa, wb := weekly[order[a]], weekly[order[b]]
		if !wa.Equal(wb) {
			return wa.GreaterThan(wb)
		}
		return lines[order[a]][colStore] < lines[order[b]][colStore]
	})
	for _, i := range order {
		if len(sum.Worst) >= top || weekly[i].IsZero() {
			break
		}
		sum.Worst = append(sum.Worst, lines[i])
	}
	return sum, nil
}
