package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	breaktimev1 "github.com/vladislavdragonenkov/breaktime/api/breaktime/v1"
)

var (
	accent  = lipgloss.Color("#D97706")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(dim)
	passStyle   = lipgloss.NewStyle().Foreground(success).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderItems(w io.Writer, items []string) {
	t := newTable("#", "Item")
	for i, item := range items {
		t.Row(strconv.Itoa(i+1), item)
	}
	fmt.Fprintln(w, t.String())
}

func renderSummary(w io.Writer, summary *breaktimev1.OrderSummary) {
	order := summary.GetOrder()
	if order == nil {
		fmt.Fprintln(w, dimStyle.Render("empty order"))
		return
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Order #%d", order.Id)),
		dimStyle.Render(fmt.Sprintf("%s, %d items", order.CreatedAt, order.TotalItems)))

	t := newTable("Line", "Item", "Qty")
	for _, item := range summary.GetItems() {
		t.Row(strconv.FormatInt(item.Id, 10), item.ItemName, strconv.Itoa(int(item.Quantity)))
	}
	fmt.Fprintln(w, t.String())
}

func renderOrders(w io.Writer, summaries []*breaktimev1.OrderSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no orders yet"))
		return
	}

	t := newTable("Order", "Created", "Total", "Items")
	for _, summary := range summaries {
		order := summary.GetOrder()
		if order == nil {
			continue
		}
		t.Row(
			strconv.FormatInt(order.Id, 10),
			order.CreatedAt,
			strconv.Itoa(int(order.TotalItems)),
			describeItems(summary.GetItems()),
		)
	}
	fmt.Fprintln(w, t.String())
}

// describeItems записывает позиции компактно: "Tea x2, Coffee x1". Пустой список даёт "-".
func describeItems(items []*breaktimev1.OrderLineItem) string {
	if len(items) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", item.ItemName, item.Quantity))
	}
	return strings.Join(parts, ", ")
}

func renderValid(w io.Writer, valid bool) {
	if valid {
		fmt.Fprintln(w, passStyle.Render("valid"))
		return
	}
	fmt.Fprintln(w, failStyle.Render("invalid"))
}
