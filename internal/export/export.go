// Package export выгружает склад и ремонты в xlsx.
package export

import (
	"fmt"
	"time"

	"repair-shop/internal/models"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	StockSheet   = "Склад"
	RepairsSheet = "Ремонты"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const dateLayout = "02.01.2006"

// FileName: имя файла выгрузки вида stock_20240115_1030.xlsx
func FileName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, at.Format("20060102_1504"))
}

// Stock собирает лист склада: остатки, цены и признак «заканчивается»
func Stock(components []models.Component) (*excelize.File, error) {
	headers := []string{"ID", "Название", "Артикул", "Поставщик", "Остаток", "Цена", "Заканчивается"}
	rows := lo.Map(components, func(c models.Component, _ int) []any {
		return []any{c.ID, c.Name, c.PartNumber, c.Supplier, c.Quantity, money(c.UnitPrice), yesNo(c.LowStock())}
	})
	return build(StockSheet, headers, rows, []int{6})
}

// Repairs: лист ремонтов; устройство и клиент должны быть подгружены
func Repairs(repairs []models.Repair) (*excelize.File, error) {
	headers := []string{"ID", "Принят", "Клиент", "Телефон", "Устройство", "Неисправность", "Статус", "Стоимость"}
	rows := lo.Map(repairs, func(r models.Repair, _ int) []any {
		return []any{
			r.ID,
			r.AcceptedAt.Format(dateLayout),
			r.Device.Client.FullName(),
			r.Device.Client.Phone,
			r.Device.Title(),
			r.ProblemDescription,
			r.Status.Label(),
			money(r.TotalCost),
		}
	})
	return build(RepairsSheet, headers, rows, []int{8})
}

func build(sheet string, headers []string, rows [][]any, moneyCols []int) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("export: header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, fmt.Errorf("export: money style: %w", err)
	}

	header := lo.Map(headers, func(h string, _ int) any { return h })
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("export: header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("export: header: %w", err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}

	for _, col := range moneyCols {
		name, _ := excelize.ColumnNumberToName(col)
		if len(rows) > 0 {
			if err := f.SetCellStyle(sheet, name+"2", fmt.Sprintf("%s%d", name, len(rows)+1), moneyStyle); err != nil {
				return nil, fmt.Errorf("export: money column: %w", err)
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheet, "B", lastCol, 20); err != nil {
		return nil, fmt.Errorf("export: col width: %w", err)
	}
	return f, nil
}

// money: в ячейку пишем число, чтобы по колонке работали формулы
func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func yesNo(b bool) string {
	if b {
		return "да"
	}
	return "нет"
}
