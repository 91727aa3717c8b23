package syncer

import (
	"encoding/json"

	"go.uber.org/zap"

	"maitred/internal/models"
	"maitred/internal/remote"
)

// Report describes what a snapshot parse kept and what it skipped.
type Report struct {
	Tables        int
	Lines         int
	DroppedTables int
	DroppedLines  int
}

// ParseSnapshot converts raw backend tables into order lines. A table without
// a valid tableNum, or whose lastOrder is not an array, is skipped whole. A
// line missing its name, quantity or price is skipped on its own. A missing
// lastOrder is read as a table with no lines.
func ParseSnapshot(raw []json.RawMessage, log *zap.Logger) ([]models.OrderLine, Report) {
	var (
		lines  []models.OrderLine
		report Report
	)

	for i, entry := range raw {
		var table remote.TableRecord
		if err := json.Unmarshal(entry, &table); err != nil {
			log.Debug("Skipping undecodable table", zap.Int("index", i), zap.Error(err))
			report.DroppedTables++
			continue
		}
		if table.TableNum == nil || *table.TableNum < 1 {
			log.Debug("Skipping table without a valid number", zap.Int("index", i))
			report.DroppedTables++
			continue
		}

		report.Tables++
		num := *table.TableNum
		for j, rawLine := range table.LastOrder {
			line, ok := parseLine(num, rawLine)
			if !ok {
				log.Debug("Skipping malformed order line", zap.Int("table", num), zap.Int("index", j))
				report.DroppedLines++
				continue
			}
			lines = append(lines, line)
			report.Lines++
		}
	}

	return lines, report
}

func parseLine(table int, raw json.RawMessage) (models.OrderLine, bool) {
	var record remote.LineRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.OrderLine{}, false
	}
	if record.Name == nil || record.Quantity == nil || record.Price == nil {
		return models.OrderLine{}, false
	}
	if *record.Name == "" || *record.Quantity <= 0 || *record.Price < 0 {
		return models.OrderLine{}, false
	}

	line := models.OrderLine{
		TableNumber: table,
		ItemName:    *record.Name,
		Quantity:    *record.Quantity,
		UnitPrice:   *record.Price,
	}
	if record.MenuID != nil {
		line.MenuItemID = *record.MenuID
	}
	return line, true
}
