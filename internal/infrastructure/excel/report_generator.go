package excel

import (
	"context"
	"fmt"
	"time"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	CurrentSheet  = "Current"
	ForecastSheet = "Forecast"
)

type ReportGenerator struct {
	logger logger.Logger
	now    func() time.Time
}

var _ ports.ReportGenerator = (*ReportGenerator)(nil)

func NewReportGenerator(log logger.Logger) *ReportGenerator {
	return &ReportGenerator{
		logger: log.WithField("component", "excel_generator"),
		now:    time.Now,
	}
}

func (g *ReportGenerator) Generate(ctx context.Context, input ports.ReportInput) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := input.Current.DisplayName()
	g.logger.Infof("Generating weather report for %s", name)

	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Title:       fmt.Sprintf("Weather Report - %s", name),
		Subject:     "Current conditions and 5-day forecast",
		Creator:     "weather-lookup",
		Description: fmt.Sprintf("Weather lookup for %s", name),
		Created:     g.now().UTC().Format(time.RFC3339),
	})

	currentIdx, err := g.createCurrentSheet(f, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create current sheet: %w", err)
	}

	if err := g.createForecastSheet(f, input.Forecast); err != nil {
		return nil, fmt.Errorf("failed to create forecast sheet: %w", err)
	}

	f.SetActiveSheet(currentIdx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel to buffer: %w", err)
	}

	g.logger.Infof("Generated report for %s with %d forecast days", name, len(input.Forecast))
	return buf.Bytes(), nil
}

func (g *ReportGenerator) createCurrentSheet(f *excelize.File, input ports.ReportInput) (int, error) {
	idx, err := f.NewSheet(CurrentSheet)
	if err != nil {
		return 0, err
	}

	c := input.Current
	f.SetCellValue(CurrentSheet, "A1", fmt.Sprintf("Weather Report: %s", c.DisplayName()))
	f.MergeCell(CurrentSheet, "A1", "B1")

	advisory := "None"
	if input.Advisory.Active {
		advisory = input.Advisory.Message
	}

	rows := [][2]interface{}{
		{"City", c.City},
		{"Country", c.Country},
		{"Temperature (°C)", c.Temperature},
		{"Feels like (°C)", c.FeelsLike},
		{"Min (°C)", c.TempMin},
		{"Max (°C)", c.TempMax},
		{"Humidity (%)", c.Humidity},
		{"Pressure (hPa)", c.Pressure},
		{"Wind speed (m/s)", c.WindSpeed},
		{"Cloudiness (%)", c.Cloudiness},
		{"Conditions", entities.TitleCase(c.Description)},
		{"Icon", c.IconURL()},
		{"Advisory", advisory},
	}

	row := 3
	for _, r := range rows {
		f.SetCellValue(CurrentSheet, cell(1, row), r[0])
		f.SetCellValue(CurrentSheet, cell(2, row), r[1])
		row++
	}

	if len(input.History) > 0 {
		row++
		f.SetCellValue(CurrentSheet, cell(1, row), "Recent searches")
		for _, city := range input.History {
			row++
			f.SetCellValue(CurrentSheet, cell(1, row), city)
		}
	}

	f.SetColWidth(CurrentSheet, "A", "A", 20)
	f.SetColWidth(CurrentSheet, "B", "B", 48)
	return idx, nil
}

func (g *ReportGenerator) createForecastSheet(f *excelize.File, days []entities.ForecastDay) error {
	if _, err := f.NewSheet(ForecastSheet); err != nil {
		return err
	}

	headers := []string{"Date", "Min (°C)", "Max (°C)", "Conditions", "Icon"}
	for i, header := range headers {
		f.SetCellValue(ForecastSheet, cell(i+1, 1), header)
	}

	for i, day := range days {
		row := i + 2
		f.SetCellValue(ForecastSheet, cell(1, row), day.Date)
		f.SetCellValue(ForecastSheet, cell(2, row), day.TempMin)
		f.SetCellValue(ForecastSheet, cell(3, row), day.TempMax)
		f.SetCellValue(ForecastSheet, cell(4, row), entities.TitleCase(day.Description))
		f.SetCellValue(ForecastSheet, cell(5, row), day.IconURL())
	}

	f.SetColWidth(ForecastSheet, "A", "C", 14)
	f.SetColWidth(ForecastSheet, "D", "D", 24)
	f.SetColWidth(ForecastSheet, "E", "E", 48)
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
