package excel

import (
	"bytes"
	"context"
	"testing"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReportGenerator_Generate(t *testing.T) {
	generator := NewReportGenerator(logger.Nop())

	input := ports.ReportInput{
		Current: entities.CurrentConditions{
			City:        "Cairo",
			Country:     "EG",
			Temperature: 38.5,
			Humidity:    20,
			Description: "clear sky",
		},
		Forecast: []entities.ForecastDay{
			{Date: "2024-07-01", TempMin: 30, TempMax: 39.5, Description: "clear sky", Icon: "01d"},
			{Date: "2024-07-02", TempMin: 29, TempMax: 37, Description: "few clouds"},
		},
		Advisory: entities.Advisory{Active: true, Message: "High temperature alert!"},
		History:  []string{"Cairo", "Paris"},
	}

	data, err := generator.Generate(context.Background(), input)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{CurrentSheet, ForecastSheet}, f.GetSheetList())

	value := func(sheet, axis string) string {
		v, err := f.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Weather Report: Cairo, EG", value(CurrentSheet, "A1"))
	assert.Equal(t, "City", value(CurrentSheet, "A3"))
	assert.Equal(t, "Cairo", value(CurrentSheet, "B3"))
	assert.Equal(t, "38.5", value(CurrentSheet, "B5"))
	assert.Equal(t, "Clear Sky", value(CurrentSheet, "B13"))
	assert.Equal(t, "https://openweathermap.org/img/wn/01d@2x.png", value(CurrentSheet, "B14"))
	assert.Equal(t, "High temperature alert!", value(CurrentSheet, "B15"))
	assert.Equal(t, "Recent searches", value(CurrentSheet, "A17"))
	assert.Equal(t, "Paris", value(CurrentSheet, "A19"))

	assert.Equal(t, "Date", value(ForecastSheet, "A1"))
	assert.Equal(t, "2024-07-01", value(ForecastSheet, "A2"))
	assert.Equal(t, "39.5", value(ForecastSheet, "C2"))
	assert.Equal(t, "Few Clouds", value(ForecastSheet, "D3"))
	assert.Equal(t, "https://openweathermap.org/img/wn/01d@2x.png", value(ForecastSheet, "E3"))
}

func TestReportGenerator_NoAdvisoryNoForecast(t *testing.T) {
	generator := NewReportGenerator(logger.Nop())

	data, err := generator.Generate(context.Background(), ports.ReportInput{
		Current: entities.CurrentConditions{Temperature: 10},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	title, _ := f.GetCellValue(CurrentSheet, "A1")
	assert.Equal(t, "Weather Report: Unknown", title)
	advisory, _ := f.GetCellValue(CurrentSheet, "B15")
	assert.Equal(t, "None", advisory)
	rows, err := f.GetRows(ForecastSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReportGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReportGenerator(logger.Nop()).Generate(ctx, ports.ReportInput{})
	assert.ErrorIs(t, err, context.Canceled)
}
