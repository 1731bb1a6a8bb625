package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

// ReportService turns a city lookup into a downloadable workbook.
type ReportService struct {
	workflow  *Workflow
	generator ports.ReportGenerator
	logger    logger.Logger
}

func NewReportService(workflow *Workflow, generator ports.ReportGenerator, log logger.Logger) *ReportService {
	return &ReportService{
		workflow:  workflow,
		generator: generator,
		logger:    log.WithField("component", "report_service"),
	}
}

// Export looks the city up and returns the workbook bytes with a file name.
func (s *ReportService) Export(ctx context.Context, city string) ([]byte, string, error) {
	state, err := s.workflow.LookupByCity(ctx, city)
	if err != nil {
		return nil, "", err
	}
	if state.Current == nil {
		return nil, "", fmt.Errorf("lookup for %q produced no conditions", city)
	}

	data, err := s.generator.Generate(ctx, ports.ReportInput{
		Current:  *state.Current,
		Forecast: state.Forecast,
		Advisory: state.Advisory,
		History:  state.History,
	})
	if err != nil {
		return nil, "", fmt.Errorf("generate report: %w", err)
	}

	name := ReportFileName(state.Current.City, state.UpdatedAt.Format("20060102-1504"))
	s.logger.Infof("Generated report %s (%d bytes)", name, len(data))
	return data, name, nil
}

// ReportFileName builds "weather-<city>-<stamp>.xlsx" with a file-system safe city part.
func ReportFileName(city, stamp string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(city))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "unknown"
	}
	return fmt.Sprintf("weather-%s-%s.xlsx", slug, stamp)
}
