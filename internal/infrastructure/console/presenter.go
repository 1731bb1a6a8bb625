package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/application"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

// Presenter prints workflow effects as plain text for the command line.
type Presenter struct {
	mu  sync.Mutex
	out io.Writer
}

var _ application.Presenter = (*Presenter)(nil)

func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

func (p *Presenter) Render(effects []application.Effect) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range effects {
		switch e.Kind {
		case application.EffectShowLoading:
			fmt.Fprintf(p.out, "Looking up %s...\n", e.Message)
		case application.EffectShowError:
			fmt.Fprintf(p.out, "❌ %s\n", e.Message)
		case application.EffectShowConditions:
			if e.Conditions != nil {
				p.writeConditions(*e.Conditions)
			}
		case application.EffectShowAdvisory:
			fmt.Fprintf(p.out, "⚠️  %s\n", e.Message)
		case application.EffectShowForecast:
			p.writeForecast(e.Forecast)
		case application.EffectUpdateHistory:
			p.writeHistory(e.History)
		}
	}
}

// ShowHistory prints the recent searches outside of a lookup.
func (p *Presenter) ShowHistory(history []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(history) == 0 {
		fmt.Fprintln(p.out, "No recent searches")
		return
	}
	p.writeHistory(history)
}

func (p *Presenter) writeConditions(c entities.CurrentConditions) {
	fmt.Fprintf(p.out, "\n%s\n", c.DisplayName())
	if c.Description != "" {
		fmt.Fprintf(p.out, "  %s\n", entities.TitleCase(c.Description))
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Temperature:\t%.1f°C\n", c.Temperature)
	fmt.Fprintf(w, "  Feels like:\t%.1f°C\n", c.FeelsLike)
	fmt.Fprintf(w, "  Min / Max:\t%.1f°C / %.1f°C\n", c.TempMin, c.TempMax)
	fmt.Fprintf(w, "  Humidity:\t%d%%\n", c.Humidity)
	fmt.Fprintf(w, "  Pressure:\t%d hPa\n", c.Pressure)
	fmt.Fprintf(w, "  Wind speed:\t%.1f m/s\n", c.WindSpeed)
	fmt.Fprintf(w, "  Cloudiness:\t%d%%\n", c.Cloudiness)
	fmt.Fprintf(w, "  Icon:\t%s\n", c.IconURL())
	w.Flush()
}

func (p *Presenter) writeForecast(days []entities.ForecastDay) {
	fmt.Fprintln(p.out, "\n5-Day Forecast")
	if len(days) == 0 {
		fmt.Fprintln(p.out, "  no forecast available")
		return
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	for _, d := range days {
		fmt.Fprintf(w, "  %s\t%.1f°C / %.1f°C\t%s\n", d.Date, d.TempMin, d.TempMax, entities.TitleCase(d.Description))
	}
	w.Flush()
}

func (p *Presenter) writeHistory(history []string) {
	fmt.Fprintf(p.out, "\nRecent Searches: %s\n", strings.Join(history, ", "))
}

// LogPresenter reports effects through the logger. Used by the API server,
// where clients read results from responses instead.
type LogPresenter struct {
	logger logger.Logger
}

var _ application.Presenter = (*LogPresenter)(nil)

func NewLogPresenter(log logger.Logger) *LogPresenter {
	return &LogPresenter{logger: log.WithField("component", "presenter")}
}

func (p *LogPresenter) Render(effects []application.Effect) {
	if !logger.IsDebugEnabled(p.logger) {
		return
	}
	for _, e := range effects {
		fields := map[string]interface{}{"effect": string(e.Kind)}
		if e.Message != "" {
			fields["message"] = e.Message
		}
		if e.Conditions != nil {
			fields["city"] = e.Conditions.DisplayName()
		}
		if e.Forecast != nil {
			fields["forecast_days"] = len(e.Forecast)
		}
		if e.History != nil {
			fields["history"] = e.History
		}
		p.logger.WithFields(fields).Debug("Display effect")
	}
}
