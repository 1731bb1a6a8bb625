package entities

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultIcon     = "01d"
	UnknownCity     = "Unknown"
	iconURLTemplate = "https://openweathermap.org/img/wn/%s@2x.png"
)

// CurrentConditions is the normalized snapshot of present weather for a location.
// Values the provider omits stay at their zero value.
type CurrentConditions struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Cloudiness  int     `json:"cloudiness"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	WindSpeed   float64 `json:"wind_speed"`
}

// DisplayName is the "City, CC" label shown above the conditions.
func (c CurrentConditions) DisplayName() string {
	city := c.City
	if city == "" {
		city = UnknownCity
	}
	if c.Country == "" {
		return city
	}
	return fmt.Sprintf("%s, %s", city, c.Country)
}

func (c CurrentConditions) IconURL() string {
	return IconURL(c.Icon)
}

// ForecastEntry is one row of the provider's 3-hour forecast list.
type ForecastEntry struct {
	Timestamp   string  `json:"dt_txt"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// ForecastDay is the representative summary for one calendar date.
type ForecastDay struct {
	Date        string  `json:"date"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

func (d ForecastDay) IconURL() string {
	return IconURL(d.Icon)
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return ValidationError{Field: "latitude", Reason: "Latitude must be between -90 and 90"}
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return ValidationError{Field: "longitude", Reason: "Longitude must be between -180 and 180"}
	}
	return nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Advisory is the derived high-temperature signal for the display layer.
type Advisory struct {
	Active  bool   `json:"active"`
	Message string `json:"message,omitempty"`
}

// IconURL interpolates a provider icon code into the provider's image URL.
func IconURL(code string) string {
	if code == "" {
		code = DefaultIcon
	}
	return fmt.Sprintf(iconURLTemplate, code)
}

// TitleCase renders provider descriptions ("light rain") as display text ("Light Rain").
// A Caser keeps state between calls, so each call gets its own.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
