package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lumenrobotics/go-aria/internal/httpc"
	"github.com/lumenrobotics/go-aria/internal/log"
)

// weatherTimeout bounds the deterministic network tools.
const weatherTimeout = 5 * time.Second

const openWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// getWeather calls OpenWeatherMap and phrases the result for speech.
func (r *Registry) getWeather(ctx context.Context, args map[string]any) Result {
	location, _ := args["location"].(string)
	if location == "" {
		location = "New York"
	}
	units, _ := args["units"].(string)
	if units == "" {
		units = "fahrenheit"
	}

	if r.weatherKey == "" {
		log.Warn("weather API key not configured")
		return ErrorResult("Weather service is not configured. Please set OPENWEATHER_API_KEY.")
	}

	apiUnits, symbol := "imperial", "°F"
	if units == "celsius" {
		apiUnits, symbol = "metric", "°C"
	}

	ctx, cancel := context.WithTimeout(ctx, weatherTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", r.weatherKey)
	q.Set("units", apiUnits)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openWeatherURL+"?"+q.Encode(), nil)
	if err != nil {
		return ErrorResult("I'm having trouble getting the weather right now.")
	}
	resp, err := httpc.Do(req)
	if err != nil {
		log.Error("weather API call failed", "location", location, "error", err)
		return ErrorResult("I'm having trouble getting the weather right now.")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		log.Warn("weather location not found", "location", location)
		return ErrorResult(fmt.Sprintf("Sorry, I couldn't find weather information for %s.", location))
	default:
		log.Warn("weather API error status", "status", resp.StatusCode)
		return ErrorResult("Weather service is temporarily unavailable.")
	}

	var data struct {
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil || len(data.Weather) == 0 {
		log.Error("weather API response malformed", "error", err)
		return ErrorResult("I'm having trouble getting the weather right now.")
	}

	log.Info("weather retrieved",
		"location", location, "temp", data.Main.Temp, "conditions", data.Weather[0].Description)
	return TextResult(fmt.Sprintf(
		"The weather in %s is %s with a temperature of %.0f%s, feels like %.0f%s. Humidity is %d%%.",
		location, data.Weather[0].Description,
		data.Main.Temp, symbol, data.Main.FeelsLike, symbol, data.Main.Humidity))
}

// getTime reports the current time in a timezone, phrased for speech.
func (r *Registry) getTime(ctx context.Context, args map[string]any) Result {
	timezone, _ := args["timezone"].(string)
	if timezone == "" {
		timezone = "America/New_York"
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warn("unknown timezone", "timezone", timezone)
		return ErrorResult(fmt.Sprintf("Sorry, I don't recognize the timezone '%s'.", timezone))
	}

	now := r.now().In(loc)
	return TextResult(fmt.Sprintf("The current time in %s is %s on %s.",
		timezone, now.Format("03:04 PM"), now.Format("Monday, January 02, 2006")))
}

// calculate evaluates a restricted arithmetic expression. The character-set
// gate is a security boundary: anything outside it is rejected outright,
// never evaluated.
func (r *Registry) calculate(ctx context.Context, args map[string]any) Result {
	expression, _ := args["expression"].(string)
	if expression == "" {
		return ErrorResult("No expression provided")
	}

	if !safeExpression(expression) {
		log.Warn("invalid characters in expression", "expression", expression)
		return ErrorResult("I can only calculate expressions with numbers and basic operators (+, -, *, /).")
	}

	value, err := evalExpression(expression)
	switch {
	case err == errDivideByZero:
		log.Warn("division by zero attempted", "expression", expression)
		return ErrorResult("I can't divide by zero.")
	case err != nil:
		log.Warn("calculation failed", "expression", expression, "error", err)
		return ErrorResult("I couldn't calculate that expression.")
	}

	log.Info("calculation result", "expression", expression, "result", value)
	return TextResult(fmt.Sprintf("The answer is %s.", formatNumber(value)))
}

// confirmAction phrases a confirmation prompt the voice channel will speak.
func (r *Registry) confirmAction(ctx context.Context, args map[string]any) Result {
	action, _ := args["action"].(string)
	if action == "" {
		return ErrorResult("No action provided to confirm")
	}
	details, _ := args["details"].(string)

	prompt := fmt.Sprintf("Just to confirm, you'd like me to %s", action)
	if details != "" {
		prompt += ". " + details
	}
	prompt += ". Is that correct? Please say yes or no."
	return TextResult(prompt)
}
