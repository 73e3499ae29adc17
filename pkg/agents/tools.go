package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/lumenrobotics/go-aria/internal/httpc"
	"github.com/lumenrobotics/go-aria/pkg/claude"
)

// toolTimeout bounds each specialist tool's network call.
const toolTimeout = 5 * time.Second

// ThinkTool gives an agent a scratchpad for intermediate reasoning.
// The thought is logged and echoed back so it lands in the conversation.
func ThinkTool() Tool {
	return Tool{
		Def: claude.ToolDefinition{
			Name:        "think",
			Description: "Record an intermediate reasoning step before acting. Use this to break down complex tasks.",
			Schema: claude.Schema{
				Properties: map[string]claude.Property{
					"thought": {Type: "string", Description: "The reasoning step to record"},
				},
				Required: []string{"thought"},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			thought, _ := args["thought"].(string)
			if thought == "" {
				return "", fmt.Errorf("agents: think: empty thought")
			}
			return "Thought recorded: " + thought, nil
		},
	}
}

var htmlTags = regexp.MustCompile(`<[^>]+>`)

// WikipediaTool searches Wikipedia and returns the top result snippets.
// Used by the research specialist for established facts and background.
func WikipediaTool() Tool {
	return Tool{
		Def: claude.ToolDefinition{
			Name:        "wikipedia_search",
			Description: "Search Wikipedia for established facts and background on a topic. Returns the top matching article snippets.",
			Schema: claude.Schema{
				Properties: map[string]claude.Property{
					"query": {Type: "string", Description: "Search terms"},
				},
				Required: []string{"query"},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return "", fmt.Errorf("agents: wikipedia_search: empty query")
			}
			return wikipediaSearch(ctx, query)
		},
	}
}

func wikipediaSearch(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	u := "https://en.wikipedia.org/w/api.php?action=query&list=search&format=json&srlimit=3&srsearch=" +
		url.QueryEscape(query)

	var result struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := getJSON(ctx, u, &result); err != nil {
		return "", fmt.Errorf("agents: wikipedia search failed: %w", err)
	}
	if len(result.Query.Search) == 0 {
		return fmt.Sprintf("No Wikipedia results found for %q.", query), nil
	}

	var b strings.Builder
	for _, hit := range result.Query.Search {
		snippet := htmlTags.ReplaceAllString(hit.Snippet, "")
		fmt.Fprintf(&b, "%s: %s\n", hit.Title, snippet)
	}
	return b.String(), nil
}

// OpenMeteoTool fetches current conditions from the Open-Meteo API.
// No API key required; used by the weather specialist.
func OpenMeteoTool() Tool {
	return Tool{
		Def: claude.ToolDefinition{
			Name:        "open_meteo",
			Description: "Get current weather conditions and forecast for a location.",
			Schema: claude.Schema{
				Properties: map[string]claude.Property{
					"location": {Type: "string", Description: "City name, e.g. Denver"},
				},
				Required: []string{"location"},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			location, _ := args["location"].(string)
			if location == "" {
				return "", fmt.Errorf("agents: open_meteo: empty location")
			}
			return openMeteoLookup(ctx, location)
		},
	}
}

func openMeteoLookup(ctx context.Context, location string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	geoURL := "https://geocoding-api.open-meteo.com/v1/search?count=1&name=" + url.QueryEscape(location)
	var geo struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := getJSON(ctx, geoURL, &geo); err != nil {
		return "", fmt.Errorf("agents: geocoding failed: %w", err)
	}
	if len(geo.Results) == 0 {
		return fmt.Sprintf("I couldn't find a location called %q.", location), nil
	}
	place := geo.Results[0]

	wxURL := fmt.Sprintf(
		"https://api.open-meteo.com/v1/forecast?latitude=%.4f&longitude=%.4f&current_weather=true&temperature_unit=fahrenheit",
		place.Latitude, place.Longitude,
	)
	var wx struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}
	if err := getJSON(ctx, wxURL, &wx); err != nil {
		return "", fmt.Errorf("agents: forecast failed: %w", err)
	}

	return fmt.Sprintf("Current weather in %s, %s: %s, %.0f°F, wind %.0f km/h.",
		place.Name, place.Country,
		weatherCodeDescription(wx.CurrentWeather.WeatherCode),
		wx.CurrentWeather.Temperature,
		wx.CurrentWeather.WindSpeed,
	), nil
}

// weatherCodeDescription maps WMO weather codes to spoken descriptions.
func weatherCodeDescription(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 3:
		return "partly cloudy"
	case code <= 48:
		return "foggy"
	case code <= 57:
		return "drizzle"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "rain showers"
	case code <= 86:
		return "snow showers"
	default:
		return "thunderstorms"
	}
}

func getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
