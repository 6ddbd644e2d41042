// Package weather looks up the current temperature and sky condition for the
// caller's city, falling back to fixed values when any lookup fails.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultLocateURL     = "https://ipinfo.io/json"
	DefaultWeatherURL    = "https://api.openweathermap.org/data/2.5/weather"
	DefaultCity          = "Chennai"
	DefaultTemperature   = 25.0
	UnknownCondition     = "Unknown"
	defaultClientTimeout = 10 * time.Second
)

var ErrNoAPIKey = errors.New("weather: no api key configured")

// Config configures the lookup endpoints and fallbacks
type Config struct {
	APIKey              string
	DefaultCity         string
	FallbackTemperature float64
	Timeout             time.Duration
	LocateURL           string
	WeatherURL          string
}

// Reading is one weather observation. Live is false for fallback values.
type Reading struct {
	City        string
	Temperature float64
	Condition   string
	Live        bool
}

// Client resolves the current city via IP geolocation and queries
// OpenWeatherMap for it
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a client, filling unset config fields with defaults
func New(cfg Config) *Client {
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = DefaultCity
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultClientTimeout
	}
	if cfg.LocateURL == "" {
		cfg.LocateURL = DefaultLocateURL
	}
	if cfg.WeatherURL == "" {
		cfg.WeatherURL = DefaultWeatherURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fallback is the reading used when the live lookup fails
func (c *Client) Fallback(city string) Reading {
	return Reading{City: city, Temperature: c.cfg.FallbackTemperature, Condition: UnknownCondition}
}

// Current returns the live reading for city, or for the located city when
// city is empty. It never fails: errors are logged and the fallback returned.
func (c *Client) Current(ctx context.Context, city string) Reading {
	if city == "" {
		located, err := c.Locate(ctx)
		if err != nil {
			log.WithError(err).Warn("city lookup failed, using fallback weather")
			return c.Fallback(c.cfg.DefaultCity)
		}
		city = located
	}

	temp, condition, err := c.Lookup(ctx, city)
	if err != nil {
		log.WithError(err).WithField("city", city).Warn("weather lookup failed, using fallback weather")
		return c.Fallback(city)
	}

	log.WithFields(log.Fields{
		"city":        city,
		"temperature": temp,
		"condition":   condition,
	}).Debug("live weather")
	return Reading{City: city, Temperature: temp, Condition: condition, Live: true}
}

type locateResponse struct {
	City string `json:"city"`
}

// Locate resolves the caller's city from its public IP. A response without a
// city yields the configured default city.
func (c *Client) Locate(ctx context.Context) (string, error) {
	var body locateResponse
	status, err := c.getJSON(ctx, c.cfg.LocateURL, &body)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("locate: unexpected status %d", status)
	}
	if body.City == "" {
		return c.cfg.DefaultCity, nil
	}
	return body.City, nil
}

type weatherResponse struct {
	Main *struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Message string `json:"message"`
}

// Lookup queries the current temperature in degrees Celsius and the main
// condition (e.g. "Clear", "Rain") for city
func (c *Client) Lookup(ctx context.Context, city string) (float64, string, error) {
	if c.cfg.APIKey == "" {
		return 0, "", ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", "metric")

	var body weatherResponse
	status, err := c.getJSON(ctx, c.cfg.WeatherURL+"?"+q.Encode(), &body)
	if err != nil {
		return 0, "", err
	}
	if status != http.StatusOK || body.Main == nil {
		msg := body.Message
		if msg == "" {
			msg = "weather data not available"
		}
		return 0, "", fmt.Errorf("weather: %s (status %d)", msg, status)
	}

	condition := UnknownCondition
	if len(body.Weather) > 0 && body.Weather[0].Main != "" {
		condition = body.Weather[0].Main
	}
	return body.Main.Temp, condition, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}
