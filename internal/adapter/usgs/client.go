// Package usgs fetches instantaneous river gauge observations from the
// USGS Water Services API.
package usgs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Client queries the USGS instantaneous-values endpoint for discharge and
// gauge height readings.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient builds a USGS client against the given base URL, typically
// https://waterservices.usgs.gov/nwis/iv.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, logger: logger}
}

// response mirrors the USGS WaterML-JSON envelope, reduced to the fields
// the service reads.
type response struct {
	Value struct {
		TimeSeries []timeSeries `json:"timeSeries"`
	} `json:"value"`
}

type timeSeries struct {
	SourceInfo struct {
		SiteName string `json:"siteName"`
		SiteCode []struct {
			Value string `json:"value"`
		} `json:"siteCode"`
		GeoLocation struct {
			GeogLocation struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"geogLocation"`
		} `json:"geoLocation"`
	} `json:"sourceInfo"`
	Variable struct {
		VariableCode []struct {
			Value string `json:"value"`
		} `json:"variableCode"`
	} `json:"variable"`
	Values []struct {
		Value []struct {
			Value    string `json:"value"`
			DateTime string `json:"dateTime"`
		} `json:"value"`
	} `json:"values"`
}

// SiteData fetches discharge and gauge-height series for the given sites in
// a single batched request. Malformed values within a series are skipped;
// sites absent from the response are absent from the result.
func (c *Client) SiteData(ctx context.Context, siteIDs []string) (map[string]domain.SiteData, error) {
	if len(siteIDs) == 0 {
		return map[string]domain.SiteData{}, nil
	}

	var body response
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format":      "json",
			"sites":       strings.Join(siteIDs, ","),
			"parameterCd": string(domain.ParamDischarge) + "," + string(domain.ParamGaugeHeight),
			"siteStatus":  "active",
		}).
		SetResult(&body).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("usgs request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("usgs request: %w: status %d", domain.ErrSourceUnavailable, resp.StatusCode())
	}

	sites := make(map[string]domain.SiteData)
	for _, series := range body.Value.TimeSeries {
		if len(series.SourceInfo.SiteCode) == 0 || len(series.Variable.VariableCode) == 0 {
			continue
		}
		siteID := series.SourceInfo.SiteCode[0].Value
		param := domain.Parameter(series.Variable.VariableCode[0].Value)
		if param != domain.ParamDischarge && param != domain.ParamGaugeHeight {
			continue
		}

		data, ok := sites[siteID]
		if !ok {
			data = domain.SiteData{
				SiteName:  series.SourceInfo.SiteName,
				Latitude:  series.SourceInfo.GeoLocation.GeogLocation.Latitude,
				Longitude: series.SourceInfo.GeoLocation.GeogLocation.Longitude,
			}
		}

		for _, block := range series.Values {
			for _, point := range block.Value {
				value, err := strconv.ParseFloat(point.Value, 64)
				if err != nil {
					c.logger.Debug("skipping malformed reading", "site_id", siteID, "parameter", param, "value", point.Value)
					continue
				}
				ts, err := time.Parse(time.RFC3339, point.DateTime)
				if err != nil {
					c.logger.Debug("skipping malformed timestamp", "site_id", siteID, "parameter", param, "timestamp", point.DateTime)
					continue
				}
				data.Measurements = append(data.Measurements, domain.SiteMeasurement{
					Timestamp: ts,
					Parameter: param,
					Value:     value,
				})
			}
		}

		sites[siteID] = data
	}

	c.logger.Debug("fetched site data", "requested", len(siteIDs), "returned", len(sites))
	return sites, nil
}
