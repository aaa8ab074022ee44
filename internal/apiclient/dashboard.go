package apiclient

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"

	"fpc-portal/pkg/apierror"
)

// Stat fetches one headline dashboard number from /api/dashboard/{key}. The
// body may be a bare number or an object holding it under count, total or
// value.
func (c *Client) Stat(ctx context.Context, key string) (int64, error) {
	const endpoint = "/api/dashboard/{stat}"

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, endpoint, "/api/dashboard/"+url.PathEscape(key), nil, &raw); err != nil {
		return 0, err
	}

	value, ok := statValue(raw)
	if !ok {
		return 0, apierror.Server(endpoint, http.StatusBadGateway, "statistic is not numeric")
	}
	return value, nil
}

func statValue(raw json.RawMessage) (int64, bool) {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return int64(math.Round(number)), true
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, false
	}

	for _, key := range []string{"count", "total", "value"} {
		if n, ok := body[key].(float64); ok {
			return int64(math.Round(n)), true
		}
	}

	return 0, false
}
