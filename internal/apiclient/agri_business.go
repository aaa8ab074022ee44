package apiclient

import (
	"context"
	"net/http"

	"fpc-portal/internal/model"
)

func (c *Client) ListAgriBusiness(ctx context.Context) ([]model.AgriBusinessRecord, error) {
	return listOf[model.AgriBusinessRecord](c, ctx, "/api/agri_business", "/api/agri_business")
}

func (c *Client) CreateAgriBusiness(ctx context.Context, record model.AgriBusinessRecord) (model.AgriBusinessRecord, error) {
	var created model.AgriBusinessRecord
	if err := c.call(ctx, http.MethodPost, "/api/agri_business", "/api/agri_business", record, &created); err != nil {
		return model.AgriBusinessRecord{}, err
	}
	if created.Commodity == "" {
		created = record
	}
	return created, nil
}

func (c *Client) AnnualStats(ctx context.Context) ([]model.AnnualStat, error) {
	const path = "/api/dashboard/agri_business_annual_stats"
	return listOf[model.AnnualStat](c, ctx, path, path)
}
