package apiclient

import (
	"context"

	"fpc-portal/internal/model"
)

func (c *Client) Districts(ctx context.Context) ([]model.District, error) {
	return listOf[model.District](c, ctx, "/api/districts/districts", "/api/districts/districts")
}
