package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"fpc-portal/internal/model"
	"fpc-portal/pkg/apierror"
)

func (c *Client) ListFPOs(ctx context.Context) ([]model.FPO, error) {
	return listOf[model.FPO](c, ctx, "/api/fpo", "/api/fpo")
}

func (c *Client) PendingFPOs(ctx context.Context) ([]model.FPO, error) {
	return listOf[model.FPO](c, ctx, "/api/fpo/pending", "/api/fpo/pending")
}

func (c *Client) GetFPO(ctx context.Context, id int64) (model.FPO, error) {
	var fpo model.FPO
	err := c.call(ctx, http.MethodGet, "/api/fpo/{id}", "/api/fpo/"+strconv.FormatInt(id, 10), nil, &fpo)
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusNotFound {
			return model.FPO{}, model.ErrFPONotFound
		}
		return model.FPO{}, err
	}
	return fpo, nil
}

func (c *Client) CreateFPO(ctx context.Context, reg model.FPORegistration) (model.FPO, error) {
	var created model.FPO
	if err := c.call(ctx, http.MethodPost, "/api/fpo", "/api/fpo", reg, &created); err != nil {
		return model.FPO{}, err
	}
	return created, nil
}

func (c *Client) Approve(ctx context.Context, decision model.ApprovalDecision) error {
	return c.call(ctx, http.MethodPost, "/api/approval/approve", "/api/approval/approve", decision, nil)
}

func (c *Client) Reject(ctx context.Context, decision model.ApprovalDecision) error {
	return c.call(ctx, http.MethodPost, "/api/approval/reject", "/api/approval/reject", decision, nil)
}
