package api

import (
	"context"
	"net/http"
	"strconv"
)

// Blocks lists the users the current user has blocked.
func (c *Client) Blocks(ctx context.Context) ([]Block, error) {
	var out []Block
	if err := c.getJSON(ctx, "blocks/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBlock blocks a user.
func (c *Client) CreateBlock(ctx context.Context, userID int64) (*Block, error) {
	var out Block
	if err := c.sendJSON(ctx, http.MethodPost, "blocks/", map[string]int64{"blocked": userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBlock removes a block by its id.
func (c *Client) DeleteBlock(ctx context.Context, blockID int64) error {
	return c.do(ctx, http.MethodDelete, "blocks/"+strconv.FormatInt(blockID, 10)+"/", nil, nil, "", nil, nil)
}

// ReportCategories lists the reasons a report can be filed for.
func (c *Client) ReportCategories(ctx context.Context) ([]ReportCategory, error) {
	var out []ReportCategory
	if err := c.getJSON(ctx, "report-categories/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateReport files a report, with optional evidence.
func (c *Client) CreateReport(ctx context.Context, r *NewReport) (*Report, error) {
	form := &multipartForm{}
	form.set("reported_user", strconv.FormatInt(r.ReportedUser, 10))
	form.set("category", strconv.FormatInt(r.Category, 10))
	form.set("description", r.Description)
	form.file("evidence", r.Evidence)

	var out Report
	if err := c.sendMultipart(ctx, http.MethodPost, "reports/", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyReports lists the reports filed by the current user.
func (c *Client) MyReports(ctx context.Context) ([]Report, error) {
	var out []Report
	if err := c.getJSON(ctx, "my-reports/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
