package businesscentral

import (
	"context"
	"net/url"
	"strings"
)

// Customer is passed through exactly as Business Central returns it.
type Customer map[string]any

func (c *Client) customersURL(companyID string) string {
	if c.variant == VariantAPI {
		return c.environmentURL() + "/api/v2.0/companies(" + url.PathEscape(companyID) + ")/customers"
	}
	// OData string literal: single quotes are doubled.
	lit := strings.ReplaceAll(companyID, "'", "''")
	return c.environmentURL() + "/ODataV4/Company('" + url.PathEscape(lit) + "')/customers"
}

// ListCustomers returns the company's complete customer collection,
// following continuation links and concatenating pages in order.
func (c *Client) ListCustomers(ctx context.Context, token, companyID string) ([]Customer, error) {
	customers, err := getCollection[Customer](ctx, c, "customers", token, c.customersURL(companyID), false)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("customers fetched", "company", companyID, "count", len(customers))
	return customers, nil
}
