package businesscentral

import (
	"context"
	"encoding/json"
	"errors"
)

// Company is one entry of the companies listing. The OData endpoint uses
// Id/Name/Display_Name, the API endpoint id/name/displayName.
type Company struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

func (c *Company) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID               string `json:"id"`
		Name             string `json:"name"`
		DisplayName      string `json:"displayName"`
		DisplayNameOData string `json:"Display_Name"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.ID, c.Name, c.DisplayName = raw.ID, raw.Name, raw.DisplayName
	if c.DisplayName == "" {
		c.DisplayName = raw.DisplayNameOData
	}
	return nil
}

func (c *Client) companiesURL() string {
	if c.variant == VariantAPI {
		return c.environmentURL() + "/api/v2.0/companies"
	}
	return c.environmentURL() + "/ODataV4/Companies"
}

// ListCompanies returns every company visible to the service principal, in
// upstream order.
func (c *Client) ListCompanies(ctx context.Context, token string) ([]Company, error) {
	return getCollection[Company](ctx, c, "companies", token, c.companiesURL(), false)
}

// ResolveCompany picks the company customers are read from. A configured
// COMPANY_ID wins without being checked against the listing; otherwise the
// first listed company is used.
func (c *Client) ResolveCompany(ctx context.Context, token string) (string, error) {
	if c.creds.CompanyID != "" {
		return c.creds.CompanyID, nil
	}
	companies, err := getCollection[Company](ctx, c, "companies", token, c.companiesURL(), true)
	if err != nil {
		return "", err
	}
	if len(companies) == 0 {
		return "", newError(KindCompanyResolution, "companies", 0, errors.New("no companies in environment "+c.creds.Environment))
	}
	id := companies[0].ID
	if id == "" {
		return "", newError(KindCompanyResolution, "companies", 0, errors.New("first company has no identifier"))
	}
	c.log.Infow("resolved company", "company", id, "name", companies[0].Name)
	return id, nil
}
