package crm

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/andomingos87/seleto-industrial-sub000/internal/metrics"
)

// CompanyParams holds the fields for company creation. Name is required;
// everything else is passed through only when present.
type CompanyParams struct {
	Name    string
	CityID  *int
	TaxID   string
	Website string
	Email   string
}

// PersonParams holds the fields for contact creation.
type PersonParams struct {
	Name      string
	Phones    []string
	Emails    []string
	CityID    *int
	CompanyID *int
}

// DealParams holds the fields for deal creation. Zero pipeline/stage/origin
// ids fall back to the client defaults.
type DealParams struct {
	Title      string
	PersonID   *int
	CompanyID  *int
	PipelineID int
	StageID    int
	OriginID   int
}

// GetCityID resolves a city name and state code to the CRM city id. Results
// are cached per normalized (city, uf) pair, including a confirmed-absent nil,
// so repeated lookups for the same city cost one network call.
func (c *Client) GetCityID(ctx context.Context, name, uf string) (*int, error) {
	name = NormalizeCityName(name)
	uf = NormalizeUF(uf)
	if name == "" {
		return nil, nil
	}

	if id, found := c.cache.Get(name, uf); found {
		metrics.CityCacheHits.Inc()
		return id, nil
	}
	metrics.CityCacheMisses.Inc()

	query := url.Values{"name": {name}}
	if uf != "" {
		query.Set("uf", uf)
	}

	body, err := c.do(ctx, "get_city_id", http.MethodGet, "/cities", query, nil)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Kind == KindNotFound {
			c.cache.Set(name, uf, nil)
			return nil, nil
		}
		return c.downgrade("get_city_id", err)
	}

	cities, err := decodeEntityList(body)
	if err != nil {
		c.log.Warn("unparseable city response", "error", err)
		return nil, nil
	}

	var id *int
	if len(cities) > 0 {
		id = &cities[0].ID
	}
	c.cache.Set(name, uf, id)
	return id, nil
}

// GetCompanyByTaxID looks a company up by its CNPJ. Tax ids are normalized to
// digits; anything other than 14 digits returns nil without a network call.
func (c *Client) GetCompanyByTaxID(ctx context.Context, taxID string) (*int, error) {
	digits, ok := NormalizeTaxID(taxID)
	if !ok {
		c.log.Debug("skipping company lookup, invalid tax id", "tax_id_len", len(digits))
		return nil, nil
	}

	body, err := c.do(ctx, "get_company_by_tax_id", http.MethodGet, "/companies",
		url.Values{"cnpj": {digits}}, nil)
	if err != nil {
		return c.downgrade("get_company_by_tax_id", err)
	}

	companies, err := decodeEntityList(body)
	if err != nil {
		c.log.Warn("unparseable company response", "error", err)
		return nil, nil
	}
	if len(companies) == 0 {
		return nil, nil
	}
	return &companies[0].ID, nil
}

// CreateCompany creates a company record and returns its id.
func (c *Client) CreateCompany(ctx context.Context, params CompanyParams) (*int, error) {
	if params.Name == "" {
		c.log.Warn("skipping company creation, empty name")
		return nil, nil
	}

	payload := map[string]any{"name": params.Name}
	if params.CityID != nil {
		payload["city_id"] = *params.CityID
	}
	if digits, ok := NormalizeTaxID(params.TaxID); ok {
		payload["cnpj"] = digits
	}
	if params.Website != "" {
		payload["website"] = params.Website
	}
	if email := NormalizeEmail(params.Email); email != "" {
		payload["email"] = email
	}

	body, err := c.do(ctx, "create_company", http.MethodPost, "/companies", nil, payload)
	if err != nil {
		return c.downgrade("create_company", err)
	}
	return c.createdID("create_company", body)
}

// CreatePerson creates a contact record and returns its id. Phones are
// normalized to digit strings and emails lowercased before sending.
func (c *Client) CreatePerson(ctx context.Context, params PersonParams) (*int, error) {
	if params.Name == "" {
		c.log.Warn("skipping person creation, empty name")
		return nil, nil
	}

	payload := map[string]any{"name": params.Name}
	var phones []string
	for _, phone := range params.Phones {
		if digits := DigitsOnly(phone); digits != "" {
			phones = append(phones, digits)
		}
	}
	if len(phones) > 0 {
		payload["phones"] = phones
	}
	var emails []string
	for _, email := range params.Emails {
		if normalized := NormalizeEmail(email); normalized != "" {
			emails = append(emails, normalized)
		}
	}
	if len(emails) > 0 {
		payload["emails"] = emails
	}
	if params.CityID != nil {
		payload["city_id"] = *params.CityID
	}
	if params.CompanyID != nil {
		payload["company_id"] = *params.CompanyID
	}

	body, err := c.do(ctx, "create_person", http.MethodPost, "/persons", nil, payload)
	if err != nil {
		return c.downgrade("create_person", err)
	}
	return c.createdID("create_person", body)
}

// CreateDeal creates a deal and returns its id. An effective pipeline id and
// stage id are required; when neither the params nor the client defaults
// provide them the call returns nil without touching the network.
func (c *Client) CreateDeal(ctx context.Context, params DealParams) (*int, error) {
	pipelineID := params.PipelineID
	if pipelineID == 0 {
		pipelineID = c.defaultPipelineID
	}
	stageID := params.StageID
	if stageID == 0 {
		stageID = c.defaultStageID
	}
	if pipelineID == 0 || stageID == 0 {
		c.log.Error("skipping deal creation, no pipeline or stage configured",
			"pipeline_id", pipelineID, "stage_id", stageID)
		return nil, nil
	}

	payload := map[string]any{
		"title":       params.Title,
		"pipeline_id": pipelineID,
		"stage_id":    stageID,
	}
	originID := params.OriginID
	if originID == 0 {
		originID = c.defaultOriginID
	}
	if originID != 0 {
		payload["origin_id"] = originID
	}
	if params.PersonID != nil {
		payload["person_id"] = *params.PersonID
	}
	if params.CompanyID != nil {
		payload["company_id"] = *params.CompanyID
	}

	body, err := c.do(ctx, "create_deal", http.MethodPost, "/deals", nil, payload)
	if err != nil {
		return c.downgrade("create_deal", err)
	}
	return c.createdID("create_deal", body)
}

// CreateNote attaches a note to a deal and returns the note id. Both
// arguments are required.
func (c *Client) CreateNote(ctx context.Context, dealID int, content string) (*int, error) {
	if dealID == 0 || content == "" {
		c.log.Warn("skipping note creation, missing deal id or content")
		return nil, nil
	}

	payload := map[string]any{
		"deal_id": dealID,
		"content": content,
	}

	body, err := c.do(ctx, "create_note", http.MethodPost, "/notes", nil, payload)
	if err != nil {
		return c.downgrade("create_note", err)
	}
	return c.createdID("create_note", body)
}

func (c *Client) createdID(op string, body []byte) (*int, error) {
	created, err := decodeEntity(body)
	if err != nil {
		c.log.Warn("unparseable creation response", "op", op, "error", err)
		return nil, nil
	}
	if created.ID == 0 {
		return nil, nil
	}
	return &created.ID, nil
}
