package relay

import (
	"context"

	"go.uber.org/zap"

	"bcrelay/pkg/businesscentral"
	"bcrelay/pkg/metrics"
)

// CompanyResolver picks the company customers are read from.
type CompanyResolver interface {
	ResolveCompany(ctx context.Context, token string) (string, error)
}

// CustomerFetcher lists a company's customers.
type CustomerFetcher interface {
	ListCustomers(ctx context.Context, token, companyID string) ([]businesscentral.Customer, error)
}

// Pipeline runs token → company → customers. It keeps no state between runs
// beyond what the token source itself may cache.
type Pipeline struct {
	tokens    businesscentral.TokenSource
	companies CompanyResolver
	customers CustomerFetcher
	log       *zap.SugaredLogger
}

func NewPipeline(tokens businesscentral.TokenSource, companies CompanyResolver, customers CustomerFetcher, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{tokens: tokens, companies: companies, customers: customers, log: log}
}

// Customers fetches the resolved company's customer records. Failures are
// returned unmodified so the caller sees the kind that caused them.
func (p *Pipeline) Customers(ctx context.Context) ([]businesscentral.Customer, error) {
	tok, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, p.fail(err)
	}
	companyID, err := p.companies.ResolveCompany(ctx, tok.AccessToken)
	if err != nil {
		return nil, p.fail(err)
	}
	customers, err := p.customers.ListCustomers(ctx, tok.AccessToken, companyID)
	if err != nil {
		return nil, p.fail(err)
	}
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	p.log.Infow("customers relayed", "company", companyID, "count", len(customers))
	return customers, nil
}

// Run executes the pipeline and shapes the result for /predict.
func (p *Pipeline) Run(ctx context.Context) (Response, error) {
	customers, err := p.Customers(ctx)
	if err != nil {
		return Response{}, err
	}
	return Shape(customers), nil
}

func (p *Pipeline) fail(err error) error {
	kind := string(businesscentral.KindOf(err))
	if kind == "" {
		kind = "internal"
	}
	metrics.PipelineRuns.WithLabelValues(kind).Inc()
	return err
}
