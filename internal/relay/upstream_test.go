package relay

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"bcrelay/pkg/businesscentral"
	"bcrelay/pkg/config"
)

// bcFake serves the identity token endpoint and the Business Central
// companies/customers collections from one httptest server.
type bcFake struct {
	srv *httptest.Server

	tokenStatus int
	companies   string
	customers   string

	tokenCalls    atomic.Int32
	customerCalls atomic.Int32
	customerPath  atomic.Value
}

func newBCFake(t *testing.T) *bcFake {
	t.Helper()
	f := &bcFake{
		tokenStatus: http.StatusOK,
		companies:   `{"value":[{"id":"C1","name":"Acme"}]}`,
		customers:   `{"value":[{"id":"K1","displayName":"Adatum"},{"id":"K2","displayName":"Trey Research"}]}`,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/oauth2/v2.0/token"):
			f.tokenCalls.Add(1)
			w.WriteHeader(f.tokenStatus)
			if f.tokenStatus == http.StatusOK {
				_, _ = w.Write([]byte(`{"token_type":"Bearer","expires_in":3600,"access_token":"tok"}`))
				return
			}
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad secret"}`))
		case strings.HasSuffix(r.URL.Path, "/Companies"), strings.HasSuffix(r.URL.Path, "/companies"):
			_, _ = w.Write([]byte(f.companies))
		case strings.HasSuffix(r.URL.Path, "/customers"):
			f.customerCalls.Add(1)
			f.customerPath.Store(r.URL.Path)
			_, _ = w.Write([]byte(f.customers))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *bcFake) config(companyID string) config.Config {
	return config.Config{
		Credentials: config.Credentials{
			TenantID: "tenant", ClientID: "client", ClientSecret: "secret",
			CompanyID: companyID, Environment: "sandbox",
		},
		AuthBaseURL: f.srv.URL,
		APIBaseURL:  f.srv.URL,
		APIVariant:  businesscentral.VariantAPI,
		HTTPTimeout: 5 * time.Second,
		StrictInput: true,
		HealthRoute: true,
	}
}

func (f *bcFake) pipeline(cfg config.Config) *Pipeline {
	log := zap.NewNop().Sugar()
	cc := businesscentral.NewClientCredentials(cfg, f.srv.Client(), log)
	bc := businesscentral.NewClient(cfg, f.srv.Client(), log)
	return NewPipeline(cc, bc, bc, log)
}

func (f *bcFake) lastCustomerPath() string {
	s, _ := f.customerPath.Load().(string)
	return s
}
