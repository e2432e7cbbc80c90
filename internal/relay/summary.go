package relay

import (
	"context"
	"fmt"
	"io"

	"github.com/jmespath/go-jmespath"

	"bcrelay/pkg/businesscentral"
)

const sampleSize = 5

// Field choices differ between the OData pages (Name/No) and the API
// entities (displayName/number/id).
var (
	nameExpr = jmespath.MustCompile("displayName || name || Name")
	idExpr   = jmespath.MustCompile("id || number || No")
)

// PrintSummary runs the pipeline once and reports on w. It never returns an
// error: failures are printed and the caller carries on.
func PrintSummary(ctx context.Context, w io.Writer, p *Pipeline) {
	customers, err := p.Customers(ctx)
	if err != nil {
		fmt.Fprintf(w, "❌ Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "✅ Retrieved %d customers\n", len(customers))
	for i, c := range customers {
		if i == sampleSize {
			break
		}
		fmt.Fprintf(w, "- %s (%s)\n", field(nameExpr, c, "(unnamed)"), field(idExpr, c, "?"))
	}
}

func field(expr *jmespath.JMESPath, c businesscentral.Customer, def string) string {
	v, err := expr.Search(map[string]any(c))
	if err != nil || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return def
		}
		return s
	}
	return fmt.Sprint(v)
}
