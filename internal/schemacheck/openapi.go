package schemacheck

import (
	"context"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIReport is what the REST schema says about checkout, read far enough
// to confirm the operation exists - no real checkout is ever attempted.
type OpenAPIReport struct {
	Parsed            bool   `json:"parsed"`
	HasCheckoutCreate bool   `json:"hasCheckoutCreate"`
	CheckoutPath      string `json:"checkoutPath,omitempty"`
	Detail            string `json:"detail,omitempty"`
}

// InspectOpenAPI fetches the REST transport's schema URL and looks for a
// checkout-creation operation. Failures are folded into the report.
func InspectOpenAPI(ctx context.Context, f Fetcher, url string) OpenAPIReport {
	body, err := f.Get(ctx, url)
	if err != nil {
		return OpenAPIReport{Detail: "fetching OpenAPI document: " + err.Error()}
	}
	return InspectOpenAPIBytes(body)
}

// InspectOpenAPIBytes parses an OpenAPI document and scans its paths for a
// POST operation that creates a checkout session, matched by path segment or
// operation id.
func InspectOpenAPIBytes(body []byte) OpenAPIReport {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(body)
	if err != nil {
		return OpenAPIReport{Detail: "parsing OpenAPI document: " + err.Error()}
	}
	rep := OpenAPIReport{Parsed: true}
	if doc.Paths == nil {
		rep.Detail = "OpenAPI document declares no paths"
		return rep
	}

	pathMap := doc.Paths.Map()
	pathKeys := make([]string, 0, len(pathMap))
	for path := range pathMap {
		pathKeys = append(pathKeys, path)
	}
	sort.Strings(pathKeys)

	for _, path := range pathKeys {
		item := pathMap[path]
		if item == nil || item.Post == nil {
			continue
		}
		if describesCheckout(path, item.Post.OperationID) {
			rep.HasCheckoutCreate = true
			rep.CheckoutPath = path
			return rep
		}
	}
	rep.Detail = "no checkout-creation operation found in OpenAPI paths"
	return rep
}

func describesCheckout(path, operationID string) bool {
	return strings.Contains(strings.ToLower(path), "checkout") ||
		strings.Contains(strings.ToLower(operationID), "checkout")
}
