package schemacheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	docs map[string][]byte
}

func (s *stubFetcher) Get(_ context.Context, url string) ([]byte, error) {
	if body, ok := s.docs[url]; ok {
		return body, nil
	}
	return nil, errors.New("HTTP 404")
}

func TestCompileSchema(t *testing.T) {
	err := CompileSchema("checkout.json", []byte(`{
		"type": "object",
		"properties": {"items": {"type": "array"}},
		"required": ["items"]
	}`))
	assert.NoError(t, err)
}

func TestCompileSchemaNotJSON(t *testing.T) {
	err := CompileSchema("checkout.json", []byte(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestCompileSchemaDoesNotCompile(t *testing.T) {
	err := CompileSchema("checkout.json", []byte(`{"type": 42}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not compile")
}

func TestCheckJSONSchema(t *testing.T) {
	f := &stubFetcher{docs: map[string][]byte{
		"https://shop.example/checkout.json": []byte(`{"type": "object"}`),
	}}

	assert.NoError(t, CheckJSONSchema(context.Background(), f, "https://shop.example/checkout.json"))

	err := CheckJSONSchema(context.Background(), f, "https://shop.example/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching schema")
}

const checkoutAPI = `{
	"openapi": "3.0.3",
	"info": {"title": "Shop API", "version": "1.0"},
	"paths": {
		"/products": {"get": {"responses": {"200": {"description": "ok"}}}},
		"/checkout-sessions": {
			"post": {
				"operationId": "createCheckoutSession",
				"responses": {"201": {"description": "created"}}
			}
		}
	}
}`

func TestInspectOpenAPIFindsCheckout(t *testing.T) {
	rep := InspectOpenAPIBytes([]byte(checkoutAPI))
	assert.True(t, rep.Parsed)
	assert.True(t, rep.HasCheckoutCreate)
	assert.Equal(t, "/checkout-sessions", rep.CheckoutPath)
}

func TestInspectOpenAPIMatchesOperationID(t *testing.T) {
	rep := InspectOpenAPIBytes([]byte(`{
		"openapi": "3.0.3",
		"info": {"title": "Shop API", "version": "1.0"},
		"paths": {
			"/sessions": {
				"post": {
					"operationId": "startCheckout",
					"responses": {"201": {"description": "created"}}
				}
			}
		}
	}`))
	assert.True(t, rep.HasCheckoutCreate)
	assert.Equal(t, "/sessions", rep.CheckoutPath)
}

func TestInspectOpenAPINoCheckout(t *testing.T) {
	rep := InspectOpenAPIBytes([]byte(`{
		"openapi": "3.0.3",
		"info": {"title": "Shop API", "version": "1.0"},
		"paths": {
			"/products": {"get": {"responses": {"200": {"description": "ok"}}}}
		}
	}`))
	assert.True(t, rep.Parsed)
	assert.False(t, rep.HasCheckoutCreate)
	assert.Contains(t, rep.Detail, "no checkout-creation operation")
}

func TestInspectOpenAPIUnparseable(t *testing.T) {
	rep := InspectOpenAPIBytes([]byte(`not an api document`))
	assert.False(t, rep.Parsed)
	assert.False(t, rep.HasCheckoutCreate)
	assert.NotEmpty(t, rep.Detail)
}

func TestInspectOpenAPIFetchFailure(t *testing.T) {
	f := &stubFetcher{}
	rep := InspectOpenAPI(context.Background(), f, "https://shop.example/openapi.json")
	assert.False(t, rep.Parsed)
	assert.Contains(t, rep.Detail, "fetching OpenAPI document")
}
