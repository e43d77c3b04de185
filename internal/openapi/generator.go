// Package openapi generates the OpenAPI 3.1 document for the warrant HTTP
// API. The document is assembled programmatically so it can never drift from a
// hand-maintained file; the router serves it at /openapi.json and the CLI
// prints it on demand.
package openapi

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the full OpenAPI document for the API rooted at baseURL.
func Generate(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Warrant API",
			Description: "Device authorization and token lifecycle API.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	addSchemas(doc)

	doc.Paths = openapi3.NewPaths()
	addAuthPaths(doc)
	addOpsPaths(doc)

	return doc
}

func addSchemas(doc *openapi3.T) {
	doc.Components.Schemas["Result"] = &openapi3.SchemaRef{
		Value: objectSchema(openapi3.Schemas{
			"success":    boolSchema(),
			"message":    stringSchema(""),
			"error_code": stringSchema("Machine-readable rejection code; absent on success."),
		}),
	}

	doc.Components.Schemas["Token"] = &openapi3.SchemaRef{
		Value: objectSchema(openapi3.Schemas{
			"worker_id":   stringSchema(""),
			"issue_time":  intSchema("Unix seconds."),
			"expire_time": intSchema("Unix seconds."),
			"token_id":    stringSchema("Opaque per-issuance identifier."),
			"signature":   stringSchema("16 hex characters binding worker, expiry, and token ID."),
		}),
	}

	doc.Components.Schemas["AuthResult"] = resultSchema(openapi3.Schemas{
		"auth_code":     stringSchema("8 uppercase hex characters."),
		"timestamp":     intSchema("Issue instant, unix seconds. Required to redeem the code."),
		"valid_minutes": intSchema("Redemption window length."),
		"worker_name":   stringSchema(""),
	})

	doc.Components.Schemas["ActivateResult"] = resultSchema(openapi3.Schemas{
		"token":       refSchema("Token"),
		"expire_days": intSchema("Token lifetime."),
		"worker_name": stringSchema(""),
	})

	doc.Components.Schemas["VerifyResult"] = resultSchema(openapi3.Schemas{
		"worker_id":   stringSchema(""),
		"worker_name": stringSchema(""),
	})

	doc.Components.Schemas["SystemStatus"] = &openapi3.SchemaRef{
		Value: objectSchema(openapi3.Schemas{
			"total_authorized": intSchema("Workers in the roster."),
			"active_devices":   intSchema("Activation records with status active."),
			"max_activations":  intSchema("Advisory capacity figure; not enforced."),
			"last_updated":     stringSchema("RFC 3339, empty if never written."),
			"version":          stringSchema(""),
		}),
	}

	doc.Components.Schemas["StatusResult"] = resultSchema(openapi3.Schemas{
		"system_status": refSchema("SystemStatus"),
	})

	doc.Components.Schemas["SweepResult"] = resultSchema(openapi3.Schemas{
		"expired_count": intSchema("Activations transitioned by this pass."),
	})
}

func addAuthPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/v1/auth/request", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "requestAuth",
			Summary:     "Request an auth code for a worker",
			RequestBody: jsonBody(objectSchema(openapi3.Schemas{
				"worker_id": stringSchema(""),
			})),
			Responses: envelopeResponses("AuthResult"),
		},
	})

	doc.Paths.Set("/api/v1/auth/activate", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "activate",
			Summary:     "Redeem an auth code and receive a token",
			RequestBody: jsonBody(objectSchema(openapi3.Schemas{
				"worker_id":   stringSchema(""),
				"auth_code":   stringSchema("Case-insensitive."),
				"timestamp":   intSchema("Issue instant returned by the request step."),
				"device_info": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
			})),
			Responses: envelopeResponses("ActivateResult"),
		},
	})

	doc.Paths.Set("/api/v1/auth/verify", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "verify",
			Summary:     "Verify a token's signature and expiry",
			RequestBody: jsonBody(objectSchema(openapi3.Schemas{
				"token": refSchema("Token"),
			})),
			Responses: envelopeResponses("VerifyResult"),
		},
	})

	doc.Paths.Set("/api/v1/status", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "status",
			Summary:     "System status aggregate",
			Responses:   envelopeResponses("StatusResult"),
		},
	})
}

func addOpsPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/v1/ops/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "opsSession",
			Summary:     "Exchange the operator key for a bearer session",
			RequestBody: jsonBody(objectSchema(openapi3.Schemas{
				"operator_key": stringSchema(""),
			})),
			Responses: envelopeResponses("Result"),
		},
	})

	bearer := openapi3.SecurityRequirements{{"bearerAuth": {}}}

	doc.Paths.Set("/api/v1/ops/sweep", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "opsSweep",
			Summary:     "Mark expired activations",
			Security:    &bearer,
			Responses:   envelopeResponses("SweepResult"),
		},
	})

	doc.Paths.Set("/api/v1/ops/activations", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "opsActivations",
			Summary:     "List every activation record",
			Security:    &bearer,
			Responses:   envelopeResponses("Result"),
		},
	})
}

// Handler serves the generated document as JSON.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := Generate("/", "1.0.0")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(doc)
	}
}

// ---------------------------------------------------------------------------
// Schema construction helpers
// ---------------------------------------------------------------------------

func objectSchema(props openapi3.Schemas) *openapi3.Schema {
	return &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
	}
}

func stringSchema(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc}}
}

func intSchema(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64", Description: desc}}
}

func boolSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}
}

func refSchema(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
}

// resultSchema builds an envelope schema: the shared Result fields plus the
// operation's own properties.
func resultSchema(props openapi3.Schemas) *openapi3.SchemaRef {
	merged := openapi3.Schemas{
		"success":    boolSchema(),
		"message":    stringSchema(""),
		"error_code": stringSchema(""),
	}
	for k, v := range props {
		merged[k] = v
	}
	return &openapi3.SchemaRef{Value: objectSchema(merged)}
}

func jsonBody(schema *openapi3.Schema) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchema(schema),
		},
	}
}

func envelopeResponses(schemaName string) *openapi3.Responses {
	responses := openapi3.NewResponses()
	desc := "Result envelope. Domain rejections use HTTP 200 with success=false."
	responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: refSchema(schemaName),
				},
			},
		},
	})
	return responses
}
