// Package docs registers the OpenAPI document served under /swagger. It
// mirrors the @Router annotations of internal/api/handler; running
// `swag init -g cmd/server/main.go` rebuilds it from them.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/auth/login": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Login",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/auth/logout": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Logout",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/auth/me": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Current identity",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/auth/register/client": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Register a client",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/auth/register/provider": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Register a provider",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/v1/forms/{form}/validate": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"forms"
				],
				"summary": "Validate a form",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "form",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/v1/forms/{form}/state": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"forms"
				],
				"summary": "Form state",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "form",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/v1/forms/navigation": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"forms"
				],
				"summary": "Pending navigation of a visitor",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/v1/session/navigation": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"forms"
				],
				"summary": "Pending navigation of a session",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/v1/providers": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"providers"
				],
				"summary": "Search providers",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/v1/providers/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"providers"
				],
				"summary": "Provider details",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/v1/providers/{id}/requests": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"requests"
				],
				"summary": "Request a service",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/v1/requests": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"requests"
				],
				"summary": "List my service requests",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/v1/chat/{provider_id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"chat"
				],
				"summary": "Chat thread",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "provider_id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/v1/chat/{provider_id}/messages": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"chat"
				],
				"summary": "Send a chat message",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "provider_id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/v1/profile": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"profile"
				],
				"summary": "My provider profile",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"put": {
				"produces": [
					"application/json"
				],
				"tags": [
					"profile"
				],
				"summary": "Update my provider profile",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/v1/profile/services": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"profile"
				],
				"summary": "Add an offered service",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/v1/profile/services/{id}": {
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"profile"
				],
				"summary": "Remove an offered service",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/health": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"health"
				],
				"summary": "Liveness probe",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/health/ready": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"health"
				],
				"summary": "Readiness probe",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "FAZ PRA MIM Marketplace API",
	Description:      "Sessions, validated forms, provider search, service requests and chat of the FAZ PRA MIM marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
