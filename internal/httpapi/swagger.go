package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Current training run status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": { "$ref": "#/definitions/types.StatusResponse" }
                    }
                }
            }
        },
        "/healthz": {
            "get": {
                "summary": "Liveness probe",
                "responses": { "200": { "description": "ok" } }
            }
        },
        "/readyz": {
            "get": {
                "summary": "Readiness probe, 503 once the run failed",
                "responses": {
                    "200": { "description": "ready" },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": { "$ref": "#/definitions/types.ErrorResponse" }
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["text/plain"],
                "summary": "Prometheus metrics",
                "responses": { "200": { "description": "OK" } }
            }
        }
    },
    "definitions": {
        "types.EpochStatus": {
            "type": "object",
            "properties": {
                "epoch": { "type": "integer" },
                "loss": { "type": "number" },
                "dev_metric": { "type": "number" },
                "improved": { "type": "boolean" },
                "train_seconds": { "type": "number" },
                "dev_seconds": { "type": "number" }
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": { "type": "string" },
                "code": { "type": "integer" }
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": { "type": "string" },
                "output": { "type": "string" },
                "epoch": { "type": "integer" },
                "start_epoch": { "type": "integer" },
                "max_epoch": { "type": "integer" },
                "patience": { "type": "integer" },
                "patience_left": { "type": "integer" },
                "best_dev_metric": { "type": "number" },
                "last_epoch": { "$ref": "#/definitions/types.EpochStatus" },
                "stop_reason": { "type": "string" },
                "error": { "type": "string" }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "trainloop status API",
	Description:      "Read-only status, health and metrics of a running training loop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI and doc.json under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
