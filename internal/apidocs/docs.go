// Package apidocs registers the OpenAPI document of the risk API with swag so
// gin-swagger can serve it under /swagger/. It follows the handler
// annotations in cmd/server.
package apidocs

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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Request, run and compression counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/cache/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Result cache statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/analyze": {
            "post": {
                "description": "Scores every sprint of the uploaded task table against the requirements text. Accepts a JSON body or a multipart form with requirements and sprints files.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json", "text/csv"],
                "tags": ["analysis"],
                "summary": "Score sprint delivery risk",
                "parameters": [
                    {"description": "Inline inputs", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/AnalyzeRequest"}},
                    {"enum": ["json", "csv"], "type": "string", "description": "Response format", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AnalyzeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/AppError"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/AppError"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/AppError"}}
                }
            }
        },
        "/profiles": {
            "get": {
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "List stored scoring profiles",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/profiles/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "Get a scoring profile",
                "parameters": [
                    {"type": "string", "description": "Profile name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/AppError"}}
                }
            },
            "put": {
                "security": [{"AdminBearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "Create or replace a scoring profile",
                "parameters": [
                    {"type": "string", "description": "Profile name", "name": "name", "in": "path", "required": true},
                    {"description": "Scoring profile", "name": "profile", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/AppError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/AppError"}}
                }
            }
        },
        "/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "List recent runs",
                "parameters": [
                    {"type": "integer", "description": "Maximum runs to return", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"runs": {"type": "array", "items": {"$ref": "#/definitions/RunSummary"}}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/AppError"}}
                }
            }
        },
        "/runs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get a stored run with its report",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/AppError"}}
                }
            },
            "delete": {
                "security": [{"AdminBearer": []}],
                "tags": ["runs"],
                "summary": "Delete a stored run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/AppError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/AppError"}}
                }
            }
        },
        "/runs/{id}/risk.csv": {
            "get": {
                "produces": ["text/csv"],
                "tags": ["runs"],
                "summary": "Download the combined risk CSV of a run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/AppError"}}
                }
            }
        },
        "/pools/database": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "SQLite connection pool statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "AnalyzeRequest": {
            "type": "object",
            "required": ["sprints_csv"],
            "properties": {
                "requirements": {"type": "string"},
                "sprints_csv": {"type": "string"},
                "profile": {"type": "string"}
            }
        },
        "AnalyzeResponse": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "cached": {"type": "boolean"},
                "report": {
                    "type": "object",
                    "properties": {
                        "ambiguity": {"type": "object"},
                        "overload": {"type": "object"},
                        "rows": {"type": "array", "items": {"$ref": "#/definitions/RiskRow"}},
                        "warnings": {"type": "array", "items": {"type": "object"}}
                    }
                }
            }
        },
        "RiskRow": {
            "type": "object",
            "properties": {
                "sprint": {"type": "string"},
                "ambiguity_score": {"type": "number"},
                "overload_score": {"type": "number"},
                "composite_score": {"type": "number"},
                "risk_level": {"type": "string", "enum": ["Low", "Medium", "High"]},
                "recommendation": {"type": "string", "enum": ["Monitor", "Review Soon", "Immediate Action Required"]}
            }
        },
        "RunSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "input_hash": {"type": "string"},
                "profile": {"type": "string"},
                "overload_mode": {"type": "string"},
                "ambiguity_score": {"type": "number"},
                "sprint_count": {"type": "integer"},
                "high_count": {"type": "integer"},
                "medium_count": {"type": "integer"},
                "low_count": {"type": "integer"},
                "degraded": {"type": "boolean"},
                "precision": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "category": {"type": "string"},
                "http_status": {"type": "integer"},
                "timestamp": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "AdminBearer": {
            "description": "HS256 admin token as \"Bearer <token>\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Sprint Risk-o-Meter API",
	Description:      "Scores sprint delivery risk from requirement ambiguity and team overload.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
