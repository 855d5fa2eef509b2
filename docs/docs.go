// Package docs holds the OpenAPI description served under /swagger.
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
        "/tournaments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Create a tournament with its structure and reported matches",
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/tournaments/{tournamentID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Get a tournament with its phases and standings",
                "parameters": [
                    {"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/tournaments/{tournamentID}/phases/{phaseName}/standings": {
            "get": {
                "description": "Computed from completed matches without saving anything.",
                "produces": ["application/json"],
                "tags": ["phases"],
                "summary": "Live standings of a phase",
                "parameters": [
                    {"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "string", "description": "Phase name", "name": "phaseName", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/tournaments/{tournamentID}/phases/{phaseName}/advance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Computes final standings of the phase, marks it completed and moves qualified teams into the next phase. Advancing the last phase completes the tournament.",
                "produces": ["application/json"],
                "tags": ["phases"],
                "summary": "Advance a phase",
                "parameters": [
                    {"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "string", "description": "Phase name", "name": "phaseName", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Phase already advanced or tournament busy", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Save failed", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tournament Phase Progression API",
	Description:      "Standings, qualification and phase advancement for battle-royale tournaments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
