// Package docs registers the OpenAPI description of the HTTP API with swag.
// Regenerate with `swag init -g cmd/app/main.go -o internal/docs` after
// changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/humanize": {"post": {"tags": ["humanize"], "summary": "Humanize text", "produces": ["text/plain"], "responses": {"200": {"description": "Chunked text stream"}, "400": {"description": "Validation failed or word quota exceeded"}, "401": {"description": "Unauthorized"}, "404": {"description": "User or profile not found"}, "429": {"description": "Too many requests"}, "500": {"description": "Upstream service failed"}}}},
        "/humanize/fast": {"post": {"tags": ["humanize"], "summary": "Humanize text with the fast model", "produces": ["text/plain"], "responses": {"200": {"description": "Chunked text stream"}}}},
        "/history": {"get": {"tags": ["history"], "summary": "List conversion history", "parameters": [{"type": "integer", "default": 10, "name": "limit", "in": "query"}, {"type": "integer", "default": 0, "name": "offset", "in": "query"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HistoryListResponseDTO"}}, "400": {"description": "Invalid pagination parameters"}}}},
        "/history/{id}": {"delete": {"tags": ["history"], "summary": "Delete a history entry", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "Deleted"}, "403": {"description": "Entry belongs to another user"}, "404": {"description": "Not found"}}}},
        "/history/export": {"post": {"tags": ["history"], "summary": "Export conversion history", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HistoryExportResponseDTO"}}, "503": {"description": "Object storage is not configured"}}}},
        "/profile": {
            "get": {"tags": ["profile"], "summary": "Get the caller's profile", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ProfileResponseDTO"}}}},
            "patch": {"tags": ["profile"], "summary": "Update profile preferences", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ProfileResponseDTO"}}, "400": {"description": "Validation failed"}}}
        },
        "/paystack/plans": {"get": {"tags": ["paystack"], "summary": "List purchasable plans and top-up packs", "responses": {"200": {"description": "OK"}}}},
        "/paystack/initialize": {"post": {"tags": ["paystack"], "summary": "Start a Paystack checkout", "responses": {"200": {"description": "OK"}, "400": {"description": "Specify either a plan or a pack"}}}},
        "/paystack/verify": {"get": {"tags": ["paystack"], "summary": "Verify a Paystack transaction", "parameters": [{"type": "string", "name": "reference", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Reference belongs to another user"}}}},
        "/paystack/webhook": {"post": {"tags": ["paystack"], "summary": "Receive Paystack events", "parameters": [{"type": "string", "name": "x-paystack-signature", "in": "header", "required": true}], "responses": {"200": {"description": "Event applied or ignored"}, "401": {"description": "Invalid signature"}, "500": {"description": "Event could not be applied"}}}},
        "/paystack/cancel-subscription": {"post": {"tags": ["paystack"], "summary": "Stop the caller's subscription from renewing", "responses": {"200": {"description": "OK"}, "400": {"description": "No active subscription"}}}},
        "/paystack/manage-subscription": {"get": {"tags": ["paystack"], "summary": "Get a Paystack link for updating the subscription card", "responses": {"200": {"description": "OK"}}}},
        "/ai-check": {"post": {"tags": ["ai-check"], "summary": "Score text for AI authorship", "responses": {"200": {"description": "OK"}, "400": {"description": "Validation failed"}}}},
        "/auth/google": {"get": {"tags": ["auth"], "summary": "Start Google sign-in", "responses": {"302": {"description": "Redirect to Google"}}}},
        "/auth/google/callback": {"get": {"tags": ["auth"], "summary": "Complete Google sign-in", "responses": {"200": {"description": "OK"}, "400": {"description": "State mismatch or missing code"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "summary": "Get the signed-in user", "responses": {"200": {"description": "OK"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Clear the session cookie", "responses": {"204": {"description": "Signed out"}}}},
        "/dev/reset-balance": {"post": {"tags": ["dev"], "summary": "Restore default balances (development only)", "responses": {"200": {"description": "OK"}, "403": {"description": "Not in development"}}}},
        "/dev/grant-words": {"post": {"tags": ["dev"], "summary": "Add words to the extra balance (development only)", "responses": {"200": {"description": "OK"}, "403": {"description": "Not in development"}}}}
    },
    "definitions": {
        "dto.HistoryEntryDTO": {"type": "object", "properties": {"id": {"type": "string"}, "original_text": {"type": "string"}, "humanized_text": {"type": "string"}, "words_count": {"type": "integer"}, "style": {"type": "string"}, "created_at": {"type": "string"}}},
        "dto.HistoryListResponseDTO": {"type": "object", "properties": {"history": {"type": "array", "items": {"$ref": "#/definitions/dto.HistoryEntryDTO"}}, "total": {"type": "integer"}, "limit": {"type": "integer"}, "offset": {"type": "integer"}}},
        "dto.HistoryExportResponseDTO": {"type": "object", "properties": {"url": {"type": "string"}, "key": {"type": "string"}, "entries": {"type": "integer"}, "expires_at": {"type": "string"}}},
        "dto.ProfileResponseDTO": {"type": "object", "properties": {"user_id": {"type": "string"}, "full_name": {"type": "string"}, "preferred_style": {"type": "string"}, "words_balance": {"type": "integer"}, "extra_words_balance": {"type": "integer"}, "words_limit": {"type": "integer"}, "words_per_request": {"type": "integer"}, "plan": {"type": "string"}, "status": {"type": "string"}, "billing_period": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Humanizer API",
	Description:      "Text humanization, word balances and Paystack billing.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
