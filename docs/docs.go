// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
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
        "/forums": {
            "get": {"tags": ["forums"], "summary": "List root forums", "produces": ["application/json"],
                "responses": {"200": {"description": "Forums retrieved successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}}
        },
        "/forums/{slug}": {
            "get": {"tags": ["forums"], "summary": "Get forum", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/slug"}],
                "responses": {"200": {"description": "Forum retrieved successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Forum not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}}}
        },
        "/forums/{slug}/threads": {
            "get": {"tags": ["threads"], "summary": "List forum threads", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/slug"},
                    {"type": "string", "enum": ["latest", "recent"], "name": "order", "in": "query"},
                    {"$ref": "#/parameters/page"}, {"$ref": "#/parameters/size"}],
                "responses": {"200": {"description": "Threads retrieved successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Forum not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["threads"], "summary": "Create thread",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/slug"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateThreadRequest"}}],
                "responses": {"201": {"description": "Thread created successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Forum not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}}}
        },
        "/forums/{slug}/search": {
            "get": {"tags": ["forums"], "summary": "Search forum posts", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/slug"},
                    {"type": "string", "name": "term", "in": "query", "required": true},
                    {"$ref": "#/parameters/page"}, {"$ref": "#/parameters/size"}],
                "responses": {"200": {"description": "Search results; available=false when search is off", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Missing term", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}}}
        },
        "/threads/{id}": {
            "get": {"tags": ["threads"], "summary": "Get thread", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "Thread retrieved successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Thread not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}}}
        },
        "/threads/{id}/posts": {
            "get": {"tags": ["posts"], "summary": "List thread posts", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/id"}, {"$ref": "#/parameters/page"}, {"$ref": "#/parameters/size"}],
                "responses": {"200": {"description": "Posts retrieved successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Reply to thread",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/id"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ReplyRequest"}}],
                "responses": {"201": {"description": "Reply created successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Thread is closed", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}}}
        },
        "/subscriptions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["subscriptions"], "summary": "List my subscriptions",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Subscriptions retrieved successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["subscriptions"], "summary": "Bulk update my subscriptions",
                "description": "Subscriptions whose thread is missing from keepThreadIds are removed.",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateSubscriptionsRequest"}}],
                "responses": {"200": {"description": "Subscriptions updated", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}}
        },
        "/activity/threads": {
            "get": {"tags": ["activity"], "summary": "Latest thread activity", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/limit"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}}
        },
        "/activity/posts": {
            "get": {"tags": ["activity"], "summary": "Latest posts", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/limit"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}}
        },
        "/activity/users/{id}/posts": {
            "get": {"tags": ["activity"], "summary": "Latest posts of a user", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/id"}, {"$ref": "#/parameters/limit"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}}
        },
        "/staff/forums": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["staff"], "summary": "Create forum",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateForumRequest"}}],
                "responses": {"201": {"description": "Forum created successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Staff permission required", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Slug already in use", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}}}
        },
        "/staff/forums/{slug}/access": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["staff"], "summary": "Set forum access",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/slug"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ForumAccessRequest"}}],
                "responses": {"200": {"description": "Access updated", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}}
        },
        "/staff/threads/{id}/closed": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["staff"], "summary": "Close or reopen thread",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/id"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ThreadClosedRequest"}}],
                "responses": {"200": {"description": "Thread updated", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}}
        }
    },
    "parameters": {
        "slug": {"type": "string", "name": "slug", "in": "path", "required": true},
        "id": {"type": "integer", "format": "int64", "minimum": 1, "name": "id", "in": "path", "required": true},
        "page": {"type": "integer", "name": "page", "in": "query"},
        "size": {"type": "integer", "name": "size", "in": "query"},
        "limit": {"type": "integer", "name": "limit", "in": "query"}
    },
    "definitions": {
        "dto.APIResponse": {"type": "object", "properties": {
            "success": {"type": "boolean"}, "data": {}, "error": {"$ref": "#/definitions/dto.ErrorDetail"},
            "timestamp": {"type": "string"}}},
        "dto.ErrorDetail": {"type": "object", "properties": {
            "code": {"type": "string", "example": "RES_001"}, "message": {"type": "string"},
            "field": {"type": "string"}, "details": {}}},
        "dto.ErrorResponse": {"type": "object", "properties": {
            "success": {"type": "boolean", "example": false}, "error": {"$ref": "#/definitions/dto.ErrorDetail"},
            "timestamp": {"type": "string"}}},
        "dto.CreateThreadRequest": {"type": "object", "required": ["title", "body"], "properties": {
            "title": {"type": "string"}, "body": {"type": "string"}, "subscribe": {"type": "boolean"}}},
        "dto.ReplyRequest": {"type": "object", "required": ["body"], "properties": {
            "body": {"type": "string"}, "subscribe": {"type": "boolean"}}},
        "dto.UpdateSubscriptionsRequest": {"type": "object", "required": ["keepThreadIds"], "properties": {
            "keepThreadIds": {"type": "array", "items": {"type": "integer"}}}},
        "dto.CreateForumRequest": {"type": "object", "required": ["title", "slug"], "properties": {
            "title": {"type": "string"}, "slug": {"type": "string"}, "description": {"type": "string"},
            "parentSlug": {"type": "string"}, "ordering": {"type": "integer"},
            "allowedUsers": {"type": "array", "items": {"type": "integer"}},
            "allowedGroups": {"type": "array", "items": {"type": "integer"}}}},
        "dto.ForumAccessRequest": {"type": "object", "properties": {
            "allowedUsers": {"type": "array", "items": {"type": "integer"}},
            "allowedGroups": {"type": "array", "items": {"type": "integer"}}}},
        "dto.ThreadClosedRequest": {"type": "object", "required": ["closed"], "properties": {
            "closed": {"type": "boolean"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "Identity token issued by the identity provider", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Uniforum API",
	Description:      "Discussion forum: forums, threads, posts and thread subscriptions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
