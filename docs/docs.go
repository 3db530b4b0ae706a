// Package docs registers the Wishly OpenAPI document with swag so that
// http-swagger can serve it under /swagger/.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new account"}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Exchange credentials for a JWT"}},
        "/users/me": {
            "get": {"tags": ["users"], "summary": "Current user profile", "security": [{"BearerAuth": []}]},
            "put": {"tags": ["users"], "summary": "Update display name", "security": [{"BearerAuth": []}]}
        },
        "/users/me/avatar": {"post": {"tags": ["users"], "summary": "Upload avatar image", "security": [{"BearerAuth": []}]}},
        "/users/search": {"get": {"tags": ["users"], "summary": "Find a user by exact e-mail", "security": [{"BearerAuth": []}]}},
        "/occasions": {
            "get": {"tags": ["occasions"], "summary": "Occasions I am a member of", "security": [{"BearerAuth": []}]},
            "post": {"tags": ["occasions"], "summary": "Create an occasion", "security": [{"BearerAuth": []}]}
        },
        "/occasions/{occasionID}": {
            "get": {"tags": ["occasions"], "summary": "Occasion details with members and my assignment", "security": [{"BearerAuth": []}]},
            "put": {"tags": ["occasions"], "summary": "Update an occasion (creator only)", "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["occasions"], "summary": "Delete an occasion (creator only)", "security": [{"BearerAuth": []}]}
        },
        "/occasions/{occasionID}/members/me": {"delete": {"tags": ["occasions"], "summary": "Leave an occasion", "security": [{"BearerAuth": []}]}},
        "/occasions/{occasionID}/members/{userID}": {"delete": {"tags": ["occasions"], "summary": "Remove a member (creator only)", "security": [{"BearerAuth": []}]}},
        "/occasions/{occasionID}/members/{userID}/items": {"get": {"tags": ["items"], "summary": "A member's wishlist for an occasion", "security": [{"BearerAuth": []}]}},
        "/occasions/{occasionID}/invites": {
            "get": {"tags": ["invites"], "summary": "Invites sent for an occasion", "security": [{"BearerAuth": []}]},
            "post": {"tags": ["invites"], "summary": "Invite someone to an occasion by e-mail", "security": [{"BearerAuth": []}]}
        },
        "/occasions/{occasionID}/items": {"post": {"tags": ["items"], "summary": "Add an item to my wishlist for an occasion", "security": [{"BearerAuth": []}]}},
        "/occasions/{occasionID}/items/mine": {"get": {"tags": ["items"], "summary": "My items for an occasion", "security": [{"BearerAuth": []}]}},
        "/occasions/{occasionID}/match": {
            "post": {"tags": ["matching"], "summary": "Draw Secret Santa pairs (creator only)", "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["matching"], "summary": "Discard the draw so it can be run again (creator only)", "security": [{"BearerAuth": []}]}
        },
        "/occasions/{occasionID}/assignment": {"get": {"tags": ["matching"], "summary": "Who I am buying for", "security": [{"BearerAuth": []}]}},
        "/invites": {"get": {"tags": ["invites"], "summary": "My pending invites", "security": [{"BearerAuth": []}]}},
        "/invites/token/{token}": {"get": {"tags": ["invites"], "summary": "Preview an invite link", "security": [{"BearerAuth": []}]}},
        "/invites/token/{token}/accept": {"post": {"tags": ["invites"], "summary": "Join an occasion through an invite link", "security": [{"BearerAuth": []}]}},
        "/invites/{inviteID}/accept": {"post": {"tags": ["invites"], "summary": "Accept an invite addressed to me", "security": [{"BearerAuth": []}]}},
        "/invites/{inviteID}/decline": {"post": {"tags": ["invites"], "summary": "Decline an invite addressed to me", "security": [{"BearerAuth": []}]}},
        "/items/mine": {"get": {"tags": ["items"], "summary": "All my items across occasions", "security": [{"BearerAuth": []}]}},
        "/items/{itemID}": {
            "put": {"tags": ["items"], "summary": "Update my item", "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["items"], "summary": "Delete my item", "security": [{"BearerAuth": []}]}
        },
        "/items/{itemID}/image": {"post": {"tags": ["items"], "summary": "Upload a picture for my item", "security": [{"BearerAuth": []}]}},
        "/items/{itemID}/purchase": {
            "post": {"tags": ["items"], "summary": "Mark someone else's item as bought", "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["items"], "summary": "Undo my purchase mark", "security": [{"BearerAuth": []}]}
        },
        "/ws/occasions/{occasionID}": {"get": {"tags": ["realtime"], "summary": "Realtime occasion events"}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Wishly API",
	Description:      "Shared wishlists and Secret Santa draws.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
