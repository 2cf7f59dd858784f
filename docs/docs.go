// Package docs holds the OpenAPI description served under /swagger/.
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
        "/reverse-proxy-url": {
            "get": {
                "produces": ["application/json"],
                "summary": "Order API location",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/main.urlResponse"}}}
            }
        },
        "/catalog": {
            "get": {
                "produces": ["application/json"],
                "summary": "List catalog",
                "parameters": [{"type": "string", "description": "Search keyword", "name": "keyword", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/catalog.Product"}}}}
            }
        },
        "/catalog/keyword": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Set search keyword",
                "parameters": [{"description": "Keyword", "name": "keyword", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.keywordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/terminal.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/catalog/reload": {
            "post": {
                "produces": ["application/json"],
                "summary": "Reload catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.reloadResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/catalog/sample": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Start with sample data",
                "parameters": [{"description": "Products", "name": "products", "in": "body", "schema": {"type": "array", "items": {"$ref": "#/definitions/catalog.Product"}}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/catalog.Product"}}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/catalog/blank": {
            "post": {
                "summary": "Start blank",
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/session": {
            "get": {
                "produces": ["application/json"],
                "summary": "Session state",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/terminal.Snapshot"}}}
            }
        },
        "/cart": {
            "delete": {
                "produces": ["application/json"],
                "summary": "Clear",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/terminal.Snapshot"}}}
            }
        },
        "/cart/items": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Add to cart",
                "parameters": [{"description": "Product type", "name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.addItemRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/terminal.Snapshot"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/main.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/cart/items/{type}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Adjust quantity",
                "parameters": [
                    {"type": "integer", "description": "Product type", "name": "type", "in": "path", "required": true},
                    {"description": "Quantity change", "name": "delta", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.adjustRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/terminal.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/cart/products": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Add product to cart",
                "parameters": [{"description": "Product", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/catalog.Product"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/terminal.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/payment/cash": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Set cash",
                "parameters": [{"description": "Amount or text", "name": "cash", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.cashRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/terminal.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Quick tender",
                "parameters": [{"description": "Amount", "name": "cash", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.cashRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/terminal.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/checkout": {
            "post": {
                "produces": ["application/json"],
                "summary": "Submit order",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/terminal.Submission"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/main.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/receipt/print": {
            "post": {
                "produces": ["application/json"],
                "summary": "Print receipt and proceed",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/sale.Sale"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/receipt/close": {
            "post": {
                "produces": ["application/json"],
                "summary": "Close receipt",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/terminal.Snapshot"}}}
            }
        },
        "/fulfillment-orders": {
            "get": {
                "produces": ["application/json"],
                "summary": "Fulfillment orders",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/main.errorResponse"}}
                }
            }
        },
        "/sales": {
            "get": {
                "produces": ["application/json"],
                "summary": "Sales",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/sale.Sale"}}}}
            }
        }
    },
    "definitions": {
        "catalog.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "number"},
                "type": {"type": "integer"},
                "image": {"type": "string"}
            }
        },
        "cart.LineItem": {
            "type": "object",
            "properties": {
                "productType": {"type": "integer"},
                "name": {"type": "string"},
                "image": {"type": "string"},
                "price": {"type": "number"},
                "qty": {"type": "integer"}
            }
        },
        "receipt.Receipt": {
            "type": "object",
            "properties": {
                "receiptNo": {"type": "string"},
                "receiptDate": {"type": "string"},
                "issuedAt": {"type": "string"}
            }
        },
        "order.Item": {
            "type": "object",
            "properties": {"itemType": {"type": "integer"}}
        },
        "order.Order": {
            "type": "object",
            "properties": {
                "commandType": {"type": "integer"},
                "orderSource": {"type": "integer"},
                "location": {"type": "integer"},
                "loyaltyMemberId": {"type": "string"},
                "timestamp": {"type": "string"},
                "baristaItems": {"type": "array", "items": {"$ref": "#/definitions/order.Item"}},
                "kitchenItems": {"type": "array", "items": {"$ref": "#/definitions/order.Item"}}
            }
        },
        "sale.Sale": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "receiptNo": {"type": "string"},
                "receiptDate": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/cart.LineItem"}},
                "total": {"type": "number"},
                "cash": {"type": "number"},
                "change": {"type": "number"},
                "order": {"$ref": "#/definitions/order.Order"},
                "createdAt": {"type": "string"}
            }
        },
        "terminal.Snapshot": {
            "type": "object",
            "properties": {
                "version": {"type": "integer"},
                "state": {"type": "string", "enum": ["idle", "filling", "ready_to_submit", "submitting", "submitted"]},
                "keyword": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/cart.LineItem"}},
                "count": {"type": "integer"},
                "cash": {"type": "number"},
                "total": {"type": "number"},
                "change": {"type": "number"},
                "submitable": {"type": "boolean"},
                "receipt": {"$ref": "#/definitions/receipt.Receipt"},
                "receiptVisible": {"type": "boolean"},
                "lastCue": {"type": "string"},
                "denominations": {"type": "array", "items": {"type": "number"}},
                "firstTime": {"type": "boolean"}
            }
        },
        "terminal.Submission": {
            "type": "object",
            "properties": {
                "receipt": {"$ref": "#/definitions/receipt.Receipt"},
                "order": {"$ref": "#/definitions/order.Order"},
                "ack": {"type": "object"}
            }
        },
        "main.urlResponse": {
            "type": "object",
            "properties": {"url": {"type": "string"}}
        },
        "main.reloadResponse": {
            "type": "object",
            "properties": {
                "applied": {"type": "boolean"},
                "products": {"type": "array", "items": {"$ref": "#/definitions/catalog.Product"}}
            }
        },
        "main.keywordRequest": {
            "type": "object",
            "properties": {"keyword": {"type": "string"}}
        },
        "main.addItemRequest": {
            "type": "object",
            "properties": {"type": {"type": "integer"}}
        },
        "main.adjustRequest": {
            "type": "object",
            "properties": {"delta": {"type": "integer"}}
        },
        "main.cashRequest": {
            "type": "object",
            "properties": {"amount": {"type": "number"}, "text": {"type": "string"}}
        },
        "main.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "POS Terminal API",
	Description:      "Cart, payment and order submission for a coffeeshop point of sale",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
