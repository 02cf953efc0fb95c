// Package docs registers the OpenAPI description served under /swagger.
// It mirrors the route annotations in the httppresentation handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "sellerCookie": {"type": "apiKey", "in": "header", "name": "Cookie", "description": "seller_token=<jwt>"},
        "userCookie": {"type": "apiKey", "in": "header", "name": "Cookie", "description": "token=<jwt>"}
    },
    "paths": {
        "/order/create-order": {
            "post": {
                "tags": ["orders"],
                "summary": "Checkout a cart, one order per shop",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/createOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ordersResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            }
        },
        "/order/get-order/{id}": {
            "get": {
                "tags": ["orders"],
                "summary": "A single order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/orderResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            }
        },
        "/order/get-all-orders/{userId}": {
            "get": {
                "tags": ["orders"],
                "summary": "Orders of a buyer, newest first",
                "parameters": [{"type": "string", "name": "userId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ordersResponse"}}}
            }
        },
        "/order/get-seller-all-orders/{shopId}": {
            "get": {
                "tags": ["orders"],
                "summary": "Orders of a shop, newest first",
                "parameters": [{"type": "string", "name": "shopId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ordersResponse"}}}
            }
        },
        "/order/update-order-status/{id}": {
            "put": {
                "tags": ["orders"],
                "summary": "Dispatch or deliver an order",
                "security": [{"sellerCookie": []}],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/statusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/orderResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            }
        },
        "/order/order-refund/{id}": {
            "put": {
                "tags": ["orders"],
                "summary": "Request a refund",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "input", "in": "body", "schema": {"$ref": "#/definitions/statusRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/orderResponse"}}}
            }
        },
        "/order/order-refund-success/{id}": {
            "put": {
                "tags": ["orders"],
                "summary": "Approve a refund",
                "security": [{"sellerCookie": []}],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "input", "in": "body", "schema": {"$ref": "#/definitions/statusRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/order/admin-all-orders": {
            "get": {
                "tags": ["admin"],
                "summary": "All orders, delivered first",
                "security": [{"userCookie": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ordersResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            }
        },
        "/order/admin-delete-order/{id}": {
            "delete": {
                "tags": ["admin"],
                "summary": "Delete an order",
                "security": [{"userCookie": []}],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            }
        },
        "/product/{id}/inventory": {
            "get": {
                "tags": ["inventory"],
                "summary": "Stock position of a product",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            }
        },
        "/product/{id}/restock": {
            "put": {
                "tags": ["inventory"],
                "summary": "Restock a product",
                "security": [{"sellerCookie": []}],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/restockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            }
        },
        "/shop/{id}/balance": {
            "get": {
                "tags": ["shops"],
                "summary": "Settled balance of the caller's shop",
                "security": [{"sellerCookie": []}],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            }
        }
    },
    "definitions": {
        "errorBody": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "message": {"type": "string"}}
        },
        "item": {
            "type": "object",
            "properties": {
                "productId": {"type": "string"},
                "shopId": {"type": "string"},
                "name": {"type": "string"},
                "qty": {"type": "integer"},
                "discountPrice": {"type": "number"},
                "isReviewed": {"type": "boolean"}
            }
        },
        "address": {
            "type": "object",
            "properties": {
                "country": {"type": "string"},
                "city": {"type": "string"},
                "address1": {"type": "string"},
                "address2": {"type": "string"},
                "zipCode": {"type": "string"},
                "addressType": {"type": "string"}
            }
        },
        "buyer": {
            "type": "object",
            "properties": {"_id": {"type": "string"}, "name": {"type": "string"}, "email": {"type": "string"}}
        },
        "paymentInfo": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "type": {"type": "string"}, "status": {"type": "string"}}
        },
        "createOrderRequest": {
            "type": "object",
            "properties": {
                "cart": {"type": "array", "items": {"$ref": "#/definitions/item"}},
                "shippingAddress": {"$ref": "#/definitions/address"},
                "user": {"$ref": "#/definitions/buyer"},
                "totalPrice": {"type": "number"},
                "paymentInfo": {"$ref": "#/definitions/paymentInfo"},
                "idempotencyKey": {"type": "string"}
            }
        },
        "order": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "shopId": {"type": "string"},
                "cart": {"type": "array", "items": {"$ref": "#/definitions/item"}},
                "shippingAddress": {"$ref": "#/definitions/address"},
                "user": {"$ref": "#/definitions/buyer"},
                "itemsSubtotal": {"type": "number"},
                "cartTotal": {"type": "number"},
                "totalPrice": {"type": "number"},
                "status": {"type": "string", "enum": ["Processing", "Transferred to delivery partner", "Delivered", "Processing refund", "Refund Success"]},
                "paymentInfo": {"$ref": "#/definitions/paymentInfo"},
                "deliveredAt": {"type": "string", "format": "date-time"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "orderResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "order": {"$ref": "#/definitions/order"}}
        },
        "ordersResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "orders": {"type": "array", "items": {"$ref": "#/definitions/order"}}}
        },
        "statusRequest": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "restockRequest": {
            "type": "object",
            "properties": {"qty": {"type": "integer"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "2.0",
	Host:             "",
	BasePath:         "/api/v2",
	Schemes:          []string{},
	Title:            "Marketplace order lifecycle API",
	Description:      "Checkout, order status transitions and seller settlement.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
