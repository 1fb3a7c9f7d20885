package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SignetFlow API",
        "description": "PDF e-signature placement and finalization service",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Documents", "description": "PDF intake and sharing"},
        {"name": "Signatures", "description": "Placement, finalization and lifecycle"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/docs": {
            "get": {
                "tags": ["Documents"],
                "summary": "List the caller's documents",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Upload a PDF for signing",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Not a valid PDF"}
                }
            }
        },
        "/docs/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Fetch one document's metadata",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown document"}
                }
            }
        },
        "/share": {
            "post": {
                "tags": ["Documents"],
                "summary": "Email a signed document link",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ShareRequest"}}
                ],
                "responses": {
                    "200": {"description": "Sent"},
                    "400": {"description": "Document not finalized"}
                }
            }
        },
        "/signature/place": {
            "post": {
                "tags": ["Signatures"],
                "summary": "Place a signature on a document page",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlaceSignatureRequest"}}
                ],
                "responses": {
                    "200": {"description": "Placed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation or out-of-bounds error"}
                }
            }
        },
        "/signature/file/{fileId}": {
            "get": {
                "tags": ["Signatures"],
                "summary": "List a document's pending signatures",
                "parameters": [
                    {"name": "fileId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/signature/finalize": {
            "post": {
                "tags": ["Signatures"],
                "summary": "Bake all eligible signatures into a signed artifact",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FinalizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Finalized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown document"}
                }
            }
        },
        "/signature/accept/{id}": {
            "post": {
                "tags": ["Signatures"],
                "summary": "Accept a placed signature",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Accepted"},
                    "404": {"description": "Unknown signature"}
                }
            }
        },
        "/signature/reject/{id}": {
            "post": {
                "tags": ["Signatures"],
                "summary": "Reject a placed signature",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RejectSignatureRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rejected"},
                    "404": {"description": "Unknown signature"}
                }
            }
        },
        "/signature/remove/{signatureId}": {
            "delete": {
                "tags": ["Signatures"],
                "summary": "Remove one of the caller's signatures",
                "parameters": [
                    {"name": "signatureId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "403": {"description": "Signature belongs to another signer"}
                }
            }
        },
        "/signature/clear-signatures": {
            "delete": {
                "tags": ["Signatures"],
                "summary": "Remove all of the caller's signatures on a document",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClearSignaturesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Cleared", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/signature/audit/{fileId}": {
            "get": {
                "tags": ["Signatures"],
                "summary": "Document signature audit trail",
                "parameters": [
                    {"name": "fileId", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "description": "Set to pdf for a downloadable report"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "PlaceSignatureRequest": {
            "type": "object",
            "properties": {
                "fileId": {"type": "string"},
                "pageNumber": {"type": "integer"},
                "xCoordinate": {"type": "number"},
                "yCoordinate": {"type": "number"},
                "signature": {"type": "string"},
                "font": {"type": "string"},
                "renderedPageHeight": {"type": "number"},
                "renderedPageWidth": {"type": "number"}
            },
            "required": ["fileId", "pageNumber", "xCoordinate", "yCoordinate", "signature", "renderedPageHeight"]
        },
        "FinalizeRequest": {
            "type": "object",
            "properties": {
                "fileId": {"type": "string"}
            },
            "required": ["fileId"]
        },
        "RejectSignatureRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "ClearSignaturesRequest": {
            "type": "object",
            "properties": {
                "fileId": {"type": "string"}
            },
            "required": ["fileId"]
        },
        "ShareRequest": {
            "type": "object",
            "properties": {
                "fileId": {"type": "string"},
                "recipient": {"type": "string"}
            },
            "required": ["fileId", "recipient"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
