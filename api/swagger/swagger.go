package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Warning API",
        "description": "Academic-warning report lifecycle, versioning and notifications",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Reports", "description": "Academic-warning reports"},
        {"name": "Lifecycle", "description": "Submit, approve, reject and finalize"},
        {"name": "History", "description": "Assessment cycles and note threads"},
        {"name": "Notifications", "description": "Campus notification bell"}
    ],
    "paths": {
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List visible reports",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "q", "in": "query", "type": "string", "description": "Student name or code"},
                    {"name": "period", "in": "query", "type": "string", "enum": ["all", "today", "week", "month"], "description": "Creation date window"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Create a draft report",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReportRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get a report",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Reports"],
                "summary": "Edit a report's content",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Finalized"}}
            },
            "delete": {
                "tags": ["Reports"],
                "summary": "Delete an own report",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Finalized"}}
            }
        },
        "/reports/drafts": {
            "delete": {"tags": ["Reports"], "summary": "Delete every own draft", "responses": {"200": {"description": "OK"}}}
        },
        "/reports/stats": {
            "get": {"tags": ["Reports"], "summary": "Report counts within the caller's visibility", "responses": {"200": {"description": "OK"}}}
        },
        "/reports/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download visible reports",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/reports/{id}/care": {
            "patch": {
                "tags": ["Reports"],
                "summary": "Record the student-affairs care outcome",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reports/submit": {
            "post": {"tags": ["Lifecycle"], "summary": "Submit own drafts; an empty ids list submits all", "responses": {"200": {"description": "Batch result"}}}
        },
        "/reports/finalize": {
            "post": {"tags": ["Lifecycle"], "summary": "Finalize every approved report", "responses": {"200": {"description": "Batch result"}}}
        },
        "/reports/{id}/approve": {
            "post": {
                "tags": ["Lifecycle"],
                "summary": "Approve a submitted report",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Transition result; applied=false when not submitted"}}
            }
        },
        "/reports/{id}/reject": {
            "post": {
                "tags": ["Lifecycle"],
                "summary": "Return a submitted report to draft",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Transition result"}}
            }
        },
        "/reports/{id}/cycles": {
            "get": {
                "tags": ["History"],
                "summary": "List archived assessment cycles",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["History"],
                "summary": "Archive the current state and start a new assessment cycle",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Step failed"}}
            }
        },
        "/reports/{id}/notes/{field}": {
            "get": {
                "tags": ["History"],
                "summary": "List a note thread",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "field", "in": "path", "required": true, "type": "string", "enum": ["status_detail", "teacher_note", "dvsv_note"]}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["History"],
                "summary": "Append to a note thread",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "field", "in": "path", "required": true, "type": "string", "enum": ["status_detail", "teacher_note", "dvsv_note"]}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/notifications": {
            "get": {"tags": ["Notifications"], "summary": "Notifications for the caller's campus", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/unread-count": {
            "get": {"tags": ["Notifications"], "summary": "Unread notification count", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification read",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Marked"}}
            }
        }
    },
    "definitions": {
        "CreateReportRequest": {
            "type": "object",
            "required": ["student_code", "student_name", "class_name", "subject"],
            "properties": {
                "student_code": {"type": "string"},
                "student_name": {"type": "string"},
                "class_name": {"type": "string"},
                "subject": {"type": "string"},
                "campus": {"type": "string", "enum": ["HN", "DN", "HCM", "CT"]},
                "warn_10": {"type": "boolean"},
                "warn_15_17": {"type": "boolean"},
                "warn_20": {"type": "boolean"},
                "banned": {"type": "boolean"},
                "status_detail": {"type": "string"},
                "teacher_note": {"type": "string"},
                "study_status": {"type": "string"},
                "assessment_date": {"type": "string", "format": "date"}
            }
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
