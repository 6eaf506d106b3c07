package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Mission Hub API",
        "description": "Student management platform: missions, mentors, assignments, mentorship groups",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Students", "description": "Enrollment and invitation flows"},
        {"name": "Assignments", "description": "Assignments and completion tracking"},
        {"name": "Missions", "description": "Mission lifecycle and rosters"},
        {"name": "Mission Mentors", "description": "Mentor capacity and allocation"},
        {"name": "Mentorship Groups", "description": "Group membership management"},
        {"name": "Reports", "description": "Asynchronous exports"}
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
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Enroll a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/students/send-invitations": {
            "post": {
                "tags": ["Students"],
                "summary": "Send invitation emails with temporary credentials",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendInvitationsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-recipient delivery results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}/add-emails": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Record completions from a bulk email list",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddEmailsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Processing summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unpublished assignment or empty list"},
                    "404": {"description": "Assignment not found"}
                }
            }
        },
        "/missions/{id}/roster": {
            "get": {
                "tags": ["Missions"],
                "summary": "Mission roster with students and mentors",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mission-mentors/bulk-operations": {
            "post": {
                "tags": ["Mission Mentors"],
                "summary": "Apply a bulk mentor operation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkMentorOperationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-item results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown operation"}
                }
            }
        },
        "/v2/mission-mentors": {
            "post": {
                "tags": ["Mission Mentors"],
                "summary": "Assign students across mentors",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignMentorsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-mentor results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Capacity exceeded"}
                }
            }
        },
        "/v2/mentorship-groups/{id}": {
            "get": {
                "tags": ["Mentorship Groups"],
                "summary": "Group detail with members",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Mentorship Groups"],
                "summary": "Update group",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateMentorshipGroupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate group name"}
                }
            },
            "delete": {
                "tags": ["Mentorship Groups"],
                "summary": "Delete group, or remove one member via student_id query",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/reports/generate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a CSV or PDF export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Job accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/operations/metrics": {
            "get": {
                "summary": "Aggregated runtime counters for operators",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "EnrollStudentRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "fullName": {"type": "string"}
            },
            "required": ["email", "fullName"]
        },
        "SendInvitationsRequest": {
            "type": "object",
            "properties": {
                "studentIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["studentIds"]
        },
        "AddEmailsRequest": {
            "type": "object",
            "properties": {
                "emailList": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["emailList"]
        },
        "AssignMentorsRequest": {
            "type": "object",
            "properties": {
                "mission_id": {"type": "string"},
                "mentor_ids": {"type": "array", "items": {"type": "string"}},
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "distribute_evenly": {"type": "boolean"},
                "set_primary": {"type": "boolean"}
            },
            "required": ["missionId", "mentorIds"]
        },
        "BulkMentorOperationRequest": {
            "type": "object",
            "properties": {
                "operation": {"type": "string"},
                "missionId": {"type": "string"},
                "items": {"type": "array", "items": {"type": "object"}}
            },
            "required": ["operation", "missionId", "items"]
        },
        "UpdateMentorshipGroupRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "mentorIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["completions", "roster", "mentor_workload", "summary"]},
                "missionId": {"type": "string"},
                "assignmentId": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["type", "missionId", "format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
