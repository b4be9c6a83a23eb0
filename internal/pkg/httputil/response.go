package httputil

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/maple/policydesk/internal/pkg/logger"
)

// InternalErrorMessage is the only text a client ever sees for a 5xx.
const InternalErrorMessage = "Internal Server Error has occurred."

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	XMLName xml.Name            `json:"-" xml:"Error"`
	Error   string              `json:"error" xml:"Message"`
	Code    string              `json:"code,omitempty" xml:"Code,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty" xml:"-"`
	Fields  []FieldError        `json:"-" xml:"Errors>Field,omitempty"`
}

// FieldError is the XML rendering of one entry in ErrorResponse.Errors.
type FieldError struct {
	Name     string   `xml:"name,attr"`
	Messages []string `xml:"Message"`
}

// WantsXML reports whether the request prefers an XML body.
func WantsXML(r *http.Request) bool {
	if r == nil {
		return false
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch mt {
		case "application/xml", "text/xml":
			return true
		case "application/json", "*/*":
			return false
		}
	}
	return false
}

// Write renders data as XML when the client asks for it, JSON otherwise.
func Write(w http.ResponseWriter, r *http.Request, status int, data any) {
	if WantsXML(r) {
		XML(w, status, data)
		return
	}
	JSON(w, status, data)
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("json encode failed", "error", err)
	}
}

// XML writes an XML response. Slices are wrapped in an ArrayOf<Type> root.
func XML(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(xmlRoot(data)); err != nil {
		logger.Error("xml encode failed", "error", err)
	}
}

type xmlArray struct {
	XMLName xml.Name
	Items   any
}

func xmlRoot(data any) any {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return data
	}
	elem := v.Type().Elem()
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	return xmlArray{XMLName: xml.Name{Local: "ArrayOf" + elem.Name()}, Items: data}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	Write(w, r, http.StatusOK, data)
}

// Created writes a 201 response with a Location header.
func Created(w http.ResponseWriter, r *http.Request, location string, data any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	Write(w, r, http.StatusCreated, data)
}

// NoContent writes a 204 response with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error envelope. Use for client errors (4xx).
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	Write(w, r, status, ErrorResponse{Error: message})
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadRequest, message)
}

// NotFound writes a 404 error.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusNotFound, message)
}

// Validation writes a 400 with a field-level message, the shape clients of
// the old API parse: {"errors": {"Rate": ["Rate not found!"]}}.
func Validation(w http.ResponseWriter, r *http.Request, field, message string) {
	ValidationFields(w, r, map[string][]string{field: {message}})
}

// ValidationFields writes a 400 carrying several field messages.
func ValidationFields(w http.ResponseWriter, r *http.Request, fields map[string][]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	xmlFields := make([]FieldError, 0, len(names))
	for _, name := range names {
		xmlFields = append(xmlFields, FieldError{Name: name, Messages: fields[name]})
	}
	Write(w, r, http.StatusBadRequest, ErrorResponse{
		Error:  "One or more validation errors occurred.",
		Code:   "validation_failed",
		Errors: fields,
		Fields: xmlFields,
	})
}

// InternalError writes a 500 error. Logs the real error but returns a
// generic message to the client (never leak internals).
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("internal error", "error", err, "path", pathOf(r))
	Write(w, r, http.StatusInternalServerError, ErrorResponse{Error: InternalErrorMessage})
}

func pathOf(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Path
}
