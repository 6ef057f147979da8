package apidoc

import (
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Route documents a single operation. Call Build to add it to the document.
type Route struct {
	doc       *Document
	method    string
	path      string
	operation *openapi3.Operation
}

func (r *Route) pathParams() {
	for _, part := range strings.Split(r.path, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}")
			r.param(name, openapi3.ParameterInPath).Required = true
		}
	}
}

func (r *Route) param(name, in string) *openapi3.Parameter {
	for _, p := range r.operation.Parameters {
		if p.Value != nil && p.Value.Name == name && p.Value.In == in {
			return p.Value
		}
	}
	p := &openapi3.Parameter{
		Name:   name,
		In:     in,
		Schema: openapi3.NewStringSchema().NewRef(),
	}
	r.operation.Parameters = append(r.operation.Parameters, &openapi3.ParameterRef{Value: p})
	return p
}

func (r *Route) Summary(summary string) *Route {
	r.operation.Summary = summary
	return r
}

func (r *Route) Tags(tags ...string) *Route {
	r.operation.Tags = append(r.operation.Tags, tags...)
	return r
}

func (r *Route) OperationID(id string) *Route {
	r.operation.OperationID = id
	return r
}

func (r *Route) PathParam(name, description string) *Route {
	r.param(name, openapi3.ParameterInPath).Description = description
	return r
}

func (r *Route) QueryParam(name, description string) *Route {
	r.param(name, openapi3.ParameterInQuery).Description = description
	return r
}

func (r *Route) IntQueryParam(name, description string) *Route {
	p := r.param(name, openapi3.ParameterInQuery)
	p.Description = description
	p.Schema = openapi3.NewIntegerSchema().WithMin(1).NewRef()
	return r
}

func (r *Route) CookieParam(name, description string) *Route {
	r.param(name, openapi3.ParameterInCookie).Description = description
	return r
}

// Body documents a JSON request body shaped like example.
func (r *Route) Body(example any, description string) *Route {
	r.content(openapi3.NewContentWithJSONSchemaRef(r.doc.schemaFor(example)), description)
	return r
}

// Multipart documents a multipart/form-data body. Fields are plain strings
// unless listed in files.
func (r *Route) Multipart(description string, fields []string, files ...string) *Route {
	schema := openapi3.NewObjectSchema()
	for _, f := range fields {
		schema.Properties[f] = openapi3.NewStringSchema().NewRef()
	}
	for _, f := range files {
		schema.Properties[f] = openapi3.NewArraySchema().
			WithItems(openapi3.NewStringSchema().WithFormat("binary")).NewRef()
	}

	if r.operation.RequestBody == nil {
		r.content(openapi3.Content{}, description)
	}
	r.operation.RequestBody.Value.Content["multipart/form-data"] = openapi3.NewMediaType().WithSchema(schema)
	return r
}

func (r *Route) content(content openapi3.Content, description string) {
	if r.operation.RequestBody == nil {
		r.operation.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithDescription(description).WithContent(content),
		}
		return
	}
	for k, v := range content {
		r.operation.RequestBody.Value.Content[k] = v
	}
}

// Response documents a reply wrapped in the standard envelope with data
// shaped like example.
func (r *Route) Response(status int, example any, description string) *Route {
	envelope := openapi3.NewObjectSchema().
		WithProperty("statusCode", openapi3.NewIntegerSchema()).
		WithPropertyRef("data", r.doc.schemaFor(example)).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("success", openapi3.NewBoolSchema())

	r.operation.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithJSONSchema(envelope),
	})
	return r
}

// Plain documents a reply that is not wrapped in the envelope.
func (r *Route) Plain(status int, example any, description string) *Route {
	r.operation.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithContent(openapi3.NewContentWithJSONSchemaRef(r.doc.schemaFor(example))),
	})
	return r
}

// Errors documents error replies, which all share the envelope with null data.
func (r *Route) Errors(statuses ...int) *Route {
	for _, status := range statuses {
		r.Response(status, nil, errorDescriptions[status])
	}
	return r
}

var errorDescriptions = map[int]string{
	400: "Invalid input",
	401: "Missing or invalid credentials",
	404: "Not found",
	409: "Email already registered",
	429: "Too many requests",
	500: "Internal error",
}

// Secured marks the operation as requiring any one of the schemes.
func (r *Route) Secured(schemes ...string) *Route {
	reqs := openapi3.NewSecurityRequirements()
	for _, scheme := range schemes {
		reqs.With(openapi3.NewSecurityRequirement().Authenticate(scheme))
	}
	r.operation.Security = reqs
	return r
}

func (r *Route) Build() {
	r.doc.add(r.method, r.path, r.operation)
}
