package apidoc

import (
	"encoding/json"
	"net/http"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
)

const schemaPrefix = "#/components/schemas/"

// Document accumulates the OpenAPI description of the API.
type Document struct {
	spec  *openapi3.T
	mu    sync.RWMutex
	names map[string]string // type key -> component name
}

func New(title, version string) *Document {
	return &Document{
		spec: &openapi3.T{
			OpenAPI: "3.0.3",
			Info: &openapi3.Info{
				Title:   title,
				Version: version,
			},
			Paths: openapi3.NewPaths(),
			Components: &openapi3.Components{
				Schemas:         make(openapi3.Schemas),
				SecuritySchemes: make(openapi3.SecuritySchemes),
			},
		},
		names: make(map[string]string),
	}
}

func (d *Document) Description(desc string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Info.Description = desc
	return d
}

func (d *Document) Server(url, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Servers = append(d.spec.Servers, &openapi3.Server{URL: url, Description: description})
	return d
}

func (d *Document) Tag(name, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Tags = append(d.spec.Tags, &openapi3.Tag{Name: name, Description: description})
	return d
}

func (d *Document) BearerAuth(name, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  description,
		},
	}
	return d
}

func (d *Document) CookieAuth(name, cookie, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:        "apiKey",
			In:          "cookie",
			Name:        cookie,
			Description: description,
		},
	}
	return d
}

func (d *Document) Spec() *openapi3.T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.spec
}

func (d *Document) JSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return json.MarshalIndent(d.spec, "", "  ")
}

func (d *Document) YAML() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	intermediate, err := d.spec.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(intermediate)
}

func (d *Document) JSONHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.JSON()
		if err != nil {
			return err
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}

func (d *Document) YAMLHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.YAML()
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, "application/yaml", data)
	}
}

// Operation starts documenting one route. Paths use echo's :param syntax.
func (d *Document) Operation(method, path string) *Route {
	r := &Route{
		doc:       d,
		method:    strings.ToUpper(method),
		path:      toOpenAPIPath(path),
		operation: &openapi3.Operation{Responses: openapi3.NewResponses()},
	}
	r.pathParams()
	return r
}

func (d *Document) add(method, path string, op *openapi3.Operation) {
	d.mu.Lock()
	defer d.mu.Unlock()

	item := d.spec.Paths.Find(path)
	if item == nil {
		item = &openapi3.PathItem{}
		d.spec.Paths.Set(path, item)
	}
	item.SetOperation(method, op)
}

func toOpenAPIPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if name, ok := strings.CutPrefix(part, ":"); ok {
			parts[i] = "{" + name + "}"
		}
	}
	return strings.Join(parts, "/")
}

// schemaFor describes v's type, registering named structs as components.
func (d *Document) schemaFor(v any) *openapi3.SchemaRef {
	d.mu.Lock()
	defer d.mu.Unlock()

	if v == nil {
		return openapi3.NewObjectSchema().NewRef()
	}
	return d.schemaOf(reflect.TypeOf(v), map[reflect.Type]bool{})
}

func (d *Document) schemaOf(t reflect.Type, visiting map[reflect.Type]bool) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.Pointer:
		return d.schemaOf(t.Elem(), visiting)
	case reflect.String:
		return openapi3.NewStringSchema().NewRef()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return openapi3.NewIntegerSchema().NewRef()
	case reflect.Float32, reflect.Float64:
		return openapi3.NewFloat64Schema().NewRef()
	case reflect.Bool:
		return openapi3.NewBoolSchema().NewRef()
	case reflect.Slice, reflect.Array:
		return openapi3.NewArraySchema().WithItems(d.schemaOf(t.Elem(), visiting).Value).NewRef()
	case reflect.Map:
		return openapi3.NewObjectSchema().WithAdditionalProperties(d.schemaOf(t.Elem(), visiting).Value).NewRef()
	case reflect.Struct:
		return d.structRef(t, visiting)
	default:
		return openapi3.NewObjectSchema().NewRef()
	}
}

func (d *Document) structRef(t reflect.Type, visiting map[reflect.Type]bool) *openapi3.SchemaRef {
	if t.PkgPath() == "time" && t.Name() == "Time" {
		return openapi3.NewDateTimeSchema().NewRef()
	}
	if t.Name() == "" {
		return d.structSchema(t, visiting).NewRef()
	}

	if visiting[t] {
		return openapi3.NewObjectSchema().NewRef()
	}
	key := t.PkgPath() + "." + t.Name()
	if name, ok := d.names[key]; ok {
		return openapi3.NewSchemaRef(schemaPrefix+name, d.spec.Components.Schemas[name].Value)
	}

	name := t.Name()
	if _, taken := d.spec.Components.Schemas[name]; taken {
		// hospital.RegisterInput -> HospitalRegisterInput
		pkg := path.Base(t.PkgPath())
		name = strings.ToUpper(pkg[:1]) + pkg[1:] + name
	}
	schema := d.structSchema(t, visiting)
	d.names[key] = name
	d.spec.Components.Schemas[name] = schema.NewRef()
	return openapi3.NewSchemaRef(schemaPrefix+name, schema)
}

func (d *Document) structSchema(t reflect.Type, visiting map[reflect.Type]bool) *openapi3.Schema {
	visiting[t] = true
	defer delete(visiting, t)

	schema := openapi3.NewObjectSchema()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		// embedded structs are flattened like encoding/json does
		if field.Anonymous && name == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				for prop, ref := range d.structSchema(embedded, visiting).Properties {
					schema.Properties[prop] = ref
				}
				continue
			}
		}

		if name == "" {
			name = field.Name
		}
		ref := d.schemaOf(field.Type, visiting)
		if doc := field.Tag.Get("doc"); doc != "" && ref.Ref == "" {
			ref.Value.Description = doc
		}
		schema.Properties[name] = ref
	}
	return schema
}
