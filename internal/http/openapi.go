package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
)

// apiDoc is the document gin-swagger serves at /swagger/doc.json. It is
// rebuilt from the gin route table whenever a server is created, so every
// registered /api route is listed.
type apiDoc struct {
	mu  sync.RWMutex
	doc string
}

func (d *apiDoc) ReadDoc() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc
}

func (d *apiDoc) set(doc string) {
	d.mu.Lock()
	d.doc = doc
	d.mu.Unlock()
}

var openAPI = &apiDoc{doc: "{}"}

// swag.Register panics on a second registration under one name
func init() { swag.Register(swag.Name, openAPI) }

const apiBase = "/api"

type swaggerInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

type swaggerParam struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
	Type     string `json:"type"`
}

type swaggerResponse struct {
	Description string `json:"description"`
}

type swaggerOperation struct {
	OperationID string                     `json:"operationId"`
	Tags        []string                   `json:"tags"`
	Produces    []string                   `json:"produces"`
	Parameters  []swaggerParam             `json:"parameters,omitempty"`
	Responses   map[string]swaggerResponse `json:"responses"`
}

type swaggerDoc struct {
	Swagger  string                                 `json:"swagger"`
	Info     swaggerInfo                            `json:"info"`
	BasePath string                                 `json:"basePath"`
	Paths    map[string]map[string]swaggerOperation `json:"paths"`
}

// buildDoc lists every /api route as a Swagger 2.0 operation. Handler names
// become operation ids and the first path segment becomes the tag.
func buildDoc(routes gin.RoutesInfo) (string, error) {
	doc := swaggerDoc{
		Swagger: "2.0",
		Info: swaggerInfo{
			Title:       "canokart API",
			Description: "Catalog, cart, checkout and order management. Errors are {\"error\": message}.",
			Version:     "1.0",
		},
		BasePath: apiBase,
		Paths:    make(map[string]map[string]swaggerOperation),
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, apiBase+"/") {
			continue
		}
		path, params := swaggerPath(strings.TrimPrefix(r.Path, apiBase))
		op := swaggerOperation{
			OperationID: operationID(r.Handler),
			Tags:        []string{tagOf(path)},
			Produces:    []string{"application/json"},
			Parameters:  params,
			Responses: map[string]swaggerResponse{
				"default": {Description: http.StatusText(http.StatusOK)},
			},
		}
		if doc.Paths[path] == nil {
			doc.Paths[path] = make(map[string]swaggerOperation)
		}
		doc.Paths[path][strings.ToLower(r.Method)] = op
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// swaggerPath turns /products/:id into /products/{id}
func swaggerPath(path string) (string, []swaggerParam) {
	parts := strings.Split(path, "/")
	var params []swaggerParam
	for i, p := range parts {
		if p == "" || (p[0] != ':' && p[0] != '*') {
			continue
		}
		name := p[1:]
		parts[i] = "{" + name + "}"
		params = append(params, swaggerParam{Name: name, In: "path", Required: true, Type: "string"})
	}
	return strings.Join(parts, "/"), params
}

// operationID strips the package and receiver from a handler name such as
// canokart/internal/http.(*Server).listProducts-fm
func operationID(handler string) string {
	name := strings.TrimSuffix(handler, "-fm")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func tagOf(path string) string {
	seg := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]
	if seg == "" {
		return "system"
	}
	return seg
}
