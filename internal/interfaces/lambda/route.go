package lambda

import (
	"context"
	"maps"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/motoshop/backend/internal/interfaces/http/dto"
)

type operation func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// API Gateway resource templates served by Route
const (
	resourceCustomers    = "/customers"
	resourceCustomer     = "/customers/{id}"
	resourceCredit       = "/customers/credit"
	resourceSortByCredit = "/customers/sortByCredit"
)

func (h *Handler) routes() map[string]map[string]operation {
	return map[string]map[string]operation{
		resourceCustomers: {
			http.MethodGet:  h.list,
			http.MethodPost: h.create,
		},
		resourceCustomer: {
			http.MethodGet:    h.getByID,
			http.MethodPut:    h.update,
			http.MethodDelete: h.delete,
		},
		resourceCredit: {
			http.MethodPost: h.addCredit,
		},
		resourceSortByCredit: {
			http.MethodGet: h.sortByCredit,
		},
	}
}

// Route dispatches a proxy event to the operation for its method and
// resource, so a single function can serve every route. Events without a
// resource template (e.g. a {proxy+} integration) are matched on their path.
// Every invocation, route misses included, ends with a "Lambda Request" log.
func (h *Handler) Route(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.logged(ctx, req, h.dispatch)
}

func (h *Handler) dispatch(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resource, params := resolveResource(req)
	if resource == "" {
		inv := h.begin(ctx, req)
		return failure(http.StatusNotFound, dto.ErrCodeRouteNotFound,
			"Route "+req.HTTPMethod+" "+req.Path+" not found", inv.requestID), nil
	}

	routes := h.routes()
	method := strings.ToUpper(req.HTTPMethod)
	op, ok := routes[resource][method]
	if !ok && (resource == resourceCredit || resource == resourceSortByCredit) {
		// the static segments shadow {id} only for their own methods
		if op, ok = routes[resourceCustomer][method]; ok {
			params = map[string]string{"id": strings.TrimPrefix(resource, resourceCustomers+"/")}
		}
	}
	if !ok {
		inv := h.begin(ctx, req)
		return failure(http.StatusMethodNotAllowed, dto.ErrCodeMethodNotAllowed,
			"Method "+req.HTTPMethod+" not allowed on "+req.Path, inv.requestID), nil
	}

	if len(params) > 0 {
		merged := make(map[string]string, len(req.PathParameters)+len(params))
		maps.Copy(merged, req.PathParameters)
		maps.Copy(merged, params)
		req.PathParameters = merged
	}
	return op(ctx, req)
}

// resolveResource returns the resource template for req and any path
// parameters extracted while matching a raw path.
func resolveResource(req events.APIGatewayProxyRequest) (string, map[string]string) {
	switch req.Resource {
	case resourceCustomers, resourceCustomer, resourceCredit, resourceSortByCredit:
		return req.Resource, nil
	}

	segments := strings.Split(strings.Trim(req.Path, "/"), "/")
	if len(segments) == 0 || segments[0] != "customers" {
		return "", nil
	}
	switch len(segments) {
	case 1:
		return resourceCustomers, nil
	case 2:
		switch segments[1] {
		case "credit":
			return resourceCredit, nil
		case "sortByCredit":
			return resourceSortByCredit, nil
		case "":
			return "", nil
		default:
			return resourceCustomer, map[string]string{"id": segments[1]}
		}
	default:
		return "", nil
	}
}
