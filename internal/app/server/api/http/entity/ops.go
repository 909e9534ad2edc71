package entity

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) upsertOp() huma.Operation {
	return huma.Operation{
		OperationID: "entity-upsert",
		Method:      http.MethodPut,
		Path:        "/api/sync/entities/{type}/{id}",
		Summary:     "Upsert an entity row",
		Description: "Stores the full entity snapshot under its id; replaying the same snapshot is a no-op",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "entity-delete",
		Method:      http.MethodDelete,
		Path:        "/api/sync/entities/{type}/{id}",
		Summary:     "Delete an entity row",
		Description: "Removes the row, leaving a tombstone for pulling clients",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "entity-get",
		Method:      http.MethodGet,
		Path:        "/api/sync/entities/{type}/{id}",
		Summary:     "Get a single entity row",
		Description: "Returns the server copy of the row, tombstones included",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "entity-list-updated-since",
		Method:      http.MethodGet,
		Path:        "/api/sync/entities/{type}",
		Summary:     "List rows updated since a timestamp",
		Description: "Returns rows of the type whose updated_at is after the given lower bound",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}
