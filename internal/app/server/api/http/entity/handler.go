package entity

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	domain "studiosync/internal/domain/entity"
)

type Handler struct {
	service    domain.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service domain.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.upsertOp(), h.upsert)
	huma.Register(api, h.deleteOp(), h.delete)
	huma.Register(api, h.getOp(), h.get)
	huma.Register(api, h.listOp(), h.list)
}

func (h *Handler) upsert(ctx context.Context, input *upsertInput) (*upsertOutput, error) {
	env := domain.Envelope{
		Type:      domain.Type(input.Type),
		ID:        input.ID,
		Payload:   input.Body.Payload,
		UpdatedAt: input.Body.UpdatedAt,
		Deleted:   input.Body.Deleted,
	}
	if err := h.service.Upsert(ctx, env); err != nil {
		return nil, mapError(err)
	}
	return &upsertOutput{Body: ackResponse{Status: "OK"}}, nil
}

func (h *Handler) delete(ctx context.Context, input *deleteInput) (*deleteOutput, error) {
	if err := h.service.Delete(ctx, domain.Type(input.Type), input.ID); err != nil {
		return nil, mapError(err)
	}
	return &deleteOutput{Body: ackResponse{Status: "OK"}}, nil
}

func (h *Handler) get(ctx context.Context, input *getInput) (*getOutput, error) {
	env, err := h.service.Get(ctx, domain.Type(input.Type), input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &getOutput{Body: *env}, nil
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	rows, err := h.service.ListUpdatedSince(ctx, domain.Type(input.Type), input.Since)
	if err != nil {
		return nil, mapError(err)
	}
	if rows == nil {
		rows = []domain.Envelope{}
	}
	return &listOutput{Body: listResponse{Rows: rows}}, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownType),
		errors.Is(err, domain.ErrMissingID),
		errors.Is(err, domain.ErrEmptyPayload):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	default:
		return huma.Error500InternalServerError("internal error")
	}
}
