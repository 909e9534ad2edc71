package entity

import (
	"encoding/json"
	"time"

	domain "studiosync/internal/domain/entity"
)

type upsertInput struct {
	Type string `path:"type" doc:"Entity type"`
	ID   string `path:"id" doc:"Entity id"`
	Body struct {
		Payload   json.RawMessage `json:"payload" doc:"Full entity snapshot"`
		UpdatedAt time.Time       `json:"updated_at"`
		Deleted   bool            `json:"deleted" doc:"Soft-delete marker; the row stays retrievable but is flagged deleted for pulling clients"`
	}
}

type upsertOutput struct {
	Body ackResponse
}

type deleteInput struct {
	Type string `path:"type" doc:"Entity type"`
	ID   string `path:"id" doc:"Entity id"`
}

type deleteOutput struct {
	Body ackResponse
}

type getInput struct {
	Type string `path:"type" doc:"Entity type"`
	ID   string `path:"id" doc:"Entity id"`
}

type getOutput struct {
	Body domain.Envelope
}

type listInput struct {
	Type  string    `path:"type" doc:"Entity type"`
	Since time.Time `query:"since" doc:"Lower bound on updated_at (exclusive)"`
}

type listOutput struct {
	Body listResponse
}

type ackResponse struct {
	Status string `json:"status" example:"OK"`
}

type listResponse struct {
	Rows []domain.Envelope `json:"rows"`
}
