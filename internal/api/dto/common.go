package dto

import "github.com/hugh/localspace/internal/database"

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
	Code    string            `json:"code,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

// ListRequest is the query string of a listing endpoint.
type ListRequest struct {
	Page      int    `json:"page" validate:"omitempty,min=1,max=100"`
	Limit     int    `json:"limit" validate:"omitempty,min=1,max=100"`
	Order     string `json:"order" validate:"omitempty,max=32"`
	Direction string `json:"dir" validate:"omitempty,oneof=asc desc"`
	Filter    string `json:"filter" validate:"omitempty,max=20"`
}

func (r ListRequest) Query() database.ListQuery {
	return database.ListQuery{
		Page:      r.Page,
		Limit:     r.Limit,
		OrderBy:   r.Order,
		Direction: r.Direction,
		Filter:    r.Filter,
	}
}

// NewPage wraps one page of items. q must already be normalised.
func NewPage(data interface{}, total int64, q database.ListQuery) PaginatedResponse {
	totalPages := int(total) / q.Limit
	if int(total)%q.Limit > 0 {
		totalPages++
	}
	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       q.Page,
		PerPage:    q.Limit,
		TotalPages: totalPages,
	}
}
