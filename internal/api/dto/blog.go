package dto

import (
	"time"

	"github.com/hugh/localspace/internal/database/models"
)

type CreateBlogRequest struct {
	Title   string `json:"title" validate:"required,min=5,max=100"`
	Content string `json:"content" validate:"required,min=10"`
}

type UpdateBlogRequest struct {
	Title   string `json:"title" validate:"omitempty,min=5,max=100"`
	Content string `json:"content" validate:"omitempty,min=10"`
}

type BlogDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToBlogDTO(b *models.Blog) BlogDTO {
	return BlogDTO{
		ID:        b.ID.String(),
		Title:     b.Title,
		Content:   b.Content,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func ToBlogDTOs(blogs []models.Blog) []BlogDTO {
	out := make([]BlogDTO, 0, len(blogs))
	for i := range blogs {
		out = append(out, ToBlogDTO(&blogs[i]))
	}
	return out
}
