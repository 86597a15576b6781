package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/api/dto"
	"github.com/hugh/localspace/internal/api/middleware"
	"github.com/hugh/localspace/internal/api/validation"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/workspace"
)

const (
	msgWorkspaceDeleted = "Workspace deleted successfully."
	msgMemberAdded      = "The user has been successfully added to the workspace."
	msgMemberRemoved    = "The member has been removed from the workspace."
	msgMemberUpdated    = "The member's role has been updated successfully."
	msgLeft             = "You have successfully left the workspace."
)

type WorkspaceHandler struct {
	workspaces *workspace.Service
	logger     *slog.Logger
}

func NewWorkspaceHandler(workspaces *workspace.Service, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, logger: logger}
}

type workspaceResponse struct {
	Message   string           `json:"message,omitempty"`
	Workspace dto.WorkspaceDTO `json:"workspace"`
}

type memberResponse struct {
	Message string        `json:"message,omitempty"`
	Member  dto.MemberDTO `json:"member"`
}

func (h *WorkspaceHandler) workspaceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return pathID(w, r, "workspaceID", workspace.MsgNotFound)
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWorkspaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ws, member, err := h.workspaces.Create(r.Context(), middleware.GetUser(r.Context()), validation.SanitizeString(req.Name))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, workspaceResponse{Workspace: dto.ToWorkspaceWithMemberDTO(ws, member)})
}

func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	req, ok := listRequest(w, r, workspace.OrderColumns)
	if !ok {
		return
	}

	q := req.Query()
	q.Normalize(workspace.OrderColumns...)
	items, total, err := h.workspaces.List(r.Context(), middleware.GetUser(r.Context()), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	data := make([]dto.WorkspaceDTO, 0, len(items))
	for i := range items {
		data = append(data, dto.ToWorkspaceWithMemberDTO(&items[i].Workspace, &items[i].Member))
	}
	writeJSON(w, http.StatusOK, dto.NewPage(data, total, q))
}

func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workspaceID(w, r)
	if !ok {
		return
	}

	ws, err := h.workspaces.Get(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse{Workspace: dto.ToWorkspaceDTO(ws)})
}

func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workspaceID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateWorkspaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil {
		name := validation.SanitizeString(*req.Name)
		req.Name = &name
	}

	ws, err := h.workspaces.Update(r.Context(), middleware.GetUser(r.Context()), id, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse{Workspace: dto.ToWorkspaceDTO(ws)})
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workspaceID(w, r)
	if !ok {
		return
	}

	if err := h.workspaces.Delete(r.Context(), middleware.GetUser(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: msgWorkspaceDeleted})
}

func (h *WorkspaceHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workspaceID(w, r)
	if !ok {
		return
	}
	var req dto.TransferWorkspaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	newOwner, err := h.workspaces.Transfer(r.Context(), middleware.GetUser(r.Context()), id, uuid.MustParse(req.NewOwnerID))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Workspace successfully transferred to " + newOwner.Name + "."})
}

func (h *WorkspaceHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workspaceID(w, r)
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.workspaces.AddMember(r.Context(), middleware.GetUser(r.Context()), id, req.Email, models.MemberRole(req.Role))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, memberResponse{Message: msgMemberAdded, Member: dto.ToMemberDTO(member)})
}

// memberID is the user id of the member, not the membership row id.
func (h *WorkspaceHandler) memberID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return pathID(w, r, "memberID", workspace.MsgMemberNotFound)
}

func (h *WorkspaceHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workspaceID(w, r)
	if !ok {
		return
	}
	userID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.workspaces.UpdateMemberRole(r.Context(), middleware.GetUser(r.Context()), id, userID, models.MemberRole(req.Role))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, memberResponse{Message: msgMemberUpdated, Member: dto.ToMemberDTO(member)})
}

func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workspaceID(w, r)
	if !ok {
		return
	}
	userID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	if err := h.workspaces.RemoveMember(r.Context(), middleware.GetUser(r.Context()), id, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: msgMemberRemoved})
}

func (h *WorkspaceHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workspaceID(w, r)
	if !ok {
		return
	}

	member, err := h.workspaces.Profile(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, memberResponse{Member: dto.ToMemberDTO(member)})
}

func (h *WorkspaceHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workspaceID(w, r)
	if !ok {
		return
	}

	if err := h.workspaces.Leave(r.Context(), middleware.GetUser(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: msgLeft})
}
