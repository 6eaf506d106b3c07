package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/service"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
	"github.com/noah-isme/mission-hub-api/pkg/response"
)

// MentorshipGroupHandler handles mentorship group endpoints.
type MentorshipGroupHandler struct {
	service *service.MentorshipGroupService
}

// NewMentorshipGroupHandler creates a new mentorship group handler.
func NewMentorshipGroupHandler(svc *service.MentorshipGroupService) *MentorshipGroupHandler {
	return &MentorshipGroupHandler{service: svc}
}

// ListByMission godoc
// @Summary List groups of a mission
// @Tags MentorshipGroups
// @Produce json
// @Param missionId query string true "Mission ID"
// @Success 200 {object} response.Envelope
// @Router /v2/mentorship-groups [get]
func (h *MentorshipGroupHandler) ListByMission(c *gin.Context) {
	missionID := c.Query("missionId")
	if missionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missionId query parameter is required"))
		return
	}
	groups, err := h.service.ListByMission(c.Request.Context(), missionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Get godoc
// @Summary Get mentorship group with members
// @Tags MentorshipGroups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /v2/mentorship-groups/{id} [get]
func (h *MentorshipGroupHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create mentorship group
// @Tags MentorshipGroups
// @Accept json
// @Produce json
// @Param payload body dto.CreateMentorshipGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /v2/mentorship-groups [post]
func (h *MentorshipGroupHandler) Create(c *gin.Context) {
	var req dto.CreateMentorshipGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	group, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Update godoc
// @Summary Update mentorship group
// @Tags MentorshipGroups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.UpdateMentorshipGroupRequest true "Group payload"
// @Success 200 {object} response.Envelope
// @Router /v2/mentorship-groups/{id} [put]
func (h *MentorshipGroupHandler) Update(c *gin.Context) {
	var req dto.UpdateMentorshipGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	group, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Delete group or remove a single student
// @Description Without student_id deletes the group and clears every member's reference; with student_id only detaches that student
// @Tags MentorshipGroups
// @Produce json
// @Param id path string true "Group ID"
// @Param student_id query string false "Student to detach"
// @Success 204
// @Router /v2/mentorship-groups/{id} [delete]
func (h *MentorshipGroupHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if studentID := c.Query("student_id"); studentID != "" {
		if err := h.service.RemoveStudent(c.Request.Context(), c.Param("id"), studentID, claims); err != nil {
			response.Error(c, err)
			return
		}
		response.NoContent(c)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddStudent godoc
// @Summary Add a student to a group
// @Tags MentorshipGroups
// @Produce json
// @Param id path string true "Group ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /v2/mentorship-groups/{id}/students/{studentId} [post]
func (h *MentorshipGroupHandler) AddStudent(c *gin.Context) {
	if err := h.service.AddStudent(c.Request.Context(), c.Param("id"), c.Param("studentId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"added": true}, nil)
}
