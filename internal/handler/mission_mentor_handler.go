package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/service"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
	"github.com/noah-isme/mission-hub-api/pkg/response"
)

// MissionMentorHandler handles mentor assignment, reassignment and bulk
// operation endpoints.
type MissionMentorHandler struct {
	service *service.MissionMentorService
}

// NewMissionMentorHandler creates a new mission mentor handler.
func NewMissionMentorHandler(svc *service.MissionMentorService) *MissionMentorHandler {
	return &MissionMentorHandler{service: svc}
}

// ListByMission godoc
// @Summary List mentors of a mission
// @Tags MissionMentors
// @Produce json
// @Param missionId query string true "Mission ID"
// @Success 200 {object} response.Envelope
// @Router /mission-mentors [get]
func (h *MissionMentorHandler) ListByMission(c *gin.Context) {
	missionID := c.Query("missionId")
	if missionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missionId query parameter is required"))
		return
	}
	mentors, err := h.service.ListByMission(c.Request.Context(), missionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mentors, nil)
}

// Get godoc
// @Summary Get mission mentor
// @Tags MissionMentors
// @Produce json
// @Param id path string true "Mission mentor ID"
// @Success 200 {object} response.Envelope
// @Router /mission-mentors/{id} [get]
func (h *MissionMentorHandler) Get(c *gin.Context) {
	mentor, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mentor, nil)
}

// Assign godoc
// @Summary Assign students to mentors
// @Description Distributes students across mentors evenly or replicates the full list to each
// @Tags MissionMentors
// @Accept json
// @Produce json
// @Param payload body dto.AssignMentorsRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /v2/mission-mentors [post]
func (h *MissionMentorHandler) Assign(c *gin.Context) {
	var req dto.AssignMentorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	results, err := h.service.AssignStudents(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Reassign godoc
// @Summary Reassign students between mentors
// @Tags MissionMentors
// @Accept json
// @Produce json
// @Param payload body dto.ReassignStudentsRequest true "Reassignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /mission-mentors/reassign [post]
func (h *MissionMentorHandler) Reassign(c *gin.Context) {
	var req dto.ReassignStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.service.ReassignStudents(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkOperations godoc
// @Summary Run a bulk mentor operation
// @Description Dispatches bulk_update, bulk_assign_students, bulk_reassign_students, bulk_status_update or bulk_capacity_update over a list of items
// @Tags MissionMentors
// @Accept json
// @Produce json
// @Param payload body dto.BulkMentorOperationRequest true "Bulk operation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /mission-mentors/bulk-operations [post]
func (h *MissionMentorHandler) BulkOperations(c *gin.Context) {
	var req dto.BulkMentorOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	results, err := h.service.BulkOperations(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// UpdateProfile godoc
// @Summary Update mentor profile
// @Tags MissionMentors
// @Accept json
// @Produce json
// @Param id path string true "Mission mentor ID"
// @Param payload body dto.UpdateMentorProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /mission-mentors/{id} [put]
func (h *MissionMentorHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateMentorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := h.service.UpdateProfile(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": true}, nil)
}

// UpdateStatus godoc
// @Summary Update mentor status
// @Tags MissionMentors
// @Accept json
// @Produce json
// @Param id path string true "Mission mentor ID"
// @Param payload body dto.UpdateMentorStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /mission-mentors/{id}/status [put]
func (h *MissionMentorHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateMentorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": true}, nil)
}

// UpdateCapacity godoc
// @Summary Update mentor capacity
// @Tags MissionMentors
// @Accept json
// @Produce json
// @Param id path string true "Mission mentor ID"
// @Param payload body dto.UpdateMentorCapacityRequest true "Capacity payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mission-mentors/{id}/capacity [put]
func (h *MissionMentorHandler) UpdateCapacity(c *gin.Context) {
	var req dto.UpdateMentorCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := h.service.UpdateCapacity(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": true}, nil)
}

// Delete godoc
// @Summary Remove mentor from mission
// @Tags MissionMentors
// @Produce json
// @Param id path string true "Mission mentor ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /mission-mentors/{id} [delete]
func (h *MissionMentorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
