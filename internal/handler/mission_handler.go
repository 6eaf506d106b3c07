package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/middleware"
	"github.com/noah-isme/mission-hub-api/internal/models"
	"github.com/noah-isme/mission-hub-api/internal/service"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
	"github.com/noah-isme/mission-hub-api/pkg/response"
)

// MissionHandler handles mission and roster endpoints.
type MissionHandler struct {
	service *service.MissionService
}

// NewMissionHandler creates a new mission handler.
func NewMissionHandler(svc *service.MissionService) *MissionHandler {
	return &MissionHandler{service: svc}
}

// List godoc
// @Summary List missions
// @Tags Missions
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Status filter"
// @Param batch query string false "Batch filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /missions [get]
func (h *MissionHandler) List(c *gin.Context) {
	var filter models.MissionFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.Status = c.Query("status")
	filter.Batch = c.Query("batch")
	filter.Search = c.Query("search")

	missions, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, missions, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get mission
// @Tags Missions
// @Produce json
// @Param id path string true "Mission ID"
// @Success 200 {object} response.Envelope
// @Router /missions/{id} [get]
func (h *MissionHandler) Get(c *gin.Context) {
	mission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mission, nil)
}

// Create godoc
// @Summary Create mission
// @Tags Missions
// @Accept json
// @Produce json
// @Param payload body dto.CreateMissionRequest true "Mission payload"
// @Success 201 {object} response.Envelope
// @Router /missions [post]
func (h *MissionHandler) Create(c *gin.Context) {
	var req dto.CreateMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	mission, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mission)
}

// Update godoc
// @Summary Update mission
// @Tags Missions
// @Accept json
// @Produce json
// @Param id path string true "Mission ID"
// @Param payload body dto.UpdateMissionRequest true "Mission payload"
// @Success 200 {object} response.Envelope
// @Router /missions/{id} [put]
func (h *MissionHandler) Update(c *gin.Context) {
	var req dto.UpdateMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	mission, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mission, nil)
}

// Archive godoc
// @Summary Archive mission
// @Tags Missions
// @Produce json
// @Param id path string true "Mission ID"
// @Success 204
// @Router /missions/{id} [delete]
func (h *MissionHandler) Archive(c *gin.Context) {
	if err := h.service.Archive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster godoc
// @Summary Get mission roster
// @Description Returns the mission with its students and mentors
// @Tags Missions
// @Produce json
// @Param id path string true "Mission ID"
// @Success 200 {object} response.Envelope
// @Router /missions/{id}/roster [get]
func (h *MissionHandler) Roster(c *gin.Context) {
	start := time.Now()
	roster, cacheHit, err := h.service.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, roster, nil, meta)
}

// EnrollStudents godoc
// @Summary Enroll students into a mission
// @Tags Missions
// @Accept json
// @Produce json
// @Param id path string true "Mission ID"
// @Param payload body dto.EnrollStudentsRequest true "Student IDs"
// @Success 200 {object} response.Envelope
// @Router /missions/{id}/students [post]
func (h *MissionHandler) EnrollStudents(c *gin.Context) {
	var req dto.EnrollStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	enrolled, err := h.service.EnrollStudents(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrolled, nil)
}

// RemoveStudent godoc
// @Summary Remove a student from a mission
// @Tags Missions
// @Produce json
// @Param id path string true "Mission ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /missions/{id}/students/{studentId} [delete]
func (h *MissionHandler) RemoveStudent(c *gin.Context) {
	if err := h.service.RemoveStudent(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
