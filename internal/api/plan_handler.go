package api

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// PlanHandler serves the workout plan routes. Every route acts on the plans
// of the authenticated caller.
type PlanHandler struct {
	planService service.PlanService
	logger      *zap.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{planService: planService, logger: logger}
}

// --- Request/Response Structs ---

type AddWeekRequest struct {
	Label string `json:"label" binding:"max=100"`
}

type AddDayRequest struct {
	Number int    `json:"number" binding:"required,min=1,max=7"`
	Name   string `json:"name" binding:"max=100"`
}

type AddWorkoutRequest struct {
	Name     string  `json:"name" binding:"required,max=200"`
	Notes    string  `json:"notes"`
	Sets     *int    `json:"sets" binding:"omitempty,min=0"`
	Reps     *string `json:"reps"`
	Rest     *string `json:"rest"`
	Tempo    *string `json:"tempo"`
	Weight   *string `json:"weight"`
	Duration *string `json:"duration"`
	Sequence int     `json:"sequence" binding:"min=0"`
}

type VideoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type WorkoutResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Notes    string    `json:"notes,omitempty"`
	Sets     *int      `json:"sets,omitempty"`
	Reps     *string   `json:"reps,omitempty"`
	Rest     *string   `json:"rest,omitempty"`
	Tempo    *string   `json:"tempo,omitempty"`
	Weight   *string   `json:"weight,omitempty"`
	Duration *string   `json:"duration,omitempty"`
	Sequence int       `json:"sequence"`
	HasVideo bool      `json:"hasVideo"`
	Created  time.Time `json:"createdAt"`
}

type DayResponse struct {
	ID       string            `json:"id"`
	WeekID   string            `json:"weekId"`
	Number   int               `json:"number"`
	Name     string            `json:"name,omitempty"`
	Workouts []WorkoutResponse `json:"workouts"`
}

type WeekResponse struct {
	ID     string        `json:"id"`
	Number int           `json:"number"`
	Label  string        `json:"label,omitempty"`
	Days   []DayResponse `json:"days"`
}

type PlanResponse struct {
	ID        string            `json:"id"`
	Type      domain.PlanType   `json:"type"`
	Status    domain.PlanStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Weeks     []WeekResponse    `json:"weeks"`
}

// --- Handler Methods ---

// GetPlan godoc
// @Summary Get the caller's plan of a type
// @Description Returns the plan with its full week/day/workout tree.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param type query string false "Plan type" Enums(CURRENT_WEEKS, NEXT_WEEKS, TEMPLATE)
// @Success 200 {object} PlanResponse
// @Failure 400 {object} gin.H "Invalid plan type"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "No plan found"
// @Router /plans [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, planType, ok := h.callerAndType(c)
	if !ok {
		return
	}

	plan, err := h.planService.FindActivePlan(c.Request.Context(), userID, planType)
	if err != nil {
		h.handleError(c, err, "failed to load plan")
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// DeletePlan godoc
// @Summary Delete the caller's plan of a type
// @Description Removes the plan and every week, day and workout in it atomically.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param type query string false "Plan type" Enums(CURRENT_WEEKS, NEXT_WEEKS, TEMPLATE)
// @Success 200 {object} gin.H "message, deletedPlanId"
// @Failure 400 {object} gin.H "Invalid plan type"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "message: No plan found"
// @Router /plans [delete]
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	userID, planType, ok := h.callerAndType(c)
	if !ok {
		return
	}

	planID, err := h.planService.DeletePlan(c.Request.Context(), userID, planType)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "No plan found"})
			return
		}
		h.handleError(c, err, "failed to delete plan")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Plan deleted successfully",
		"deletedPlanId": planID,
	})
}

// AddWeek godoc
// @Summary Append a week to the caller's plan
// @Description Creates the plan on first use. Weeks are numbered sequentially.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type query string false "Plan type"
// @Param week body AddWeekRequest false "Week details"
// @Success 201 {object} WeekResponse
// @Failure 400 {object} gin.H
// @Failure 409 {object} gin.H
// @Router /plans/weeks [post]
func (h *PlanHandler) AddWeek(c *gin.Context) {
	userID, planType, ok := h.callerAndType(c)
	if !ok {
		return
	}

	var req AddWeekRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
			return
		}
	}

	week, err := h.planService.AddWeek(c.Request.Context(), userID, planType, req.Label)
	if err != nil {
		h.handleError(c, err, "failed to add week")
		return
	}
	c.JSON(http.StatusCreated, mapWeek(*week))
}

// AddDay godoc
// @Summary Add a day (1 = Monday ... 7 = Sunday) to a week
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param weekId path string true "Week ID"
// @Param day body AddDayRequest true "Day details"
// @Success 201 {object} DayResponse
// @Failure 400 {object} gin.H
// @Failure 404 {object} gin.H
// @Failure 409 {object} gin.H
// @Router /plans/weeks/{weekId}/days [post]
func (h *PlanHandler) AddDay(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req AddDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	day, err := h.planService.AddDay(c.Request.Context(), userID, c.Param("weekId"), req.Number, req.Name)
	if err != nil {
		h.handleError(c, err, "failed to add day")
		return
	}
	c.JSON(http.StatusCreated, mapDay(*day))
}

// AddWorkout godoc
// @Summary Add a workout to a day
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dayId path string true "Day ID"
// @Param workout body AddWorkoutRequest true "Workout details"
// @Success 201 {object} WorkoutResponse
// @Failure 400 {object} gin.H
// @Failure 404 {object} gin.H
// @Router /plans/days/{dayId}/workouts [post]
func (h *PlanHandler) AddWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req AddWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workout, err := h.planService.AddWorkout(c.Request.Context(), userID, c.Param("dayId"), service.WorkoutInput{
		Name:     req.Name,
		Notes:    req.Notes,
		Sets:     req.Sets,
		Reps:     req.Reps,
		Rest:     req.Rest,
		Tempo:    req.Tempo,
		Weight:   req.Weight,
		Duration: req.Duration,
		Sequence: req.Sequence,
	})
	if err != nil {
		h.handleError(c, err, "failed to add workout")
		return
	}
	c.JSON(http.StatusCreated, mapWorkout(*workout))
}

// GetVideoUploadURL godoc
// @Summary Get a presigned URL to upload a workout demo video
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Param request body VideoUploadRequest true "Video content type"
// @Success 200 {object} gin.H "uploadUrl, objectKey"
// @Failure 400 {object} gin.H
// @Failure 404 {object} gin.H
// @Failure 503 {object} gin.H "Object storage not configured"
// @Router /plans/workouts/{workoutId}/video-upload-url [post]
func (h *PlanHandler) GetVideoUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req VideoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	uploadURL, objectKey, err := h.planService.WorkoutVideoUploadURL(c.Request.Context(), userID, c.Param("workoutId"), req.ContentType)
	if err != nil {
		h.handleError(c, err, "failed to presign video upload")
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadUrl": uploadURL, "objectKey": objectKey})
}

// GetVideoURL godoc
// @Summary Get a presigned URL to watch a workout demo video
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Success 200 {object} gin.H "downloadUrl"
// @Failure 404 {object} gin.H
// @Failure 503 {object} gin.H "Object storage not configured"
// @Router /plans/workouts/{workoutId}/video-url [get]
func (h *PlanHandler) GetVideoURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid token")
		return
	}

	downloadURL, err := h.planService.WorkoutVideoDownloadURL(c.Request.Context(), userID, c.Param("workoutId"))
	if err != nil {
		h.handleError(c, err, "failed to presign video download")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": downloadURL})
}

// callerAndType resolves the caller and the ?type= query, writing the error
// response itself when either is unusable.
func (h *PlanHandler) callerAndType(c *gin.Context) (string, domain.PlanType, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid token")
		return "", "", false
	}
	planType, err := domain.ParsePlanType(c.Query("type"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	return userID, planType, true
}

// handleError maps service errors onto status codes. Anything unrecognized
// is logged and reported as a generic 500.
func (h *PlanHandler) handleError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrWeekNotFound),
		errors.Is(err, service.ErrDayNotFound),
		errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrNoVideo):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateNumber):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidDayNumber),
		errors.Is(err, service.ErrInvalidWorkout),
		errors.Is(err, service.ErrInvalidVideoType):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStorageDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error(logMsg, zap.Error(err), zap.String("request_id", c.GetString(ContextRequestIDKey)))
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// --- Mappers ---

// MapPlanToResponse converts a loaded plan tree to its DTO.
func MapPlanToResponse(plan *domain.WorkoutPlan) PlanResponse {
	return PlanResponse{
		ID:        plan.ID,
		Type:      plan.Type,
		Status:    plan.Status,
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
		Weeks:     lo.Map(plan.Weeks, func(w domain.PlanWeek, _ int) WeekResponse { return mapWeek(w) }),
	}
}

func mapWeek(w domain.PlanWeek) WeekResponse {
	return WeekResponse{
		ID:     w.ID,
		Number: w.Number,
		Label:  w.Label,
		Days:   lo.Map(w.Days, func(d domain.PlanDay, _ int) DayResponse { return mapDay(d) }),
	}
}

func mapDay(d domain.PlanDay) DayResponse {
	return DayResponse{
		ID:       d.ID,
		WeekID:   d.WeekID,
		Number:   d.Number,
		Name:     d.Name,
		Workouts: lo.Map(d.Workouts, func(w domain.Workout, _ int) WorkoutResponse { return mapWorkout(w) }),
	}
}

func mapWorkout(w domain.Workout) WorkoutResponse {
	return WorkoutResponse{
		ID:       w.ID,
		Name:     w.Name,
		Notes:    w.Notes,
		Sets:     w.Sets,
		Reps:     w.Reps,
		Rest:     w.Rest,
		Tempo:    w.Tempo,
		Weight:   w.Weight,
		Duration: w.Duration,
		Sequence: w.Sequence,
		HasVideo: w.HasVideo(),
		Created:  w.CreatedAt,
	}
}
