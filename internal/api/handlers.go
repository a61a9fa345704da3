package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"emergency-service/internal/escalation"
	"emergency-service/internal/georank"
	"emergency-service/internal/logging"
	"emergency-service/internal/models"
)

// TriageService is the intake surface the handlers drive.
type TriageService interface {
	LogSymptom(ctx context.Context, create models.SymptomReportCreate) (models.SymptomReport, error)
	RaiseEmergency(ctx context.Context, userID int64, message string, loc *models.Location) (models.Alert, error)
}

// AlertActions routes responder callbacks into the escalation engine.
type AlertActions interface {
	Acknowledge(ctx context.Context, alertID uuid.UUID, targetRef string) error
	Resolve(ctx context.Context, alertID uuid.UUID, notes string) error
}

// Store is the read/report surface the handlers need from persistence.
type Store interface {
	GetSymptomReport(ctx context.Context, id string) (models.SymptomReport, error)
	ListSymptomReports(ctx context.Context, userID int64, symptomType, severity string) ([]models.SymptomReport, error)
	ResolveSymptomReport(ctx context.Context, id string, userID int64, actionTaken string) error
	SymptomStats(ctx context.Context, userID int64) (map[string]map[string]int, error)
	GetAlert(ctx context.Context, id string) (models.Alert, error)
	GetAlertsByUserID(ctx context.Context, userID int64) ([]models.Alert, error)
	Facilities(ctx context.Context) ([]models.Facility, error)
	ContactsByUser(ctx context.Context, userID int64) ([]models.EmergencyContact, error)
}

type Handler struct {
	svc      TriageService
	actions  AlertActions
	store    Store
	logger   *logging.Logger
	radiusKm float64
	topK     int
}

func NewHandler(svc TriageService, actions AlertActions, store Store, logger *logging.Logger, radiusKm float64, topK int) *Handler {
	return &Handler{svc: svc, actions: actions, store: store, logger: logger, radiusKm: radiusKm, topK: topK}
}

func (h *Handler) CreateSymptomReport(c *gin.Context) {
	var create models.SymptomReportCreate
	if err := c.ShouldBindJSON(&create); err != nil {
		h.logger.Errorf("invalid symptom report body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.svc.LogSymptom(c.Request.Context(), create)
	if err != nil {
		h.logger.Errorf("log symptom failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) GetSymptomReport(c *gin.Context) {
	report, err := h.store.GetSymptomReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "symptom report not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) ListSymptomReports(c *gin.Context) {
	userID, ok := h.userIDQuery(c)
	if !ok {
		return
	}
	reports, err := h.store.ListSymptomReports(c.Request.Context(), userID, c.Query("type"), c.Query("severity"))
	if err != nil {
		h.logger.Errorf("list symptom reports failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list symptom reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "total": len(reports)})
}

func (h *Handler) ResolveSymptomReport(c *gin.Context) {
	var req struct {
		UserID      int64  `json:"user_id" binding:"required"`
		ActionTaken string `json:"action_taken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.ResolveSymptomReport(c.Request.Context(), c.Param("id"), req.UserID, req.ActionTaken); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "symptom report not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

func (h *Handler) SymptomStats(c *gin.Context) {
	userID, ok := h.userIDQuery(c)
	if !ok {
		return
	}
	stats, err := h.store.SymptomStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorf("symptom stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) RaiseEmergency(c *gin.Context) {
	var req struct {
		UserID   int64            `json:"user_id" binding:"required"`
		Message  string           `json:"message"`
		Location *models.Location `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Location != nil {
		if err := req.Location.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	alert, err := h.svc.RaiseEmergency(c.Request.Context(), req.UserID, req.Message, req.Location)
	if err != nil {
		h.logger.Errorf("raise emergency failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to raise emergency"})
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func (h *Handler) GetFacilities(c *gin.Context) {
	facilities, err := h.store.Facilities(c.Request.Context())
	if err != nil {
		h.logger.Errorf("load facilities failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load facilities"})
		return
	}

	var loc *models.Location
	latStr, lonStr := c.Query("latitude"), c.Query("longitude")
	if latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates"})
			return
		}
		loc = &models.Location{Latitude: lat, Longitude: lon}
		if err := loc.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	radius := h.radiusKm
	if r, err := strconv.ParseFloat(c.Query("radius"), 64); err == nil && r > 0 {
		radius = r
	}
	limit := h.topK
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	ranking := georank.Rank(loc, facilities, radius, limit)
	c.JSON(http.StatusOK, gin.H{
		"facilities": ranking.Facilities,
		"unordered":  ranking.Unordered,
		"total":      len(ranking.Facilities),
	})
}

func (h *Handler) GetContacts(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}
	contacts, err := h.store.ContactsByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorf("load contacts failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load contacts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

func (h *Handler) GetGuidelines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"guidelines": emergencyGuidelines})
}

func (h *Handler) GetAlert(c *gin.Context) {
	alert, err := h.store.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) GetAlertsByUserID(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}
	alerts, err := h.store.GetAlertsByUserID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorf("list alerts failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "total": len(alerts)})
}

func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}
	var req struct {
		TargetRef string `json:"target_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.actions.Acknowledge(c.Request.Context(), alertID, req.TargetRef)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"acknowledged": true})
	case errors.Is(err, escalation.ErrAlreadyAcknowledged):
		c.JSON(http.StatusConflict, gin.H{"error": "already acknowledged"})
	case errors.Is(err, escalation.ErrUnknownChannel):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown channel"})
	default:
		h.terminalOrMissing(c, alertID, err)
	}
}

func (h *Handler) ResolveAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.actions.Resolve(c.Request.Context(), alertID, req.Notes)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"resolved": true})
		return
	}
	h.terminalOrMissing(c, alertID, err)
}

// terminalOrMissing distinguishes "no such alert" from "alert already
// terminal" for engine misses; both are expected races, never 5xx.
func (h *Handler) terminalOrMissing(c *gin.Context, alertID uuid.UUID, engineErr error) {
	if !errors.Is(engineErr, escalation.ErrNotFound) && !errors.Is(engineErr, escalation.ErrAlreadyTerminal) {
		h.logger.Errorf("alert action for %s failed: %v", alertID, engineErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "alert action failed"})
		return
	}
	alert, err := h.store.GetAlert(c.Request.Context(), alertID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if alert.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "alert already terminal", "status": alert.Status})
		return
	}
	c.JSON(http.StatusConflict, gin.H{"error": "alert not active on this instance"})
}

func (h *Handler) userIDQuery(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return 0, false
	}
	return userID, true
}

func (h *Handler) userIDParam(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return 0, false
	}
	return userID, true
}
