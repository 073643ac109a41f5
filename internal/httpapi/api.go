// Package httpapi exposes the core's HTTP/JSON surface: HR event
// ingestion, identity and audit reads, the access request workflow, and
// a debug endpoint per connector.
package httpapi

import (
	"net/http"

	"github.com/dhawalhost/igacore/internal/audit"
	"github.com/dhawalhost/igacore/internal/connector"
	"github.com/dhawalhost/igacore/internal/identity"
	"github.com/dhawalhost/igacore/internal/igaerr"
	"github.com/dhawalhost/igacore/internal/jml"
	"github.com/dhawalhost/igacore/internal/request"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const version = "1.0.0"

// Handler wires the core's engines and stores into gin routes.
type Handler struct {
	jml        *jml.Engine
	requests   *request.Engine
	identities identity.Store
	auditLog   audit.Store
	connectors connector.Registry
	logger     *zap.Logger
	validate   *validator.Validate
}

// New builds an HTTP handler over the given engines and stores.
func New(jmlEngine *jml.Engine, requestEngine *request.Engine, identities identity.Store, auditLog audit.Store, connectors connector.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		jml:        jmlEngine,
		requests:   requestEngine,
		identities: identities,
		auditLog:   auditLog,
		connectors: connectors,
		logger:     logger,
		validate:   validator.New(),
	}
}

// RegisterRoutes attaches every route this package serves to router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.root)
	router.POST("/api/hr/event", h.hrEvent)
	router.GET("/api/identities", h.listIdentities)
	router.GET("/api/identities/:id", h.getIdentity)
	router.GET("/api/audit/logs", h.listAuditLogs)
	router.POST("/api/requests", h.submitRequest)
	router.GET("/api/requests", h.listRequests)
	router.POST("/api/requests/:id/approve", h.approveRequest)
	router.POST("/api/requests/:id/reject", h.rejectRequest)
	router.GET("/api/connectors/:sys/users", h.connectorUsers)
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
}

type hrEventRequest struct {
	EventType  string `json:"event_type" binding:"required"`
	EmployeeID string `json:"employee_id" binding:"required"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	JobTitle   string `json:"job_title"`
	Location   string `json:"location"`
}

func (h *Handler) hrEvent(c *gin.Context) {
	var req hrEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind hr event", zap.Error(err))
		c.JSON(http.StatusOK, jml.Result{Status: jml.StatusError, Message: err.Error()})
		return
	}

	result := h.jml.ProcessEvent(c.Request.Context(), jml.Event{
		Type:       jml.EventType(req.EventType),
		EmployeeID: req.EmployeeID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Department: req.Department,
		JobTitle:   req.JobTitle,
		Location:   req.Location,
	})

	c.JSON(http.StatusOK, result)
}

func (h *Handler) listIdentities(c *gin.Context) {
	list, err := h.identities.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getIdentity(c *gin.Context) {
	profile, err := h.identities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) listAuditLogs(c *gin.Context) {
	events := h.auditLog.List(c.Request.Context(), 0)
	c.JSON(http.StatusOK, events)
}

type submitRequestBody struct {
	RequesterID   string `json:"requester_id" binding:"required"`
	Entitlement   string `json:"entitlement" binding:"required"`
	Justification string `json:"justification"`
}

func (h *Handler) submitRequest(c *gin.Context) {
	var body submitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.requests.Submit(c.Request.Context(), body.RequesterID, body.Entitlement, body.Justification)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) listRequests(c *gin.Context) {
	status := request.Status(c.Query("status"))
	list, err := h.requests.List(c.Request.Context(), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type approveRequestBody struct {
	ApproverID string `json:"approver_id" binding:"required"`
}

func (h *Handler) approveRequest(c *gin.Context) {
	var body approveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.requests.Approve(c.Request.Context(), c.Param("id"), body.ApproverID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type rejectRequestBody struct {
	ApproverID string `json:"approver_id" binding:"required"`
	Reason     string `json:"reason"`
}

func (h *Handler) rejectRequest(c *gin.Context) {
	var body rejectRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.requests.Reject(c.Request.Context(), c.Param("id"), body.ApproverID, body.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) connectorUsers(c *gin.Context) {
	conn, ok := h.connectors.Get(c.Param("sys"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or disabled connector"})
		return
	}
	c.JSON(http.StatusOK, conn.Users(c.Request.Context()))
}

// writeError maps an igaerr.Kind to a status code. NotFound on the
// identity GET path is the one case that responds 404; every other
// error kind on these routes responds 400 with the error's message.
func writeError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if igaerr.IsNotFound(err) {
		if c.FullPath() == "/api/identities/:id" {
			status = http.StatusNotFound
		}
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
