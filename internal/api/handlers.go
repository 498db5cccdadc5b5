package api

import (
	"net/http"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/models"
	"telegram-message-service/internal/simulation"
	"telegram-message-service/internal/telegram"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type sendRequest struct {
	Username string `json:"username" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

type testSignalRequest struct {
	Username string `json:"username" binding:"required"`
}

type listQuery struct {
	Username string `form:"username"`
	Status   string `form:"status"`
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
}

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.InvalidInput:
		status = http.StatusBadRequest
	case apperr.Transport, apperr.RemoteCall:
		status = http.StatusBadGateway
	case "":
		code = apperr.Persistence
	}
	c.JSON(status, gin.H{"success": false, "error": errorBody{Code: code, Message: apperr.Reason(err)}})
}

func badRequest(c *gin.Context, err error) {
	fail(c, apperr.New(apperr.InvalidInput, "invalid request", err))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) sendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.Sender.Send(c.Request.Context(), req.Username, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (s *Server) sendTestSignal(c *gin.Context) {
	var req testSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.Sender.SendTestSignal(c.Request.Context(), req.Username)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (s *Server) listSimulations(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	switch q.Status {
	case "", models.SimulationInitiated, models.SimulationSuccess, models.SimulationFailed:
	default:
		fail(c, apperr.Newf(apperr.InvalidInput, "unknown status %q", q.Status))
		return
	}

	records, err := s.Simulations.List(c.Request.Context(), simulation.Filter{
		Username: q.Username,
		Status:   q.Status,
		Limit:    q.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, records)
}

func (s *Server) getSimulation(c *gin.Context) {
	rec, err := s.Simulations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// webhook accepts one Telegram update. Telegram retries anything but a 2xx, so
// updates are acknowledged as soon as they are decoded.
func (s *Server) webhook(c *gin.Context) {
	var u telegram.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		s.logger.Warn("Discarding unreadable webhook update", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	s.Updates.HandleUpdate(c.Request.Context(), u)
	c.Status(http.StatusOK)
}
