package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isectech/disaster-recovery/domain/entity"
)

// TriggerRequest is the request body for POST /api/v1/recovery/trigger
type TriggerRequest struct {
	ScenarioID string                    `json:"scenario_id" binding:"required"`
	Source     entity.TriggerSource      `json:"source"`
	Override   *entity.ProcedureOverride `json:"override,omitempty"`
}

// triggerRecovery starts a recovery and blocks until it reaches a terminal
// state. A failed recovery still returns the execution object so callers can
// inspect the step ledger and rollback plan.
func (s *RecoveryHTTPServer) triggerRecovery(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source := req.Source
	if source == "" {
		source = entity.TriggerSourceManual
	}

	execution, err := s.orchestrator.Trigger(c.Request.Context(), req.ScenarioID, source, req.Override)
	if err != nil {
		s.logger.Warn("Trigger failed",
			zap.String("scenario_id", req.ScenarioID),
			zap.Error(err))
		status := http.StatusInternalServerError
		if recErr := entity.AsRecoveryError(err); recErr != nil {
			status = recErr.HTTPStatus()
		}
		body := gin.H{"error": err.Error()}
		if execution != nil {
			body["execution"] = execution
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, execution)
}

// listExecutions returns every registered execution
func (s *RecoveryHTTPServer) listExecutions(c *gin.Context) {
	executions, err := s.orchestrator.Status("")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"executions": executions,
		"count":      len(executions),
	})
}

// getExecution returns one execution by id
func (s *RecoveryHTTPServer) getExecution(c *gin.Context) {
	executions, err := s.orchestrator.Status(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if recErr := entity.AsRecoveryError(err); recErr != nil {
			status = recErr.HTTPStatus()
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, executions[0])
}

// testProcedures dry-runs the completion validations of every scenario
func (s *RecoveryHTTPServer) testProcedures(c *gin.Context) {
	reports := s.orchestrator.TestProcedures(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"results": reports})
}

// listScenarios returns the registered scenario definitions
func (s *RecoveryHTTPServer) listScenarios(c *gin.Context) {
	scenarios := s.registry.List()
	c.JSON(http.StatusOK, gin.H{
		"scenarios": scenarios,
		"count":     len(scenarios),
	})
}
