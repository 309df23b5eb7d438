package main

import (
	"errors"
	"log"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dokaw/task-dash-gleam/internal/domain"
	"github.com/dokaw/task-dash-gleam/internal/errval"
	"github.com/dokaw/task-dash-gleam/internal/lifecycle"
	"github.com/dokaw/task-dash-gleam/internal/notify"
	"github.com/dokaw/task-dash-gleam/internal/payments"
)

// userIDHeader carries the authenticated user id, resolved by the fronting
// auth layer. Identity is threaded explicitly into every core call.
const userIDHeader = "X-User-ID"

func setupHTTPServer(storage domain.Storage, queue domain.Queue, provider domain.CheckoutProvider, notificationsQueueName, currency string) *gin.Engine {
	r := gin.Default()
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("validate_budget_type", validateBudgetType)
		if err != nil {
			log.Fatal("failed to bind validation rule of validate_budget_type")
		}

		err = v.RegisterValidation("validate_timeline", validateTimeline)
		if err != nil {
			log.Fatal("failed to bind validation rule of validate_timeline")
		}
	}

	manager := lifecycle.NewManager(storage)
	emitter := notify.NewEmitter(storage, queue, notificationsQueueName)
	bridge := payments.NewBridge(storage, provider, emitter, currency)

	tasks := r.Group("/tasks")
	tasks.POST("", func(c *gin.Context) {
		req := domain.RouterRequestCreateTask{}
		err := c.ShouldBindBodyWith(&req, binding.JSON)
		if err != nil {
			slog.Error("error occurred while binding request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		task, err := manager.CreateTask(c, currentUser(c), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, task)
	})

	tasks.GET("", func(c *gin.Context) {
		status := domain.TaskStatus(c.DefaultQuery("status", string(domain.Open)))
		found, err := manager.BrowseTasks(c, status)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"tasks": found})
	})

	tasks.GET("/:id", func(c *gin.Context) {
		task, err := manager.GetTask(c, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, task)
	})

	tasks.GET("/:id/proposals", func(c *gin.Context) {
		found, err := manager.ListTaskProposals(c, currentUser(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"proposals": found})
	})

	transition := func(apply func(c *gin.Context) error) gin.HandlerFunc {
		return func(c *gin.Context) {
			if err := apply(c); err != nil {
				respondError(c, err)
				return
			}

			task, err := manager.GetTask(c, c.Param("id"))
			if err != nil {
				respondError(c, err)
				return
			}

			c.JSON(http.StatusOK, task)
		}
	}

	tasks.POST("/:id/start", transition(func(c *gin.Context) error {
		return manager.StartWork(c, currentUser(c), c.Param("id"))
	}))
	tasks.POST("/:id/review", transition(func(c *gin.Context) error {
		return manager.SubmitForReview(c, currentUser(c), c.Param("id"))
	}))
	tasks.POST("/:id/complete", transition(func(c *gin.Context) error {
		return manager.CompleteTask(c, currentUser(c), c.Param("id"))
	}))
	tasks.POST("/:id/cancel", transition(func(c *gin.Context) error {
		return manager.CancelTask(c, currentUser(c), c.Param("id"))
	}))

	my := r.Group("/my")
	my.GET("/tasks", func(c *gin.Context) {
		found, err := manager.ListOwnedTasks(c, currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"tasks": found})
	})
	my.GET("/assigned", func(c *gin.Context) {
		found, err := manager.ListAssignedTasks(c, currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"tasks": found})
	})

	proposals := r.Group("/proposals")
	proposals.POST("", func(c *gin.Context) {
		req := domain.RouterRequestSubmitProposal{}
		err := c.ShouldBindBodyWith(&req, binding.JSON)
		if err != nil {
			slog.Error("error occurred while binding request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		proposal, err := manager.SubmitProposal(c, currentUser(c), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, proposal)
	})
	proposals.POST("/:id/accept", func(c *gin.Context) {
		if err := manager.AcceptProposal(c, currentUser(c), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": string(domain.ProposalAccepted)})
	})
	proposals.POST("/:id/reject", func(c *gin.Context) {
		if err := manager.RejectProposal(c, currentUser(c), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": string(domain.ProposalRejected)})
	})

	pay := r.Group("/payments")
	pay.POST("", func(c *gin.Context) {
		req := domain.RouterRequestCreatePayment{}
		err := c.ShouldBindBodyWith(&req, binding.JSON)
		if err != nil {
			slog.Error("error occurred while binding request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		url, err := bridge.Create(c, currentUser(c), req.TaskID, req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": url})
	})
	// Webhook endpoint invoked by the payment processor, not by the UI.
	pay.POST("/verify", func(c *gin.Context) {
		req := domain.RouterRequestVerifyPayment{}
		err := c.ShouldBindBodyWith(&req, binding.JSON)
		if err != nil {
			slog.Error("error occurred while binding request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		status, err := bridge.Verify(c, req.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": string(status)})
	})

	profiles := r.Group("/profiles")
	profiles.POST("", func(c *gin.Context) {
		req := domain.RouterRequestUpsertProfile{}
		err := c.ShouldBindBodyWith(&req, binding.JSON)
		if err != nil {
			slog.Error("error occurred while binding request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		profile, err := manager.SaveProfile(c, currentUser(c), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, profile)
	})
	profiles.GET("/:id", func(c *gin.Context) {
		profile, err := manager.GetProfile(c, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, profile)
	})

	notifications := r.Group("/notifications")
	notifications.GET("", func(c *gin.Context) {
		found, err := emitter.List(c, currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"notifications": found})
	})
	notifications.POST("/:id/read", func(c *gin.Context) {
		if err := emitter.MarkRead(c, currentUser(c), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{})
	})

	r.GET("/readiness", func(c *gin.Context) {
		if postgresIsReady && rabbitIsReady {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		}
	})
	r.GET("/liveness", func(c *gin.Context) {
		err := storage.Ping(c)
		if err != nil {
			slog.Error("Postgresql seem not to be pingable in liveness API", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not healthy"})
			return
		}

		if !queue.IsHealthy() {
			slog.Error("Rabbit is not healthy")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not healthy"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	return r
}

func currentUser(c *gin.Context) string {
	return c.GetHeader(userIDHeader)
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errval.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errval.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, errval.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errval.ErrInvalidTransition),
		errors.Is(err, errval.ErrTaskNoLongerOpen),
		errors.Is(err, errval.ErrDuplicateProposal):
		return http.StatusConflict
	case errors.Is(err, errval.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var validateBudgetType validator.Func = func(fl validator.FieldLevel) bool {
	budgetType := fl.Field().String()
	switch budgetType {
	case string(domain.BudgetFixed), string(domain.BudgetRange), string(domain.BudgetHourly):
		return true
	default:
		return false
	}
}

var validateTimeline validator.Func = func(fl validator.FieldLevel) bool {
	return domain.Timeline(fl.Field().String()).IsValid()
}
