package main

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yourorg/checkout-orchestrator/internal/checkout"
	"github.com/yourorg/checkout-orchestrator/internal/config"
	"github.com/yourorg/checkout-orchestrator/internal/gateway"
	"github.com/yourorg/checkout-orchestrator/internal/gateway/razorpay"
	"github.com/yourorg/checkout-orchestrator/internal/metrics"
	"github.com/yourorg/checkout-orchestrator/internal/monitor"
	"github.com/yourorg/checkout-orchestrator/internal/orchestrator"
	"github.com/yourorg/checkout-orchestrator/internal/policy"
	"github.com/yourorg/checkout-orchestrator/internal/reporting"
)

// checkoutRequestSchema is the wire contract of POST /api/checkout.
// Presence of payer fields is deliberately not required here: the
// domain validator owns the required-fields rule and its exact
// user-facing message.
const checkoutRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["amount"],
  "properties": {
    "amount": {"type": "number"},
    "purpose": {"type": "string"},
    "description": {"type": "string"},
    "fee_payment_id": {"type": "string"},
    "student_id": {"type": "string"},
    "payer_name": {"type": "string"},
    "payer_email": {"type": "string"},
    "payer_phone": {"type": "string"}
  },
  "additionalProperties": false
}`

type checkoutSession struct {
	id     string
	orch   *orchestrator.Orchestrator
	bridge *razorpay.Bridge
}

type server struct {
	cfg      config.Config
	orders   orchestrator.OrderService
	verifier orchestrator.VerificationService
	retry    *policy.RetryPolicy
	contract *monitor.ContractMonitor
	recorder *reporting.Recorder
	reporter *reporting.RetrospectiveReporter

	mu       sync.Mutex
	sessions map[string]*checkoutSession
}

func newServer(cfg config.Config, orders orchestrator.OrderService, verifier orchestrator.VerificationService) (*server, error) {
	contract, err := monitor.NewContractMonitor(checkoutRequestSchema)
	if err != nil {
		return nil, err
	}
	retry, err := policy.NewRetryPolicy(policy.DefaultRules())
	if err != nil {
		return nil, err
	}
	return &server{
		cfg:      cfg,
		orders:   orders,
		verifier: verifier,
		retry:    retry,
		contract: contract,
		recorder: reporting.NewRecorder(),
		reporter: reporting.NewRetrospectiveReporter(),
		sessions: make(map[string]*checkoutSession),
	}, nil
}

func (s *server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("checkout-orchestrator"))

	api := router.Group("/api")
	api.POST("/checkout", s.startCheckout)
	api.GET("/checkout/:id", s.getCheckout)
	api.POST("/checkout/:id/gateway/callback", s.gatewayCallback)
	api.POST("/checkout/:id/gateway/dismiss", s.gatewayDismiss)
	api.POST("/checkout/:id/retry", s.retryCheckout)
	api.POST("/checkout/:id/close", s.closeCheckout)
	api.GET("/report", s.report)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// newSession builds one orchestrator with its own gateway bridge. The
// callbacks feed the retrospective recorder; the payer-facing outcome
// travels through the session snapshot.
func (s *server) newSession() *checkoutSession {
	sess := &checkoutSession{
		id:     uuid.NewString(),
		bridge: razorpay.New(s.cfg.GatewayScriptURL),
	}
	callbacks := orchestrator.Callbacks{
		OnSuccess: func(orderNumber, transactionID string) {
			snap := sess.orch.Snapshot()
			s.recorder.Append(reporting.LogEntry{
				Timestamp:   time.Now(),
				SessionID:   sess.id,
				Status:      reporting.StatusSuccess,
				Amount:      snap.TotalAmount,
				Currency:    snap.Currency,
				Gateway:     s.cfg.GatewayName,
				OrderNumber: orderNumber,
			})
		},
		OnFailure: func(message string) {
			snap := sess.orch.Snapshot()
			s.recorder.Append(reporting.LogEntry{
				Timestamp:    time.Now(),
				SessionID:    sess.id,
				Status:       reporting.StatusFailed,
				Amount:       snap.TotalAmount,
				Currency:     snap.Currency,
				Gateway:      s.cfg.GatewayName,
				ErrorMessage: message,
			})
		},
	}
	sess.orch = orchestrator.New(
		s.orders,
		s.verifier,
		gateway.NewRegistry(sess.bridge),
		s.retry,
		orchestrator.Config{
			GatewayName:     s.cfg.GatewayName,
			MerchantName:    s.cfg.MerchantName,
			ThemeColor:      s.cfg.ThemeColor,
			GatewayDeadline: s.cfg.GatewayDeadline,
		},
		callbacks,
	)
	return sess
}

func (s *server) lookup(id string) (*checkoutSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

type checkoutResponse struct {
	SessionID      string                `json:"session_id"`
	Checkout       orchestrator.Snapshot `json:"checkout"`
	GatewayOptions *gateway.Options      `json:"gateway_options,omitempty"`
}

func (s *server) respond(c *gin.Context, code int, sess *checkoutSession) {
	resp := checkoutResponse{SessionID: sess.id, Checkout: sess.orch.Snapshot()}
	if opts, ok := sess.bridge.PendingOptions(); ok {
		resp.GatewayOptions = &opts
	}
	c.JSON(code, resp)
}

func (s *server) startCheckout(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	valid, validationErrors, err := s.contract.Validate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(validationErrors)})
		return
	}

	var req checkout.PaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	// Phone normalization happens at input time, before validation.
	req.PayerPhone = checkout.StripNonDigits(req.PayerPhone)

	sess := s.newSession()
	if err := sess.orch.StartPayment(c.Request.Context(), req); err != nil {
		var vErr *checkout.ValidationError
		if errors.As(err, &vErr) {
			// The session never held an attempt; it is not retained.
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	metrics.OpenSessions.Inc()

	log.Info().Str("session_id", sess.id).Msg("checkout session opened")
	s.respond(c, http.StatusOK, sess)
}

func (s *server) getCheckout(c *gin.Context) {
	sess, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
		return
	}
	s.respond(c, http.StatusOK, sess)
}

func (s *server) gatewayCallback(c *gin.Context) {
	sess, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
		return
	}

	var payload checkout.GatewayCompletionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid completion payload: " + err.Error()})
		return
	}

	if err := sess.bridge.HandleCompletion(payload); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, http.StatusOK, sess)
}

func (s *server) gatewayDismiss(c *gin.Context) {
	sess, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
		return
	}

	// Capture the order before the dismissal clears it.
	before := sess.orch.Snapshot()
	if err := sess.bridge.HandleDismiss(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	s.recorder.Append(reporting.LogEntry{
		Timestamp: time.Now(),
		SessionID: sess.id,
		Status:    reporting.StatusCancelled,
		Amount:    before.TotalAmount,
		Currency:  before.Currency,
		Gateway:   s.cfg.GatewayName,
	})
	s.respond(c, http.StatusOK, sess)
}

func (s *server) retryCheckout(c *gin.Context) {
	sess, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
		return
	}

	if err := sess.orch.Retry(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "checkout": sess.orch.Snapshot()})
		return
	}
	s.respond(c, http.StatusOK, sess)
}

func (s *server) closeCheckout(c *gin.Context) {
	sess, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
		return
	}

	if err := sess.orch.Close(); err != nil {
		// An open widget blocks the close; the session is untouched.
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	metrics.OpenSessions.Dec()

	log.Info().Str("session_id", sess.id).Msg("checkout session closed")
	c.JSON(http.StatusOK, gin.H{"closed": true})
}

func (s *server) report(c *gin.Context) {
	report := s.reporter.GenerateRetrospective(s.recorder.Snapshot())
	c.JSON(http.StatusOK, report)
}
