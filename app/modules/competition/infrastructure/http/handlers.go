// Package competitionhttp exposes the competition service over a chi HTTP API.
package competitionhttp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitionreports "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/reports"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxBodyBytes = 1 << 20
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handlers serves the competition HTTP API.
type Handlers struct {
	service competitionservice.Service
	logger  *slog.Logger
	palette competitionreports.ChartPalette
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(service competitionservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
		palette: competitionreports.DefaultPalette,
	}
}

// Mount registers the API under /api/competitions. Buy-in capture is only
// reachable with a service token carrying ScopeCaptureBuyIn.
func (h *Handlers) Mount(r chi.Router, verifier TokenVerifier, services ServiceVerifier, limiter *IPRateLimiter, allowedOrigins []string) {
	r.Route("/api/competitions", func(r chi.Router) {
		r.Use(CORSMiddleware(allowedOrigins))
		r.Use(RateLimitMiddleware(limiter))
		r.Use(CorrelationMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(ServiceAuthMiddleware(services, ScopeCaptureBuyIn))
			r.Post("/{competitionID}/prize-pool/buy-ins", h.CaptureBuyIn)
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(verifier))

			r.Post("/payouts/{payoutID}/claim", h.ClaimPayout)
			r.Post("/{competitionID}/settle", h.SettleCompetition)
			r.Post("/{competitionID}/participants/{participantID}/lock", h.LockScore)
			r.Put("/{competitionID}/participants/{participantID}/score", h.SyncScore)
			r.Get("/{competitionID}/standings", h.GetStandings)
			r.Get("/{competitionID}/standings/chart.png", h.GetStandingsChart)
			r.Post("/{competitionID}/prize-pool", h.CreatePrizePool)
			r.Get("/{competitionID}/prize-pool", h.GetPrizePool)
			r.Get("/{competitionID}/payouts", h.ListPayouts)
			r.Get("/{competitionID}/payouts/report.xlsx", h.GetPayoutReport)
		})
	})
}

// respond writes a service result. Infrastructure errors are logged and
// answered with 500; business failures map through statusFor.
func respond[S any](h *Handlers, w http.ResponseWriter, r *http.Request, op string, result results.OperationResult[S, error], err error, status int) {
	if !h.checkResult(w, r, op, result.Failure, err) {
		return
	}
	writeJSON(w, status, result.Success)
}

func (h *Handlers) checkResult(w http.ResponseWriter, r *http.Request, op string, failure *error, err error) bool {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Request failed",
			attr.String("operation", op),
			attr.ExtractCorrelationID(r.Context()),
			attr.Error(err),
		)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return false
	}
	if failure != nil {
		writeError(w, statusFor(*failure), (*failure).Error())
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := CallerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
	}
	return id, ok
}

// SettleCompetition runs settlement. Repeats answer 200 with Processed=false.
func (h *Handlers) SettleCompetition(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	result, err := h.service.SettleCompetition(r.Context(), competitionID)
	respond(h, w, r, "settle_competition", result, err, http.StatusOK)
}

// LockScore locks the caller's score. Repeats answer 200 with AlreadyLocked.
func (h *Handlers) LockScore(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	participantID, ok := pathUUID(w, r, "participantID")
	if !ok {
		return
	}
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	result, err := h.service.LockScore(r.Context(), competitionID, participantID, callerID)
	respond(h, w, r, "lock_score", result, err, http.StatusOK)
}

type syncScoreRequest struct {
	TotalPoints *float64 `json:"total_points"`
}

func (h *Handlers) SyncScore(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	participantID, ok := pathUUID(w, r, "participantID")
	if !ok {
		return
	}
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	var req syncScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TotalPoints == nil {
		writeError(w, http.StatusBadRequest, "total_points is required")
		return
	}
	result, err := h.service.SyncScore(r.Context(), competitionID, participantID, callerID, *req.TotalPoints)
	respond(h, w, r, "sync_score", result, err, http.StatusOK)
}

func (h *Handlers) GetStandings(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	result, err := h.service.GetStandings(r.Context(), competitionID)
	respond(h, w, r, "get_standings", result, err, http.StatusOK)
}

func (h *Handlers) GetStandingsChart(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	result, err := h.service.GetStandings(r.Context(), competitionID)
	if !h.checkResult(w, r, "get_standings_chart", result.Failure, err) {
		return
	}

	png, err := competitionreports.StandingsChart(*result.Success, h.palette)
	if err != nil {
		h.checkResult(w, r, "get_standings_chart", nil, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

type createPoolRequest struct {
	PoolType         string             `json:"pool_type"`
	TotalAmountCents int64              `json:"total_amount_cents"`
	BuyInAmountCents int64              `json:"buy_in_amount_cents"`
	PayoutStructure  map[string]float64 `json:"payout_structure"`
}

func (h *Handlers) CreatePrizePool(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	var req createPoolRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input := competitiondomain.PoolInput{
		PoolType:        competitiondomain.PoolType(req.PoolType),
		TotalAmount:     competitiondomain.Cents(req.TotalAmountCents),
		BuyInAmount:     competitiondomain.Cents(req.BuyInAmountCents),
		PayoutStructure: competitiondomain.PayoutStructure(req.PayoutStructure),
	}
	result, err := h.service.CreatePrizePool(r.Context(), competitionID, callerID, input)
	respond(h, w, r, "create_prize_pool", result, err, http.StatusCreated)
}

func (h *Handlers) GetPrizePool(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	result, err := h.service.GetPrizePool(r.Context(), competitionID)
	respond(h, w, r, "get_prize_pool", result, err, http.StatusOK)
}

type buyInRequest struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	PaymentRef    string    `json:"payment_ref"`
	AmountCents   int64     `json:"amount_cents"`
}

// CaptureBuyIn records a captured payment. Only the payment collaborator's
// service token reaches it, so the caller is not required to own the
// participant.
func (h *Handlers) CaptureBuyIn(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	var req buyInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ParticipantID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "participant_id is required")
		return
	}
	result, err := h.service.CaptureBuyIn(r.Context(), competitionID, req.ParticipantID, req.PaymentRef, competitiondomain.Cents(req.AmountCents))
	respond(h, w, r, "capture_buy_in", result, err, http.StatusOK)
}

func (h *Handlers) ListPayouts(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListPayouts(r.Context(), competitionID, callerID)
	respond(h, w, r, "list_payouts", result, err, http.StatusOK)
}

func (h *Handlers) GetPayoutReport(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathUUID(w, r, "competitionID")
	if !ok {
		return
	}
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetPayoutReport(r.Context(), competitionID, callerID)
	if !h.checkResult(w, r, "get_payout_report", result.Failure, err) {
		return
	}

	raw, err := competitionreports.PayoutWorkbook(*result.Success)
	if err != nil {
		h.checkResult(w, r, "get_payout_report", nil, err)
		return
	}
	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payouts-%s.xlsx"`, competitionID))
	_, _ = w.Write(raw)
}

func (h *Handlers) ClaimPayout(w http.ResponseWriter, r *http.Request) {
	payoutID, ok := pathUUID(w, r, "payoutID")
	if !ok {
		return
	}
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	result, err := h.service.ClaimPayout(r.Context(), payoutID, callerID)
	respond(h, w, r, "claim_payout", result, err, http.StatusOK)
}
