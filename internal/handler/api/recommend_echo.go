package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	models "IndiLimit/internal/domain/models"
	domrepo "IndiLimit/internal/domain/repository"
	icache "IndiLimit/internal/service/cache"
	"IndiLimit/internal/service/metrics"
	"IndiLimit/internal/service/ratelimit"
	"IndiLimit/internal/usecase"
	xhttp "IndiLimit/pkg/http"
	xlogger "IndiLimit/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RecommendHandler implements the Echo-based HTTP surface of the engine.
type RecommendHandler struct {
	logger  *xlogger.Logger
	rec     *usecase.Recommender
	history *usecase.HistoryUseCase
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
}

func NewRecommendHandler(logger *xlogger.Logger, rec *usecase.Recommender, history *usecase.HistoryUseCase) *RecommendHandler {
	metrics.Register()
	return &RecommendHandler{logger: logger, rec: rec, history: history, rl: ratelimit.New()}
}

// SetCache injects a byte cache for the history endpoint.
func (h *RecommendHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *RecommendHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	g := e.Group("/api")
	g.GET("/recommend", h.Recommend)
	g.POST("/recommend", h.Recommend)
	g.GET("/risk-profiles", h.RiskProfiles)
	g.GET("/history", h.History)
}

type recommendationResponse struct {
	BTCPriceUSD        float64 `json:"btc_price_usd"`
	USDINRRate         float64 `json:"usd_inr_rate"`
	HardLimitINR       float64 `json:"hard_limit_inr"`
	RecommendedPercent float64 `json:"recommended_percentage"`
	RiskProfile        string  `json:"risk_profile"`
	MarketSentiment    string  `json:"market_sentiment"`
	BaselineMAE        float64 `json:"baseline_mae"`
	ModelMAE           float64 `json:"model_mae"`
	UsingFallbackRates bool    `json:"using_fallback_rates"`
}

func (h *RecommendHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"service": "indilimit",
		"endpoints": []string{
			"/api/recommend",
			"/api/risk-profiles",
			"/api/history",
			"/metrics",
		},
	})
}

func (h *RecommendHandler) Recommend(c echo.Context) error {
	start := time.Now()
	endpoint := "recommend"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.RecommendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	user := models.UserContext{
		SpendingBalance:  req.Balance,
		ExistingHoldings: req.BTCHoldings,
		FirstPurchase:    req.FirstTime,
		Profile:          models.RiskProfile(req.RiskProfile),
	}

	res, err := h.rec.RecommendLimit(c.Request().Context(), user)
	if err != nil {
		if errors.Is(err, models.ErrUnknownProfile) {
			return xhttp.BadRequestResponse(c, map[string]string{"risk_profile": err.Error()})
		}
		h.logger.Error("recommend usecase error", xlogger.Error(err))
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, recommendationResponse{
		BTCPriceUSD:        res.BTCUSD,
		USDINRRate:         res.USDINR,
		HardLimitINR:       res.HardLimit,
		RecommendedPercent: res.RecommendedPercent,
		RiskProfile:        res.RiskProfile,
		MarketSentiment:    res.MarketSentiment,
		BaselineMAE:        res.BaselineMAE,
		ModelMAE:           res.ModelMAE,
		UsingFallbackRates: res.UsingFallbackRates,
	})
}

func (h *RecommendHandler) RiskProfiles(c echo.Context) error {
	type profileEntry struct {
		MaxAllocation  float64 `json:"max_allocation"`
		MaxSingleTrade float64 `json:"max_single_trade"`
		Description    string  `json:"description"`
	}
	out := make(map[string]profileEntry)
	for name, cfg := range models.Profiles() {
		out[string(name)] = profileEntry{
			MaxAllocation:  cfg.MaxCryptoAllocation,
			MaxSingleTrade: cfg.MaxSingleTrade,
			Description:    cfg.Description,
		}
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *RecommendHandler) History(c echo.Context) error {
	start := time.Now()
	endpoint := "history"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Days == 0 {
		req.Days = xhttp.ParseIntDefault(c.QueryParam("days"), 30)
	}
	g := domrepo.NormalizeGranularity(req.Granularity)

	if !h.rl.Allow(c.RealIP()+":history", 5, 2) {
		h.logger.Warn("history rate_limited", xlogger.String("remote", c.RealIP()))
		return echo.NewHTTPError(429, "rate limited")
	}

	cacheKey := "history:" + string(g) + ":" + strconv.Itoa(req.Days)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("history cache_get_error", xlogger.Error(err))
		} else if ok {
			h.logger.Debug("history cache_hit", xlogger.String("key", cacheKey))
			return c.JSONBlob(200, b)
		}
	}

	res, err := h.history.GetHistory(c.Request().Context(), usecase.GetHistoryParams{
		Days:        req.Days,
		Granularity: g,
	})
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, 60*time.Second); err != nil {
				h.logger.Warn("history cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

