package api

import (
	"encoding/json"
	"log"
	"net/http"

	"holabox/internal/database"
	"holabox/internal/models"
	"holabox/internal/quota"

	"github.com/jaevor/go-nanoid"
)

type PlanInfo struct {
	Name         string   `json:"name"`
	StorageBytes int64    `json:"storage_bytes"`
	PriceMonthly float64  `json:"price_monthly"`
	Features     []string `json:"features"`
}

var planCatalog = []PlanInfo{
	{
		Name:         quota.PlanFree,
		StorageBytes: quota.FreeLimitBytes,
		PriceMonthly: 0,
		Features:     []string{"20 GB storage", "File sharing", "Web access"},
	},
	{
		Name:         quota.PlanPremium,
		StorageBytes: quota.PremiumLimitBytes,
		PriceMonthly: 9.99,
		Features:     []string{"1 TB storage", "File sharing", "Web access", "Priority support"},
	},
	{
		Name:         quota.PlanUltra,
		StorageBytes: quota.UltraLimitBytes,
		PriceMonthly: 19.99,
		Features:     []string{"2 TB storage", "File sharing", "Web access", "Priority support", "Early access features"},
	},
}

// @Summary      List subscription plans
// @Tags         premium
// @Produce      json
// @Success      200  {array}  PlanInfo
// @Router       /premium/plans [get]
func (s *Server) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(planCatalog)
}

type UpgradePlanRequest struct {
	PlanType      string  `json:"plan_type"`
	AmountPaid    float64 `json:"amount_paid"`
	PaymentMethod string  `json:"payment_method"`
}

// @Summary      Upgrade subscription plan
// @Description  Switches the account to a paid plan for 30 days. The subscription row and the user's quota plan change in one transaction.
// @Tags         premium
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        upgradeRequest  body      UpgradePlanRequest  true  "Target plan"
// @Success      200  {object}  models.Subscription
// @Failure      400  {string}  string "Unknown plan"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /premium/upgrade [post]
func (s *Server) UpgradePlanHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req UpgradePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !quota.IsKnownPlan(req.PlanType) || req.PlanType == quota.PlanFree {
		http.Error(w, "Unknown or non-upgradable plan type", http.StatusBadRequest)
		return
	}

	txnGen, err := nanoid.Standard(21)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var subscription *models.Subscription

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		subscription, err = q.UpgradeSubscription(r.Context(), database.UpgradeSubscriptionParams{
			UserID:        claims.UserID,
			PlanType:      req.PlanType,
			AmountPaid:    req.AmountPaid,
			PaymentMethod: req.PaymentMethod,
			TransactionID: "txn_" + txnGen(),
		})
		if err != nil {
			return err
		}

		return q.SetUserPlan(r.Context(), claims.UserID, req.PlanType)
	})

	if txErr != nil {
		log.Printf("ERROR: Failed to upgrade plan of user %d: %v", claims.UserID, txErr)
		http.Error(w, "Failed to upgrade plan", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subscription)
}

// @Summary      Get my subscription
// @Tags         premium
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Subscription
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Subscription not found"
// @Router       /premium/subscription [get]
func (s *Server) GetSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	subscription, err := s.store.GetSubscriptionForUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve subscription", http.StatusInternalServerError)
		return
	}
	if subscription == nil {
		http.Error(w, "Subscription not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subscription)
}
