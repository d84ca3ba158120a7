package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainduel/backend/internal/ledger"
)

// GetBalance returns the caller's available and held funds.
func GetBalance(lg *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		available, held := lg.Balance(caller(c))
		c.JSON(http.StatusOK, gin.H{
			"user_id":           caller(c),
			"available_balance": available,
			"held_balance":      held,
		})
	}
}

// GetStats returns the caller's lifetime game statistics.
func GetStats(lg *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		played, won, winnings := lg.Stats(caller(c))
		c.JSON(http.StatusOK, gin.H{
			"user_id":        caller(c),
			"games_played":   played,
			"games_won":      won,
			"total_winnings": winnings,
		})
	}
}

// Deposit credits confirmed external funds to the caller's available
// balance. Confirmation of the underlying crypto transfer is the funding
// subsystem's job; operators call this once a deposit has settled on-chain.
func Deposit(lg *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id"`
			Amount int64  `json:"amount"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and amount required"})
			return
		}
		if err := lg.Deposit(req.UserID, req.Amount); err != nil {
			respondError(c, err)
			return
		}
		available, held := lg.Balance(req.UserID)
		c.JSON(http.StatusOK, gin.H{
			"user_id":           req.UserID,
			"available_balance": available,
			"held_balance":      held,
		})
	}
}

// Withdraw debits available funds for an external payout. Held stakes stay
// untouched; the actual crypto transfer happens downstream of this call.
func Withdraw(lg *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id"`
			Amount int64  `json:"amount"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and amount required"})
			return
		}
		if err := lg.Withdraw(req.UserID, req.Amount); err != nil {
			respondError(c, err)
			return
		}
		available, held := lg.Balance(req.UserID)
		c.JSON(http.StatusOK, gin.H{
			"user_id":           req.UserID,
			"available_balance": available,
			"held_balance":      held,
		})
	}
}
