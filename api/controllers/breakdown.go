package controllers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

type displayAmounts struct {
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
	Net    string `json:"net"`
}

// breakdownResponse carries the exact values and their two-decimal display form.
type breakdownResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	Net       decimal.Decimal `json:"net"`
	Display   displayAmounts  `json:"display"`
	TierIndex int             `json:"tier_index"`
	TierID    string          `json:"tier_id,omitempty"`
	Matched   bool            `json:"matched"`
}

func breakdownFrom(b fees.Breakdown) breakdownResponse {
	return breakdownResponse{
		Amount: b.Amount,
		Fee:    b.Fee,
		Net:    b.Net,
		Display: displayAmounts{
			Amount: b.Amount.StringFixed(2),
			Fee:    b.Fee.StringFixed(2),
			Net:    b.Net.StringFixed(2),
		},
		TierIndex: b.TierIndex,
		TierID:    b.TierID,
		Matched:   b.Matched,
	}
}

type previewResponse struct {
	ScheduleID *uuid.UUID          `json:"schedule_id,omitempty"`
	Method     enums.PaymentMethod `json:"method,omitempty"`
	Currency   enums.Currency      `json:"currency"`
	Enabled    bool                `json:"enabled"`
	Rows       []breakdownResponse `json:"rows"`
	Gaps       []fees.Gap          `json:"gaps"`
	Issues     []fees.TierIssue    `json:"issues,omitempty"`
}

func previewFrom(result *fees.PreviewResult) previewResponse {
	rows := make([]breakdownResponse, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = breakdownFrom(row)
	}
	gaps := result.Gaps
	if gaps == nil {
		gaps = []fees.Gap{}
	}
	return previewResponse{
		ScheduleID: result.ScheduleID,
		Method:     result.Method,
		Currency:   result.Currency,
		Enabled:    result.Enabled,
		Rows:       rows,
		Gaps:       gaps,
		Issues:     result.Issues,
	}
}

type quoteResponse struct {
	TenantID   uuid.UUID           `json:"tenant_id"`
	ScheduleID uuid.UUID           `json:"schedule_id"`
	Method     enums.PaymentMethod `json:"method"`
	Currency   enums.Currency      `json:"currency"`
	breakdownResponse
}

func quoteFrom(q *fees.Quote) quoteResponse {
	return quoteResponse{
		TenantID:          q.TenantID,
		ScheduleID:        q.ScheduleID,
		Method:            q.Method,
		Currency:          q.Currency,
		breakdownResponse: breakdownFrom(q.Breakdown),
	}
}
