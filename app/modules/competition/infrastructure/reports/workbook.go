package competitionreports

import (
	"bytes"
	"fmt"
	"time"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	"github.com/xuri/excelize/v2"
)

const (
	payoutsSheet = "Payouts"
	summarySheet = "Summary"
)

var payoutHeader = []any{
	"Placement", "Recipient", "Email", "Payout Handle", "User ID", "Team ID",
	"Amount", "Status", "Claim Expires", "Claimed At", "Payout ID",
}

// PayoutWorkbook renders a reconciliation workbook with one row per payout
// and a summary sheet for the pool.
func PayoutWorkbook(report competitionservice.PayoutReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", payoutsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(payoutsSheet, "A1", &payoutHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	var total, claimed int64
	for i, p := range report.Payouts {
		teamID := ""
		if p.TeamID != nil {
			teamID = p.TeamID.String()
		}
		claimedAt := ""
		if p.ClaimedAt != nil {
			claimedAt = p.ClaimedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			p.Placement,
			p.Recipient.DisplayName,
			p.Recipient.Email,
			p.Recipient.PayoutHandle,
			p.UserID.String(),
			teamID,
			float64(p.Amount) / 100,
			string(p.ClaimStatus),
			p.ClaimExpiresAt.UTC().Format(time.RFC3339),
			claimedAt,
			p.ID.String(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(payoutsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write payout row: %w", err)
		}
		total += int64(p.Amount)
		if p.ClaimedAt != nil {
			claimed += int64(p.Amount)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]any{
		{"Competition", report.CompetitionName},
		{"Competition ID", report.CompetitionID.String()},
		{"Generated At", report.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Payouts", len(report.Payouts)},
		{"Total Paid Out", float64(total) / 100},
		{"Total Claimed", float64(claimed) / 100},
	}
	if report.Pool != nil {
		summary = append(summary,
			[]any{"Pool Type", string(report.Pool.PoolType)},
			[]any{"Pool Status", string(report.Pool.Status)},
			[]any{"Pool Total", float64(report.Pool.TotalAmount) / 100},
			[]any{"Undistributed", float64(int64(report.Pool.TotalAmount)-total) / 100},
		)
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}
