package handlers

import (
	"testing"
	"time"

	"philabasket/internal/models"
)

func TestMergeHistorySortsNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	transactions := []models.RewardTransaction{
		{Type: models.RewardEarnDelivery, Title: "Order #1001 delivered", Points: 45, CreatedAt: base.Add(1 * time.Hour)},
		{Type: models.RewardRedeemOrder, Title: "Redeemed 100 PTS", Points: -100, CreatedAt: base.Add(3 * time.Hour)},
	}
	rewards := []models.UserReward{
		{RewardName: "Launch bonus", Points: 200, Redeemed: false, CreatedAt: base.Add(2 * time.Hour)},
	}

	entries := mergeHistory(transactions, rewards)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Date.After(entries[i-1].Date) {
			t.Fatalf("entries not sorted newest first: %v before %v", entries[i-1].Date, entries[i].Date)
		}
	}
	if entries[0].Title != "Redeemed 100 PTS" {
		t.Fatalf("expected redeem entry first, got %q", entries[0].Title)
	}
}

func TestTransactionToEntrySigns(t *testing.T) {
	earn := transactionToEntry(models.RewardTransaction{Type: models.RewardEarnReferral, Points: 500})
	if earn.Sign != "+" || earn.Amount != 500 {
		t.Fatalf("expected +500, got %s%d", earn.Sign, earn.Amount)
	}

	redeem := transactionToEntry(models.RewardTransaction{Type: models.RewardRedeemOrder, Points: -100})
	if redeem.Sign != "-" || redeem.Amount != 100 {
		t.Fatalf("expected -100, got %s%d", redeem.Sign, redeem.Amount)
	}
}

func TestUserRewardToEntryLegacyShape(t *testing.T) {
	entry := userRewardToEntry(models.UserReward{RewardName: "Launch bonus", Points: 200, Redeemed: true})
	if entry.Type != "legacy_reward" {
		t.Fatalf("expected legacy_reward type, got %q", entry.Type)
	}
	if entry.Sign != "-" {
		t.Fatalf("expected redeemed legacy rows to show -, got %q", entry.Sign)
	}
}

func TestMergeHistoryEmptyInputs(t *testing.T) {
	entries := mergeHistory(nil, nil)
	if len(entries) != 0 {
		t.Fatalf("expected empty slice, got %v", entries)
	}
}
