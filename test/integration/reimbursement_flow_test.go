package integration

import (
	"context"
	"testing"
	"time"

	marketdomain "github.com/ItsAdel/morpho-apr/internal/domain/market"
	positiondomain "github.com/ItsAdel/morpho-apr/internal/domain/position"
	snapshotdomain "github.com/ItsAdel/morpho-apr/internal/domain/snapshot"
	vaultdomain "github.com/ItsAdel/morpho-apr/internal/domain/vault"
	"github.com/ItsAdel/morpho-apr/internal/repository/postgres"
	"github.com/ItsAdel/morpho-apr/test/integration/testutil"
)

func TestReimbursementLifecycleAgainstPostgres(t *testing.T) {
	pool := testutil.NewTestPool(t)
	defer pool.Close()
	testutil.ApplyMigrations(t, pool)
	testutil.ResetTables(t, pool)

	ctx := context.Background()
	marketRepo := postgres.NewMarketRepository(pool)
	borrowerRepo := postgres.NewBorrowerRepository(pool)
	positionRepo := postgres.NewPositionRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)
	reimbursementRepo := postgres.NewReimbursementRepository(pool)

	m, err := marketRepo.Upsert(ctx, marketdomain.CreateInput{MarketID: "0xm", Name: "m", LoanAsset: "USDC", CollateralAsset: "WETH", APRCap: 0.1})
	if err != nil {
		t.Fatalf("upsert market: %v", err)
	}
	b, err := borrowerRepo.Upsert(ctx, "0xowed")
	if err != nil {
		t.Fatalf("upsert borrower: %v", err)
	}
	pos, err := positionRepo.Create(ctx, positiondomain.CreateInput{
		MarketID:        m.MarketID,
		Owner:           positiondomain.BorrowerOwner(b.ID),
		PrincipalAmount: 1000,
		CurrentDebt:     1000,
	})
	if err != nil {
		t.Fatalf("create position: %v", err)
	}

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	snaps := []snapshotdomain.InterestSnapshot{
		{PositionID: pos.ID, MarketID: m.MarketID, SnapshotDate: day, CurrentRate: 0.18, CappedRate: 0.1, InterestAccrued: 0.493151, InterestAboveCap: 0.219178, TokenSymbol: "USDC"},
	}
	for _, s := range snaps {
		if err := snapshotRepo.UpsertInterest(ctx, s); err != nil {
			t.Fatalf("seed snapshot: %v", err)
		}
	}

	created, err := reimbursementRepo.CreateForDay(ctx, day)
	if err != nil {
		t.Fatalf("create for day: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 reimbursement, created %d", created)
	}

	again, err := reimbursementRepo.CreateForDay(ctx, day)
	if err != nil {
		t.Fatalf("rerun create for day: %v", err)
	}
	if again != 0 {
		t.Fatalf("rerun must create nothing, created %d", again)
	}

	pending, err := reimbursementRepo.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Amount != 0.219178 || pending[0].TokenSymbol != "USDC" {
		t.Fatalf("unexpected pending queue: %+v", pending)
	}
	item := pending[0]

	now := time.Now().UTC()
	if err := reimbursementRepo.MarkFailed(ctx, item.ID, now); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	// Failed rows are not pending; settling one directly must be refused.
	if err := reimbursementRepo.MarkCompleted(ctx, item.ID, "0xabc", now); err == nil {
		t.Fatalf("completing a failed row must require a reset first")
	}

	reset, err := reimbursementRepo.ResetFailed(ctx, 10)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset, got %d", reset)
	}

	if err := reimbursementRepo.MarkCompleted(ctx, item.ID, "0xabc", now.Add(time.Second)); err != nil {
		t.Fatalf("mark completed after reset: %v", err)
	}
	// Completed is terminal.
	if err := reimbursementRepo.MarkFailed(ctx, item.ID, now.Add(2*time.Second)); err == nil {
		t.Fatalf("completed rows must not transition to failed")
	}
	if _, err := reimbursementRepo.ResetFailed(ctx, 10); err != nil {
		t.Fatalf("reset with nothing failed: %v", err)
	}

	stats, err := reimbursementRepo.GetStats(ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.CompletedCount != 1 || stats.PendingCount != 0 || stats.FailedCount != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.CompletedAmount != 0.219178 {
		t.Fatalf("completed amount = %v", stats.CompletedAmount)
	}

	summary, err := reimbursementRepo.ListForAddress(ctx, "0xowed")
	if err != nil {
		t.Fatalf("list for address: %v", err)
	}
	if summary.OwnerKind != positiondomain.KindBorrower || len(summary.Items) != 1 || summary.TotalAmount != 0.219178 {
		t.Fatalf("unexpected address summary: %+v", summary)
	}
	if summary.Items[0].TxHash != "0xabc" {
		t.Fatalf("tx hash not recorded: %+v", summary.Items[0])
	}

	unknown, err := reimbursementRepo.ListForAddress(ctx, "0xnobody")
	if err != nil {
		t.Fatalf("list for unknown address: %v", err)
	}
	if len(unknown.Items) != 0 || unknown.TotalAmount != 0 {
		t.Fatalf("unknown address should have an empty summary: %+v", unknown)
	}

	processed, err := reimbursementRepo.ListProcessedSince(ctx, now.Add(-time.Minute), 10)
	if err != nil {
		t.Fatalf("list processed since: %v", err)
	}
	if len(processed) != 1 || processed[0].Status != "completed" {
		t.Fatalf("unexpected processed feed: %+v", processed)
	}
}

func TestVaultPoolAggregation(t *testing.T) {
	pool := testutil.NewTestPool(t)
	defer pool.Close()
	testutil.ApplyMigrations(t, pool)
	testutil.ResetTables(t, pool)

	ctx := context.Background()
	marketRepo := postgres.NewMarketRepository(pool)
	vaultRepo := postgres.NewVaultRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)
	reimbursementRepo := postgres.NewReimbursementRepository(pool)

	if _, err := marketRepo.Upsert(ctx, marketdomain.CreateInput{MarketID: "0xm", Name: "m", LoanAsset: "USDC", CollateralAsset: "WETH", APRCap: 0.05}); err != nil {
		t.Fatalf("upsert market: %v", err)
	}
	v1, err := vaultRepo.Upsert(ctx, vaultdomain.CreateInput{Address: "0xv1", Name: "v1", TokenSymbol: "USDC"})
	if err != nil {
		t.Fatalf("upsert vault: %v", err)
	}
	v2, err := vaultRepo.Upsert(ctx, vaultdomain.CreateInput{Address: "0xv2", Name: "v2", TokenSymbol: "USDC"})
	if err != nil {
		t.Fatalf("upsert vault: %v", err)
	}

	recent := time.Now().UTC().Truncate(24 * time.Hour)
	ancient := recent.AddDate(0, 0, -60)
	seed := []snapshotdomain.SupplySnapshot{
		{VaultID: v1.ID, MarketID: "0xm", SnapshotDate: recent, CurrentRate: 0.09, CappedRate: 0.05, InterestAccrued: 1.5, InterestAboveCap: 0.6, TokenSymbol: "USDC"},
		{VaultID: v2.ID, MarketID: "0xm", SnapshotDate: recent.AddDate(0, 0, -1), CurrentRate: 0.08, CappedRate: 0.05, InterestAccrued: 1.1, InterestAboveCap: 0.4, TokenSymbol: "USDC"},
		{VaultID: v1.ID, MarketID: "0xm", SnapshotDate: ancient, CurrentRate: 0.2, CappedRate: 0.05, InterestAccrued: 9, InterestAboveCap: 5, TokenSymbol: "USDC"},
	}
	for _, s := range seed {
		if err := snapshotRepo.UpsertSupply(ctx, s); err != nil {
			t.Fatalf("seed supply snapshot: %v", err)
		}
	}

	entries, err := reimbursementRepo.GetVaultPool(ctx, recent.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("get vault pool: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one token entry, got %+v", entries)
	}
	if entries[0].TotalAboveCap != 1.0 || entries[0].VaultCount != 2 {
		t.Fatalf("window aggregation wrong: %+v", entries[0])
	}
}
