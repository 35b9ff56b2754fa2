package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	marketdomain "github.com/ItsAdel/morpho-apr/internal/domain/market"
	positiondomain "github.com/ItsAdel/morpho-apr/internal/domain/position"
	snapshotdomain "github.com/ItsAdel/morpho-apr/internal/domain/snapshot"
	vaultdomain "github.com/ItsAdel/morpho-apr/internal/domain/vault"
	"github.com/ItsAdel/morpho-apr/internal/repository/postgres"
	"github.com/ItsAdel/morpho-apr/test/integration/testutil"
)

func TestPostgresRepositoriesCoreFlow(t *testing.T) {
	pool := testutil.NewTestPool(t)
	defer pool.Close()
	testutil.ApplyMigrations(t, pool)
	testutil.ResetTables(t, pool)

	ctx := context.Background()
	marketRepo := postgres.NewMarketRepository(pool)
	vaultRepo := postgres.NewVaultRepository(pool)
	borrowerRepo := postgres.NewBorrowerRepository(pool)
	positionRepo := postgres.NewPositionRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)

	m, err := marketRepo.Upsert(ctx, marketdomain.CreateInput{
		MarketID:        "0xmarket1",
		Name:            "USDC/wstETH",
		LoanAsset:       "USDC",
		CollateralAsset: "wstETH",
		APRCap:          0.12,
	})
	if err != nil {
		t.Fatalf("upsert market: %v", err)
	}
	if m.AlertThreshold != 0.24 {
		t.Fatalf("alert threshold = %v, want cap*2", m.AlertThreshold)
	}

	updated, err := marketRepo.UpdateCap(ctx, "0xmarket1", 0.10)
	if err != nil {
		t.Fatalf("update cap: %v", err)
	}
	if updated.APRCap != 0.10 || updated.AlertThreshold != 0.20 {
		t.Fatalf("cap update did not rederive threshold: %+v", updated)
	}

	v, err := vaultRepo.Upsert(ctx, vaultdomain.CreateInput{Address: "0xvault1", Name: "Prime USDC", TokenSymbol: "USDC"})
	if err != nil {
		t.Fatalf("upsert vault: %v", err)
	}
	vAgain, err := vaultRepo.Upsert(ctx, vaultdomain.CreateInput{Address: "0xvault1", Name: "Prime USDC", TokenSymbol: "USDC"})
	if err != nil {
		t.Fatalf("re-upsert vault: %v", err)
	}
	if v.ID != vAgain.ID {
		t.Fatalf("vault upsert created a duplicate: %d vs %d", v.ID, vAgain.ID)
	}

	b, err := borrowerRepo.Upsert(ctx, "0xborrower1")
	if err != nil {
		t.Fatalf("upsert borrower: %v", err)
	}

	borrowerPos, err := positionRepo.Create(ctx, positiondomain.CreateInput{
		MarketID:        m.MarketID,
		Owner:           positiondomain.BorrowerOwner(b.ID),
		PrincipalAmount: 1000,
		CurrentDebt:     1000,
	})
	if err != nil {
		t.Fatalf("create borrower position: %v", err)
	}
	if borrowerPos.Owner.Kind != positiondomain.KindBorrower || borrowerPos.Owner.ID != b.ID {
		t.Fatalf("owner not round-tripped: %+v", borrowerPos.Owner)
	}

	vaultPos, err := positionRepo.Create(ctx, positiondomain.CreateInput{
		MarketID:     m.MarketID,
		Owner:        positiondomain.VaultOwner(v.ID),
		SupplyAssets: 5000,
	})
	if err != nil {
		t.Fatalf("create vault position: %v", err)
	}

	if _, err := positionRepo.Create(ctx, positiondomain.CreateInput{MarketID: m.MarketID}); !errors.Is(err, positiondomain.ErrInvalidOwner) {
		t.Fatalf("ownerless position must be rejected, got %v", err)
	}

	borrowers, err := positionRepo.ListActiveByKind(ctx, positiondomain.KindBorrower)
	if err != nil {
		t.Fatalf("list borrower positions: %v", err)
	}
	if len(borrowers) != 1 || borrowers[0].ID != borrowerPos.ID {
		t.Fatalf("expected the one borrower position, got %+v", borrowers)
	}

	vaults, err := positionRepo.ListActiveByKind(ctx, positiondomain.KindVault)
	if err != nil {
		t.Fatalf("list vault positions: %v", err)
	}
	if len(vaults) != 1 || vaults[0].Principal() != 5000 {
		t.Fatalf("expected the one vault allocation, got %+v", vaults)
	}

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	snap := snapshotdomain.InterestSnapshot{
		PositionID:       borrowerPos.ID,
		MarketID:         m.MarketID,
		SnapshotDate:     day,
		CurrentRate:      0.18,
		CappedRate:       0.10,
		InterestAccrued:  0.493151,
		InterestAboveCap: 0.219178,
		TokenSymbol:      "USDC",
	}
	if err := snapshotRepo.UpsertInterest(ctx, snap); err != nil {
		t.Fatalf("upsert interest snapshot: %v", err)
	}
	snap.InterestAboveCap = 0.2
	if err := snapshotRepo.UpsertInterest(ctx, snap); err != nil {
		t.Fatalf("re-upsert interest snapshot: %v", err)
	}

	rows, err := snapshotRepo.ListInterestForDay(ctx, day)
	if err != nil {
		t.Fatalf("list interest for day: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rerun must overwrite, not duplicate: %d rows", len(rows))
	}
	if rows[0].InterestAboveCap != 0.2 {
		t.Fatalf("rerun did not overwrite computed fields: %+v", rows[0])
	}

	if err := positionRepo.Close(ctx, vaultPos.ID); err != nil {
		t.Fatalf("close position: %v", err)
	}
	vaults, err = positionRepo.ListActiveByKind(ctx, positiondomain.KindVault)
	if err != nil {
		t.Fatalf("list vault positions after close: %v", err)
	}
	if len(vaults) != 0 {
		t.Fatalf("closed position still listed as active")
	}
}

func TestPostgresPositionUpsertCorrectsDebtDrift(t *testing.T) {
	pool := testutil.NewTestPool(t)
	defer pool.Close()
	testutil.ApplyMigrations(t, pool)
	testutil.ResetTables(t, pool)

	ctx := context.Background()
	marketRepo := postgres.NewMarketRepository(pool)
	borrowerRepo := postgres.NewBorrowerRepository(pool)
	positionRepo := postgres.NewPositionRepository(pool)

	if _, err := marketRepo.Upsert(ctx, marketdomain.CreateInput{MarketID: "0xm", Name: "m", LoanAsset: "USDC", CollateralAsset: "WETH", APRCap: 0.1}); err != nil {
		t.Fatalf("upsert market: %v", err)
	}
	b, err := borrowerRepo.Upsert(ctx, "0xdrift")
	if err != nil {
		t.Fatalf("upsert borrower: %v", err)
	}

	first, err := positionRepo.UpsertBorrowerPosition(ctx, "0xm", b.ID, 100, 90)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := positionRepo.UpsertBorrowerPosition(ctx, "0xm", b.ID, 250, 90)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("upsert created a duplicate position: %d vs %d", first.ID, second.ID)
	}
	if second.CurrentDebt != 250 {
		t.Fatalf("debt drift not corrected: %v", second.CurrentDebt)
	}
}
