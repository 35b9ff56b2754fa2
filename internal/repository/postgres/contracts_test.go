package postgres

import (
	borrowerdomain "github.com/ItsAdel/morpho-apr/internal/domain/borrower"
	marketdomain "github.com/ItsAdel/morpho-apr/internal/domain/market"
	positiondomain "github.com/ItsAdel/morpho-apr/internal/domain/position"
	reimbursementdomain "github.com/ItsAdel/morpho-apr/internal/domain/reimbursement"
	snapshotdomain "github.com/ItsAdel/morpho-apr/internal/domain/snapshot"
	vaultdomain "github.com/ItsAdel/morpho-apr/internal/domain/vault"
)

var (
	_ marketdomain.Repository        = (*MarketRepository)(nil)
	_ vaultdomain.Repository         = (*VaultRepository)(nil)
	_ borrowerdomain.Repository      = (*BorrowerRepository)(nil)
	_ positiondomain.Repository      = (*PositionRepository)(nil)
	_ snapshotdomain.Repository      = (*SnapshotRepository)(nil)
	_ reimbursementdomain.Repository = (*ReimbursementRepository)(nil)
)
