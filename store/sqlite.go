package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	_ "modernc.org/sqlite"

	"github.com/polystream/vault/types"
)

// SQLiteStore persists vault and position state to a SQLite database.
// Amounts are stored as decimal strings so they survive values beyond int64.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var (
	_ types.VaultRepository    = (*SQLiteStore)(nil)
	_ types.PositionRepository = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so share-price reads do not block writers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vaults (
			id                         TEXT PRIMARY KEY,
			risk_tier                  TEXT NOT NULL,
			underlying_asset           TEXT NOT NULL,
			paused                     INTEGER NOT NULL DEFAULT 0,
			total_shares               TEXT NOT NULL,
			total_principal            TEXT NOT NULL,
			total_assets_managed       TEXT NOT NULL,
			total_time_weighted_shares TEXT NOT NULL,
			last_epoch_time            INTEGER NOT NULL DEFAULT 0,
			active_protocol_ids        TEXT NOT NULL DEFAULT '[]',
			base_withdrawal_fee        TEXT NOT NULL DEFAULT '',
			early_withdrawal_fee       TEXT NOT NULL DEFAULT '',
			lock_period_seconds        INTEGER NOT NULL DEFAULT 0,
			withdrawal_delay_seconds   INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS positions (
			vault_id             TEXT NOT NULL,
			owner                TEXT NOT NULL,
			shares               TEXT NOT NULL,
			time_weighted_shares TEXT NOT NULL,
			entry_time           INTEGER NOT NULL DEFAULT 0,
			has_deposited_before INTEGER NOT NULL DEFAULT 0,
			last_accrual_epoch   INTEGER NOT NULL DEFAULT 0,
			version              INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (vault_id, owner)
		)`,

		`CREATE TABLE IF NOT EXISTS epoch_deposits (
			vault_id TEXT NOT NULL,
			owner    TEXT NOT NULL,
			epoch    INTEGER NOT NULL,
			amount   TEXT NOT NULL,
			PRIMARY KEY (vault_id, owner, epoch)
		)`,

		`CREATE TABLE IF NOT EXISTS active_users (
			vault_id TEXT NOT NULL,
			owner    TEXT NOT NULL,
			PRIMARY KEY (vault_id, owner)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetVault returns the vault under the id, or (nil, nil) if none exists.
func (s *SQLiteStore) GetVault(ctx context.Context, vaultID string) (*types.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `SELECT id, risk_tier, underlying_asset, paused,
		total_shares, total_principal, total_assets_managed, total_time_weighted_shares,
		last_epoch_time, active_protocol_ids, base_withdrawal_fee, early_withdrawal_fee,
		lock_period_seconds, withdrawal_delay_seconds
		FROM vaults WHERE id = ?`, vaultID)

	var (
		v                                              types.Vault
		paused                                         int
		shares, principal, assets, weighted, protocols string
	)
	err := row.Scan(&v.ID, &v.RiskTier, &v.UnderlyingAsset, &paused,
		&shares, &principal, &assets, &weighted,
		&v.LastEpochTime, &protocols, &v.BaseWithdrawalFee, &v.EarlyWithdrawalFee,
		&v.LockPeriodSeconds, &v.WithdrawalDelaySeconds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan vault %s: %w", vaultID, err)
	}

	v.Paused = paused != 0
	if v.TotalShares, err = parseAmount(shares); err != nil {
		return nil, err
	}
	if v.TotalPrincipal, err = parseAmount(principal); err != nil {
		return nil, err
	}
	if v.TotalAssetsManaged, err = parseAmount(assets); err != nil {
		return nil, err
	}
	if v.TotalTimeWeightedShares, err = parseAmount(weighted); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(protocols), &v.ActiveProtocolIds); err != nil {
		return nil, fmt.Errorf("decode protocol ids for vault %s: %w", vaultID, err)
	}
	return &v, nil
}

// SetVault stores the vault, replacing any previous state under its id.
func (s *SQLiteStore) SetVault(ctx context.Context, vault *types.Vault) error {
	if err := vault.Validate(); err != nil {
		return err
	}
	protocols, err := json.Marshal(vault.ActiveProtocolIds)
	if err != nil {
		return fmt.Errorf("encode protocol ids: %w", err)
	}
	if vault.ActiveProtocolIds == nil {
		protocols = []byte("[]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `INSERT INTO vaults (id, risk_tier, underlying_asset, paused,
		total_shares, total_principal, total_assets_managed, total_time_weighted_shares,
		last_epoch_time, active_protocol_ids, base_withdrawal_fee, early_withdrawal_fee,
		lock_period_seconds, withdrawal_delay_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			risk_tier = excluded.risk_tier,
			underlying_asset = excluded.underlying_asset,
			paused = excluded.paused,
			total_shares = excluded.total_shares,
			total_principal = excluded.total_principal,
			total_assets_managed = excluded.total_assets_managed,
			total_time_weighted_shares = excluded.total_time_weighted_shares,
			last_epoch_time = excluded.last_epoch_time,
			active_protocol_ids = excluded.active_protocol_ids,
			base_withdrawal_fee = excluded.base_withdrawal_fee,
			early_withdrawal_fee = excluded.early_withdrawal_fee,
			lock_period_seconds = excluded.lock_period_seconds,
			withdrawal_delay_seconds = excluded.withdrawal_delay_seconds`,
		vault.ID, string(vault.RiskTier), vault.UnderlyingAsset, boolToInt(vault.Paused),
		vault.TotalShares.String(), vault.TotalPrincipal.String(),
		vault.TotalAssetsManaged.String(), vault.TotalTimeWeightedShares.String(),
		vault.LastEpochTime, string(protocols), vault.BaseWithdrawalFee, vault.EarlyWithdrawalFee,
		vault.LockPeriodSeconds, vault.WithdrawalDelaySeconds)
	if err != nil {
		return fmt.Errorf("upsert vault %s: %w", vault.ID, err)
	}
	return nil
}

// ListVaultIDs returns all vault ids in sorted order.
func (s *SQLiteStore) ListVaultIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM vaults ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetPosition returns the owner's position, or (nil, nil) if the owner has
// never deposited.
func (s *SQLiteStore) GetPosition(ctx context.Context, vaultID, owner string) (*types.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getPositionLocked(ctx, vaultID, owner)
}

func (s *SQLiteStore) getPositionLocked(ctx context.Context, vaultID, owner string) (*types.Position, error) {
	row := s.db.QueryRowContext(ctx, `SELECT vault_id, owner, shares, time_weighted_shares,
		entry_time, has_deposited_before, last_accrual_epoch, version
		FROM positions WHERE vault_id = ? AND owner = ?`, vaultID, owner)

	var (
		p                position
		shares, weighted string
		deposited        int
	)
	err := row.Scan(&p.VaultID, &p.Owner, &shares, &weighted,
		&p.EntryTime, &deposited, &p.LastAccrualEpoch, &p.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan position %s/%s: %w", vaultID, owner, err)
	}

	out := types.Position{
		VaultID:            p.VaultID,
		Owner:              p.Owner,
		EntryTime:          p.EntryTime,
		HasDepositedBefore: deposited != 0,
		LastAccrualEpoch:   p.LastAccrualEpoch,
		Version:            p.Version,
		EpochDeposits:      map[uint64]sdkmath.Int{},
	}
	if out.Shares, err = parseAmount(shares); err != nil {
		return nil, err
	}
	if out.TimeWeightedShares, err = parseAmount(weighted); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT epoch, amount FROM epoch_deposits
		WHERE vault_id = ? AND owner = ?`, vaultID, owner)
	if err != nil {
		return nil, fmt.Errorf("query epoch deposits %s/%s: %w", vaultID, owner, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			epochIndex uint64
			amount     string
		)
		if err := rows.Scan(&epochIndex, &amount); err != nil {
			return nil, err
		}
		if out.EpochDeposits[epochIndex], err = parseAmount(amount); err != nil {
			return nil, err
		}
	}
	return &out, rows.Err()
}

// SetPosition stores the position and its per-epoch deposit records.
func (s *SQLiteStore) SetPosition(ctx context.Context, pos *types.Position) error {
	if err := pos.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO positions (vault_id, owner, shares,
		time_weighted_shares, entry_time, has_deposited_before, last_accrual_epoch, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(vault_id, owner) DO UPDATE SET
			shares = excluded.shares,
			time_weighted_shares = excluded.time_weighted_shares,
			entry_time = excluded.entry_time,
			has_deposited_before = excluded.has_deposited_before,
			last_accrual_epoch = excluded.last_accrual_epoch,
			version = excluded.version`,
		pos.VaultID, pos.Owner, pos.Shares.String(), pos.TimeWeightedShares.String(),
		pos.EntryTime, boolToInt(pos.HasDepositedBefore), pos.LastAccrualEpoch, pos.Version)
	if err != nil {
		return fmt.Errorf("upsert position %s/%s: %w", pos.VaultID, pos.Owner, err)
	}

	for epochIndex, amount := range pos.EpochDeposits {
		_, err = tx.ExecContext(ctx, `INSERT INTO epoch_deposits (vault_id, owner, epoch, amount)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(vault_id, owner, epoch) DO UPDATE SET amount = excluded.amount`,
			pos.VaultID, pos.Owner, epochIndex, amount.String())
		if err != nil {
			return fmt.Errorf("upsert epoch deposit %s/%s/%d: %w", pos.VaultID, pos.Owner, epochIndex, err)
		}
	}

	return tx.Commit()
}

// PositionsForVault returns every position in the vault, ordered by owner.
func (s *SQLiteStore) PositionsForVault(ctx context.Context, vaultID string) ([]*types.Position, error) {
	s.mu.Lock()
	owners := []string{}
	rows, err := s.db.QueryContext(ctx, `SELECT owner FROM positions WHERE vault_id = ? ORDER BY owner`, vaultID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("list positions: %w", err)
	}
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			rows.Close()
			s.mu.Unlock()
			return nil, err
		}
		owners = append(owners, owner)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	positions := make([]*types.Position, 0, len(owners))
	for _, owner := range owners {
		p, err := s.getPositionLocked(ctx, vaultID, owner)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		positions = append(positions, p)
	}
	s.mu.Unlock()
	return positions, nil
}

// ActiveUsers returns the vault's active-users registry in append order.
func (s *SQLiteStore) ActiveUsers(ctx context.Context, vaultID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT owner FROM active_users WHERE vault_id = ? ORDER BY rowid`, vaultID)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		users = append(users, owner)
	}
	return users, rows.Err()
}

// AppendActiveUser records the owner in the vault's registry exactly once.
func (s *SQLiteStore) AppendActiveUser(ctx context.Context, vaultID, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO active_users (vault_id, owner) VALUES (?, ?)`,
		vaultID, owner)
	if err != nil {
		return fmt.Errorf("append active user %s/%s: %w", vaultID, owner, err)
	}
	return nil
}

// position is the flat row shape scanned from the positions table.
type position struct {
	VaultID          string
	Owner            string
	EntryTime        int64
	LastAccrualEpoch uint64
	Version          uint64
}

func parseAmount(s string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid stored amount %q", s)
	}
	return v, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
