package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Mousaahmad63636/POS-sub001/internal/model"
)

// ErrSessionNotFound is returned when no drawer session matches the lookup.
var ErrSessionNotFound = errors.New("drawer session not found")

// DrawerRepository is the ledger store: it persists sessions and their
// append-only transaction lists. Services depend on this interface, not on
// the GORM implementation, so unit tests run against in-memory fakes.
type DrawerRepository interface {
	// OpenSession creates the session and its opening ledger entry in one
	// database transaction. A failure rolls both back, so a session can
	// never exist with an empty ledger.
	OpenSession(ctx context.Context, s *model.DrawerSession, opening *model.DrawerTransaction) error
	FindSessionByID(ctx context.Context, id uint) (*model.DrawerSession, error)
	// FindOpenSession returns the open session for a register, or
	// (nil, nil) when the register has none.
	FindOpenSession(ctx context.Context, registerID int) (*model.DrawerSession, error)
	UpdateSession(ctx context.Context, s *model.DrawerSession) error
	ListSessions(ctx context.Context, from, to time.Time) ([]model.DrawerSession, error)

	// AppendTransaction writes the entry and the session's new current
	// balance in one database transaction, so readers always snapshot a
	// consistent (session, ledger) pair.
	AppendTransaction(ctx context.Context, s *model.DrawerSession, t *model.DrawerTransaction) error
	// ListTransactions returns a session's ledger in (occurred_at, id) order.
	ListTransactions(ctx context.Context, sessionID uint) ([]model.DrawerTransaction, error)
	ListTransactionsByDateRange(ctx context.Context, from, to time.Time) ([]model.DrawerTransaction, error)
}

type drawerRepo struct{ db *gorm.DB }

func NewDrawerRepository(db *gorm.DB) DrawerRepository { return &drawerRepo{db: db} }

func (r *drawerRepo) OpenSession(ctx context.Context, s *model.DrawerSession, opening *model.DrawerTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		opening.SessionID = s.ID
		return tx.Create(opening).Error
	})
}

func (r *drawerRepo) FindSessionByID(ctx context.Context, id uint) (*model.DrawerSession, error) {
	var s model.DrawerSession
	err := r.db.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *drawerRepo) FindOpenSession(ctx context.Context, registerID int) (*model.DrawerSession, error) {
	var s model.DrawerSession
	err := r.db.WithContext(ctx).
		Where("register_id = ? AND status = ?", registerID, model.SessionOpen).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *drawerRepo) UpdateSession(ctx context.Context, s *model.DrawerSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *drawerRepo) ListSessions(ctx context.Context, from, to time.Time) ([]model.DrawerSession, error) {
	q := r.db.WithContext(ctx).Order("opened_at DESC")
	if !from.IsZero() {
		q = q.Where("opened_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("opened_at <= ?", to)
	}
	var sessions []model.DrawerSession
	err := q.Find(&sessions).Error
	return sessions, err
}

func (r *drawerRepo) AppendTransaction(ctx context.Context, s *model.DrawerSession, t *model.DrawerTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		return tx.Save(s).Error
	})
}

func (r *drawerRepo) ListTransactions(ctx context.Context, sessionID uint) ([]model.DrawerTransaction, error) {
	var entries []model.DrawerTransaction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("occurred_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *drawerRepo) ListTransactionsByDateRange(ctx context.Context, from, to time.Time) ([]model.DrawerTransaction, error) {
	q := r.db.WithContext(ctx).Order("occurred_at ASC, id ASC")
	if !from.IsZero() {
		q = q.Where("occurred_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("occurred_at <= ?", to)
	}
	var entries []model.DrawerTransaction
	err := q.Find(&entries).Error
	return entries, err
}
