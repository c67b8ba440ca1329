package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

const (
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 8
	inviteCodeAttempts = 5
)

// CoupleView is a couple as seen by one of its members.
type CoupleView struct {
	Couple  core.Couple
	Partner core.User
}

// CoupleService manages invite codes and the couple lifecycle.
type CoupleService struct {
	storage   *storage.SQLiteRepository
	inviteTTL time.Duration
	now       func() time.Time
}

func NewCoupleService(storage *storage.SQLiteRepository, inviteTTL time.Duration) *CoupleService {
	return &CoupleService{storage: storage, inviteTTL: inviteTTL, now: time.Now}
}

// CreateInvite issues a single-use invite code for a user without a couple.
func (s *CoupleService) CreateInvite(ctx context.Context, userID string) (core.InviteCode, error) {
	if _, err := s.storage.GetCoupleByUser(ctx, userID); err == nil {
		return core.InviteCode{}, fmt.Errorf("user already in a couple: %w", core.ErrInvalidOperation)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.InviteCode{}, err
	}

	now := s.now().UTC()
	for range inviteCodeAttempts {
		code, err := generateInviteCode()
		if err != nil {
			return core.InviteCode{}, err
		}
		ic := core.InviteCode{Code: code, UserID: userID, ExpiresAt: now.Add(s.inviteTTL), CreatedAt: now}
		err = s.storage.CreateInviteCode(ctx, &ic)
		if errors.Is(err, core.ErrConflict) {
			continue
		}
		if err != nil {
			return core.InviteCode{}, err
		}
		slog.InfoContext(ctx, "Invite code created", "user_id", userID, "expires_at", ic.ExpiresAt)
		return ic, nil
	}
	return core.InviteCode{}, fmt.Errorf("generate unique invite code: %w", core.ErrConflict)
}

// Join pairs userID with the owner of code.
func (s *CoupleService) Join(ctx context.Context, userID, code string) (core.Couple, error) {
	var couple core.Couple
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		ic, err := q.GetInviteCode(ctx, code)
		if err != nil {
			return err
		}
		if err := ic.Usable(s.now()); err != nil {
			return err
		}
		if ic.UserID == userID {
			return fmt.Errorf("cannot join your own invite: %w", core.ErrInvalidOperation)
		}
		for _, id := range []string{userID, ic.UserID} {
			if _, err := q.GetCoupleByUser(ctx, id); err == nil {
				return fmt.Errorf("user %s already in a couple: %w", id, core.ErrInvalidOperation)
			} else if !errors.Is(err, core.ErrNotFound) {
				return err
			}
		}

		couple = core.Couple{User1ID: ic.UserID, User2ID: userID}
		if err := q.CreateCouple(ctx, &couple); err != nil {
			return err
		}
		return q.MarkInviteCodeUsed(ctx, code, userID)
	})
	if err != nil {
		return core.Couple{}, err
	}

	slog.InfoContext(ctx, "Couple created", "couple_id", couple.ID, "user1_id", couple.User1ID, "user2_id", couple.User2ID)
	return couple, nil
}

// Get returns the couple of userID together with the partner.
func (s *CoupleService) Get(ctx context.Context, userID string) (CoupleView, error) {
	c, err := s.Couple(ctx, userID)
	if err != nil {
		return CoupleView{}, err
	}
	partnerID, ok := core.FindPartner(c, userID)
	if !ok {
		return CoupleView{}, fmt.Errorf("couple %s has no partner for %s: %w", c.ID, userID, core.ErrInconsistentState)
	}
	partner, err := s.storage.GetUserByID(ctx, partnerID)
	if err != nil {
		return CoupleView{}, err
	}
	return CoupleView{Couple: c, Partner: partner}, nil
}

// Couple returns the couple of userID or core.ErrNotInCouple.
func (s *CoupleService) Couple(ctx context.Context, userID string) (core.Couple, error) {
	return coupleOf(ctx, s.storage.Queries, userID)
}

// Leave dissolves the couple of userID.
func (s *CoupleService) Leave(ctx context.Context, userID string) error {
	c, err := s.Couple(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		return q.DeleteCouple(ctx, c.ID)
	}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Couple dissolved", "couple_id", c.ID, "left_by", userID)
	return nil
}

func generateInviteCode() (string, error) {
	// bytes at or above limit are dropped so that every symbol is equally likely
	limit := 256 - 256%len(inviteCodeAlphabet)
	code := make([]byte, 0, inviteCodeLength)
	buf := make([]byte, inviteCodeLength)
	for len(code) < inviteCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) < limit && len(code) < inviteCodeLength {
				code = append(code, inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)])
			}
		}
	}
	return string(code), nil
}
