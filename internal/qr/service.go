// Package qr issues and validates the per-user QR tokens presented at events.
package qr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/internal/apperr"
	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
	"github.com/sena-asistencia/backend/pkg/utils"
)

// codeBytes of randomness per code (256 bits).
const codeBytes = 32

// Config controls issuance and validation.
type Config struct {
	DefaultTTL  time.Duration // 0 = no expiry unless requested
	SingleUse   bool
	MaxAttempts int // code generations tried before giving up on collisions
}

// IssueInput holds the optional bindings of a new token.
type IssueInput struct {
	EventID   *int64
	PointID   *int64
	ExpiresAt *time.Time
}

// Service issues, validates and retires QR tokens.
type Service struct {
	store    store.Store
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
	generate func() (string, error)
}

// NewService creates a QR service.
func NewService(st store.Store, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Service{
		store:    st,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		generate: func() (string, error) { return utils.RandomToken(codeBytes) },
	}
}

// Issue mints a token for userID.
func (s *Service) Issue(ctx context.Context, userID int64, in IssueInput) (*models.QRToken, error) {
	return s.IssueWith(ctx, s.store, userID, in)
}

// IssueWith mints a token using st, which may be bound to the caller's transaction.
func (s *Service) IssueWith(ctx context.Context, st store.Store, userID int64, in IssueInput) (*models.QRToken, error) {
	now := s.now()
	if _, err := st.Users().GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("usuario no encontrado")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if in.EventID != nil {
		if _, err := st.Events().GetByID(ctx, *in.EventID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.NotFound("evento no encontrado").WithField("evento_id")
			}
			return nil, fmt.Errorf("load event: %w", err)
		}
	}
	if in.PointID != nil {
		p, err := st.ControlPoints().GetByID(ctx, *in.PointID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.NotFound("punto de control no encontrado").WithField("punto_id")
			}
			return nil, fmt.Errorf("load control point: %w", err)
		}
		if in.EventID != nil && !p.BelongsTo(*in.EventID) {
			return nil, apperr.InvalidInput("el punto de control pertenece a otro evento").WithField("punto_id")
		}
	}

	expiresAt := in.ExpiresAt
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, apperr.InvalidInput("la fecha de expiración debe ser futura").WithField("fecha_expiracion")
	}
	if expiresAt == nil && s.cfg.DefaultTTL > 0 {
		t := now.Add(s.cfg.DefaultTTL)
		expiresAt = &t
	}

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return nil, fmt.Errorf("generate qr code: %w", err)
		}
		tok := &models.QRToken{
			UserID:    userID,
			Code:      code,
			EventID:   in.EventID,
			PointID:   in.PointID,
			ExpiresAt: expiresAt,
		}
		err = st.WithTx(ctx, func(tx store.Store) error {
			if _, err := tx.QRTokens().RetireExpired(ctx, userID, in.EventID, now); err != nil {
				return err
			}
			return tx.QRTokens().Create(ctx, tok)
		})
		switch {
		case err == nil:
			s.logger.Info("qr token issued",
				zap.Int64("user_id", userID),
				zap.Int64("qr_id", tok.ID),
				zap.Int64p("event_id", in.EventID),
			)
			return tok, nil
		case errors.Is(err, store.ErrDuplicateCode):
			s.logger.Warn("qr code collision, regenerating", zap.Int("attempt", attempt))
		case errors.Is(err, store.ErrLiveTokenExists):
			return nil, apperr.Conflict("el usuario ya tiene un QR activo para este evento")
		default:
			return nil, fmt.Errorf("create qr token: %w", err)
		}
	}
	return nil, fmt.Errorf("create qr token: %d consecutive code collisions", s.cfg.MaxAttempts)
}

// Validate resolves code to a live token bound to eventID.
func (s *Service) Validate(ctx context.Context, code string, eventID int64) (*models.QRToken, error) {
	return s.ValidateWith(ctx, s.store, code, eventID)
}

// ValidateWith is Validate reading through st.
func (s *Service) ValidateWith(ctx context.Context, st store.Store, code string, eventID int64) (*models.QRToken, error) {
	tok, err := st.QRTokens().GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.InvalidToken("código QR no válido para este evento").WithField("codigo_qr")
		}
		return nil, fmt.Errorf("load qr token: %w", err)
	}
	if tok.EventID == nil || *tok.EventID != eventID {
		return nil, apperr.InvalidToken("código QR no válido para este evento").WithField("codigo_qr")
	}
	if tok.Expired(s.now()) {
		return nil, apperr.InvalidToken("código QR expirado").WithField("codigo_qr")
	}
	if !tok.Active {
		return nil, apperr.InvalidToken("código QR desactivado").WithField("codigo_qr")
	}
	return tok, nil
}

// Consume retires tok after a successful scan when tokens are single-use.
// st should be the transaction that records the attendance.
func (s *Service) Consume(ctx context.Context, st store.Store, tok *models.QRToken) error {
	if !s.cfg.SingleUse {
		return nil
	}
	if err := st.QRTokens().Deactivate(ctx, tok.ID); err != nil {
		return fmt.Errorf("consume qr token: %w", err)
	}
	tok.Active = false
	return nil
}

// ListForUser returns the user's tokens, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]models.QRToken, error) {
	list, err := s.store.QRTokens().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list qr tokens: %w", err)
	}
	return list, nil
}

// Deactivate retires a token. Only its owner or staff may do so.
func (s *Service) Deactivate(ctx context.Context, p models.Principal, id int64) (*models.QRToken, error) {
	tok, err := s.store.QRTokens().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("código QR no encontrado")
		}
		return nil, fmt.Errorf("load qr token: %w", err)
	}
	if tok.UserID != p.UserID && !p.IsStaff() {
		return nil, apperr.Forbidden("no puede desactivar un QR de otro usuario")
	}
	if !tok.Active {
		return tok, nil
	}
	if err := s.store.QRTokens().Deactivate(ctx, id); err != nil {
		return nil, fmt.Errorf("deactivate qr token: %w", err)
	}
	tok.Active = false
	s.logger.Info("qr token deactivated", zap.Int64("qr_id", id), zap.Int64("by", p.UserID))
	return tok, nil
}

// RetireExpired deactivates every expired token and returns how many changed.
func (s *Service) RetireExpired(ctx context.Context) (int64, error) {
	n, err := s.store.QRTokens().RetireAllExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("retire expired qr tokens: %w", err)
	}
	return n, nil
}
