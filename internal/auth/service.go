// Package auth registers users, checks credentials and issues JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/internal/apperr"
	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/qr"
	"github.com/sena-asistencia/backend/internal/store"
	"github.com/sena-asistencia/backend/pkg/utils"
)

const msgBadCredentials = "credenciales inválidas"

// RegisterInput is a new account.
type RegisterInput struct {
	Document      string
	Password      string
	Confirm       string
	FirstName     string
	LastName      string
	Email         string
	Role          string
	Shift         *string
	AcceptedTerms bool
}

// Session is returned by Login and Refresh.
type Session struct {
	TokenPair
	Role models.Role       `json:"role"`
	User models.UserPublic `json:"user"`
}

// Service implements the identity operations.
type Service struct {
	store  store.Store
	tokens *JWTService
	qr     *qr.Service
	logger *zap.Logger
}

// NewService creates an auth service. Registration issues the user's first
// QR token through qrs.
func NewService(st store.Store, tokens *JWTService, qrs *qr.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, tokens: tokens, qr: qrs, logger: logger}
}

// Register creates the account and its initial QR token atomically.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Password != in.Confirm {
		return nil, apperr.InvalidInput("las contraseñas no coinciden").WithField("confirm")
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return nil, apperr.InvalidInput("rol inválido").WithField("rol")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Document:      strings.TrimSpace(in.Document),
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		Role:          role,
		Shift:         in.Shift,
		Password:      hash,
		AcceptedTerms: in.AcceptedTerms,
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		_, err := s.qr.IssueWith(ctx, tx, u.ID, qr.IssueInput{})
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDuplicateDocument):
		return nil, apperr.Conflict("el documento ya está registrado").WithField("documento")
	case errors.Is(err, store.ErrDuplicateEmail):
		return nil, apperr.Conflict("el email ya está registrado").WithField("email")
	default:
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Login checks the document and password and returns a token pair.
func (s *Service) Login(ctx context.Context, document, password string) (*Session, error) {
	u, err := s.store.Users().GetByDocument(ctx, strings.TrimSpace(document))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.InvalidInput(msgBadCredentials)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPassword(password, u.Password) || !u.Active {
		return nil, apperr.InvalidInput(msgBadCredentials)
	}
	return s.session(u)
}

// Refresh exchanges a refresh token for a new pair. The user is reloaded so
// role changes and deactivation take effect.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("token de refresco inválido o expirado")
	}
	u, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized("token de refresco inválido o expirado")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.Active {
		return nil, apperr.Unauthorized("cuenta desactivada")
	}
	return s.session(u)
}

func (s *Service) session(u *models.User) (*Session, error) {
	pair, err := s.tokens.GeneratePair(u)
	if err != nil {
		return nil, fmt.Errorf("sign tokens: %w", err)
	}
	return &Session{TokenPair: pair, Role: u.Role, User: u.ToPublic()}, nil
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, p models.Principal) (*models.User, error) {
	u, err := s.store.Users().GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("perfil no encontrado")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, p models.Principal, current, next, confirm string) error {
	if next != confirm {
		return apperr.InvalidInput("las contraseñas no coinciden").WithField("confirm")
	}
	u, err := s.Profile(ctx, p)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(current, u.Password) {
		return apperr.InvalidInput("contraseña actual incorrecta").WithField("actual")
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users().UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.Info("password changed", zap.Int64("user_id", u.ID))
	return nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserPublic, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]models.UserPublic, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToPublic())
	}
	return out, nil
}

// FindByDocument returns the account with the given national id.
func (s *Service) FindByDocument(ctx context.Context, document string) (*models.User, error) {
	u, err := s.store.Users().GetByDocument(ctx, document)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("usuario no encontrado")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// Deactivate soft-deletes an account. Its history is kept and it can no longer log in.
func (s *Service) Deactivate(ctx context.Context, p models.Principal, document string) error {
	u, err := s.FindByDocument(ctx, document)
	if err != nil {
		return err
	}
	if u.ID == p.UserID {
		return apperr.InvalidInput("no puede desactivar su propia cuenta").WithField("documento")
	}
	if err := s.store.Users().SetActive(ctx, u.ID, false); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	s.logger.Info("user deactivated", zap.Int64("user_id", u.ID), zap.Int64("by", p.UserID))
	return nil
}
