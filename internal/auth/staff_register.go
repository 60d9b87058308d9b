package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/internal/users"
	"github.com/valecoop/combos-backend/pkg/config"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/security"
)

// StaffRegisterRequest contains the payload for creating staff accounts.
type StaffRegisterRequest struct {
	Cedula    string `json:"cedula" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role" validate:"required"`
}

// StaffRegisterService creates admin and cobranza accounts.
type StaffRegisterService interface {
	Register(ctx context.Context, req StaffRegisterRequest) (*users.UserDTO, error)
}

// StaffRegisterServiceParams names the dependencies for the staff register flow.
type StaffRegisterServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	PasswordConfig  config.PasswordConfig
}

type staffRegisterService struct {
	tx          txRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	passwordCfg config.PasswordConfig
}

// NewStaffRegisterService builds a staff registration service.
func NewStaffRegisterService(params StaffRegisterServiceParams) (StaffRegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository factory required")
	}
	return &staffRegisterService{
		tx:          params.TxRunner,
		userRepo:    params.UserRepoFactory,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *staffRegisterService) Register(ctx context.Context, req StaffRegisterRequest) (*users.UserDTO, error) {
	cedula := strings.ToUpper(strings.TrimSpace(req.Cedula))
	if cedula == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cedula is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	role, err := enums.ParseUserRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if err != nil || !role.CanVerifyPayments() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be admin or cobranza")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.userRepo(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if _, err := repo.FindByCedula(ctx, cedula); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "cedula already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user cedula")
		}

		user, err := repo.Create(ctx, users.CreateUserDTO{
			Cedula:       cedula,
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Role:         role,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
