package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/internal/users"
	"github.com/valecoop/combos-backend/pkg/config"
	pkgmodels "github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepository struct {
	byEmail   map[string]*pkgmodels.User
	byCedula  map[string]*pkgmodels.User
	created   *pkgmodels.User
	createErr error
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{
		byEmail:  map[string]*pkgmodels.User{},
		byCedula: map[string]*pkgmodels.User{},
	}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) FindByCedula(ctx context.Context, cedula string) (*pkgmodels.User, error) {
	if user, ok := s.byCedula[cedula]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := dto.ToModel()
	s.byEmail[dto.Email] = user
	s.byCedula[dto.Cedula] = user
	s.created = user
	return user, nil
}

func newRegisterTestSetup(t *testing.T) (RegisterService, *stubUserRepository) {
	t.Helper()
	userRepo := newStubUserRepository()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc, userRepo
}

func sampleRegisterRequest(cedula, email string) RegisterRequest {
	return RegisterRequest{
		Cedula:    cedula,
		Email:     email,
		Password:  "Secreto123!",
		FirstName: "Carmen",
		LastName:  "Rondón",
	}
}

func TestRegisterCreatesMember(t *testing.T) {
	svc, repo := newRegisterTestSetup(t)

	dto, err := svc.Register(context.Background(), sampleRegisterRequest("v-12345678", "Socio@Valecoop.Test"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if repo.created == nil {
		t.Fatal("expected user to be created")
	}
	if dto.Cedula != "V-12345678" {
		t.Fatalf("expected normalized cedula, got %q", dto.Cedula)
	}
	if dto.Email != "socio@valecoop.test" {
		t.Fatalf("expected normalized email, got %q", dto.Email)
	}
	if dto.Role != enums.UserRoleCliente {
		t.Fatalf("expected cliente role, got %s", dto.Role)
	}
	if dto.Kind != enums.UserKindRegular {
		t.Fatalf("expected regular kind, got %s", dto.Kind)
	}
	if repo.created.PasswordHash == "Secreto123!" {
		t.Fatal("expected hashed password")
	}
}

func TestRegisterHonorsKind(t *testing.T) {
	svc, _ := newRegisterTestSetup(t)

	req := sampleRegisterRequest("V-11111111", "mayor@valecoop.test")
	req.Kind = "adulto_mayor"
	dto, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if dto.Kind != enums.UserKindAdultoMayor {
		t.Fatalf("expected adulto_mayor, got %s", dto.Kind)
	}

	req = sampleRegisterRequest("V-22222222", "otro@valecoop.test")
	req.Kind = "vip"
	if _, err := svc.Register(context.Background(), req); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for unknown kind, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, repo := newRegisterTestSetup(t)

	existing := &pkgmodels.User{ID: uuid.New(), Cedula: "V-99999999", Email: "dueno@valecoop.test"}
	repo.byEmail[existing.Email] = existing
	repo.byCedula[existing.Cedula] = existing

	_, err := svc.Register(context.Background(), sampleRegisterRequest("V-00000001", existing.Email))
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected CONFLICT for email, got %v", err)
	}
	_, err = svc.Register(context.Background(), sampleRegisterRequest(existing.Cedula, "nuevo@valecoop.test"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected CONFLICT for cedula, got %v", err)
	}
}

func TestStaffRegister(t *testing.T) {
	userRepo := newStubUserRepository()
	svc, err := NewStaffRegisterService(StaffRegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new staff register service: %v", err)
	}

	dto, err := svc.Register(context.Background(), StaffRegisterRequest{
		Cedula:    "V-55555555",
		Email:     "cobros@valecoop.test",
		Password:  "Secreto123!",
		FirstName: "Luis",
		LastName:  "Blanco",
		Role:      "cobranza",
	})
	if err != nil {
		t.Fatalf("staff register failed: %v", err)
	}
	if dto.Role != enums.UserRoleCobranza {
		t.Fatalf("expected cobranza role, got %s", dto.Role)
	}

	_, err = svc.Register(context.Background(), StaffRegisterRequest{
		Cedula:    "V-66666666",
		Email:     "socio@valecoop.test",
		Password:  "Secreto123!",
		FirstName: "Ana",
		LastName:  "Mora",
		Role:      "cliente",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for non-staff role, got %v", err)
	}
}
