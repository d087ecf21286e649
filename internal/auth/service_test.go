package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/employees"
)

type memoryDirectory struct {
	byID    map[uuid.UUID]*employees.Employee
	byEmail map[string]*employees.Employee
	touched map[uuid.UUID]time.Time
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{
		byID:    make(map[uuid.UUID]*employees.Employee),
		byEmail: make(map[string]*employees.Employee),
		touched: make(map[uuid.UUID]time.Time),
	}
}

func (d *memoryDirectory) add(emp *employees.Employee) {
	d.byID[emp.ID] = emp
	d.byEmail[emp.ProfessionalEmail] = emp
}

func (d *memoryDirectory) Get(ctx context.Context, id uuid.UUID) (*employees.Employee, error) {
	emp, ok := d.byID[id]
	if !ok {
		return nil, employees.ErrNotFound
	}
	return emp, nil
}

func (d *memoryDirectory) GetByProfessionalEmail(ctx context.Context, email string) (*employees.Employee, error) {
	emp, ok := d.byEmail[email]
	if !ok {
		return nil, employees.ErrNotFound
	}
	return emp, nil
}

func (d *memoryDirectory) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	d.touched[id] = at
	return nil
}

type staticResolver struct {
	permissions map[uuid.UUID][]int32
}

func (r *staticResolver) Resolve(ctx context.Context, employeeID uuid.UUID, now time.Time) ([]int32, error) {
	return r.permissions[employeeID], nil
}

func newTestService(t *testing.T) (*Service, *memoryDirectory, *staticResolver, uuid.UUID) {
	t.Helper()
	directory := newMemoryDirectory()
	resolver := &staticResolver{permissions: make(map[uuid.UUID][]int32)}

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	id := uuid.New()
	directory.add(&employees.Employee{
		ID:                id,
		FirstName:         "Ada",
		LastName:          "Director",
		ProfessionalEmail: "ada@clearance.test",
		PasswordHash:      string(hash),
	})
	resolver.permissions[id] = []int32{1, 2, 3}

	service := NewService(directory, resolver, Config{
		Secret:          []byte("test-secret"),
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	return service, directory, resolver, id
}

func TestLoginIssuesTokenPairWithPermissionSnapshot(t *testing.T) {
	service, directory, _, id := newTestService(t)

	pair, err := service.Login(context.Background(), LoginRequest{
		ProfessionalEmail: "ada@clearance.test",
		Password:          "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer", pair.TokenType)
	require.NotEmpty(t, pair.RefreshToken)
	require.Contains(t, directory.touched, id)

	claims, err := service.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "ada@clearance.test", claims.Email)
	require.Equal(t, []int32{1, 2, 3}, claims.Permissions)

	subject, err := claims.EmployeeID()
	require.NoError(t, err)
	require.Equal(t, id, subject)
}

func TestLoginWrongPassword(t *testing.T) {
	service, _, _, _ := newTestService(t)

	_, err := service.Login(context.Background(), LoginRequest{
		ProfessionalEmail: "ada@clearance.test",
		Password:          "wrong",
	})
	require.Error(t, err)
	require.Equal(t, apperr.CodeInvalidCredentials, apperr.CodeOf(err))
}

func TestLoginUnknownEmail(t *testing.T) {
	service, _, _, _ := newTestService(t)

	_, err := service.Login(context.Background(), LoginRequest{
		ProfessionalEmail: "nobody@clearance.test",
		Password:          "correct horse",
	})
	require.Error(t, err)
	require.Equal(t, apperr.CodeInvalidCredentials, apperr.CodeOf(err))
}

func TestLoginDeactivatedEmployee(t *testing.T) {
	service, directory, _, id := newTestService(t)
	when := time.Now().UTC()
	directory.byID[id].DeactivatedAt = &when

	_, err := service.Login(context.Background(), LoginRequest{
		ProfessionalEmail: "ada@clearance.test",
		Password:          "correct horse",
	})
	require.Error(t, err)
	require.Equal(t, apperr.CodeInvalidCredentials, apperr.CodeOf(err))
}

func TestRefreshReResolvesPermissions(t *testing.T) {
	service, _, resolver, id := newTestService(t)

	pair, err := service.Login(context.Background(), LoginRequest{
		ProfessionalEmail: "ada@clearance.test",
		Password:          "correct horse",
	})
	require.NoError(t, err)

	// Permissions changed between login and refresh; the refreshed access
	// token carries the new snapshot.
	resolver.permissions[id] = []int32{1}

	refreshed, err := service.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	claims, err := service.VerifyAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, []int32{1}, claims.Permissions)
}

func TestRefreshRejectsAccessTokenSignedDifferently(t *testing.T) {
	service, _, _, _ := newTestService(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = service.Refresh(context.Background(), RefreshRequest{RefreshToken: token})
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	service, _, _, _ := newTestService(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	token, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(token)
	require.Error(t, err)
}
