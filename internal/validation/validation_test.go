package validation_test

import (
	"fmt"
	"testing"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClient() *domain.ClientRequest {
	return &domain.ClientRequest{
		FirstName:     "Juan",
		LastName:      "Garcia",
		DocType:       "DNI",
		DocNumber:     "12345678",
		BirthDate:     "1985-04-12",
		Sex:           "M",
		MaritalStatus: "soltero",
		Nationality:   "argentino",
		TaxCondition:  "cf",
		CUIT:          "20-12345678-6",
		Street:        "Corrientes",
		StreetNumber:  "800",
		PostalCode:    "1043",
		City:          "CABA",
		Province:      "Buenos Aires",
		Phone:         "1155550000",
		Email:         "juan@example.com",
	}
}

func TestStruct_ValidClient(t *testing.T) {
	assert.NoError(t, validation.Struct(validClient()))
}

func TestStruct_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *domain.ClientRequest)
		field  string
	}{
		{"bad cuit check digit", func(r *domain.ClientRequest) { r.CUIT = "20-12345678-3" }, "cuit"},
		{"short cuit", func(r *domain.ClientRequest) { r.CUIT = "2012345678" }, "cuit"},
		{"missing email", func(r *domain.ClientRequest) { r.Email = "" }, "email"},
		{"malformed email", func(r *domain.ClientRequest) { r.Email = "juan" }, "email"},
		{"unknown doc type", func(r *domain.ClientRequest) { r.DocType = "PAS" }, "docType"},
		{"non numeric doc number", func(r *domain.ClientRequest) { r.DocNumber = "12.345.678" }, "docNumber"},
		{"bad birth date", func(r *domain.ClientRequest) { r.BirthDate = "12/04/1985" }, "birthDate"},
		{"unknown tax condition", func(r *domain.ClientRequest) { r.TaxCondition = "mono" }, "taxCondition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validClient()
			tt.mutate(req)

			err := validation.Struct(req)
			require.Error(t, err)

			fields, ok := validation.As(err)
			require.True(t, ok)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestStruct_NestedCoHolderUsesDottedPath(t *testing.T) {
	req := validClient()
	req.CoHolder = &domain.CoHolderRequest{FullName: "Maria Lopez"}

	fields, ok := validation.As(validation.Struct(req))
	require.True(t, ok)
	assert.Contains(t, fields, "coHolder.dni")
	assert.Contains(t, fields, "coHolder.email")
	assert.NotContains(t, fields, "coHolder.fullName")
}

func TestStruct_PhoneAndRole(t *testing.T) {
	role := domain.Role("gerente")
	req := &domain.UpdateProfileRequest{Email: "a@b.com", Phone: "12ab", Role: &role}

	fields, ok := validation.As(validation.Struct(req))
	require.True(t, ok)
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "role")

	valid := domain.RoleSupervisor
	req = &domain.UpdateProfileRequest{Email: "a@b.com", Phone: "+54 11 5555-0000", Role: &valid}
	assert.NoError(t, validation.Struct(req))
}

func TestStruct_PasswordConfirmation(t *testing.T) {
	req := &domain.ResetPasswordRequest{NewPassword: "supersecret", ConfirmPassword: "different"}
	fields, ok := validation.As(validation.Struct(req))
	require.True(t, ok)
	assert.Equal(t, "Must match newPassword", fields["confirmPassword"])
}

func TestErrors(t *testing.T) {
	errs := validation.Errors{}
	assert.NoError(t, errs.Err())

	errs.Add("cuit", "first")
	errs.Add("cuit", "second")
	errs.Add("email", "bad")
	assert.Equal(t, "first", errs["cuit"])
	assert.Equal(t, "validation failed: cuit: first; email: bad", errs.Error())

	wrapped := fmt.Errorf("create client: %w", errs.Err())
	got, ok := validation.As(wrapped)
	require.True(t, ok)
	assert.Len(t, got, 2)
}
