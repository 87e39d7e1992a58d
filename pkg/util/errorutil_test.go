package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorNilStaysNil(t *testing.T) {
	// a typed-nil *DomainError inside the error interface would read as a
	// failure on every success path that returns MapError(...) directly
	assert.NoError(t, MapError(nil))
	assert.Nil(t, MapError(nil))
}

func TestMapErrorNoRowsBecomesNotFound(t *testing.T) {
	err := MapError(fmt.Errorf("cargando fila: %w", pgx.ErrNoRows))
	domainErr := ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
}

func TestMapErrorKeepsDomainErrors(t *testing.T) {
	original := NewForbidden("no puedes hacer eso")
	mapped := ToDomainError(MapError(original))
	require.NotNil(t, mapped)
	assert.Equal(t, "FORBIDDEN", mapped.Code)
}

func TestMapErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("se cayo la red")
	mapped := ToDomainError(MapError(cause))
	require.NotNil(t, mapped)
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.ErrorIs(t, mapped, cause)
}
