package usecase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

func TestErrorHelpers(t *testing.T) {
	validation := NewValidationError("page", "must be a positive integer")
	verification := &VerificationError{Message: "token mismatch"}
	notFound := &NotFoundError{Resource: "lead", ID: 9}
	store := &StoreError{Op: "list leads", Err: errors.New("connection refused")}

	assert.True(t, IsValidationError(fmt.Errorf("parse: %w", validation)))
	assert.True(t, IsVerificationError(verification))
	assert.True(t, IsNotFoundError(notFound))
	assert.True(t, IsStoreError(store))

	assert.False(t, IsValidationError(store))
	assert.False(t, IsVerificationError(validation))
	assert.False(t, IsNotFoundError(nil))

	assert.Equal(t, "page: must be a positive integer", validation.Error())
	assert.Equal(t, "payload must be a JSON object", NewValidationError("", "payload must be a JSON object").Error())
	assert.Equal(t, "lead 9 not found", notFound.Error())
	assert.Equal(t, "list leads: connection refused", store.Error())
}

func TestStoreErr(t *testing.T) {
	err := storeErr("get lead", 4, entity.ErrLeadNotFound)
	assert.True(t, IsNotFoundError(err))

	cause := errors.New("disk full")
	err = storeErr("get lead", 4, cause)
	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, err, cause)
}
