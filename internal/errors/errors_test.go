package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("Scream").Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("Unauthorized").Status)
	assert.Equal(t, http.StatusForbidden, Forbidden("nope").Status)
	assert.Equal(t, http.StatusBadRequest, Field("body", "Must not be empty").Status)
	assert.Equal(t, http.StatusBadRequest, MethodNotAllowed("GET").Status)
	assert.Equal(t, http.StatusInternalServerError, InternalError("boom").Status)
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("UNKNOWN").StatusCode())
}

func TestBodyShapes(t *testing.T) {
	assert.Equal(t, map[string]string{"error": "Scream not found", "code": "NOT_FOUND"}, NotFound("Scream").Body())

	v := Validation(map[string]string{"email": "Must not be empty", "handle": "Must not be empty"})
	assert.Equal(t, map[string]string{"email": "Must not be empty", "handle": "Must not be empty"}, v.Body())
	assert.Equal(t, "VALIDATION_ERROR: email: Must not be empty, handle: Must not be empty", v.Error())
}

func TestWithStatus(t *testing.T) {
	e := Field("general", "Wrong credentials").WithStatus(http.StatusForbidden)
	assert.Equal(t, http.StatusForbidden, e.Status)
	assert.Equal(t, map[string]string{"general": "Wrong credentials"}, e.Body())
}
