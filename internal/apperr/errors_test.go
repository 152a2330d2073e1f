package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_KeepsCauseAndKind(t *testing.T) {
	err := Wrap(sql.ErrConnDone, "querying projects")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataAccess)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, "querying projects: "+sql.ErrConnDone.Error(), err.Error())
	assert.Equal(t, "data_access", KindOf(err))
}

func TestWrap_DoesNotRetagKindedErrors(t *testing.T) {
	nf := NotFoundf("project %d not found", 4)

	err := Wrap(nf, "loading project")

	assert.Same(t, nf, err)
	assert.Equal(t, "not_found", KindOf(err))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Validationf("title", "title must not be empty"), "validation"},
		{NotFoundf("task %d not found", 1), "not_found"},
		{Conflictf("developer 2 has tasks"), "conflict"},
		{fmt.Errorf("outer: %w", Validationf("type", "bad type")), "validation"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%v", tt.err)
	}
}

func TestFieldOf(t *testing.T) {
	err := fmt.Errorf("creating: %w", Validationf("budget", "budget must not be negative"))
	assert.Equal(t, "budget", FieldOf(err))
	assert.Empty(t, FieldOf(errors.New("plain")))
}
