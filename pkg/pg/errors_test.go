package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/barakahq/authkit/pkg/pg"
)

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
	assert.True(t, pg.IsNotFoundError(fmt.Errorf("query profile: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(errors.New("connection refused")))
	assert.False(t, pg.IsNotFoundError(nil))
}
