package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnect_RejectsUnknownDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "sqlite3", ConnectionString: "file::memory:"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
	assert.Contains(t, err.Error(), "sqlite3")
}
