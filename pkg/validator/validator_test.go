package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegister(t *testing.T) {
	assert.False(t, ValidateRegister("alice", "passw0rd1").HasErrors())

	tests := []struct {
		name     string
		username string
		password string
		field    string
	}{
		{"empty username", "", "passw0rd1", "username"},
		{"short username", "ab", "passw0rd1", "username"},
		{"long username", strings.Repeat("a", 51), "passw0rd1", "username"},
		{"bad characters", "al ice", "passw0rd1", "username"},
		{"traversal username", "../alice", "passw0rd1", "username"},
		{"empty password", "alice", "", "password"},
		{"short password", "alice", "abc1", "password"},
		{"letters only", "alice", "abcdefgh", "password"},
		{"digits only", "alice", "12345678", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRegister(tt.username, tt.password)
			assert.True(t, errs.HasErrors())
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestValidateRename(t *testing.T) {
	assert.False(t, ValidateRename("alice-2").HasErrors())
	assert.True(t, ValidateRename("..").HasErrors())
	assert.True(t, ValidateRename("a/b").HasErrors())
}

func TestValidateBio(t *testing.T) {
	assert.False(t, ValidateBio("").HasErrors())
	assert.False(t, ValidateBio("short bio").HasErrors())
	assert.True(t, ValidateBio(strings.Repeat("x", 1001)).HasErrors())
}
