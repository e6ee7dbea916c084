package identifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cabinetdb/cabinet/internal/identifier"
)

func TestValidateAcceptsOrdinaryIdentifier(t *testing.T) {
	assert.NoError(t, identifier.Validate("id", "lesson-2025-10-27"))
}

func TestValidateRejectsEmpty(t *testing.T) {
	assert.Error(t, identifier.Validate("id", ""))
}

func TestValidateRejectsForbiddenCharacters(t *testing.T) {
	for _, bad := range []string{"a/b", "a\\b", "a\x00b", ".hidden"} {
		assert.Error(t, identifier.Validate("id", bad), "expected rejection for %q", bad)
	}
}
