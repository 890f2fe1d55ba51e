package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studysync/models"
)

func TestRolesAndCapabilities(t *testing.T) {
	both := models.Roles(models.RoleStudent).With(models.RoleInstructor)

	assert.True(t, both.Has(models.RoleStudent))
	assert.True(t, both.Has(models.RoleInstructor))
	assert.False(t, both.Has(models.RoleAdmin))

	assert.True(t, models.Can(both, models.CapLearn))
	assert.True(t, models.Can(both, models.CapAuthorCourse))
	assert.True(t, models.Can(both, models.CapViewEarnings))
	assert.False(t, models.Can(both, models.CapReviewCourse))

	admin := models.Roles(models.RoleAdmin)
	assert.True(t, models.Can(admin, models.CapRevokeCertificate))
	assert.False(t, models.Can(admin, models.CapPurchaseCourse))
	assert.False(t, models.Can(0, models.CapLearn))
}

func TestRolesMarshalAsNames(t *testing.T) {
	raw, err := json.Marshal(models.Roles(models.RoleStudent).With(models.RoleAdmin))
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal(raw, &names))
	assert.Len(t, names, 2)
}
