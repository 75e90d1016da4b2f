package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission([]string{"admin"}, "anything.at.all"))
	assert.True(t, HasPermission([]string{"sales"}, "deals.write"))
	assert.False(t, HasPermission([]string{"sales"}, "deals.delete"))
	assert.True(t, HasPermission([]string{"finance"}, "reports.read"))
	assert.False(t, HasPermission([]string{"finance"}, "orders.write"))
	assert.False(t, HasPermission([]string{"intern"}, "clients.read"))
	assert.False(t, HasPermission(nil, "clients.read"))

	// Any granting role suffices.
	assert.True(t, HasPermission([]string{"support", "logistics"}, "orders.write"))
}

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole([]string{"sales"}, "sales", "manager"))
	assert.False(t, HasRole([]string{"support"}, "sales", "manager"))
	assert.True(t, HasRole([]string{"admin"}, "logistics"))
	assert.False(t, HasRole(nil, "sales"))
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{"admin", "manager", "sales", "logistics", "finance", "support"} {
		assert.True(t, ValidRole(r), r)
	}
	assert.False(t, ValidRole("superuser"))
}
