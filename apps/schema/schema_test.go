package schema

import (
	"testing"

	"go-boutique/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{
		"users", "user_profiles", "categories", "products", "carts", "cart_items",
		"recommendation_rules", "recommendation_rule_categories", "recommendation_rule_products",
		"delivery_options", "orders", "order_items", "deliveries", "delivery_status_histories",
		"reservations",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
