package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSelect(t *testing.T) {
	q := From("mf_data_t1_car").
		Select([]string{"id", "plate"}).
		Where("`tenant_id` = ?", "t1").
		OrderBy("id", "ASC").
		Limit(10).
		Offset(20).
		Build()

	assert.Equal(t, "SELECT `id`, `plate` FROM `mf_data_t1_car` WHERE `tenant_id` = ? ORDER BY `id` ASC LIMIT 10 OFFSET 20", q.SQL)
	assert.Equal(t, []interface{}{"t1"}, q.Params)
}

func TestBuildCount(t *testing.T) {
	q := From("mf_data_t1_car").
		Count().
		Where("`tenant_id` = ?", "t1").
		Limit(10).
		Build()

	// LIMIT and ORDER BY are dropped for count queries
	assert.Equal(t, "SELECT COUNT(*) FROM `mf_data_t1_car` WHERE `tenant_id` = ?", q.SQL)
}

func TestBuildInsert_PreservesColumnOrder(t *testing.T) {
	q := Insert("mf_data_t1_car").
		Set("tenant_id", "t1").
		SetRaw("created_at", "NOW()").
		SetRaw("updated_at", "NOW()").
		Set("plate", "ABC123").
		Set("year", 2020).
		Build()

	assert.Equal(t, "INSERT INTO `mf_data_t1_car` (`tenant_id`, `created_at`, `updated_at`, `plate`, `year`) VALUES (?, NOW(), NOW(), ?, ?)", q.SQL)
	assert.Equal(t, []interface{}{"t1", "ABC123", 2020}, q.Params)
}

func TestBuildUpdate(t *testing.T) {
	q := Update("mf_data_t1_car").
		Set("plate", "XYZ987").
		SetRaw("updated_at", "NOW()").
		Where("`id` = ?", int64(7)).
		Where("`tenant_id` = ?", "t1").
		Build()

	assert.Equal(t, "UPDATE `mf_data_t1_car` SET `plate` = ?, `updated_at` = NOW() WHERE `id` = ? AND `tenant_id` = ?", q.SQL)
	assert.Equal(t, []interface{}{"XYZ987", int64(7), "t1"}, q.Params)
}

func TestBuildDelete(t *testing.T) {
	q := Delete("mf_data_t1_car").
		Where("`id` = ?", int64(7)).
		Where("`tenant_id` = ?", "t1").
		Build()

	assert.Equal(t, "DELETE FROM `mf_data_t1_car` WHERE `id` = ? AND `tenant_id` = ?", q.SQL)
	assert.Equal(t, []interface{}{int64(7), "t1"}, q.Params)
}
