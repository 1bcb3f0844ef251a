package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/model"
)

func categoryStatus(t *testing.T, categories []model.CoverageCategory, name string) string {
	t.Helper()
	for _, c := range categories {
		if c.Name == name {
			return c.Status
		}
	}
	t.Fatalf("no category named %q", name)
	return ""
}

func TestCoverageEntityAllCategoriesCovered(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Coverage(context.Background(), "entity:order")
	require.NoError(t, err)

	assert.Equal(t, "covered", categoryStatus(t, result.Categories, "emits_event"))
	assert.Equal(t, "covered", categoryStatus(t, result.Categories, "has_business_rule"))
	assert.Equal(t, "covered", categoryStatus(t, result.Categories, "referenced_by_use_case"))
	assert.Equal(t, "covered", categoryStatus(t, result.Categories, "traced_by_requirement"))
	assert.Equal(t, 100.0, result.CoveragePercent)
}

func TestCoverageMissingCategoryLowersPercent(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Coverage(context.Background(), "business-rule:order-total")
	require.NoError(t, err)

	assert.Equal(t, "covered", categoryStatus(t, result.Categories, "applies_to_entity"))
	assert.Equal(t, "missing", categoryStatus(t, result.Categories, "applied_by_use_case"))
	assert.Less(t, result.CoveragePercent, 100.0)
}

func TestCoverageUnknownNodeErrors(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	_, err := e.Coverage(context.Background(), "entity:missing")
	assert.Error(t, err)
}
