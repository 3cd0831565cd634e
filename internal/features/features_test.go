package features

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromCatalogName(t *testing.T) {
	for _, feature := range All() {
		resolved, ok := FromCatalogName(feature.CatalogName())
		require.True(t, ok)
		require.Equal(t, feature, resolved)
	}

	_, ok := FromCatalogName("WasteLogistics")
	require.False(t, ok, "unknown catalog names must not resolve")
}

func TestPrivilegeTablesAreDistinct(t *testing.T) {
	seen := make(map[string]Feature)
	for _, feature := range All() {
		table := feature.PrivilegeTable()
		require.NotEmpty(t, table)
		require.NotContains(t, seen, table)
		seen[table] = feature
	}
}

func TestFlagsDenyByDefault(t *testing.T) {
	var empty Flags
	require.False(t, empty.Allows("addNewDepartment"))

	flags := Flags{"addNewDepartment": "no", "viewDepartment": "yes"}
	require.False(t, flags.Allows("addNewDepartment"))
	require.True(t, flags.Allows("viewDepartment"))
	require.False(t, flags.Allows("somethingElse"))
}

func TestCapabilitiesDenyMissingFeature(t *testing.T) {
	caps := Capabilities{
		Inventory: Flags{"addNewStock": "yes"},
	}

	require.True(t, caps.Allows(Inventory, "addNewStock"))
	require.False(t, caps.Allows(CRM, "addNewStock"))
	require.False(t, caps.Allows(Inventory, "deleteStock"))
}
