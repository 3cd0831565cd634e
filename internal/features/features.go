package features

// Feature is one purchasable module of the platform. The enumeration is
// sealed: privilege storage, capability aggregation and notification fan-out
// all dispatch on these values instead of branching on catalog strings.
type Feature string

const (
	Default     Feature = "Default"
	CRM         Feature = "CRM"
	Inventory   Feature = "Inventory"
	MiniAccount Feature = "MiniAccount"
	HR          Feature = "HR"
	POS         Feature = "POS"
)

// definition binds a feature to its catalog spelling and privilege table.
type definition struct {
	catalogName    string
	privilegeTable string
}

// The catalog stores marketing names; each feature owns a dedicated
// privilege table inside every tenant schema.
var definitions = map[Feature]definition{
	Default:     {catalogName: "AppDefault", privilegeTable: "defaultPrivilege"},
	CRM:         {catalogName: "CustomerRelationshipManagement", privilegeTable: "CRMPrivilege"},
	Inventory:   {catalogName: "Inventory", privilegeTable: "inventoryPrivilege"},
	MiniAccount: {catalogName: "MiniAccount", privilegeTable: "miniAccountPrivilege"},
	HR:          {catalogName: "HumanResource", privilegeTable: "HRPrivilege"},
	POS:         {catalogName: "POS", privilegeTable: "POSPrivilege"},
}

var byCatalogName = func() map[string]Feature {
	out := make(map[string]Feature, len(definitions))
	for feature, def := range definitions {
		out[def.catalogName] = feature
	}
	return out
}()

// All returns every feature in a stable order.
func All() []Feature {
	return []Feature{Default, CRM, Inventory, MiniAccount, HR, POS}
}

// FromCatalogName maps a subscription catalog feature name to its Feature.
// Unrecognised names report ok=false; subscription parsing skips them so new
// catalog entries do not break older deployments.
func FromCatalogName(name string) (Feature, bool) {
	feature, ok := byCatalogName[name]
	return feature, ok
}

// CatalogName returns the spelling used in the subscription catalog.
func (f Feature) CatalogName() string {
	return definitions[f].catalogName
}

// PrivilegeTable returns the per-tenant table holding this feature's
// privilege records.
func (f Feature) PrivilegeTable() string {
	return definitions[f].privilegeTable
}

// Known reports whether f belongs to the sealed set.
func (f Feature) Known() bool {
	_, ok := definitions[f]
	return ok
}

func (f Feature) String() string {
	return string(f)
}
