package features

// Flags is one feature's capability map: capability name to "yes"/"no".
// A nil or empty Flags denies everything.
type Flags map[string]string

// Allows reports whether the named capability is explicitly granted. Absent
// keys and every value other than "yes" deny.
func (f Flags) Allows(capability string) bool {
	return f[capability] == "yes"
}

// Capabilities is the per-request aggregate of every active feature's flag
// set for one user. It is built fresh on each request and never cached, so it
// can never carry another user's or another tenant's data.
type Capabilities map[Feature]Flags

// Allows reports whether the capability is granted under the feature.
// Features missing from the aggregate (not subscribed, lookup failed, or no
// record) deny.
func (c Capabilities) Allows(feature Feature, capability string) bool {
	return c[feature].Allows(capability)
}
