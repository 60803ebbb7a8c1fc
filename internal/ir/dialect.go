package ir

// Dialect is a handle to a loaded dialect. Dialects belong to the context,
// not to an operation subtree, and can be read from any goroutine.
type Dialect struct{ object }

func (d Dialect) IsLive() bool   { return d.isLive("dialect") }
func (d Dialect) String() string { return describe(d) }

func (d Dialect) info() handleInfo {
	info := d.infoAs("dialect")
	info.shared = true
	return info
}

// Namespace returns the dialect namespace, e.g. "func".
func (d Dialect) Namespace() (string, error) {
	var ns string
	err := d.ctx.invoke(CallDialectGetNamespace, func() error {
		ns = d.ctx.native.DialectNamespace(d.ref)
		return nil
	}, d)
	return ns, err
}
