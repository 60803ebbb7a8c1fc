package diag

// Reporter: минимальный контракт получения диагностик.
// Реализации: BagReporter (кладёт в Bag), NopReporter, MultiReporter (fan-out),
// DedupReporter. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, code Code, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag:     New(sev, code, msg),
	}
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, msg)
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, msg)
}

// WithCall records the native call that was refused.
func (b *ReportBuilder) WithCall(call string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Call = call
	return b
}

// WithObject records the handle the call targeted.
func (b *ReportBuilder) WithObject(object string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Object = object
	return b
}

// WithContext records the owning context id.
func (b *ReportBuilder) WithContext(id string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Context = id
	return b
}

// WithGoroutine records the goroutine that issued the call.
func (b *ReportBuilder) WithGoroutine(gid uint64) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Goroutine = gid
	return b
}

// WithNote appends a note to diagnostic.
func (b *ReportBuilder) WithNote(msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithNote(msg)
	return b
}

// Emit sends diagnostic to underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}

// Diagnostic returns accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter: адаптер, который пишет в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// MultiReporter fans a diagnostic out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }
