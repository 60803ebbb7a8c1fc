package diag

type Note struct {
	Msg string
}

type Diagnostic struct {
	Severity  Severity
	Code      Code
	Message   string
	Call      string
	Object    string
	Context   string
	Goroutine uint64
	Notes     []Note
}

func New(sev Severity, code Code, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
	}
}

func NewError(code Code, msg string) Diagnostic {
	return New(SevError, code, msg)
}

func (d Diagnostic) WithNote(msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Msg: msg})
	return d
}
