package types

import (
	"strconv"
	"strings"
)

// Format renders an interned object in a compact textual form. It is meant
// for logs, traces and CLI tables, not as a parseable syntax.
func (in *Interner) Format(id ID) string {
	var sb strings.Builder
	in.format(&sb, id)
	return sb.String()
}

func (in *Interner) format(sb *strings.Builder, id ID) {
	d, ok := in.Lookup(id)
	if !ok {
		sb.WriteString("<<invalid>>")
		return
	}
	list := func(ids []ID) {
		for i, e := range ids {
			if i > 0 {
				sb.WriteString(", ")
			}
			in.format(sb, e)
		}
	}

	switch d.Kind {
	case KindNone:
		sb.WriteString("none")
	case KindIndex:
		sb.WriteString("index")
	case KindInteger:
		switch d.Sign {
		case Signed:
			sb.WriteString("si")
		case Unsigned:
			sb.WriteString("ui")
		default:
			sb.WriteString("i")
		}
		sb.WriteString(strconv.FormatUint(uint64(d.Width), 10))
	case KindFloat:
		sb.WriteString(FloatKind(d.Width).String())
	case KindFunction:
		sb.WriteByte('(')
		list(d.FunctionInputs())
		sb.WriteString(") -> ")
		results := d.FunctionResults()
		if len(results) == 1 {
			in.format(sb, results[0])
			return
		}
		sb.WriteByte('(')
		list(results)
		sb.WriteByte(')')
	case KindTuple:
		sb.WriteString("tuple<")
		list(d.Elems)
		sb.WriteByte('>')
	case KindStringAttr:
		sb.WriteString(strconv.Quote(d.Text))
	case KindIntegerAttr:
		sb.WriteString(strconv.FormatInt(d.Value, 10))
		sb.WriteString(" : ")
		in.format(sb, d.Ref)
	case KindBoolAttr:
		sb.WriteString(strconv.FormatBool(d.Value != 0))
	case KindUnitAttr:
		sb.WriteString("unit")
	case KindArrayAttr:
		sb.WriteByte('[')
		list(d.Elems)
		sb.WriteByte(']')
	case KindDictionaryAttr:
		sb.WriteByte('{')
		for i := range d.Names {
			if i > 0 {
				sb.WriteString(", ")
			}
			in.format(sb, d.Names[i])
			sb.WriteString(" = ")
			in.format(sb, d.Elems[i])
		}
		sb.WriteByte('}')
	case KindTypeAttr:
		in.format(sb, d.Ref)
	case KindFlatSymbolRefAttr:
		sb.WriteByte('@')
		sb.WriteString(d.Text)
	case KindIdentifier:
		sb.WriteString(d.Text)
	case KindUnknownLoc:
		sb.WriteString("loc(unknown)")
	case KindFileLineColLoc:
		sb.WriteString("loc(")
		sb.WriteString(strconv.Quote(d.Text))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(d.Line), 10))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(d.Col), 10))
		sb.WriteByte(')')
	case KindFusedLoc:
		sb.WriteString("loc(fused")
		if d.Ref != NoID {
			sb.WriteByte('<')
			in.format(sb, d.Ref)
			sb.WriteByte('>')
		}
		sb.WriteByte('[')
		list(d.Elems)
		sb.WriteString("])")
	case KindCallSiteLoc:
		sb.WriteString("loc(callsite(")
		in.format(sb, d.Elems[0])
		sb.WriteString(" at ")
		in.format(sb, d.Elems[1])
		sb.WriteString("))")
	default:
		sb.WriteString(d.Kind.String())
	}
}
