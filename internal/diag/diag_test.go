package diag

import (
	"sync"
	"testing"
)

func TestFormatShort(t *testing.T) {
	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     PolViolation,
			Message:  "enable multithreading\ninside region",
		},
		{
			Severity: SevError,
			Code:     RaceUnsynchronizedMutation,
			Message:  "mutation inside parallel region",
			Call:     "OperationSetAttribute",
			Object:   "operation#4",
			Notes:    []Note{{Msg: "region opened by goroutine 7"}},
		},
		{
			Severity: SevError,
			Code:     LifeUseAfterInvalidation,
			Message:  "handle was invalidated",
			Call:     "OperationName",
			Object:   "operation#2",
		},
	}

	expected := "error LIF1001 OperationName operation#2 handle was invalidated\n" +
		"error RACE3002 OperationSetAttribute operation#4 mutation inside parallel region\n" +
		"note RACE3002 region opened by goroutine 7\n" +
		"warning POL4001 - enable multithreading inside region"

	if got := FormatShort(diags, true); got != expected {
		t.Fatalf("unexpected diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitAndConcurrentAdd(t *testing.T) {
	bag := NewBag(10)
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bag.Add(NewError(RaceConcurrentAccess, "x"))
		}()
	}
	wg.Wait()
	if bag.Len() != 10 || bag.Dropped() != 10 {
		t.Fatalf("len=%d dropped=%d, want 10/10", bag.Len(), bag.Dropped())
	}
	if !bag.HasErrors() {
		t.Fatalf("expected errors")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(16)
	r := NewDedupReporter(BagReporter{Bag: bag})
	for range 3 {
		ReportError(r, CapImmutableObject, "uniqued").WithCall("Apply").WithObject("type#3").Emit()
	}
	ReportError(r, CapImmutableObject, "uniqued").WithCall("Apply").WithObject("type#4").Emit()
	if bag.Len() != 2 {
		t.Fatalf("expected 2 unique diagnostics, got %d", bag.Len())
	}
}

func TestParseCode(t *testing.T) {
	cases := map[string]Code{
		"UseAfterInvalidation":               LifeUseAfterInvalidation,
		"unsynchronized_concurrent_mutation": RaceUnsynchronizedMutation,
		"RACE3001":                           RaceConcurrentAccess,
		"PolicyViolation":                    PolViolation,
		"DanglingHandles":                    LifeDanglingHandles,
	}
	for in, want := range cases {
		got, ok := ParseCode(in)
		if !ok || got != want {
			t.Errorf("ParseCode(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseCode("nope"); ok {
		t.Errorf("unexpected match for unknown name")
	}
}
