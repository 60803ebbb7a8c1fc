package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	ring := NewRingTracer(16, LevelPhase)
	Point(ring, ScopeRegion, "ctx", "region.begin", "", nil)
	Point(ring, ScopePass, "ctx", "pass", "", nil)
	Point(ring, ScopeHandle, "ctx", "invalidate", "", nil)
	Violation(ring, ScopeHandle, "ctx", "violation", "use after invalidation", nil)

	got := ring.Snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Name != "region.begin" || !got[1].Error {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestRingWrapsInOrder(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(ring, ScopeHandle, "", name, "", nil)
	}
	got := ring.Snapshot()
	var names []string
	for _, ev := range got {
		names = append(names, ev.Name)
	}
	if strings.Join(names, ",") != "c,d,e" {
		t.Fatalf("unexpected ring order: %v", names)
	}
}

func TestSpanRoundTripNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)
	span := BeginIn(tr, ScopePass, "c1", "pass:annotate", 0)
	span.WithExtra("root", "operation#3").End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var end jsonEvent
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if end.Kind != "end" || end.Context != "c1" || end.Extra["root"] != "operation#3" || end.Detail != "ok" {
		t.Fatalf("unexpected end event: %+v", end)
	}
}

func TestTextFormatSortsExtra(t *testing.T) {
	ev := &Event{Seq: 7, Kind: KindPoint, Scope: ScopeHandle, Name: "invalidate", Extra: map[string]string{"z": "1", "a": "2"}}
	got := string(FormatEvent(ev, FormatText))
	want := "#000007 [handle] • invalidate {a=2, z=1}\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMultiTracerConcurrentEmit(t *testing.T) {
	r1 := NewRingTracer(128, LevelDebug)
	r2 := NewRingTracer(128, LevelDebug)
	multi := NewMultiTracer(LevelDebug, r1, r2)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 4 {
				Point(multi, ScopeHandle, "", "x", "", nil)
			}
		}()
	}
	wg.Wait()
	if len(r1.Snapshot()) != 32 || len(r2.Snapshot()) != 32 {
		t.Fatalf("events lost")
	}
	if r, ok := Ring(multi); !ok || r != r1 {
		t.Fatalf("Ring should find the first ring tracer")
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected nop tracer by default")
	}
	ring := NewRingTracer(4, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatalf("tracer not propagated")
	}
}

func TestGoroutineID(t *testing.T) {
	main := GoroutineID()
	if main == 0 {
		t.Fatalf("goroutine id not parsed")
	}
	ch := make(chan uint64)
	go func() { ch <- GoroutineID() }()
	if other := <-ch; other == main || other == 0 {
		t.Fatalf("expected distinct goroutine ids, got %d and %d", main, other)
	}
}

func TestParentPropagation(t *testing.T) {
	ctx := context.Background()
	if ParentFrom(ctx) != 0 {
		t.Fatalf("expected root")
	}
	if got := ParentFrom(WithParent(ctx, 42)); got != 42 {
		t.Fatalf("got parent %d", got)
	}
}
