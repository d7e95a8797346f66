package filter

import (
	"fmt"
	"sync"
	"testing"
)

func TestSnapshot_Match(t *testing.T) {
	s, err := Compile(DefaultKeywords())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		text string
		want bool
	}{
		{"sunco led bulb", true},
		{"SUNCO Lighting", true},
		{"crystal chandelier", true},
		{"home depot lamp", true},
		{"homedepot lamp", false},
		{"suncoast lamp", false}, // граница слова
		{"desk lamp", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := s.Match(tt.text); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}

	if got := s.Find("best Chandelier ever"); got != "Chandelier" {
		t.Errorf("Find returned %q", got)
	}
}

func TestSnapshot_MatchUnicodeBoundaries(t *testing.T) {
	s, err := Compile([]string{"lámpara", "café"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		text string
		want bool
	}{
		{"lámpara de pie", true},
		{"LÁMPARA colgante", true},
		{"una lámpara", true},
		{"(café)", true},
		{"lámparas de mesa", false},
		{"superlámpara", false},
		{"cafés", false},
		{"caféx", false},
	}
	for _, tt := range tests {
		if got := s.Match(tt.text); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}

	if got := s.Find("nueva Lámpara roja"); got != "Lámpara" {
		t.Errorf("Find returned %q", got)
	}
}

func TestCompile_EscapesAndCleans(t *testing.T) {
	s, err := Compile([]string{"a.b", " ", "A.B", "c+"})
	if err != nil {
		t.Fatal(err)
	}

	kw := s.Keywords()
	if len(kw) != 2 || kw[0] != "a.b" || kw[1] != "c+" {
		t.Errorf("unexpected keywords: %v", kw)
	}
	if s.Match("axb") {
		t.Error("dot should be escaped")
	}
	if !s.Match("x a.b y") {
		t.Error("literal keyword should match")
	}
}

func TestCompile_Empty(t *testing.T) {
	s, err := Compile(nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Match("anything") {
		t.Error("empty list should match nothing")
	}
}

func TestFilter_UpdateKeepsOldSnapshot(t *testing.T) {
	f, err := New([]string{"alpha"})
	if err != nil {
		t.Fatal(err)
	}

	old := f.Snapshot()
	next, err := f.Update([]string{"beta"})
	if err != nil {
		t.Fatal(err)
	}

	// снимок, взятый до Update, не меняется
	if !old.Match("alpha") || old.Match("beta") {
		t.Error("old snapshot was mutated")
	}
	if !f.Match("beta") || f.Match("alpha") {
		t.Error("filter should use the new list")
	}
	if next.Version() != old.Version()+1 {
		t.Errorf("version should grow: %d → %d", old.Version(), next.Version())
	}

	kw := next.Keywords()
	kw[0] = "mutated"
	if f.Snapshot().Keywords()[0] != "beta" {
		t.Error("Keywords should return a copy")
	}
}

func TestFilter_ConcurrentReadersSeeWholeLists(t *testing.T) {
	f, err := New([]string{"k0a", "k0b"})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := f.Snapshot()
				kw := s.Keywords()
				// обе половины списка всегда из одной версии
				if len(kw) != 2 || kw[0][:len(kw[0])-1] != kw[1][:len(kw[1])-1] {
					t.Errorf("torn snapshot: %v", kw)
					return
				}
			}
		}()
	}

	for i := 1; i <= 200; i++ {
		if _, err := f.Update([]string{fmt.Sprintf("k%da", i), fmt.Sprintf("k%db", i)}); err != nil {
			t.Fatal(err)
		}
	}
	close(stop)
	wg.Wait()

	if f.Snapshot().Version() != 201 {
		t.Errorf("expected version 201, got %d", f.Snapshot().Version())
	}
}
