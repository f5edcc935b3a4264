package navigation

import (
	"sync"
	"testing"
)

func TestLocationRecordsNavigations(t *testing.T) {
	loc := NewLocation("/")

	loc.Navigate("/login", State{From: "/protected"})
	if loc.Href() != "/login" || loc.State().From != "/protected" {
		t.Fatalf("unexpected location %q state %+v", loc.Href(), loc.State())
	}

	loc.Assign("/login")
	if loc.State().From != "" {
		t.Fatalf("hard navigation must drop route state, got %+v", loc.State())
	}
	if got := loc.Count("/login"); got != 2 {
		t.Fatalf("expected 2 entries for /login, got %d", got)
	}
}

func TestLocationReplaceOverwritesLastEntry(t *testing.T) {
	loc := NewLocation("/")
	loc.Assign("/a")
	loc.Replace("https://accounts.example.com/o/oauth2")

	h := loc.History()
	if len(h) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(h))
	}
	if h[0].Kind != KindReplace || h[0].Target != "https://accounts.example.com/o/oauth2" {
		t.Fatalf("unexpected entry %+v", h[0])
	}
}

func TestLocationHardNavigateHook(t *testing.T) {
	loc := NewLocation("/")
	var got []Entry
	loc.OnHardNavigate(func(e Entry) { got = append(got, e) })

	loc.Navigate("/dashboard", State{})
	loc.Assign("/login")
	loc.Replace("https://x")

	if len(got) != 2 {
		t.Fatalf("expected hook for hard navigations only, got %d calls", len(got))
	}
	if got[0].Kind != KindAssign || got[1].Kind != KindReplace {
		t.Fatalf("unexpected kinds %v %v", got[0].Kind, got[1].Kind)
	}
}

func TestLocationConcurrentSafe(t *testing.T) {
	loc := NewLocation("/")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				loc.Assign("/login")
				_ = loc.Href()
			}
		}()
	}
	wg.Wait()

	if got := loc.Count("/login"); got != 1600 {
		t.Fatalf("expected 1600 entries, got %d", got)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{KindAssign: "assign", KindReplace: "replace", KindRoute: "route", Kind(0): "unknown"}
	for k, want := range cases {
		if k.String() != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}
