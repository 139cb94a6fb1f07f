package oauth

import "testing"

func TestBuildQuery(t *testing.T) {
	got := BuildQuery([]Param{
		{"client_id", "abc"},
		{"redirect_uri", ""},
		{"scope", "   "},
		{"response_type", "code"},
		{"display", "page"},
	})
	want := "client_id=abc&response_type=code&display=page"
	if got != want {
		t.Fatalf("BuildQuery = %q, want %q", got, want)
	}
}

func TestBuildQueryDoesNotEncode(t *testing.T) {
	got := BuildQuery([]Param{{"redirect_uri", "https://app.test/cb?x=1"}})
	if got != "redirect_uri=https://app.test/cb?x=1" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildQueryAllEmpty(t *testing.T) {
	if got := BuildQuery([]Param{{"a", ""}, {"b", " "}}); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestAppendQuery(t *testing.T) {
	cases := []struct{ base, qs, want string }{
		{"https://p.test/auth", "a=1", "https://p.test/auth?a=1"},
		{"https://p.test/auth?v=2", "a=1", "https://p.test/auth?v=2&a=1"},
		{"https://p.test/auth", "", "https://p.test/auth"},
	}
	for _, c := range cases {
		if got := appendQuery(c.base, c.qs); got != c.want {
			t.Fatalf("appendQuery(%q, %q) = %q, want %q", c.base, c.qs, got, c.want)
		}
	}
}
