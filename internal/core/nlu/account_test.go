package nlu

import "testing"

func TestAccountExtract(t *testing.T) {
	e := NewAccountExtractor(DefaultRuleSet())
	cases := []struct {
		raw         string
		wantID      string
		wantPartial bool
	}{
		{"acc one zero two seven", "ACC1027", false},
		{"show orders for account 10", "", true},
		{"show me orders", "", false},
		{"account number 1027", "ACC1027", false},
		{"my account is 5 5 1 2", "ACC5512", false},
		{"ACC1027 orders", "ACC1027", false},
		{"a c c one oh two seven", "ACC1027", false},
		{"orders of account 1027 for bosch", "ACC1027", false},
		{"acct 1 0 2", "", true},
		{"akount nine nine eight eight", "ACC9988", false},
		{"my account", "", false},
		{"show orders on my account", "", false},
		{"account number please", "", false},
		{"account 1027 for 2 days", "ACC1027", false},
		{"account 1027 to 5 stores", "ACC1027", false},
		{"acc one zero for seven", "ACC1047", false},
		{"acc one zero to seven", "ACC1027", false},
	}
	for _, tc := range cases {
		got := e.Extract(tc.raw)
		if got.ID != tc.wantID || got.Partial != tc.wantPartial {
			t.Fatalf("Extract(%q) = %+v, want id=%q partial=%v", tc.raw, got, tc.wantID, tc.wantPartial)
		}
	}
}

func TestAccountExtractFullAndPartialAreExclusive(t *testing.T) {
	e := NewAccountExtractor(DefaultRuleSet())
	got := e.Extract("account 12 no wait account 1234")
	if got.ID != "ACC1234" || got.Partial {
		t.Fatalf("expected full match to win, got %+v", got)
	}
}

func TestCanonicalAccountID(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"acc-1027", "ACC1027", true},
		{"1027", "ACC1027", true},
		{" ACC 55 12 ", "ACC5512", true},
		{"bob", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CanonicalAccountID(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("CanonicalAccountID(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
