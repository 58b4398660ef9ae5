package callbacks

import "testing"

func TestParseVerbOnly(t *testing.T) {
	a, err := Parse("price_info")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Verb != "price_info" || len(a.Args) != 0 {
		t.Fatalf("unexpected action: %+v", a)
	}
}

func TestParseVerbWithArgs(t *testing.T) {
	a, err := Parse("admin_approve_123_-1000500000000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Verb != "admin_approve" {
		t.Fatalf("verb = %q", a.Verb)
	}
	if err := a.RequireArgs(2); err != nil {
		t.Fatalf("args: %v", err)
	}
	if a.Args[0] != 123 || a.Args[1] != -1000500000000 {
		t.Fatalf("args = %v", a.Args)
	}
}

func TestParseNegativeGroupID(t *testing.T) {
	a, err := Parse("transfer_done_-1001234567890")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Verb != "transfer_done" || a.Args[0] != -1001234567890 {
		t.Fatalf("unexpected action: %+v", a)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"_",
		"admin__approve",
		"_123",
		"123_456",
		"admin_approve_123_",
		"averyveryveryveryveryveryveryveryveryveryverylongtokenthatkeepsgrowing_1",
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	token := Encode("admin_reject", 42, -1009999999999)
	if token != "admin_reject_42_-1009999999999" {
		t.Fatalf("token = %q", token)
	}
	a, err := Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Verb != "admin_reject" || a.Args[0] != 42 || a.Args[1] != -1009999999999 {
		t.Fatalf("unexpected action: %+v", a)
	}
}

func TestRequireArgsMismatch(t *testing.T) {
	a, err := Parse("transfer_done_5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := a.RequireArgs(2); err == nil {
		t.Fatal("expected arg-count error")
	}
}
