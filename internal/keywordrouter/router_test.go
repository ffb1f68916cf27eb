package keywordrouter

import "testing"

func TestRouteOptOutWinsOverKeywordNamedStop(t *testing.T) {
	lookup := func(k string) (Keyword, bool) {
		if k == "STOP" {
			return Keyword{Text: "STOP"}, true
		}
		return Keyword{}, false
	}
	d := Route("stop", lookup)
	if d.Intent != OptOut {
		t.Errorf("Intent = %v, want OptOut", d.Intent)
	}
}

func TestRouteOptInCaseInsensitive(t *testing.T) {
	lookup := func(k string) (Keyword, bool) {
		if k == "TRIBE" {
			return Keyword{Text: "TRIBE"}, true
		}
		return Keyword{}, false
	}
	d := Route("tribe", lookup)
	if d.Intent != OptIn {
		t.Fatalf("Intent = %v, want OptIn", d.Intent)
	}
	if d.Keyword.Text != "TRIBE" {
		t.Errorf("Keyword = %+v", d.Keyword)
	}
}

func TestRouteConversationalPreservesRawBody(t *testing.T) {
	lookup := func(string) (Keyword, bool) { return Keyword{}, false }
	d := Route("  Hey what's up  ", lookup)
	if d.Intent != Conversational {
		t.Fatalf("Intent = %v, want Conversational", d.Intent)
	}
	if d.RawBody != "  Hey what's up  " {
		t.Errorf("RawBody = %q, want raw preserved", d.RawBody)
	}
}

func TestRouteUnsubscribeToken(t *testing.T) {
	lookup := func(string) (Keyword, bool) { return Keyword{}, false }
	d := Route("unsubscribe", lookup)
	if d.Intent != OptOut {
		t.Errorf("Intent = %v, want OptOut", d.Intent)
	}
}
