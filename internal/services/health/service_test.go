package health

import "testing"

type fakeBreaker string

func (f fakeBreaker) State() string { return string(f) }

func TestStatusReportsProviderAndBreaker(t *testing.T) {
	st := NewService("openai", fakeBreaker("open")).Status()
	if !st.OK {
		t.Fatalf("expected ok status")
	}
	if st.LLMProvider != "openai" {
		t.Fatalf("unexpected provider: %s", st.LLMProvider)
	}
	if st.Breaker != "open" {
		t.Fatalf("unexpected breaker state: %s", st.Breaker)
	}
}

func TestStatusWithoutBreaker(t *testing.T) {
	st := NewService("", nil).Status()
	if st.LLMProvider != "none" {
		t.Fatalf("expected provider none, got %s", st.LLMProvider)
	}
	if st.Breaker != "" {
		t.Fatalf("expected empty breaker state, got %s", st.Breaker)
	}
}
