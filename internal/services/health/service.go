package health

// BreakerStater reports the current state of the LLM circuit breaker.
type BreakerStater interface {
	State() string
}

// Status is the payload served on GET /health.
type Status struct {
	OK          bool   `json:"ok"`
	LLMProvider string `json:"llm_provider"`
	Breaker     string `json:"breaker,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	provider string
	breaker  BreakerStater
}

// NewService constructs a new health service. breaker may be nil.
func NewService(provider string, breaker BreakerStater) *Service {
	return &Service{provider: provider, breaker: breaker}
}

// Status returns the health payload. The service stays healthy while the breaker
// is open; callers see the breaker state instead.
func (s *Service) Status() Status {
	st := Status{OK: true, LLMProvider: s.provider}
	if st.LLMProvider == "" {
		st.LLMProvider = "none"
	}
	if s.breaker != nil {
		st.Breaker = s.breaker.State()
	}
	return st
}
