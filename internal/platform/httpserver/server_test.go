package httpserver

import (
	"testing"

	auditrecorder "resupply/contexts/exchange-core/audit-recorder"
	inventoryledger "resupply/contexts/exchange-core/inventory-ledger"
	transferworkflow "resupply/contexts/exchange-core/transfer-workflow"
	identitycontext "resupply/contexts/identity-access/identity-context"
)

func TestNewServerBoundsConnectionLifetimes(t *testing.T) {
	s := New(identitycontext.Module{}, inventoryledger.Module{}, transferworkflow.Module{}, auditrecorder.Module{}, nil, "")

	if s.srv == nil {
		t.Fatal("expected a configured http.Server")
	}
	if s.srv.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %s", s.srv.Addr)
	}
	if s.srv.Handler == nil {
		t.Fatal("server must route through the mux")
	}
	if s.srv.ReadHeaderTimeout <= 0 || s.srv.ReadTimeout <= 0 || s.srv.WriteTimeout <= 0 || s.srv.IdleTimeout <= 0 {
		t.Fatalf("every socket timeout must be bounded, got header=%v read=%v write=%v idle=%v",
			s.srv.ReadHeaderTimeout, s.srv.ReadTimeout, s.srv.WriteTimeout, s.srv.IdleTimeout)
	}
}
