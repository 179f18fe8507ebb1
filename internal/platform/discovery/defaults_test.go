package discovery

import "testing"

func TestDefaultGRPCAddr(t *testing.T) {
	cases := map[string]string{
		ServiceGame: "game:8082",
		" game ":    "game:8082",
		"unknown":   "",
		"":          "",
	}
	for service, want := range cases {
		if got := DefaultGRPCAddr(service); got != want {
			t.Fatalf("DefaultGRPCAddr(%q) = %q, want %q", service, got, want)
		}
	}
}

func TestLocalGRPCAddr(t *testing.T) {
	if got := LocalGRPCAddr(ServiceGame); got != "localhost:8082" {
		t.Fatalf("LocalGRPCAddr = %q, want localhost:8082", got)
	}
	if got := LocalGRPCAddr("unknown"); got != "" {
		t.Fatalf("LocalGRPCAddr(unknown) = %q, want empty", got)
	}
}

func TestOrDefaultGRPCAddr(t *testing.T) {
	if got := OrDefaultGRPCAddr(" custom:9000 ", ServiceGame); got != "custom:9000" {
		t.Fatalf("expected explicit grpc addr to win, got %q", got)
	}
	if got := OrDefaultGRPCAddr("", ServiceGame); got != "game:8082" {
		t.Fatalf("expected default grpc addr, got %q", got)
	}
}
