// Package discovery centralizes service address conventions.
package discovery

import (
	"net"
	"strconv"
	"strings"
)

const (
	// ServiceGame is the table server identity.
	ServiceGame = "game"
)

var grpcPorts = map[string]int{
	ServiceGame: 8082,
}

// GRPCPort returns the conventional gRPC port for a service, or 0.
func GRPCPort(service string) int {
	return grpcPorts[strings.TrimSpace(service)]
}

// DefaultGRPCAddr returns the canonical in-network gRPC address for a service.
func DefaultGRPCAddr(service string) string {
	service = strings.TrimSpace(service)
	return hostAddr(service, GRPCPort(service))
}

// LocalGRPCAddr returns the gRPC address of a service running on this host.
func LocalGRPCAddr(service string) string {
	return hostAddr("localhost", GRPCPort(service))
}

// OrDefaultGRPCAddr returns value when set, otherwise the service convention.
func OrDefaultGRPCAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultGRPCAddr(service)
}

func hostAddr(host string, port int) string {
	if host == "" || port <= 0 {
		return ""
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
