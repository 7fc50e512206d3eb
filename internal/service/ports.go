package service

import (
	"context"
	"fmt"
	"slices"
)

type PortsService struct {
	list    func() ([]string, error)
	simPort string
}

func NewPortsService(list func() ([]string, error), simPort string) *PortsService {
	return &PortsService{list: list, simPort: simPort}
}

// ListPorts returns the ports visible right now, plus the simulated port
// when simulation is on.
func (s *PortsService) ListPorts(_ context.Context) ([]string, error) {
	ports := []string{}
	if s.list != nil {
		found, err := s.list()
		if err != nil {
			return nil, fmt.Errorf("list ports: %w", err)
		}
		ports = append(ports, found...)
	}
	if s.simPort != "" && !slices.Contains(ports, s.simPort) {
		ports = append(ports, s.simPort)
	}
	return ports, nil
}
