package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/hashicorp/consul/api"
)

// Config holds the Consul agent address and how this service advertises itself.
type Config struct {
	Address          string `env:"ADDR"`
	AdvertiseAddress string `env:"ADVERTISE_ADDR" envDefault:"127.0.0.1"`
	CheckInterval    string `env:"CHECK_INTERVAL" envDefault:"10s"`
}

// Enabled reports whether a Consul agent is configured.
func (c Config) Enabled() bool {
	return c.Address != ""
}

// ConsulRegistrar registers a single HTTP service instance with the local Consul agent.
type ConsulRegistrar struct {
	agent     *api.Agent
	serviceID string
}

// NewConsulRegistrar creates a registrar talking to the agent at cfg.Address.
func NewConsulRegistrar(cfg Config) (*ConsulRegistrar, error) {
	client, err := api.NewClient(&api.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &ConsulRegistrar{agent: client.Agent()}, nil
}

// Register announces serviceName at the advertise address and the port taken from
// listenAddr, with an HTTP check against healthPath.
func (r *ConsulRegistrar) Register(serviceName, listenAddr, healthPath string, cfg Config) error {
	registration, err := NewRegistration(serviceName, listenAddr, healthPath, cfg)
	if err != nil {
		return err
	}

	if err := r.agent.ServiceRegister(registration); err != nil {
		return fmt.Errorf("register service %s: %w", registration.ID, err)
	}

	r.serviceID = registration.ID
	return nil
}

// Deregister removes the service registered by Register. It is a no-op otherwise.
func (r *ConsulRegistrar) Deregister() error {
	if r.serviceID == "" {
		return nil
	}

	return r.agent.ServiceDeregister(r.serviceID)
}

// NewRegistration builds the agent registration for an HTTP service.
func NewRegistration(serviceName, listenAddr, healthPath string, cfg Config) (*api.AgentServiceRegistration, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return nil, fmt.Errorf("parse listen address %q: %w", listenAddr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse listen port %q: %w", portStr, err)
	}

	hostPort := net.JoinHostPort(cfg.AdvertiseAddress, portStr)

	return &api.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s", serviceName, hostPort),
		Name:    serviceName,
		Address: cfg.AdvertiseAddress,
		Port:    port,
		Check: &api.AgentServiceCheck{
			HTTP:                           "http://" + hostPort + healthPath,
			Interval:                       cfg.CheckInterval,
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}, nil
}
