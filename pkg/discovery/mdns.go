// ABOUTME: mDNS advertisement and browsing for voice agent gateways
// ABOUTME: Wraps hashicorp/mdns with TXT-described socket and API paths
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service gateways register under
const ServiceType = "_voiceagent._tcp"

const (
	defaultSocketPath = "/ws"
	defaultAPIPath    = "/api"
)

// Config holds advertisement configuration
type Config struct {
	ServiceName string
	Port        int
	SocketPath  string
	APIPath     string
}

// Gateway describes a discovered gateway
type Gateway struct {
	Name       string
	Host       string
	Port       int
	SocketPath string
	APIPath    string
}

// SocketURL is the websocket endpoint of the gateway
func (g *Gateway) SocketURL() string {
	return fmt.Sprintf("ws://%s%s", g.hostPort(), g.SocketPath)
}

// APIURL is the base of the agent-data API
func (g *Gateway) APIURL() string {
	return fmt.Sprintf("http://%s%s", g.hostPort(), g.APIPath)
}

func (g *Gateway) hostPort() string {
	return net.JoinHostPort(g.Host, strconv.Itoa(g.Port))
}

// Manager handles mDNS operations
type Manager struct {
	config   Config
	ctx      context.Context
	cancel   context.CancelFunc
	gateways chan *Gateway
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.SocketPath == "" {
		config.SocketPath = defaultSocketPath
	}
	if config.APIPath == "" {
		config.APIPath = defaultAPIPath
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
		gateways: make(chan *Gateway, 10),
	}
}

// Advertise announces this gateway until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=" + m.config.SocketPath, "api=" + m.config.APIPath},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for gateways until Stop is called
func (m *Manager) Browse() {
	go m.browseLoop()
}

// browseLoop repeats queries and forwards every answer
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		go func() {
			for entry := range entries {
				gw := gatewayFromEntry(entry)
				if gw == nil {
					continue
				}
				log.Printf("Discovered gateway: %s at %s:%d", gw.Name, gw.Host, gw.Port)

				select {
				case m.gateways <- gw:
				case <-m.ctx.Done():
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Entries = entries
		params.Timeout = 3 * time.Second
		params.DisableIPv6 = true

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
	}
}

// Gateways returns the channel of discovered gateways
func (m *Manager) Gateways() <-chan *Gateway {
	return m.gateways
}

// Stop stops browsing and advertising
func (m *Manager) Stop() {
	m.cancel()
}

// Discover browses until the first gateway answers or timeout passes
func Discover(ctx context.Context, timeout time.Duration) (*Gateway, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m := NewManager(Config{})
	defer m.Stop()
	m.Browse()

	select {
	case gw := <-m.Gateways():
		return gw, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no %s gateway found: %w", ServiceType, ctx.Err())
	}
}

// gatewayFromEntry converts an mDNS answer; entries without an IPv4
// address are skipped
func gatewayFromEntry(entry *mdns.ServiceEntry) *Gateway {
	if entry == nil || entry.AddrV4 == nil {
		return nil
	}

	txt := parseTXT(entry.InfoFields)
	gw := &Gateway{
		Name:       strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host:       entry.AddrV4.String(),
		Port:       entry.Port,
		SocketPath: txt["path"],
		APIPath:    txt["api"],
	}
	if gw.SocketPath == "" {
		gw.SocketPath = defaultSocketPath
	}
	if gw.APIPath == "" {
		gw.APIPath = defaultAPIPath
	}
	return gw
}

// parseTXT splits key=value TXT fields
func parseTXT(fields []string) map[string]string {
	txt := make(map[string]string, len(fields))
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			txt[field] = ""
			continue
		}
		txt[key] = value
	}
	return txt
}

// getLocalIPs returns local IPv4 addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
