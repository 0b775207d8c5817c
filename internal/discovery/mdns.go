package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/apswitch/internal/logging"
)

const (
	// DefaultService is browsed when no service type is given
	DefaultService = "_http._tcp"

	// DefaultDomain is the mDNS domain
	DefaultDomain = "local."

	// DefaultTimeout is how long a browse collects answers
	DefaultTimeout = 5 * time.Second
)

// Options configures a browse
type Options struct {
	// Interface restricts queries to one interface (the bound Wi-Fi link).
	// Empty means all multicast interfaces.
	Interface string
	Service   string
	Domain    string
	Timeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Service == "" {
		o.Service = DefaultService
	}
	if o.Domain == "" {
		o.Domain = DefaultDomain
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Browse collects service instances until the timeout expires or ctx is done
func Browse(ctx context.Context, opts Options) ([]*Service, error) {
	opts = opts.withDefaults()

	var resolverOpts []zeroconf.ClientOption
	if opts.Interface != "" {
		ifi, err := net.InterfaceByName(opts.Interface)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w", opts.Interface, err)
		}
		resolverOpts = append(resolverOpts, zeroconf.SelectIfaces([]net.Interface{*ifi}))
	}

	resolver, err := zeroconf.NewResolver(resolverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		services []*Service
		seen     = make(map[string]bool)
	)
	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := parseServiceEntry(entry)
				if svc == nil {
					continue
				}
				mu.Lock()
				if !seen[svc.Instance] {
					seen[svc.Instance] = true
					services = append(services, svc)
					logging.Debug("Service discovered",
						zap.String("instance", svc.Instance),
						zap.String("addr", svc.Addr()),
					)
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, opts.Service, opts.Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	mu.Lock()
	defer mu.Unlock()
	return services, nil
}

// parseServiceEntry converts a zeroconf entry to a Service.
// Returns nil for entries without a usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Service {
	if entry == nil {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	return &Service{
		Instance:     entry.Instance,
		HostName:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" TXT records; keys without a value map to ""
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}
