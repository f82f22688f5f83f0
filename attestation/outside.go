package attestation

import (
	"fmt"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/miekg/dns"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// Attestation authority endpoint. The enclave's TLS stack talks to it over
// the raw socket the host hands across the boundary; protocol details beyond
// the connection belong to the authority, not this host.
const (
	AuthorityHost = "api.trustedservices.intel.com"
	AuthorityPort = 443
)

// defaultDialTimeout bounds the authority connection attempt.
const defaultDialTimeout = 10 * time.Second

// Resolver resolves a hostname to candidate addresses. The production
// implementation is DNSResolver; tests substitute fixed candidate sets.
type Resolver interface {
	LookupIP(host string) ([]net.IP, error)
}

// DNSResolver resolves hostnames against a DNS server using A and AAAA
// queries. IPv6 candidates are returned too; filtering is the caller's
// decision.
type DNSResolver struct {
	// ServerAddr is the DNS server to query, default "127.0.0.53:53".
	ServerAddr string
}

func (r *DNSResolver) LookupIP(host string) ([]net.IP, error) {
	server := r.ServerAddr
	if server == "" {
		server = "127.0.0.53:53"
	}

	client := new(dns.Client)
	var ips []net.IP

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		m := new(dns.Msg)
		m.Id = dns.Id()
		m.RecursionDesired = true
		m.Question = []dns.Question{{Name: dns.Fqdn(host), Qtype: qtype, Qclass: dns.ClassINET}}

		in, _, err := client.Exchange(m, server)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", host, err)
		}

		for _, answer := range in.Answer {
			switch rr := answer.(type) {
			case *dns.A:
				ips = append(ips, rr.A)
			case *dns.AAAA:
				ips = append(ips, rr.AAAA)
			}
		}
	}

	return ips, nil
}

// OutsideCallsConfig tunes the host side of enclave-initiated calls.
type OutsideCallsConfig struct {
	// AuthorityHost and AuthorityPort override the attestation authority
	// endpoint; zero values select the fixed defaults.
	AuthorityHost string
	AuthorityPort int

	// Resolver overrides DNS resolution, default DNSResolver.
	Resolver Resolver

	// DialTimeout bounds the authority connection attempt.
	DialTimeout time.Duration
}

// OutsideCalls services the calls the enclave issues back to the host during
// attestation. All methods are synchronous; failures deep inside these
// callbacks are unrecoverable within the call, since a partial or ambiguous
// state handed back into the enclave is worse than a hard stop.
type OutsideCalls struct {
	quotes      interfaces.QuoteProvider
	resolver    Resolver
	host        string
	port        int
	dialTimeout time.Duration
	log         *slog.Logger
}

// NewOutsideCalls creates the outside-call servicer on top of the platform
// quoting primitive.
func NewOutsideCalls(quotes interfaces.QuoteProvider, cfg OutsideCallsConfig, log *slog.Logger) *OutsideCalls {
	host := cfg.AuthorityHost
	if host == "" {
		host = AuthorityHost
	}
	port := cfg.AuthorityPort
	if port == 0 {
		port = AuthorityPort
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = &DNSResolver{}
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	return &OutsideCalls{
		quotes:      quotes,
		resolver:    resolver,
		host:        host,
		port:        port,
		dialTimeout: dialTimeout,
		log:         log,
	}
}

// InitQuote supplies quoting-enclave target info and the EPID group id,
// delegating to the platform primitive and returning its status verbatim.
func (o *OutsideCalls) InitQuote() (interfaces.TargetInfo, interfaces.GroupID, interfaces.Status) {
	o.log.Debug("Servicing quote-init outside-call")
	return o.quotes.InitQuote()
}

// GetAttestationSocket resolves the authority hostname to an IPv4 address
// and opens a direct connection, handing the raw file descriptor across the
// trust boundary. The authority socket is IPv4-only: a resolution without an
// IPv4 candidate fails deterministically instead of silently trying IPv6.
func (o *OutsideCalls) GetAttestationSocket() (int, interfaces.Status) {
	fd, err := o.authoritySocket()
	if err != nil {
		o.log.Error("Attestation authority socket acquisition failed", "err", err,
			"host", o.host, "port", o.port)
		return -1, interfaces.StatusNetworkFailure
	}
	return fd, interfaces.StatusSuccess
}

func (o *OutsideCalls) authoritySocket() (int, error) {
	ips, err := o.resolver.LookupIP(o.host)
	if err != nil {
		return -1, err
	}

	var candidate net.IP
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			candidate = v4
			break
		}
	}
	if candidate == nil {
		return -1, interfaces.ErrNoIPv4Candidate
	}

	addr := net.JoinHostPort(candidate.String(), fmt.Sprintf("%d", o.port))
	conn, err := net.DialTimeout("tcp4", addr, o.dialTimeout)
	if err != nil {
		return -1, fmt.Errorf("connecting to attestation authority at %s: %w", addr, err)
	}

	tcp := conn.(*net.TCPConn)
	file, err := tcp.File()
	if err != nil {
		tcp.Close()
		return -1, fmt.Errorf("extracting raw socket: %w", err)
	}

	// The descriptor crosses the trust boundary and must outlive every
	// host-side object. The runtime closes an *os.File's descriptor on
	// finalization, so dup it out of the file's ownership before letting
	// the file and the connection go.
	fd, err := syscall.Dup(int(file.Fd()))
	file.Close()
	tcp.Close()
	if err != nil {
		return -1, fmt.Errorf("duplicating raw socket: %w", err)
	}
	return fd, nil
}

// GetQuote turns a locally produced report into a signed quote. The required
// buffer size is queried first and written back across the boundary; each of
// the two sub-steps propagates a non-success status immediately without
// attempting the next.
func (o *OutsideCalls) GetQuote(sigRL []byte, report interfaces.Report, signType interfaces.QuoteSignType, spid interfaces.SPID, nonce interfaces.QuoteNonce) ([]byte, interfaces.Report, interfaces.Status) {
	o.log.Debug("Servicing quote outside-call", "sigRLLen", len(sigRL))

	quoteSize, status := o.quotes.CalcQuoteSize(sigRL)
	if !status.Ok() {
		o.log.Error("Quote size calculation failed", "status", status.String())
		return nil, interfaces.Report{}, status
	}
	o.log.Debug("Quote size calculated", "size", quoteSize)

	quote, qeReport, status := o.quotes.GetQuote(report, signType, spid, nonce, sigRL, quoteSize)
	if !status.Ok() {
		o.log.Error("Quote retrieval failed", "status", status.String())
		return nil, interfaces.Report{}, status
	}

	return quote, qeReport, status
}

// GetUpdateInfo relays the authority's platform status blob and trust
// verdict into the platform primitive, returning its status verbatim.
func (o *OutsideCalls) GetUpdateInfo(platformBlob interfaces.PlatformInfo, enclaveTrusted bool) (interfaces.UpdateInfo, interfaces.Status) {
	return o.quotes.ReportAttestationStatus(platformBlob, enclaveTrusted)
}
