package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/miekg/dns"

	"github.com/ultrazend/ultrazend/internal/model"
	"github.com/ultrazend/ultrazend/internal/repository/postgres"
)

// DNS record type constants used in DomainDNSRecord.RecordType.
const (
	RecordTypeVerification = "VERIFICATION"
	RecordTypeSPF          = "SPF"
	RecordTypeDKIM         = "DKIM"
	RecordTypeMX           = "MX"
	RecordTypeDMARC        = "DMARC"
	RecordTypeReturnPath   = "RETURN_PATH"
)

// DNS record verification status constants.
const (
	DNSStatusPending  = "pending"
	DNSStatusVerified = "verified"
	DNSStatusFailed   = "failed"
)

// verifyPollSchedule is the exponential backoff between domain verification
// polls: 1m, 5m, 15m, 1h, 6h, 24h. A domain that still hasn't verified after
// the last step, or that has been pending longer than verifyGiveUpAfter, is
// marked failed instead of rescheduled.
var verifyPollSchedule = []time.Duration{
	time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	time.Hour,
	6 * time.Hour,
	24 * time.Hour,
}

const verifyGiveUpAfter = 7 * 24 * time.Hour

// DomainVerifyHandler processes domain:verify tasks by checking each DNS record
// associated with a domain and updating their verification status. A domain
// that fails verification is rescheduled on verifyPollSchedule rather than
// failed outright, so transient DNS propagation delays don't strand it.
//
// DNS lookups use github.com/miekg/dns directly (the same library
// internal/engine.DNSResolver is built on) rather than net.LookupTXT/MX/CNAME,
// since internal/engine can't be imported here without an import cycle
// (engine.WorkerAdapter already depends on this package).
type DomainVerifyHandler struct {
	domainRepo    postgres.DomainRepository
	dnsRecordRepo postgres.DomainDNSRecordRepository
	enqueuer      TaskEnqueuer
	nameserver    string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewDomainVerifyHandler creates a new DomainVerifyHandler.
func NewDomainVerifyHandler(
	domainRepo postgres.DomainRepository,
	dnsRecordRepo postgres.DomainDNSRecordRepository,
	enqueuer TaskEnqueuer,
	logger *slog.Logger,
) *DomainVerifyHandler {
	return &DomainVerifyHandler{
		domainRepo:    domainRepo,
		dnsRecordRepo: dnsRecordRepo,
		enqueuer:      enqueuer,
		nameserver:    defaultResolverAddr(),
		timeout:       10 * time.Second,
		logger:        logger,
	}
}

// WithResolver overrides the nameserver used for verification lookups
// (e.g. to match the configured outbound DNS.Resolver rather than the
// system default).
func (h *DomainVerifyHandler) WithResolver(nameserver string, timeout time.Duration) *DomainVerifyHandler {
	if nameserver != "" {
		if !strings.Contains(nameserver, ":") {
			nameserver = nameserver + ":53"
		}
		h.nameserver = nameserver
	}
	if timeout > 0 {
		h.timeout = timeout
	}
	return h
}

// defaultResolverAddr reads the system resolver from /etc/resolv.conf,
// falling back to a public resolver if that fails.
func defaultResolverAddr() string {
	if config, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(config.Servers) > 0 {
		return config.Servers[0] + ":53"
	}
	return "8.8.8.8:53"
}

// query performs a single DNS query against the configured nameserver.
func (h *DomainVerifyHandler) query(name string, qtype uint16) (*dns.Msg, error) {
	c := &dns.Client{Timeout: h.timeout}
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	reply, _, err := c.Exchange(m, h.nameserver)
	if err != nil {
		return nil, fmt.Errorf("DNS query for %s (type %s): %w", name, dns.TypeToString[qtype], err)
	}
	if reply.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("DNS query for %s returned %s", name, dns.RcodeToString[reply.Rcode])
	}
	return reply, nil
}

// lookupTXT returns the TXT record values for a name.
func (h *DomainVerifyHandler) lookupTXT(name string) ([]string, error) {
	reply, err := h.query(name, dns.TypeTXT)
	if err != nil {
		return nil, err
	}
	var records []string
	for _, ans := range reply.Answer {
		if txt, ok := ans.(*dns.TXT); ok {
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}
	return records, nil
}

// mxHost is a single MX answer: host plus preference (priority).
type mxHost struct {
	Host string
	Pref uint16
}

// lookupMX returns the MX records for a domain.
func (h *DomainVerifyHandler) lookupMX(domain string) ([]mxHost, error) {
	reply, err := h.query(domain, dns.TypeMX)
	if err != nil {
		return nil, err
	}
	var hosts []mxHost
	for _, ans := range reply.Answer {
		if mx, ok := ans.(*dns.MX); ok {
			hosts = append(hosts, mxHost{Host: strings.TrimSuffix(mx.Mx, "."), Pref: mx.Preference})
		}
	}
	return hosts, nil
}

// lookupCNAME returns the CNAME target for a name, or "" if none exists.
func (h *DomainVerifyHandler) lookupCNAME(name string) (string, error) {
	reply, err := h.query(name, dns.TypeCNAME)
	if err != nil {
		return "", err
	}
	for _, ans := range reply.Answer {
		if cname, ok := ans.(*dns.CNAME); ok {
			return strings.TrimSuffix(cname.Target, "."), nil
		}
	}
	return "", nil
}

// ProcessTask handles the domain:verify task.
func (h *DomainVerifyHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p DomainVerifyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshalling domain:verify payload: %w", err)
	}

	log := h.logger.With("domain_id", p.DomainID, "team_id", p.TeamID)

	// 1. Get the domain.
	domain, err := h.domainRepo.GetByID(ctx, p.DomainID)
	if err != nil {
		return fmt.Errorf("fetching domain %s: %w", p.DomainID, err)
	}

	// 2. Get all DNS records for this domain.
	records, err := h.dnsRecordRepo.ListByDomainID(ctx, p.DomainID)
	if err != nil {
		return fmt.Errorf("listing DNS records for domain %s: %w", p.DomainID, err)
	}

	if len(records) == 0 {
		log.Warn("domain has no DNS records to verify")
		return nil
	}

	// 3. Verify each record.
	now := time.Now().UTC()
	allCriticalVerified := true

	for i := range records {
		record := &records[i]
		verified, verifyErr := h.verifyRecord(domain.Name, record)

		record.LastCheckedAt = &now
		record.UpdatedAt = now

		if verifyErr != nil {
			log.Warn("DNS verification failed",
				"record_type", record.RecordType,
				"dns_type", record.DNSType,
				"name", record.Name,
				"error", verifyErr,
			)
			record.Status = DNSStatusFailed
		} else if verified {
			log.Info("DNS record verified",
				"record_type", record.RecordType,
				"dns_type", record.DNSType,
				"name", record.Name,
			)
			record.Status = DNSStatusVerified
		} else {
			record.Status = DNSStatusFailed
		}

		if err := h.dnsRecordRepo.Update(ctx, record); err != nil {
			log.Error("failed to update DNS record status", "record_id", record.ID, "error", err)
		}

		// Track whether all critical records (SPF, DKIM, MX) are verified.
		if isCriticalRecord(record.RecordType) && record.Status != DNSStatusVerified {
			allCriticalVerified = false
		}
	}

	// 4. Update domain status based on verification results.
	if allCriticalVerified {
		domain.Status = model.DomainStatusVerified
		log.Info("domain fully verified")
		domain.UpdatedAt = now
		if err := h.domainRepo.Update(ctx, domain); err != nil {
			return fmt.Errorf("updating domain status: %w", err)
		}
		return nil
	}

	return h.rescheduleOrGiveUp(ctx, domain, now, log)
}

// rescheduleOrGiveUp handles a domain that failed this verification pass: it
// either bumps the attempt count and re-enqueues on verifyPollSchedule, or,
// once the schedule is exhausted or the domain has been pending too long,
// marks the domain failed terminally.
func (h *DomainVerifyHandler) rescheduleOrGiveUp(ctx context.Context, domain *model.Domain, now time.Time, log *slog.Logger) error {
	attempt := domain.VerificationAttempts
	tooOld := now.Sub(domain.CreatedAt) >= verifyGiveUpAfter

	if tooOld || attempt >= len(verifyPollSchedule) {
		domain.Status = model.DomainStatusFailed
		domain.UpdatedAt = now
		log.Info("domain verification gave up", "attempts", attempt, "age", now.Sub(domain.CreatedAt))
		if err := h.domainRepo.Update(ctx, domain); err != nil {
			return fmt.Errorf("updating domain status: %w", err)
		}
		return nil
	}

	delay := verifyPollSchedule[attempt]
	domain.Status = model.DomainStatusPending
	domain.VerificationAttempts = attempt + 1
	domain.UpdatedAt = now
	if err := h.domainRepo.Update(ctx, domain); err != nil {
		return fmt.Errorf("updating domain status: %w", err)
	}

	task, err := NewDomainVerifyTask(domain.ID, domain.TeamID, asynq.ProcessIn(delay))
	if err != nil {
		return fmt.Errorf("building domain verify retry task: %w", err)
	}
	if _, err := h.enqueuer.Enqueue(task); err != nil {
		return fmt.Errorf("rescheduling domain verification: %w", err)
	}

	log.Info("domain verification incomplete, rescheduled", "attempt", domain.VerificationAttempts, "delay", delay)
	return nil
}

// verifyRecord performs a DNS lookup to verify a single DNS record.
func (h *DomainVerifyHandler) verifyRecord(domainName string, record *model.DomainDNSRecord) (bool, error) {
	switch record.RecordType {
	case RecordTypeVerification:
		return h.verifyOwnershipToken(record.Name, record.Value)
	case RecordTypeSPF:
		return h.verifySPF(record.Name, record.Value)
	case RecordTypeDKIM:
		return h.verifyDKIM(record.Name, record.Value)
	case RecordTypeDMARC:
		return h.verifyDMARC(record.Name, record.Value)
	case RecordTypeMX:
		return h.verifyMX(record.Name, record.Value, record.Priority)
	case RecordTypeReturnPath:
		return h.verifyCNAME(record.Name, record.Value)
	default:
		return false, fmt.Errorf("unknown record type: %s", record.RecordType)
	}
}

// verifyOwnershipToken checks that the domain ownership TXT record is
// published at _ultrazend-verification.<domain> with the expected token.
// This is the sole gate for a domain transitioning to verified; SPF, DKIM,
// MX and DMARC are observed and reported but don't block verification.
func (h *DomainVerifyHandler) verifyOwnershipToken(name, expectedValue string) (bool, error) {
	txtRecords, err := h.lookupTXT(name)
	if err != nil {
		return false, fmt.Errorf("ownership TXT lookup for %s: %w", name, err)
	}

	for _, txt := range txtRecords {
		if strings.Contains(txt, expectedValue) {
			return true, nil
		}
	}

	return false, nil
}

// verifySPF checks that the expected SPF TXT record is published.
func (h *DomainVerifyHandler) verifySPF(name, expectedValue string) (bool, error) {
	txtRecords, err := h.lookupTXT(name)
	if err != nil {
		return false, fmt.Errorf("SPF TXT lookup for %s: %w", name, err)
	}

	for _, txt := range txtRecords {
		if strings.Contains(txt, "v=spf1") && strings.Contains(txt, expectedValue) {
			return true, nil
		}
	}

	return false, nil
}

// verifyDKIM checks that the expected DKIM TXT record is published at the selector._domainkey subdomain.
func (h *DomainVerifyHandler) verifyDKIM(name, expectedValue string) (bool, error) {
	txtRecords, err := h.lookupTXT(name)
	if err != nil {
		return false, fmt.Errorf("DKIM TXT lookup for %s: %w", name, err)
	}

	// DKIM TXT records can be split across multiple strings; join them.
	for _, txt := range txtRecords {
		if strings.Contains(txt, "v=DKIM1") && strings.Contains(txt, expectedValue) {
			return true, nil
		}
	}

	return false, nil
}

// verifyDMARC checks that the expected DMARC TXT record is published.
func (h *DomainVerifyHandler) verifyDMARC(name, expectedValue string) (bool, error) {
	txtRecords, err := h.lookupTXT(name)
	if err != nil {
		return false, fmt.Errorf("DMARC TXT lookup for %s: %w", name, err)
	}

	for _, txt := range txtRecords {
		if strings.Contains(txt, "v=DMARC1") && strings.Contains(txt, expectedValue) {
			return true, nil
		}
	}

	return false, nil
}

// verifyMX checks that the expected MX record is published with the correct priority.
func (h *DomainVerifyHandler) verifyMX(name, expectedHost string, expectedPriority *int) (bool, error) {
	mxHosts, err := h.lookupMX(name)
	if err != nil {
		return false, fmt.Errorf("MX lookup for %s: %w", name, err)
	}

	expectedTrimmed := strings.TrimSuffix(expectedHost, ".")
	for _, mx := range mxHosts {
		if strings.EqualFold(mx.Host, expectedTrimmed) {
			if expectedPriority == nil || int(mx.Pref) == *expectedPriority {
				return true, nil
			}
		}
	}

	return false, nil
}

// verifyCNAME checks that a CNAME record points to the expected value.
func (h *DomainVerifyHandler) verifyCNAME(name, expectedValue string) (bool, error) {
	cname, err := h.lookupCNAME(name)
	if err != nil {
		return false, fmt.Errorf("CNAME lookup for %s: %w", name, err)
	}

	expectedClean := strings.TrimSuffix(expectedValue, ".")

	return strings.EqualFold(cname, expectedClean), nil
}

// isCriticalRecord returns true for record types that gate a domain's
// transition to verified. Only the ownership TXT record gates; SPF, DKIM,
// MX and DMARC are observed and surfaced in the dashboard payload but a
// domain doesn't need them to pass verification.
func isCriticalRecord(recordType string) bool {
	return recordType == RecordTypeVerification
}

// uuidToString converts a *uuid.UUID to string, returning empty for nil.
func uuidToString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
