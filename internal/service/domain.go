package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ultrazend/ultrazend/internal/dto"
	"github.com/ultrazend/ultrazend/internal/engine"
	"github.com/ultrazend/ultrazend/internal/model"
	"github.com/ultrazend/ultrazend/internal/pkg"
	"github.com/ultrazend/ultrazend/internal/repository/postgres"
	"github.com/ultrazend/ultrazend/internal/worker"
)

const (
	// dkimKeyBits is the default RSA key size for DKIM signing.
	dkimKeyBits = 2048

	// defaultDKIMSelector names the active selector for a domain's first
	// DKIM key. Rotation moves to a dated selector (see rotationSelector).
	defaultDKIMSelector = "default"
)

// rotationSelector names the selector a DKIM key rotation publishes under,
// "sYYYYMM" of the rotation month, so concurrently-coexisting old and new
// keys never collide on the DNS name.
func rotationSelector(now time.Time) string {
	return "s" + now.Format("200601")
}

// recordTypeVerification identifies the ownership-proof TXT record at
// _ultrazend-verification.<domain>, mirrored in
// internal/worker.RecordTypeVerification (kept as a separate constant there
// to avoid worker importing service).
const recordTypeVerification = "VERIFICATION"

// generateVerificationToken returns a 32-byte token hex-encoded for use in
// the domain ownership TXT record.
func generateVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating verification token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// generateDKIMKeyPair generates an RSA-2048 keypair via engine.GenerateDKIMKeyPair
// and, if a master encryption key is configured, seals the private key at
// rest with engine.EncryptPrivateKey (AES-256-GCM) before it's persisted.
// pubKey is the base64 DER value ready for the DNS TXT record.
func (s *domainService) generateDKIMKeyPair() (storedPrivKey, pubKey string, err error) {
	privPEM, pubBase64, err := engine.GenerateDKIMKeyPair(dkimKeyBits)
	if err != nil {
		return "", "", fmt.Errorf("generating DKIM key pair: %w", err)
	}

	if s.encryptionKey == "" {
		return privPEM, pubBase64, nil
	}

	masterKey, err := hex.DecodeString(s.encryptionKey)
	if err != nil {
		return "", "", fmt.Errorf("decoding DKIM master encryption key: %w", err)
	}
	sealed, err := engine.EncryptPrivateKey(privPEM, masterKey)
	if err != nil {
		return "", "", fmt.Errorf("sealing DKIM private key: %w", err)
	}
	return sealed, pubBase64, nil
}

// DomainService defines operations for sending domain management.
type DomainService interface {
	Create(ctx context.Context, teamID uuid.UUID, req *dto.CreateDomainRequest) (*dto.DomainResponse, error)
	List(ctx context.Context, teamID uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.DomainResponse], error)
	Get(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) (*dto.DomainResponse, error)
	Update(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID, req *dto.UpdateDomainRequest) (*dto.DomainResponse, error)
	Delete(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) error
	Verify(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) (*dto.DomainResponse, error)
	RotateDKIMKey(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) (*dto.DomainResponse, error)
}

type domainService struct {
	domainRepo    postgres.DomainRepository
	dnsRecordRepo postgres.DomainDNSRecordRepository
	asynqClient   *asynq.Client
	dkimSelector  string
	encryptionKey string
}

// NewDomainService creates a new DomainService.
func NewDomainService(
	domainRepo postgres.DomainRepository,
	dnsRecordRepo postgres.DomainDNSRecordRepository,
	asynqClient *asynq.Client,
	dkimSelector string,
	encryptionKey string,
) DomainService {
	return &domainService{
		domainRepo:    domainRepo,
		dnsRecordRepo: dnsRecordRepo,
		asynqClient:   asynqClient,
		dkimSelector:  dkimSelector,
		encryptionKey: encryptionKey,
	}
}

func (s *domainService) Create(ctx context.Context, teamID uuid.UUID, req *dto.CreateDomainRequest) (*dto.DomainResponse, error) {
	if err := pkg.Validate(req); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	// Check for duplicate domain within the team.
	existing, _ := s.domainRepo.GetByTeamAndName(ctx, teamID, req.Name)
	if existing != nil {
		return nil, fmt.Errorf("domain %s already exists for this team", req.Name)
	}

	privKeyStr, pubKey, err := s.generateDKIMKeyPair()
	if err != nil {
		return nil, err
	}

	token, err := generateVerificationToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	selector := s.dkimSelector
	if selector == "" {
		selector = defaultDKIMSelector
	}

	domain := &model.Domain{
		ID:                uuid.New(),
		TeamID:            teamID,
		Name:              req.Name,
		Status:            model.DomainStatusPending,
		VerificationToken: token,
		DKIMPrivateKey:    &privKeyStr,
		DKIMSelector:      selector,
		OpenTracking:      false,
		ClickTracking:     false,
		TLSPolicy:         "opportunistic",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.domainRepo.Create(ctx, domain); err != nil {
		return nil, fmt.Errorf("creating domain: %w", err)
	}

	// Create DNS records for the domain.
	records := s.buildDNSRecords(domain.ID, req.Name, selector, pubKey, token, now)
	for i := range records {
		if err := s.dnsRecordRepo.Create(ctx, &records[i]); err != nil {
			return nil, fmt.Errorf("creating DNS record: %w", err)
		}
	}

	// Enqueue verification task.
	s.enqueueVerifyTask(domain.ID, teamID)

	return s.buildDomainResponse(domain, records), nil
}

func (s *domainService) List(ctx context.Context, teamID uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.DomainResponse], error) {
	params.Normalize()

	domains, total, err := s.domainRepo.List(ctx, teamID, params.PerPage, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing domains: %w", err)
	}

	data := make([]dto.DomainResponse, 0, len(domains))
	for _, d := range domains {
		records, err := s.dnsRecordRepo.ListByDomainID(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("listing DNS records for domain %s: %w", d.ID, err)
		}
		data = append(data, *s.buildDomainResponse(&d, records))
	}

	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (total + params.PerPage - 1) / params.PerPage
	}

	return &dto.PaginatedResponse[dto.DomainResponse]{
		Data:       data,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasMore:    params.Page < totalPages,
	}, nil
}

func (s *domainService) Get(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) (*dto.DomainResponse, error) {
	domain, err := s.domainRepo.GetByTeamAndID(ctx, teamID, domainID)
	if err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}

	records, err := s.dnsRecordRepo.ListByDomainID(ctx, domain.ID)
	if err != nil {
		return nil, fmt.Errorf("listing DNS records: %w", err)
	}

	return s.buildDomainResponse(domain, records), nil
}

func (s *domainService) Update(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID, req *dto.UpdateDomainRequest) (*dto.DomainResponse, error) {
	if err := pkg.Validate(req); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	domain, err := s.domainRepo.GetByTeamAndID(ctx, teamID, domainID)
	if err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}

	if req.OpenTracking != nil {
		domain.OpenTracking = *req.OpenTracking
	}
	if req.ClickTracking != nil {
		domain.ClickTracking = *req.ClickTracking
	}
	if req.TLSPolicy != nil {
		domain.TLSPolicy = *req.TLSPolicy
	}

	domain.UpdatedAt = time.Now().UTC()

	if err := s.domainRepo.Update(ctx, domain); err != nil {
		return nil, fmt.Errorf("updating domain: %w", err)
	}

	records, err := s.dnsRecordRepo.ListByDomainID(ctx, domain.ID)
	if err != nil {
		return nil, fmt.Errorf("listing DNS records: %w", err)
	}

	return s.buildDomainResponse(domain, records), nil
}

func (s *domainService) Delete(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) error {
	_, err := s.domainRepo.GetByTeamAndID(ctx, teamID, domainID)
	if err != nil {
		return fmt.Errorf("domain not found: %w", err)
	}

	if err := s.dnsRecordRepo.DeleteByDomainID(ctx, domainID); err != nil {
		return fmt.Errorf("deleting DNS records: %w", err)
	}

	if err := s.domainRepo.Delete(ctx, domainID); err != nil {
		return fmt.Errorf("deleting domain: %w", err)
	}

	return nil
}

func (s *domainService) Verify(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) (*dto.DomainResponse, error) {
	domain, err := s.domainRepo.GetByTeamAndID(ctx, teamID, domainID)
	if err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}

	// A user-triggered check restarts the exponential poll schedule from scratch,
	// including for domains the background poller already gave up on.
	if domain.VerificationAttempts > 0 || domain.Status == model.DomainStatusFailed {
		domain.VerificationAttempts = 0
		domain.Status = model.DomainStatusPending
		domain.UpdatedAt = time.Now().UTC()
		if err := s.domainRepo.Update(ctx, domain); err != nil {
			return nil, fmt.Errorf("resetting domain verification state: %w", err)
		}
	}

	s.enqueueVerifyTask(domain.ID, teamID)

	records, err := s.dnsRecordRepo.ListByDomainID(ctx, domain.ID)
	if err != nil {
		return nil, fmt.Errorf("listing DNS records: %w", err)
	}

	return s.buildDomainResponse(domain, records), nil
}

// RotateDKIMKey generates a new RSA keypair under a dated "sYYYYMM" selector
// and makes it the domain's active signing key. The outgoing selector's DNS
// TXT record is left in place rather than removed, so messages already
// queued or in flight under it still verify until the operator drops the
// old record once the new one has propagated.
func (s *domainService) RotateDKIMKey(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) (*dto.DomainResponse, error) {
	domain, err := s.domainRepo.GetByTeamAndID(ctx, teamID, domainID)
	if err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}

	privKeyStr, pubKey, err := s.generateDKIMKeyPair()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	selector := rotationSelector(now)
	if selector == domain.DKIMSelector {
		return nil, fmt.Errorf("domain %s already rotated this month", domain.Name)
	}

	record := model.DomainDNSRecord{
		ID:         uuid.New(),
		DomainID:   domain.ID,
		RecordType: "DKIM",
		DNSType:    "TXT",
		Name:       selector + "._domainkey." + domain.Name,
		Value:      "v=DKIM1; k=rsa; p=" + pubKey,
		Status:     model.DomainStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.dnsRecordRepo.Create(ctx, &record); err != nil {
		return nil, fmt.Errorf("creating DKIM DNS record: %w", err)
	}

	domain.DKIMPrivateKey = &privKeyStr
	domain.DKIMSelector = selector
	domain.UpdatedAt = now
	if err := s.domainRepo.Update(ctx, domain); err != nil {
		return nil, fmt.Errorf("updating domain: %w", err)
	}

	records, err := s.dnsRecordRepo.ListByDomainID(ctx, domain.ID)
	if err != nil {
		return nil, fmt.Errorf("listing DNS records: %w", err)
	}

	return s.buildDomainResponse(domain, records), nil
}

// buildDNSRecords creates the set of required DNS records for a new domain.
func (s *domainService) buildDNSRecords(domainID uuid.UUID, domainName, selector, pubKey, verificationToken string, now time.Time) []model.DomainDNSRecord {
	mxPriority := 10

	return []model.DomainDNSRecord{
		{
			ID:         uuid.New(),
			DomainID:   domainID,
			RecordType: recordTypeVerification,
			DNSType:    "TXT",
			Name:       "_ultrazend-verification." + domainName,
			Value:      "ultrazend-verification=" + verificationToken,
			Status:     model.DomainStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         uuid.New(),
			DomainID:   domainID,
			RecordType: "SPF",
			DNSType:    "TXT",
			Name:       domainName,
			Value:      "v=spf1 include:_spf." + domainName + " ~all",
			Status:     model.DomainStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         uuid.New(),
			DomainID:   domainID,
			RecordType: "DKIM",
			DNSType:    "TXT",
			Name:       selector + "._domainkey." + domainName,
			Value:      "v=DKIM1; k=rsa; p=" + pubKey,
			Status:     model.DomainStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         uuid.New(),
			DomainID:   domainID,
			RecordType: "MX",
			DNSType:    "MX",
			Name:       domainName,
			Value:      "feedback-smtp." + domainName,
			Priority:   &mxPriority,
			Status:     model.DomainStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         uuid.New(),
			DomainID:   domainID,
			RecordType: "DMARC",
			DNSType:    "TXT",
			Name:       "_dmarc." + domainName,
			Value:      "v=DMARC1; p=none;",
			Status:     model.DomainStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         uuid.New(),
			DomainID:   domainID,
			RecordType: "RETURN_PATH",
			DNSType:    "CNAME",
			Name:       "bounce." + domainName,
			Value:      "feedback-smtp." + domainName,
			Status:     model.DomainStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

// enqueueVerifyTask creates an asynq task to verify the domain's DNS records.
func (s *domainService) enqueueVerifyTask(domainID, teamID uuid.UUID) {
	task, err := worker.NewDomainVerifyTask(domainID, teamID)
	if err != nil {
		return
	}
	_, _ = s.asynqClient.Enqueue(task)
}

// buildDomainResponse converts a domain model and its DNS records to a DTO response.
func (s *domainService) buildDomainResponse(domain *model.Domain, records []model.DomainDNSRecord) *dto.DomainResponse {
	dnsRecords := make([]dto.DNSRecordResponse, 0, len(records))
	for _, r := range records {
		dnsRecords = append(dnsRecords, dto.DNSRecordResponse{
			Type:     r.RecordType,
			Name:     r.Name,
			Value:    r.Value,
			Priority: r.Priority,
			Status:   r.Status,
			TTL:      "Auto",
		})
	}

	return &dto.DomainResponse{
		ID:                domain.ID.String(),
		Name:              domain.Name,
		Status:            domain.Status,
		Region:            domain.Region,
		VerificationToken: domain.VerificationToken,
		Records:           dnsRecords,
		CreatedAt:         domain.CreatedAt.Format(time.RFC3339),
	}
}
