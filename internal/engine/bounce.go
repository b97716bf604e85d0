package engine

import (
	"bufio"
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"strconv"
	"strings"

	"github.com/ultrazend/ultrazend/internal/model"
)

// Classification is the delivery outcome of a single SMTP response or DSN
// report, per spec.md §4.8's five-outcome table.
type Classification string

const (
	ClassificationSuccess   Classification = "success"
	ClassificationTransient Classification = "transient"
	ClassificationPermanent Classification = "permanent"
	ClassificationComplaint Classification = "complaint"
)

// BounceInfo is the result of classifying an SMTP response or DSN report.
type BounceInfo struct {
	Classification Classification
	Code           int    // SMTP response code, 0 if unknown
	EnhancedCode   string // e.g. "5.1.1", empty if the response carried none
	Message        string
	Recipient      string

	// Suppress is set when the classification implies the recipient should
	// be added to the suppression list (spec.md §4.8's "+ suppress" rows).
	Suppress       bool
	SuppressReason string // one of the model.Suppression* constants
}

// ClassifyBounce maps an SMTP response code and free-text message to a
// Classification per the table in spec.md §4.8.
func ClassifyBounce(code int, message string) BounceInfo {
	return classify(code, extractEnhancedCode(message), message)
}

func classify(code int, enhanced, message string) BounceInfo {
	info := BounceInfo{Code: code, EnhancedCode: enhanced, Message: message}
	lower := strings.ToLower(message)

	// ARF-style complaint text takes priority regardless of response code:
	// feedback-loop notifications arrive as 2xx acks of the original send.
	if containsAny(lower, "spam", "unsolicited", "abuse", "complaint", "blocked for spam") {
		info.Classification = ClassificationComplaint
		info.Suppress = true
		info.SuppressReason = model.SuppressionComplaint
		return info
	}

	class, subject, detail := splitEnhanced(enhanced)

	switch {
	case code >= 200 && code < 300:
		info.Classification = ClassificationSuccess

	case code == 421 || code == 450 || code == 451 || code == 452:
		info.Classification = ClassificationTransient

	case code >= 500 && code < 600:
		info.Classification = ClassificationPermanent

		switch {
		case class == 5 && subject == 1 && (detail == 1 || detail == 2):
			// 5.1.1 bad destination mailbox, 5.1.2 bad destination system.
			info.Suppress = true
			info.SuppressReason = model.SuppressionHardBounce
		case class == 5 && subject == 7:
			// Policy/reputation rejection: permanent, never suppress.
		case enhanced == "" && looksLikeNoSuchUser(lower):
			// No enhanced code given but the text says the same thing
			// 5.1.1/5.1.2 would: treat it identically.
			info.EnhancedCode = "5.1.1"
			info.Suppress = true
			info.SuppressReason = model.SuppressionHardBounce
		}

	case code >= 400 && code < 500:
		info.Classification = ClassificationTransient

	default:
		// Unknown/out-of-range code: default to transient so we never
		// suppress an address on an ambiguous response.
		info.Classification = ClassificationTransient
	}

	return info
}

// looksLikeNoSuchUser recognizes the common phrasing receivers use for
// 5.1.1/5.1.2 rejections when they don't bother sending an enhanced code.
func looksLikeNoSuchUser(lower string) bool {
	return containsAny(lower,
		"no such user", "user unknown", "mailbox not found",
		"does not exist", "unknown recipient", "invalid recipient",
		"unknown user", "recipient rejected",
	)
}

// extractEnhancedCode finds a leading RFC 3463 enhanced status code
// (e.g. "5.1.1") at the start of an SMTP response message.
func extractEnhancedCode(message string) string {
	fields := strings.Fields(strings.TrimSpace(message))
	if len(fields) == 0 {
		return ""
	}
	candidate := fields[0]
	parts := strings.Split(candidate, ".")
	if len(parts) != 3 {
		return ""
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return ""
		}
	}
	return candidate
}

// splitEnhanced decomposes "5.1.1" into (5, 1, 1). Missing or malformed
// fields come back as -1.
func splitEnhanced(enhanced string) (class, subject, detail int) {
	class, subject, detail = -1, -1, -1
	if enhanced == "" {
		return
	}
	parts := strings.SplitN(enhanced, ".", 3)
	if len(parts) > 0 {
		class, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		subject, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		detail, _ = strconv.Atoi(parts[2])
	}
	return
}

// ClassifyDSN parses a Delivery Status Notification (bounce email) per
// RFC 3464 and extracts bounce information. DSN messages use Content-Type
// multipart/report with report-type=delivery-status.
func ClassifyDSN(rawMessage []byte) (*BounceInfo, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(rawMessage))
	if err != nil {
		return nil, fmt.Errorf("parsing DSN message: %w", err)
	}

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		return nil, fmt.Errorf("missing Content-Type header")
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("parsing Content-Type: %w", err)
	}

	// DSN messages should be multipart/report.
	if mediaType != "multipart/report" {
		return nil, fmt.Errorf("unexpected Content-Type %q, expected multipart/report", mediaType)
	}

	reportType := params["report-type"]
	if reportType != "" && reportType != "delivery-status" {
		return nil, fmt.Errorf("unexpected report-type %q, expected delivery-status", reportType)
	}

	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("missing boundary in Content-Type")
	}

	reader := multipart.NewReader(msg.Body, boundary)

	var fields dsnFields
	foundStatus := false

	for {
		part, err := reader.NextPart()
		if err != nil {
			break
		}

		partType := part.Header.Get("Content-Type")
		partMedia, _, _ := mime.ParseMediaType(partType)

		// The delivery-status part contains the structured bounce data.
		if partMedia == "message/delivery-status" {
			if err := parseDSNStatus(part, &fields); err != nil {
				return nil, fmt.Errorf("parsing delivery-status: %w", err)
			}
			foundStatus = true
		}

		_ = part.Close()
	}

	if !foundStatus {
		return nil, fmt.Errorf("no message/delivery-status part found in DSN")
	}

	info := classify(fields.code, fields.status, fields.diagnostic)
	info.Recipient = fields.recipient
	if fields.action == "delayed" || fields.action == "relayed" || fields.action == "expanded" {
		info.Classification = ClassificationTransient
		info.Suppress = false
		info.SuppressReason = ""
	}
	return &info, nil
}

// dsnFields accumulates the raw per-recipient fields read from a
// message/delivery-status MIME part before classification.
type dsnFields struct {
	recipient  string
	action     string
	status     string
	diagnostic string
	code       int
}

// parseDSNStatus reads a message/delivery-status MIME part and populates
// fields from it. The delivery-status part contains groups of header-like
// fields separated by blank lines.
func parseDSNStatus(part *multipart.Part, fields *dsnFields) error {
	scanner := bufio.NewScanner(part)

	for scanner.Scan() {
		line := scanner.Text()

		// Skip blank lines (group separators).
		if strings.TrimSpace(line) == "" {
			continue
		}

		colonIdx := strings.Index(line, ":")
		if colonIdx < 0 {
			continue
		}

		key := strings.TrimSpace(strings.ToLower(line[:colonIdx]))
		value := strings.TrimSpace(line[colonIdx+1:])

		switch key {
		case "status":
			fields.status = value
		case "final-recipient":
			// Format: rfc822;user@example.com
			if idx := strings.Index(value, ";"); idx >= 0 {
				fields.recipient = strings.TrimSpace(value[idx+1:])
			}
		case "original-recipient":
			// Use as fallback if final-recipient is missing.
			if fields.recipient == "" {
				if idx := strings.Index(value, ";"); idx >= 0 {
					fields.recipient = strings.TrimSpace(value[idx+1:])
				}
			}
		case "diagnostic-code":
			fields.diagnostic = value
			fields.code = extractSMTPCode(value)
		case "action":
			fields.action = strings.ToLower(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading delivery-status: %w", err)
	}

	return nil
}

// extractSMTPCode attempts to extract an SMTP response code from a
// diagnostic-code field (e.g., "smtp; 550 5.1.1 User unknown").
func extractSMTPCode(diagnostic string) int {
	if idx := strings.Index(diagnostic, ";"); idx >= 0 {
		diagnostic = strings.TrimSpace(diagnostic[idx+1:])
	}
	if len(diagnostic) < 3 {
		return 0
	}
	code, err := strconv.Atoi(diagnostic[:3])
	if err != nil || code < 200 || code >= 600 {
		return 0
	}
	return code
}

// containsAny checks if s contains any of the given substrings.
func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
