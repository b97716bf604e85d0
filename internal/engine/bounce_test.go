package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrazend/ultrazend/internal/model"
)

func TestClassifyBounce(t *testing.T) {
	tests := []struct {
		name           string
		code           int
		message        string
		wantClass      Classification
		wantSuppress   bool
		wantReason     string
	}{
		{
			name:      "250 success",
			code:      250,
			message:   "OK",
			wantClass: ClassificationSuccess,
		},
		{
			name:      "550 5.1.1 bad mailbox suppresses",
			code:      550,
			message:   "5.1.1 User unknown",
			wantClass: ClassificationPermanent,
			wantSuppress: true,
			wantReason: model.SuppressionHardBounce,
		},
		{
			name:      "550 5.1.2 bad system suppresses",
			code:      550,
			message:   "5.1.2 No such domain",
			wantClass: ClassificationPermanent,
			wantSuppress: true,
			wantReason: model.SuppressionHardBounce,
		},
		{
			name:      "550 5.7.1 policy rejection never suppresses",
			code:      550,
			message:   "5.7.1 Message rejected due to policy",
			wantClass: ClassificationPermanent,
			wantSuppress: false,
		},
		{
			name:      "550 no enhanced code but user-unknown text suppresses",
			code:      550,
			message:   "User unknown",
			wantClass: ClassificationPermanent,
			wantSuppress: true,
			wantReason: model.SuppressionHardBounce,
		},
		{
			name:      "553 mailbox name not allowed, no suppress text, still permanent",
			code:      553,
			message:   "Mailbox name not allowed",
			wantClass: ClassificationPermanent,
			wantSuppress: false,
		},
		{
			name:      "421 service not available is transient",
			code:      421,
			message:   "Service not available",
			wantClass: ClassificationTransient,
		},
		{
			name:      "450 mailbox unavailable is transient",
			code:      450,
			message:   "Mailbox unavailable",
			wantClass: ClassificationTransient,
		},
		{
			name:      "451 local error is transient",
			code:      451,
			message:   "Requested action aborted: local error in processing",
			wantClass: ClassificationTransient,
		},
		{
			name:      "452 insufficient storage is transient",
			code:      452,
			message:   "Insufficient system storage",
			wantClass: ClassificationTransient,
		},
		{
			name:      "other 4xx is transient",
			code:      432,
			message:   "A password transition is needed",
			wantClass: ClassificationTransient,
		},
		{
			name:      "spam complaint in 250 ack",
			code:      250,
			message:   "Message accepted but flagged for spam review",
			wantClass: ClassificationComplaint,
			wantSuppress: true,
			wantReason: model.SuppressionComplaint,
		},
		{
			name:      "abuse complaint in 550 message",
			code:      550,
			message:   "Reported as abuse by recipient",
			wantClass: ClassificationComplaint,
			wantSuppress: true,
			wantReason: model.SuppressionComplaint,
		},
		{
			name:      "unsolicited complaint",
			code:      554,
			message:   "Rejected: unsolicited email",
			wantClass: ClassificationComplaint,
			wantSuppress: true,
			wantReason: model.SuppressionComplaint,
		},
		{
			name:      "unknown code defaults to transient",
			code:      199,
			message:   "Something unexpected",
			wantClass: ClassificationTransient,
		},
		{
			name:      "zero code defaults to transient",
			code:      0,
			message:   "Connection error",
			wantClass: ClassificationTransient,
		},
		{
			name:      "600+ code defaults to transient",
			code:      600,
			message:   "Unknown error",
			wantClass: ClassificationTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ClassifyBounce(tt.code, tt.message)
			assert.Equal(t, tt.wantClass, info.Classification, "classification")
			assert.Equal(t, tt.wantSuppress, info.Suppress, "suppress flag")
			if tt.wantSuppress {
				assert.Equal(t, tt.wantReason, info.SuppressReason, "suppress reason")
			}
			assert.Equal(t, tt.code, info.Code, "code preserved")
			assert.Equal(t, tt.message, info.Message, "message preserved")
		})
	}
}

func TestClassifyDSN(t *testing.T) {
	t.Run("valid multipart/report DSN message, 5.1.1 permanent+suppress", func(t *testing.T) {
		boundary := "boundary123"
		rawMessage := fmt.Sprintf(
			"From: mailer-daemon@example.com\r\n"+
				"To: sender@example.com\r\n"+
				"Subject: Delivery Status Notification\r\n"+
				"Content-Type: multipart/report; report-type=delivery-status; boundary=%s\r\n"+
				"\r\n"+
				"--%s\r\n"+
				"Content-Type: text/plain\r\n"+
				"\r\n"+
				"Your message could not be delivered.\r\n"+
				"--%s\r\n"+
				"Content-Type: message/delivery-status\r\n"+
				"\r\n"+
				"Reporting-MTA: dns; example.com\r\n"+
				"\r\n"+
				"Final-Recipient: rfc822;bob@example.com\r\n"+
				"Action: failed\r\n"+
				"Status: 5.1.1\r\n"+
				"Diagnostic-Code: smtp; 550 5.1.1 User unknown\r\n"+
				"--%s--\r\n",
			boundary, boundary, boundary, boundary,
		)

		info, err := ClassifyDSN([]byte(rawMessage))
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "bob@example.com", info.Recipient)
		assert.Equal(t, 550, info.Code)
		assert.Equal(t, ClassificationPermanent, info.Classification)
		assert.True(t, info.Suppress)
		assert.Equal(t, model.SuppressionHardBounce, info.SuppressReason)
	})

	t.Run("DSN with delayed action 4.2.2 is transient regardless of status digits", func(t *testing.T) {
		boundary := "softboundary"
		rawMessage := fmt.Sprintf(
			"From: mailer-daemon@example.com\r\n"+
				"To: sender@example.com\r\n"+
				"Subject: Delivery Status Notification\r\n"+
				"Content-Type: multipart/report; report-type=delivery-status; boundary=%s\r\n"+
				"\r\n"+
				"--%s\r\n"+
				"Content-Type: text/plain\r\n"+
				"\r\n"+
				"Delivery delayed.\r\n"+
				"--%s\r\n"+
				"Content-Type: message/delivery-status\r\n"+
				"\r\n"+
				"Reporting-MTA: dns; example.com\r\n"+
				"\r\n"+
				"Final-Recipient: rfc822;alice@example.com\r\n"+
				"Action: delayed\r\n"+
				"Status: 4.2.2\r\n"+
				"--%s--\r\n",
			boundary, boundary, boundary, boundary,
		)

		info, err := ClassifyDSN([]byte(rawMessage))
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "alice@example.com", info.Recipient)
		assert.Equal(t, ClassificationTransient, info.Classification)
		assert.False(t, info.Suppress)
	})

	t.Run("DSN with failed action and 5.7.1 policy status does not suppress", func(t *testing.T) {
		boundary := "policyboundary"
		rawMessage := fmt.Sprintf(
			"From: mailer-daemon@example.com\r\n"+
				"Content-Type: multipart/report; report-type=delivery-status; boundary=%s\r\n"+
				"\r\n"+
				"--%s\r\n"+
				"Content-Type: text/plain\r\n"+
				"\r\n"+
				"Rejected.\r\n"+
				"--%s\r\n"+
				"Content-Type: message/delivery-status\r\n"+
				"\r\n"+
				"Final-Recipient: rfc822;carol@example.com\r\n"+
				"Action: failed\r\n"+
				"Status: 5.7.1\r\n"+
				"Diagnostic-Code: smtp; 550 5.7.1 Policy rejection\r\n"+
				"--%s--\r\n",
			boundary, boundary, boundary, boundary,
		)

		info, err := ClassifyDSN([]byte(rawMessage))
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, ClassificationPermanent, info.Classification)
		assert.False(t, info.Suppress)
	})

	t.Run("missing Content-Type header", func(t *testing.T) {
		rawMessage := "From: test@example.com\r\n\r\nNo content type\r\n"
		_, err := ClassifyDSN([]byte(rawMessage))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Content-Type")
	})

	t.Run("wrong Content-Type (not multipart/report)", func(t *testing.T) {
		rawMessage := "From: test@example.com\r\nContent-Type: text/plain\r\n\r\nNot a DSN.\r\n"
		_, err := ClassifyDSN([]byte(rawMessage))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "multipart/report")
	})

	t.Run("wrong report-type", func(t *testing.T) {
		rawMessage := "From: test@example.com\r\n" +
			"Content-Type: multipart/report; report-type=feedback-report; boundary=b1\r\n" +
			"\r\n" +
			"--b1\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			"feedback.\r\n" +
			"--b1--\r\n"
		_, err := ClassifyDSN([]byte(rawMessage))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "delivery-status")
	})

	t.Run("no delivery-status part found", func(t *testing.T) {
		boundary := "nobouncepart"
		rawMessage := fmt.Sprintf(
			"From: test@example.com\r\n"+
				"Content-Type: multipart/report; report-type=delivery-status; boundary=%s\r\n"+
				"\r\n"+
				"--%s\r\n"+
				"Content-Type: text/plain\r\n"+
				"\r\n"+
				"Some text.\r\n"+
				"--%s--\r\n",
			boundary, boundary, boundary,
		)
		_, err := ClassifyDSN([]byte(rawMessage))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no message/delivery-status part found")
	})

	t.Run("invalid raw message", func(t *testing.T) {
		_, err := ClassifyDSN([]byte("not a valid email at all"))
		assert.Error(t, err)
	})
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		substrs []string
		want    bool
	}{
		{
			name:    "contains first substring",
			s:       "hello world",
			substrs: []string{"hello", "foo"},
			want:    true,
		},
		{
			name:    "contains second substring",
			s:       "hello world",
			substrs: []string{"foo", "world"},
			want:    true,
		},
		{
			name:    "contains none",
			s:       "hello world",
			substrs: []string{"foo", "bar", "baz"},
			want:    false,
		},
		{
			name:    "empty string",
			s:       "",
			substrs: []string{"foo"},
			want:    false,
		},
		{
			name:    "empty substrs",
			s:       "hello",
			substrs: []string{},
			want:    false,
		},
		{
			name:    "empty substring matches everything",
			s:       "hello",
			substrs: []string{""},
			want:    true,
		},
		{
			name:    "case sensitive",
			s:       "Hello World",
			substrs: []string{"hello"},
			want:    false,
		},
		{
			name:    "partial match",
			s:       "unsubscribe",
			substrs: []string{"subscribe"},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := containsAny(tt.s, tt.substrs...)
			assert.Equal(t, tt.want, got)
		})
	}
}
