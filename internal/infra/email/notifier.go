package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SMTPNotifier emails the requesting user when a capture job permanently
// fails. Delivery is unauthenticated SMTP.
type SMTPNotifier struct {
	addr   string
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		from:   from,
		logger: logger,
	}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, jobID, videoURL, errorMsg string) error {
	log := n.logger.With(zap.String("to", userEmail), zap.String("job_id", jobID))

	msg := failureMessage(n.from, userEmail, jobID, videoURL, errorMsg)
	if err := smtp.SendMail(n.addr, nil, n.from, []string{userEmail}, msg); err != nil {
		log.Error("failure notification not delivered", zap.Error(err))
		return fmt.Errorf("send failure email: %w", err)
	}

	log.Info("failure notification sent")
	return nil
}

func failureMessage(from, to, jobID, videoURL, errorMsg string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: FrameSift capture failed (job %s)\r\n", jobID)
	b.WriteString("\r\n")
	b.WriteString("Hello,\r\n\r\n")
	b.WriteString("Your key moment capture could not be completed after several attempts.\r\n\r\n")
	fmt.Fprintf(&b, "Job ID: %s\r\n", jobID)
	fmt.Fprintf(&b, "Video:  %s\r\n", videoURL)
	fmt.Fprintf(&b, "Error:  %s\r\n\r\n", errorMsg)
	b.WriteString("Check that the video is public and not age restricted, then submit it again.\r\n\r\n")
	b.WriteString("-- FrameSift\r\n")
	return []byte(b.String())
}
