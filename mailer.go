package auth

import "context"

// EmailDispatcher is the outbound email collaborator. Transport is out of
// scope here; implementations decide how the links travel.
type EmailDispatcher interface {
	SendVerificationEmail(ctx context.Context, email, link string) error
	SendPasswordResetEmail(ctx context.Context, email, link string) error
}

// logDispatcher is the default dispatcher: it logs the links it would have
// sent and reports success. Useful for development and tests.
type logDispatcher struct {
	logger Logger
}

// NewLogEmailDispatcher returns a dispatcher that only logs outgoing mail
func NewLogEmailDispatcher(logger Logger) EmailDispatcher {
	if logger == nil {
		logger = defLogger{}
	}
	return &logDispatcher{logger: logger}
}

func (d *logDispatcher) SendVerificationEmail(_ context.Context, email, link string) error {
	d.logger.Info("verification email", "to", email, "link", link)
	return nil
}

func (d *logDispatcher) SendPasswordResetEmail(_ context.Context, email, link string) error {
	d.logger.Info("password reset email", "to", email, "link", link)
	return nil
}
