package notifier

import "context"

// Kind selects the email template.
type Kind string

const (
	KindVerification  Kind = "verification"
	KindPasswordReset Kind = "password_reset"
)

// Notification carries everything a template needs.
type Notification struct {
	Kind  Kind
	Email string
	Name  string
	Code  string
}

// Notifier accepts notifications for asynchronous delivery. Notify must not
// block on delivery and has no error result.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Sender performs a single synchronous delivery attempt.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Recorder observes delivery outcomes. Implemented by the metrics package.
type Recorder interface {
	NotificationResult(kind string, outcome string)
}

const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

type nopRecorder struct{}

func (nopRecorder) NotificationResult(string, string) {}
