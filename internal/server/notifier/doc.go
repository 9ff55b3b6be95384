// Package notifier delivers account emails (verification and password reset
// codes) outside the request path.
//
// Callers hand a Notification to a Notifier and move on: delivery failures
// are logged by the Dispatcher and never reach the operation that triggered
// them.
//
// Senders
//
//   - SMTPSender renders the HTML template and sends it with go-mail.
//   - LogSender renders the template and only logs the recipient; used when
//     no mail server is configured.
package notifier
