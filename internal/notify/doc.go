// Package notify delivers classified alerts to notification channels.
//
// The chat webhook channel is attempted for every alert; the email
// channel only for critical ones. Channels fail independently: a
// delivery error is logged and recorded in the outcome but never stops
// the remaining channel or the remaining alerts, and an unconfigured
// channel is skipped for the whole run. Delivery is best-effort and
// fire-and-forget — there is no retry loop and no queue.
package notify
