// Package httpclient holds the pieces shared by the HTTP provider adapters:
// proactive request pacing and mapping of provider responses onto domain
// errors.
package httpclient
