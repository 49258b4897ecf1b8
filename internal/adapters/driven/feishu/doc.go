// Package feishu implements the driven ports against the Feishu
// (Lark) OpenAPI: the raw platform transport, the tenant and user
// credential providers, and permission introspection.
//
// Feishu wraps every response in a {code, msg, data} envelope. A
// non-zero code is a business failure even when the HTTP status is
// 200; the 99991663 class of codes denotes an invalid or expired
// credential and is the gateway's trigger for its single retry.
package feishu
