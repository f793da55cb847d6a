// Package chat is the transport boundary: it connects to chat via IRC,
// normalizes incoming protocol messages into bot.Event values for the
// dispatcher, and drains the dispatcher's ordered reply sink back onto the
// connection.
//
// The core never sees the wire protocol. Private messages become Message
// events, part notices become Quit events, and replies are plain
// (target, text) pairs; line-length handling and flood control are the IRC
// client's problem.
//
// Credentials: the IRC client requires a bot username and an OAuth token with
// chat:read/chat:edit scopes. Missing credentials disable the transport with
// a log line rather than an error, matching how optional features degrade
// elsewhere in the bot.
package chat
