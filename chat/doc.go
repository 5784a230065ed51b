// Package chat answers shoutout commands typed directly in Twitch chat.
//
// StartShoutoutResponder connects to Twitch IRC for TWITCH_CHANNEL as
// TWITCH_BOT_USERNAME and, for every message whose first word is a configured
// shoutout trigger, dispatches it through the same command router the webhook
// uses and posts the reply back to the channel. Other messages are ignored, so
// the bot never acknowledges unrelated commands in chat.
//
// Credentials: the IRC client requires a bot username and an OAuth token with
// chat:read/chat:edit scopes. These are separate from the Helix app
// credentials used for user and clip lookups.
package chat
