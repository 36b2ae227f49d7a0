package middleware

import "github.com/go-telegram/bot"

// BotChain returns the admin bot middlewares, outermost first. AdminOnly sits
// in front of RateLimit so updates from strangers never get a reply.
func BotChain(admins interface{ IsAdmin(int64) bool }, limiter *KeyedLimiter, report PanicReporter) []bot.Middleware {
	return []bot.Middleware{
		Recover(report),
		Logging(),
		AdminOnly(admins),
		RateLimit(limiter),
	}
}
